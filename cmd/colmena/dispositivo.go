package main

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/apiariosamano/colmena/internal/devices"
)

func init() {
	dispositivoCmd.AddCommand(lecturasCmd)
	rootCmd.AddCommand(dispositivoCmd)
}

// dispositivoCmd sends one actuator command
var dispositivoCmd = &cobra.Command{
	Use:   "dispositivo <id> <actuador> <valor>",
	Short: "Send a command to a hive device actuator",
	Long: `Send a command to one actuator of a hive device.

Actuators: ventilador, luz, motor (on/off), servo1, servo2 (degrees
0-180) and rgb ("r,g,b" or "#rrggbb"). The gate (compuerta) is driven over
MQTT only and is refused by the apiary service's REST API.

Examples:
  colmena dispositivo ESP32-01 ventilador on
  colmena dispositivo ESP32-01 luz apagar
  colmena dispositivo ESP32-01 servo1 90
  colmena dispositivo ESP32-01 rgb "#ffaa00"`,
	Args: cobra.ExactArgs(3),
	RunE: runDispositivo,
}

var lecturasCmd = &cobra.Command{
	Use:   "lecturas <id>",
	Short: "Show the current sensor readings of a device",
	Args:  cobra.ExactArgs(1),
	RunE:  runLecturas,
}

// ActuatorRequest matches internal/http ActuatorRequest
type ActuatorRequest struct {
	Value string `json:"value"`
}

// ActuatorResponse matches internal/http ActuatorResponse
type ActuatorResponse struct {
	DispositivoID string `json:"dispositivoId"`
	Actuator      string `json:"actuator"`
	Value         string `json:"value"`
	Response      string `json:"response"`
}

func runDispositivo(cmd *cobra.Command, args []string) error {
	client, err := authedClient()
	if err != nil {
		return err
	}
	path := fmt.Sprintf("/api/v1/dispositivos/%s/actuadores/%s", url.PathEscape(args[0]), url.PathEscape(args[1]))
	var resp ActuatorResponse
	if err := client.do(cmd.Context(), http.MethodPost, path, ActuatorRequest{Value: args[2]}, &resp); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s → %s\n", resp.DispositivoID, resp.Actuator, resp.Value)
	if resp.Response != "" {
		fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render(resp.Response))
	}
	return nil
}

func runLecturas(cmd *cobra.Command, args []string) error {
	client, err := authedClient()
	if err != nil {
		return err
	}
	var snap devices.Snapshot
	path := fmt.Sprintf("/api/v1/dispositivos/%s/lecturas", url.PathEscape(args[0]))
	if err := client.do(cmd.Context(), http.MethodGet, path, nil, &snap); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, cardTitleStyle.Render(snap.DispositivoID))
	if snap.Stale {
		fmt.Fprintln(w, fullStyle.Render("sin señal reciente"))
	}
	for _, r := range snap.Sensors {
		value := r.Value
		if !r.Connected {
			value = "desconectado"
		}
		fmt.Fprintf(w, "  %-14s %s\n", r.Name, value)
	}
	return nil
}
