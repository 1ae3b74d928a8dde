package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/apiariosamano/colmena/internal/backend"
)

func init() {
	apiariosCmd.AddCommand(apiarioSugerenciasCmd)
	rootCmd.AddCommand(apiariosCmd)
	rootCmd.AddCommand(prediccionesCmd)
	rootCmd.AddCommand(produccionCmd)
	rootCmd.AddCommand(consultaCmd)
}

// apiariosCmd is the parent command for apiary operations
var apiariosCmd = &cobra.Command{
	Use:   "apiarios",
	Short: "Apiary operations",
}

var apiarioSugerenciasCmd = &cobra.Command{
	Use:   "sugerencias <id>",
	Short: "Show AI recommendations for one apiary",
	Long: `Ask the AI analysis service for recommendations about one apiary and
show them as cards.

Examples:
  colmena apiarios sugerencias 12`,
	Args: cobra.ExactArgs(1),
	RunE: runApiarioSugerencias,
}

var prediccionesCmd = &cobra.Command{
	Use:   "predicciones",
	Short: "Show predictive analysis across all apiaries",
	RunE:  runCards("/api/v1/predicciones"),
}

var produccionCmd = &cobra.Command{
	Use:   "produccion",
	Short: "Show AI suggestions for honey production",
	RunE:  runCards("/api/v1/produccion/sugerencias"),
}

var consultaCmd = &cobra.Command{
	Use:   "consulta <pregunta...>",
	Short: "Ask the beekeeping assistant a question",
	Long: `Ask the beekeeping assistant a free-form question. The answer comes from
the remote AI service, or from the local model when it is configured.

Examples:
  colmena consulta ¿cuándo conviene cosechar en temporada de lluvias?`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConsulta,
}

// ConsultaRequest matches internal/http ConsultaRequest
type ConsultaRequest struct {
	Pregunta string `json:"pregunta"`
}

func runApiarioSugerencias(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("apiario id must be a positive integer, got %q", args[0])
	}
	return runCards(fmt.Sprintf("/api/v1/apiarios/%d/sugerencias", id))(cmd, nil)
}

// runCards fetches a card list from path and renders it.
func runCards(path string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		client, err := authedClient()
		if err != nil {
			return err
		}
		var resp CardsResponse
		if err := client.do(cmd.Context(), http.MethodGet, path, nil, &resp); err != nil {
			return err
		}
		renderCards(cmd.OutOrStdout(), resp.Cards)
		return nil
	}
}

func runConsulta(cmd *cobra.Command, args []string) error {
	client, err := authedClient()
	if err != nil {
		return err
	}
	var ans backend.Answer
	req := ConsultaRequest{Pregunta: strings.Join(args, " ")}
	if err := client.do(cmd.Context(), http.MethodPost, "/api/v1/consulta", req, &ans); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), ans.Respuesta)
	if ans.ModeloUsado != "" {
		fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("modelo: "+ans.ModeloUsado))
	}
	return nil
}
