package main

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/apiariosamano/colmena/internal/backend"
	"github.com/apiariosamano/colmena/internal/devices"
	"github.com/apiariosamano/colmena/internal/logging"
	"github.com/apiariosamano/colmena/internal/monitor"
)

var (
	monitorInterval time.Duration
	monitorReadOnly bool
)

func init() {
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 0, "polling interval (default devices.poll_interval)")
	monitorCmd.Flags().BoolVar(&monitorReadOnly, "read-only", false, "disable actuator key bindings")
	rootCmd.AddCommand(monitorCmd)
}

var monitorCmd = &cobra.Command{
	Use:   "monitor <id>",
	Short: "Live dashboard for one hive device",
	Long: `Open a live dashboard for one hive device. It polls the apiary service
directly with the stored session and lets you drive the actuators:

  v ventilador   c compuerta   l luz   m motor   +/- servo 1   q salir

The gate key reports an error: the apiary service has no REST gate route.

The session is reloaded when 'colmena login' stores a new token.

Examples:
  colmena monitor ESP32-01
  colmena monitor ESP32-01 --interval 2s --read-only`,
	Args: cobra.ExactArgs(1),
	RunE: runMonitor,
}

// sessionDevices attaches the current session token to every device call.
type sessionDevices struct {
	svc *backend.ApiariosService

	mu    sync.RWMutex
	token string
}

func (s *sessionDevices) setToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

func (s *sessionDevices) ctx(ctx context.Context) context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return backend.WithToken(ctx, s.token)
}

func (s *sessionDevices) Device(ctx context.Context, id string) (backend.Dispositivo, error) {
	return s.svc.Device(s.ctx(ctx), id)
}

func (s *sessionDevices) Switch(ctx context.Context, id, actuator string, on bool) (string, error) {
	return s.svc.Switch(s.ctx(ctx), id, actuator, on)
}

func (s *sessionDevices) Servo(ctx context.Context, id, servo string, degrees int) (string, error) {
	return s.svc.Servo(s.ctx(ctx), id, servo, degrees)
}

func (s *sessionDevices) RGB(ctx context.Context, id string, r, g, b int) (string, error) {
	return s.svc.RGB(s.ctx(ctx), id, r, g, b)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := tokenStore()
	if err != nil {
		return err
	}
	token, err := storedToken()
	if err != nil {
		return err
	}

	services, err := backend.New(cfg.Services, cfg.Client, logging.NewNop())
	if err != nil {
		return err
	}
	devs := &sessionDevices{svc: services.Apiarios, token: token}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if updates, err := store.Watch(ctx); err == nil {
		go func() {
			for t := range updates {
				devs.setToken(t)
			}
		}()
	}

	interval := monitorInterval
	if interval <= 0 {
		interval = cfg.Devices.PollInterval.Duration()
	}
	poller, err := devices.NewPoller(args[0], devs,
		devices.WithInterval(interval),
		devices.WithStaleThreshold(cfg.Devices.StaleThreshold.Duration()))
	if err != nil {
		return err
	}
	var panel *devices.Panel
	if !monitorReadOnly {
		if panel, err = devices.NewPanel(args[0], devs); err != nil {
			return err
		}
	}

	_, err = tea.NewProgram(monitor.NewModel(poller, panel, interval), tea.WithAltScreen()).Run()
	return err
}
