// Colmenad is the HTTP backend-for-frontend of the apiary management console.
//
// It fronts the apiary microservices with a single authenticated API:
// suggestion cards from the AI analysis services, warehouse inventory,
// device actuators and sensor readings. Readings and actuator events are
// optionally published to NATS.
//
// Configuration is loaded from ~/.config/colmena/config.yaml and COLMENA_*
// environment variables. See internal/config for details.
//
// Usage:
//
//	# Start server with defaults
//	colmenad
//
//	# Configure via environment
//	COLMENA_SERVER_PORT=9090 COLMENA_NATS_URL=nats://localhost:4222 colmenad
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/apiariosamano/colmena/internal/advisor"
	"github.com/apiariosamano/colmena/internal/backend"
	"github.com/apiariosamano/colmena/internal/config"
	"github.com/apiariosamano/colmena/internal/devices"
	httpserver "github.com/apiariosamano/colmena/internal/http"
	"github.com/apiariosamano/colmena/internal/inventory"
	"github.com/apiariosamano/colmena/internal/logging"
	"github.com/apiariosamano/colmena/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default ~/.config/colmena/config.yaml)")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  colmenad           Start the colmena server\n")
			fmt.Fprintf(os.Stderr, "  colmenad version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("colmenad\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts colmenad and blocks until ctx is cancelled.
//
// Startup order:
//  1. Loads and validates configuration
//  2. Initializes telemetry and logger
//  3. Creates backend clients, advisor and inventory loader
//  4. Connects to NATS when configured
//  5. Starts the HTTP server and shuts it down gracefully on cancellation
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Observability))
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
		defer cancel()
		_ = tel.Shutdown(shutdownCtx)
	}()

	logger, err := initLogger(cfg, tel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	logger.Info(ctx, "starting colmenad",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.Bool("telemetry", cfg.Observability.EnableTelemetry),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout.Duration()))

	deps, err := initDependencies(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.Close()

	logger.Info(ctx, "dependencies initialized",
		zap.Bool("nats_connected", deps.natsConn != nil),
		zap.Bool("local_model", deps.localModel != nil))

	srv, err := httpserver.NewServer(httpserver.Deps{
		Advisor:        deps.advisor,
		Inventory:      deps.inventory,
		Devices:        deps.services.Apiarios,
		Sink:           deps.sink,
		StaleThreshold: cfg.Devices.StaleThreshold.Duration(),
		Registry:       deps.registry,
		Metrics:        httpserver.NewHTTPMetrics(logger),
	}, logger, &httpserver.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	})
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}

// dependencies holds everything the HTTP server is built from.
type dependencies struct {
	services   *backend.Services
	advisor    *advisor.Advisor
	localModel *advisor.LocalModel
	inventory  *inventory.Loader
	natsConn   *nats.Conn
	sink       devices.Sink
	registry   *prometheus.Registry
}

// Close releases infrastructure resources.
func (d *dependencies) Close() {
	if d.natsConn != nil {
		_ = d.natsConn.Drain()
	}
}

func initLogger(cfg *config.Config, tel *telemetry.Telemetry) (*logging.Logger, error) {
	lc, err := logging.FromSettings(cfg.Logging)
	if err != nil {
		return nil, err
	}
	return logging.NewLogger(lc, tel.LoggerProvider())
}

func initDependencies(cfg *config.Config, logger *logging.Logger) (*dependencies, error) {
	services, err := backend.New(cfg.Services, cfg.Client, logger)
	if err != nil {
		return nil, fmt.Errorf("creating backend clients: %w", err)
	}

	d := &dependencies{services: services}

	opts := []advisor.Option{advisor.WithLogger(logger.Named("advisor"))}
	if cfg.Advisor.LocalModel != "" {
		lm, err := advisor.NewLocalModel(cfg.Advisor.LocalModel, cfg.Advisor.OllamaURL)
		if err != nil {
			return nil, fmt.Errorf("creating local model: %w", err)
		}
		d.localModel = lm
		opts = append(opts, advisor.WithLocalModel(lm), advisor.WithPreferLocal(cfg.Advisor.PreferLocal))
	}
	if d.advisor, err = advisor.New(services.IAApiarios, services.IAProduccion, opts...); err != nil {
		return nil, fmt.Errorf("creating advisor: %w", err)
	}

	if d.inventory, err = inventory.FromServices(services, logger.Named("inventory")); err != nil {
		return nil, fmt.Errorf("creating inventory loader: %w", err)
	}

	if cfg.NATS.URL != "" {
		nc, err := devices.ConnectNATS(cfg.NATS.URL, logger.Named("nats"))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
		}
		d.natsConn = nc
		d.sink = devices.NewNATSSink(nc, cfg.NATS.SubjectPrefix)
	}

	d.registry = prometheus.NewRegistry()
	d.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return d, nil
}
