// Package config provides configuration loading for colmena.
//
// Values come from a YAML file under ~/.config/colmena/ and are overridden by
// COLMENA_* environment variables. Every microservice the console talks to has
// its own base URL because each one is deployed independently.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Config holds the complete colmena configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Services      ServicesConfig      `koanf:"services"`
	Client        ClientConfig        `koanf:"client"`
	Devices       DevicesConfig       `koanf:"devices"`
	Advisor       AdvisorConfig       `koanf:"advisor"`
	NATS          NATSConfig          `koanf:"nats"`
	Session       SessionConfig       `koanf:"session"`
	Logging       LoggingConfig       `koanf:"logging"`
	Observability ObservabilityConfig `koanf:"observability"`
}

// ServerConfig holds HTTP server configuration for colmenad.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// ServicesConfig holds the base URL of every backend microservice.
type ServicesConfig struct {
	Auth         string `koanf:"auth"`
	Almacenes    string `koanf:"almacenes"`
	Herramientas string `koanf:"herramientas"`
	Materias     string `koanf:"materias"`
	Medicamentos string `koanf:"medicamentos"`
	Apiarios     string `koanf:"apiarios"`
	IAApiarios   string `koanf:"ia_apiarios"`
	IAProduccion string `koanf:"ia_produccion"`
	Lotes        string `koanf:"lotes"`
	Cosechas     string `koanf:"cosechas"`
	Productos    string `koanf:"productos"`
	Proveedores  string `koanf:"proveedores"`
	Usuarios     string `koanf:"usuarios"`
}

// ClientConfig tunes the shared REST client.
type ClientConfig struct {
	Timeout    Duration `koanf:"timeout"`
	MaxRetries int      `koanf:"max_retries"`
	RateLimit  float64  `koanf:"rate_limit"` // requests per second, 0 disables
	Burst      int      `koanf:"burst"`
}

// DevicesConfig controls sensor polling.
type DevicesConfig struct {
	PollInterval   Duration `koanf:"poll_interval"`
	StaleThreshold Duration `koanf:"stale_threshold"`
}

// AdvisorConfig configures the optional local model used for consultas.
type AdvisorConfig struct {
	LocalModel  string `koanf:"local_model"`
	OllamaURL   string `koanf:"ollama_url"`
	PreferLocal bool   `koanf:"prefer_local"` // ask the local model before the remote service
}

// NATSConfig configures the readings publisher.
type NATSConfig struct {
	URL           string `koanf:"url"`
	SubjectPrefix string `koanf:"subject_prefix"`
}

// SessionConfig configures where the bearer token is kept.
type SessionConfig struct {
	TokenFile string `koanf:"token_file"`
}

// LoggingConfig holds the subset of logging settings exposed in the file.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	// OTEL tees log entries into the OpenTelemetry log pipeline. It only
	// takes effect when observability.enable_telemetry is set.
	OTEL bool `koanf:"otel"`
}

// ObservabilityConfig holds OpenTelemetry configuration.
type ObservabilityConfig struct {
	EnableTelemetry bool   `koanf:"enable_telemetry"`
	ServiceName     string `koanf:"service_name"`
	Endpoint        string `koanf:"endpoint"`
	Protocol        string `koanf:"protocol"`
}

// Default returns a configuration pointing at the services on localhost.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	for name, raw := range c.Services.byName() {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("services.%s: invalid base URL %q", name, raw)
		}
	}

	if c.Client.MaxRetries < 0 {
		return fmt.Errorf("client.max_retries must be >= 0, got %d", c.Client.MaxRetries)
	}
	if c.Client.RateLimit < 0 {
		return fmt.Errorf("client.rate_limit must be >= 0, got %f", c.Client.RateLimit)
	}
	if c.Devices.PollInterval.Duration() < 500*time.Millisecond {
		return fmt.Errorf("devices.poll_interval too short: %s", c.Devices.PollInterval.Duration())
	}

	if c.Observability.EnableTelemetry && c.Observability.ServiceName == "" {
		return errors.New("service name required when telemetry is enabled")
	}

	return nil
}

func (s ServicesConfig) byName() map[string]string {
	return map[string]string{
		"auth":          s.Auth,
		"almacenes":     s.Almacenes,
		"herramientas":  s.Herramientas,
		"materias":      s.Materias,
		"medicamentos":  s.Medicamentos,
		"apiarios":      s.Apiarios,
		"ia_apiarios":   s.IAApiarios,
		"ia_produccion": s.IAProduccion,
		"lotes":         s.Lotes,
		"cosechas":      s.Cosechas,
		"productos":     s.Productos,
		"proveedores":   s.Proveedores,
		"usuarios":      s.Usuarios,
	}
}
