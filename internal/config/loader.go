package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB

	// EnvPrefix is stripped from environment variables before mapping.
	EnvPrefix = "COLMENA_"
)

// Load loads configuration from a YAML file, then overrides it with
// environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (COLMENA_SERVER_PORT, COLMENA_SERVICES_APIARIOS, ...)
//  2. YAML config file (~/.config/colmena/config.yaml)
//  3. Hardcoded defaults
//
// The file must live in ~/.config/colmena/ or /etc/colmena/, have 0600 or 0400
// permissions and be smaller than 1MB. A missing file is not an error.
//
// Environment variables are mapped by splitting on the first underscore after
// the prefix:
//
//	COLMENA_SERVER_PORT         -> server.port
//	COLMENA_SERVICES_IA_APIARIOS -> services.ia_apiarios
//	COLMENA_CLIENT_MAX_RETRIES  -> client.max_retries
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		configPath = filepath.Join(dir, "config.yaml")
	}

	if err := validateConfigPath(configPath); err != nil {
		return nil, fmt.Errorf("config path validation failed: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		// Validate through the open descriptor to avoid a TOCTOU race.
		f, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		if err := validateConfigFileProperties(info); err != nil {
			return nil, fmt.Errorf("config file validation failed: %w", err)
		}

		content, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// envKey maps COLMENA_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

// Dir returns the per-user configuration directory.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "colmena"), nil
}

// EnsureConfigDir creates the colmena config directory with 0700 permissions.
func EnsureConfigDir() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}
	return nil
}

func validateConfigPath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	resolvedPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		// Paths that do not exist yet are validated as given.
		resolvedPath = absPath
	}

	dir, err := Dir()
	if err != nil {
		return err
	}
	for _, allowed := range []string{dir, "/etc/colmena"} {
		if resolvedPath == allowed || strings.HasPrefix(resolvedPath, allowed+string(filepath.Separator)) {
			return nil
		}
	}
	return fmt.Errorf("config file must be in ~/.config/colmena/ or /etc/colmena/")
}

func validateConfigFileProperties(info os.FileInfo) error {
	if runtime.GOOS != "windows" {
		perm := info.Mode().Perm()
		if perm != 0600 && perm != 0400 {
			return fmt.Errorf("insecure config file permissions: %v (expected 0600 or 0400)", perm)
		}
	}
	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9191
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	s := &cfg.Services
	setDefault(&s.Auth, "http://localhost:8085/api/auth")
	setDefault(&s.Almacenes, "http://localhost:8081/api/almacenes")
	setDefault(&s.Herramientas, "http://localhost:8081/api/herramientas")
	setDefault(&s.Materias, "http://localhost:8081/api/materias-primas")
	setDefault(&s.Medicamentos, "http://localhost:8081/api/medicamentos")
	setDefault(&s.Apiarios, "http://localhost:8082/api/apiarios")
	setDefault(&s.IAApiarios, "http://localhost:8082/api/ia-analisis")
	setDefault(&s.IAProduccion, "http://localhost:8087/api/produccion/ia")
	setDefault(&s.Lotes, "http://localhost:8087/api/lotes")
	setDefault(&s.Cosechas, "http://localhost:8087/api/cosechas")
	setDefault(&s.Productos, "http://localhost:8080/api/productos")
	setDefault(&s.Proveedores, "http://localhost:8086/api/proveedores")
	setDefault(&s.Usuarios, "http://localhost:8080/api/usuarios")

	if cfg.Client.Timeout == 0 {
		cfg.Client.Timeout = Duration(30 * time.Second)
	}
	if cfg.Client.MaxRetries == 0 {
		cfg.Client.MaxRetries = 2
	}
	if cfg.Client.Burst == 0 {
		cfg.Client.Burst = 10
	}

	if cfg.Devices.PollInterval == 0 {
		cfg.Devices.PollInterval = Duration(5 * time.Second)
	}
	if cfg.Devices.StaleThreshold == 0 {
		cfg.Devices.StaleThreshold = Duration(45 * time.Second)
	}

	setDefault(&cfg.Advisor.OllamaURL, "http://localhost:11434")
	setDefault(&cfg.NATS.SubjectPrefix, "colmena")

	if cfg.Session.TokenFile == "" {
		if dir, err := Dir(); err == nil {
			cfg.Session.TokenFile = filepath.Join(dir, "token")
		}
	}

	setDefault(&cfg.Logging.Level, "info")
	setDefault(&cfg.Logging.Format, "json")

	setDefault(&cfg.Observability.ServiceName, "colmena")
	setDefault(&cfg.Observability.Endpoint, "localhost:4317")
	setDefault(&cfg.Observability.Protocol, "grpc")
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
