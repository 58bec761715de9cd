package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// AppConfig holds the runtime settings not already covered by CLI flags:
// values an operator would otherwise have to pass as flags on every
// invocation. Loaded from environment variables (optionally via a .env
// file), mirroring the teacher's env-override layer.
type AppConfig struct {
	DBPath       string
	BindAddr     string
	PollInterval int
	NoETag       bool
}

func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		DBPath:       "feeds.db",
		BindAddr:     "0.0.0.0:8080",
		PollInterval: 3600,
		NoETag:       false,
	}
}

// LoadAppConfig loads a .env file if present (silently ignored if not),
// applies environment overrides over the defaults, and returns the
// result. CLI flags are applied on top of this by the caller.
func LoadAppConfig() (*AppConfig, error) {
	cfg := DefaultAppConfig()

	if envPath := findEnvFile(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func findEnvFile() string {
	if _, err := os.Stat(".env"); err == nil {
		return ".env"
	}
	return ""
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("FEEDOR_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("FEEDOR_BIND_ADDR"); v != "" {
		cfg.BindAddr = v
	}
	if v := os.Getenv("FEEDOR_POLL_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PollInterval = n
		}
	}
	if v := os.Getenv("FEEDOR_NO_ETAG"); v != "" {
		cfg.NoETag = v == "1" || v == "true"
	}
}
