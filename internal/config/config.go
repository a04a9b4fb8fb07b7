package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string

	DBDriver string
	DBDSN    string

	BlobBasePath string

	LogLevel  string
	LogFormat string // json|pretty

	AuthSecret   string
	HostUser     string
	HostPassHash string // bcrypt; when empty HostPassword is hashed at startup
	HostPassword string

	CORSOriginsOnline  []string
	CORSOriginsOffline []string
}

// fileConfig is the optional YAML file named by QUIZ_CONFIG. Environment
// variables win over file values.
type fileConfig struct {
	Mode         string   `yaml:"mode"`
	HTTPAddr     string   `yaml:"http_addr"`
	DBDriver     string   `yaml:"db_driver"`
	DBDSN        string   `yaml:"db_dsn"`
	BlobBasePath string   `yaml:"blob_base_path"`
	LogLevel     string   `yaml:"log_level"`
	LogFormat    string   `yaml:"log_format"`
	HostUser     string   `yaml:"host_user"`
	HostPassHash string   `yaml:"host_pass_hash"`
	CORSOrigins  []string `yaml:"cors_origins"`
}

func FromEnv() (Config, error) {
	_ = godotenv.Load() // .env is optional

	var fc fileConfig
	if p := os.Getenv("QUIZ_CONFIG"); p != "" {
		b, err := os.ReadFile(p)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", p, err)
		}
	}

	mode := Mode(envOr("MODE", or(fc.Mode, string(ModeOffline))))
	cfg := Config{
		Mode:               mode,
		HTTPAddr:           envOr("HTTP_ADDR", or(fc.HTTPAddr, ":8080")),
		DBDriver:           envOr("DB_DRIVER", or(fc.DBDriver, "sqlite")),
		DBDSN:              envOr("DB_DSN", fc.DBDSN),
		BlobBasePath:       envOr("BLOB_BASE_PATH", or(fc.BlobBasePath, "./data")),
		LogLevel:           envOr("LOG_LEVEL", or(fc.LogLevel, "info")),
		LogFormat:          envOr("LOG_FORMAT", or(fc.LogFormat, "pretty")),
		AuthSecret:         envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		HostUser:           envOr("HOST_USER", or(fc.HostUser, "host")),
		HostPassHash:       envOr("HOST_PASS_HASH", fc.HostPassHash),
		HostPassword:       envOr("HOST_PASSWORD", "host"),
		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", strings.Join(fc.CORSOrigins, ",")),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:5173"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Mode != ModeOffline && c.Mode != ModeOnline {
		return fmt.Errorf("MODE must be offline or online, got %q", c.Mode)
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR cannot be empty")
	}
	if c.Mode == ModeOnline {
		if c.AuthSecret == "supersecret-dev-key" {
			return fmt.Errorf("AUTH_HMAC_SECRET must be set in online mode")
		}
		if c.HostPassHash == "" {
			return fmt.Errorf("HOST_PASS_HASH must be set in online mode")
		}
	}
	return nil
}

// CORSOrigins returns the allow-list for the current mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

func or(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
