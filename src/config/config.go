// Package config loads the settings of the dashboard service and the settings backend.
//
// Values are layered with koanf: built-in defaults, then an optional YAML file
// (CONFIG_PATH, config.yaml or config.yml), then environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config is the complete configuration
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Upstream  UpstreamConfig  `koanf:"upstream"`
	Dashboard DashboardConfig `koanf:"dashboard"`
	Backend   BackendConfig   `koanf:"backend"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig configures the dashboard HTTP listener
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"gt=0,lte=65535"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// UpstreamConfig holds the endpoints of the CMS and settings APIs
type UpstreamConfig struct {
	CMSClients             string        `koanf:"cms_clients" validate:"required,url"`
	SettingsFeatures       string        `koanf:"settings_features" validate:"required,url"`
	SettingsOverviewBase   string        `koanf:"settings_overview_base" validate:"required,url"`
	SettingsConfigurations string        `koanf:"settings_configurations" validate:"required,url"`
	SettingsUsages         string        `koanf:"settings_usages" validate:"required,url"`
	Timeout                time.Duration `koanf:"timeout" validate:"gt=0"`
	BreakerFailures        uint32        `koanf:"breaker_failures" validate:"gt=0"`
	BreakerTimeout         time.Duration `koanf:"breaker_timeout"`
}

// DashboardConfig configures the view state of the dashboard
type DashboardConfig struct {
	ClientBlacklist  []int         `koanf:"client_blacklist"`
	FetchConcurrency int           `koanf:"fetch_concurrency" validate:"gt=0"`
	SessionTTL       time.Duration `koanf:"session_ttl"`
	CookieSecure     bool          `koanf:"cookie_secure"`
}

// BackendConfig configures the settings backend
type BackendConfig struct {
	Host           string `koanf:"host"`
	Port           int    `koanf:"port" validate:"gt=0,lte=65535"`
	DBPath         string `koanf:"db_path" validate:"required"`
	MigrationsPath string `koanf:"migrations_path"`
	SeedPath       string `koanf:"seed_path"`
}

// LoggingConfig configures zerolog
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic disabled"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset
var DefaultConfigPaths = []string{"config.yaml", "config.yml"}

// ConfigPathEnvVar overrides the config file path
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		Upstream: UpstreamConfig{
			Timeout:         10 * time.Second,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Dashboard: DashboardConfig{
			ClientBlacklist:  []int{},
			FetchConcurrency: 8,
			SessionTTL:       2 * time.Hour,
		},
		Backend: BackendConfig{
			Host:   "0.0.0.0",
			Port:   8081,
			DBPath: "./data/settings.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the configuration. It only checks the fields every command
// needs; commands talking to the upstream APIs also call ValidateUpstream.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the server, dashboard, backend and logging sections
func (c *Config) Validate() error {
	for _, section := range []interface{}{c.Server, c.Dashboard, c.Backend, c.Logging} {
		if err := validate.Struct(section); err != nil {
			return describe(err)
		}
	}
	return nil
}

// ValidateUpstream checks that all upstream endpoints are configured
func (c *Config) ValidateUpstream() error {
	if err := validate.Struct(c.Upstream); err != nil {
		return describe(err)
	}
	return nil
}

// Address is the dashboard listen address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// BackendAddress is the settings backend listen address
func (c *Config) BackendAddress() string {
	return fmt.Sprintf("%s:%d", c.Backend.Host, c.Backend.Port)
}

func describe(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths are split on commas when they arrive as a string
var sliceConfigPaths = []string{
	"dashboard.client_blacklist",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := make([]string, 0)
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variables to config paths. The upstream
// endpoints are also accepted with the NEXT_PUBLIC_ prefix.
var envMappings = map[string]string{
	"cms_api_clients":             "upstream.cms_clients",
	"settings_api_features":       "upstream.settings_features",
	"settings_api_overview_base":  "upstream.settings_overview_base",
	"settings_api_configurations": "upstream.settings_configurations",
	"settings_api_usages":         "upstream.settings_usages",
	"upstream_timeout":            "upstream.timeout",
	"upstream_breaker_failures":   "upstream.breaker_failures",
	"upstream_breaker_timeout":    "upstream.breaker_timeout",

	"http_host":        "server.host",
	"http_port":        "server.port",
	"shutdown_timeout": "server.shutdown_timeout",

	"client_blacklist":  "dashboard.client_blacklist",
	"fetch_concurrency": "dashboard.fetch_concurrency",
	"session_ttl":       "dashboard.session_ttl",
	"cookie_secure":     "dashboard.cookie_secure",

	"backend_host":    "backend.host",
	"backend_port":    "backend.port",
	"db_path":         "backend.db_path",
	"migrations_path": "backend.migrations_path",
	"seed_path":       "backend.seed_path",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to its config path;
// unknown variables map to "" and are skipped
func envTransformFunc(key string) string {
	key = strings.ToLower(key)
	key = strings.TrimPrefix(key, "next_public_")
	return envMappings[key]
}
