// Package config loads courtlistener settings from defaults, an optional
// YAML file, a .env file and COURTLISTENER_* environment variables, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jonwraymond/courtlistener/schema"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "COURTLISTENER"

// ErrMissingToken is returned by Validate when no API token is configured.
var ErrMissingToken = errors.New("api.token is required: set COURTLISTENER_API_TOKEN or api.token in the config file")

// Config is the resolved configuration.
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

type APIConfig struct {
	Token   string        `mapstructure:"token"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	// OTLPEndpoint enables trace export over OTLP/gRPC when set.
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

type CatalogConfig struct {
	// Path replaces the embedded endpoint catalog when set.
	Path string `mapstructure:"path"`
}

// Options controls where Load looks.
type Options struct {
	// ConfigFile is read instead of the search paths. It must exist.
	ConfigFile string
	// EnvFile defaults to ".env". A missing file is ignored.
	EnvFile string
	// SearchPaths overrides DefaultSearchPaths.
	SearchPaths []string
}

// DefaultSearchPaths lists the config files tried in order when no file is
// given explicitly.
func DefaultSearchPaths() []string {
	return []string{
		"courtlistener.yaml",
		filepath.Join(xdg.ConfigHome, "courtlistener", "config.yaml"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.token", "")
	v.SetDefault("api.base_url", "https://www.courtlistener.com/api/rest/v4")
	v.SetDefault("api.timeout", 300*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("server.name", "courtlistener")
	v.SetDefault("server.version", "dev")

	v.SetDefault("http.addr", ":8080")

	v.SetDefault("telemetry.otlp_endpoint", "")

	v.SetDefault("catalog.path", "")
}

// Load resolves the configuration.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("api.token", EnvPrefix+"_API_TOKEN")
	_ = v.BindEnv("api.base_url", EnvPrefix+"_BASE_URL", EnvPrefix+"_API_BASE_URL")
	_ = v.BindEnv("telemetry.otlp_endpoint", EnvPrefix+"_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")

	file, err := configFile(opts)
	if err != nil {
		return nil, err
	}
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.File = file
	return &cfg, nil
}

func configFile(opts Options) (string, error) {
	if opts.ConfigFile != "" {
		if _, err := os.Stat(opts.ConfigFile); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return opts.ConfigFile, nil
	}
	paths := opts.SearchPaths
	if paths == nil {
		paths = DefaultSearchPaths()
	}
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", nil
}

// Validate checks the settings needed to talk to the API.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.Token) == "" {
		return ErrMissingToken
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative, got %s", c.API.Timeout)
	}
	return nil
}

// Registry returns the endpoint catalog at catalog.path, or the embedded
// one when the path is empty.
func (c *Config) Registry() (*schema.Registry, error) {
	if c.Catalog.Path == "" {
		return schema.Default(), nil
	}
	r, err := schema.LoadFile(c.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", c.Catalog.Path, err)
	}
	return r, nil
}
