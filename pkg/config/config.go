// Package config loads canvasd settings from defaults, an optional YAML file
// and CANVAS_ environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment overrides. Nested keys use a double
// underscore: CANVAS_STORE__DRIVER sets store.driver.
const EnvPrefix = "CANVAS_"

// Config is the full canvasd configuration.
type Config struct {
	Server ServerConfig `koanf:"server"`
	Store  StoreConfig  `koanf:"store"`
	Charts ChartsConfig `koanf:"charts"`
	Export ExportConfig `koanf:"export"`
	Log    LogConfig    `koanf:"log"`
}

// ServerConfig selects the HTTP transport.
type ServerConfig struct {
	Addr string `koanf:"addr"`
	// Transport is "gorouter" (fiber) or "chi".
	Transport string `koanf:"transport"`
	BasePath  string `koanf:"base_path"`
	Title     string `koanf:"title"`
	// SessionTTL ends canvas sessions idle for longer; negative disables.
	SessionTTL time.Duration `koanf:"session_ttl"`
}

// StoreConfig selects where layouts are persisted.
type StoreConfig struct {
	// Driver is "memory", "sqlite" or "mongo".
	Driver          string `koanf:"driver"`
	SQLitePath      string `koanf:"sqlite_path"`
	MongoURI        string `koanf:"mongo_uri"`
	MongoDatabase   string `koanf:"mongo_database"`
	MongoCollection string `koanf:"mongo_collection"`
}

// ChartsConfig selects the chart library source.
type ChartsConfig struct {
	// Source is "mock" or "http".
	Source       string        `koanf:"source"`
	BaseURL      string        `koanf:"base_url"`
	Token        string        `koanf:"token"`
	PathTemplate string        `koanf:"path_template"`
	Timeout      time.Duration `koanf:"timeout"`
	Breaker      BreakerConfig `koanf:"breaker"`
}

// BreakerConfig tunes the circuit breaker of the http chart source.
type BreakerConfig struct {
	MaxFailures uint32        `koanf:"max_failures"`
	OpenTimeout time.Duration `koanf:"open_timeout"`
	Interval    time.Duration `koanf:"interval"`
}

// ExportConfig tunes document and image exports.
type ExportConfig struct {
	// Rasterizer is "gg" or "chrome".
	Rasterizer   string        `koanf:"rasterizer"`
	ChromeURL    string        `koanf:"chrome_url"`
	ChromeSettle time.Duration `koanf:"chrome_settle"`
	ChartTheme   string        `koanf:"chart_theme"`
	AssetsHost   string        `koanf:"assets_host"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `koanf:"level"`
	Development bool   `koanf:"development"`
}

// Defaults returns the baseline configuration.
func Defaults() map[string]any {
	return map[string]any{
		"server.addr":                 ":9876",
		"server.transport":            "gorouter",
		"server.base_path":            "/app",
		"server.title":                "Dashboard",
		"server.session_ttl":          "30m",
		"store.driver":                "memory",
		"store.sqlite_path":           "canvas.db",
		"store.mongo_database":        "canvas",
		"store.mongo_collection":      "canvas_layouts",
		"charts.source":               "mock",
		"charts.path_template":        "/charts/{user}",
		"charts.timeout":              "10s",
		"charts.breaker.max_failures": 5,
		"charts.breaker.open_timeout": "30s",
		"charts.breaker.interval":     "60s",
		"export.rasterizer":           "gg",
		"export.chrome_settle":        "500ms",
		"log.level":                   "info",
		"log.development":             false,
	}
}

// Load reads configuration. An empty path skips the file; a path that does
// not exist is an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	if err := oneOf("server.transport", c.Server.Transport, "gorouter", "chi"); err != nil {
		return err
	}
	if err := oneOf("store.driver", c.Store.Driver, "memory", "sqlite", "mongo"); err != nil {
		return err
	}
	if err := oneOf("charts.source", c.Charts.Source, "mock", "http"); err != nil {
		return err
	}
	if err := oneOf("export.rasterizer", c.Export.Rasterizer, "gg", "chrome"); err != nil {
		return err
	}
	if c.Store.Driver == "mongo" && c.Store.MongoURI == "" {
		return fmt.Errorf("config: store.mongo_uri is required for the mongo driver")
	}
	if c.Charts.Source == "http" && c.Charts.BaseURL == "" {
		return fmt.Errorf("config: charts.base_url is required for the http source")
	}
	return nil
}

func oneOf(key, value string, allowed ...string) error {
	for _, candidate := range allowed {
		if value == candidate {
			return nil
		}
	}
	return fmt.Errorf("config: %s must be one of %s, got %q", key, strings.Join(allowed, ", "), value)
}
