// Package config loads graphplug settings from graphplug.yaml, GRAPHPLUG_
// environment variables and defaults, in that order of precedence from last
// to first.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. GRAPHPLUG_SERVER_ADDR.
const EnvPrefix = "GRAPHPLUG"

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config is the complete graphplug configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	GraphQL GraphQLConfig `mapstructure:"graphql"`
	Model   ModelConfig   `mapstructure:"model"`
	Storage StorageConfig `mapstructure:"storage"`
	Schema  SchemaConfig  `mapstructure:"schema"`
	Otel    OtelConfig    `mapstructure:"otel"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Addr          string        `mapstructure:"addr"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Pretty        bool          `mapstructure:"pretty"`
	GraphiQL      bool          `mapstructure:"graphiql"`
	MaxBodyBytes  int64         `mapstructure:"max_body_bytes"`
	CORSOrigins   []string      `mapstructure:"cors_origins"`
	GlobalHeaders []string      `mapstructure:"global_headers"`
}

type GraphQLConfig struct {
	Introspection bool `mapstructure:"introspection"`
}

// ModelConfig points at the YAML entity model the schema is produced from.
type ModelConfig struct {
	Path string `mapstructure:"path"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// SchemaConfig is the cacheability of the schema itself, merged into every
// response.
type SchemaConfig struct {
	CacheTags   []string `mapstructure:"cache_tags"`
	CacheMaxAge int      `mapstructure:"cache_max_age"`
}

type OtelConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Service  string `mapstructure:"service"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.timeout", 10*time.Second)
	v.SetDefault("server.pretty", false)
	v.SetDefault("server.graphiql", true)
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("graphql.introspection", true)
	v.SetDefault("model.path", "model.yaml")
	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("storage.dsn", "")
	v.SetDefault("schema.cache_max_age", -1)
	v.SetDefault("otel.endpoint", "")
	v.SetDefault("otel.service", "graphplug")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load reads the configuration. An empty file searches graphplug.yaml in the
// working directory and tolerates its absence; an explicit file must exist.
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("graphplug")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that defaults cannot make valid.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for the %s driver", DriverSQLite)
		}
	default:
		return fmt.Errorf("storage.driver must be %s or %s, got: %s", DriverMemory, DriverSQLite, c.Storage.Driver)
	}
	if c.Model.Path == "" {
		return errors.New("model.path is required")
	}
	if c.Server.Timeout < 0 {
		return fmt.Errorf("server.timeout must not be negative, got: %s", c.Server.Timeout)
	}
	if c.Schema.CacheMaxAge < -1 {
		return fmt.Errorf("schema.cache_max_age must be -1 or more, got: %d", c.Schema.CacheMaxAge)
	}
	return nil
}
