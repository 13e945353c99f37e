package config

import (
	"fmt"
	"strings"

	"github.com/creasty/defaults"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

const EnvPrefix = "DATALAD"

type Configuration struct {
	Engine    Engine `mapstructure:"engine"`
	Store     Store  `mapstructure:"store"`
	Server    Server `mapstructure:"server"`
	LogFormat string `mapstructure:"log_format" default:"console"`
	LogLevel  string `mapstructure:"log_level" default:"info"`
}

// Engine configures the parallel run.
type Engine struct {
	Jobs int `mapstructure:"jobs" default:"4"`
	// Lookahead bounds the pending queue; 0 means 2 × Jobs.
	Lookahead      int  `mapstructure:"lookahead" default:"0"`
	Ordered        bool `mapstructure:"ordered" default:"true"`
	SkipDependents bool `mapstructure:"skip_dependents" default:"false"`
	FailFast       bool `mapstructure:"fail_fast" default:"false"`
	Force          bool `mapstructure:"force" default:"false"`
}

type Store struct {
	// DataFolder holds the run database. Empty keeps runs in memory.
	DataFolder string `mapstructure:"data_folder" default:""`
}

type Server struct {
	HTTPPort   int    `mapstructure:"http_port" default:"8000"`
	ServerMode string `mapstructure:"server_mode" default:"dev"`
}

func NewConfigurationWithDefaults() *Configuration {
	cfg := &Configuration{}
	if err := defaults.Set(cfg); err != nil {
		panic(fmt.Sprintf("invalid configuration defaults: %v", err))
	}
	return cfg
}

// NewViper returns a viper reading DATALAD_* environment variables, e.g.
// DATALAD_ENGINE_JOBS for engine.jobs.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load overlays cfg with the optional config file, environment and any flags
// bound to v. Values of cfg act as defaults.
func Load(v *viper.Viper, cfg *Configuration, configFile string) error {
	setDefaults(v, cfg)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg.Validate()
}

func setDefaults(v *viper.Viper, cfg *Configuration) {
	v.SetDefault("engine.jobs", cfg.Engine.Jobs)
	v.SetDefault("engine.lookahead", cfg.Engine.Lookahead)
	v.SetDefault("engine.ordered", cfg.Engine.Ordered)
	v.SetDefault("engine.skip_dependents", cfg.Engine.SkipDependents)
	v.SetDefault("engine.fail_fast", cfg.Engine.FailFast)
	v.SetDefault("engine.force", cfg.Engine.Force)

	v.SetDefault("store.data_folder", cfg.Store.DataFolder)

	v.SetDefault("server.http_port", cfg.Server.HTTPPort)
	v.SetDefault("server.server_mode", cfg.Server.ServerMode)

	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("log_level", cfg.LogLevel)
}

func (c *Configuration) Validate() error {
	if c.Engine.Jobs < 1 {
		return fmt.Errorf("engine.jobs must be at least 1, got %d", c.Engine.Jobs)
	}
	if c.Engine.Lookahead < 0 {
		return fmt.Errorf("engine.lookahead must not be negative, got %d", c.Engine.Lookahead)
	}
	if c.Server.HTTPPort < 1 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port out of range: %d", c.Server.HTTPPort)
	}
	switch c.Server.ServerMode {
	case "dev", "prod":
	default:
		return fmt.Errorf("server.server_mode must be \"dev\" or \"prod\", got %q", c.Server.ServerMode)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be \"console\" or \"json\", got %q", c.LogFormat)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// DebugMap returns the configuration for structured logging.
func (c *Configuration) DebugMap() map[string]any {
	return map[string]any{
		"engine.jobs":            c.Engine.Jobs,
		"engine.lookahead":       c.Engine.Lookahead,
		"engine.ordered":         c.Engine.Ordered,
		"engine.skip_dependents": c.Engine.SkipDependents,
		"engine.fail_fast":       c.Engine.FailFast,
		"engine.force":           c.Engine.Force,
		"store.data_folder":      c.Store.DataFolder,
		"server.http_port":       c.Server.HTTPPort,
		"server.server_mode":     c.Server.ServerMode,
		"log_format":             c.LogFormat,
		"log_level":              c.LogLevel,
	}
}
