// Package config defines the configuration structure for datalad-parallel.
//
// Configuration is organized into logical sections (Engine, Store, Server)
// and is assembled from, in increasing precedence: struct defaults
// (creasty/defaults tags), an optional config file, DATALAD_* environment
// variables and command line flags.
//
// # Configuration Structure
//
//	Configuration
//	├── Engine         - Parallel run settings
//	├── Store          - Run database location
//	├── Server         - HTTP server settings
//	├── LogFormat      - Logging format
//	└── LogLevel       - Logging verbosity
//
// # Engine Configuration
//
//	┌────────────────┬─────────┬─────────────────────────────────────────────┐
//	│ Field          │ Default │ Description                                 │
//	├────────────────┼─────────┼─────────────────────────────────────────────┤
//	│ Jobs           │ 4       │ Number of concurrent workers                │
//	│ Lookahead      │ 0       │ Pending queue bound, 0 means 2 × Jobs       │
//	│ Ordered        │ true    │ Never create a dataset while a parent runs  │
//	│ SkipDependents │ false   │ Skip paths below a failed path              │
//	│ FailFast       │ false   │ Stop taking new paths after a failure       │
//	│ Force          │ false   │ Create in non-empty directories             │
//	└────────────────┴─────────┴─────────────────────────────────────────────┘
//
// # Store Configuration
//
//	┌────────────┬─────────┬──────────────────────────────────────────────┐
//	│ Field      │ Default │ Description                                  │
//	├────────────┼─────────┼──────────────────────────────────────────────┤
//	│ DataFolder │ ""      │ Folder of datalad.duckdb, "" keeps it in RAM │
//	└────────────┴─────────┴──────────────────────────────────────────────┘
//
// # Server Configuration
//
//	┌────────────┬─────────┬────────────────────────────────────────┐
//	│ Field      │ Default │ Description                            │
//	├────────────┼─────────┼────────────────────────────────────────┤
//	│ ServerMode │ "dev"   │ Server mode: "prod" or "dev"           │
//	│ HTTPPort   │ 8000    │ HTTP server listen port                │
//	└────────────┴─────────┴────────────────────────────────────────┘
//
// # Environment
//
// Every key can be set from the environment with the DATALAD_ prefix and
// dots replaced by underscores:
//
//	DATALAD_ENGINE_JOBS=16 DATALAD_LOG_LEVEL=debug datalad-parallel create ...
//
// # Usage Example
//
//	cfg := config.NewConfigurationWithDefaults()
//	v := config.NewViper()
//	_ = v.BindPFlag("engine.jobs", cmd.Flags().Lookup("jobs"))
//	if err := config.Load(v, cfg, configFile); err != nil {
//	    return err
//	}
//
// # Debug Logging
//
//	zap.S().Infow("configuration loaded", "config", cfg.DebugMap())
package config
