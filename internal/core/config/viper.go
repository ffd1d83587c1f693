package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ggerhardt/ajre-rules-engine/internal/log"
	"github.com/ggerhardt/ajre-rules-engine/internal/rules"
)

// flagKeys maps command line flag names to configuration keys.
var flagKeys = map[string]string{
	"context-limit":      "engine.context_limit",
	"time-limit":         "engine.time_limit",
	"time-budget":        "engine.time_budget",
	"host":               "server.host",
	"port":               "server.port",
	"request-timeout":    "server.request_timeout",
	"max-batch-size":     "server.max_batch_size",
	"max-document-bytes": "server.max_document_bytes",
	"db-url":             "database.url",
	"log-level":          "log.level",
	"log-format":         "log.format",
}

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
// flags may be nil; only flags present in flagKeys are bound.
func LoadConfig(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Set defaults matching DefaultConfig
	def := DefaultConfig()
	v.SetDefault("engine.context_limit", def.Engine.ContextLimit)
	v.SetDefault("engine.time_limit", def.Engine.TimeLimit.String())
	v.SetDefault("engine.return_all_contexts", def.Engine.ReturnAllContexts)
	v.SetDefault("engine.time_budget", def.Engine.TimeBudget.String())
	v.SetDefault("server.host", def.Server.Host)
	v.SetDefault("server.port", def.Server.Port)
	v.SetDefault("server.request_timeout", def.Server.RequestTimeout.String())
	v.SetDefault("server.max_batch_size", def.Server.MaxBatchSize)
	v.SetDefault("server.max_document_bytes", def.Server.MaxDocumentBytes)
	v.SetDefault("database.url", "")
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)

	// Bind environment variables with AJRE_ prefix
	v.SetEnvPrefix("AJRE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	budget, err := rules.ParseTimeBudget(v.GetString("engine.time_budget"))
	if err != nil {
		return nil, fmt.Errorf("engine.time_budget: %w", err)
	}

	cfg := &Config{
		Engine: EngineConfig{
			ContextLimit:      v.GetInt("engine.context_limit"),
			TimeLimit:         v.GetDuration("engine.time_limit"),
			ReturnAllContexts: v.GetBool("engine.return_all_contexts"),
			TimeBudget:        budget,
		},
		Server: ServerConfig{
			Host:             v.GetString("server.host"),
			Port:             v.GetInt("server.port"),
			RequestTimeout:   v.GetDuration("server.request_timeout"),
			MaxBatchSize:     v.GetInt("server.max_batch_size"),
			MaxDocumentBytes: v.GetInt("server.max_document_bytes"),
		},
		Database: DatabaseConfig{
			URL: v.GetString("database.url"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks port range and positive limits.
func validateConfig(cfg *Config) error {
	if cfg.Engine.ContextLimit <= 0 {
		return fmt.Errorf("context_limit must be positive, got %d", cfg.Engine.ContextLimit)
	}
	if cfg.Engine.TimeLimit <= 0 {
		return fmt.Errorf("time_limit must be positive, got %v", cfg.Engine.TimeLimit)
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.Server.RequestTimeout)
	}
	if cfg.Server.MaxBatchSize <= 0 {
		return fmt.Errorf("max_batch_size must be positive, got %d", cfg.Server.MaxBatchSize)
	}
	if cfg.Server.MaxDocumentBytes <= 0 {
		return fmt.Errorf("max_document_bytes must be positive, got %d", cfg.Server.MaxDocumentBytes)
	}
	if err := (log.Options{Level: cfg.Log.Level, Format: cfg.Log.Format}).Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}
