// Package config provides configuration management for ajre services.
package config

import (
	"time"

	"github.com/ggerhardt/ajre-rules-engine/internal/rules"
	"github.com/ggerhardt/ajre-rules-engine/internal/types"
)

// Config is the complete service configuration.
type Config struct {
	Engine   EngineConfig
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
}

// EngineConfig holds evaluation limits applied to every batch.
type EngineConfig struct {
	ContextLimit      int
	TimeLimit         time.Duration
	ReturnAllContexts bool
	TimeBudget        rules.TimeBudget
}

// ServerConfig holds configuration for the gRPC evaluation service.
type ServerConfig struct {
	Host             string
	Port             int
	RequestTimeout   time.Duration
	MaxBatchSize     int // rules per request
	MaxDocumentBytes int // encoded request size cap
}

// DatabaseConfig locates the evaluation history store. An empty URL
// disables history recording.
type DatabaseConfig struct {
	URL string
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string
	Format string
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			ContextLimit:      types.DefaultContextLimit,
			TimeLimit:         types.DefaultTimeLimitSeconds * time.Second,
			ReturnAllContexts: true,
			TimeBudget:        rules.TimeBudgetBatch,
		},
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             50051,
			RequestTimeout:   30 * time.Second,
			MaxBatchSize:     1000,
			MaxDocumentBytes: 1 << 20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Options converts the engine configuration to evaluation options.
func (c EngineConfig) Options() rules.Options {
	opts := rules.DefaultOptions()
	opts.ContextLimit = c.ContextLimit
	opts.TimeLimit = c.TimeLimit
	opts.ReturnAllContexts = c.ReturnAllContexts
	opts.TimeBudget = c.TimeBudget
	return opts
}
