package config

import "github.com/aristath/htse/internal/scheduler"

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Scheduler:   scheduler.KindPriority.String(),
		PassLimit:   scheduler.DefaultPassLimit,
		UnitDelayMS: 500,
		Color:       true,
	}
}
