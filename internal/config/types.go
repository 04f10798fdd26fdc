package config

import (
	"fmt"
	"time"

	"github.com/aristath/htse/internal/scheduler"
)

// Config is the top-level configuration.
type Config struct {
	Scheduler   string `json:"scheduler"`     // Ordering strategy: "priority", "deadline", "hierarchical"
	PassLimit   int    `json:"pass_limit"`    // Maximum sweeps over the working list
	UnitDelayMS int    `json:"unit_delay_ms"` // Simulated milliseconds per cost unit
	Color       bool   `json:"color"`         // Colored terminal output
}

// UnitDelay returns the per-cost-unit delay as a duration.
func (c *Config) UnitDelay() time.Duration {
	return time.Duration(c.UnitDelayMS) * time.Millisecond
}

// Kind returns the configured ordering strategy.
func (c *Config) Kind() (scheduler.Kind, error) {
	return scheduler.ParseKind(c.Scheduler)
}

// Validate checks field domains.
func (c *Config) Validate() error {
	if _, err := c.Kind(); err != nil {
		return fmt.Errorf("invalid scheduler: %w", err)
	}
	if c.PassLimit < 1 {
		return fmt.Errorf("pass_limit must be at least 1, got %d", c.PassLimit)
	}
	if c.UnitDelayMS < 0 {
		return fmt.Errorf("unit_delay_ms must not be negative, got %d", c.UnitDelayMS)
	}
	return nil
}
