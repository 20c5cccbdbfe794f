package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lchcare/rpmbill/internal/rules"
)

// Config holds all runtime configuration for a rpmbill run.
type Config struct {
	DSN       string
	LogFormat string // "text" or "json"

	AsOf  string // reference date for rule runs, YYYY-MM-DD; empty = today
	Start string // report range start, YYYY-MM-DD
	End   string // report range end, YYYY-MM-DD
	Out   string // report parquet output path; empty = stdout table

	Yes bool // required confirmation for reset

	Rules []string `yaml:"rules"` // subset of rule names to run; empty = all
}

// yamlConfig is the on-disk YAML structure.
type yamlConfig struct {
	Rules []string `yaml:"rules"`
}

// LoadFromFile reads a YAML config file and merges its values into Config.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	c.Rules = yc.Rules
	return c.validateRules()
}

// validateRules checks that every entry in Rules is a known rule name.
// If Rules is empty, it defaults to all rules in canonical order.
func (c *Config) validateRules() error {
	if len(c.Rules) == 0 {
		c.Rules = rules.Names()
		return nil
	}
	for _, name := range c.Rules {
		if _, ok := rules.ByName(name); !ok {
			return fmt.Errorf("unknown rule %q in config", name)
		}
	}
	return nil
}

// ValidateWithDSN checks that a database connection string is configured.
func (c *Config) ValidateWithDSN() error {
	if c.DSN == "" {
		return fmt.Errorf("--dsn or RPMBILL_DB_URL is required")
	}
	return nil
}

// ParseAsOf resolves the reference date for a rule run. An empty value
// defaults to the invocation's current date; a malformed value fails the
// invocation before any read or write occurs.
func (c *Config) ParseAsOf() (time.Time, error) {
	if c.AsOf == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse("2006-01-02", c.AsOf)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of %q: %w", c.AsOf, err)
	}
	return t, nil
}

// ParseRange resolves the report date range. Both bounds are required.
func (c *Config) ParseRange() (start, end time.Time, err error) {
	if c.Start == "" || c.End == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("--start and --end are required")
	}
	start, err = time.Parse("2006-01-02", c.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --start %q: %w", c.Start, err)
	}
	end, err = time.Parse("2006-01-02", c.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --end %q: %w", c.End, err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("--end %s before --start %s", c.End, c.Start)
	}
	return start, end, nil
}
