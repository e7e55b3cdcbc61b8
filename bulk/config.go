package bulk

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ValuesMode selects how source rows are shipped to the database.
type ValuesMode string

const (
	// ValuesInline binds every cell as its own parameter inside a VALUES
	// list. It works on every dialect and is bound by the parameter ceiling.
	ValuesInline ValuesMode = "inline"
	// ValuesArrays binds one array parameter per column and expands it with
	// unnest. Only dialects that can bind arrays support it; the whole input
	// becomes a single statement.
	ValuesArrays ValuesMode = "arrays"
)

// Config tunes the bulk engine. The zero value is usable; DefaultConfig
// returns it with explicit defaults filled in.
type Config struct {
	// BatchSize caps the number of objects per statement. Zero means the
	// batch is bounded by the parameter ceiling only.
	BatchSize int `yaml:"batch_size,omitempty"`

	// MaxParameters overrides the dialect parameter ceiling, e.g. for
	// servers configured below the protocol limit.
	MaxParameters int `yaml:"max_parameters,omitempty"`

	// DisableInnerTx stops the engine from opening its own transaction
	// around multi-batch operations. Batches that succeeded before a
	// failure stay applied.
	DisableInnerTx bool `yaml:"disable_inner_tx,omitempty"`

	// ValuesMode is "inline" (default) or "arrays".
	ValuesMode ValuesMode `yaml:"values_mode,omitempty"`

	// CommandTimeout bounds every statement, e.g. "30s".
	CommandTimeout time.Duration `yaml:"command_timeout,omitempty"`

	// LogStatements logs the text of every statement at debug level.
	LogStatements bool `yaml:"log_statements,omitempty"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{ValuesMode: ValuesInline}
}

// Validate reports configuration values the engine cannot run with.
func (c Config) Validate() error {
	switch {
	case c.BatchSize < 0:
		return fmt.Errorf("bulk: config: negative batch_size %d", c.BatchSize)
	case c.MaxParameters < 0:
		return fmt.Errorf("bulk: config: negative max_parameters %d", c.MaxParameters)
	case c.CommandTimeout < 0:
		return fmt.Errorf("bulk: config: negative command_timeout %s", c.CommandTimeout)
	}
	switch c.ValuesMode {
	case "", ValuesInline, ValuesArrays:
	default:
		return fmt.Errorf("bulk: config: unknown values_mode %q", c.ValuesMode)
	}
	return nil
}

// ParseConfig decodes a YAML document on top of DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse bulk config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML configuration file. A missing file yields the
// default configuration.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return Config{}, fmt.Errorf("read bulk config: %w", err)
	}
	return ParseConfig(data)
}
