package matrix

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default configuration knobs.
const (
	DefaultMaxAttributes     = 3
	DefaultSoftLimit         = 100
	DefaultHardLimit         = 500
	DefaultLowStockThreshold = 5
	DefaultPageSize          = 50
	DefaultHistoryLimit      = 20
	DefaultSKUDebounce       = 300 * time.Millisecond
)

// Config holds the caller-supplied numeric knobs of the engine.
type Config struct {
	// MaxAttributes caps the number of attributes (default 3).
	MaxAttributes int `yaml:"max_attributes"`

	// SoftLimit is the combination count above which a warning is surfaced.
	// It never blocks generation (default 100).
	SoftLimit int `yaml:"soft_limit"`

	// HardLimit is the combination count above which generation is refused
	// (default 500).
	HardLimit int `yaml:"hard_limit"`

	// LowStockThreshold is the default low-stock threshold for new variants
	// and for variants without their own threshold (default 5).
	LowStockThreshold int64 `yaml:"low_stock_threshold"`

	// PageSize is the number of variants per display page (default 50).
	PageSize int `yaml:"page_size"`

	// HistoryLimit caps each of the undo and redo stacks (default 20).
	HistoryLimit int `yaml:"history_limit"`

	// SKUDebounce is the per-variant debounce window of the asynchronous
	// SKU check (default 300ms).
	SKUDebounce time.Duration `yaml:"sku_debounce"`
}

// DefaultConfig returns the configuration with all stated defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttributes:     DefaultMaxAttributes,
		SoftLimit:         DefaultSoftLimit,
		HardLimit:         DefaultHardLimit,
		LowStockThreshold: DefaultLowStockThreshold,
		PageSize:          DefaultPageSize,
		HistoryLimit:      DefaultHistoryLimit,
		SKUDebounce:       DefaultSKUDebounce,
	}
}

// withDefaults fills zero-valued knobs that must be positive with their
// defaults. LowStockThreshold and SKUDebounce accept zero and are kept.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxAttributes == 0 {
		c.MaxAttributes = d.MaxAttributes
	}
	if c.SoftLimit == 0 {
		c.SoftLimit = d.SoftLimit
	}
	if c.HardLimit == 0 {
		c.HardLimit = d.HardLimit
	}
	if c.PageSize == 0 {
		c.PageSize = d.PageSize
	}
	if c.HistoryLimit == 0 {
		c.HistoryLimit = d.HistoryLimit
	}
	return c
}

// Validate checks that the knobs are internally consistent.
func (c Config) Validate() error {
	switch {
	case c.MaxAttributes < 1:
		return fmt.Errorf("max_attributes must be >= 1, got %d", c.MaxAttributes)
	case c.SoftLimit < 1:
		return fmt.Errorf("soft_limit must be >= 1, got %d", c.SoftLimit)
	case c.HardLimit < c.SoftLimit:
		return fmt.Errorf("hard_limit (%d) must be >= soft_limit (%d)", c.HardLimit, c.SoftLimit)
	case c.LowStockThreshold < 0:
		return fmt.Errorf("low_stock_threshold must be >= 0, got %d", c.LowStockThreshold)
	case c.PageSize < 1:
		return fmt.Errorf("page_size must be >= 1, got %d", c.PageSize)
	case c.HistoryLimit < 1:
		return fmt.Errorf("history_limit must be >= 1, got %d", c.HistoryLimit)
	case c.SKUDebounce < 0:
		return fmt.Errorf("sku_debounce must be >= 0, got %s", c.SKUDebounce)
	}
	return nil
}

// LoadConfig reads a YAML config file. Missing knobs take their defaults;
// unknown keys are rejected to catch typos.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML config bytes. See LoadConfig.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
