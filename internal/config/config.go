package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// FileName is the workspace configuration file.
const FileName = "folio.yaml"

// Config represents the top-level folio.yaml configuration.
type Config struct {
	Account string      `yaml:"account"`
	Parse   ParseConfig `yaml:"parse"`
	Data    DataConfig  `yaml:"data"`
	Log     LogConfig   `yaml:"log"`
	Git     GitConfig   `yaml:"git"`
}

// ParseConfig tunes the import engine.
type ParseConfig struct {
	ScanLines    int             `yaml:"scan_lines"`
	SampleRows   int             `yaml:"sample_rows"`
	PriceCeiling decimal.Decimal `yaml:"price_ceiling"`
	WatchList    []string        `yaml:"watch_list,omitempty"`
}

// DataConfig points at the reference tables. Relative paths resolve against the
// workspace root; empty means the built-in table.
type DataConfig struct {
	SplitsFile   string `yaml:"splits_file,omitempty"`
	KeywordsFile string `yaml:"keywords_file,omitempty"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a folio.yaml file from disk. Missing keys keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new workspace.
func Default(account string) *Config {
	return &Config{
		Account: account,
		Parse: ParseConfig{
			ScanLines:    10,
			SampleRows:   50,
			PriceCeiling: decimal.NewFromInt(10000),
		},
		Data: DataConfig{
			SplitsFile: "data/splits.csv",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "Folio Import",
			AuthorEmail: "import@folio.local",
		},
	}
}

func (c *Config) validate() error {
	if c.Parse.ScanLines <= 0 {
		return fmt.Errorf("config: parse.scan_lines must be positive, got %d", c.Parse.ScanLines)
	}
	if c.Parse.SampleRows <= 0 {
		return fmt.Errorf("config: parse.sample_rows must be positive, got %d", c.Parse.SampleRows)
	}
	if !c.Parse.PriceCeiling.IsPositive() {
		return fmt.Errorf("config: parse.price_ceiling must be positive, got %s", c.Parse.PriceCeiling)
	}
	return nil
}
