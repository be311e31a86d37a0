package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type ScanConfig struct {
	LookbackValue      int    `yaml:"lookback_value"`
	LookbackUnit       string `yaml:"lookback_unit"` // days | weeks
	TestMode           bool   `yaml:"test_mode"`
	RelevanceThreshold int    `yaml:"relevance_threshold"`
	BatchSize          int    `yaml:"batch_size"`
	MaxWorkers         int    `yaml:"max_workers"`
	SourcesFile        string `yaml:"sources_file"`
}

type LogicConfig struct {
	DelayMS          int    `yaml:"delay_ms"`
	TimeoutSec       int    `yaml:"timeout_sec"`
	MaxRetries       int    `yaml:"max_retries"`
	InitialBackoffMS int    `yaml:"initial_backoff_ms"`
	UserAgent        string `yaml:"user_agent"`
}

type DBConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Connection  string `yaml:"connection"`
	Database    string `yaml:"database"`
	Collections struct {
		Articles string `yaml:"articles"`
	} `yaml:"collections"`
}

type LLMConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
}

type PipelineConfig struct {
	Scan  ScanConfig  `yaml:"scan"`
	Logic LogicConfig `yaml:"logic"`
	DB    DBConfig    `yaml:"db"`
	LLM   LLMConfig   `yaml:"llm"`
}

func LoadConfig(path string) (*PipelineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg PipelineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *PipelineConfig) applyDefaults() {
	if c.Scan.LookbackValue == 0 {
		c.Scan.LookbackValue = 7
	}
	if c.Scan.LookbackUnit == "" {
		c.Scan.LookbackUnit = "days"
	}
	if c.Scan.RelevanceThreshold == 0 {
		c.Scan.RelevanceThreshold = 40
	}
	if c.Scan.BatchSize == 0 {
		c.Scan.BatchSize = 5
	}
	if c.Scan.MaxWorkers == 0 {
		c.Scan.MaxWorkers = 3
	}
	if c.Scan.SourcesFile == "" {
		c.Scan.SourcesFile = "sources.txt"
	}
	if c.Logic.DelayMS == 0 {
		c.Logic.DelayMS = 1500
	}
	if c.Logic.TimeoutSec == 0 {
		c.Logic.TimeoutSec = 10
	}
	if c.Logic.MaxRetries == 0 {
		c.Logic.MaxRetries = 3
	}
	if c.Logic.InitialBackoffMS == 0 {
		c.Logic.InitialBackoffMS = 1000
	}
	if c.Logic.UserAgent == "" {
		c.Logic.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o"
	}
}

func (c *PipelineConfig) validate() error {
	if c.Scan.LookbackUnit != "days" && c.Scan.LookbackUnit != "weeks" {
		return fmt.Errorf("scan.lookback_unit must be days or weeks, got %q", c.Scan.LookbackUnit)
	}
	if c.Scan.LookbackValue < 0 {
		return fmt.Errorf("scan.lookback_value cannot be negative")
	}
	if c.Scan.RelevanceThreshold < 0 || c.Scan.RelevanceThreshold > 100 {
		return fmt.Errorf("scan.relevance_threshold must be in [0, 100]")
	}
	return nil
}

// Cutoff computes the scan cutoff from the configured lookback window.
// Computed once per run and shared read-only by the date filters.
func (c *PipelineConfig) Cutoff(now time.Time) time.Time {
	days := c.Scan.LookbackValue
	if c.Scan.LookbackUnit == "weeks" {
		days *= 7
	}
	return now.UTC().AddDate(0, 0, -days)
}
