// Package config handles reading and writing .cutover/config.yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/berth-dev/cutover/internal/simulation"
)

// Config is the top-level structure for .cutover/config.yaml.
type Config struct {
	Version    int              `yaml:"version"`
	Simulation SimulationConfig `yaml:"simulation"`
	Baseline   BaselineConfig   `yaml:"baseline"`
	LLM        LLMConfig        `yaml:"llm"`
	Archive    ArchiveConfig    `yaml:"archive"`
	Server     ServerConfig     `yaml:"server"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
}

// SimulationConfig holds the round cap and the completion policy.
type SimulationConfig struct {
	MaxRounds       int    `yaml:"max_rounds" validate:"gte=1,lte=20"`
	MinPersonas     int    `yaml:"min_personas" validate:"gte=0,lte=3"`
	MinConstraints  int    `yaml:"min_constraints" validate:"gte=0,lte=6"`
	RequireStrategy bool   `yaml:"require_strategy"`
	Seed            uint64 `yaml:"seed"`

	// DegradedExtraction falls back to keyword matching when the model
	// extractor fails. Off means extraction failures reach the user.
	DegradedExtraction bool `yaml:"degraded_extraction"`
}

// BaselineConfig holds the company facts every session starts from.
type BaselineConfig struct {
	WeeksLeft              int      `yaml:"weeks_left" validate:"gte=0"`
	BudgetLevel            string   `yaml:"budget_level" validate:"oneof=low medium high"`
	DowntimeBudgetMinutes  int      `yaml:"downtime_budget_minutes" validate:"gte=0"`
	SLOAvailability        string   `yaml:"slo_availability"`
	TargetCostReductionPct int      `yaml:"target_cost_reduction_pct" validate:"gte=0,lte=100"`
	CriticalDependencies   []string `yaml:"critical_dependencies"`
}

// LLMConfig selects and tunes the model provider.
type LLMConfig struct {
	Provider          string  `yaml:"provider" validate:"oneof=openai claude scripted"`
	Model             string  `yaml:"model"`
	APIKey            string  `yaml:"api_key,omitempty"`
	BaseURL           string  `yaml:"base_url,omitempty" validate:"omitempty,url"`
	Temperature       float32 `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens         int     `yaml:"max_tokens" validate:"gte=1"`
	RequestsPerMinute int     `yaml:"requests_per_minute" validate:"gte=0"`
	TimeoutSeconds    int     `yaml:"timeout_seconds" validate:"gte=0"`
}

// ArchiveConfig controls the finished-session archive.
type ArchiveConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Path       string `yaml:"path" validate:"required_if=Enabled true"`
	ReportsDir string `yaml:"reports_dir" validate:"required"`
	MaxAgeDays int    `yaml:"max_age_days" validate:"gte=0"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

// TelemetryConfig controls tracing output.
type TelemetryConfig struct {
	TraceStdout bool `yaml:"trace_stdout"`
}

const configDir = ".cutover"
const configFile = "config.yaml"

var validate = validator.New()

// ReadConfig reads .cutover/config.yaml from the given project directory.
// dir is the project root (not .cutover/ itself).
// Returns an error if the file is not found or YAML is malformed.
func ReadConfig(dir string) (*Config, error) {
	cfg := DefaultConfig()
	if err := readInto(dir, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readInto(dir string, cfg *Config) error {
	path := filepath.Join(dir, configDir, configFile)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	return nil
}

// Load returns the project configuration: defaults, overlaid with the
// config file when one exists, then with environment overrides. The result
// is validated.
func Load(dir string) (*Config, error) {
	cfg := DefaultConfig()
	if err := readInto(dir, cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	applyEnv(cfg, os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = getenv("OPENAI_API_KEY")
	}
	if m := getenv("CUTOVER_MODEL"); m != "" {
		cfg.LLM.Model = m
	}
}

// WriteConfig writes cfg to .cutover/config.yaml in the given project directory.
// Creates the .cutover/ directory if it does not exist. The API key is never
// written.
func WriteConfig(dir string, cfg *Config) error {
	dirPath := filepath.Join(dir, configDir)
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	out := *cfg
	out.LLM.APIKey = ""
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	path := filepath.Join(dirPath, configFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Validate checks field ranges. Failures match simulation.ErrConfiguration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", simulation.ErrConfiguration, err)
	}
	return nil
}

// Conditions returns the completion policy thresholds.
func (c *Config) Conditions() simulation.Conditions {
	return simulation.Conditions{
		MinPersonas:     c.Simulation.MinPersonas,
		MinConstraints:  c.Simulation.MinConstraints,
		RequireStrategy: c.Simulation.RequireStrategy,
	}
}

// SessionBaseline returns the baseline sessions start from.
func (c *Config) SessionBaseline() simulation.Baseline {
	b := c.Baseline
	return simulation.Baseline{
		WeeksLeft:              b.WeeksLeft,
		BudgetLevel:            simulation.BudgetLevel(b.BudgetLevel),
		DowntimeBudgetMinutes:  b.DowntimeBudgetMinutes,
		SLOAvailability:        b.SLOAvailability,
		TargetCostReductionPct: b.TargetCostReductionPct,
		CriticalDependencies:   append([]string(nil), b.CriticalDependencies...),
	}
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	cond := simulation.DefaultConditions()
	base := simulation.DefaultBaseline()
	return &Config{
		Version: 1,
		Simulation: SimulationConfig{
			MaxRounds:       4,
			MinPersonas:     cond.MinPersonas,
			MinConstraints:  cond.MinConstraints,
			RequireStrategy: cond.RequireStrategy,
		},
		Baseline: BaselineConfig{
			WeeksLeft:              base.WeeksLeft,
			BudgetLevel:            string(base.BudgetLevel),
			DowntimeBudgetMinutes:  base.DowntimeBudgetMinutes,
			SLOAvailability:        base.SLOAvailability,
			TargetCostReductionPct: base.TargetCostReductionPct,
			CriticalDependencies:   base.CriticalDependencies,
		},
		LLM: LLMConfig{
			Provider:          "openai",
			Model:             "gpt-4o-mini",
			Temperature:       0.7,
			MaxTokens:         500,
			RequestsPerMinute: 60,
			TimeoutSeconds:    60,
		},
		Archive: ArchiveConfig{
			Enabled:    true,
			Path:       filepath.Join(configDir, "history.db"),
			ReportsDir: filepath.Join(configDir, "reports"),
			MaxAgeDays: 30,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}
