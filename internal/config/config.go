// Package config loads engine configuration from YAML with environment
// overrides, and provides the hot-reloadable playbook weight tables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all intake engine configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// AI transducer configuration
	AI AIConfig `yaml:"ai"`

	// Intake flow settings
	Intake IntakeConfig `yaml:"intake"`

	// Triage routing thresholds
	Triage TriageConfig `yaml:"triage"`

	// Persistence
	Store StoreConfig `yaml:"store"`

	// Playbook weight overrides
	Weights WeightsConfig `yaml:"weights"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// AIConfig configures the model-backed intent/extraction adapters.
type AIConfig struct {
	Enabled    bool   `yaml:"enabled"`
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	Timeout    string `yaml:"timeout"`
	MaxRetries int    `yaml:"max_retries"`
}

// IntakeConfig configures the conversation driver and playbook registry.
type IntakeConfig struct {
	// Minimum detection confidence for a playbook to activate.
	ActivationThreshold float64 `yaml:"activation_threshold"`

	// Identity verification attempts before handing off to policy services.
	MaxIdentityAttempts int `yaml:"max_identity_attempts"`

	// Upper bound on same-turn handler hops, guards against transition loops.
	MaxHandlerIterations int `yaml:"max_handler_iterations"`

	// Claim draft creation attempts before escalating to a human.
	ClaimCreateMaxAttempts int `yaml:"claim_create_max_attempts"`
}

// TriageConfig configures the routing precedence chain.
type TriageConfig struct {
	AutoApprovalLimit   float64  `yaml:"auto_approval_limit"`
	ConfidenceThreshold float64  `yaml:"confidence_threshold"`
	SafetyCriticalFlags []string `yaml:"safety_critical_flags"`
	ModerateRiskFlags   []string `yaml:"moderate_risk_flags"`
}

// StoreConfig configures session and claim persistence.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
	BusyTimeout  string `yaml:"busy_timeout"`
}

// WeightsConfig points at the optional playbook weight table file.
type WeightsConfig struct {
	Path string `yaml:"path"`
	// Watch enables hot reload of the weight file.
	Watch bool `yaml:"watch"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Debug bool `yaml:"debug"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Name:    "fnol",
		Version: "1.0.0",
		AI: AIConfig{
			Enabled:    true,
			Model:      "gemini-2.0-flash",
			Timeout:    "30s",
			MaxRetries: 2,
		},
		Intake: IntakeConfig{
			ActivationThreshold:    0.5,
			MaxIdentityAttempts:    3,
			MaxHandlerIterations:   20,
			ClaimCreateMaxAttempts: 3,
		},
		Triage: TriageConfig{
			AutoApprovalLimit:   25000,
			ConfidenceThreshold: 0.7,
			SafetyCriticalFlags: []string{
				"severe_injury",
				"emergency_priority",
				"immediate_escalation",
				"dui_involvement",
				"siu_review_required",
				"fire_damage",
			},
			ModerateRiskFlags: []string{
				"subrogation_potential",
				"uninsured_motorist",
				"hit_and_run",
				"potential_total_loss",
				"commercial_use",
				"coverage_review_required",
				"guest_mode",
				"out_of_state",
				"potential_address_change",
			},
		},
		Store: StoreConfig{
			DatabasePath: "fnol.db",
			BusyTimeout:  "5s",
		},
		Weights: WeightsConfig{
			Path: "weights.yaml",
		},
		Logging: LoggingConfig{},
	}
}

// Load reads the config file at path, merging over defaults. A missing file
// is not an error; environment overrides apply last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the config as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.AI.APIKey = key
	}
	if path := os.Getenv("FNOL_DB"); path != "" {
		c.Store.DatabasePath = path
	}
	if path := os.Getenv("FNOL_WEIGHTS"); path != "" {
		c.Weights.Path = path
	}
	if v := os.Getenv("FNOL_AUTO_APPROVAL_LIMIT"); v != "" {
		if limit, err := strconv.ParseFloat(v, 64); err == nil {
			c.Triage.AutoApprovalLimit = limit
		}
	}
	if v := os.Getenv("FNOL_ACTIVATION_THRESHOLD"); v != "" {
		if t, err := strconv.ParseFloat(v, 64); err == nil {
			c.Intake.ActivationThreshold = t
		}
	}
	if v := os.Getenv("FNOL_DEBUG"); v == "1" || v == "true" {
		c.Logging.Debug = true
	}
}

// Validate checks the config for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Intake.ActivationThreshold < 0 || c.Intake.ActivationThreshold > 1 {
		return fmt.Errorf("intake.activation_threshold must be in [0,1], got %v", c.Intake.ActivationThreshold)
	}
	if c.Triage.ConfidenceThreshold < 0 || c.Triage.ConfidenceThreshold > 1 {
		return fmt.Errorf("triage.confidence_threshold must be in [0,1], got %v", c.Triage.ConfidenceThreshold)
	}
	if c.Triage.AutoApprovalLimit < 0 {
		return fmt.Errorf("triage.auto_approval_limit must be non-negative, got %v", c.Triage.AutoApprovalLimit)
	}
	if c.Intake.MaxIdentityAttempts < 1 {
		return fmt.Errorf("intake.max_identity_attempts must be at least 1, got %d", c.Intake.MaxIdentityAttempts)
	}
	if c.Intake.MaxHandlerIterations < 1 {
		return fmt.Errorf("intake.max_handler_iterations must be at least 1, got %d", c.Intake.MaxHandlerIterations)
	}
	return nil
}

// GetAITimeout parses the AI call timeout, defaulting to 30s.
func (c *Config) GetAITimeout() time.Duration {
	d, err := time.ParseDuration(c.AI.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetBusyTimeout parses the SQLite busy timeout, defaulting to 5s.
func (c *Config) GetBusyTimeout() time.Duration {
	d, err := time.ParseDuration(c.Store.BusyTimeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}
