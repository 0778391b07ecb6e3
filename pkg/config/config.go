package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/XiaoConstantine/crucible/pkg/errors"
)

// Config represents the complete configuration for the evaluation pipeline.
type Config struct {
	// Judge configuration
	Judge JudgeConfig `yaml:"judge" validate:"required"`

	// Grading configuration
	Grading GradingConfig `yaml:"grading,omitempty" validate:"omitempty"`

	// Runner configuration
	Runner RunnerConfig `yaml:"runner,omitempty" validate:"omitempty"`

	// Coordinator configuration
	Coordinator CoordinatorConfig `yaml:"coordinator,omitempty" validate:"omitempty"`

	// Improvement loop configuration
	Improve ImproveConfig `yaml:"improve,omitempty" validate:"omitempty"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging,omitempty" validate:"omitempty"`
}

// JudgeConfig holds configuration for the external LLM judge.
type JudgeConfig struct {
	// Provider name (anthropic, mock)
	Provider string `yaml:"provider" validate:"required,oneof=anthropic mock"`

	// Model ID (e.g., claude-sonnet-4-5)
	ModelID string `yaml:"model_id" validate:"required"`

	// API key for the provider; falls back to ANTHROPIC_API_KEY
	APIKey string `yaml:"api_key,omitempty"`

	// MaxTokens per judge call
	MaxTokens int `yaml:"max_tokens,omitempty" validate:"omitempty,min=1"`
}

// GradingConfig tunes the statistical stabilization of the noisy judge.
type GradingConfig struct {
	// Samples is the number of independent judge calls per answer. Should be
	// odd so the median is a real sample.
	Samples int `yaml:"samples,omitempty" validate:"omitempty,min=1,max=15"`

	// JudgeRetries bounds retries for a malformed judge response before the
	// sample is recorded as zero.
	JudgeRetries int `yaml:"judge_retries,omitempty" validate:"omitempty,min=0,max=10"`

	// SuccessThreshold separates passing results from those routed to the
	// error analyzer.
	SuccessThreshold float64 `yaml:"success_threshold,omitempty" validate:"omitempty,min=0,max=1"`
}

// RunnerConfig controls per-level isolated execution.
type RunnerConfig struct {
	// LevelTimeout bounds one level's subprocess execution.
	LevelTimeout time.Duration `yaml:"level_timeout,omitempty"`

	// WorkDir is where per-context memory databases are created.
	WorkDir string `yaml:"work_dir,omitempty"`

	// MaxDialogueTurns bounds the teaching-variant dialogue.
	MaxDialogueTurns int `yaml:"max_dialogue_turns,omitempty" validate:"omitempty,min=1,max=100"`
}

// CoordinatorConfig controls the parallel run coordinator.
type CoordinatorConfig struct {
	// Runs is the number of independent full-catalog runs (K).
	Runs int `yaml:"runs,omitempty" validate:"omitempty,min=1,max=20"`

	// MaxWorkers bounds concurrent runs.
	MaxWorkers int `yaml:"max_workers,omitempty" validate:"omitempty,min=1,max=64"`
}

// ImproveConfig controls the self-improvement loop.
type ImproveConfig struct {
	// Tolerance is the regression gate: any level dropping by more than this
	// forces a revert.
	Tolerance float64 `yaml:"tolerance,omitempty" validate:"omitempty,min=0,max=1"`

	// MaxIterations bounds the loop.
	MaxIterations int `yaml:"max_iterations,omitempty" validate:"omitempty,min=1,max=100"`

	// DryRun stops each iteration after RESEARCH, reporting the hypothesis
	// without applying any change.
	DryRun bool `yaml:"dry_run,omitempty"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level: DEBUG, INFO, WARN, ERROR, FATAL
	Level string `yaml:"level,omitempty" validate:"omitempty,oneof=DEBUG INFO WARN ERROR FATAL"`

	// File is an optional path for an additional file output.
	File string `yaml:"file,omitempty"`
}

// Load reads a YAML configuration file, applies defaults, and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.ResourceNotFound, "failed to read config file"),
			errors.Fields{"path": path})
	}
	return Parse(data)
}

// Parse decodes YAML configuration bytes, applies defaults, and validates.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, errors.InvalidInput, "failed to parse config")
	}
	cfg.applyDefaults()
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
