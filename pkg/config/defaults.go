package config

import "time"

// Documented defaults for the pipeline's tunables. The regression tolerance
// and judge retry bound are deliberately configuration, not constants baked
// into the algorithms.
const (
	DefaultJudgeSamples     = 3
	DefaultJudgeRetries     = 2
	DefaultSuccessThreshold = 0.7
	DefaultLevelTimeout     = 5 * time.Minute
	DefaultDialogueTurns    = 10
	DefaultRuns             = 3
	DefaultMaxWorkers       = 3
	DefaultTolerance        = 0.05
	DefaultMaxIterations    = 5
	DefaultMaxTokens        = 1024
)

// DefaultConfig returns a fully defaulted configuration using the mock judge.
func DefaultConfig() *Config {
	return &Config{
		Judge: JudgeConfig{
			Provider:  "anthropic",
			ModelID:   "claude-sonnet-4-5",
			MaxTokens: DefaultMaxTokens,
		},
		Grading: GradingConfig{
			Samples:          DefaultJudgeSamples,
			JudgeRetries:     DefaultJudgeRetries,
			SuccessThreshold: DefaultSuccessThreshold,
		},
		Runner: RunnerConfig{
			LevelTimeout:     DefaultLevelTimeout,
			MaxDialogueTurns: DefaultDialogueTurns,
		},
		Coordinator: CoordinatorConfig{
			Runs:       DefaultRuns,
			MaxWorkers: DefaultMaxWorkers,
		},
		Improve: ImproveConfig{
			Tolerance:     DefaultTolerance,
			MaxIterations: DefaultMaxIterations,
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
	}
}

// applyDefaults fills zero values left by partial YAML documents.
func (c *Config) applyDefaults() {
	if c.Judge.MaxTokens == 0 {
		c.Judge.MaxTokens = DefaultMaxTokens
	}
	if c.Grading.Samples == 0 {
		c.Grading.Samples = DefaultJudgeSamples
	}
	if c.Grading.JudgeRetries == 0 {
		c.Grading.JudgeRetries = DefaultJudgeRetries
	}
	if c.Grading.SuccessThreshold == 0 {
		c.Grading.SuccessThreshold = DefaultSuccessThreshold
	}
	if c.Runner.LevelTimeout == 0 {
		c.Runner.LevelTimeout = DefaultLevelTimeout
	}
	if c.Runner.MaxDialogueTurns == 0 {
		c.Runner.MaxDialogueTurns = DefaultDialogueTurns
	}
	if c.Coordinator.Runs == 0 {
		c.Coordinator.Runs = DefaultRuns
	}
	if c.Coordinator.MaxWorkers == 0 {
		c.Coordinator.MaxWorkers = DefaultMaxWorkers
	}
	if c.Improve.Tolerance == 0 {
		c.Improve.Tolerance = DefaultTolerance
	}
	if c.Improve.MaxIterations == 0 {
		c.Improve.MaxIterations = DefaultMaxIterations
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "INFO"
	}
}
