// Package harness generalizes the evaluation pipeline to arbitrary domain
// agents. A domain plugs in its own levels and rubrics; the isolation
// runner, semantic grader, and reporting are reused unmodified.
package harness

import (
	"context"

	"github.com/XiaoConstantine/crucible/pkg/catalog"
	"github.com/XiaoConstantine/crucible/pkg/coordinator"
	"github.com/XiaoConstantine/crucible/pkg/core"
	"github.com/XiaoConstantine/crucible/pkg/grader"
	"github.com/XiaoConstantine/crucible/pkg/runner"
)

// CapabilitySource supplies a domain's own evaluation ladder: a small set of
// levels (typically four) with scenario text as articles, plus a rubric per
// level.
type CapabilitySource interface {
	Levels() []core.CapabilityLevel
	Rubrics() []grader.Rubric
}

// Harness evaluates one domain agent against its capability source.
type Harness struct {
	source   CapabilitySource
	pipeline *coordinator.Pipeline
	cat      *catalog.Catalog
}

// Option defines functional options for the harness.
type Option func(*config)

type config struct {
	samples      int
	judgeRetries int
	runnerOpts   []runner.Option
}

// WithGraderSamples sets the judge sample count used for this domain.
func WithGraderSamples(n int) Option {
	return func(c *config) {
		c.samples = n
	}
}

// WithJudgeRetries sets the malformed-response retry bound.
func WithJudgeRetries(n int) Option {
	return func(c *config) {
		c.judgeRetries = n
	}
}

// WithRunnerOptions forwards options to the underlying isolation runner.
func WithRunnerOptions(opts ...runner.Option) Option {
	return func(c *config) {
		c.runnerOpts = append(c.runnerOpts, opts...)
	}
}

// New builds a harness for a domain agent. The domain's rubrics extend the
// builtin rubric table, so unknown domain level ids resolve to the domain's
// own grading rules.
func New(factory core.AgentFactory, judge core.Judge, source CapabilitySource, opts ...Option) (*Harness, error) {
	cfg := &config{samples: 3, judgeRetries: 2}
	for _, opt := range opts {
		opt(cfg)
	}

	cat, err := catalog.New(source.Levels()...)
	if err != nil {
		return nil, err
	}

	sem := grader.NewSemantic(judge,
		grader.WithSamples(cfg.samples),
		grader.WithJudgeRetries(cfg.judgeRetries),
		grader.WithRubrics(grader.NewRubricTable(source.Rubrics()...)),
	)
	run := runner.New(factory, cfg.runnerOpts...)

	return &Harness{
		source:   source,
		pipeline: coordinator.NewPipeline(run, sem),
		cat:      cat,
	}, nil
}

// Evaluate runs the domain's full ladder once and returns per-level results.
func (h *Harness) Evaluate(ctx context.Context, runID string) ([]core.LevelResult, error) {
	return h.pipeline.RunOnce(ctx, h.cat, runID)
}

// Catalog exposes the domain's loaded catalog, read-only.
func (h *Harness) Catalog() *catalog.Catalog {
	return h.cat
}
