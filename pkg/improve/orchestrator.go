// Package improve implements the closed-loop self-improvement orchestrator:
// a six-state control loop that evaluates, diagnoses, proposes one targeted
// change, applies it, re-evaluates, and keeps or reverts behind a regression
// gate. The loop must never leave the agent under test in a partially
// applied state.
package improve

import (
	"context"
	"fmt"
	"time"

	"github.com/XiaoConstantine/crucible/pkg/analyzer"
	"github.com/XiaoConstantine/crucible/pkg/catalog"
	"github.com/XiaoConstantine/crucible/pkg/coordinator"
	"github.com/XiaoConstantine/crucible/pkg/core"
	"github.com/XiaoConstantine/crucible/pkg/errors"
	"github.com/XiaoConstantine/crucible/pkg/logging"
)

// Iteration is the immutable record of one loop pass. Each pass appends a
// new record; decided records are never amended.
type Iteration struct {
	Index       int                  `json:"index"`
	Baseline    map[string]float64   `json:"baseline"`
	Failures    []core.FailureRecord `json:"failures,omitempty"`
	Hypothesis  *Hypothesis          `json:"hypothesis,omitempty"`
	NoOp        bool                 `json:"no_op,omitempty"`
	PostScores  map[string]float64   `json:"post_scores,omitempty"`
	Decision    Decision             `json:"decision,omitempty"`
	GateVerdict string               `json:"gate_verdict,omitempty"`
	StartedAt   time.Time            `json:"started_at"`
	FinishedAt  time.Time            `json:"finished_at"`
}

// Evaluator produces stabilized per-level scores. The parallel run
// coordinator is the production implementation.
type Evaluator interface {
	Run(ctx context.Context, cat *catalog.Catalog, levelIDs []string) (*coordinator.RunSet, error)
}

// Orchestrator drives the EVAL -> ANALYZE -> RESEARCH -> IMPROVE -> RE-EVAL
// -> DECIDE loop.
type Orchestrator struct {
	coord      Evaluator
	analyzer   *analyzer.Analyzer
	researcher Researcher
	applier    ChangeApplier
	cat        *catalog.Catalog

	gate          Gate
	maxIterations int
	dryRun        bool

	logger *logging.Logger
}

// OrchestratorOption defines functional options for the loop.
type OrchestratorOption func(*Orchestrator)

// WithTolerance sets the regression gate tolerance.
func WithTolerance(t float64) OrchestratorOption {
	return func(o *Orchestrator) {
		o.gate.Tolerance = t
	}
}

// WithMaxIterations bounds the loop.
func WithMaxIterations(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxIterations = n
		}
	}
}

// WithDryRun stops each iteration after RESEARCH: the hypothesis is reported
// for human review and IMPROVE is never reached.
func WithDryRun(enabled bool) OrchestratorOption {
	return func(o *Orchestrator) {
		o.dryRun = enabled
	}
}

// NewOrchestrator wires the loop's collaborators together.
func NewOrchestrator(coord Evaluator, an *analyzer.Analyzer, res Researcher, applier ChangeApplier, cat *catalog.Catalog, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		coord:         coord,
		analyzer:      an,
		researcher:    res,
		applier:       applier,
		cat:           cat,
		gate:          Gate{Tolerance: 0.05},
		maxIterations: 5,
		logger:        logging.GetLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Loop runs iterations until the configured bound, until research produces
// no hypothesis, or until a loop-halting failure. Cancellation is honored
// between iterations only: an in-flight iteration completes (or explicitly
// reverts) before the loop stops.
func (o *Orchestrator) Loop(ctx context.Context) ([]Iteration, error) {
	var history []Iteration

	for i := 0; i < o.maxIterations; i++ {
		// Cancellation checkpoint: between iterations, never mid-iteration.
		if err := errors.CheckContext(ctx, "improvement loop"); err != nil {
			return history, err
		}

		iter, halt, err := o.runIteration(ctx, i)
		history = append(history, iter)
		if err != nil {
			return history, err
		}
		if halt {
			break
		}
	}
	return history, nil
}

// runIteration executes the six states strictly in order. halt=true means
// the loop should stop without error (no hypothesis, or dry run).
func (o *Orchestrator) runIteration(ctx context.Context, index int) (Iteration, bool, error) {
	iter := Iteration{Index: index, StartedAt: time.Now()}
	finish := func() { iter.FinishedAt = time.Now() }
	defer finish()

	// EVAL
	o.logger.Info(ctx, "iteration %d: EVAL", index)
	baseline, err := o.coord.Run(ctx, o.cat, nil)
	if err != nil {
		return iter, false, errors.Wrap(err, errors.LevelExecutionFailed, "baseline evaluation failed")
	}
	iter.Baseline = baseline.Scores()

	// ANALYZE
	o.logger.Info(ctx, "iteration %d: ANALYZE", index)
	iter.Failures = o.analyzeRuns(baseline)

	// RESEARCH
	o.logger.Info(ctx, "iteration %d: RESEARCH", index)
	hypothesis, err := o.researcher.Research(ctx, iter.Failures)
	if err != nil {
		return iter, false, errors.Wrap(err, errors.Unknown, "research failed")
	}
	if hypothesis == nil {
		o.logger.Info(ctx, "iteration %d: no hypothesis generated, loop complete", index)
		iter.NoOp = true
		return iter, true, nil
	}
	if !hypothesis.Complete() {
		// The evidence/counter-argument requirement is the checkpoint that
		// prevents reflexive, unjustified edits.
		return iter, false, errors.New(errors.ValidationFailed,
			"hypothesis lacks evidence or counter-argument; refusing to modify the agent")
	}
	iter.Hypothesis = hypothesis

	if o.dryRun {
		o.logger.Info(ctx, "iteration %d: dry run, stopping after RESEARCH", index)
		iter.NoOp = true
		return iter, true, nil
	}

	// IMPROVE
	o.logger.Info(ctx, "iteration %d: IMPROVE (%s)", index, hypothesis.ChangeDescription)
	snap, err := o.applier.Snapshot(ctx)
	if err != nil {
		return iter, false, err
	}
	if err := o.applyGuarded(ctx, hypothesis, snap); err != nil {
		iter.Decision = DecisionRevert
		iter.GateVerdict = "apply failed: " + err.Error()
		return iter, false, err
	}

	// RE-EVAL
	o.logger.Info(ctx, "iteration %d: RE-EVAL", index)
	post, err := o.coord.Run(ctx, o.cat, nil)
	if err != nil {
		// Cannot judge the change; restoring the snapshot is the only safe
		// exit.
		if rerr := o.applier.Restore(ctx, snap); rerr != nil {
			o.logger.Error(ctx, "restore after failed re-eval also failed: %v", rerr)
		}
		iter.Decision = DecisionRevert
		iter.GateVerdict = "re-evaluation failed"
		return iter, false, errors.Wrap(err, errors.LevelExecutionFailed, "re-evaluation failed")
	}
	iter.PostScores = post.Scores()

	// DECIDE
	decision, verdict := o.gate.Verdict(iter.Baseline, iter.PostScores)
	iter.Decision = decision
	iter.GateVerdict = verdict
	o.logger.Info(ctx, "iteration %d: DECIDE -> %s (%s)", index, decision, verdict)

	if decision == DecisionRevert {
		if err := o.applier.Restore(ctx, snap); err != nil {
			return iter, false, errors.Wrap(err, errors.ImprovementApplyFailed, "revert failed")
		}
		// A gate trip halts the loop: retrying the same change against the
		// same gate would be silent thrash.
		return iter, true, nil
	}
	return iter, false, nil
}

// applyGuarded runs Apply with a panic guard. Any failure - error or crash -
// restores the snapshot before returning, so the agent is never left in a
// partially applied state.
func (o *Orchestrator) applyGuarded(ctx context.Context, h *Hypothesis, snap Snapshot) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.ImprovementApplyFailed, fmt.Sprintf("apply panicked: %v", r))
		}
		if err != nil {
			if rerr := o.applier.Restore(ctx, snap); rerr != nil {
				o.logger.Error(ctx, "CRITICAL: restore after failed apply also failed: %v", rerr)
				err = errors.Wrap(rerr, errors.ImprovementApplyFailed, "apply failed and restore failed")
			}
		}
	}()

	return o.applier.Apply(ctx, h)
}

func (o *Orchestrator) analyzeRuns(rs *coordinator.RunSet) []core.FailureRecord {
	var all []core.LevelResult
	for _, run := range rs.Runs {
		all = append(all, run...)
	}
	return o.analyzer.Analyze(all)
}
