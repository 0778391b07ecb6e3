// Package runner executes one capability level against one agent instance in
// isolation: a fresh agent identity, a private memory store, and - in
// subprocess mode - a separate OS process, so no failure or fact can cross
// between levels.
package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/XiaoConstantine/crucible/pkg/core"
	"github.com/XiaoConstantine/crucible/pkg/errors"
	"github.com/XiaoConstantine/crucible/pkg/logging"
	"github.com/XiaoConstantine/crucible/pkg/memory"
)

// Runner executes levels through an agent factory.
type Runner struct {
	factory Factory
	workDir string
	timeout time.Duration

	maxDialogueTurns int

	logger *logging.Logger
}

// Factory constructs a fresh agent bound to a run context. Separate from
// core.AgentFactory only in name; kept here so the runner package reads
// standalone.
type Factory = core.AgentFactory

// Option defines functional options for the runner.
type Option func(*Runner)

// WithWorkDir sets where per-context memory databases live.
func WithWorkDir(dir string) Option {
	return func(r *Runner) {
		r.workDir = dir
	}
}

// WithTimeout bounds one level's execution.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithMaxDialogueTurns bounds the teaching-variant dialogue.
func WithMaxDialogueTurns(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxDialogueTurns = n
		}
	}
}

// New creates a runner around the given agent factory.
func New(factory Factory, opts ...Option) *Runner {
	r := &Runner{
		factory:          factory,
		workDir:          os.TempDir(),
		timeout:          5 * time.Minute,
		maxDialogueTurns: 10,
		logger:           logging.GetLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// newRunContext builds the per-(level, run) agent context. The identity is
// globally unique - level id plus a random suffix - so parallel runs of the
// same level can never collide on a memory store.
func (r *Runner) newRunContext(level core.CapabilityLevel, runID string) (*core.AgentRunContext, error) {
	agentID := fmt.Sprintf("%s-%s", level.ID, uuid.NewString())

	store, err := memory.NewSQLiteStore(filepath.Join(r.workDir, agentID+".db"))
	if err != nil {
		return nil, errors.Wrap(err, errors.LevelExecutionFailed, "failed to create memory store")
	}

	return &core.AgentRunContext{
		AgentID:   agentID,
		LevelID:   level.ID,
		RunID:     runID,
		Memory:    store,
		CreatedAt: time.Now(),
	}, nil
}

// ExecuteLevel runs one level's learning and testing phases in-process and
// returns the raw question records. The run context never outlives this
// call: teardown happens whether or not execution succeeded.
func (r *Runner) ExecuteLevel(ctx context.Context, level core.CapabilityLevel, runID string) (records []core.QuestionRecord, err error) {
	ctx = logging.WithLevelID(logging.WithRunID(ctx, runID), level.ID)

	runCtx, err := r.newRunContext(level, runID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if derr := runCtx.Destroy(); derr != nil {
			r.logger.Warn(ctx, "failed to destroy run context %s: %v", runCtx.AgentID, derr)
		}
	}()

	agent, err := r.factory(ctx, runCtx)
	if err != nil {
		return nil, errors.Wrap(err, errors.LevelExecutionFailed, "agent factory failed")
	}

	if level.Teaching {
		return r.executeTeaching(ctx, level, agent)
	}

	if err := r.learningPhase(ctx, level, agent); err != nil {
		return nil, err
	}
	return r.testingPhase(ctx, level, agent)
}

// learningPhase feeds articles sequentially in document order. For phased
// levels the update batch is delivered only after every initial article, so
// the agent sees revisions strictly after the facts they supersede. This
// ordering must never be parallelized.
func (r *Runner) learningPhase(ctx context.Context, level core.CapabilityLevel, agent core.Agent) error {
	deliver := func(phase core.ArticlePhase) error {
		for _, article := range level.Articles {
			p := article.Phase
			if p == "" {
				p = core.PhaseInitial
			}
			if p != phase {
				continue
			}
			if err := errors.CheckContext(ctx, "learning phase"); err != nil {
				return err
			}
			if err := agent.Learn(ctx, article); err != nil {
				return errors.WithFields(
					errors.Wrap(err, errors.LevelExecutionFailed, "learn failed"),
					errors.Fields{"article": article.Title})
			}
		}
		return nil
	}

	if err := deliver(core.PhaseInitial); err != nil {
		return err
	}
	return deliver(core.PhaseUpdate)
}

// testingPhase issues each question and records the final answer plus any
// reasoning trace.
func (r *Runner) testingPhase(ctx context.Context, level core.CapabilityLevel, agent core.Agent) ([]core.QuestionRecord, error) {
	records := make([]core.QuestionRecord, 0, len(level.Questions))
	for _, q := range level.Questions {
		if err := errors.CheckContext(ctx, "testing phase"); err != nil {
			return nil, err
		}

		ans, err := agent.Answer(ctx, q)
		if err != nil {
			// An answer failure is data, not a level abort: record it so
			// grading can score it zero and the analyzer can classify it.
			r.logger.Warn(ctx, "answer failed for %s/%s: %v", level.ID, q.ID, err)
			ans = core.Answer{Text: "", ReasoningTrace: fmt.Sprintf("answer error: %v", err)}
		}
		records = append(records, core.QuestionRecord{Question: q, Answer: ans})
	}
	return records, nil
}
