// Package coordinator composes the isolation runner and the graders into
// full catalog runs, and stabilizes stochastic agents by running the catalog
// K independent times and reducing per-level scores to their median.
package coordinator

import (
	"context"
	"fmt"

	"github.com/XiaoConstantine/crucible/pkg/catalog"
	"github.com/XiaoConstantine/crucible/pkg/core"
	"github.com/XiaoConstantine/crucible/pkg/grader"
	"github.com/XiaoConstantine/crucible/pkg/logging"
	"github.com/XiaoConstantine/crucible/pkg/runner"
)

// Pipeline runs one full catalog pass: execute each level in isolation, then
// grade the raw records.
type Pipeline struct {
	runner   *runner.Runner
	semantic *grader.Semantic
	meta     *grader.Metacognition
	isolated bool
	logger   *logging.Logger
}

// PipelineOption defines functional options for the pipeline.
type PipelineOption func(*Pipeline)

// WithMetacognition adds transcript quality scoring: every recorded
// reasoning trace is graded along the four metacognition dimensions.
func WithMetacognition(m *grader.Metacognition) PipelineOption {
	return func(p *Pipeline) {
		p.meta = m
	}
}

// WithSubprocessIsolation switches level execution to sandboxed
// subprocesses. In-process execution remains available for the domain
// harness and tests.
func WithSubprocessIsolation(enabled bool) PipelineOption {
	return func(p *Pipeline) {
		p.isolated = enabled
	}
}

// NewPipeline creates a pipeline from a runner and a semantic grader.
func NewPipeline(r *runner.Runner, s *grader.Semantic, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		runner:   r,
		semantic: s,
		logger:   logging.GetLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RunOnce executes every level of the catalog sequentially and grades the
// results. Levels are independent units of failure: a fatal level yields a
// fatal LevelResult and its siblings still run.
func (p *Pipeline) RunOnce(ctx context.Context, cat *catalog.Catalog, runID string) ([]core.LevelResult, error) {
	ctx = logging.WithRunID(ctx, runID)

	levels := cat.Levels()
	results := make([]core.LevelResult, 0, len(levels))

	for _, level := range levels {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, p.runLevel(ctx, level, runID))
	}
	return results, nil
}

func (p *Pipeline) runLevel(ctx context.Context, level core.CapabilityLevel, runID string) core.LevelResult {
	var result core.LevelResult

	if p.isolated {
		result = p.runner.ExecuteLevelIsolated(ctx, level, runID)
	} else {
		records, err := p.runner.ExecuteLevel(ctx, level, runID)
		result = core.LevelResult{LevelID: level.ID, Records: records}
		if err != nil {
			result.Fatal = true
			result.ErrorMsg = err.Error()
		}
	}

	if result.Fatal {
		return result
	}

	for _, rec := range result.Records {
		g, err := p.semantic.Grade(ctx, level.ID, rec.Question, rec.Answer)
		if err != nil {
			// Grading is parent-side; a grading error here is a pipeline
			// defect, not agent behavior, so it fails the level loudly.
			result.Fatal = true
			result.ErrorMsg = fmt.Sprintf("grading failed for %s: %v", rec.Question.ID, err)
			return result
		}
		result.Grades = append(result.Grades, g)
	}

	if p.meta != nil {
		p.gradeTranscripts(ctx, &result)
	}

	p.logger.Info(ctx, "level %s scored %.2f over %d questions", level.ID, result.Score(), len(result.Grades))
	return result
}

// gradeTranscripts scores each recorded reasoning trace. Metacognition is
// advisory, so a failure here degrades to a warning rather than failing the
// level.
func (p *Pipeline) gradeTranscripts(ctx context.Context, result *core.LevelResult) {
	for _, rec := range result.Records {
		if rec.Answer.ReasoningTrace == "" {
			continue
		}
		m, err := p.meta.Grade(ctx, rec.Answer.ReasoningTrace)
		if err != nil {
			p.logger.Warn(ctx, "metacognition grading failed for %s: %v", rec.Question.ID, err)
			continue
		}
		if result.Metacognition == nil {
			result.Metacognition = make(map[string]core.MetacognitionResult, len(result.Records))
		}
		result.Metacognition[rec.Question.ID] = m
	}
}
