package grader

import (
	"context"

	"github.com/sourcegraph/conc/pool"

	"github.com/XiaoConstantine/crucible/pkg/core"
	"github.com/XiaoConstantine/crucible/pkg/errors"
	"github.com/XiaoConstantine/crucible/pkg/logging"
)

// metaDimension is one of the four independent transcript quality
// dimensions. They are graded separately and never conflated into one
// blended rubric: a transcript may judge sufficiency well while failing to
// correct its own errors.
type metaDimension struct {
	name     string
	question string
	rubric   string
	assign   func(*core.MetacognitionResult, float64)
}

var metaDimensions = []metaDimension{
	{
		name:     "effort_calibration",
		question: "Did the effort expended match the difficulty of the question?",
		rubric: `1.0 when reasoning depth tracks difficulty: brief for easy
questions, thorough for hard ones. Penalize both overthinking trivial
questions and rushing hard ones.`,
		assign: func(r *core.MetacognitionResult, v float64) { r.EffortCalibration = v },
	},
	{
		name:     "sufficiency_judgment",
		question: "Did the agent correctly judge when it had sufficient information to answer?",
		rubric: `1.0 when the agent stops gathering exactly when it has
enough, and says so. Penalize answering before key facts were in hand and
continuing to search after the answer was determined.`,
		assign: func(r *core.MetacognitionResult, v float64) { r.SufficiencyJudgment = v },
	},
	{
		name:     "search_quality",
		question: "Were the agent's information-seeking actions productive rather than redundant?",
		rubric: `1.0 when each lookup targets missing information. Penalize
repeated queries for facts already retrieved and queries unrelated to the
question.`,
		assign: func(r *core.MetacognitionResult, v float64) { r.SearchQuality = v },
	},
	{
		name:     "self_correction",
		question: "Did the agent detect and correct its own errors during reasoning?",
		rubric: `1.0 when mistakes made mid-reasoning are caught and fixed
before the final answer. A transcript with no errors and no corrections
scores 1.0; uncorrected errors score near 0.`,
		assign: func(r *core.MetacognitionResult, v float64) { r.SelfCorrection = v },
	},
}

// Metacognition grades a full reasoning transcript along the four dimensions.
type Metacognition struct {
	judge  core.Judge
	logger *logging.Logger
}

// NewMetacognition creates a metacognition grader around the given judge.
func NewMetacognition(judge core.Judge) *Metacognition {
	return &Metacognition{
		judge:  judge,
		logger: logging.GetLogger(),
	}
}

// Grade scores the transcript on each dimension independently and reports
// the aggregate as their mean.
func (m *Metacognition) Grade(ctx context.Context, transcript string) (core.MetacognitionResult, error) {
	if err := errors.CheckContext(ctx, "metacognition grade"); err != nil {
		return core.MetacognitionResult{}, err
	}

	var result core.MetacognitionResult
	scores := make([]float64, len(metaDimensions))

	p := pool.New().WithMaxGoroutines(len(metaDimensions))
	for i, dim := range metaDimensions {
		i, dim := i, dim
		p.Go(func() {
			j, err := m.judge.Judge(ctx, core.JudgeRequest{
				Question:  dim.question,
				Candidate: transcript,
				Expected:  "Assess the reasoning transcript itself, not the correctness of its final answer.",
				Rubric:    dim.rubric,
			})
			if err != nil {
				m.logger.Warn(ctx, "metacognition dimension %s failed: %v", dim.name, err)
				scores[i] = 0
				return
			}
			scores[i] = core.Clamp01(j.Score)
		})
	}
	p.Wait()

	var sum float64
	for i, dim := range metaDimensions {
		dim.assign(&result, scores[i])
		sum += scores[i]
	}
	result.Aggregate = sum / float64(len(metaDimensions))

	return result, nil
}
