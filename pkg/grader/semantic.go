// Package grader scores agent answers against expected references using an
// external LLM judge, stabilizing the judge's noise with median-of-N
// sampling.
package grader

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/sourcegraph/conc/pool"

	"github.com/XiaoConstantine/crucible/pkg/core"
	"github.com/XiaoConstantine/crucible/pkg/errors"
	"github.com/XiaoConstantine/crucible/pkg/logging"
)

// Semantic grades one answer by issuing the comparison to the judge N times
// independently and taking the median of the scores. The median, not the
// mean, so a single hallucinated judgment cannot skew the result.
type Semantic struct {
	judge   core.Judge
	rubrics *RubricTable
	samples int
	retries int
	logger  *logging.Logger
}

// SemanticOption defines functional options for the grader.
type SemanticOption func(*Semantic)

// WithSamples sets the number of independent judge samples per answer.
func WithSamples(n int) SemanticOption {
	return func(s *Semantic) {
		if n > 0 {
			s.samples = n
		}
	}
}

// WithJudgeRetries bounds retries for a malformed judge response before the
// sample is recorded as zero.
func WithJudgeRetries(n int) SemanticOption {
	return func(s *Semantic) {
		if n >= 0 {
			s.retries = n
		}
	}
}

// WithRubrics replaces the rubric table.
func WithRubrics(t *RubricTable) SemanticOption {
	return func(s *Semantic) {
		s.rubrics = t
	}
}

// NewSemantic creates a semantic grader around the given judge.
func NewSemantic(judge core.Judge, opts ...SemanticOption) *Semantic {
	s := &Semantic{
		judge:   judge,
		rubrics: NewRubricTable(),
		samples: 3,
		retries: 2,
		logger:  logging.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Grade produces the stabilized GradingResult for one answer.
func (s *Semantic) Grade(ctx context.Context, levelID string, q core.Question, ans core.Answer) (core.GradingResult, error) {
	if err := errors.CheckContext(ctx, "grade"); err != nil {
		return core.GradingResult{}, err
	}

	req := core.JudgeRequest{
		Question:  q.Prompt,
		Candidate: ans.Text,
		Expected:  q.Expected,
		Rubric:    s.rubrics.Compose(levelID, q),
	}

	scores := make([]float64, s.samples)
	rationales := make([]string, s.samples)

	// The N samples are statistically independent, so they run concurrently.
	p := pool.New().WithMaxGoroutines(s.samples)
	for i := 0; i < s.samples; i++ {
		i := i
		p.Go(func() {
			scores[i], rationales[i] = s.sampleOnce(ctx, req)
		})
	}
	p.Wait()

	median := core.Median(scores)
	rationale := pickRationale(scores, rationales, median)

	s.logger.Debug(ctx, "graded %s/%s: median=%.2f samples=%v", levelID, q.ID, median, scores)

	return core.GradingResult{
		LevelID:    levelID,
		QuestionID: q.ID,
		Score:      median,
		Rationale:  rationale,
		Samples:    s.samples,
		Statistic:  "median",
		RawSamples: scores,
	}, nil
}

// sampleOnce issues one judge call, retrying malformed responses up to the
// configured bound before recording the sample as zero.
func (s *Semantic) sampleOnce(ctx context.Context, req core.JudgeRequest) (float64, string) {
	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if ctx.Err() != nil {
			return 0, "grading canceled"
		}

		j, err := s.judge.Judge(ctx, req)
		if err == nil {
			return core.Clamp01(j.Score), j.Rationale
		}
		lastErr = err

		if !isRetryable(err) {
			break
		}
		s.logger.Warn(ctx, "judge sample failed (attempt %d/%d): %v", attempt+1, s.retries+1, err)
	}

	// Bounded retries exhausted: the sample enters the median as zero
	// rather than blocking the pipeline.
	s.logger.Error(ctx, "judge sample recorded as zero: %v", lastErr)
	return 0, fmt.Sprintf("sample failed: %v", lastErr)
}

func isRetryable(err error) bool {
	var e *errors.Error
	if stderrors.As(err, &e) {
		switch e.Code() {
		case errors.JudgeMalformedResponse, errors.JudgeCallFailed:
			return true
		}
	}
	return false
}

// pickRationale prefers the rationale attached to the sample closest to the
// median so the reported reasoning matches the reported score.
func pickRationale(scores []float64, rationales []string, median float64) string {
	best := 0
	bestDiff := -1.0
	for i, sc := range scores {
		diff := sc - median
		if diff < 0 {
			diff = -diff
		}
		if bestDiff < 0 || diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	if best < len(rationales) {
		return rationales[best]
	}
	return ""
}
