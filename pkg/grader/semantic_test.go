package grader

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XiaoConstantine/crucible/internal/testutil"
	"github.com/XiaoConstantine/crucible/pkg/core"
	"github.com/XiaoConstantine/crucible/pkg/errors"
)

func TestGradeTakesMedianNotMean(t *testing.T) {
	// One hallucinated low judgment among three: the mean would be 0.65,
	// the median must be 0.85.
	j := testutil.Scores(0.2, 0.9, 0.85)
	g := NewSemantic(j, WithSamples(3))

	res, err := g.Grade(context.Background(), "L1-recall",
		core.Question{ID: "q1", Prompt: "p", Expected: "e"},
		core.Answer{Text: "a"})
	require.NoError(t, err)

	assert.InDelta(t, 0.85, res.Score, 1e-9)
	assert.Equal(t, "median", res.Statistic)
	assert.Equal(t, 3, res.Samples)
	assert.ElementsMatch(t, []float64{0.2, 0.9, 0.85}, res.RawSamples)
}

func TestGradePreservesPartialCredit(t *testing.T) {
	j := testutil.Scores(0.6, 0.6, 0.6)
	g := NewSemantic(j, WithSamples(3))

	res, err := g.Grade(context.Background(), "L1-recall",
		core.Question{ID: "q1"}, core.Answer{})
	require.NoError(t, err)

	// Never rounded to {0,1}.
	assert.InDelta(t, 0.6, res.Score, 1e-9)
}

func TestGradeRetriesMalformedResponses(t *testing.T) {
	malformed := errors.New(errors.JudgeMalformedResponse, "garbage")
	j := testutil.NewScriptedJudge(
		testutil.ScriptStep{Err: malformed},
		testutil.ScriptStep{Judgment: core.Judgment{Score: 0.8, Rationale: "recovered"}},
	)
	g := NewSemantic(j, WithSamples(1), WithJudgeRetries(2))

	res, err := g.Grade(context.Background(), "L1-recall",
		core.Question{ID: "q1"}, core.Answer{})
	require.NoError(t, err)

	assert.InDelta(t, 0.8, res.Score, 1e-9)
	assert.Equal(t, 2, j.Calls)
}

func TestGradeRecordsZeroAfterRetryBound(t *testing.T) {
	malformed := errors.New(errors.JudgeMalformedResponse, "garbage")
	j := testutil.NewScriptedJudge(testutil.ScriptStep{Err: malformed})
	g := NewSemantic(j, WithSamples(1), WithJudgeRetries(2))

	res, err := g.Grade(context.Background(), "L1-recall",
		core.Question{ID: "q1"}, core.Answer{})
	require.NoError(t, err)

	// 1 attempt + 2 retries, then the sample is a zero, not an error.
	assert.Equal(t, 3, j.Calls)
	assert.Equal(t, 0.0, res.Score)
}

func TestGradeNonRetryableErrorDoesNotRetry(t *testing.T) {
	fatal := errors.New(errors.InvalidInput, "bad request shape")
	j := testutil.NewScriptedJudge(testutil.ScriptStep{Err: fatal})
	g := NewSemantic(j, WithSamples(1), WithJudgeRetries(5))

	res, err := g.Grade(context.Background(), "L1-recall",
		core.Question{ID: "q1"}, core.Answer{})
	require.NoError(t, err)

	assert.Equal(t, 1, j.Calls)
	assert.Equal(t, 0.0, res.Score)
}

func TestGradeFailedSamplesEnterMedianAsZero(t *testing.T) {
	// Every sample fails terminally: the zeros participate in the median and
	// the grade comes back as data, never as a pipeline error.
	malformed := errors.New(errors.JudgeMalformedResponse, "garbage")
	j := testutil.NewScriptedJudge(testutil.ScriptStep{Err: malformed})
	g := NewSemantic(j, WithSamples(3), WithJudgeRetries(1))

	res, err := g.Grade(context.Background(), "L1-recall",
		core.Question{ID: "q1"}, core.Answer{})
	require.NoError(t, err)

	assert.Equal(t, 6, j.Calls) // 3 samples x (1 attempt + 1 retry)
	assert.Equal(t, []float64{0, 0, 0}, res.RawSamples)
	assert.Equal(t, 0.0, res.Score)
}

func TestRubricTableLookup(t *testing.T) {
	table := NewRubricTable()

	// Every builtin ladder level has a dedicated rubric.
	for _, id := range []string{
		"L1-recall", "L2-temporal", "L3-update", "L4-contradiction",
		"L5-causal", "L6-format", "L7-procedural", "L8-transfer",
		"L9-teaching", "L10-longhorizon",
	} {
		r := table.Lookup(id)
		assert.Equal(t, id, r.LevelID, "rubric for %s", id)
	}

	// Unknown levels fall back instead of failing: the grader stays open
	// to new levels without modification.
	fallback := table.Lookup("L99-unknown")
	assert.Empty(t, fallback.LevelID)
	assert.NotEmpty(t, fallback.Text)
}

func TestRubricTableOverride(t *testing.T) {
	table := NewRubricTable(Rubric{LevelID: "L1-recall", Text: "custom domain rubric"})
	assert.Equal(t, "custom domain rubric", table.Lookup("L1-recall").Text)
}

func TestRubricComposeAppendsRequiredFields(t *testing.T) {
	table := NewRubricTable()
	text := table.Compose("L6-format", core.Question{
		RequiredFields: []string{"id", "severity", "owner"},
	})
	assert.Contains(t, text, "Required fields: id, severity, owner.")
}
