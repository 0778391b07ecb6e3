package coordinator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XiaoConstantine/crucible/internal/testutil"
	"github.com/XiaoConstantine/crucible/pkg/catalog"
	"github.com/XiaoConstantine/crucible/pkg/core"
	"github.com/XiaoConstantine/crucible/pkg/grader"
	"github.com/XiaoConstantine/crucible/pkg/runner"
)

func twoLevelCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(
		core.CapabilityLevel{
			ID:        "L1-recall",
			Articles:  []core.Article{{Title: "a", Content: "The port is 8080."}},
			Questions: []core.Question{{ID: "q1", Prompt: "Which port?", Type: core.QuestionRecall}},
		},
		core.CapabilityLevel{
			ID:        "L2-temporal",
			Articles:  []core.Article{{Title: "b", Content: "The count was 5 in March."}},
			Questions: []core.Question{{ID: "q1", Prompt: "What count in March?", Type: core.QuestionTemporal}},
		},
	)
	require.NoError(t, err)
	return cat
}

func newTestPipeline(t *testing.T, judge core.Judge) *Pipeline {
	t.Helper()
	r := runner.New(testutil.NewMemoryAgentFactory(), runner.WithWorkDir(t.TempDir()))
	s := grader.NewSemantic(judge, grader.WithSamples(1))
	return NewPipeline(r, s)
}

func TestCoordinatorRunsCatalogKTimes(t *testing.T) {
	c := New(newTestPipeline(t, testutil.Scores(0.8)),
		WithRuns(3), WithMaxWorkers(2))

	rs, err := c.Run(context.Background(), twoLevelCatalog(t), nil)
	require.NoError(t, err)

	require.Len(t, rs.Runs, 3)
	for _, run := range rs.Runs {
		assert.Len(t, run, 2)
	}

	for _, id := range []string{"L1-recall", "L2-temporal"} {
		agg, ok := rs.Aggregates[id]
		require.True(t, ok, "missing aggregate for %s", id)
		assert.Equal(t, []float64{0.8, 0.8, 0.8}, agg.RawScores)
		assert.InDelta(t, 0.8, agg.Median, 1e-9)
		assert.Zero(t, agg.FatalRuns)
	}

	scores := rs.Scores()
	assert.InDelta(t, 0.8, scores["L1-recall"], 1e-9)
}

func TestCoordinatorSubset(t *testing.T) {
	c := New(newTestPipeline(t, testutil.Scores(0.9)), WithRuns(1))

	rs, err := c.Run(context.Background(), twoLevelCatalog(t), []string{"L2-temporal"})
	require.NoError(t, err)

	require.Len(t, rs.Runs[0], 1)
	assert.Equal(t, "L2-temporal", rs.Runs[0][0].LevelID)
	_, hasOther := rs.Aggregates["L1-recall"]
	assert.False(t, hasOther)
}

func TestCoordinatorUnknownSubsetLevel(t *testing.T) {
	c := New(newTestPipeline(t, testutil.Scores(0.9)), WithRuns(1))

	_, err := c.Run(context.Background(), twoLevelCatalog(t), []string{"L99-missing"})
	require.Error(t, err)
}

func TestAggregateMedianAcrossRuns(t *testing.T) {
	cat, err := catalog.New(core.CapabilityLevel{ID: "L1-recall"})
	require.NoError(t, err)

	runOf := func(score float64) []core.LevelResult {
		return []core.LevelResult{{
			LevelID: "L1-recall",
			Grades:  []core.GradingResult{{QuestionID: "q1", Score: score}},
		}}
	}

	// One noisy outlier run among three must not move the aggregate.
	aggs := aggregate(cat, [][]core.LevelResult{runOf(0.9), runOf(0.2), runOf(0.85)})
	agg := aggs["L1-recall"]

	assert.Equal(t, []float64{0.9, 0.2, 0.85}, agg.RawScores)
	assert.InDelta(t, 0.85, agg.Median, 1e-9)
}

func TestAggregateExcludesFatalRunsFromMedian(t *testing.T) {
	cat, err := catalog.New(core.CapabilityLevel{ID: "L1-recall"})
	require.NoError(t, err)

	good := []core.LevelResult{{
		LevelID: "L1-recall",
		Grades:  []core.GradingResult{{QuestionID: "q1", Score: 0.9}},
	}}
	crashed := []core.LevelResult{{
		LevelID:  "L1-recall",
		Fatal:    true,
		ErrorMsg: "worker crashed",
	}}

	aggs := aggregate(cat, [][]core.LevelResult{good, crashed, good})
	agg := aggs["L1-recall"]

	assert.Equal(t, 1, agg.FatalRuns)
	assert.Equal(t, []float64{0.9, 0.9}, agg.RawScores)
	assert.InDelta(t, 0.9, agg.Median, 1e-9)
}

func TestPipelineGradesTranscriptsWhenEnabled(t *testing.T) {
	cat := twoLevelCatalog(t)

	r := runner.New(testutil.NewMemoryAgentFactory(), runner.WithWorkDir(t.TempDir()))
	p := NewPipeline(r,
		grader.NewSemantic(testutil.Scores(0.8), grader.WithSamples(1)),
		WithMetacognition(grader.NewMetacognition(testutil.Scores(0.9))))

	results, err := p.RunOnce(context.Background(), cat, "run-1")
	require.NoError(t, err)
	require.Len(t, results, 2)

	// The memory agent records a reasoning trace for every answer, so every
	// question gets a transcript score.
	for _, lr := range results {
		require.Len(t, lr.Metacognition, 1, "level %s", lr.LevelID)
		m := lr.Metacognition["q1"]
		assert.InDelta(t, 0.9, m.Aggregate, 1e-9)
	}
}

func TestPipelineFatalLevelDoesNotStopSiblings(t *testing.T) {
	cat := twoLevelCatalog(t)

	// The factory fails only for the first level; the second still runs.
	factory := func(ctx context.Context, runCtx *core.AgentRunContext) (core.Agent, error) {
		if runCtx.LevelID == "L1-recall" {
			return nil, assert.AnError
		}
		return testutil.NewMemoryAgentFactory()(ctx, runCtx)
	}
	r := runner.New(factory, runner.WithWorkDir(t.TempDir()))
	p := NewPipeline(r, grader.NewSemantic(testutil.Scores(0.7), grader.WithSamples(1)))

	results, err := p.RunOnce(context.Background(), cat, "run-1")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.True(t, results[0].Fatal)
	assert.Equal(t, 0.0, results[0].Score())
	assert.False(t, results[1].Fatal)
	assert.Len(t, results[1].Grades, 1)
}
