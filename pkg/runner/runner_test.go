package runner

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XiaoConstantine/crucible/internal/testutil"
	"github.com/XiaoConstantine/crucible/pkg/core"
)

// recordingAgent logs the order in which articles and questions arrive.
type recordingAgent struct {
	runCtx   *core.AgentRunContext
	learned  *[]string
	answered *[]string
}

func (a *recordingAgent) Learn(_ context.Context, article core.Article) error {
	*a.learned = append(*a.learned, article.Title)
	return nil
}

func (a *recordingAgent) Answer(_ context.Context, q core.Question) (core.Answer, error) {
	*a.answered = append(*a.answered, q.ID)
	return core.Answer{Text: "answer to " + q.ID}, nil
}

func TestExecuteLevelDeliversInitialBeforeUpdate(t *testing.T) {
	level := core.CapabilityLevel{
		ID: "L3-update",
		Articles: []core.Article{
			{Title: "update-1", Phase: core.PhaseUpdate},
			{Title: "initial-1"}, // empty phase defaults to initial
			{Title: "initial-2", Phase: core.PhaseInitial},
			{Title: "update-2", Phase: core.PhaseUpdate},
		},
		Questions: []core.Question{
			{ID: "q1", Type: core.QuestionUpdate},
			{ID: "q2", Type: core.QuestionUpdate},
		},
	}

	var learned, answered []string
	r := New(func(_ context.Context, runCtx *core.AgentRunContext) (core.Agent, error) {
		return &recordingAgent{runCtx: runCtx, learned: &learned, answered: &answered}, nil
	}, WithWorkDir(t.TempDir()))

	records, err := r.ExecuteLevel(context.Background(), level, "run-1")
	require.NoError(t, err)

	// Every initial article strictly precedes every update article, and
	// within a phase document order is preserved.
	assert.Equal(t, []string{"initial-1", "initial-2", "update-1", "update-2"}, learned)
	assert.Equal(t, []string{"q1", "q2"}, answered)
	require.Len(t, records, 2)
	assert.Equal(t, "answer to q1", records[0].Answer.Text)
}

func TestExecuteLevelUpdateSupersedesInitialFact(t *testing.T) {
	// Phased delivery plus newest-first retrieval: the revised figure must
	// surface ahead of the figure it superseded.
	level := core.CapabilityLevel{
		ID: "L3-update",
		Articles: []core.Article{
			{Title: "plan", Phase: core.PhaseInitial, Content: "The station count is 5."},
			{Title: "revision", Phase: core.PhaseUpdate, Content: "The station count is 7."},
		},
		Questions: []core.Question{
			{ID: "q1", Prompt: "What is the station count?", Type: core.QuestionUpdate},
		},
	}

	r := New(testutil.NewMemoryAgentFactory(), WithWorkDir(t.TempDir()))
	records, err := r.ExecuteLevel(context.Background(), level, "run-1")
	require.NoError(t, err)
	require.Len(t, records, 1)

	answer := records[0].Answer.Text
	assert.Contains(t, answer, "7")
	assert.Less(t, strings.Index(answer, "7"), strings.Index(answer, "5"),
		"the superseding fact must rank ahead of the stale one")
}

func TestExecuteLevelIsolationBetweenLevels(t *testing.T) {
	// Facts learned in one level must be unreachable from the next: each
	// ExecuteLevel call binds the agent to a fresh private store.
	levelA := core.CapabilityLevel{
		ID:        "L1-recall",
		Articles:  []core.Article{{Title: "a", Content: "The launch code is zephyr."}},
		Questions: []core.Question{{ID: "q1", Prompt: "What is the launch code?", Type: core.QuestionRecall}},
	}
	levelB := core.CapabilityLevel{
		ID:        "L2-temporal",
		Articles:  []core.Article{{Title: "b", Content: "The budget was 40 in January."}},
		Questions: []core.Question{{ID: "q1", Prompt: "What is the launch code?", Type: core.QuestionRecall}},
	}

	r := New(testutil.NewMemoryAgentFactory(), WithWorkDir(t.TempDir()))

	recA, err := r.ExecuteLevel(context.Background(), levelA, "run-1")
	require.NoError(t, err)
	assert.Contains(t, recA[0].Answer.Text, "zephyr")

	recB, err := r.ExecuteLevel(context.Background(), levelB, "run-1")
	require.NoError(t, err)
	assert.NotContains(t, recB[0].Answer.Text, "zephyr")
}

func TestExecuteLevelDestroysRunContext(t *testing.T) {
	workDir := t.TempDir()
	level := core.CapabilityLevel{
		ID:        "L1-recall",
		Articles:  []core.Article{{Title: "a", Content: "Some fact here."}},
		Questions: []core.Question{{ID: "q1", Prompt: "fact", Type: core.QuestionRecall}},
	}

	r := New(testutil.NewMemoryAgentFactory(), WithWorkDir(workDir))
	_, err := r.ExecuteLevel(context.Background(), level, "run-1")
	require.NoError(t, err)

	entries, err := os.ReadDir(workDir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".db"),
			"memory store %s survived teardown", e.Name())
	}
}

func TestExecuteLevelDistinctAgentIdentities(t *testing.T) {
	var ids []string
	level := core.CapabilityLevel{
		ID:        "L1-recall",
		Questions: []core.Question{{ID: "q1", Type: core.QuestionRecall}},
	}

	var learned, answered []string
	r := New(func(_ context.Context, runCtx *core.AgentRunContext) (core.Agent, error) {
		ids = append(ids, runCtx.AgentID)
		return &recordingAgent{runCtx: runCtx, learned: &learned, answered: &answered}, nil
	}, WithWorkDir(t.TempDir()))

	for i := 0; i < 3; i++ {
		_, err := r.ExecuteLevel(context.Background(), level, fmt.Sprintf("run-%d", i+1))
		require.NoError(t, err)
	}

	require.Len(t, ids, 3)
	assert.NotEqual(t, ids[0], ids[1])
	assert.NotEqual(t, ids[1], ids[2])
	for _, id := range ids {
		assert.True(t, strings.HasPrefix(id, "L1-recall-"))
	}
}

func TestTestingPhaseRecordsAnswerErrorsAsData(t *testing.T) {
	level := core.CapabilityLevel{
		ID:        "L1-recall",
		Questions: []core.Question{{ID: "q1", Type: core.QuestionRecall}},
	}

	r := New(func(context.Context, *core.AgentRunContext) (core.Agent, error) {
		return &testutil.FailingAgent{Err: fmt.Errorf("model unavailable")}, nil
	}, WithWorkDir(t.TempDir()))

	records, err := r.ExecuteLevel(context.Background(), level, "run-1")
	require.NoError(t, err, "an answer failure is recorded, not escalated")
	require.Len(t, records, 1)
	assert.Empty(t, records[0].Answer.Text)
	assert.Contains(t, records[0].Answer.ReasoningTrace, "model unavailable")
}

func TestExecuteTeachingProducesTranscript(t *testing.T) {
	level := core.CapabilityLevel{
		ID:       "L9-teaching",
		Teaching: true,
		Articles: []core.Article{
			{Title: "rules", Content: "Rule one is safety first. Rule two is check twice."},
		},
		Questions: []core.Question{
			{ID: "coverage", Type: core.QuestionTeaching, Prompt: "Did the teaching cover the rules?"},
		},
	}

	r := New(testutil.NewMemoryAgentFactory(),
		WithWorkDir(t.TempDir()),
		WithMaxDialogueTurns(3))

	records, err := r.ExecuteLevel(context.Background(), level, "run-1")
	require.NoError(t, err)
	require.Len(t, records, 1)

	transcript := records[0].Answer.Text
	assert.Contains(t, transcript, "Teacher (turn 1):")
	assert.Contains(t, transcript, "Learner (turn 3):")
	assert.NotContains(t, transcript, "Teacher (turn 4):",
		"dialogue must stop at the configured turn bound")
	// The learner's closing restatement rides along as the trace.
	assert.NotEmpty(t, records[0].Answer.ReasoningTrace)
}

func TestExecuteLevelCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(testutil.NewMemoryAgentFactory(), WithWorkDir(t.TempDir()))
	_, err := r.ExecuteLevel(ctx, core.CapabilityLevel{
		ID:        "L1-recall",
		Articles:  []core.Article{{Title: "a", Content: "fact."}},
		Questions: []core.Question{{ID: "q1", Type: core.QuestionRecall}},
	}, "run-1")
	require.Error(t, err)
}
