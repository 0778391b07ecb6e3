package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XiaoConstantine/crucible/pkg/coordinator"
	"github.com/XiaoConstantine/crucible/pkg/core"
)

func runSetWith(aggs ...coordinator.LevelAggregate) *coordinator.RunSet {
	m := make(map[string]coordinator.LevelAggregate, len(aggs))
	for _, a := range aggs {
		m[a.LevelID] = a
	}
	return &coordinator.RunSet{Aggregates: m}
}

func TestFromRunSetAllLevelsPass(t *testing.T) {
	rs := runSetWith(
		coordinator.LevelAggregate{LevelID: "L1-recall", Median: 0.9, RawScores: []float64{0.9, 0.9, 0.9}},
		coordinator.LevelAggregate{LevelID: "L2-temporal", Median: 0.75, RawScores: []float64{0.7, 0.75, 0.8}},
	)

	r := FromRunSet(rs, 0.7, nil)
	assert.True(t, r.Pass)
	require.Len(t, r.Levels, 2)
	for _, lr := range r.Levels {
		assert.True(t, lr.Pass, "level %s", lr.LevelID)
	}
}

func TestFromRunSetSubThresholdLevelFailsAggregate(t *testing.T) {
	rs := runSetWith(
		coordinator.LevelAggregate{LevelID: "L1-recall", Median: 0.9, RawScores: []float64{0.9}},
		coordinator.LevelAggregate{LevelID: "L3-update", Median: 0.6, RawScores: []float64{0.6}},
	)

	r := FromRunSet(rs, 0.7, nil)
	assert.False(t, r.Pass)
	assert.True(t, r.Levels[0].Pass)
	assert.False(t, r.Levels[1].Pass)
}

func TestFromRunSetAllFatalLevelFails(t *testing.T) {
	// Median of zero samples is 0, but the empty RawScores is the signal: a
	// level fatal in every run can never pass regardless of threshold.
	rs := runSetWith(
		coordinator.LevelAggregate{LevelID: "L5-causal", Median: 0, FatalRuns: 3},
	)

	r := FromRunSet(rs, 0.0, nil)
	assert.False(t, r.Pass)
	assert.False(t, r.Levels[0].Pass)
	assert.Equal(t, 3, r.Levels[0].FatalRuns)
}

func TestFromRunSetSortsLevels(t *testing.T) {
	rs := runSetWith(
		coordinator.LevelAggregate{LevelID: "L9-teaching", Median: 0.8, RawScores: []float64{0.8}},
		coordinator.LevelAggregate{LevelID: "L1-recall", Median: 0.8, RawScores: []float64{0.8}},
		coordinator.LevelAggregate{LevelID: "L10-longhorizon", Median: 0.8, RawScores: []float64{0.8}},
	)

	r := FromRunSet(rs, 0.7, nil)
	require.Len(t, r.Levels, 3)
	assert.Equal(t, "L1-recall", r.Levels[0].LevelID)
	assert.Equal(t, "L10-longhorizon", r.Levels[1].LevelID)
	assert.Equal(t, "L9-teaching", r.Levels[2].LevelID)
}

func TestWriteJSONRoundTrip(t *testing.T) {
	rs := runSetWith(
		coordinator.LevelAggregate{LevelID: "L1-recall", Median: 0.65, RawScores: []float64{0.6, 0.65, 0.7}},
	)
	failures := []core.FailureRecord{{
		LevelID:    "L1-recall",
		QuestionID: "q1",
		Tag:        "insufficient_retrieval",
		Component:  "memory.Retriever.ReadRelevantFacts",
	}}

	var buf bytes.Buffer
	require.NoError(t, FromRunSet(rs, 0.7, failures).WriteJSON(&buf))

	var decoded Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.False(t, decoded.Pass)
	require.Len(t, decoded.Levels, 1)
	assert.InDelta(t, 0.65, decoded.Levels[0].Score, 1e-9)
	assert.Equal(t, []float64{0.6, 0.65, 0.7}, decoded.Levels[0].RawScores)
	require.Len(t, decoded.Failures, 1)
	assert.Equal(t, "insufficient_retrieval", decoded.Failures[0].Tag)
}
