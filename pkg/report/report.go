// Package report renders machine-readable evaluation outcomes: aggregate
// pass/fail plus per-level scores and raw samples, consumed by CI and by the
// improvement loop.
package report

import (
	"encoding/json"
	"io"
	"sort"
	"time"

	"github.com/XiaoConstantine/crucible/pkg/coordinator"
	"github.com/XiaoConstantine/crucible/pkg/core"
)

// LevelReport is one level's stabilized outcome.
type LevelReport struct {
	LevelID   string    `json:"level_id"`
	Score     float64   `json:"score"`
	Pass      bool      `json:"pass"`
	RawScores []float64 `json:"raw_scores"`
	FatalRuns int       `json:"fatal_runs"`
}

// Report is the full machine-readable outcome of an evaluation.
type Report struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Threshold   float64              `json:"threshold"`
	Pass        bool                 `json:"pass"`
	Levels      []LevelReport        `json:"levels"`
	Failures    []core.FailureRecord `json:"failures,omitempty"`
}

// FromRunSet reduces a coordinated run set to a report. The aggregate passes
// only when every level's median clears the threshold and no level was
// fatal in every run.
func FromRunSet(rs *coordinator.RunSet, threshold float64, failures []core.FailureRecord) *Report {
	r := &Report{
		GeneratedAt: time.Now(),
		Threshold:   threshold,
		Pass:        true,
		Failures:    failures,
	}

	ids := make([]string, 0, len(rs.Aggregates))
	for id := range rs.Aggregates {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		agg := rs.Aggregates[id]
		pass := agg.Median >= threshold && len(agg.RawScores) > 0
		if !pass {
			r.Pass = false
		}
		r.Levels = append(r.Levels, LevelReport{
			LevelID:   agg.LevelID,
			Score:     agg.Median,
			Pass:      pass,
			RawScores: agg.RawScores,
			FatalRuns: agg.FatalRuns,
		})
	}
	return r
}

// WriteJSON renders the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
