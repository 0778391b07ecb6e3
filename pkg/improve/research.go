package improve

import (
	"context"
	"fmt"

	"github.com/XiaoConstantine/crucible/pkg/analyzer"
	"github.com/XiaoConstantine/crucible/pkg/core"
)

// Hypothesis is the product of the RESEARCH state. A hypothesis without
// supporting evidence and at least one counter-argument is not actionable:
// the orchestrator refuses to enter IMPROVE with one.
type Hypothesis struct {
	Statement         string `json:"statement"`
	Evidence          string `json:"evidence"`
	CounterArgument   string `json:"counter_argument"`
	ChangeDescription string `json:"change_description"`
	TargetComponent   string `json:"target_component"`
}

// Complete reports whether the hypothesis carries the required evidence and
// counter-argument.
func (h *Hypothesis) Complete() bool {
	return h != nil && h.Statement != "" && h.Evidence != "" && h.CounterArgument != ""
}

// Researcher turns ranked failures into a hypothesis for exactly one
// targeted change. Returning nil means research found insufficient
// justification and the iteration declares a no-op.
type Researcher interface {
	Research(ctx context.Context, failures []core.FailureRecord) (*Hypothesis, error)
}

// TaxonomyResearcher is a deterministic researcher: it targets the taxonomy
// entry that dominates the failure list, citing the failure counts as
// evidence. It serves as the default; an LLM-backed researcher can replace
// it behind the same interface.
type TaxonomyResearcher struct {
	// MinFailures is the justification bar: fewer failures than this and no
	// hypothesis is produced.
	MinFailures int
}

var _ Researcher = (*TaxonomyResearcher)(nil)

// Research implements Researcher.
func (r *TaxonomyResearcher) Research(_ context.Context, failures []core.FailureRecord) (*Hypothesis, error) {
	minFailures := r.MinFailures
	if minFailures <= 0 {
		minFailures = 1
	}
	if len(failures) < minFailures {
		return nil, nil
	}

	counts := make(map[string]int)
	for _, f := range failures {
		counts[f.Tag]++
	}

	var topTag string
	topCount := 0
	// Iterate canonical order so ties break deterministically.
	for _, tag := range analyzer.Tags() {
		if c := counts[string(tag)]; c > topCount {
			topTag, topCount = string(tag), c
		}
	}
	if topCount == 0 {
		// Only unclassified failures: no component to target, no change
		// justified.
		return nil, nil
	}

	component := analyzer.Component(analyzer.Tag(topTag))
	levels := affectedLevels(failures, topTag)

	return &Hypothesis{
		Statement: fmt.Sprintf("failures cluster on %s; strengthening %s should raise the affected levels", topTag, component),
		Evidence: fmt.Sprintf("%d of %d sub-threshold results classify as %s, across levels %v",
			topCount, len(failures), topTag, levels),
		CounterArgument: fmt.Sprintf("the cluster may be a symptom: %d failures carry other tags, and a change to %s could trade their capability away",
			len(failures)-topCount, component),
		ChangeDescription: fmt.Sprintf("one targeted change to %s addressing %s", component, topTag),
		TargetComponent:   component,
	}, nil
}

func affectedLevels(failures []core.FailureRecord, tag string) []string {
	seen := make(map[string]bool)
	var levels []string
	for _, f := range failures {
		if f.Tag == tag && !seen[f.LevelID] {
			seen[f.LevelID] = true
			levels = append(levels, f.LevelID)
		}
	}
	return levels
}
