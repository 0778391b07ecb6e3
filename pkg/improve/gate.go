package improve

import (
	"fmt"
	"sort"
	"strings"
)

// Decision is the outcome of the DECIDE state.
type Decision string

const (
	DecisionKeep   Decision = "keep"
	DecisionRevert Decision = "revert"
)

// Gate is the regression gate: the safety check that blocks an automated
// change from shipping if it degrades any previously-passing level beyond
// tolerance.
type Gate struct {
	Tolerance float64
}

// Verdict compares post-change scores against the baseline. Any level
// dropping by more than the tolerance forces a revert; improvements on other
// levels never buy back a regression.
func (g Gate) Verdict(baseline, post map[string]float64) (Decision, string) {
	var regressions []string

	ids := make([]string, 0, len(baseline))
	for id := range baseline {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		before := baseline[id]
		after, ok := post[id]
		if !ok {
			// A level that vanished from the post-change run counts as a
			// full regression.
			regressions = append(regressions, fmt.Sprintf("%s: missing from post-change scores", id))
			continue
		}
		if before-after > g.Tolerance {
			regressions = append(regressions,
				fmt.Sprintf("%s: %.3f -> %.3f (drop %.3f > tolerance %.3f)",
					id, before, after, before-after, g.Tolerance))
		}
	}

	if len(regressions) > 0 {
		return DecisionRevert, "regressions: " + strings.Join(regressions, "; ")
	}
	return DecisionKeep, "no level regressed beyond tolerance"
}
