package grader

import (
	"fmt"
	"strings"

	"github.com/XiaoConstantine/crucible/pkg/core"
)

// Rubric is the level-specific grading guidance handed to the judge. Rubrics
// are data keyed by level id, not code branches, so new levels extend the
// table without touching the grader.
type Rubric struct {
	LevelID string
	Text    string
}

// RubricTable maps level ids to their rubrics, with a default for levels the
// table does not know.
type RubricTable struct {
	rubrics map[string]Rubric
	fallback Rubric
}

const defaultRubricText = `Score semantic equivalence with the expected
reference. Partial credit for partially correct answers. Wording differences
do not matter; factual agreement does.`

// builtinRubrics carries the ladder's level-specific grading rules.
var builtinRubrics = []Rubric{
	{
		LevelID: "L1-recall",
		Text: `Score factual agreement with the reference. Exact phrasing is
irrelevant; the named entities and values must match.`,
	},
	{
		LevelID: "L2-temporal",
		Text: `This level tracks quantities changing over time. Numeric-value
equivalence takes priority over prose trend description: a correct number
with a vague trend outranks a fluent trend with a wrong number. Check that
values are attributed to the correct point in time.`,
	},
	{
		LevelID: "L3-update",
		Text: `Later documents supersede earlier ones. An answer repeating the
superseded figure is wrong even though it appears in the sources. Values the
update left unchanged keep their original figure.`,
	},
	{
		LevelID: "L4-contradiction",
		Text: `The sources conflict. Score acknowledgment of the conflict on a
continuous 0.0-1.0 scale, not binary: 1.0 for explicitly naming both
conflicting values and their sources, around 0.5 for picking one value while
noting uncertainty, near 0.0 for silently asserting a single value.`,
	},
	{
		LevelID: "L5-causal",
		Text: `Multiple independently valid root causes are acceptable if the
stated causal chain is internally consistent. Grade the coherence of the
chain from cause to observed effect, not agreement with one canonical cause.
Hypothetical questions must be engaged with, not refused.`,
	},
	{
		LevelID: "L6-format",
		Text: `Score only the presence and correctness of the required fields.
Additional optional fields must not reduce the score. Each missing or
incorrect required field reduces the score proportionally.`,
	},
	{
		LevelID: "L7-procedural",
		Text: `The ordering of steps is the point. All steps present but in the
wrong order is at most half credit. Check stated ordering constraints.`,
	},
	{
		LevelID: "L8-transfer",
		Text: `The direction of the derived ratio or trend is the primary
correctness signal. A correct direction with imprecise magnitude scores
higher than a precise magnitude in the wrong direction.`,
	},
	{
		LevelID: "L9-teaching",
		Text: `Grade teaching coverage: the fraction of required facts the
dialogue actually conveyed to the learner. Facts merely mentioned in passing
without explanation count at half weight.`,
	},
	{
		LevelID: "L10-longhorizon",
		Text: `The fact was planted early in a long conversation. Score recall
of the specific planted value; generic summaries of the conversation do not
count.`,
	},
}

// NewRubricTable builds the table with the builtin ladder rubrics plus any
// extras, which override builtins on id collision.
func NewRubricTable(extra ...Rubric) *RubricTable {
	t := &RubricTable{
		rubrics:  make(map[string]Rubric, len(builtinRubrics)+len(extra)),
		fallback: Rubric{Text: defaultRubricText},
	}
	for _, r := range builtinRubrics {
		t.rubrics[r.LevelID] = r
	}
	for _, r := range extra {
		t.rubrics[r.LevelID] = r
	}
	return t
}

// Lookup returns the rubric for a level, falling back to the default.
func (t *RubricTable) Lookup(levelID string) Rubric {
	if r, ok := t.rubrics[levelID]; ok {
		return r
	}
	return t.fallback
}

// Compose renders the final rubric text for one question, appending
// question-level constraints like required fields.
func (t *RubricTable) Compose(levelID string, q core.Question) string {
	text := t.Lookup(levelID).Text
	if len(q.RequiredFields) > 0 {
		text += fmt.Sprintf("\nRequired fields: %s.", strings.Join(q.RequiredFields, ", "))
	}
	return text
}
