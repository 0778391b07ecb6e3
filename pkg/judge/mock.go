package judge

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/XiaoConstantine/crucible/pkg/core"
)

// MockJudge is a deterministic offline stand-in for the LLM judge. It scores
// by token overlap between the candidate and the expected reference after
// unicode normalization, which is enough for smoke runs and tests that need
// reproducible verdicts.
type MockJudge struct{}

var _ core.Judge = (*MockJudge)(nil)

// NewMockJudge creates a deterministic heuristic judge.
func NewMockJudge() *MockJudge {
	return &MockJudge{}
}

var normalizer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

var lowerCaser = cases.Lower(language.Und)

// canonicalize strips diacritics and case so "Liège"/"liege" compare equal.
func canonicalize(s string) string {
	out, _, err := transform.String(normalizer, s)
	if err != nil {
		out = s
	}
	return lowerCaser.String(out)
}

// Judge implements core.Judge.
func (m *MockJudge) Judge(_ context.Context, req core.JudgeRequest) (core.Judgment, error) {
	expected := tokenSet(canonicalize(req.Expected))
	candidate := tokenSet(canonicalize(req.Candidate))

	if len(expected) == 0 {
		return core.Judgment{Score: 0, Rationale: "no expected reference to compare against"}, nil
	}

	matched := 0
	for tok := range expected {
		if candidate[tok] {
			matched++
		}
	}

	score := core.Clamp01(float64(matched) / float64(len(expected)))
	return core.Judgment{
		Score:     score,
		Rationale: fmt.Sprintf("matched %d of %d reference tokens", matched, len(expected)),
	}, nil
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, f := range strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(f) > 2 {
			set[f] = true
		}
	}
	return set
}
