package analyzer

import (
	"sort"
	"strings"

	"github.com/XiaoConstantine/crucible/pkg/core"
	"github.com/XiaoConstantine/crucible/pkg/logging"
)

// Analyzer classifies sub-threshold grading results.
type Analyzer struct {
	threshold float64
	logger    *logging.Logger
}

// New creates an analyzer. Results scoring at or above threshold are
// considered passing and never classified.
func New(threshold float64) *Analyzer {
	return &Analyzer{
		threshold: threshold,
		logger:    logging.GetLogger(),
	}
}

// Threshold returns the success threshold the analyzer applies.
func (a *Analyzer) Threshold() float64 {
	return a.threshold
}

// Analyze walks all level results and returns one FailureRecord per
// sub-threshold grade, ranked worst-first so the improvement loop attacks
// the largest deficits. Fatal levels contribute one record per question with
// the level's error as excerpt.
func (a *Analyzer) Analyze(results []core.LevelResult) []core.FailureRecord {
	var failures []core.FailureRecord

	for _, lr := range results {
		if lr.Fatal {
			for _, rec := range lr.Records {
				failures = append(failures, a.Classify(lr.LevelID, rec.Question, core.GradingResult{
					LevelID:    lr.LevelID,
					QuestionID: rec.Question.ID,
					Score:      0,
				}, lr.ErrorMsg))
			}
			continue
		}

		byQuestion := make(map[string]core.Question, len(lr.Records))
		byAnswer := make(map[string]core.Answer, len(lr.Records))
		for _, rec := range lr.Records {
			byQuestion[rec.Question.ID] = rec.Question
			byAnswer[rec.Question.ID] = rec.Answer
		}

		for _, g := range lr.Grades {
			if g.Score >= a.threshold {
				continue
			}
			q := byQuestion[g.QuestionID]
			ans := byAnswer[g.QuestionID]
			failures = append(failures, a.Classify(lr.LevelID, q, g, excerpt(ans)))
		}
	}

	sort.SliceStable(failures, func(i, j int) bool {
		return scoreOf(results, failures[i]) < scoreOf(results, failures[j])
	})

	return failures
}

// Classify maps one failing (level, question) pair to exactly one taxonomy
// entry, or the explicit unclassified fallback. Rules are ordered; the first
// match wins, so a result never resolves to zero or multiple tags.
func (a *Analyzer) Classify(levelID string, q core.Question, g core.GradingResult, excerpt string) core.FailureRecord {
	tag := classify(q.Type, g)

	return core.FailureRecord{
		LevelID:    levelID,
		QuestionID: g.QuestionID,
		Tag:        string(tag),
		Component:  Component(tag),
		Excerpt:    excerpt,
	}
}

func classify(qt core.QuestionType, g core.GradingResult) Tag {
	switch qt {
	case core.QuestionTeaching:
		return TagIncompleteTeachingCoverage
	case core.QuestionUpdate:
		return TagStaleDataUsage
	case core.QuestionContradiction:
		return TagUndetectedContradiction
	case core.QuestionProcedural:
		return TagLostProceduralOrdering
	case core.QuestionTemporal:
		return TagIncorrectTemporalArithmetic
	case core.QuestionHypothetical:
		if g.Score == 0 {
			return TagRefusalOnHypothetical
		}
		return TagFabricatedSynthesis
	case core.QuestionCausal:
		return TagFabricatedSynthesis
	case core.QuestionTransfer:
		return TagIntentMisclassification
	case core.QuestionFormat:
		return TagIncompleteFactExtraction
	case core.QuestionRecall:
		// A zero on plain recall means nothing relevant came back from
		// memory; a partial score means facts came back incomplete.
		if g.Score == 0 {
			return TagInsufficientRetrieval
		}
		return TagIncompleteFactExtraction
	default:
		return TagUnclassified
	}
}

func excerpt(ans core.Answer) string {
	text := ans.Text
	if ans.ReasoningTrace != "" {
		text = ans.Text + "\n--- reasoning ---\n" + ans.ReasoningTrace
	}
	text = strings.TrimSpace(text)
	if len(text) > 400 {
		text = text[:400] + "..."
	}
	return text
}

func scoreOf(results []core.LevelResult, f core.FailureRecord) float64 {
	for _, lr := range results {
		if lr.LevelID != f.LevelID {
			continue
		}
		for _, g := range lr.Grades {
			if g.QuestionID == f.QuestionID {
				return g.Score
			}
		}
	}
	return 0
}
