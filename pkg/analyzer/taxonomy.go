// Package analyzer classifies failing grading results into a fixed failure
// taxonomy. Classification is rule-based on (level id, question type, score
// pattern) - never another LLM call - so a diagnosis is deterministic and
// auditable, and each taxonomy entry points at the agent component
// responsible for that class of failure.
package analyzer

// Tag identifies one entry of the failure taxonomy.
type Tag string

const (
	TagInsufficientRetrieval      Tag = "insufficient_retrieval"
	TagIncorrectTemporalArithmetic Tag = "incorrect_temporal_arithmetic"
	TagIntentMisclassification    Tag = "intent_misclassification"
	TagIncompleteFactExtraction   Tag = "incomplete_fact_extraction"
	TagFabricatedSynthesis        Tag = "fabricated_synthesis"
	TagStaleDataUsage             Tag = "stale_data_usage"
	TagUndetectedContradiction    Tag = "undetected_contradiction"
	TagLostProceduralOrdering     Tag = "lost_procedural_ordering"
	TagIncompleteTeachingCoverage Tag = "incomplete_teaching_coverage"
	TagRefusalOnHypothetical      Tag = "refusal_on_hypothetical"

	// TagUnclassified is the explicit fallback when no rule matches. A
	// failure is never silently dropped.
	TagUnclassified Tag = "unclassified"
)

// components maps every taxonomy entry to the named component in the agent
// under test responsible for that failure class. The pointer is fixed per
// entry, which is what makes an analyzer report directly actionable.
var components = map[Tag]string{
	TagInsufficientRetrieval:       "memory.Retriever.ReadRelevantFacts",
	TagIncorrectTemporalArithmetic: "reasoning.TemporalCalculator.Delta",
	TagIntentMisclassification:     "reasoning.IntentClassifier.Classify",
	TagIncompleteFactExtraction:    "extraction.FactExtractor.Extract",
	TagFabricatedSynthesis:         "reasoning.SynthesisPlanner.Compose",
	TagStaleDataUsage:              "memory.FactStore.Supersede",
	TagUndetectedContradiction:     "memory.ConflictDetector.Scan",
	TagLostProceduralOrdering:      "memory.SequenceIndexer.Order",
	TagIncompleteTeachingCoverage:  "dialogue.TeachingPlanner.Cover",
	TagRefusalOnHypothetical:       "reasoning.CounterfactualPolicy.Engage",
	TagUnclassified:                "",
}

// Component returns the responsible agent component for a taxonomy entry.
func Component(tag Tag) string {
	return components[tag]
}

// Tags lists the ten taxonomy entries in their canonical order, excluding
// the unclassified fallback.
func Tags() []Tag {
	return []Tag{
		TagInsufficientRetrieval,
		TagIncorrectTemporalArithmetic,
		TagIntentMisclassification,
		TagIncompleteFactExtraction,
		TagFabricatedSynthesis,
		TagStaleDataUsage,
		TagUndetectedContradiction,
		TagLostProceduralOrdering,
		TagIncompleteTeachingCoverage,
		TagRefusalOnHypothetical,
	}
}
