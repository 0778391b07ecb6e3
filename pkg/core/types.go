package core

import (
	"time"
)

// ArticlePhase distinguishes initial source material from later revisions in
// phased levels.
type ArticlePhase string

const (
	PhaseInitial ArticlePhase = "initial"
	PhaseUpdate  ArticlePhase = "update"
)

// Article is one source document delivered to the agent during the learning
// phase. Articles are delivered strictly in slice order, and update-phase
// articles are never delivered before every initial-phase article.
type Article struct {
	Title   string       `yaml:"title" json:"title"`
	Content string       `yaml:"content" json:"content"`
	Phase   ArticlePhase `yaml:"phase,omitempty" json:"phase,omitempty"`
}

// QuestionType drives rubric selection and failure classification.
type QuestionType string

const (
	QuestionRecall        QuestionType = "recall"
	QuestionTemporal      QuestionType = "temporal"
	QuestionUpdate        QuestionType = "update"
	QuestionContradiction QuestionType = "contradiction"
	QuestionCausal        QuestionType = "causal"
	QuestionFormat        QuestionType = "format"
	QuestionProcedural    QuestionType = "procedural"
	QuestionTransfer      QuestionType = "transfer"
	QuestionTeaching      QuestionType = "teaching"
	QuestionHypothetical  QuestionType = "hypothetical"
)

// Question is a single test prompt. Expected is reference material for the
// judge, not necessarily a literal answer string - it may describe a rule for
// deriving the correct answer.
type Question struct {
	ID             string       `yaml:"id" json:"id"`
	Prompt         string       `yaml:"prompt" json:"prompt"`
	Expected       string       `yaml:"expected" json:"expected"`
	Type           QuestionType `yaml:"type" json:"type"`
	RequiredFields []string     `yaml:"required_fields,omitempty" json:"required_fields,omitempty"`
}

// CapabilityLevel is one rung of the progressively harder test ladder.
// Levels are immutable once loaded from the catalog.
type CapabilityLevel struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`

	Articles  []Article  `yaml:"articles" json:"articles"`
	Questions []Question `yaml:"questions" json:"questions"`

	RequiresTemporalOrdering bool `yaml:"requires_temporal_ordering" json:"requires_temporal_ordering"`
	RequiresUpdateHandling   bool `yaml:"requires_update_handling" json:"requires_update_handling"`

	// Teaching marks the level variant where the agent under test must teach
	// a separate learner instance instead of the usual learn/test split.
	Teaching bool `yaml:"teaching,omitempty" json:"teaching,omitempty"`

	// RequiredFacts lists the facts a teaching-variant level must transfer.
	RequiredFacts []string `yaml:"required_facts,omitempty" json:"required_facts,omitempty"`
}

// HasUpdatePhase reports whether any article belongs to the update batch.
func (l *CapabilityLevel) HasUpdatePhase() bool {
	for _, a := range l.Articles {
		if a.Phase == PhaseUpdate {
			return true
		}
	}
	return false
}

// Answer is the agent's response to one question.
type Answer struct {
	Text           string `json:"text"`
	ReasoningTrace string `json:"reasoning_trace,omitempty"`
}

// QuestionRecord pairs a question with the answer the agent gave during the
// testing phase.
type QuestionRecord struct {
	Question Question `json:"question"`
	Answer   Answer   `json:"answer"`
}

// AgentRunContext binds a uniquely named agent identity to a private,
// disposable memory store for the duration of one (level, run) execution.
// No two concurrent contexts share a memory store.
type AgentRunContext struct {
	AgentID   string
	LevelID   string
	RunID     string
	Memory    MemoryStore
	CreatedAt time.Time
}

// Destroy tears down the context's private memory store.
func (c *AgentRunContext) Destroy() error {
	if c.Memory == nil {
		return nil
	}
	return c.Memory.Destroy()
}

// GradingResult is the stabilized outcome of grading one answer.
type GradingResult struct {
	LevelID    string    `json:"level_id"`
	QuestionID string    `json:"question_id"`
	Score      float64   `json:"score"`
	Rationale  string    `json:"rationale"`
	Samples    int       `json:"samples"`
	Statistic  string    `json:"statistic"`
	RawSamples []float64 `json:"raw_samples,omitempty"`
}

// MetacognitionResult holds the four independent transcript quality
// dimensions plus their aggregate.
type MetacognitionResult struct {
	EffortCalibration   float64 `json:"effort_calibration"`
	SufficiencyJudgment float64 `json:"sufficiency_judgment"`
	SearchQuality       float64 `json:"search_quality"`
	SelfCorrection      float64 `json:"self_correction"`
	Aggregate           float64 `json:"aggregate"`
}

// FailureRecord is the deterministic diagnosis of one failing question.
type FailureRecord struct {
	LevelID    string `json:"level_id"`
	QuestionID string `json:"question_id"`
	Tag        string `json:"tag"`
	Component  string `json:"component"`
	Excerpt    string `json:"excerpt"`
}

// LevelResult collects everything produced by one level execution. A fatal
// result carries an error message instead of per-question grades and is
// excluded from success statistics.
type LevelResult struct {
	LevelID  string           `json:"level_id"`
	Records  []QuestionRecord `json:"records,omitempty"`
	Grades   []GradingResult  `json:"grades,omitempty"`
	Fatal    bool             `json:"fatal,omitempty"`
	ErrorMsg string           `json:"error,omitempty"`
	Elapsed  time.Duration    `json:"elapsed"`

	// Metacognition holds per-question transcript quality scores, keyed by
	// question id. Advisory: it never feeds the pass/fail statistic.
	Metacognition map[string]MetacognitionResult `json:"metacognition,omitempty"`
}

// Score reduces the level's grades to their mean, or 0 for fatal results.
func (r *LevelResult) Score() float64 {
	if r.Fatal || len(r.Grades) == 0 {
		return 0
	}
	var sum float64
	for _, g := range r.Grades {
		sum += g.Score
	}
	return sum / float64(len(r.Grades))
}
