package core

import (
	"context"
	"time"
)

// Fact is one unit of knowledge the agent persists to its memory store.
type Fact struct {
	Content   string    `json:"content"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MemoryStore is the private fact store bound to one AgentRunContext. One
// instance per context, never reused across contexts.
type MemoryStore interface {
	WriteFact(ctx context.Context, fact Fact) error
	ReadRelevantFacts(ctx context.Context, query string, limit int) ([]Fact, error)
	Destroy() error
}

// Agent is the system under test. It must persist facts to its bound memory
// store between calls within one context.
type Agent interface {
	Learn(ctx context.Context, article Article) error
	Answer(ctx context.Context, question Question) (Answer, error)
}

// Teacher is implemented by agents that can run the teaching-variant level,
// producing one dialogue turn toward a learner instance.
type Teacher interface {
	Teach(ctx context.Context, learnerReply string) (string, error)
}

// AgentFactory constructs a fresh agent bound to the given run context. The
// isolation runner calls it exactly once per (level, run) pair.
type AgentFactory func(ctx context.Context, runCtx *AgentRunContext) (Agent, error)

// JudgeRequest is one comparison issued to the external LLM judge.
type JudgeRequest struct {
	Question  string
	Candidate string
	Expected  string
	Rubric    string
}

// Judgment is the judge's parsed verdict. Score is a scalar in the closed
// interval [0,1]; partial credit is expected.
type Judgment struct {
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale"`
}

// Judge is the external LLM-based grading oracle. It is a noisy oracle: the
// grader stabilizes it statistically rather than assuming determinism.
type Judge interface {
	Judge(ctx context.Context, req JudgeRequest) (Judgment, error)
}
