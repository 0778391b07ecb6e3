// Package testutil provides shared fakes for pipeline tests: a scriptable
// judge and a minimal memory-backed agent.
package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/XiaoConstantine/crucible/pkg/core"
)

// ScriptedJudge replays a fixed sequence of judgments and errors, cycling
// when exhausted. Safe for concurrent samples.
type ScriptedJudge struct {
	mu    sync.Mutex
	steps []ScriptStep
	next  int

	// Calls counts every Judge invocation, including failed ones.
	Calls int
}

// ScriptStep is one scripted judge response.
type ScriptStep struct {
	Judgment core.Judgment
	Err      error
}

// NewScriptedJudge builds a judge that replays the given steps in order.
func NewScriptedJudge(steps ...ScriptStep) *ScriptedJudge {
	return &ScriptedJudge{steps: steps}
}

// Scores is shorthand for a judge that returns the given scores in order.
func Scores(scores ...float64) *ScriptedJudge {
	steps := make([]ScriptStep, len(scores))
	for i, s := range scores {
		steps[i] = ScriptStep{Judgment: core.Judgment{Score: s, Rationale: "scripted"}}
	}
	return NewScriptedJudge(steps...)
}

// Judge implements core.Judge.
func (j *ScriptedJudge) Judge(_ context.Context, _ core.JudgeRequest) (core.Judgment, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.Calls++
	if len(j.steps) == 0 {
		return core.Judgment{Score: 1, Rationale: "default"}, nil
	}
	step := j.steps[j.next%len(j.steps)]
	j.next++
	return step.Judgment, step.Err
}

// MemoryAgent is a minimal agent under test: Learn splits articles into
// sentence facts written to the bound store, Answer retrieves relevant facts
// and concatenates them. Deliberately naive - it exists to exercise the
// pipeline, not to score well.
type MemoryAgent struct {
	RunCtx *core.AgentRunContext
}

var _ core.Agent = (*MemoryAgent)(nil)

// NewMemoryAgentFactory returns a factory producing MemoryAgents.
func NewMemoryAgentFactory() core.AgentFactory {
	return func(_ context.Context, runCtx *core.AgentRunContext) (core.Agent, error) {
		return &MemoryAgent{RunCtx: runCtx}, nil
	}
}

// Learn implements core.Agent.
func (a *MemoryAgent) Learn(ctx context.Context, article core.Article) error {
	for _, sentence := range strings.Split(article.Content, ".") {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if err := a.RunCtx.Memory.WriteFact(ctx, core.Fact{
			Content: sentence,
			Source:  article.Title,
		}); err != nil {
			return err
		}
	}
	return nil
}

// Answer implements core.Agent.
func (a *MemoryAgent) Answer(ctx context.Context, q core.Question) (core.Answer, error) {
	facts, err := a.RunCtx.Memory.ReadRelevantFacts(ctx, q.Prompt, 5)
	if err != nil {
		return core.Answer{}, err
	}

	var parts []string
	for _, f := range facts {
		parts = append(parts, f.Content)
	}
	return core.Answer{
		Text:           strings.Join(parts, ". "),
		ReasoningTrace: "retrieved " + strings.Join(parts, " | "),
	}, nil
}

// FailingAgent returns an error from every call; used for fatal-level tests.
type FailingAgent struct {
	Err error
}

var _ core.Agent = (*FailingAgent)(nil)

func (a *FailingAgent) Learn(context.Context, core.Article) error {
	return a.Err
}

func (a *FailingAgent) Answer(context.Context, core.Question) (core.Answer, error) {
	return core.Answer{}, a.Err
}
