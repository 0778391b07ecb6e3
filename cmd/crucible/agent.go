package main

import (
	"context"
	"strings"

	"github.com/XiaoConstantine/crucible/pkg/core"
)

// baselineAgent is the built-in retrieval baseline used when no external
// agent is wired in: it memorizes sentence-level facts and answers by
// concatenating whatever retrieval returns. Replace the factory in
// buildFactory to evaluate a real agent.
type baselineAgent struct {
	runCtx *core.AgentRunContext
}

var _ core.Agent = (*baselineAgent)(nil)

func buildFactory() core.AgentFactory {
	return func(_ context.Context, runCtx *core.AgentRunContext) (core.Agent, error) {
		return &baselineAgent{runCtx: runCtx}, nil
	}
}

func (a *baselineAgent) Learn(ctx context.Context, article core.Article) error {
	for _, sentence := range strings.Split(article.Content, ".") {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if err := a.runCtx.Memory.WriteFact(ctx, core.Fact{
			Content: sentence,
			Source:  article.Title,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (a *baselineAgent) Answer(ctx context.Context, q core.Question) (core.Answer, error) {
	facts, err := a.runCtx.Memory.ReadRelevantFacts(ctx, q.Prompt, 5)
	if err != nil {
		return core.Answer{}, err
	}

	var parts []string
	for _, f := range facts {
		parts = append(parts, f.Content)
	}
	return core.Answer{
		Text:           strings.Join(parts, ". "),
		ReasoningTrace: "retrieved facts: " + strings.Join(parts, " | "),
	}, nil
}
