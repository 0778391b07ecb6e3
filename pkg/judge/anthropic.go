// Package judge provides clients for the external LLM grading oracle.
package judge

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/XiaoConstantine/crucible/pkg/core"
	errs "github.com/XiaoConstantine/crucible/pkg/errors"
	"github.com/XiaoConstantine/crucible/pkg/logging"
)

// AnthropicJudge scores answers using Anthropic's models.
type AnthropicJudge struct {
	client    *anthropic.Client
	model     anthropic.Model
	maxTokens int
}

var _ core.Judge = (*AnthropicJudge)(nil)

// NewAnthropicJudge creates a judge backed by the Anthropic API. An empty
// apiKey falls back to the ANTHROPIC_API_KEY environment variable.
func NewAnthropicJudge(apiKey, model string, maxTokens int) (*AnthropicJudge, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, errs.New(errs.InvalidInput, "API key is required")
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &AnthropicJudge{
		client:    &client,
		model:     anthropic.Model(model),
		maxTokens: maxTokens,
	}, nil
}

const judgePromptTemplate = `You are grading an agent's answer against reference material.

Question:
%s

Agent's answer:
%s

Expected answer reference (may be a rule for deriving the correct answer, not a literal string):
%s

Grading rubric:
%s

Score the answer on a continuous scale from 0.0 to 1.0. Partial credit is
expected; do not round to 0 or 1. Respond with only a JSON object:
{"score": <float between 0 and 1>, "rationale": "<one or two sentences>"}`

// Judge implements core.Judge.
func (a *AnthropicJudge) Judge(ctx context.Context, req core.JudgeRequest) (core.Judgment, error) {
	logger := logging.GetLogger()

	prompt := fmt.Sprintf(judgePromptTemplate, req.Question, req.Candidate, req.Expected, req.Rubric)

	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model: a.model,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(prompt),
			),
		},
		MaxTokens:   int64(a.maxTokens),
		Temperature: anthropic.Float(0.0),
	})

	if err != nil {
		var apiErr *anthropic.Error
		if stderrors.As(err, &apiErr) {
			logger.Error(ctx, "Anthropic API error: status code %d", apiErr.StatusCode)
		}
		return core.Judgment{}, errs.WithFields(
			errs.Wrap(err, errs.JudgeCallFailed, "judge call failed"),
			errs.Fields{"model": string(a.model)})
	}

	if message == nil || len(message.Content) == 0 {
		return core.Judgment{}, errs.New(errs.JudgeMalformedResponse, "received empty content from judge")
	}

	var responseText string
	if block := message.Content[0]; block.Type == "text" {
		responseText = block.Text
	}

	logger.Debug(ctx, "judge response: %d prompt tokens, %d completion tokens",
		message.Usage.InputTokens, message.Usage.OutputTokens)

	return ParseJudgment(responseText)
}
