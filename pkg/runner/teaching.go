package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/XiaoConstantine/crucible/pkg/core"
	"github.com/XiaoConstantine/crucible/pkg/errors"
)

// executeTeaching runs the teaching-variant level: the agent under test
// first learns the source material, then must transfer it to a fresh learner
// instance through a multi-turn dialogue. The recorded answer for the level's
// coverage question is the dialogue transcript, with the learner's closing
// restatement as the reasoning trace.
func (r *Runner) executeTeaching(ctx context.Context, level core.CapabilityLevel, teacher core.Agent) ([]core.QuestionRecord, error) {
	if err := r.learningPhase(ctx, level, teacher); err != nil {
		return nil, err
	}

	// The learner is a second, fully isolated instance: its own identity,
	// its own memory store.
	learnerCtx, err := r.newRunContext(level, "learner")
	if err != nil {
		return nil, err
	}
	defer func() {
		if derr := learnerCtx.Destroy(); derr != nil {
			r.logger.Warn(ctx, "failed to destroy learner context %s: %v", learnerCtx.AgentID, derr)
		}
	}()

	learner, err := r.factory(ctx, learnerCtx)
	if err != nil {
		return nil, errors.Wrap(err, errors.LevelExecutionFailed, "learner factory failed")
	}

	transcript, err := r.runDialogue(ctx, level, teacher, learner)
	if err != nil {
		return nil, err
	}

	restatement, err := learner.Answer(ctx, core.Question{
		ID:     "restate",
		Prompt: "Restate everything you were just taught, as completely as you can.",
		Type:   core.QuestionRecall,
	})
	if err != nil {
		r.logger.Warn(ctx, "learner restatement failed: %v", err)
	}

	records := make([]core.QuestionRecord, 0, len(level.Questions))
	for _, q := range level.Questions {
		records = append(records, core.QuestionRecord{
			Question: q,
			Answer: core.Answer{
				Text:           transcript,
				ReasoningTrace: restatement.Text,
			},
		})
	}
	return records, nil
}

func (r *Runner) runDialogue(ctx context.Context, level core.CapabilityLevel, teacher, learner core.Agent) (string, error) {
	var sb strings.Builder
	learnerReply := ""

	for turn := 0; turn < r.maxDialogueTurns; turn++ {
		if err := errors.CheckContext(ctx, "teaching dialogue"); err != nil {
			return "", err
		}

		teacherMsg, err := r.teacherTurn(ctx, level, teacher, learnerReply)
		if err != nil {
			return "", errors.Wrap(err, errors.LevelExecutionFailed, "teacher turn failed")
		}
		fmt.Fprintf(&sb, "Teacher (turn %d): %s\n", turn+1, teacherMsg)

		if err := learner.Learn(ctx, core.Article{
			Title:   fmt.Sprintf("lesson turn %d", turn+1),
			Content: teacherMsg,
		}); err != nil {
			return "", errors.Wrap(err, errors.LevelExecutionFailed, "learner failed to absorb lesson")
		}

		reply, err := learner.Answer(ctx, core.Question{
			ID:     fmt.Sprintf("reply-%d", turn+1),
			Prompt: "Briefly confirm what you understood from the last lesson, and ask about anything unclear.",
			Type:   core.QuestionRecall,
		})
		if err != nil {
			return "", errors.Wrap(err, errors.LevelExecutionFailed, "learner reply failed")
		}
		learnerReply = reply.Text
		fmt.Fprintf(&sb, "Learner (turn %d): %s\n", turn+1, learnerReply)
	}

	return sb.String(), nil
}

// teacherTurn produces the next lesson message. Agents implementing the
// optional Teacher interface drive the dialogue themselves; others are
// prompted through the standard Answer call.
func (r *Runner) teacherTurn(ctx context.Context, level core.CapabilityLevel, teacher core.Agent, learnerReply string) (string, error) {
	if t, ok := teacher.(core.Teacher); ok {
		return t.Teach(ctx, learnerReply)
	}

	prompt := "You are teaching a student the material you just learned. "
	if learnerReply == "" {
		prompt += "Give your first lesson, covering the most important rule."
	} else {
		prompt += fmt.Sprintf("The student said: %q. Continue teaching, covering material not yet taught.", learnerReply)
	}

	ans, err := teacher.Answer(ctx, core.Question{
		ID:     "teach",
		Prompt: prompt,
		Type:   core.QuestionTeaching,
	})
	if err != nil {
		return "", err
	}
	return ans.Text, nil
}
