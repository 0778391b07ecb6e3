package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/XiaoConstantine/crucible/pkg/core"
	"github.com/XiaoConstantine/crucible/pkg/errors"
	"github.com/XiaoConstantine/crucible/pkg/logging"
)

// WorkerFlag is the argument that switches the binary into level-worker
// mode. The runner re-executes its own binary with this flag so each level
// runs behind a real process boundary.
const WorkerFlag = "--eval-worker"

// WorkerInput is the JSON document the parent writes to the worker's stdin.
type WorkerInput struct {
	Level            core.CapabilityLevel `json:"level"`
	RunID            string               `json:"run_id"`
	WorkDir          string               `json:"work_dir"`
	MaxDialogueTurns int                  `json:"max_dialogue_turns"`
}

// WorkerOutput is the JSON document the worker writes to stdout.
type WorkerOutput struct {
	Records []core.QuestionRecord `json:"records,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// ExecuteLevelIsolated runs one level in a sandboxed subprocess. A crash or
// timeout in the child fails only that level: the result carries a fatal
// marker and elapsed-time metadata, and sibling levels are untouched.
func (r *Runner) ExecuteLevelIsolated(ctx context.Context, level core.CapabilityLevel, runID string) core.LevelResult {
	ctx = logging.WithLevelID(logging.WithRunID(ctx, runID), level.ID)
	start := time.Now()

	fatal := func(msg string) core.LevelResult {
		r.logger.Error(ctx, "level %s failed fatally: %s", level.ID, msg)
		return core.LevelResult{
			LevelID:  level.ID,
			Records:  questionStubs(level),
			Fatal:    true,
			ErrorMsg: msg,
			Elapsed:  time.Since(start),
		}
	}

	self, err := os.Executable()
	if err != nil {
		return fatal("cannot locate own binary: " + err.Error())
	}

	input, err := json.Marshal(WorkerInput{
		Level:            level,
		RunID:            runID,
		WorkDir:          r.workDir,
		MaxDialogueTurns: r.maxDialogueTurns,
	})
	if err != nil {
		return fatal("cannot encode worker input: " + err.Error())
	}

	// The timeout applies to this level only; cancellation kills just this
	// child process.
	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, self, WorkerFlag)
	cmd.Stdin = bytes.NewReader(input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if cctx.Err() == context.DeadlineExceeded {
			return fatal("level timed out after " + r.timeout.String())
		}
		return fatal("worker crashed: " + err.Error() + " stderr: " + truncate(stderr.String(), 500))
	}

	var out WorkerOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return fatal("unreadable worker output: " + err.Error())
	}
	if out.Error != "" {
		return fatal(out.Error)
	}

	return core.LevelResult{
		LevelID: level.ID,
		Records: out.Records,
		Elapsed: time.Since(start),
	}
}

// RunWorker is the worker-mode entry point: it reads WorkerInput from in,
// executes the level in-process with the given factory, and writes
// WorkerOutput to out. The process exit code stays zero even for execution
// errors - the parent distinguishes crash from failure via the Error field.
func RunWorker(ctx context.Context, factory Factory, in io.Reader, out io.Writer) error {
	var input WorkerInput
	if err := json.NewDecoder(in).Decode(&input); err != nil {
		return errors.Wrap(err, errors.InvalidInput, "failed to decode worker input")
	}

	r := New(factory,
		WithWorkDir(input.WorkDir),
		WithMaxDialogueTurns(input.MaxDialogueTurns),
	)

	var output WorkerOutput
	records, err := r.ExecuteLevel(ctx, input.Level, input.RunID)
	if err != nil {
		output.Error = err.Error()
	} else {
		output.Records = records
	}

	return json.NewEncoder(out).Encode(output)
}

// questionStubs yields empty records for every question so a fatal level
// still resolves each question to a classifiable failure.
func questionStubs(level core.CapabilityLevel) []core.QuestionRecord {
	records := make([]core.QuestionRecord, 0, len(level.Questions))
	for _, q := range level.Questions {
		records = append(records, core.QuestionRecord{Question: q})
	}
	return records
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
