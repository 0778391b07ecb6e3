package improve

import (
	"context"
	"os"

	"github.com/XiaoConstantine/crucible/pkg/errors"
)

// Snapshot is an opaque capture of the agent-under-test's mutable state,
// sufficient to restore it bit-for-bit.
type Snapshot []byte

// ChangeApplier mutates the agent under test. The orchestrator snapshots
// before every Apply and restores on any failure, so an implementation only
// has to make Apply and Restore individually correct, never atomic together.
type ChangeApplier interface {
	Snapshot(ctx context.Context) (Snapshot, error)
	Apply(ctx context.Context, h *Hypothesis) error
	Restore(ctx context.Context, snap Snapshot) error
}

// FileApplier manages an agent whose tunable state lives in a single file
// (a prompt, a policy document, a config). Snapshot and Restore are plain
// byte copies, which makes the revert guarantee trivially bit-for-bit.
type FileApplier struct {
	// Path of the state file.
	Path string

	// Mutate performs the actual edit for a hypothesis. Left nil, Apply
	// writes the hypothesis's ChangeDescription as a patch header comment -
	// useful only for dry experiments.
	Mutate func(current []byte, h *Hypothesis) ([]byte, error)
}

var _ ChangeApplier = (*FileApplier)(nil)

func (f *FileApplier) Snapshot(_ context.Context) (Snapshot, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.ImprovementApplyFailed, "failed to snapshot agent state"),
			errors.Fields{"path": f.Path})
	}
	return Snapshot(data), nil
}

func (f *FileApplier) Apply(ctx context.Context, h *Hypothesis) error {
	current, err := os.ReadFile(f.Path)
	if err != nil {
		return errors.Wrap(err, errors.ImprovementApplyFailed, "failed to read agent state")
	}

	next := current
	if f.Mutate != nil {
		next, err = f.Mutate(current, h)
		if err != nil {
			return errors.Wrap(err, errors.ImprovementApplyFailed, "mutation failed")
		}
	} else {
		next = append([]byte("# "+h.ChangeDescription+"\n"), current...)
	}

	if err := os.WriteFile(f.Path, next, 0644); err != nil {
		return errors.Wrap(err, errors.ImprovementApplyFailed, "failed to write agent state")
	}
	return nil
}

func (f *FileApplier) Restore(_ context.Context, snap Snapshot) error {
	if err := os.WriteFile(f.Path, []byte(snap), 0644); err != nil {
		return errors.WithFields(
			errors.Wrap(err, errors.ImprovementApplyFailed, "failed to restore agent state"),
			errors.Fields{"path": f.Path})
	}
	return nil
}
