// Package tmutil applies Time Machine backup exclusions through the
// tmutil binary.
package tmutil

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os/exec"
	"path/filepath"
	"strings"
)

// Outcome reports what applying an exclusion did.
type Outcome int

const (
	// OutcomeExcluded means the path was newly excluded.
	OutcomeExcluded Outcome = iota
	// OutcomeAlreadyExcluded means the path was covered before the run.
	OutcomeAlreadyExcluded
)

// Applier queries and mutates backup exclusion state for single paths.
// Implementations must treat AddExclusion on an already-excluded path as
// a no-op. Not safe for concurrent use unless documented otherwise.
type Applier interface {
	IsExcluded(ctx context.Context, path string) (bool, error)
	AddExclusion(ctx context.Context, path string) error
}

// runner executes one external command and returns its combined output.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// TMUtil is the Applier backed by the real tmutil binary.
type TMUtil struct {
	run runner
}

// New returns a TMUtil that shells out to tmutil.
func New() *TMUtil {
	return &TMUtil{run: runCommand}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("%s %s: %w: %s",
			name, strings.Join(args, " "), err, bytes.TrimSpace(out))
	}
	return out, nil
}

// IsExcluded reports whether path is already excluded from backups.
// tmutil prints "[Excluded]" or "[Included]" before the path.
func (t *TMUtil) IsExcluded(ctx context.Context, path string) (bool, error) {
	out, err := t.run(ctx, "tmutil", "isexcluded", path)
	if err != nil {
		return false, err
	}
	return bytes.Contains(out, []byte("[Excluded]")), nil
}

// AddExclusion marks path as excluded from future backups.
func (t *TMUtil) AddExclusion(ctx context.Context, path string) error {
	_, err := t.run(ctx, "tmutil", "addexclusion", path)
	return err
}

// Exclude applies one exclusion through a, distinguishing paths that
// were already covered from paths newly excluded.
func Exclude(ctx context.Context, a Applier, path string) (Outcome, error) {
	excluded, err := a.IsExcluded(ctx, path)
	if err != nil {
		return 0, err
	}
	if excluded {
		return OutcomeAlreadyExcluded, nil
	}
	if err := a.AddExclusion(ctx, path); err != nil {
		return 0, err
	}
	return OutcomeExcluded, nil
}

// DiskUsage returns the total size in bytes of the files under path.
// Unreadable entries are ignored; a partial figure is still useful for
// reporting.
func DiskUsage(path string) uint64 {
	var total uint64
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		total += uint64(info.Size())
		return nil
	})
	return total
}
