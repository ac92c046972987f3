// Package walker performs the pruning scan over a directory tree.
//
// Each directory is checked against the rule sets before any of its
// children are read: skip paths stop descent without output, sentinel and
// fixed-path matches emit the directory and stop descent. No emitted path
// is ever a descendant of another emitted path or of a skip path.
package walker

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/kaorukobo/asimov/internal/config"
)

// Match is one directory selected for exclusion.
type Match struct {
	// Path is absolute.
	Path string
	// Rule describes the rule that selected the path, for reporting.
	Rule string
}

// VisitFunc consumes matches in discovery order. A non-nil error aborts
// the walk.
type VisitFunc func(m Match) error

// Stats summarizes one walk.
type Stats struct {
	// Scanned counts directories whose entries were read.
	Scanned int
	// Matched counts emitted directories.
	Matched int
	// Pruned counts directories cut off by a skip path.
	Pruned int
	// AccessErrors counts unreadable directories dropped from the walk.
	AccessErrors int
}

// Walker evaluates a fixed rule set against one tree. Safe for reuse;
// each Walk is a fresh traversal.
type Walker struct {
	rules  []rule
	logger *log.Logger
}

// New builds a Walker from loaded configuration. Skip rules are ordered
// before match rules so pruning wins over matching.
func New(cfg *config.Config, logger *log.Logger) *Walker {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	rules := make([]rule, 0, len(cfg.SkipPaths)+len(cfg.Sentinels)+len(cfg.FixedPaths))
	for _, p := range cfg.SkipPaths {
		rules = append(rules, skipRule{path: p})
	}
	for _, s := range cfg.Sentinels {
		rules = append(rules, sentinelRule{dir: s.Dir, marker: s.Marker})
	}
	for _, p := range cfg.FixedPaths {
		rules = append(rules, fixedPathRule{rel: p})
	}
	return &Walker{rules: rules, logger: logger}
}

// Walk scans the tree rooted at root depth-first, calling visit once per
// matched directory. An unreadable root is fatal; unreadable
// subdirectories are reported in Stats and skipped. Cancelling ctx stops
// the walk before the next directory and returns ctx.Err() alongside the
// stats accumulated so far.
func (w *Walker) Walk(ctx context.Context, root string, visit VisitFunc) (Stats, error) {
	var st Stats

	root, err := filepath.Abs(root)
	if err != nil {
		return st, fmt.Errorf("resolve root: %w", err)
	}

	// The root itself goes through the same checks as any directory,
	// minus the sentinel check (it has no parent listing).
	r, v := w.classify(candidate{path: root, rel: ".", name: filepath.Base(root)})
	switch v {
	case verdictSkip:
		w.logger.Warn("scan root is inside a skip path, nothing to do", "root", root)
		return st, nil
	case verdictMatch:
		st.Matched++
		return st, visit(Match{Path: root, Rule: r.String()})
	}

	if err := w.scan(ctx, root, root, &st, visit); err != nil {
		return st, err
	}
	return st, nil
}

func (w *Walker) classify(c candidate) (rule, verdict) {
	for _, r := range w.rules {
		if v := r.evaluate(c); v != verdictNone {
			return r, v
		}
	}
	return nil, verdictNone
}

func (w *Walker) scan(ctx context.Context, root, dir string, st *Stats, visit VisitFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if dir == root {
			return fmt.Errorf("read scan root: %w", err)
		}
		st.AccessErrors++
		w.logger.Warn("skipping unreadable directory", "path", dir, "err", err)
		return nil
	}
	st.Scanned++

	siblings := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		siblings[entry.Name()] = struct{}{}
	}

	for _, entry := range entries {
		isSymlink := entry.Type()&fs.ModeSymlink != 0
		if !entry.IsDir() && !isSymlink {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = entry.Name()
		}

		r, v := w.classify(candidate{
			path:     path,
			rel:      filepath.ToSlash(rel),
			name:     entry.Name(),
			siblings: siblings,
		})

		switch v {
		case verdictSkip:
			st.Pruned++
			w.logger.Debug("pruned", "path", path, "rule", r)

		case verdictMatch:
			// A symlink matching by name is emitted without being
			// entered, but only if it resolves to a directory.
			if isSymlink && !resolvesToDir(path) {
				continue
			}
			st.Matched++
			w.logger.Debug("matched", "path", path, "rule", r)
			if err := visit(Match{Path: path, Rule: r.String()}); err != nil {
				return err
			}

		default:
			if isSymlink {
				continue
			}
			if err := w.scan(ctx, root, path, st, visit); err != nil {
				return err
			}
		}
	}

	return nil
}

func resolvesToDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
