// Package config loads the rule files that drive a scan.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// File names under the configuration directory.
const (
	SkipFile     = "skip.list"
	RulesFile    = "rules.list"
	PathsFile    = "paths.list"
	SettingsFile = "config.yaml"
)

// Sentinel pairs a vendor directory name with the marker file that must
// sit beside it to confirm a match.
type Sentinel struct {
	Dir    string
	Marker string
}

// Config aggregates the three rule sets for one run.
type Config struct {
	// SkipPaths are absolute paths the scan never enters.
	SkipPaths []string
	// Sentinels match directories by name when their marker is a sibling.
	Sentinels []Sentinel
	// FixedPaths are scan-root-relative paths that always match,
	// slash-separated.
	FixedPaths []string
}

// Dir returns the default configuration directory.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config directory: %w", err)
	}
	return filepath.Join(base, "asimov"), nil
}

// Load reads the rule files under dir, creating the directory and the
// default skip and sentinel files on first run. Relative skip entries
// and all fixed paths are resolved against root. The paths file is
// optional and never auto-created.
func Load(dir, root string) (*Config, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	skipLines, err := loadOrInit(filepath.Join(dir, SkipFile), defaultSkipList)
	if err != nil {
		return nil, err
	}

	ruleLines, err := loadOrInit(filepath.Join(dir, RulesFile), defaultRulesList)
	if err != nil {
		return nil, err
	}
	sentinels, err := parseSentinels(ruleLines)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", RulesFile, err)
	}

	pathLines, err := loadOptional(filepath.Join(dir, PathsFile))
	if err != nil {
		return nil, err
	}

	cfg := &Config{Sentinels: sentinels}
	for _, line := range skipLines {
		p := line
		if !filepath.IsAbs(p) {
			p = filepath.Join(root, p)
		}
		cfg.SkipPaths = append(cfg.SkipPaths, filepath.Clean(p))
	}
	for _, line := range pathLines {
		cfg.FixedPaths = append(cfg.FixedPaths, filepath.ToSlash(filepath.Clean(line)))
	}

	return cfg, nil
}

// loadOrInit reads a rule file, writing defaults first if it does not
// exist yet.
func loadOrInit(path, defaults string) ([]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if werr := os.WriteFile(path, []byte(defaults), 0o644); werr != nil {
			return nil, fmt.Errorf("write default %s: %w", filepath.Base(path), werr)
		}
		data = []byte(defaults)
	} else if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return parseLines(string(data)), nil
}

// loadOptional reads a rule file whose absence is normal.
func loadOptional(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return parseLines(string(data)), nil
}

// parseLines splits text into entries, dropping comments, blank lines,
// and duplicates while preserving order.
func parseLines(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for line := range strings.Lines(text) {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}

// parseSentinels tokenizes rule entries as "<dirName> <markerName>".
// Tokens past the second are ignored.
func parseSentinels(lines []string) ([]Sentinel, error) {
	var out []Sentinel
	seen := make(map[Sentinel]struct{})
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("malformed rule %q: want <dirName> <markerName>", line)
		}
		s := Sentinel{Dir: fields[0], Marker: fields[1]}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out, nil
}
