package walker

import (
	"path/filepath"
	"strings"
)

// verdict is the outcome of evaluating one rule against a candidate.
type verdict int

const (
	verdictNone verdict = iota
	// verdictSkip prunes the candidate silently.
	verdictSkip
	// verdictMatch emits the candidate and prunes it.
	verdictMatch
)

// candidate is one directory under consideration: its absolute path, its
// root-relative slash-separated path, its base name, and the entry names
// of its parent directory.
type candidate struct {
	path     string
	rel      string
	name     string
	siblings map[string]struct{}
}

// rule classifies a candidate directory. The walker evaluates rules in
// order and stops at the first non-none verdict; skip rules are ordered
// first so they take precedence over match rules.
type rule interface {
	evaluate(c candidate) verdict
	String() string
}

// skipRule prunes one path and everything beneath it.
type skipRule struct {
	path string
}

func (r skipRule) evaluate(c candidate) verdict {
	if c.path == r.path || strings.HasPrefix(c.path, r.path+string(filepath.Separator)) {
		return verdictSkip
	}
	return verdictNone
}

func (r skipRule) String() string { return "skip " + r.path }

// sentinelRule matches a directory by name when the marker is present in
// the parent directory, i.e. beside the candidate rather than inside it.
type sentinelRule struct {
	dir    string
	marker string
}

func (r sentinelRule) evaluate(c candidate) verdict {
	if c.name != r.dir {
		return verdictNone
	}
	if _, ok := c.siblings[r.marker]; !ok {
		return verdictNone
	}
	return verdictMatch
}

func (r sentinelRule) String() string { return r.dir + " beside " + r.marker }

// fixedPathRule matches one root-relative path unconditionally.
type fixedPathRule struct {
	rel string
}

func (r fixedPathRule) evaluate(c candidate) verdict {
	if c.rel == r.rel {
		return verdictMatch
	}
	return verdictNone
}

func (r fixedPathRule) String() string { return "fixed path " + r.rel }
