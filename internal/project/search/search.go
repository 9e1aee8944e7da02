// Package search runs recursive content searches below a directory.
//
// A search walks the tree on one goroutine and scans files on a small
// pool of workers. Results stream on a channel that is closed when the
// search finishes, hits its result limit, or is cancelled.
package search

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/gobwas/glob"
)

var (
	ErrInvalidQuery   = errors.New("invalid search query")
	ErrInvalidPattern = errors.New("invalid glob pattern")
)

// Default limits.
const (
	DefaultMaxDepth    = 10
	DefaultMaxResults  = 1000
	DefaultMaxFileSize = 10 * 1024 * 1024
	DefaultInclude     = "*"
	DefaultExclude     = ".git,node_modules,target"
)

// Query describes a content search.
type Query struct {
	// Root is the directory searched.
	Root string

	// Text is matched as a plain substring of each line.
	Text string

	CaseSensitive bool

	// Include and Exclude are comma separated globs matched against base
	// names. Include applies to files; Exclude prunes files and directories.
	Include string
	Exclude string

	MaxDepth    int
	MaxResults  int
	MaxFileSize int64

	// Workers is the number of files scanned in parallel (default NumCPU, at most 8).
	Workers int
}

// NewQuery returns a query with the default limits and filters.
func NewQuery(root, text string) Query {
	return Query{
		Root:        root,
		Text:        text,
		Include:     DefaultInclude,
		Exclude:     DefaultExclude,
		MaxDepth:    DefaultMaxDepth,
		MaxResults:  DefaultMaxResults,
		MaxFileSize: DefaultMaxFileSize,
	}
}

func (q Query) withDefaults() Query {
	if q.MaxDepth <= 0 {
		q.MaxDepth = DefaultMaxDepth
	}
	if q.MaxResults <= 0 {
		q.MaxResults = DefaultMaxResults
	}
	if q.MaxFileSize <= 0 {
		q.MaxFileSize = DefaultMaxFileSize
	}
	if q.Workers <= 0 {
		q.Workers = min(runtime.NumCPU(), 8)
	}
	return q
}

// Result is one matching line.
type Result struct {
	Path string
	// Line and Column are 1-based; Column counts bytes.
	Line   int
	Column int
	Text   string
}

func (r Result) String() string {
	return fmt.Sprintf("%s:%d: %s", r.Path, r.Line, r.Text)
}

// patternList is a compiled comma separated glob list.
type patternList []glob.Glob

func compilePatterns(list string) (patternList, error) {
	var out patternList
	for _, p := range strings.Split(list, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

func (l patternList) match(name string) bool {
	for _, g := range l {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// matcher finds the query text in a line.
type matcher struct {
	text          string
	caseSensitive bool
}

func newMatcher(q Query) matcher {
	if q.CaseSensitive {
		return matcher{text: q.Text, caseSensitive: true}
	}
	return matcher{text: strings.ToLower(q.Text)}
}

// index returns the byte offset of the match in line, or -1.
func (m matcher) index(line string) int {
	if m.caseSensitive {
		return strings.Index(line, m.text)
	}
	return strings.Index(strings.ToLower(line), m.text)
}
