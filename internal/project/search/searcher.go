package search

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/shellpane/internal/logging"
	"github.com/dshills/shellpane/internal/project/vfs"
)

const maxLineLen = 1024 * 1024

// Searcher runs queries against a file system.
type Searcher struct {
	fs     vfs.FS
	logger *logging.Logger
}

// New creates a searcher. A nil logger discards.
func New(fsys vfs.FS, logger *logging.Logger) *Searcher {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Searcher{fs: fsys, logger: logger.WithComponent("search")}
}

// Run starts q in the background. The returned channel is closed when the
// search is over. Invalid queries fail before anything starts.
func (s *Searcher) Run(ctx context.Context, q Query) (<-chan Result, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, ErrInvalidQuery
	}
	q = q.withDefaults()
	include, err := compilePatterns(q.Include)
	if err != nil {
		return nil, err
	}
	exclude, err := compilePatterns(q.Exclude)
	if err != nil {
		return nil, err
	}
	root, err := s.fs.Abs(q.Root)
	if err != nil {
		return nil, err
	}
	if info, err := s.fs.Stat(root); err != nil {
		return nil, err
	} else if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidQuery, root)
	}

	parent := ctx
	ctx, cancel := context.WithCancel(parent)
	g, gctx := errgroup.WithContext(ctx)
	paths := make(chan string, 64)
	out := make(chan Result, 64)

	r := &run{
		s:       s,
		q:       q,
		m:       newMatcher(q),
		root:    root,
		include: include,
		exclude: exclude,
		out:     out,
		parent:  parent,
		stop:    cancel,
	}

	g.Go(func() error {
		defer close(paths)
		return r.walk(gctx, paths)
	})
	for i := 0; i < q.Workers; i++ {
		g.Go(func() error {
			for p := range paths {
				if gctx.Err() != nil {
					continue
				}
				r.scan(gctx, p)
			}
			return nil
		})
	}

	go func() {
		err := g.Wait()
		cancel()
		close(out)
		if err != nil && parent.Err() == nil {
			s.logger.Warn("search failed", "root", root, "error", err)
		}
		s.logger.Debug("search finished", "root", root, "text", q.Text, "results", min(r.count.Load(), int64(q.MaxResults)))
	}()
	return out, nil
}

// Collect runs q to completion and returns every result.
func (s *Searcher) Collect(ctx context.Context, q Query) ([]Result, error) {
	ch, err := s.Run(ctx, q)
	if err != nil {
		return nil, err
	}
	var results []Result
	for r := range ch {
		results = append(results, r)
	}
	return results, ctx.Err()
}

type run struct {
	s       *Searcher
	q       Query
	m       matcher
	root    string
	include patternList
	exclude patternList
	out     chan<- Result
	parent  context.Context
	stop    context.CancelFunc
	count   atomic.Int64
}

func (r *run) walk(ctx context.Context, paths chan<- string) error {
	return r.s.fs.WalkDir(r.root, func(p string, info vfs.FileInfo, err error) error {
		if err != nil {
			if p == r.root {
				return err
			}
			// unreadable entries are skipped
			return nil
		}
		if ctx.Err() != nil {
			return vfs.SkipAll
		}

		depth := r.depth(p)
		if info.IsDir() {
			if p != r.root && (r.exclude.match(info.Name()) || depth >= r.q.MaxDepth) {
				return vfs.SkipDir
			}
			return nil
		}
		if !info.IsRegular() || depth > r.q.MaxDepth {
			return nil
		}
		if r.exclude.match(info.Name()) || (len(r.include) > 0 && !r.include.match(info.Name())) {
			return nil
		}
		if info.Size() > r.q.MaxFileSize {
			return nil
		}

		select {
		case paths <- p:
			return nil
		case <-ctx.Done():
			return vfs.SkipAll
		}
	})
}

// depth is the number of path elements between the root and p.
func (r *run) depth(p string) int {
	rel, err := filepath.Rel(r.root, p)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(filepath.ToSlash(rel), "/") + 1
}

func (r *run) scan(ctx context.Context, p string) {
	data, err := vfs.ReadFile(r.s.fs, p, r.q.MaxFileSize)
	if err != nil {
		r.s.logger.Debug("skipping unreadable file", "path", p, "error", err)
		return
	}
	if vfs.IsBinary(data) {
		return
	}
	data = vfs.StripBOM(data)

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineLen)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSuffix(sc.Text(), "\r")
		col := r.m.index(text)
		if col < 0 {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		if !r.emit(Result{Path: p, Line: line, Column: col + 1, Text: text}) {
			return
		}
	}
}

// emit delivers one result. It reports false once the search should stop.
// A result within the limit is only dropped when the caller cancels.
func (r *run) emit(res Result) bool {
	n := r.count.Add(1)
	if n > int64(r.q.MaxResults) {
		r.stop()
		return false
	}
	select {
	case r.out <- res:
	case <-r.parent.Done():
		return false
	}
	if n == int64(r.q.MaxResults) {
		r.stop()
		return false
	}
	return true
}
