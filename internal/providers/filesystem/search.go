package filesystem

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/GriffinCanCode/sandboxfs/internal/shared/types"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"golang.org/x/sync/errgroup"
)

const defaultMaxResults = 100

// SearchOps handles search operations
type SearchOps struct {
	*FilesystemOps
}

// GetTools returns search operation tool definitions
func (s *SearchOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.search",
			Name:        "Search Files",
			Description: "Find files whose name or text content contains a keyword",
			Parameters: []types.Parameter{
				{Name: "keyword", Type: "string", Description: "Text to look for", Required: true},
				{Name: "base_dir", Type: "string", Description: "Directory to search (default root)", Required: false},
				{Name: "case_sensitive", Type: "boolean", Description: "Match case (default true)", Required: false},
				{Name: "include_content", Type: "boolean", Description: "Search text content (default true)", Required: false},
				{Name: "max_results", Type: "number", Description: "Result limit (default 100)", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.search_names",
			Name:        "Search File Names",
			Description: "Find files by name or extension only",
			Parameters: []types.Parameter{
				{Name: "pattern", Type: "string", Description: "Substring of the name or extension", Required: true},
				{Name: "base_dir", Type: "string", Description: "Directory to search (default root)", Required: false},
				{Name: "case_sensitive", Type: "boolean", Description: "Match case (default true)", Required: false},
				{Name: "include_extensions", Type: "boolean", Description: "Also match extensions (default true)", Required: false},
				{Name: "max_results", Type: "number", Description: "Result limit (default 100)", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.glob",
			Name:        "Glob",
			Description: "Match paths with a doublestar pattern such as **/*.go",
			Parameters: []types.Parameter{
				{Name: "pattern", Type: "string", Description: "Glob pattern, relative to base_dir", Required: true},
				{Name: "base_dir", Type: "string", Description: "Directory to search (default root)", Required: false},
				{Name: "max_results", Type: "number", Description: "Result limit (default 100)", Required: false},
			},
			Returns: "object",
		},
	}
}

// candidate is a regular file found by a walk.
type candidate struct {
	path string
	name string
	size int64
}

// walkFiles collects regular files under root. Symlinks are reported as
// skipped and never followed.
func (s *SearchOps) walkFiles(ctx context.Context, root string, keepDirs bool) ([]candidate, []types.Failure, error) {
	var (
		mu      sync.Mutex
		found   []candidate
		skipped []types.Failure
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if p == root {
			return err
		}
		if err != nil {
			mu.Lock()
			skipped = append(skipped, types.Failure{Path: s.display(p), Kind: Classify(err), Reason: s.Mapper.Scrub(err.Error())})
			mu.Unlock()
			return nil
		}

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			mu.Lock()
			skipped = append(skipped, types.Failure{Path: s.display(p), Kind: types.ErrorSymlink, Reason: "symlink skipped"})
			mu.Unlock()
			return nil
		case d.IsDir() && !keepDirs:
			return nil
		case !d.IsDir() && !d.Type().IsRegular():
			return nil
		}

		var size int64
		if !d.IsDir() {
			info, err := d.Info()
			if err != nil {
				return nil
			}
			size = info.Size()
		}
		mu.Lock()
		found = append(found, candidate{path: p, name: d.Name(), size: size})
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	sort.Slice(found, func(i, j int) bool { return found[i].path < found[j].path })
	sortFailures(skipped)
	return found, skipped, nil
}

func (s *SearchOps) searchRoot(params Params) (target, error) {
	t, err := s.optParam(params, "base_dir", "")
	if err != nil {
		return t, err
	}
	info, err := os.Stat(t.Path)
	if err != nil {
		return t, fmt.Errorf("path must be an existing directory: %w", err)
	}
	if !info.IsDir() {
		return t, invalidf("path is not a directory")
	}
	return t, nil
}

func limit(params Params) int {
	n := params.OptInt("max_results", defaultMaxResults)
	if n <= 0 {
		return defaultMaxResults
	}
	return n
}

// truncate caps matches at max, reporting whether anything was dropped.
func truncate(matches []types.Match, max int) ([]types.Match, bool) {
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Path < matches[j].Path })
	if len(matches) > max {
		return matches[:max], true
	}
	return matches, false
}

// Search matches a keyword against file names and, for text files within
// the size limit, file content.
func (s *SearchOps) Search(ctx context.Context, params Params) (*types.Result, error) {
	keyword, err := params.String("keyword")
	if err != nil {
		return s.Failure("search", types.SubjectSearch, err, "")
	}
	root, err := s.searchRoot(params)
	if err != nil {
		return s.Failure("search", types.SubjectSearch, err, root.Path)
	}

	caseSensitive := params.OptBool("case_sensitive", true)
	includeContent := params.OptBool("include_content", true)
	max := limit(params)

	fold := func(v string) string {
		if caseSensitive {
			return v
		}
		return strings.ToLower(v)
	}
	needle := fold(keyword)

	files, skipped, err := s.walkFiles(ctx, root.Path, false)
	if err != nil {
		return s.Failure("search", types.SubjectSearch, fmt.Errorf("failed to search: %w", err), root.Path)
	}

	var (
		mu      sync.Mutex
		matches []types.Match
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for _, f := range files {
		f := f
		if strings.Contains(fold(f.name), needle) {
			mu.Lock()
			matches = append(matches, types.Match{Path: s.display(f.path), Kind: "name", Size: f.size})
			mu.Unlock()
			continue
		}
		if !includeContent || f.size > s.Options.MaxSearchFileSize {
			continue
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			line, text, ok := scanContent(f.path, needle, !caseSensitive)
			if !ok {
				return nil
			}
			mu.Lock()
			matches = append(matches, types.Match{Path: s.display(f.path), Kind: "content", Size: f.size, Line: line, Text: text})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return s.Failure("search", types.SubjectSearch, fmt.Errorf("failed to search: %w", err), root.Path)
	}

	matches, truncated := truncate(matches, max)
	return s.Success("search", &types.SearchOp{
		Root:      s.display(root.Path),
		Pattern:   keyword,
		Mode:      "content",
		Matches:   matches,
		Count:     len(matches),
		Truncated: truncated,
		Skipped:   skipped,
	}, root.Path)
}

// scanContent returns the first line containing needle. Binary and
// unreadable files never match.
func scanContent(path, needle string, fold bool) (int, string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, "", false
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	head, _ := reader.Peek(sniffLen)
	if isBinary(head) {
		return 0, "", false
	}

	want := []byte(needle)
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for line := 1; scanner.Scan(); line++ {
		text := scanner.Bytes()
		hay := text
		if fold {
			hay = bytes.ToLower(text)
		}
		if bytes.Contains(hay, want) {
			return line, strings.TrimSpace(string(text)), true
		}
	}
	return 0, "", false
}

// SearchNames matches a pattern against file names and, optionally, extensions
func (s *SearchOps) SearchNames(ctx context.Context, params Params) (*types.Result, error) {
	pattern, err := params.String("pattern")
	if err != nil {
		return s.Failure("search_file_names", types.SubjectSearch, err, "")
	}
	root, err := s.searchRoot(params)
	if err != nil {
		return s.Failure("search_file_names", types.SubjectSearch, err, root.Path)
	}

	caseSensitive := params.OptBool("case_sensitive", true)
	includeExt := params.OptBool("include_extensions", true)
	needle := pattern
	if !caseSensitive {
		needle = strings.ToLower(pattern)
	}

	files, skipped, err := s.walkFiles(ctx, root.Path, false)
	if err != nil {
		return s.Failure("search_file_names", types.SubjectSearch, fmt.Errorf("failed to search: %w", err), root.Path)
	}

	var matches []types.Match
	for _, f := range files {
		name, ext := f.name, filepath.Ext(f.name)
		if !caseSensitive {
			name, ext = strings.ToLower(name), strings.ToLower(ext)
		}
		switch {
		case strings.Contains(name, needle):
			matches = append(matches, types.Match{Path: s.display(f.path), Kind: "name", Size: f.size})
		case includeExt && ext != "" && strings.Contains(ext, needle):
			matches = append(matches, types.Match{Path: s.display(f.path), Kind: "extension", Size: f.size})
		}
	}

	matches, truncated := truncate(matches, limit(params))
	return s.Success("search_file_names", &types.SearchOp{
		Root:      s.display(root.Path),
		Pattern:   pattern,
		Mode:      "name",
		Matches:   matches,
		Count:     len(matches),
		Truncated: truncated,
		Skipped:   skipped,
	}, root.Path)
}

// Glob matches slash-separated paths relative to base_dir against a
// doublestar pattern. The walk never follows symlinks.
func (s *SearchOps) Glob(ctx context.Context, params Params) (*types.Result, error) {
	pattern, err := params.String("pattern")
	if err != nil {
		return s.Failure("glob", types.SubjectSearch, err, "")
	}
	pattern = strings.TrimPrefix(filepath.ToSlash(pattern), "./")
	if !doublestar.ValidatePattern(pattern) {
		return s.Failure("glob", types.SubjectSearch, invalidf("invalid glob pattern %q", pattern), "")
	}
	root, err := s.searchRoot(params)
	if err != nil {
		return s.Failure("glob", types.SubjectSearch, err, root.Path)
	}

	entries, skipped, err := s.walkFiles(ctx, root.Path, true)
	if err != nil {
		return s.Failure("glob", types.SubjectSearch, fmt.Errorf("glob failed: %w", err), root.Path)
	}

	var matches []types.Match
	for _, e := range entries {
		rel, err := filepath.Rel(root.Path, e.path)
		if err != nil {
			continue
		}
		if ok, _ := doublestar.Match(pattern, filepath.ToSlash(rel)); ok {
			matches = append(matches, types.Match{Path: s.display(e.path), Kind: "glob", Size: e.size})
		}
	}

	matches, truncated := truncate(matches, limit(params))
	return s.Success("glob", &types.SearchOp{
		Root:      s.display(root.Path),
		Pattern:   pattern,
		Mode:      "glob",
		Matches:   matches,
		Count:     len(matches),
		Truncated: truncated,
		Skipped:   skipped,
	}, root.Path)
}
