package repo

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IgnoreChecker applies .pygitignore patterns to repository-relative
// paths. Supported syntax is intentionally small: blank lines and
// '#'-prefixed comments are skipped; a bare name matches any path
// component with that name; a trailing '/' restricts the pattern to
// directories; '*' is a glob within a single path component. There is
// no "**", no negation, and no leading-'/' anchoring — unsupported
// syntax is reported as a warning, not an error.
type IgnoreChecker struct {
	patterns []ignorePattern
	Warnings []error
}

type ignorePattern struct {
	component string // the glob to match against one path component
	dirOnly   bool
}

// loadIgnoreChecker builds an IgnoreChecker for the repository, reading
// .pygitignore at RootDir if present.
func (r *Repo) loadIgnoreChecker() (*IgnoreChecker, error) {
	ic := &IgnoreChecker{}

	f, err := os.Open(filepath.Join(r.RootDir, ".pygitignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return ic, nil
		}
		return nil, fmt.Errorf("load ignore patterns: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		p, err := parseIgnoreLine(scanner.Text())
		if err != nil {
			ic.Warnings = append(ic.Warnings, fmt.Errorf("%w: line %d: %v", ErrIgnoreSyntax, lineNum, err))
			continue
		}
		if p != nil {
			ic.patterns = append(ic.patterns, *p)
		}
	}
	return ic, nil
}

func parseIgnoreLine(line string) (*ignorePattern, error) {
	if idx := strings.IndexByte(line, '#'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}

	if strings.HasPrefix(line, "!") {
		return nil, fmt.Errorf("negation is not supported: %q", line)
	}
	if strings.Contains(line, "**") {
		return nil, fmt.Errorf("'**' is not supported: %q", line)
	}
	if strings.HasPrefix(line, "/") {
		return nil, fmt.Errorf("leading '/' anchoring is not supported: %q", line)
	}

	dirOnly := strings.HasSuffix(line, "/")
	if dirOnly {
		line = strings.TrimSuffix(line, "/")
	}
	if strings.Contains(line, "/") {
		return nil, fmt.Errorf("multi-component patterns are not supported: %q", line)
	}

	return &ignorePattern{component: line, dirOnly: dirOnly}, nil
}

// IsIgnored reports whether relPath (slash-separated, relative to the
// repository root) is ignored. The last component is treated as a file;
// every component before it is necessarily a directory.
func (ic *IgnoreChecker) IsIgnored(relPath string) bool {
	return ic.isIgnoredPath(relPath, isLikelyDir(relPath))
}

// isIgnoredEntry is used by callers (like Add's WalkDir) that know
// definitively whether the path is a directory.
func (ic *IgnoreChecker) isIgnoredEntry(relPath string, isDir bool) bool {
	return ic.isIgnoredPath(relPath, isDir)
}

func (ic *IgnoreChecker) isIgnoredPath(relPath string, leafIsDir bool) bool {
	relPath = filepath.ToSlash(relPath)
	if relPath == MetaDirName || strings.HasPrefix(relPath, MetaDirName+"/") {
		return true
	}

	components := strings.Split(relPath, "/")
	for i, c := range components {
		isLeaf := i == len(components)-1
		componentIsDir := !isLeaf || leafIsDir
		for _, p := range ic.patterns {
			if p.dirOnly && !componentIsDir {
				continue
			}
			if matched, _ := filepath.Match(p.component, c); matched {
				return true
			}
		}
	}
	return false
}

// isLikelyDir is a conservative fallback for callers that only have a
// path string, not filesystem stat info: it never assumes directory-only
// patterns match, so a dirOnly pattern can only affect non-leaf
// components in that case.
func isLikelyDir(string) bool { return false }
