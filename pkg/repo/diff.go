package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Diff returns a unified diff (3 lines of context) between the
// ledger-side blob for path and its current working-tree content, or
// its staged (index) content when staged is true. If either side
// contains a NUL byte in its first 8 KiB, "Binary files differ" is
// returned instead of a line-level diff.
func (r *Repo) Diff(path string, staged bool) (string, error) {
	ledger, err := r.readTrackingLedger()
	if err != nil {
		return "", fmt.Errorf("diff %q: %w", path, err)
	}

	var fromContent []byte
	if id, ok := ledger[path]; ok {
		blob, err := r.Store.GetBlob(id)
		if err != nil {
			return "", fmt.Errorf("diff %q: %w", path, err)
		}
		fromContent = blob.Data
	}

	var toContent []byte
	if staged {
		stg, err := r.ReadStaging()
		if err != nil {
			return "", fmt.Errorf("diff %q: %w", path, err)
		}
		entry, ok := stg.Entries[path]
		if !ok {
			return "", fmt.Errorf("diff %q: not staged", path)
		}
		blob, err := r.Store.GetBlob(entry.ObjectID)
		if err != nil {
			return "", fmt.Errorf("diff %q: %w", path, err)
		}
		toContent = blob.Data
	} else {
		abs := filepath.Join(r.RootDir, filepath.FromSlash(path))
		content, err := os.ReadFile(abs)
		if err != nil {
			return "", fmt.Errorf("diff %q: %w", path, err)
		}
		toContent = content
	}

	if isBinary(fromContent) || isBinary(toContent) {
		return "Binary files differ\n", nil
	}

	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(fromContent)),
		B:        difflib.SplitLines(string(toContent)),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return "", fmt.Errorf("diff %q: %w", path, err)
	}
	return text, nil
}

// DiffAll renders diffs for every path Status reports as staged- or
// unstaged-modified or staged-new, concatenated in path order.
func (r *Repo) DiffAll() (string, error) {
	entries, err := r.Status()
	if err != nil {
		return "", fmt.Errorf("diff: %w", err)
	}

	var b strings.Builder
	for _, e := range entries {
		switch e.State {
		case StagedNew, StagedModified:
			text, err := r.Diff(e.Path, true)
			if err != nil {
				return "", err
			}
			b.WriteString(text)
		case UnstagedModified:
			text, err := r.Diff(e.Path, false)
			if err != nil {
				return "", err
			}
			b.WriteString(text)
		}
	}
	return b.String(), nil
}
