package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"pygit/pkg/objects"
)

// CreateBranch creates a new branch ref pointing at target. Fails with
// ErrBranchExists if the branch already exists.
func (r *Repo) CreateBranch(name string, target objects.Hash) error {
	refName := "refs/heads/" + name
	if err := r.UpdateRefCAS(refName, target, objects.ZeroHash); err != nil {
		var casErr *RefCASError
		if errors.As(err, &casErr) {
			return fmt.Errorf("create branch %q: %w", name, ErrBranchExists)
		}
		return fmt.Errorf("create branch %q: %w", name, err)
	}
	return nil
}

// DeleteBranch removes a branch ref. Fails if it is the current branch
// or does not exist.
func (r *Repo) DeleteBranch(name string) error {
	current, err := r.CurrentBranch()
	if err != nil {
		return fmt.Errorf("delete branch %q: %w", name, err)
	}
	if current == name {
		return fmt.Errorf("delete branch %q: cannot delete the current branch", name)
	}

	refPath := filepath.Join(r.PygitDir, "refs", "heads", name)
	if err := os.Remove(refPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("delete branch %q: %w", name, ErrRefNotFound)
		}
		return fmt.Errorf("delete branch %q: %w", name, err)
	}
	return nil
}

// ListBranches returns all branch names, sorted alphabetically.
func (r *Repo) ListBranches() ([]string, error) {
	headsDir := filepath.Join(r.PygitDir, "refs", "heads")
	entries, err := os.ReadDir(headsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list branches: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// CurrentBranch returns the branch name HEAD points to, or "" if HEAD
// is detached.
func (r *Repo) CurrentBranch() (string, error) {
	head, err := r.Head()
	if err != nil {
		return "", fmt.Errorf("current branch: %w", err)
	}
	if strings.HasPrefix(head, "refs/heads/") {
		return strings.TrimPrefix(head, "refs/heads/"), nil
	}
	return "", nil
}
