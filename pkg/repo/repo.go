// Package repo implements the on-disk pygit repository: references, the
// staging index, the tracking ledger, working-tree operations, and the
// commit engine built on top of pkg/objects.
package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"pygit/pkg/objects"
)

// MetaDirName is the repository metadata directory, analogous to .git.
const MetaDirName = ".pygit"

// Repo represents an opened pygit repository.
type Repo struct {
	RootDir  string // working directory root
	PygitDir string // .pygit/ directory
	Store    *objects.Store
}

// Init creates a new pygit repository at path: the metadata directory,
// objects/, refs/heads/, an empty index, an empty tracking ledger, and a
// HEAD pointing at refs/heads/master.
func Init(path string) (*Repo, error) {
	pygitDir := filepath.Join(path, MetaDirName)

	if _, err := os.Stat(pygitDir); err == nil {
		return nil, fmt.Errorf("init: %w: %s already exists", ErrRepoLocked, pygitDir)
	}

	dirs := []string{
		filepath.Join(pygitDir, "objects"),
		filepath.Join(pygitDir, "refs", "heads"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("init: mkdir %s: %w", d, err)
		}
	}

	headPath := filepath.Join(pygitDir, "HEAD")
	if err := os.WriteFile(headPath, []byte("ref: refs/heads/master\n"), 0o644); err != nil {
		return nil, fmt.Errorf("init: write HEAD: %w", err)
	}

	store, err := objects.NewStore(pygitDir)
	if err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	r := &Repo{RootDir: path, PygitDir: pygitDir, Store: store}

	if err := r.WriteStaging(&Staging{Entries: make(map[string]*StagingEntry)}); err != nil {
		return nil, fmt.Errorf("init: write index: %w", err)
	}
	if err := r.writeTrackingLedger(make(map[string]objects.Hash)); err != nil {
		return nil, fmt.Errorf("init: write tracking ledger: %w", err)
	}

	return r, nil
}

// Open searches upward from path for a .pygit/ directory and opens the
// repository. Returns ErrNotARepo if none is found.
func Open(path string) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	cur := abs
	for {
		pygitDir := filepath.Join(cur, MetaDirName)
		if info, err := os.Stat(pygitDir); err == nil && info.IsDir() {
			store, err := objects.NewStore(pygitDir)
			if err != nil {
				return nil, fmt.Errorf("open: %w", err)
			}
			return &Repo{RootDir: cur, PygitDir: pygitDir, Store: store}, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, fmt.Errorf("open %s: %w", path, ErrNotARepo)
		}
		cur = parent
	}
}
