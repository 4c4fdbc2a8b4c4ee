package repo

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"pygit/pkg/objects"
)

// FileState classifies a single path's status relative to the index
// and the tracking ledger.
type FileState int

const (
	StagedNew FileState = iota
	StagedModified
	UnstagedModified
	Deleted
	Untracked
)

func (s FileState) String() string {
	switch s {
	case StagedNew:
		return "staged-new"
	case StagedModified:
		return "staged-modified"
	case UnstagedModified:
		return "unstaged-modified"
	case Deleted:
		return "deleted"
	case Untracked:
		return "untracked"
	default:
		return "unknown"
	}
}

// StatusEntry is one classified path.
type StatusEntry struct {
	Path  string
	State FileState
}

// Status classifies the union of paths appearing in the index, the
// tracking ledger, and the working tree (minus ignored paths). Paths
// that are unchanged across all three are omitted.
func (r *Repo) Status() ([]StatusEntry, error) {
	stg, err := r.ReadStaging()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	ledger, err := r.readTrackingLedger()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	ic, err := r.loadIgnoreChecker()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	working, err := r.walkWorkingTree(ic)
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	allPaths := make(map[string]struct{})
	for p := range stg.Entries {
		allPaths[p] = struct{}{}
	}
	for p := range ledger {
		allPaths[p] = struct{}{}
	}
	for p := range working {
		allPaths[p] = struct{}{}
	}

	var entries []StatusEntry
	for p := range allPaths {
		indexEntry, inIndex := stg.Entries[p]
		ledgerID, inLedger := ledger[p]
		_, onDisk := working[p]

		switch {
		case inIndex && !inLedger:
			entries = append(entries, StatusEntry{Path: p, State: StagedNew})

		case inIndex && inLedger && indexEntry.ObjectID != ledgerID:
			entries = append(entries, StatusEntry{Path: p, State: StagedModified})

		case inLedger && !onDisk:
			entries = append(entries, StatusEntry{Path: p, State: Deleted})

		case inLedger && onDisk && (!inIndex || indexEntry.ObjectID == ledgerID):
			changed, err := r.workingFileChanged(p, ledgerID, indexEntry)
			if err != nil {
				return nil, fmt.Errorf("status: %w", err)
			}
			if changed {
				entries = append(entries, StatusEntry{Path: p, State: UnstagedModified})
			}

		case onDisk && !inLedger && !inIndex:
			entries = append(entries, StatusEntry{Path: p, State: Untracked})
		}
	}

	sortStatusEntries(entries)
	return entries, nil
}

// workingFileChanged compares the on-disk content of p against the
// ledger's recorded hash, using the index's recorded (size, mtime) as a
// cheap negative check when available.
func (r *Repo) workingFileChanged(p string, ledgerID objects.Hash, indexEntry *StagingEntry) (bool, error) {
	abs := filepath.Join(r.RootDir, filepath.FromSlash(p))
	info, err := os.Stat(abs)
	if err != nil {
		return false, fmt.Errorf("stat %q: %w", p, err)
	}

	if indexEntry != nil && indexEntry.Size == info.Size() && indexEntry.MTime == info.ModTime().Unix() {
		return indexEntry.ObjectID != ledgerID, nil
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return false, fmt.Errorf("read %q: %w", p, err)
	}
	return objects.HashObject(objects.TypeBlob, content) != ledgerID, nil
}

func (r *Repo) walkWorkingTree(ic *IgnoreChecker) (map[string]struct{}, error) {
	working := make(map[string]struct{})
	err := filepath.WalkDir(r.RootDir, func(abs string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(r.RootDir, abs)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if ic.isIgnoredEntry(rel, d.IsDir()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			working[rel] = struct{}{}
		}
		return nil
	})
	return working, err
}

func sortStatusEntries(entries []StatusEntry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
}

// isBinary applies the NUL-byte-in-first-8KiB heuristic used by Diff to
// decide whether to treat content as text.
func isBinary(content []byte) bool {
	n := len(content)
	if n > 8192 {
		n = 8192
	}
	return bytes.IndexByte(content[:n], 0) >= 0
}
