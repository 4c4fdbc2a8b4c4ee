package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"pygit/pkg/objects"
)

// Checkout switches the working directory to the given branch. With
// createNew, the branch is created at the current HEAD commit first.
//
// Uncommitted changes to any path whose content differs between the
// current and target trees cause the checkout to fail with
// ErrDirtyWorkingTree, leaving the working tree untouched.
func (r *Repo) Checkout(branch string, createNew bool) error {
	if createNew {
		head, err := r.ResolveRef("HEAD")
		if err != nil {
			return fmt.Errorf("checkout -b %q: %w", branch, err)
		}
		if err := r.CreateBranch(branch, head); err != nil {
			return fmt.Errorf("checkout -b %q: %w", branch, err)
		}
	}

	targetCommitID, err := r.ResolveRef("refs/heads/" + branch)
	if err != nil {
		return fmt.Errorf("checkout %q: %w", branch, err)
	}
	targetCommit, err := r.Store.GetCommit(targetCommitID)
	if err != nil {
		return fmt.Errorf("checkout %q: %w", branch, err)
	}
	targetFiles, err := r.FlattenTree(targetCommit.TreeID)
	if err != nil {
		return fmt.Errorf("checkout %q: %w", branch, err)
	}
	targetMap := make(map[string]FlatFile, len(targetFiles))
	for _, f := range targetFiles {
		targetMap[f.Path] = f
	}

	ledger, err := r.readTrackingLedger()
	if err != nil {
		return fmt.Errorf("checkout %q: %w", branch, err)
	}

	if err := r.refuseIfDirtyRelativeTo(targetMap); err != nil {
		return fmt.Errorf("checkout %q: %w", branch, err)
	}

	for p := range ledger {
		if _, stillPresent := targetMap[p]; !stillPresent {
			abs := filepath.Join(r.RootDir, filepath.FromSlash(p))
			if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("checkout %q: remove %q: %w", branch, p, err)
			}
			removeEmptyParents(r.RootDir, filepath.Dir(abs))
		}
	}

	newLedger := make(map[string]objects.Hash, len(targetFiles))
	newIndex := &Staging{Entries: make(map[string]*StagingEntry, len(targetFiles))}
	for _, f := range targetFiles {
		abs := filepath.Join(r.RootDir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return fmt.Errorf("checkout %q: mkdir: %w", branch, err)
		}
		blob, err := r.Store.GetBlob(f.ID)
		if err != nil {
			return fmt.Errorf("checkout %q: %w", branch, err)
		}
		if err := os.WriteFile(abs, blob.Data, filePermFromMode(f.Mode)); err != nil {
			return fmt.Errorf("checkout %q: write %q: %w", branch, f.Path, err)
		}

		info, err := os.Stat(abs)
		if err != nil {
			return fmt.Errorf("checkout %q: stat %q: %w", branch, f.Path, err)
		}
		newLedger[f.Path] = f.ID
		newIndex.Entries[f.Path] = &StagingEntry{
			Path: f.Path, ObjectID: f.ID,
			MTime: info.ModTime().Unix(), Size: info.Size(), Mode: string(f.Mode),
		}
	}

	if err := r.writeTrackingLedger(newLedger); err != nil {
		return fmt.Errorf("checkout %q: %w", branch, err)
	}
	if err := r.WriteStaging(newIndex); err != nil {
		return fmt.Errorf("checkout %q: %w", branch, err)
	}
	if err := r.SetHeadSymbolic("refs/heads/" + branch); err != nil {
		return fmt.Errorf("checkout %q: %w", branch, err)
	}
	return nil
}

// refuseIfDirtyRelativeTo fails with ErrDirtyWorkingTree if any path with
// uncommitted changes also differs in content between the current and
// target trees.
func (r *Repo) refuseIfDirtyRelativeTo(target map[string]FlatFile) error {
	status, err := r.Status()
	if err != nil {
		return err
	}
	currentLedger, err := r.readTrackingLedger()
	if err != nil {
		return err
	}

	for _, e := range status {
		if e.State != StagedNew && e.State != StagedModified && e.State != UnstagedModified {
			continue
		}
		oldID := currentLedger[e.Path]
		newID := objects.ZeroHash
		if f, ok := target[e.Path]; ok {
			newID = f.ID
		}
		if oldID != newID {
			return fmt.Errorf("%w: %q has uncommitted changes", ErrDirtyWorkingTree, e.Path)
		}
	}
	return nil
}

func removeEmptyParents(root, dir string) {
	for {
		if dir == root || len(dir) <= len(root) {
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		os.Remove(dir)
		dir = filepath.Dir(dir)
	}
}

func filePermFromMode(mode objects.FileMode) os.FileMode {
	if mode == objects.ModeExecutable {
		return 0o755
	}
	return 0o644
}
