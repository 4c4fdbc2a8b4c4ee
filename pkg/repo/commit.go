package repo

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"pygit/internal/ident"
	"pygit/pkg/objects"
)

// Commit builds a tree from the current staging index, creates a commit
// object with the current branch tip as parent (absent on the initial
// commit), and advances the current branch ref to it. The staging index
// is left as-is: it is NOT cleared after commit. The tracking ledger is
// updated to the new tree's contents.
//
// Fails with ErrEmptyCommit if the index is empty, ErrNoHead if HEAD is
// unresolvable, and ErrIdentityMissing if PYGIT_AUTHOR_NAME/
// PYGIT_AUTHOR_EMAIL are not set.
func (r *Repo) Commit(message string) (objects.Hash, error) {
	id, err := ident.FromEnv()
	if err != nil {
		return objects.ZeroHash, fmt.Errorf("commit: %w", ErrIdentityMissing)
	}

	stg, err := r.ReadStaging()
	if err != nil {
		return objects.ZeroHash, fmt.Errorf("commit: %w", err)
	}
	if len(stg.Entries) == 0 {
		return objects.ZeroHash, fmt.Errorf("commit: %w", ErrEmptyCommit)
	}

	treeID, err := r.BuildTree(stg)
	if err != nil {
		return objects.ZeroHash, fmt.Errorf("commit: %w", err)
	}

	head, err := r.Head()
	if err != nil {
		return objects.ZeroHash, fmt.Errorf("commit: %w", err)
	}
	if head == "" {
		return objects.ZeroHash, fmt.Errorf("commit: %w", ErrNoHead)
	}

	var parents []objects.Hash
	parentHash, err := r.ResolveRef("HEAD")
	if err == nil {
		parents = append(parents, parentHash)
	} else if !errors.Is(err, ErrRefNotFound) && !errors.Is(err, ErrNoHead) {
		return objects.ZeroHash, fmt.Errorf("commit: %w", err)
	}

	sig := newSignature(id)
	commit := &objects.Commit{
		TreeID:    treeID,
		ParentIDs: parents,
		Author:    sig,
		Committer: sig,
		Message:   message,
	}

	commitID, err := r.Store.PutCommit(commit)
	if err != nil {
		return objects.ZeroHash, fmt.Errorf("commit: %w", err)
	}

	if strings.HasPrefix(head, "refs/") {
		var updateErr error
		if len(parents) == 0 {
			updateErr = r.UpdateRefCAS(head, commitID, objects.ZeroHash)
		} else {
			updateErr = r.UpdateRefCAS(head, commitID, parents[0])
		}
		if updateErr != nil {
			return objects.ZeroHash, fmt.Errorf("commit: advance %s: %w", head, updateErr)
		}
	} else {
		old, _ := objects.ParseHash(head)
		if err := r.UpdateRefCAS("HEAD", commitID, old); err != nil {
			return objects.ZeroHash, fmt.Errorf("commit: advance detached HEAD: %w", err)
		}
	}

	ledger, err := r.FlattenTree(treeID)
	if err != nil {
		return objects.ZeroHash, fmt.Errorf("commit: rebuild tracking ledger: %w", err)
	}
	newLedger := make(map[string]objects.Hash, len(ledger))
	for _, f := range ledger {
		newLedger[f.Path] = f.ID
	}
	if err := r.writeTrackingLedger(newLedger); err != nil {
		return objects.ZeroHash, fmt.Errorf("commit: %w", err)
	}

	return commitID, nil
}

func newSignature(id ident.Identity) objects.Signature {
	now := time.Now()
	_, offsetSeconds := now.Zone()
	sign := "+"
	if offsetSeconds < 0 {
		sign = "-"
		offsetSeconds = -offsetSeconds
	}
	hours := offsetSeconds / 3600
	minutes := (offsetSeconds % 3600) / 60
	return objects.Signature{
		Name:     id.Name,
		Email:    id.Email,
		Seconds:  now.Unix(),
		TZOffset: fmt.Sprintf("%s%02d%02d", sign, hours, minutes),
	}
}

// Log walks commit history from start following the sole parent link,
// returning up to limit commits newest-first.
func (r *Repo) Log(start objects.Hash, limit int) ([]*objects.Commit, error) {
	var out []*objects.Commit
	current := start
	for len(out) < limit && !current.IsZero() {
		c, err := r.Store.GetCommit(current)
		if err != nil {
			return nil, fmt.Errorf("log: %w", err)
		}
		out = append(out, c)
		if len(c.ParentIDs) == 0 {
			break
		}
		current = c.ParentIDs[0]
	}
	return out, nil
}
