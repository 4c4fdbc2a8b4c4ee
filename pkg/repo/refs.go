package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pygit/pkg/objects"
)

const (
	refLockRetryDelay = 5 * time.Millisecond
	refLockWaitLimit  = 2 * time.Second
)

// Head reads .pygit/HEAD. If the content starts with "ref: ", it returns
// the ref path (e.g. "refs/heads/master"); otherwise it returns the raw
// detached-HEAD hex hash.
func (r *Repo) Head() (string, error) {
	data, err := os.ReadFile(filepath.Join(r.PygitDir, "HEAD"))
	if err != nil {
		return "", fmt.Errorf("head: %w", err)
	}
	content := strings.TrimRight(string(data), "\n")
	if strings.HasPrefix(content, "ref: ") {
		return strings.TrimPrefix(content, "ref: "), nil
	}
	return content, nil
}

// SetHeadSymbolic points HEAD at the given branch ref.
func (r *Repo) SetHeadSymbolic(branchRef string) error {
	return os.WriteFile(filepath.Join(r.PygitDir, "HEAD"), []byte("ref: "+branchRef+"\n"), 0o644)
}

// SetHeadDetached points HEAD directly at a commit hash.
func (r *Repo) SetHeadDetached(h objects.Hash) error {
	return os.WriteFile(filepath.Join(r.PygitDir, "HEAD"), []byte(h.String()+"\n"), 0o644)
}

// ResolveRef resolves a ref name to a commit hash.
//
// Resolution order:
//  1. "HEAD" reads HEAD; if symbolic, resolves the target ref recursively.
//  2. Names starting with "refs/" are read directly under .pygit/.
//  3. Anything else is tried as "refs/heads/<name>".
func (r *Repo) ResolveRef(name string) (objects.Hash, error) {
	if name == "HEAD" {
		head, err := r.Head()
		if err != nil {
			return objects.ZeroHash, err
		}
		if strings.HasPrefix(head, "refs/") {
			return r.ResolveRef(head)
		}
		if head == "" {
			return objects.ZeroHash, fmt.Errorf("resolve HEAD: %w", ErrNoHead)
		}
		return objects.ParseHash(head)
	}

	refPath := name
	if !strings.HasPrefix(name, "refs/") {
		refPath = "refs/heads/" + name
	}

	data, err := os.ReadFile(filepath.Join(r.PygitDir, refPath))
	if err != nil {
		if os.IsNotExist(err) {
			return objects.ZeroHash, fmt.Errorf("resolve ref %q: %w", name, ErrRefNotFound)
		}
		return objects.ZeroHash, fmt.Errorf("resolve ref %q: %w", name, err)
	}
	return objects.ParseHash(strings.TrimSpace(string(data)))
}

// HeadTarget returns the branch name HEAD points to symbolically, the
// raw commit hash if HEAD is detached, or ("", ZeroHash) if HEAD is
// unset.
func (r *Repo) HeadTarget() (branch string, commit objects.Hash, err error) {
	head, err := r.Head()
	if err != nil {
		return "", objects.ZeroHash, err
	}
	if strings.HasPrefix(head, "refs/heads/") {
		return strings.TrimPrefix(head, "refs/heads/"), objects.ZeroHash, nil
	}
	if head == "" {
		return "", objects.ZeroHash, nil
	}
	h, err := objects.ParseHash(head)
	if err != nil {
		return "", objects.ZeroHash, fmt.Errorf("head target: %w", err)
	}
	return "", h, nil
}

// readRefHash reads a ref file, returning ZeroHash (not an error) when
// the ref does not yet exist.
func readRefHash(refPath string) (objects.Hash, error) {
	data, err := os.ReadFile(refPath)
	if err != nil {
		if os.IsNotExist(err) {
			return objects.ZeroHash, nil
		}
		return objects.ZeroHash, err
	}
	return objects.ParseHash(strings.TrimSpace(string(data)))
}

// UpdateRefCAS writes h to the named ref under .pygit/ using lock-file +
// rename atomic semantics. If expectedOld is given, the update only
// succeeds when the ref's current value equals it; a mismatch is
// reported as a RefCASError (ErrRefRaceLost).
func (r *Repo) UpdateRefCAS(name string, h objects.Hash, expectedOld ...objects.Hash) error {
	if len(expectedOld) > 1 {
		return fmt.Errorf("update ref %q: expected at most one old hash", name)
	}

	refPath := filepath.Join(r.PygitDir, name)
	if err := os.MkdirAll(filepath.Dir(refPath), 0o755); err != nil {
		return fmt.Errorf("update ref %q: mkdir: %w", name, err)
	}

	lockPath := refPath + ".lock"
	lockFile, err := acquireRefLock(lockPath)
	if err != nil {
		return fmt.Errorf("update ref %q: %w", name, err)
	}
	cleanupLock := true
	defer func() {
		if lockFile != nil {
			_ = lockFile.Close()
		}
		if cleanupLock {
			_ = os.Remove(lockPath)
		}
	}()

	oldHash, err := readRefHash(refPath)
	if err != nil {
		return fmt.Errorf("update ref %q: read old value: %w", name, err)
	}
	if len(expectedOld) == 1 && oldHash != expectedOld[0] {
		return &RefCASError{Ref: name, Expected: expectedOld[0].String(), Actual: oldHash.String()}
	}

	if _, err := lockFile.WriteString(h.String() + "\n"); err != nil {
		return fmt.Errorf("update ref %q: write: %w", name, err)
	}
	if err := lockFile.Sync(); err != nil {
		return fmt.Errorf("update ref %q: sync: %w", name, err)
	}
	if err := lockFile.Close(); err != nil {
		lockFile = nil
		return fmt.Errorf("update ref %q: close: %w", name, err)
	}
	lockFile = nil

	if err := os.Rename(lockPath, refPath); err != nil {
		return fmt.Errorf("update ref %q: rename: %w", name, err)
	}
	cleanupLock = false
	return nil
}

func acquireRefLock(lockPath string) (*os.File, error) {
	deadline := time.Now().Add(refLockWaitLimit)
	for {
		f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, nil
		}
		if os.IsExist(err) {
			if time.Now().After(deadline) {
				return nil, fmt.Errorf("%w: timeout waiting for lock %s", ErrRepoLocked, lockPath)
			}
			time.Sleep(refLockRetryDelay)
			continue
		}
		return nil, err
	}
}
