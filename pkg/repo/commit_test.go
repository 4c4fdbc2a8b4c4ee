package repo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func setIdentity(t *testing.T) {
	t.Helper()
	t.Setenv("PYGIT_AUTHOR_NAME", "Ada Lovelace")
	t.Setenv("PYGIT_AUTHOR_EMAIL", "ada@example.com")
}

func TestCommit_RequiresIdentity(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	t.Setenv("PYGIT_AUTHOR_NAME", "")
	t.Setenv("PYGIT_AUTHOR_EMAIL", "")

	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := r.Add("a.txt"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if _, err := r.Commit("first"); !errors.Is(err, ErrIdentityMissing) {
		t.Errorf("Commit error = %v, want ErrIdentityMissing", err)
	}
}

func TestCommit_RequiresNonEmptyIndex(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	setIdentity(t)

	if _, err := r.Commit("empty"); !errors.Is(err, ErrEmptyCommit) {
		t.Errorf("Commit error = %v, want ErrEmptyCommit", err)
	}
}

func TestCommit_FirstCommit_NoParent(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	setIdentity(t)

	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := r.Add("a.txt"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	commitID, err := r.Commit("first commit")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if commitID.IsZero() {
		t.Fatal("Commit returned zero hash")
	}

	commit, err := r.Store.GetCommit(commitID)
	if err != nil {
		t.Fatalf("GetCommit: %v", err)
	}
	if len(commit.ParentIDs) != 0 {
		t.Errorf("first commit should have no parents, got %d", len(commit.ParentIDs))
	}
	if commit.Message != "first commit" {
		t.Errorf("Message = %q, want %q", commit.Message, "first commit")
	}
	if commit.Author.Name != "Ada Lovelace" || commit.Author.Email != "ada@example.com" {
		t.Errorf("Author = %+v, want Ada Lovelace/ada@example.com", commit.Author)
	}

	head, err := r.ResolveRef("HEAD")
	if err != nil {
		t.Fatalf("ResolveRef(HEAD): %v", err)
	}
	if head != commitID {
		t.Errorf("HEAD = %s, want %s", head, commitID)
	}
}

func TestCommit_SecondCommit_HasParent(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	setIdentity(t)

	os.WriteFile(filepath.Join(dir, "a.txt"), []byte("v1"), 0o644)
	r.Add("a.txt")
	first, err := r.Commit("v1")
	if err != nil {
		t.Fatalf("Commit v1: %v", err)
	}

	os.WriteFile(filepath.Join(dir, "a.txt"), []byte("v2"), 0o644)
	r.Add("a.txt")
	second, err := r.Commit("v2")
	if err != nil {
		t.Fatalf("Commit v2: %v", err)
	}

	commit, err := r.Store.GetCommit(second)
	if err != nil {
		t.Fatalf("GetCommit: %v", err)
	}
	if len(commit.ParentIDs) != 1 || commit.ParentIDs[0] != first {
		t.Errorf("ParentIDs = %v, want [%s]", commit.ParentIDs, first)
	}
}

func TestCommit_StagingIndexNotCleared(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	setIdentity(t)

	os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644)
	if err := r.Add("a.txt"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := r.Commit("first"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	stg, err := r.ReadStaging()
	if err != nil {
		t.Fatalf("ReadStaging: %v", err)
	}
	if _, ok := stg.Entries["a.txt"]; !ok {
		t.Error("staging index should still contain a.txt after commit")
	}
}

func TestCommit_UpdatesTrackingLedger(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	setIdentity(t)

	os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644)
	r.Add("a.txt")
	if _, err := r.Commit("first"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	ledger, err := r.readTrackingLedger()
	if err != nil {
		t.Fatalf("readTrackingLedger: %v", err)
	}
	stg, _ := r.ReadStaging()
	if ledger["a.txt"] != stg.Entries["a.txt"].ObjectID {
		t.Errorf("ledger[a.txt] = %s, want %s", ledger["a.txt"], stg.Entries["a.txt"].ObjectID)
	}
}

func TestLog_WalksParentChain(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	setIdentity(t)

	os.WriteFile(filepath.Join(dir, "a.txt"), []byte("v1"), 0o644)
	r.Add("a.txt")
	if _, err := r.Commit("v1"); err != nil {
		t.Fatalf("Commit v1: %v", err)
	}

	os.WriteFile(filepath.Join(dir, "a.txt"), []byte("v2"), 0o644)
	r.Add("a.txt")
	c2, err := r.Commit("v2")
	if err != nil {
		t.Fatalf("Commit v2: %v", err)
	}

	commits, err := r.Log(c2, 10)
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if len(commits) != 2 {
		t.Fatalf("Log returned %d commits, want 2", len(commits))
	}
	if commits[0].Message != "v2" || commits[1].Message != "v1" {
		t.Errorf("Log order = [%q, %q], want [v2, v1]", commits[0].Message, commits[1].Message)
	}
}
