package repo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDiff_UnstagedTextChange(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	setIdentity(t)

	path := filepath.Join(dir, "a.txt")
	os.WriteFile(path, []byte("line1\nline2\nline3\n"), 0o644)
	r.Add("a.txt")
	if _, err := r.Commit("v1"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	os.WriteFile(path, []byte("line1\nCHANGED\nline3\n"), 0o644)

	out, err := r.Diff("a.txt", false)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if !strings.Contains(out, "-line2") || !strings.Contains(out, "+CHANGED") {
		t.Errorf("diff output missing expected hunk lines: %q", out)
	}
}

func TestDiff_StagedTextChange(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	setIdentity(t)

	path := filepath.Join(dir, "a.txt")
	os.WriteFile(path, []byte("v1\n"), 0o644)
	r.Add("a.txt")
	if _, err := r.Commit("v1"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	os.WriteFile(path, []byte("v2\n"), 0o644)
	if err := r.Add("a.txt"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	out, err := r.Diff("a.txt", true)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if !strings.Contains(out, "-v1") || !strings.Contains(out, "+v2") {
		t.Errorf("diff output missing expected hunk lines: %q", out)
	}
}

func TestDiff_BinaryContentShortCircuits(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	setIdentity(t)

	path := filepath.Join(dir, "a.bin")
	os.WriteFile(path, []byte{0x00, 0x01, 0x02}, 0o644)
	r.Add("a.bin")
	if _, err := r.Commit("v1"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	os.WriteFile(path, []byte{0x00, 0x01, 0x03}, 0o644)

	out, err := r.Diff("a.bin", false)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if out != "Binary files differ\n" {
		t.Errorf("Diff = %q, want %q", out, "Binary files differ\n")
	}
}

func TestDiffAll_ConcatenatesChangedPaths(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	setIdentity(t)

	os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a1\n"), 0o644)
	os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b1\n"), 0o644)
	r.Add("a.txt")
	r.Add("b.txt")
	if _, err := r.Commit("v1"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a2, changed on disk only\n"), 0o644)

	out, err := r.DiffAll()
	if err != nil {
		t.Fatalf("DiffAll: %v", err)
	}
	if !strings.Contains(out, "a/a.txt") {
		t.Errorf("DiffAll output missing a.txt hunk: %q", out)
	}
	if strings.Contains(out, "a/b.txt") {
		t.Errorf("DiffAll output should not mention unchanged b.txt: %q", out)
	}
}
