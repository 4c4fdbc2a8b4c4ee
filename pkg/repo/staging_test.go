package repo

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAdd_SingleFile(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	data := []byte("package main\n\nfunc main() {}\n")
	if err := os.WriteFile(filepath.Join(dir, "main.go"), data, 0o644); err != nil {
		t.Fatalf("write main.go: %v", err)
	}

	if err := r.Add("main.go"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	stg, err := r.ReadStaging()
	if err != nil {
		t.Fatalf("ReadStaging: %v", err)
	}
	entry, ok := stg.Entries["main.go"]
	if !ok {
		t.Fatalf("staging missing entry for main.go; entries: %v", stg.Entries)
	}
	if entry.ObjectID.IsZero() {
		t.Error("ObjectID is zero, want non-zero")
	}

	blob, err := r.Store.GetBlob(entry.ObjectID)
	if err != nil {
		t.Fatalf("GetBlob: %v", err)
	}
	if string(blob.Data) != string(data) {
		t.Errorf("blob data mismatch: got %q, want %q", blob.Data, data)
	}
}

func TestAdd_Idempotent_SkipsUnchangedFile(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	path := filepath.Join(dir, "main.go")
	if err := os.WriteFile(path, []byte("package main\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := r.Add("main.go"); err != nil {
		t.Fatalf("Add (1): %v", err)
	}

	stg1, err := r.ReadStaging()
	if err != nil {
		t.Fatalf("ReadStaging (1): %v", err)
	}
	id1 := stg1.Entries["main.go"].ObjectID

	if err := r.Add("main.go"); err != nil {
		t.Fatalf("Add (2): %v", err)
	}

	stg2, err := r.ReadStaging()
	if err != nil {
		t.Fatalf("ReadStaging (2): %v", err)
	}
	id2 := stg2.Entries["main.go"].ObjectID

	if id1 != id2 {
		t.Errorf("ObjectID changed on re-add of unchanged file: %s vs %s", id1, id2)
	}
}

func TestAdd_ReaddModifiedFile(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	path := filepath.Join(dir, "main.go")
	if err := os.WriteFile(path, []byte("package main\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := r.Add("main.go"); err != nil {
		t.Fatalf("Add (original): %v", err)
	}
	stg1, err := r.ReadStaging()
	if err != nil {
		t.Fatalf("ReadStaging (1): %v", err)
	}
	id1 := stg1.Entries["main.go"].ObjectID

	later := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
	if err := os.WriteFile(path, []byte("package main\n\nfunc f() {}\n"), 0o644); err != nil {
		t.Fatalf("write modified: %v", err)
	}
	if err := r.Add("main.go"); err != nil {
		t.Fatalf("Add (modified): %v", err)
	}
	stg2, err := r.ReadStaging()
	if err != nil {
		t.Fatalf("ReadStaging (2): %v", err)
	}
	id2 := stg2.Entries["main.go"].ObjectID

	if id1 == id2 {
		t.Errorf("ObjectID did not change after modifying file: both = %s", id1)
	}
}

func TestAdd_Directory_RecursesAndHonorsIgnore(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, ".pygitignore"), []byte("ignored.txt\nbuild/\n"), 0o644); err != nil {
		t.Fatalf("write .pygitignore: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "pkg"), 0o755); err != nil {
		t.Fatalf("mkdir pkg: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "build"), 0o755); err != nil {
		t.Fatalf("mkdir build: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o644); err != nil {
		t.Fatalf("write main.go: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "pkg", "util.go"), []byte("package pkg\n"), 0o644); err != nil {
		t.Fatalf("write pkg/util.go: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("nope\n"), 0o644); err != nil {
		t.Fatalf("write ignored.txt: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "build", "gen.go"), []byte("package build\n"), 0o644); err != nil {
		t.Fatalf("write build/gen.go: %v", err)
	}

	if err := r.Add("."); err != nil {
		t.Fatalf("Add .: %v", err)
	}

	stg, err := r.ReadStaging()
	if err != nil {
		t.Fatalf("ReadStaging: %v", err)
	}
	if _, ok := stg.Entries["main.go"]; !ok {
		t.Errorf("expected main.go staged")
	}
	if _, ok := stg.Entries["pkg/util.go"]; !ok {
		t.Errorf("expected pkg/util.go staged")
	}
	if _, ok := stg.Entries["ignored.txt"]; ok {
		t.Errorf("ignored.txt should not be staged")
	}
	if _, ok := stg.Entries["build/gen.go"]; ok {
		t.Errorf("build/gen.go should not be staged")
	}
}

func TestStaging_ReadWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	stg := &Staging{
		Entries: map[string]*StagingEntry{
			"foo.go": {Path: "foo.go", ObjectID: testHash(t, 0x01), MTime: 1234567890, Size: 42, Mode: "100644"},
		},
	}
	if err := r.WriteStaging(stg); err != nil {
		t.Fatalf("WriteStaging: %v", err)
	}

	got, err := r.ReadStaging()
	if err != nil {
		t.Fatalf("ReadStaging: %v", err)
	}
	entry, ok := got.Entries["foo.go"]
	if !ok {
		t.Fatal("missing entry for foo.go after round-trip")
	}
	if entry.ObjectID != stg.Entries["foo.go"].ObjectID {
		t.Errorf("ObjectID mismatch after round-trip")
	}
	if entry.MTime != 1234567890 || entry.Size != 42 {
		t.Errorf("MTime/Size mismatch after round-trip: %+v", entry)
	}
}

func TestStaging_ReadEmpty(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	stg, err := r.ReadStaging()
	if err != nil {
		t.Fatalf("ReadStaging on fresh repo: %v", err)
	}
	if len(stg.Entries) != 0 {
		t.Errorf("expected empty entries, got %d", len(stg.Entries))
	}
}

func TestRemove_DeletesIndexEntry(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o644); err != nil {
		t.Fatalf("write main.go: %v", err)
	}
	if err := r.Add("main.go"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := r.Remove("main.go"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	stg, err := r.ReadStaging()
	if err != nil {
		t.Fatalf("ReadStaging: %v", err)
	}
	if _, ok := stg.Entries["main.go"]; ok {
		t.Error("main.go should be removed from staging")
	}
}
