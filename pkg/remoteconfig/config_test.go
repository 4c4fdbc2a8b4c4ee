package remoteconfig

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestAdd_List_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := Open(filepath.Join(dir, "remotes"))

	if err := s.Add("origin", "pygit://example.com:8471/repo"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	remotes, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if remotes["origin"] != "pygit://example.com:8471/repo" {
		t.Errorf("List()[origin] = %q, want %q", remotes["origin"], "pygit://example.com:8471/repo")
	}
}

func TestAdd_RejectsInvalidURL(t *testing.T) {
	dir := t.TempDir()
	s := Open(filepath.Join(dir, "remotes"))

	cases := []string{
		"http://example.com:8471/repo",
		"pygit:///repo",
		"pygit://example.com/repo",
		"pygit://example.com:8471/",
		"pygit://example.com:notaport/repo",
	}
	for _, rawURL := range cases {
		if err := s.Add("origin", rawURL); !errors.Is(err, ErrInvalidURL) {
			t.Errorf("Add(%q) error = %v, want ErrInvalidURL", rawURL, err)
		}
	}
}

func TestRemove_DeletesEntry(t *testing.T) {
	dir := t.TempDir()
	s := Open(filepath.Join(dir, "remotes"))

	if err := s.Add("origin", "pygit://example.com:8471/repo"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Remove("origin"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	remotes, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if _, ok := remotes["origin"]; ok {
		t.Error("origin should be removed")
	}
}

func TestRemove_MissingRemote(t *testing.T) {
	dir := t.TempDir()
	s := Open(filepath.Join(dir, "remotes"))

	if err := s.Remove("nope"); !errors.Is(err, ErrRemoteNotFound) {
		t.Errorf("Remove(nope) error = %v, want ErrRemoteNotFound", err)
	}
}

func TestURL_MissingRemote(t *testing.T) {
	dir := t.TempDir()
	s := Open(filepath.Join(dir, "remotes"))

	if _, err := s.URL("nope"); !errors.Is(err, ErrRemoteNotFound) {
		t.Errorf("URL(nope) error = %v, want ErrRemoteNotFound", err)
	}
}

func TestRead_MissingFileIsEmptyConfig(t *testing.T) {
	dir := t.TempDir()
	s := Open(filepath.Join(dir, "remotes"))

	cfg, err := s.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(cfg.Remotes) != 0 {
		t.Errorf("expected empty remotes, got %d", len(cfg.Remotes))
	}
}

func TestAdd_MultipleRemotesPersist(t *testing.T) {
	dir := t.TempDir()
	s := Open(filepath.Join(dir, "remotes"))

	if err := s.Add("origin", "pygit://a.example.com:8471/repo"); err != nil {
		t.Fatalf("Add origin: %v", err)
	}
	if err := s.Add("upstream", "pygit://b.example.com:9000/other"); err != nil {
		t.Fatalf("Add upstream: %v", err)
	}

	remotes, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(remotes) != 2 {
		t.Fatalf("List() = %v, want 2 entries", remotes)
	}
}
