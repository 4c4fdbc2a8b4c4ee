package repo

import (
	"errors"
	"testing"

	"pygit/pkg/objects"
)

func testHash(t *testing.T, fill byte) objects.Hash {
	t.Helper()
	var h objects.Hash
	for i := range h {
		h[i] = fill
	}
	return h
}

func TestUpdateRefCAS_ResolveRef_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	h := testHash(t, 0xaa)
	if err := r.UpdateRefCAS("refs/heads/main", h, objects.ZeroHash); err != nil {
		t.Fatalf("UpdateRefCAS: %v", err)
	}

	got, err := r.ResolveRef("refs/heads/main")
	if err != nil {
		t.Fatalf("ResolveRef: %v", err)
	}
	if got != h {
		t.Errorf("ResolveRef = %s, want %s", got, h)
	}
}

func TestResolveRef_HEAD_FollowsBranch(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	h := testHash(t, 0xbb)
	if err := r.UpdateRefCAS("refs/heads/master", h, objects.ZeroHash); err != nil {
		t.Fatalf("UpdateRefCAS: %v", err)
	}

	got, err := r.ResolveRef("HEAD")
	if err != nil {
		t.Fatalf("ResolveRef(HEAD): %v", err)
	}
	if got != h {
		t.Errorf("ResolveRef(HEAD) = %s, want %s", got, h)
	}
}

func TestResolveRef_ShortName(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	h := testHash(t, 0xcc)
	if err := r.UpdateRefCAS("refs/heads/master", h, objects.ZeroHash); err != nil {
		t.Fatalf("UpdateRefCAS: %v", err)
	}

	got, err := r.ResolveRef("master")
	if err != nil {
		t.Fatalf("ResolveRef(master): %v", err)
	}
	if got != h {
		t.Errorf("ResolveRef(master) = %s, want %s", got, h)
	}
}

func TestResolveRef_Missing(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	if _, err := r.ResolveRef("nope"); !errors.Is(err, ErrRefNotFound) {
		t.Errorf("ResolveRef(nope) error = %v, want ErrRefNotFound", err)
	}
}

func TestUpdateRefCAS_MismatchFails(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	h1 := testHash(t, 0x11)
	h2 := testHash(t, 0x22)
	if err := r.UpdateRefCAS("refs/heads/main", h1, objects.ZeroHash); err != nil {
		t.Fatalf("first UpdateRefCAS: %v", err)
	}

	err = r.UpdateRefCAS("refs/heads/main", h2, objects.ZeroHash)
	var casErr *RefCASError
	if !errors.As(err, &casErr) {
		t.Fatalf("expected *RefCASError, got %v", err)
	}
	if !errors.Is(err, ErrRefRaceLost) {
		t.Errorf("expected errors.Is ErrRefRaceLost, got %v", err)
	}
}

func TestSetHeadDetached_ResolveRefHEAD(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	h := testHash(t, 0x33)
	if err := r.SetHeadDetached(h); err != nil {
		t.Fatalf("SetHeadDetached: %v", err)
	}

	got, err := r.ResolveRef("HEAD")
	if err != nil {
		t.Fatalf("ResolveRef(HEAD): %v", err)
	}
	if got != h {
		t.Errorf("ResolveRef(HEAD) = %s, want %s", got, h)
	}
}
