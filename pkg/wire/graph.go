package wire

import (
	"fmt"

	"pygit/pkg/objects"
)

// ObjectRecord is one object as it travels over the wire: its id, type
// and payload, ready to pass to objects.Store.Put on arrival.
type ObjectRecord struct {
	ID      objects.Hash
	Type    objects.Type
	Payload []byte
}

// ReachableSet returns every object hash reachable from roots by
// walking tree and commit references. Missing roots are ignored.
func ReachableSet(store *objects.Store, roots []objects.Hash) (map[objects.Hash]struct{}, error) {
	out := make(map[objects.Hash]struct{}, len(roots))
	stack := append([]objects.Hash(nil), roots...)

	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if h.IsZero() {
			continue
		}
		if _, ok := out[h]; ok {
			continue
		}
		if !store.Exists(h) {
			continue
		}
		out[h] = struct{}{}

		typ, payload, err := store.Get(h)
		if err != nil {
			return nil, fmt.Errorf("wire: reachable set: read %s: %w", h, err)
		}
		refs, err := referencedHashes(typ, payload)
		if err != nil {
			return nil, fmt.Errorf("wire: reachable set: %s: %w", h, err)
		}
		stack = append(stack, refs...)
	}
	return out, nil
}

// CollectObjectsForPush returns every object reachable from roots,
// excluding objects reachable from stopRoots. It is the set a client
// pushing roots (commits newer than stopRoots) must send.
func CollectObjectsForPush(store *objects.Store, roots, stopRoots []objects.Hash) ([]ObjectRecord, error) {
	stopSet, err := ReachableSet(store, stopRoots)
	if err != nil {
		return nil, err
	}

	seen := make(map[objects.Hash]struct{})
	stack := append([]objects.Hash(nil), roots...)
	var out []ObjectRecord

	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if h.IsZero() {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		if _, stopped := stopSet[h]; stopped {
			continue
		}
		seen[h] = struct{}{}

		typ, payload, err := store.Get(h)
		if err != nil {
			return nil, fmt.Errorf("wire: collect for push: read %s: %w", h, err)
		}
		out = append(out, ObjectRecord{ID: h, Type: typ, Payload: payload})

		refs, err := referencedHashes(typ, payload)
		if err != nil {
			return nil, fmt.Errorf("wire: collect for push: %s: %w", h, err)
		}
		stack = append(stack, refs...)
	}
	return out, nil
}

// MissingFrom returns the subset of ids not present in have.
func MissingFrom(ids []objects.Hash, have map[objects.Hash]struct{}) []objects.Hash {
	var out []objects.Hash
	for _, id := range ids {
		if _, ok := have[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// IsAncestor reports whether ancestor is tip itself, or is
// reachable by following sole-parent links from tip. A zero ancestor
// hash (no remote branch yet) is always an ancestor.
func IsAncestor(store *objects.Store, tip, ancestor objects.Hash) (bool, error) {
	if ancestor.IsZero() {
		return true, nil
	}
	current := tip
	for !current.IsZero() {
		if current == ancestor {
			return true, nil
		}
		c, err := store.GetCommit(current)
		if err != nil {
			return false, fmt.Errorf("wire: walk commit %s: %w", current, err)
		}
		if len(c.ParentIDs) == 0 {
			return false, nil
		}
		current = c.ParentIDs[0]
	}
	return false, nil
}

func referencedHashes(t objects.Type, payload []byte) ([]objects.Hash, error) {
	switch t {
	case objects.TypeBlob:
		return nil, nil
	case objects.TypeTree:
		tree, err := objects.UnmarshalTree(payload)
		if err != nil {
			return nil, err
		}
		refs := make([]objects.Hash, 0, len(tree.Entries))
		for _, e := range tree.Entries {
			refs = append(refs, e.ID)
		}
		return refs, nil
	case objects.TypeCommit:
		commit, err := objects.UnmarshalCommit(payload)
		if err != nil {
			return nil, err
		}
		refs := make([]objects.Hash, 0, 1+len(commit.ParentIDs))
		refs = append(refs, commit.TreeID)
		refs = append(refs, commit.ParentIDs...)
		return refs, nil
	default:
		return nil, fmt.Errorf("wire: unsupported object type %q", t)
	}
}
