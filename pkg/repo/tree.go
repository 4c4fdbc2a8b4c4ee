package repo

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"pygit/pkg/objects"
)

// FlatFile is one file in a flattened tree: its full slash-separated
// path, blob hash, and mode.
type FlatFile struct {
	Path string
	ID   objects.Hash
	Mode objects.FileMode
}

// BuildTree constructs the tree-object graph bottom-up from the staging
// index and returns the root tree hash. Entries are grouped by
// directory prefix; each directory becomes one tree object whose
// entries are its immediate children.
func (r *Repo) BuildTree(s *Staging) (objects.Hash, error) {
	return r.buildTreeDir(s, "")
}

func (r *Repo) buildTreeDir(s *Staging, prefix string) (objects.Hash, error) {
	files := make(map[string]*StagingEntry)
	subdirs := make(map[string]struct{})

	for p, entry := range s.Entries {
		var rel string
		if prefix == "" {
			rel = p
		} else if strings.HasPrefix(p, prefix+"/") {
			rel = p[len(prefix)+1:]
		} else {
			continue
		}

		if slash := strings.IndexByte(rel, '/'); slash < 0 {
			files[rel] = entry
		} else {
			subdirs[rel[:slash]] = struct{}{}
		}
	}

	names := make([]string, 0, len(files)+len(subdirs))
	for name := range files {
		names = append(names, name)
	}
	for name := range subdirs {
		if _, isFile := files[name]; !isFile {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	tree := &objects.Tree{}
	for _, name := range names {
		if entry, isFile := files[name]; isFile {
			mode := objects.FileMode(entry.Mode)
			if mode == "" {
				mode = objects.ModeFile
			}
			tree.Entries = append(tree.Entries, objects.TreeEntry{
				Name: name, Mode: mode, ID: entry.ObjectID,
			})
			continue
		}

		childPrefix := name
		if prefix != "" {
			childPrefix = prefix + "/" + name
		}
		subHash, err := r.buildTreeDir(s, childPrefix)
		if err != nil {
			return objects.ZeroHash, fmt.Errorf("build tree %q: %w", childPrefix, err)
		}
		tree.Entries = append(tree.Entries, objects.TreeEntry{
			Name: name, Mode: objects.ModeDir, ID: subHash,
		})
	}

	id, err := r.Store.PutTree(tree)
	if err != nil {
		return objects.ZeroHash, fmt.Errorf("build tree (prefix=%q): %w", prefix, err)
	}
	return id, nil
}

// FlattenTree walks a tree object recursively, returning every file it
// reaches with its full path.
func (r *Repo) FlattenTree(id objects.Hash) ([]FlatFile, error) {
	return r.flattenTreeRec(id, "")
}

func (r *Repo) flattenTreeRec(id objects.Hash, prefix string) ([]FlatFile, error) {
	tree, err := r.Store.GetTree(id)
	if err != nil {
		return nil, fmt.Errorf("flatten tree %s: %w", id, err)
	}

	var out []FlatFile
	for _, e := range tree.Entries {
		full := e.Name
		if prefix != "" {
			full = path.Join(prefix, e.Name)
		}
		if e.IsDir() {
			sub, err := r.flattenTreeRec(e.ID, full)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
			continue
		}
		out = append(out, FlatFile{Path: full, ID: e.ID, Mode: e.Mode})
	}
	return out, nil
}
