package repo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"pygit/pkg/objects"
)

// StagingEntry records the staged state of a single path.
type StagingEntry struct {
	Path     string       `json:"path"`
	ObjectID objects.Hash `json:"object_id"`
	MTime    int64        `json:"mtime"`
	Size     int64        `json:"size"`
	Mode     string       `json:"mode"`
}

// Staging is the persisted index: one record per staged path.
type Staging struct {
	Entries map[string]*StagingEntry `json:"entries"`
}

func (r *Repo) indexPath() string {
	return filepath.Join(r.PygitDir, "index")
}

// ReadStaging loads the index. A missing file yields an empty Staging.
func (r *Repo) ReadStaging() (*Staging, error) {
	data, err := os.ReadFile(r.indexPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Staging{Entries: make(map[string]*StagingEntry)}, nil
		}
		return nil, fmt.Errorf("read staging: %w", err)
	}

	var stg Staging
	if err := json.Unmarshal(data, &stg); err != nil {
		return nil, fmt.Errorf("read staging: %w: %v", ErrIndexMalformed, err)
	}
	if stg.Entries == nil {
		stg.Entries = make(map[string]*StagingEntry)
	}
	return &stg, nil
}

// WriteStaging atomically persists the index via temp-file + rename.
func (r *Repo) WriteStaging(s *Staging) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("write staging: %w", err)
	}

	tmp, err := os.CreateTemp(r.PygitDir, ".index-tmp-*")
	if err != nil {
		return fmt.Errorf("write staging: tempfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write staging: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write staging: %w", err)
	}
	if err := os.Rename(tmpName, r.indexPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write staging: %w", err)
	}
	return nil
}

// Add stages path, which is relative to RootDir. If path is a directory,
// it recurses, skipping ignored paths. A file whose content and mode
// already match its existing index entry is left untouched: idempotent add.
func (r *Repo) Add(path string) error {
	stg, err := r.ReadStaging()
	if err != nil {
		return fmt.Errorf("add %q: %w", path, err)
	}
	ic, err := r.loadIgnoreChecker()
	if err != nil {
		return fmt.Errorf("add %q: %w", path, err)
	}

	absRoot := filepath.Join(r.RootDir, filepath.FromSlash(path))
	err = filepath.WalkDir(absRoot, func(abs string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(r.RootDir, abs)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if ic.isIgnoredEntry(rel, d.IsDir()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		return r.stageFile(stg, rel, abs)
	})
	if err != nil {
		return fmt.Errorf("add %q: %w", path, err)
	}

	return r.WriteStaging(stg)
}

// stageFile hashes and stores a single file's content, then inserts or
// updates its StagingEntry. A file whose content hash and mode already
// match the existing entry leaves that entry unchanged.
func (r *Repo) stageFile(stg *Staging, relPath, absPath string) error {
	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("stat %q: %w", relPath, err)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("read %q: %w", relPath, err)
	}

	mode := fileModeString(info.Mode())
	if existing, ok := stg.Entries[relPath]; ok {
		if existing.ObjectID == objects.HashObject(objects.TypeBlob, content) && existing.Mode == mode {
			return nil
		}
	}

	id, err := r.Store.PutBlob(&objects.Blob{Data: content})
	if err != nil {
		return fmt.Errorf("put blob %q: %w", relPath, err)
	}

	stg.Entries[relPath] = &StagingEntry{
		Path:     relPath,
		ObjectID: id,
		MTime:    info.ModTime().Unix(),
		Size:     info.Size(),
		Mode:     mode,
	}
	return nil
}

// Remove deletes path's index entry, if any.
func (r *Repo) Remove(path string) error {
	stg, err := r.ReadStaging()
	if err != nil {
		return fmt.Errorf("remove %q: %w", path, err)
	}
	delete(stg.Entries, filepath.ToSlash(path))
	return r.WriteStaging(stg)
}

func fileModeString(m os.FileMode) string {
	if m&0o111 != 0 {
		return string(objects.ModeExecutable)
	}
	return string(objects.ModeFile)
}
