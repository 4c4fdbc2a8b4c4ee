package objects

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Store is a content-addressed object store with a 2-character fan-out
// directory layout: objects/ab/cdef0123...
//
// The store is single-writer. Concurrent writers to the same root are
// undefined behavior and out of scope.
type Store struct {
	root  string
	cache *lru.Cache[Hash, cachedObject]
}

type cachedObject struct {
	Type    Type
	Payload []byte
}

// defaultCacheSize bounds the read cache; it has no effect on
// correctness, only on how often objects are re-read from disk.
const defaultCacheSize = 4096

// NewStore creates a Store rooted at dir. The objects/ subdirectory is
// created lazily on first write.
func NewStore(dir string) (*Store, error) {
	c, err := lru.New[Hash, cachedObject](defaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("objects: new store cache: %w", err)
	}
	return &Store{root: dir, cache: c}, nil
}

func (s *Store) objectsDir() string {
	return filepath.Join(s.root, "objects")
}

func (s *Store) objectPath(h Hash) string {
	hex := h.String()
	return filepath.Join(s.objectsDir(), hex[:2], hex[2:])
}

// Exists reports whether the store contains an object with the given hash.
func (s *Store) Exists(h Hash) bool {
	if _, ok := s.cache.Get(h); ok {
		return true
	}
	_, err := os.Stat(s.objectPath(h))
	return err == nil
}

// Put stores payload under the envelope "type len\0payload" and returns
// its content hash. Writing is atomic: temp file + rename on the same
// filesystem. Put is a no-op if the object already exists.
func (s *Store) Put(t Type, payload []byte) (Hash, error) {
	h := HashObject(t, payload)

	if s.Exists(h) {
		return h, nil
	}

	dir := filepath.Join(s.objectsDir(), h.String()[:2])
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ZeroHash, fmt.Errorf("objects: put mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return ZeroHash, fmt.Errorf("objects: put tempfile: %w", err)
	}
	tmpName := tmp.Name()

	envelope := fmt.Sprintf("%s %d\x00", t, len(payload))
	if _, err := tmp.WriteString(envelope); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return ZeroHash, fmt.Errorf("objects: put write: %w", err)
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return ZeroHash, fmt.Errorf("objects: put write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return ZeroHash, fmt.Errorf("objects: put close: %w", err)
	}

	if err := os.Rename(tmpName, s.objectPath(h)); err != nil {
		os.Remove(tmpName)
		return ZeroHash, fmt.Errorf("objects: put rename: %w", err)
	}

	s.cache.Add(h, cachedObject{Type: t, Payload: payload})
	return h, nil
}

// Get retrieves an object by hash. It fails with MissingError if the
// object is absent, and with CorruptError if the stored bytes rehash to
// a digest different from h.
func (s *Store) Get(h Hash) (Type, []byte, error) {
	if co, ok := s.cache.Get(h); ok {
		return co.Type, co.Payload, nil
	}

	raw, err := os.ReadFile(s.objectPath(h))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, &MissingError{ID: h}
		}
		return "", nil, fmt.Errorf("objects: get %s: %w", h, err)
	}

	nul := bytes.IndexByte(raw, 0)
	if nul < 0 {
		return "", nil, fmt.Errorf("objects: get %s: no envelope separator", h)
	}
	header := string(raw[:nul])
	payload := raw[nul+1:]

	typ, _, ok := strings.Cut(header, " ")
	if !ok {
		return "", nil, fmt.Errorf("objects: get %s: malformed envelope %q", h, header)
	}

	actual := HashObject(Type(typ), payload)
	if actual != h {
		return "", nil, &CorruptError{ID: h, Actual: actual}
	}

	s.cache.Add(h, cachedObject{Type: Type(typ), Payload: payload})
	return Type(typ), payload, nil
}

// Iter enumerates the hashes of every object in the store.
func (s *Store) Iter() ([]Hash, error) {
	var ids []Hash
	entries, err := os.ReadDir(s.objectsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("objects: iter: %w", err)
	}

	for _, fanout := range entries {
		if !fanout.IsDir() || len(fanout.Name()) != 2 {
			continue
		}
		sub, err := os.ReadDir(filepath.Join(s.objectsDir(), fanout.Name()))
		if err != nil {
			return nil, fmt.Errorf("objects: iter %s: %w", fanout.Name(), err)
		}
		for _, f := range sub {
			if strings.HasPrefix(f.Name(), ".tmp-") {
				continue
			}
			id, err := ParseHash(fanout.Name() + f.Name())
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ---------------------------------------------------------------------------
// Typed convenience methods
// ---------------------------------------------------------------------------

func (s *Store) PutBlob(b *Blob) (Hash, error) {
	return s.Put(TypeBlob, MarshalBlob(b))
}

func (s *Store) GetBlob(h Hash) (*Blob, error) {
	typ, payload, err := s.Get(h)
	if err != nil {
		return nil, err
	}
	if typ != TypeBlob {
		return nil, fmt.Errorf("objects: %s: expected blob, got %s", h, typ)
	}
	return UnmarshalBlob(payload)
}

func (s *Store) PutTree(t *Tree) (Hash, error) {
	payload, err := MarshalTree(t)
	if err != nil {
		return ZeroHash, err
	}
	return s.Put(TypeTree, payload)
}

func (s *Store) GetTree(h Hash) (*Tree, error) {
	typ, payload, err := s.Get(h)
	if err != nil {
		return nil, err
	}
	if typ != TypeTree {
		return nil, fmt.Errorf("objects: %s: expected tree, got %s", h, typ)
	}
	return UnmarshalTree(payload)
}

func (s *Store) PutCommit(c *Commit) (Hash, error) {
	payload, err := MarshalCommit(c)
	if err != nil {
		return ZeroHash, err
	}
	return s.Put(TypeCommit, payload)
}

func (s *Store) GetCommit(h Hash) (*Commit, error) {
	typ, payload, err := s.Get(h)
	if err != nil {
		return nil, err
	}
	if typ != TypeCommit {
		return nil, fmt.Errorf("objects: %s: expected commit, got %s", h, typ)
	}
	return UnmarshalCommit(payload)
}
