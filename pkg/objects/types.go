package objects

// Type identifies the kind of object stored in the object store.
type Type string

const (
	TypeBlob   Type = "blob"
	TypeTree   Type = "tree"
	TypeCommit Type = "commit"
)

// FileMode is the canonical small set of tree-entry modes.
type FileMode string

const (
	ModeDir        FileMode = "40000"
	ModeFile       FileMode = "100644"
	ModeExecutable FileMode = "100755"
)

// Blob holds the raw bytes of a single file. No filename or mode is
// recorded in the blob itself; those live in the parent Tree entry.
type Blob struct {
	Data []byte
}

// TreeEntry is one entry of a Tree: a single path component, its mode,
// and the hash of the blob (file) or tree (directory) it points to.
type TreeEntry struct {
	Name string
	Mode FileMode
	ID   Hash
}

// IsDir reports whether the entry references a subtree.
func (e TreeEntry) IsDir() bool {
	return e.Mode == ModeDir
}

// Tree is a directory snapshot: a set of entries, unique and sorted by
// Name. Two trees with the same entry set serialize to identical bytes.
type Tree struct {
	Entries []TreeEntry
}

// Signature identifies a commit's author or committer.
type Signature struct {
	Name     string
	Email    string
	Seconds  int64  // Unix seconds
	TZOffset string // e.g. "+0000"
}

// Commit is a snapshot + history edge: one tree, zero or one parent
// (merge commits are out of scope), author/committer, and a message.
type Commit struct {
	TreeID    Hash
	ParentIDs []Hash // empty, or a single entry in this system
	Author    Signature
	Committer Signature
	Message   string
}
