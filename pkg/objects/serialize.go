package objects

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Blob
// ---------------------------------------------------------------------------

// MarshalBlob returns the blob payload: the raw bytes, verbatim.
func MarshalBlob(b *Blob) []byte {
	return append([]byte(nil), b.Data...)
}

// UnmarshalBlob builds a Blob from a payload produced by MarshalBlob.
func UnmarshalBlob(data []byte) (*Blob, error) {
	return &Blob{Data: append([]byte(nil), data...)}, nil
}

// ---------------------------------------------------------------------------
// Tree
// ---------------------------------------------------------------------------

// MarshalTree serializes entries sorted by Name, each as
// "<mode-octal> <name>\0<20 raw digest bytes>", concatenated with no
// separator between entries. Sorting makes the result deterministic
// regardless of the order entries were constructed in.
func MarshalTree(t *Tree) ([]byte, error) {
	entries := make([]TreeEntry, len(t.Entries))
	copy(entries, t.Entries)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	seen := make(map[string]struct{}, len(entries))
	var buf bytes.Buffer
	for _, e := range entries {
		if strings.Contains(e.Name, "/") {
			return nil, fmt.Errorf("objects: tree entry name %q contains '/'", e.Name)
		}
		if _, dup := seen[e.Name]; dup {
			return nil, fmt.Errorf("objects: duplicate tree entry name %q", e.Name)
		}
		seen[e.Name] = struct{}{}

		fmt.Fprintf(&buf, "%s %s\x00", string(e.Mode), e.Name)
		buf.Write(e.ID[:])
	}
	return buf.Bytes(), nil
}

// UnmarshalTree parses a payload produced by MarshalTree.
func UnmarshalTree(data []byte) (*Tree, error) {
	t := &Tree{}
	rest := data
	for len(rest) > 0 {
		nul := bytes.IndexByte(rest, 0)
		if nul < 0 {
			return nil, fmt.Errorf("objects: tree entry missing NUL separator")
		}
		header := string(rest[:nul])
		sp := strings.IndexByte(header, ' ')
		if sp < 0 {
			return nil, fmt.Errorf("objects: malformed tree entry header %q", header)
		}
		mode := FileMode(header[:sp])
		name := header[sp+1:]

		rest = rest[nul+1:]
		if len(rest) < HashSize {
			return nil, fmt.Errorf("objects: tree entry %q truncated digest", name)
		}
		var id Hash
		copy(id[:], rest[:HashSize])
		rest = rest[HashSize:]

		t.Entries = append(t.Entries, TreeEntry{Name: name, Mode: mode, ID: id})
	}
	return t, nil
}

// ---------------------------------------------------------------------------
// Commit
// ---------------------------------------------------------------------------

func formatSignature(s Signature) string {
	return fmt.Sprintf("%s %s %d %s", s.Name, s.Email, s.Seconds, s.TZOffset)
}

// parseSignature takes email, timestamp and offset from the end of the
// line, so a name containing spaces is kept whole.
func parseSignature(line string) (Signature, error) {
	fields := strings.Split(line, " ")
	n := len(fields)
	if n < 4 {
		return Signature{}, fmt.Errorf("objects: malformed signature %q", line)
	}
	seconds, err := strconv.ParseInt(fields[n-2], 10, 64)
	if err != nil {
		return Signature{}, fmt.Errorf("objects: malformed signature timestamp %q: %w", fields[n-2], err)
	}
	return Signature{Name: strings.Join(fields[:n-3], " "), Email: fields[n-3], Seconds: seconds, TZOffset: fields[n-1]}, nil
}

// MarshalCommit serializes a Commit in the exact line order spec'd:
// tree, zero-or-one parent, author, committer, a blank line, then the
// message bytes verbatim (not newline-normalized).
func MarshalCommit(c *Commit) ([]byte, error) {
	if len(c.ParentIDs) > 1 {
		return nil, fmt.Errorf("objects: commit has %d parents, merge commits are out of scope", len(c.ParentIDs))
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", c.TreeID)
	for _, p := range c.ParentIDs {
		fmt.Fprintf(&buf, "parent %s\n", p)
	}
	fmt.Fprintf(&buf, "author %s\n", formatSignature(c.Author))
	fmt.Fprintf(&buf, "committer %s\n", formatSignature(c.Committer))
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes(), nil
}

// UnmarshalCommit parses a payload produced by MarshalCommit.
func UnmarshalCommit(data []byte) (*Commit, error) {
	idx := bytes.Index(data, []byte("\n\n"))
	if idx < 0 {
		return nil, fmt.Errorf("objects: commit missing header/message separator")
	}
	header := string(data[:idx])
	message := string(data[idx+2:])

	c := &Commit{Message: message}
	for _, line := range strings.Split(header, "\n") {
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("objects: malformed commit header line %q", line)
		}
		switch key {
		case "tree":
			id, err := ParseHash(val)
			if err != nil {
				return nil, fmt.Errorf("objects: commit tree: %w", err)
			}
			c.TreeID = id
		case "parent":
			id, err := ParseHash(val)
			if err != nil {
				return nil, fmt.Errorf("objects: commit parent: %w", err)
			}
			c.ParentIDs = append(c.ParentIDs, id)
		case "author":
			sig, err := parseSignature(val)
			if err != nil {
				return nil, fmt.Errorf("objects: commit author: %w", err)
			}
			c.Author = sig
		case "committer":
			sig, err := parseSignature(val)
			if err != nil {
				return nil, fmt.Errorf("objects: commit committer: %w", err)
			}
			c.Committer = sig
		default:
			return nil, fmt.Errorf("objects: unknown commit header key %q", key)
		}
	}
	if len(c.ParentIDs) > 1 {
		return nil, fmt.Errorf("objects: commit has %d parents, merge commits are out of scope", len(c.ParentIDs))
	}
	return c, nil
}
