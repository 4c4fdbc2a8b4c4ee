package objects

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// HashSize is the digest width in bytes (160 bits).
const HashSize = sha1.Size

// Hash is a content digest. Identity of an object is its Hash.
type Hash [HashSize]byte

// ZeroHash is the absence of a hash (e.g. "no parent", "no old ref").
var ZeroHash Hash

// String returns the lowercase 40-character hex encoding.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// ParseHash decodes a 40-character hex string into a Hash.
func ParseHash(s string) (Hash, error) {
	var h Hash
	if len(s) != HashSize*2 {
		return h, fmt.Errorf("objects: hash %q has length %d, want %d", s, len(s), HashSize*2)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("objects: hash %q is not hex: %w", s, err)
	}
	copy(h[:], b)
	return h, nil
}

// HashBytes computes the raw SHA-1 digest of data, with no envelope.
func HashBytes(data []byte) Hash {
	sum := sha1.Sum(data)
	return Hash(sum)
}

// HashObject computes the digest of the framed envelope "type len\0payload",
// the identity of a stored object.
func HashObject(t Type, payload []byte) Hash {
	h := sha1.New()
	fmt.Fprintf(h, "%s %d\x00", t, len(payload))
	h.Write(payload)
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}
