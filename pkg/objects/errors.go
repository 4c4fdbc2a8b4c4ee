package objects

import (
	"errors"
	"fmt"
)

// ErrObjectMissing is returned by Store.Get when no object exists for
// the requested hash.
var ErrObjectMissing = errors.New("object missing")

// ErrCorrupt is returned by Store.Get when the stored bytes rehash to a
// digest different from the one used to look them up.
var ErrCorrupt = errors.New("object store corrupt")

// MissingError wraps ErrObjectMissing with the hash that was requested.
type MissingError struct {
	ID Hash
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("object %s: missing", e.ID)
}

func (e *MissingError) Unwrap() error { return ErrObjectMissing }

// CorruptError wraps ErrCorrupt with the hash whose stored bytes failed
// to rehash to themselves.
type CorruptError struct {
	ID     Hash
	Actual Hash
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("object %s: corrupt, stored bytes rehash to %s", e.ID, e.Actual)
}

func (e *CorruptError) Unwrap() error { return ErrCorrupt }
