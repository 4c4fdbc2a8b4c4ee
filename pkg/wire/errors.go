package wire

import (
	"errors"
	"fmt"

	"pygit/pkg/objects"
)

// Sentinel errors the wire client and server distinguish with errors.Is.
var (
	ErrNonFastForward = errors.New("update is not a fast-forward")
	ErrRefRaceLost    = errors.New("ref changed concurrently")
	ErrCorrupt        = errors.New("object failed hash verification")
	ErrRepoNotFound   = errors.New("repo not found")
	ErrProtocol       = errors.New("protocol violation")
)

// NonFastForwardError reports a rejected push: the remote's current tip
// is not an ancestor of the commit the client tried to push.
type NonFastForwardError struct {
	Branch string
	Local  objects.Hash
	Remote objects.Hash
}

func (e *NonFastForwardError) Error() string {
	return fmt.Sprintf("push %s: remote tip %s is not an ancestor of local tip %s", e.Branch, e.Remote, e.Local)
}

func (e *NonFastForwardError) Unwrap() error { return ErrNonFastForward }

// CorruptObjectError reports an object whose bytes didn't rehash to the
// id it was sent under.
type CorruptObjectError struct {
	ID     objects.Hash
	Actual objects.Hash
}

func (e *CorruptObjectError) Error() string {
	return fmt.Sprintf("object %s: rehashed to %s", e.ID, e.Actual)
}

func (e *CorruptObjectError) Unwrap() error { return ErrCorrupt }
