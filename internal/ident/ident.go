// Package ident resolves committer identity from the environment. It is
// deliberately thin: a two-variable lookup with no configuration file
// fallback.
package ident

import (
	"fmt"
	"os"
)

// Identity is an author/committer name and email pair.
type Identity struct {
	Name  string
	Email string
}

// ErrMissing is returned by FromEnv when either environment variable is
// unset or empty.
var ErrMissing = fmt.Errorf("committer identity is not configured")

// FromEnv reads PYGIT_AUTHOR_NAME and PYGIT_AUTHOR_EMAIL. Both must be
// set and non-empty.
func FromEnv() (Identity, error) {
	name := os.Getenv("PYGIT_AUTHOR_NAME")
	email := os.Getenv("PYGIT_AUTHOR_EMAIL")
	if name == "" || email == "" {
		return Identity{}, ErrMissing
	}
	return Identity{Name: name, Email: email}, nil
}
