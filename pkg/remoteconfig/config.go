// Package remoteconfig persists the repository's named-remote table
// (name -> pygit:// URL) as TOML under the metadata directory.
package remoteconfig

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// ErrRemoteNotFound is returned by URL and Remove when the named remote
// is not configured.
var ErrRemoteNotFound = errors.New("remote not found")

// ErrInvalidURL is returned when a URL does not match the pygit://
// host:port/repo shape.
var ErrInvalidURL = errors.New("invalid remote URL")

// Config is the on-disk shape of the remotes file: a flat name -> URL
// table under a single TOML table header.
type Config struct {
	Remotes map[string]string `toml:"remotes"`
}

// Store wraps read/write access to one repository's remotes file.
type Store struct {
	path string
}

// Open returns a Store backed by path (typically <metadir>/remotes).
func Open(path string) *Store {
	return &Store{path: path}
}

// Read loads the remotes file. A missing file yields an empty Config.
func (s *Store) Read() (*Config, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{Remotes: make(map[string]string)}, nil
		}
		return nil, fmt.Errorf("read remotes: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("read remotes: %w", err)
	}
	if cfg.Remotes == nil {
		cfg.Remotes = make(map[string]string)
	}
	return &cfg, nil
}

// write atomically persists cfg via temp-file + rename.
func (s *Store) write(cfg *Config) error {
	if cfg.Remotes == nil {
		cfg.Remotes = make(map[string]string)
	}

	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("write remotes: encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".remotes-tmp-*")
	if err != nil {
		return fmt.Errorf("write remotes: tempfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(buf.String()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write remotes: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write remotes: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write remotes: %w", err)
	}
	return nil
}

// Add records a named remote, validating the URL's pygit://host:port/repo
// shape first.
func (s *Store) Add(name, rawURL string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("add remote: name is required")
	}
	if err := ValidateURL(rawURL); err != nil {
		return fmt.Errorf("add remote %q: %w", name, err)
	}

	cfg, err := s.Read()
	if err != nil {
		return err
	}
	cfg.Remotes[name] = rawURL
	return s.write(cfg)
}

// Remove deletes a named remote. Fails with ErrRemoteNotFound if absent.
func (s *Store) Remove(name string) error {
	cfg, err := s.Read()
	if err != nil {
		return err
	}
	if _, ok := cfg.Remotes[name]; !ok {
		return fmt.Errorf("remove remote %q: %w", name, ErrRemoteNotFound)
	}
	delete(cfg.Remotes, name)
	return s.write(cfg)
}

// List returns all configured remotes, name -> url.
func (s *Store) List() (map[string]string, error) {
	cfg, err := s.Read()
	if err != nil {
		return nil, err
	}
	return cfg.Remotes, nil
}

// URL returns the URL configured for name. Fails with ErrRemoteNotFound
// if absent.
func (s *Store) URL(name string) (string, error) {
	cfg, err := s.Read()
	if err != nil {
		return "", err
	}
	u, ok := cfg.Remotes[name]
	if !ok {
		return "", fmt.Errorf("remote %q: %w", name, ErrRemoteNotFound)
	}
	return u, nil
}

// ValidateURL checks that rawURL has the shape pygit://host:port/repo.
// It validates shape only, per spec: no reachability or existence check.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "pygit" {
		return fmt.Errorf("%w: scheme must be %q, got %q", ErrInvalidURL, "pygit", u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	if u.Port() == "" {
		return fmt.Errorf("%w: missing port", ErrInvalidURL)
	}
	if _, err := strconv.Atoi(u.Port()); err != nil {
		return fmt.Errorf("%w: non-numeric port %q", ErrInvalidURL, u.Port())
	}
	repoPath := strings.TrimPrefix(u.Path, "/")
	if repoPath == "" {
		return fmt.Errorf("%w: missing repository path", ErrInvalidURL)
	}
	return nil
}

// DefaultPort is the wire protocol's standard TCP port.
const DefaultPort = 8471
