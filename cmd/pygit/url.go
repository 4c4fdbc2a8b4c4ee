package main

import (
	"fmt"
	"net/url"
	"strings"
)

// parseRemoteURL splits a pygit://host:port/repo URL into a dial
// address and a repository name.
func parseRemoteURL(rawURL string) (addr, repoName string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("parse remote URL %q: %w", rawURL, err)
	}
	if u.Scheme != "pygit" {
		return "", "", fmt.Errorf("parse remote URL %q: scheme must be %q", rawURL, "pygit")
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("parse remote URL %q: missing host", rawURL)
	}
	repoName = strings.TrimPrefix(u.Path, "/")
	if repoName == "" {
		return "", "", fmt.Errorf("parse remote URL %q: missing repository path", rawURL)
	}
	return u.Host, repoName, nil
}
