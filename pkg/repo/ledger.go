package repo

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"pygit/pkg/objects"
)

// trackingLedgerPath is the file recording the tree materialized by the
// current branch tip: a path -> object_id map, updated after every
// commit and checkout.
func (r *Repo) trackingLedgerPath() string {
	return filepath.Join(r.PygitDir, "tracking")
}

// readTrackingLedger loads the ledger. A missing file yields an empty map.
func (r *Repo) readTrackingLedger() (map[string]objects.Hash, error) {
	data, err := os.ReadFile(r.trackingLedgerPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]objects.Hash), nil
		}
		return nil, fmt.Errorf("read tracking ledger: %w", err)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("read tracking ledger: %w", err)
	}
	ledger := make(map[string]objects.Hash, len(raw))
	for path, hex := range raw {
		id, err := objects.ParseHash(hex)
		if err != nil {
			return nil, fmt.Errorf("read tracking ledger: %q: %w", path, err)
		}
		ledger[path] = id
	}
	return ledger, nil
}

// writeTrackingLedger atomically persists the ledger.
func (r *Repo) writeTrackingLedger(ledger map[string]objects.Hash) error {
	raw := make(map[string]string, len(ledger))
	for path, id := range ledger {
		raw[path] = id.String()
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("write tracking ledger: %w", err)
	}

	tmp, err := os.CreateTemp(r.PygitDir, ".tracking-tmp-*")
	if err != nil {
		return fmt.Errorf("write tracking ledger: tempfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write tracking ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write tracking ledger: %w", err)
	}
	if err := os.Rename(tmpName, r.trackingLedgerPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write tracking ledger: %w", err)
	}
	return nil
}
