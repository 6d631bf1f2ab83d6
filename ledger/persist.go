package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"log"
)

// =============================================================================
// PERSISTER - Side-effecting snapshot collaborator
// =============================================================================

// Persister saves and loads named, versioned snapshots of store state.
// Implementations: store.Memory (tests/dev), sqlite.Store (production).
type Persister interface {
	// Save overwrites the snapshot stored under name.
	Save(ctx context.Context, name string, version int, payload []byte) error

	// Load returns the snapshot stored under name. A missing snapshot is
	// reported with ErrSnapshotNotFound.
	Load(ctx context.Context, name string) (version int, payload []byte, err error)
}

// ErrSnapshotNotFound is returned by a Persister when nothing is stored under
// a name. Store.Load treats it as "use the default".
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotSpec names one persisted collection and its format version. A
// version mismatch on load resets the collection to its default.
type SnapshotSpec struct {
	Name    string
	Version int
}

var (
	SnapshotShop      = SnapshotSpec{Name: "shop_settings", Version: 3}
	SnapshotDraft     = SnapshotSpec{Name: "last_receipt", Version: 5}
	SnapshotCatalog   = SnapshotSpec{Name: "inventory", Version: 1}
	SnapshotHistory   = SnapshotSpec{Name: "history", Version: 1}
	SnapshotMovements = SnapshotSpec{Name: "movements", Version: 1}
)

// AllSnapshots lists every collection in load order.
var AllSnapshots = []SnapshotSpec{
	SnapshotShop, SnapshotDraft, SnapshotCatalog, SnapshotHistory, SnapshotMovements,
}

func saveSnapshot(ctx context.Context, p Persister, spec SnapshotSpec, value any) error {
	if p == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return &PersistError{Snapshot: spec.Name, Err: err}
	}
	if err := p.Save(ctx, spec.Name, spec.Version, payload); err != nil {
		log.Printf("Warning: %s snapshot not saved: %v", spec.Name, err)
		return &PersistError{Snapshot: spec.Name, Err: err}
	}
	return nil
}

// loadSnapshot decodes the named snapshot into dst. It reports false when the
// default should be kept: missing, stale version, or undecodable payload.
// Only a failing Persister is returned as an error.
func loadSnapshot(ctx context.Context, p Persister, spec SnapshotSpec, dst any) (bool, error) {
	version, payload, err := p.Load(ctx, spec.Name)
	if errors.Is(err, ErrSnapshotNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if version != spec.Version {
		log.Printf("Warning: %s snapshot has version %d, want %d; using default", spec.Name, version, spec.Version)
		return false, nil
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		log.Printf("Warning: %s snapshot unreadable, using default: %v", spec.Name, err)
		return false, nil
	}
	return true, nil
}
