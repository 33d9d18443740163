// Package artifact persists the embedded catalog (products plus their
// vectors) so restarts can rebuild the index without re-encoding fifty
// thousand titles. The file is a plain JSON snapshot tagged with the
// encoder that produced it; a snapshot from a different encoder or
// dimension is rejected rather than silently mixed.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"profitgen/internal/domain"
)

// Snapshot is the on-disk artifact format.
type Snapshot struct {
	Encoder   string           `json:"encoder"`
	Dimension int              `json:"dimension"`
	Products  []domain.Product `json:"products"`
	Vectors   [][]float64      `json:"vectors"`
}

// Save writes the snapshot, creating directories as needed.
func Save(path string, snap *Snapshot) error {
	if len(snap.Products) != len(snap.Vectors) {
		return fmt.Errorf("save artifact: %d products but %d vectors", len(snap.Products), len(snap.Vectors))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads a snapshot. wantEncoder guards against mixing vectors
// from different embedding models; pass "" to skip the check.
func Load(path, wantEncoder string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("load artifact: %w", err)
	}
	if len(snap.Products) == 0 || len(snap.Products) != len(snap.Vectors) {
		return nil, fmt.Errorf("load artifact: malformed snapshot in %s", path)
	}
	if wantEncoder != "" && snap.Encoder != wantEncoder {
		return nil, fmt.Errorf("load artifact: snapshot built with encoder %q, want %q", snap.Encoder, wantEncoder)
	}
	return &snap, nil
}
