package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/odoomig/pkg/odoo"
)

// FormatVersion is the snapshot format written by this package.
const FormatVersion = 1

// Snapshot is the resolved module store of one database at one time.
type Snapshot struct {
	Version   int           `json:"version"`
	ID        uuid.UUID     `json:"id"`
	Database  string        `json:"database"`
	CreatedAt time.Time     `json:"created_at"`
	Modules   []odoo.Module `json:"modules"`
}

// NewSnapshot copies the modules of s into a new snapshot of database.
func NewSnapshot(database string, s *odoo.Store) *Snapshot {
	snap := &Snapshot{
		Version:   FormatVersion,
		ID:        uuid.New(),
		Database:  database,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Modules:   make([]odoo.Module, 0, s.Len()),
	}
	for _, m := range s.Modules() {
		mod := *m
		if mod.Children == nil {
			mod.Children = []string{}
		}
		snap.Modules = append(snap.Modules, mod)
	}
	return snap
}

// WriteJSON encodes a snapshot as indented JSON and writes it to w.
// The output can be read back with [ReadJSON].
func WriteJSON(snap *Snapshot, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes a snapshot to a JSON file at path.
func ExportJSON(snap *Snapshot, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(snap, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
