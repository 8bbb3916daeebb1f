// Package feed reads the raw dependency rows that module and view graphs are
// built from.
//
// A [Source] answers two questions about an Odoo database: which modules
// depend on which ([Source.ModuleEdges]) and which views inherit from which
// ([Source.ViewEdges]). [Psql] asks the database through a psql subprocess,
// [Static] serves fixed rows (tests, snapshots), and [Cached] puts a
// [cache.Cache] in front of any other source.
//
// Rows are returned verbatim. Merging them with manifests and resolving
// states happens in package odoo.
package feed

import (
	"context"
	"slices"
)

// Source provides dependency rows for a database.
type Source interface {
	ModuleEdges(ctx context.Context, database string) ([]ModuleRow, error)
	ViewEdges(ctx context.Context, database string) ([]ViewRow, error)
}

// Static is a Source serving fixed rows regardless of the database name.
// If Err is set both methods return it.
type Static struct {
	Modules []ModuleRow
	Views   []ViewRow
	Err     error
}

// ModuleEdges implements Source.
func (s *Static) ModuleEdges(ctx context.Context, database string) ([]ModuleRow, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return slices.Clone(s.Modules), nil
}

// ViewEdges implements Source.
func (s *Static) ViewEdges(ctx context.Context, database string) ([]ViewRow, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return slices.Clone(s.Views), nil
}

var _ Source = (*Static)(nil)
