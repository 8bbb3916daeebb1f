package io

import (
	"bytes"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/odoomig/pkg/errors"
	"github.com/matzehuels/odoomig/pkg/feed"
	"github.com/matzehuels/odoomig/pkg/manifest"
	"github.com/matzehuels/odoomig/pkg/odoo"
)

func testStore(t *testing.T) *odoo.Store {
	t.Helper()
	rows := []feed.ModuleRow{
		{ParentName: "base", ParentState: "installed", ChildName: "sale", ChildState: "installed"},
		{ParentName: "sale", ParentState: "installed", ChildName: "sale_management", ChildState: "to upgrade"},
	}
	manifests := []manifest.Manifest{
		{Name: "base", Installable: true},
		{Name: "sale", Installable: true, Depends: []string{"base"}},
		{Name: "sale_management", Installable: true, Depends: []string{"sale"}},
	}
	s, err := odoo.NewStore(rows, manifests)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return s
}

func TestRoundTrip(t *testing.T) {
	snap := NewSnapshot("odoodb", testStore(t))

	var buf bytes.Buffer
	if err := WriteJSON(snap, &buf); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if got.ID != snap.ID || got.Database != "odoodb" || !got.CreatedAt.Equal(snap.CreatedAt) {
		t.Errorf("header = %+v, want %+v", got, snap)
	}

	m, err := got.Graph(odoo.Options{})
	if err != nil {
		t.Fatalf("Graph() error = %v", err)
	}
	if names := m.Names(); !slices.Equal(names, []string{"base", "sale", "sale_management"}) {
		t.Errorf("Names() = %v", names)
	}
	if st, _ := m.State("sale_management"); st != odoo.StateToUpgrade {
		t.Errorf("State(sale_management) = %q, want to upgrade", st)
	}
	if name := m.Graph().Meta().String(odoo.MetaGraphName); name != "odoodb" {
		t.Errorf("graph name = %q, want odoodb", name)
	}
}

func TestReadJSON_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"malformed", `{"version": 1,`},
		{"unknown version", `{"version": 2, "modules": []}`},
		{"missing version", `{"modules": []}`},
		{"nameless module", `{"version": 1, "modules": [{"children": []}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadJSON(strings.NewReader(tt.in)); !errors.Is(err, errors.ErrCodeInvalidFormat) {
				t.Errorf("ReadJSON() error = %v, want INVALID_FORMAT", err)
			}
		})
	}
}

func TestExportImport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	snap := NewSnapshot("odoodb", testStore(t))
	if err := ExportJSON(snap, path); err != nil {
		t.Fatalf("ExportJSON() error = %v", err)
	}
	got, err := ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON() error = %v", err)
	}
	if len(got.Modules) != 3 {
		t.Errorf("len(Modules) = %d, want 3", len(got.Modules))
	}
	if _, err := ImportJSON(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("ImportJSON(missing) error = %v, want INVALID_PATH", err)
	}
}
