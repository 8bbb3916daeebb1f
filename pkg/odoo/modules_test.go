package odoo

import (
	"context"
	"encoding/json"
	"reflect"
	"slices"
	"testing"

	"github.com/matzehuels/odoomig/pkg/errors"
	"github.com/matzehuels/odoomig/pkg/feed"
	"github.com/matzehuels/odoomig/pkg/manifest"
)

func mustModules(t *testing.T, s *Store, opts Options) *Modules {
	t.Helper()
	m, err := NewModules(s, opts)
	if err != nil {
		t.Fatalf("NewModules() error = %v", err)
	}
	return m
}

// saleChain is base -> sale -> sale_management, everything installable.
func saleChain(t *testing.T) *Modules {
	return mustModules(t, mustStore(t,
		[]feed.ModuleRow{
			row("base", "installable", "sale", "installable"),
			row("sale", "installable", "sale_management", "installable"),
		},
		installable("base"),
		installable("sale", "base"),
		installable("sale_management", "sale"),
	), Options{})
}

func TestModules_SaleChain(t *testing.T) {
	m := saleChain(t)

	if got := m.Leaves(); !slices.Equal(got, []string{"sale_management"}) {
		t.Errorf("Leaves() = %v, want [sale_management]", got)
	}
	deps, err := m.Dependencies("sale")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"sale", "sale_management"}; !slices.Equal(deps, want) {
		t.Errorf("Dependencies(sale) = %v, want %v", deps, want)
	}
	if st, _ := m.State("sale"); st != StateInstallable {
		t.Errorf("State(sale) = %q, want installable", st)
	}
}

func TestModules_NotFound(t *testing.T) {
	m := saleChain(t)
	if _, err := m.Dependencies("crm"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Dependencies(crm) error = %v, want NOT_FOUND", err)
	}
	if _, err := m.State("crm"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("State(crm) error = %v, want NOT_FOUND", err)
	}
}

func TestModules_Exclusions(t *testing.T) {
	s := mustStore(t,
		[]feed.ModuleRow{
			row("base", "installed", "sale", "installed"),
			row("sale", "installed", "sale_management", "installed"),
			row("base", "installed", "test_sale", "installed"),
		},
		installable("base"),
		installable("sale", "base"),
		installable("sale_management", "sale"),
		installable("test_sale", "base"),
	)

	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{"tests skipped by default", Options{}, []string{"base", "sale", "sale_management"}},
		{"tests included", Options{IncludeTests: true}, []string{"base", "sale", "sale_management", "test_sale"}},
		{"module excluded", Options{ExcludeModules: []string{"sale"}}, []string{"base", "sale_management"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mustModules(t, s, tt.opts)
			got := m.Names()
			slices.Sort(got)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Names() = %v, want %v", got, tt.want)
			}
		})
	}

	m := mustModules(t, s, Options{ExcludeModules: []string{"sale"}})
	if !m.Graph().HasEdge("base", "sale_management") {
		t.Error("splicing sale lost the base -> sale_management path")
	}
}

func TestModules_TransitiveEdgesRemoved(t *testing.T) {
	s := mustStore(t, nil,
		installable("base"),
		installable("sale", "base"),
		installable("sale_management", "base", "sale"),
	)
	m := mustModules(t, s, Options{})
	if m.Graph().HasEdge("base", "sale_management") {
		t.Error("transitive edge base -> sale_management kept")
	}

	got := m.OptimizedDependencies("")
	want := map[string]DependencyChange{
		"sale_management": {Actual: []string{"base", "sale"}, Optimized: []string{"sale"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("OptimizedDependencies() = %v, want %v", got, want)
	}
	if got := m.OptimizedDependencies("odoo/local-src"); len(got) != 0 {
		t.Errorf("OptimizedDependencies(odoo/local-src) = %v, want none", got)
	}
	if got := m.OptimizedDependencies("odoo/src/addons/sale_management"); len(got) != 1 {
		t.Errorf("OptimizedDependencies(module path) = %v, want sale_management", got)
	}
}

// upgradeGraph:
//
//	base -> sale -> sale_management
//	     |      \-> sale_stock
//	     \-> crm
func upgradeGraph(t *testing.T, baseState, crmState string) *Modules {
	return mustModules(t, mustStore(t,
		[]feed.ModuleRow{
			row("base", baseState, "sale", "to upgrade"),
			row("sale", "to upgrade", "sale_management", "to upgrade"),
			row("sale", "to upgrade", "sale_stock", "to upgrade"),
			row("base", baseState, "crm", crmState),
		},
		installable("base"),
		installable("sale", "base"),
		installable("sale_management", "sale"),
		installable("sale_stock", "sale"),
		installable("crm", "base"),
	), Options{})
}

func TestModules_ToUpdate(t *testing.T) {
	tests := []struct {
		base, crm string
		want      []string
	}{
		{"installed", "to remove", []string{"sale"}},
		{"installed", "to upgrade", []string{"crm", "sale"}},
		{"to upgrade", "to upgrade", []string{"base"}},
	}
	for _, tt := range tests {
		t.Run(tt.base+"/"+tt.crm, func(t *testing.T) {
			if got := upgradeGraph(t, tt.base, tt.crm).ToUpdate(); !slices.Equal(got, tt.want) {
				t.Errorf("ToUpdate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestModules_ToRemoveAndInstall(t *testing.T) {
	m := upgradeGraph(t, "installed", "to remove")
	if got := m.ToRemove(); !slices.Equal(got, []string{"crm"}) {
		t.Errorf("ToRemove() = %v, want [crm]", got)
	}
	if got := m.ToInstall(); got == nil || len(got) != 0 {
		t.Errorf("ToInstall() = %#v, want empty", got)
	}
}

func TestModules_Installed(t *testing.T) {
	m := mustModules(t, mustStore(t,
		[]feed.ModuleRow{
			row("base", "installed", "sale", "installed"),
			row("base", "installed", "crm", "to upgrade"),
		},
		installable("base"),
		installable("sale", "base"),
		installable("crm", "base"),
	), Options{})

	if got := m.Installed(false); !slices.Equal(got, []string{"base", "sale"}) {
		t.Errorf("Installed(false) = %v", got)
	}
	if got := m.Installed(true); !slices.Equal(got, []string{"sale"}) {
		t.Errorf("Installed(true) = %v", got)
	}
}

func TestModules_Difference(t *testing.T) {
	a := mustModules(t, mustStore(t,
		[]feed.ModuleRow{row("base", "installed", "crm", "installed")},
		installable("base"),
		installable("crm", "base"),
	), Options{})
	b := mustModules(t, mustStore(t,
		[]feed.ModuleRow{
			row("base", "installed", "crm", "installed"),
			row("base", "installed", "hr", "installed"),
		},
		installable("base"),
		uninstallable("crm", "base"),
		installable("hr", "base"),
	), Options{})

	data, err := json.Marshal(a.Difference(b))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"added":["hr"],"removed":[],"changed":{"crm":{"old_state":"installed","new_state":"to remove"}}}`
	if string(data) != want {
		t.Errorf("Difference() = %s, want %s", data, want)
	}

	if d := a.Difference(a); !d.Empty() || d.Added == nil || d.Removed == nil || d.Changed == nil {
		t.Errorf("Difference(self) = %#v, want empty non-nil fields", d)
	}
}

func TestLowestCommonAncestors(t *testing.T) {
	g := upgradeGraph(t, "installed", "to remove").Graph()
	tests := []struct {
		name  string
		names []string
		keep  func(string) bool
		want  []string
	}{
		{"siblings fold into parent", []string{"sale_stock", "sale_management"}, nil, []string{"sale"}},
		{"base short-circuits", []string{"crm", "sale_management"}, nil, []string{"base"}},
		{"filter drops candidates", []string{"crm", "sale_management"}, func(n string) bool { return n != "crm" }, []string{"sale_management"}},
		{"unknown names ignored", []string{"nope"}, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LowestCommonAncestors(g, tt.names, tt.keep); !slices.Equal(got, tt.want) {
				t.Errorf("LowestCommonAncestors(%v) = %v, want %v", tt.names, got, tt.want)
			}
		})
	}
}

func TestLowestCommonAncestors_DisjointGroups(t *testing.T) {
	s := mustStore(t, nil,
		installable("web"),
		installable("web_tour", "web"),
		installable("web_editor", "web"),
		installable("mail"),
		installable("mail_bot", "mail"),
	)
	g := mustModules(t, s, Options{}).Graph()
	got := LowestCommonAncestors(g, []string{"web_tour", "mail_bot", "web_editor"}, nil)
	if want := []string{"mail_bot", "web"}; !slices.Equal(got, want) {
		t.Errorf("LowestCommonAncestors() = %v, want %v", got, want)
	}
}

func TestLoad(t *testing.T) {
	src := &feed.Static{Modules: []feed.ModuleRow{row("base", "installed", "sale", "installed")}}
	m, err := Load(context.Background(), src, "odoodb", []manifest.Manifest{installable("base"), installable("sale", "base")}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got := m.Graph().Meta().String(MetaGraphName); got != "odoodb" {
		t.Errorf("graph name = %q, want odoodb", got)
	}
	if n, _ := m.Graph().Node("sale"); n.Meta.String(MetaFillColor) != "white" {
		t.Errorf("sale fillcolor = %q, want white", n.Meta.String(MetaFillColor))
	}

	boom := errors.New(errors.ErrCodeExternalFeed, "psql failed")
	if _, err := Load(context.Background(), &feed.Static{Err: boom}, "odoodb", nil, Options{}); !errors.Is(err, errors.ErrCodeExternalFeed) {
		t.Errorf("Load() error = %v, want EXTERNAL_FEED", err)
	}
}
