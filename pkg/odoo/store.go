package odoo

import (
	"slices"
	"sort"

	"github.com/matzehuels/odoomig/pkg/feed"
	"github.com/matzehuels/odoomig/pkg/manifest"
)

// Module is the merged record of one Odoo module. Children are the modules
// depending on it, in the order they were discovered.
type Module struct {
	Name          string   `json:"name"`
	Children      []string `json:"children"`
	DatabaseState State    `json:"database_state,omitempty"`
	ManifestState State    `json:"manifest_state,omitempty"`
	State         State    `json:"state"`
	License       string   `json:"license,omitempty"`
	Application   bool     `json:"application"`
	Category      string   `json:"category,omitempty"`
	Submodule     string   `json:"submodule,omitempty"`
	Summary       string   `json:"summary,omitempty"`
	Version       string   `json:"version,omitempty"`
	AutoInstall   bool     `json:"auto_install,omitempty"`
}

// Store holds modules keyed by name and remembers insertion order, which is
// the order graphs are built in.
type Store struct {
	order   []string
	modules map[string]*Module
}

// NewStore layers the database rows, then the manifests, and resolves the
// final state of every module with [Merge].
func NewStore(rows []feed.ModuleRow, manifests []manifest.Manifest) (*Store, error) {
	s := &Store{modules: make(map[string]*Module)}
	s.addRows(rows)
	s.addManifests(manifests)
	if err := s.resolve(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewStoreFromModules rebuilds a store from previously resolved modules, as
// found in a snapshot. States are resolved again from the database and
// manifest states.
func NewStoreFromModules(mods []Module) (*Store, error) {
	s := &Store{modules: make(map[string]*Module, len(mods))}
	for _, m := range mods {
		m.Children = slices.Clone(m.Children)
		if prev, ok := s.modules[m.Name]; ok {
			*prev = m
			continue
		}
		s.insert(&m)
	}
	for _, m := range mods {
		for _, c := range m.Children {
			s.ensure(c)
		}
	}
	if err := s.resolve(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) addRows(rows []feed.ModuleRow) {
	for _, r := range rows {
		if _, ok := s.modules[r.ParentName]; !ok {
			s.insert(&Module{
				Name:          r.ParentName,
				DatabaseState: State(r.ParentState),
				License:       r.ParentLicense,
				Application:   r.ParentApplication,
			})
		}
		parent := s.modules[r.ParentName]
		if slices.Contains(parent.Children, r.ChildName) {
			continue
		}
		parent.Children = append(parent.Children, r.ChildName)
		if _, ok := s.modules[r.ChildName]; !ok {
			s.insert(&Module{
				Name:          r.ChildName,
				DatabaseState: State(r.ChildState),
				License:       r.ChildLicense,
				Application:   r.ChildApplication,
			})
		}
	}
}

func (s *Store) addManifests(manifests []manifest.Manifest) {
	for _, m := range manifests {
		mod := s.ensure(m.Name)
		mod.ManifestState = StateUninstallable
		if m.Deployable() {
			mod.ManifestState = StateInstallable
		}
		mod.License = m.License
		mod.Application = m.Application
		mod.Category = m.Category
		mod.Submodule = m.Path
		mod.Summary = m.Summary
		mod.Version = m.Version
		mod.AutoInstall = m.AutoInstall
		for _, dep := range m.Depends {
			s.addChild(dep, m.Name)
		}
	}
}

func (s *Store) resolve() error {
	for _, name := range s.order {
		m := s.modules[name]
		st, err := Merge(m.DatabaseState, m.ManifestState)
		if err != nil {
			return err
		}
		m.State = st
	}
	return nil
}

func (s *Store) insert(m *Module) {
	if m.Children == nil {
		m.Children = []string{}
	}
	s.modules[m.Name] = m
	s.order = append(s.order, m.Name)
}

func (s *Store) ensure(name string) *Module {
	if m, ok := s.modules[name]; ok {
		return m
	}
	m := &Module{Name: name}
	s.insert(m)
	return m
}

// addChild records child as depending on parent. Both are created when
// missing so that every child has a node of its own.
func (s *Store) addChild(parent, child string) {
	p := s.ensure(parent)
	s.ensure(child)
	if !slices.Contains(p.Children, child) {
		p.Children = append(p.Children, child)
	}
}

// Get returns the module called name.
func (s *Store) Get(name string) (*Module, bool) {
	m, ok := s.modules[name]
	return m, ok
}

// Len returns the number of modules.
func (s *Store) Len() int { return len(s.order) }

// Modules returns every module in insertion order.
func (s *Store) Modules() []*Module {
	out := make([]*Module, len(s.order))
	for i, name := range s.order {
		out[i] = s.modules[name]
	}
	return out
}

// Names returns the module names, sorted.
func (s *Store) Names() []string {
	names := slices.Clone(s.order)
	sort.Strings(names)
	return names
}

// Parents returns the modules listing name as a child, sorted. These are the
// dependencies the database and the manifests declare for name.
func (s *Store) Parents(name string) []string {
	var out []string
	for _, p := range s.order {
		if slices.Contains(s.modules[p].Children, name) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// BuildNodes returns the store in the shape [Build] consumes.
func (s *Store) BuildNodes() []BuildNode {
	out := make([]BuildNode, len(s.order))
	for i, name := range s.order {
		m := s.modules[name]
		out[i] = BuildNode{Name: name, Children: m.Children, State: m.State}
	}
	return out
}
