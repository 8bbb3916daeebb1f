package odoo

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/matzehuels/odoomig/pkg/dag"
	"github.com/matzehuels/odoomig/pkg/dag/transform"
	"github.com/matzehuels/odoomig/pkg/errors"
	"github.com/matzehuels/odoomig/pkg/feed"
	"github.com/matzehuels/odoomig/pkg/manifest"
)

// BaseModule is the module every other module ends up depending on.
const BaseModule = "base"

// Options controls which modules make it into the graph. Excluded modules
// are spliced out, so the modules around them stay connected.
type Options struct {
	ExcludeModules []string
	ExcludeStates  []State
	IncludeTests   bool // keep test_* modules
}

func (o Options) excluded(name string, state State) bool {
	return slices.Contains(o.ExcludeModules, name) ||
		slices.Contains(o.ExcludeStates, state) ||
		(!o.IncludeTests && strings.HasPrefix(name, "test_"))
}

// Modules answers migration questions about the module graph of one
// database: what to install, upgrade or remove, and how modules relate.
type Modules struct {
	store *Store
	graph *dag.DAG
	opts  Options
}

// Load fetches the module rows of database from src, merges them with
// manifests and builds the reduced module graph.
func Load(ctx context.Context, src feed.Source, database string, manifests []manifest.Manifest, opts Options) (*Modules, error) {
	rows, err := src.ModuleEdges(ctx, database)
	if err != nil {
		return nil, err
	}
	store, err := NewStore(rows, manifests)
	if err != nil {
		return nil, err
	}
	m, err := NewModules(store, opts)
	if err != nil {
		return nil, err
	}
	m.graph.Meta()[MetaGraphName] = database
	return m, nil
}

// NewModules builds the module graph of store, splices out the modules opts
// excludes, then breaks cycles and removes transitive edges.
func NewModules(store *Store, opts Options) (*Modules, error) {
	g, err := Build(store.BuildNodes(), StateStyler{})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "build module graph")
	}
	for _, name := range g.IDs() {
		m, _ := store.Get(name)
		if opts.excluded(name, m.State) {
			transform.Splice(g, name)
		}
	}
	transform.Reduce(g)
	return &Modules{store: store, graph: g, opts: opts}, nil
}

// Graph returns the reduced module graph. Edges go from a dependency to the
// modules depending on it.
func (m *Modules) Graph() *dag.DAG { return m.graph }

// Store returns the merged module records, including excluded modules.
func (m *Modules) Store() *Store { return m.store }

func (m *Modules) check(name string) error {
	if !m.graph.HasNode(name) {
		return errors.NotFound("module", name)
	}
	return nil
}

// Names returns the modules of the graph in build order.
func (m *Modules) Names() []string { return m.graph.IDs() }

// State returns the resolved state of a module.
func (m *Modules) State(name string) (State, error) {
	if err := m.check(name); err != nil {
		return "", err
	}
	mod, _ := m.store.Get(name)
	return mod.State, nil
}

// Dependencies returns name followed by every module depending on it,
// directly or not, in depth-first order. Modules in an excluded state are
// left out.
func (m *Modules) Dependencies(name string) ([]string, error) {
	if err := m.check(name); err != nil {
		return nil, err
	}
	sub := transform.RootedAt(m.graph, name, func(n *dag.Node) bool {
		return slices.Contains(m.opts.ExcludeStates, State(n.Meta.String(MetaState)))
	})
	return sub.IDs(), nil
}

// Leaves returns the modules no other module depends on.
func (m *Modules) Leaves() []string { return Leaves(m.graph) }

// DependencyChange compares the dependencies a module declares with the ones
// left once transitive dependencies are removed.
type DependencyChange struct {
	Actual    []string `json:"actual"`
	Optimized []string `json:"optimized"`
}

// OptimizedDependencies returns, for every module located under path whose
// declared dependencies include redundant ones, the declared and the minimal
// dependency lists. Paths are compared relative to the working directory and
// path matches any module directory containing it. An empty path matches
// every module.
func (m *Modules) OptimizedDependencies(path string) map[string]DependencyChange {
	restrict := ""
	if path != "" {
		restrict = relPath(path)
	}
	if restrict == "." {
		restrict = ""
	}
	out := map[string]DependencyChange{}
	for _, mod := range m.store.Modules() {
		if !m.graph.HasNode(mod.Name) {
			continue
		}
		if restrict != "" && (mod.Submodule == "" || !strings.Contains(relPath(mod.Submodule), restrict)) {
			continue
		}
		actual := m.store.Parents(mod.Name)
		optimized := slices.Clone(m.graph.Parents(mod.Name))
		sort.Strings(optimized)
		if !slices.Equal(actual, optimized) {
			out[mod.Name] = DependencyChange{Actual: nonNil(actual), Optimized: nonNil(optimized)}
		}
	}
	return out
}

// ToInstall returns the leaves of the modules to install: installing them
// pulls in the rest.
func (m *Modules) ToInstall() []string {
	leaves := Leaves(m.subgraphByStates(StateToInstall))
	sort.Strings(leaves)
	return nonNil(leaves)
}

// ToUpdate returns the smallest set of modules whose upgrade covers every
// module to upgrade.
func (m *Modules) ToUpdate() []string { return m.covering(StateToUpgrade) }

// ToRemove returns the smallest set of modules whose removal covers every
// module to remove.
func (m *Modules) ToRemove() []string { return m.covering(StateToRemove) }

func (m *Modules) covering(state State) []string {
	g := m.subgraphByStates(state)
	lcas := LowestCommonAncestors(g, Leaves(g), func(name string) bool {
		mod, ok := m.store.Get(name)
		return ok && mod.State == state
	})
	sort.Strings(lcas)
	return nonNil(lcas)
}

// Installed returns the installed modules, sorted. With onlyLeaves only
// those no other module of the graph depends on are returned.
func (m *Modules) Installed(onlyLeaves bool) []string {
	var leaves map[string]bool
	if onlyLeaves {
		leaves = map[string]bool{}
		for _, l := range m.Leaves() {
			leaves[l] = true
		}
	}
	out := []string{}
	for _, mod := range m.store.Modules() {
		if mod.State != StateInstalled || (onlyLeaves && !leaves[mod.Name]) {
			continue
		}
		out = append(out, mod.Name)
	}
	sort.Strings(out)
	return out
}

// Difference compares m, the old side, with other, the new side.
func (m *Modules) Difference(other *Modules) Diff {
	names := Difference(m.Names(), other.Names())
	d := Diff{Added: names.Added, Removed: names.Removed, Changed: map[string]StateChange{}}
	for _, name := range m.Names() {
		if !other.graph.HasNode(name) {
			continue
		}
		a, _ := m.store.Get(name)
		b, _ := other.store.Get(name)
		if a.State != b.State {
			d.Changed[name] = StateChange{OldState: a.State, NewState: b.State}
		}
	}
	return d
}

// subgraphByStates returns a reduced copy of the graph keeping only modules
// in one of states. The modules dropped are spliced out.
func (m *Modules) subgraphByStates(states ...State) *dag.DAG {
	g := m.graph.Clone()
	for _, n := range g.Nodes() {
		if !slices.Contains(states, State(n.Meta.String(MetaState))) {
			transform.Splice(g, n.ID)
		}
	}
	transform.Reduce(g)
	return g
}

// Leaves returns the nodes of g with no outgoing edge, in graph order.
func Leaves(g *dag.DAG) []string {
	return dag.NodeIDs(g.Sinks())
}

// LowestCommonAncestors reduces names to a small set of nodes that, with
// their descendants, cover every name. Candidates are sorted and, when keep
// is not nil, filtered by it. The first candidate is folded with each
// following one into their lowest common ancestor; candidates sharing no
// ancestor with it are reduced the same way on their own. Reaching
// [BaseModule] ends the search with just that module.
func LowestCommonAncestors(g *dag.DAG, names []string, keep func(string) bool) []string {
	var cands []string
	for _, n := range names {
		if g.HasNode(n) && (keep == nil || keep(n)) {
			cands = append(cands, n)
		}
	}
	sort.Strings(cands)
	cands = slices.Compact(cands)

	var out []string
	for len(cands) > 0 {
		acc := cands[0]
		var rest []string
		for _, n := range cands[1:] {
			lca, ok := transform.LowestCommonAncestor(g, acc, n)
			if !ok {
				rest = append(rest, n)
				continue
			}
			if lca == BaseModule {
				return []string{BaseModule}
			}
			acc = lca
		}
		out = append(out, acc)
		cands = rest
	}
	return out
}

// relPath returns p relative to the working directory, or p cleaned when
// that is not possible.
func relPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	wd, err := os.Getwd()
	if err != nil {
		return abs
	}
	rel, err := filepath.Rel(wd, abs)
	if err != nil {
		return abs
	}
	return rel
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
