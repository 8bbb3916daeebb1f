package odoo

import (
	"context"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/matzehuels/odoomig/pkg/dag"
	"github.com/matzehuels/odoomig/pkg/dag/transform"
	"github.com/matzehuels/odoomig/pkg/errors"
	"github.com/matzehuels/odoomig/pkg/feed"
)

// keepMarker flags views of the SLX website theme by name.
const keepMarker = "website_slx"

// View is one ir.ui.view record. Children are the node names of the views
// inheriting from it.
type View struct {
	ID        string   `json:"id"`
	Key       string   `json:"key"`
	Name      string   `json:"name"`
	WebsiteID string   `json:"website_id,omitempty"`
	Children  []string `json:"children"`
	Keep      bool     `json:"keep"`
}

// ViewNodeName returns the graph node name of a view: "id/key/name".
func ViewNodeName(id, key, name string) string {
	return strings.Join([]string{id, key, name}, "/")
}

// NodeName returns the graph node name of v.
func (v *View) NodeName() string { return ViewNodeName(v.ID, v.Key, v.Name) }

// keepView reports whether a view belongs to a website and must survive a
// cleanup of the generic views.
func keepView(name, websiteID string) bool {
	return websiteID != "" || strings.Contains(strings.ToLower(name), keepMarker)
}

// HierarchicalTable is the inheritance graph of a self-referencing table,
// ir_ui_view through inherit_id. A view is kept when it or one of the views
// inheriting from it belongs to a website.
type HierarchicalTable struct {
	name  string
	order []string
	views map[string]*View
	graph *dag.DAG
}

// LoadViews fetches the view rows of database from src and builds its table.
func LoadViews(ctx context.Context, src feed.Source, database string) (*HierarchicalTable, error) {
	rows, err := src.ViewEdges(ctx, database)
	if err != nil {
		return nil, err
	}
	return NewHierarchicalTable(database, rows)
}

// NewHierarchicalTable builds the view graph from rows. Rows without a parent
// describe root views and only add the child.
func NewHierarchicalTable(name string, rows []feed.ViewRow) (*HierarchicalTable, error) {
	t := &HierarchicalTable{name: name, views: make(map[string]*View)}
	for _, r := range rows {
		child := t.ensure(r.ChildID, r.ChildKey, r.ChildName, r.ChildWebsiteID)
		if r.ParentID == "" {
			continue
		}
		parent := t.ensure(r.ParentID, r.ParentKey, r.ParentName, r.ParentWebsiteID)
		if cn := child.NodeName(); !slices.Contains(parent.Children, cn) {
			parent.Children = append(parent.Children, cn)
		}
	}
	t.propagateKeep()

	nodes := make([]BuildNode, len(t.order))
	for i, n := range t.order {
		v := t.views[n]
		nodes[i] = BuildNode{Name: n, Children: v.Children, Keep: v.Keep}
	}
	g, err := Build(nodes, KeepStyler{})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "build view graph")
	}
	g.Meta()[MetaGraphName] = name
	t.graph = g
	return t, nil
}

func (t *HierarchicalTable) ensure(id, key, name, websiteID string) *View {
	n := ViewNodeName(id, key, name)
	if v, ok := t.views[n]; ok {
		return v
	}
	v := &View{
		ID:        id,
		Key:       key,
		Name:      name,
		WebsiteID: websiteID,
		Children:  []string{},
		Keep:      keepView(name, websiteID),
	}
	t.views[n] = v
	t.order = append(t.order, n)
	return v
}

// propagateKeep marks every ancestor of a kept view as kept. A view met again
// while its own descendants are being visited contributes its current flag,
// which keeps inheritance cycles from recursing forever.
func (t *HierarchicalTable) propagateKeep() {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(t.views))
	var visit func(string) bool
	visit = func(n string) bool {
		v := t.views[n]
		if state[n] != unvisited {
			return v.Keep
		}
		state[n] = visiting
		for _, c := range v.Children {
			if visit(c) {
				v.Keep = true
			}
		}
		state[n] = done
		return v.Keep
	}
	for _, n := range t.order {
		visit(n)
	}
}

// Name returns the database the table was read from.
func (t *HierarchicalTable) Name() string { return t.name }

// Graph returns the view graph. Edges go from a view to the views
// inheriting from it.
func (t *HierarchicalTable) Graph() *dag.DAG { return t.graph }

// View returns the view behind a node name.
func (t *HierarchicalTable) View(name string) (*View, bool) {
	v, ok := t.views[name]
	return v, ok
}

// Names returns the node names of the graph in load order.
func (t *HierarchicalTable) Names() []string { return t.graph.IDs() }

// Leaves returns the views no other view inherits from.
func (t *HierarchicalTable) Leaves() []string { return Leaves(t.graph) }

// Dependencies returns name followed by the views inheriting from it,
// directly or not.
func (t *HierarchicalTable) Dependencies(name string) ([]string, error) {
	if !t.graph.HasNode(name) {
		return nil, errors.NotFound("view", name)
	}
	return transform.RootedAt(t.graph, name, nil).IDs(), nil
}

// NodesToKeep returns the kept views and the views they directly inherit
// from, sorted.
func (t *HierarchicalTable) NodesToKeep() []string {
	set := map[string]bool{}
	for _, n := range t.graph.IDs() {
		if !t.views[n].Keep {
			continue
		}
		set[n] = true
		for _, p := range t.graph.Parents(n) {
			set[p] = true
		}
	}
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// IDsToKeep returns the database ids of [HierarchicalTable.NodesToKeep],
// in numeric order.
func (t *HierarchicalTable) IDsToKeep() []string {
	keep := t.NodesToKeep()
	ids := make([]string, 0, len(keep))
	for _, n := range keep {
		ids = append(ids, t.views[n].ID)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		if errA != nil || errB != nil {
			return ids[i] < ids[j]
		}
		return a < b
	})
	return slices.Compact(ids)
}

// RemoveNodes splices the named views out of the graph and returns how many
// were present.
func (t *HierarchicalTable) RemoveNodes(names []string) int {
	removed := 0
	for _, n := range names {
		if transform.Splice(t.graph, n) {
			removed++
		}
	}
	return removed
}

// Prune removes every view not in [HierarchicalTable.NodesToKeep] and
// returns the removed names, sorted.
func (t *HierarchicalTable) Prune() []string {
	keep := t.NodesToKeep()
	var drop []string
	for _, n := range t.graph.IDs() {
		if _, found := slices.BinarySearch(keep, n); !found {
			drop = append(drop, n)
		}
	}
	t.RemoveNodes(drop)
	sort.Strings(drop)
	return nonNil(drop)
}

// Difference compares the node names of t, the old side, with other.
func (t *HierarchicalTable) Difference(other *HierarchicalTable) NameDiff {
	return Difference(t.Names(), other.Names())
}
