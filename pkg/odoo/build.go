package odoo

import (
	"fmt"

	"github.com/matzehuels/odoomig/pkg/dag"
)

// Node metadata keys set by [Build]. The display keys are graphviz attribute
// names and are written as-is by the DOT renderer.
const (
	MetaColor     = "color"
	MetaFillColor = "fillcolor"
	MetaGroup     = "group"
	MetaStyle     = "style"
	MetaState     = "state"
	MetaKeep      = "keep"
)

// MetaGraphName is the graph metadata key holding the database name.
const MetaGraphName = "name"

// BuildNode is the input of [Build]: a name, the names of the nodes depending
// on it, and the attributes a [Styler] may look at.
type BuildNode struct {
	Name     string
	Children []string
	State    State
	Keep     bool
}

// NodeStyle is how a node is drawn. Empty colors are left to graphviz.
type NodeStyle struct {
	Border string
	Fill   string
	Group  string
	Keep   bool
}

// Styler decides the display attributes of a node.
type Styler interface {
	Style(n BuildNode) NodeStyle
}

// StateStyler colors module nodes after their state.
type StateStyler struct{}

// Style implements Styler.
func (StateStyler) Style(n BuildNode) NodeStyle {
	border, fill, group := Style(n.State)
	return NodeStyle{Border: border, Fill: fill, Group: group}
}

// KeepStyler highlights the view nodes that must be kept.
type KeepStyler struct{}

// Style implements Styler.
func (KeepStyler) Style(n BuildNode) NodeStyle {
	if !n.Keep {
		return NodeStyle{}
	}
	return NodeStyle{Border: "black", Fill: "blue", Keep: true}
}

// Build creates a graph with one node per entry and an edge from every node
// to each of its children. All nodes are added before any edge, so children
// may appear later in the list; a child that never appears is an error
// wrapping [dag.ErrUnknownTargetNode]. Repeated names are added once.
func Build(nodes []BuildNode, styler Styler) (*dag.DAG, error) {
	g := dag.New(nil)
	for _, n := range nodes {
		if g.HasNode(n.Name) {
			continue
		}
		st := styler.Style(n)
		meta := dag.Metadata{MetaStyle: "filled"}
		setNonEmpty(meta, MetaColor, st.Border)
		setNonEmpty(meta, MetaFillColor, st.Fill)
		setNonEmpty(meta, MetaGroup, st.Group)
		setNonEmpty(meta, MetaState, string(n.State))
		if st.Keep {
			meta[MetaKeep] = true
		}
		if err := g.AddNode(dag.Node{ID: n.Name, Meta: meta}); err != nil {
			return nil, fmt.Errorf("add node %q: %w", n.Name, err)
		}
	}
	for _, n := range nodes {
		for _, child := range n.Children {
			if err := g.AddEdge(dag.Edge{From: n.Name, To: child}); err != nil {
				return nil, fmt.Errorf("%s -> %s: %w", n.Name, child, err)
			}
		}
	}
	return g, nil
}

func setNonEmpty(m dag.Metadata, key, value string) {
	if value != "" {
		m[key] = value
	}
}
