package dag

import (
	"errors"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [DAG.AddNode] when the node ID is empty.
	// All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [DAG.AddNode] when a node with the
	// same ID already exists in the graph. Node IDs must be unique.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [DAG.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [DAG.AddEdge] when the To node
	// does not exist in the graph. Builders report it as "child not found".
	ErrUnknownTargetNode = errors.New("child not found")

	// ErrGraphHasCycle is returned by [DAG.Validate] when a cycle is detected.
	// Cycles are detected using depth-first search with white/gray/black coloring.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Metadata stores arbitrary key-value pairs attached to nodes or the graph.
// It carries display attributes (color, fillcolor, group) and domain values
// (state, keep flag) computed at build time. Metadata maps are never nil once
// a node has been added.
type Metadata map[string]any

// String returns the value stored at key as a string, or "" when the key is
// absent or holds another type.
func (m Metadata) String(key string) string {
	s, _ := m[key].(string)
	return s
}

// Bool returns the value stored at key as a bool, or false when the key is
// absent or holds another type.
func (m Metadata) Bool(key string) bool {
	b, _ := m[key].(bool)
	return b
}

// Node is a vertex of the graph. The ID is the node's unique name: a module's
// short name for module graphs, an "id/key/name" composite for view graphs.
type Node struct {
	ID   string   // Unique identifier (also used as display label)
	Meta Metadata // Arbitrary key-value metadata (never nil after AddNode)
}

// Edge is a directed connection from a parent to a child. For module graphs
// the parent is the dependency and the child is the module depending on it.
type Edge struct {
	From string // Source node ID
	To   string // Target node ID
}

// DAG is a directed graph with ordered adjacency. Successors of a node form an
// ordered set: adding an existing edge is a no-op, and iteration follows
// insertion order. A reverse index answers predecessor queries.
//
// Despite the name the structure tolerates cycles until [transform.BreakCycles]
// has been applied; [DAG.Validate] reports whether the graph is acyclic.
//
// The zero value is not usable - use New to create a valid DAG instance.
// DAG is not safe for concurrent use without external synchronization.
type DAG struct {
	nodes    map[string]*Node
	order    []string            // node IDs in insertion order
	outgoing map[string][]string // nodeID -> children IDs
	incoming map[string][]string // nodeID -> parent IDs
	edges    int
	meta     Metadata
}

// New creates an empty DAG with optional graph-level metadata.
// The metadata parameter can be nil, in which case an empty map is created.
func New(meta Metadata) *DAG {
	if meta == nil {
		meta = Metadata{}
	}
	return &DAG{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		meta:     meta,
	}
}

// Meta returns the graph-level metadata map.
func (d *DAG) Meta() Metadata { return d.meta }

// AddNode adds a node to the graph. Returns ErrInvalidNodeID if the node ID is
// empty, or ErrDuplicateNodeID if a node with the same ID already exists.
func (d *DAG) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := d.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	node := &n
	d.nodes[node.ID] = node
	d.order = append(d.order, node.ID)
	return nil
}

// HasNode reports whether a node with the given ID exists.
func (d *DAG) HasNode(id string) bool {
	_, ok := d.nodes[id]
	return ok
}

// AddEdge adds a directed edge between two existing nodes.
// Returns ErrUnknownSourceNode if the From node doesn't exist, or
// ErrUnknownTargetNode if the To node doesn't exist. Adding an edge that
// already exists leaves the graph unchanged.
func (d *DAG) AddEdge(e Edge) error {
	if _, ok := d.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := d.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	if d.HasEdge(e.From, e.To) {
		return nil
	}
	d.outgoing[e.From] = append(d.outgoing[e.From], e.To)
	d.incoming[e.To] = append(d.incoming[e.To], e.From)
	d.edges++
	return nil
}

// HasEdge reports whether the edge from→to exists.
func (d *DAG) HasEdge(from, to string) bool {
	return slices.Contains(d.outgoing[from], to)
}

// RemoveEdge removes the edge from→to if it exists.
// No error is returned if the edge does not exist.
func (d *DAG) RemoveEdge(from, to string) {
	if !d.HasEdge(from, to) {
		return
	}
	d.outgoing[from] = slices.DeleteFunc(d.outgoing[from], func(s string) bool { return s == to })
	d.incoming[to] = slices.DeleteFunc(d.incoming[to], func(s string) bool { return s == from })
	d.edges--
}

// RemoveNode deletes the node and all its incident edges. It reports whether
// the node existed. Use [transform.Splice] to keep reachability through the
// removed node.
func (d *DAG) RemoveNode(id string) bool {
	if _, ok := d.nodes[id]; !ok {
		return false
	}
	for _, child := range slices.Clone(d.outgoing[id]) {
		d.RemoveEdge(id, child)
	}
	for _, parent := range slices.Clone(d.incoming[id]) {
		d.RemoveEdge(parent, id)
	}
	delete(d.nodes, id)
	delete(d.outgoing, id)
	delete(d.incoming, id)
	d.order = slices.DeleteFunc(d.order, func(s string) bool { return s == id })
	return true
}

// Nodes returns all nodes in insertion order. The returned slice contains
// pointers to the actual node structs, so modifications affect the graph.
func (d *DAG) Nodes() []*Node {
	nodes := make([]*Node, len(d.order))
	for i, id := range d.order {
		nodes[i] = d.nodes[id]
	}
	return nodes
}

// IDs returns all node IDs in insertion order.
func (d *DAG) IDs() []string { return slices.Clone(d.order) }

// Edges returns all edges, grouped by source node in insertion order and then
// by successor order. Modifications to the returned slice do not affect the graph.
func (d *DAG) Edges() []Edge {
	edges := make([]Edge, 0, d.edges)
	for _, id := range d.order {
		for _, child := range d.outgoing[id] {
			edges = append(edges, Edge{From: id, To: child})
		}
	}
	return edges
}

// NodeCount returns the number of nodes in the graph.
func (d *DAG) NodeCount() int { return len(d.nodes) }

// EdgeCount returns the number of edges in the graph.
func (d *DAG) EdgeCount() int { return d.edges }

// Children returns the IDs of nodes that this node has edges to.
// Returns nil if the node has no children or doesn't exist. The returned slice
// should not be modified - use it as a read-only view.
func (d *DAG) Children(id string) []string { return d.outgoing[id] }

// Parents returns the IDs of nodes that have edges to this node.
// Returns nil if the node has no parents or doesn't exist. The returned slice
// should not be modified - use it as a read-only view.
func (d *DAG) Parents(id string) []string { return d.incoming[id] }

// OutDegree returns the number of outgoing edges from the node.
func (d *DAG) OutDegree(id string) int { return len(d.outgoing[id]) }

// InDegree returns the number of incoming edges to the node.
func (d *DAG) InDegree(id string) int { return len(d.incoming[id]) }

// Node returns the node with the given ID and true, or nil and false if not found.
func (d *DAG) Node(id string) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// Sources returns nodes with no incoming edges, in insertion order.
func (d *DAG) Sources() []*Node {
	var sources []*Node
	for _, id := range d.order {
		if len(d.incoming[id]) == 0 {
			sources = append(sources, d.nodes[id])
		}
	}
	return sources
}

// Sinks returns nodes with no outgoing edges, in insertion order.
func (d *DAG) Sinks() []*Node {
	var sinks []*Node
	for _, id := range d.order {
		if len(d.outgoing[id]) == 0 {
			sinks = append(sinks, d.nodes[id])
		}
	}
	return sinks
}

// Clone returns a deep copy of the graph. Node metadata maps are copied so
// that edits on the clone never leak back into the source.
func (d *DAG) Clone() *DAG {
	return d.Subgraph(d.order)
}

// Subgraph returns an independent graph induced by ids: the listed nodes that
// exist in d, in d's insertion order, and every edge between two of them.
func (d *DAG) Subgraph(ids []string) *DAG {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}

	meta := make(Metadata, len(d.meta))
	for k, v := range d.meta {
		meta[k] = v
	}
	sub := New(meta)
	for _, id := range d.order {
		if !keep[id] {
			continue
		}
		n := d.nodes[id]
		nm := make(Metadata, len(n.Meta))
		for k, v := range n.Meta {
			nm[k] = v
		}
		_ = sub.AddNode(Node{ID: id, Meta: nm})
	}
	for _, e := range d.Edges() {
		if keep[e.From] && keep[e.To] {
			_ = sub.AddEdge(e)
		}
	}
	return sub
}

// Validate returns ErrGraphHasCycle if the graph contains a directed cycle.
// Cycle detection runs in O(N+E) time using depth-first search.
func (d *DAG) Validate() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(d.nodes))
	var hasCycle bool

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, child := range d.outgoing[id] {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				hasCycle = true
				return
			}
		}
		color[id] = black
	}

	for _, id := range d.order {
		if color[id] == white {
			dfs(id)
			if hasCycle {
				return ErrGraphHasCycle
			}
		}
	}
	return nil
}

// NodePosMap creates a position lookup map from a slice of nodes.
// The returned map maps each node ID to its index in the slice.
func NodePosMap(nodes []*Node) map[string]int {
	m := make(map[string]int, len(nodes))
	for i, n := range nodes {
		m[n.ID] = i
	}
	return m
}

// NodeIDs extracts the ID from each node in a slice.
// Returns a new slice containing the IDs in the same order as the input.
func NodeIDs(nodes []*Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}
