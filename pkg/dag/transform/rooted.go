package transform

import "github.com/matzehuels/odoomig/pkg/dag"

// Descendants returns id followed by every node reachable from it, in
// depth-first preorder. It returns nil when id is not in the graph.
func Descendants(g *dag.DAG, id string) []string {
	if !g.HasNode(id) {
		return nil
	}
	seen := map[string]bool{}
	var order []string
	var dfs func(string)
	dfs = func(n string) {
		seen[n] = true
		order = append(order, n)
		for _, child := range g.Children(n) {
			if !seen[child] {
				dfs(child)
			}
		}
	}
	dfs(id)
	return order
}

// Ancestors returns the set of nodes that reach id, including id itself.
func Ancestors(g *dag.DAG, id string) map[string]bool {
	out := map[string]bool{}
	if !g.HasNode(id) {
		return out
	}
	stack := []string{id}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if out[n] {
			continue
		}
		out[n] = true
		stack = append(stack, g.Parents(n)...)
	}
	return out
}

// RootedAt returns an independent graph made of id and its descendants,
// with every edge between them. Nodes for which exclude returns true are left
// out; exclude may be nil. The result is ordered depth-first from id, so its
// node list reads as "id, then what depends on it". A missing id yields an
// empty graph.
func RootedAt(g *dag.DAG, id string, exclude func(*dag.Node) bool) *dag.DAG {
	var keep []string
	for _, n := range Descendants(g, id) {
		node, _ := g.Node(n)
		if exclude != nil && exclude(node) {
			continue
		}
		keep = append(keep, n)
	}

	sub := dag.New(nil)
	for _, n := range keep {
		node, _ := g.Node(n)
		meta := make(dag.Metadata, len(node.Meta))
		for k, v := range node.Meta {
			meta[k] = v
		}
		_ = sub.AddNode(dag.Node{ID: n, Meta: meta})
	}
	for _, e := range g.Edges() {
		if sub.HasNode(e.From) && sub.HasNode(e.To) {
			_ = sub.AddEdge(e)
		}
	}
	return sub
}
