package transform

import "github.com/matzehuels/odoomig/pkg/dag"

// BreakCycles removes back edges until the graph is acyclic and returns the
// number of edges removed.
//
// The traversal is a depth-first search with white/gray/black coloring. It
// starts from every source node in insertion order, then from any node still
// unvisited (nodes that only sit on cycles). Children are visited in successor
// order, so the set of removed edges is deterministic for a given build order:
// an edge u→v is removed when v is still on the DFS stack while u is explored.
func BreakCycles(g *dag.DAG) int {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int)
	var backEdges [][2]string

	var dfs func(node string)
	dfs = func(node string) {
		color[node] = gray
		for _, child := range g.Children(node) {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				backEdges = append(backEdges, [2]string{node, child})
			}
		}
		color[node] = black
	}

	for _, n := range g.Sources() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}

	for _, n := range g.Nodes() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}

	for _, e := range backEdges {
		g.RemoveEdge(e[0], e[1])
	}
	return len(backEdges)
}
