package transform

import "github.com/matzehuels/odoomig/pkg/dag"

// TransitiveReduction removes redundant edges from the graph and returns the
// number of edges removed.
//
// An edge (u, v) is redundant when u reaches v through at least one other
// child w of u. For example, if base→web, web→sale and base→sale all exist,
// base→sale is removed because base reaches sale via web.
//
// Reachability is computed on the current edge set. On an acyclic graph
// removing a redundant edge never changes reachability, so a single pass is
// exact and applying the function twice yields the same edge set. Call
// [BreakCycles] first when the graph may contain cycles, or use [Reduce].
//
// # Performance
//
// Time complexity is O(V²·E) in the worst case. Space complexity is O(V²) for
// the reachability matrix, which is fine for the few thousand modules of an
// Odoo database.
func TransitiveReduction(g *dag.DAG) int {
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return 0
	}

	nodeIndex := dag.NodePosMap(nodes)
	adjacency := make([][]int, len(nodes))
	for _, e := range g.Edges() {
		adjacency[nodeIndex[e.From]] = append(adjacency[nodeIndex[e.From]], nodeIndex[e.To])
	}

	reachability := computeReachability(adjacency)

	removed := 0
	for _, e := range g.Edges() {
		src, dst := nodeIndex[e.From], nodeIndex[e.To]
		for _, intermediate := range adjacency[src] {
			if intermediate != dst && intermediate != src && reachability[intermediate][dst] {
				g.RemoveEdge(e.From, e.To)
				removed++
				break
			}
		}
	}
	return removed
}

// Reduce breaks cycles and then removes transitive edges. It is the cleanup
// applied to every module graph after nodes have been spliced out.
func Reduce(g *dag.DAG) {
	BreakCycles(g)
	TransitiveReduction(g)
}

func computeReachability(adjacency [][]int) [][]bool {
	n := len(adjacency)
	reachable := make([][]bool, n)
	for i := range reachable {
		reachable[i] = make([]bool, n)
	}

	var dfs func(source, current int)
	dfs = func(source, current int) {
		if reachable[source][current] {
			return
		}
		reachable[source][current] = true
		for _, next := range adjacency[current] {
			dfs(source, next)
		}
	}

	for i := range reachable {
		dfs(i, i)
	}
	return reachable
}
