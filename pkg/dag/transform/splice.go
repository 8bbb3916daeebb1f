package transform

import (
	"slices"

	"github.com/matzehuels/odoomig/pkg/dag"
)

// Splice removes the node id and reconnects its neighbours. It reports
// whether the node existed; splicing an absent node is a no-op.
//
// Predecessors and successors are paired positionally: the i-th parent is
// linked to the i-th child and the longer list is truncated. With one parent
// and one child this keeps the path intact. With uneven counts some
// parent/child pairs lose their connection, which is the historical
// behaviour of the migration tooling and is relied upon by its outputs.
func Splice(g *dag.DAG, id string) bool {
	if !g.HasNode(id) {
		return false
	}
	parents := slices.Clone(g.Parents(id))
	children := slices.Clone(g.Children(id))
	g.RemoveNode(id)

	for i := range min(len(parents), len(children)) {
		_ = g.AddEdge(dag.Edge{From: parents[i], To: children[i]})
	}
	return true
}
