// Package dag provides the directed graph that models Odoo module and view
// dependencies.
//
// # Overview
//
// Odoo migrations reason about which modules depend on which. odoomig keeps
// those relations in a small owned graph: nodes are identified by name, edges
// point from a parent (the dependency) to a child (the dependent), and each
// node carries a [Metadata] map with display attributes and domain values.
//
// Successors of a node form an ordered set. Adding an edge twice is a no-op,
// and every iteration ([DAG.Nodes], [DAG.Edges], [DAG.Children]) follows
// insertion order so that reducers and queries produce stable output.
//
// # Basic Usage
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "base"})
//	g.AddNode(dag.Node{ID: "sale"})
//	g.AddEdge(dag.Edge{From: "base", To: "sale"})
//
// Query the graph with [DAG.Children], [DAG.Parents], [DAG.Sources] and
// [DAG.Sinks]. [DAG.Subgraph] and [DAG.Clone] produce independent copies that
// can be reduced without touching the original.
//
// # Cycles
//
// Graphs built from database feeds may contain cycles. The structure accepts
// them; [DAG.Validate] reports ErrGraphHasCycle, and the [transform] subpackage
// removes them with [transform.BreakCycles].
//
// # Concurrency
//
// DAG instances are not safe for concurrent use. Callers must synchronize access
// if multiple goroutines read or modify the same graph.
//
// [transform]: github.com/matzehuels/odoomig/pkg/dag/transform
package dag
