// Package transform provides the graph reductions and traversals used on
// module and view graphs.
//
// # Overview
//
// Graphs read from an Odoo database are noisy: they carry transitive
// dependency edges, the occasional cycle, and modules the caller wants to
// hide. This package cleans them up while keeping the remaining structure
// readable.
//
// # Splicing
//
// [Splice] removes a node and reconnects its parents to its children so that
// hiding a module does not cut the graph in two. Parents and children are
// paired positionally (see the function documentation).
//
// # Reduction
//
// [BreakCycles] removes DFS back edges, and [TransitiveReduction] removes
// every edge implied by a longer path. [Reduce] applies both in that order.
//
//	transform.Splice(g, "test_sale")
//	transform.Reduce(g)
//
// # Traversal
//
// [RootedAt] extracts the subgraph hanging below a node, [Descendants] and
// [Ancestors] list reachable nodes, and [LowestCommonAncestor] finds the
// deepest dependency shared by two modules.
package transform
