package transform_test

import (
	"fmt"

	"github.com/matzehuels/odoomig/pkg/dag"
	"github.com/matzehuels/odoomig/pkg/dag/transform"
)

func ExampleTransitiveReduction() {
	// base → web → sale with transitive edge base → sale
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "base"})
	_ = g.AddNode(dag.Node{ID: "web"})
	_ = g.AddNode(dag.Node{ID: "sale"})
	_ = g.AddEdge(dag.Edge{From: "base", To: "web"})
	_ = g.AddEdge(dag.Edge{From: "web", To: "sale"})
	_ = g.AddEdge(dag.Edge{From: "base", To: "sale"}) // Redundant

	fmt.Println("Before reduction:", g.EdgeCount(), "edges")
	transform.TransitiveReduction(g)
	fmt.Println("After reduction:", g.EdgeCount(), "edges")
	// Output:
	// Before reduction: 3 edges
	// After reduction: 2 edges
}

func ExampleSplice() {
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "base"})
	_ = g.AddNode(dag.Node{ID: "test_base"})
	_ = g.AddNode(dag.Node{ID: "sale"})
	_ = g.AddEdge(dag.Edge{From: "base", To: "test_base"})
	_ = g.AddEdge(dag.Edge{From: "test_base", To: "sale"})

	transform.Splice(g, "test_base")
	fmt.Println("Nodes:", g.IDs())
	fmt.Println("base → sale:", g.HasEdge("base", "sale"))
	// Output:
	// Nodes: [base sale]
	// base → sale: true
}

func ExampleLowestCommonAncestor() {
	g := dag.New(nil)
	for _, id := range []string{"base", "sale", "sale_stock", "sale_crm"} {
		_ = g.AddNode(dag.Node{ID: id})
	}
	_ = g.AddEdge(dag.Edge{From: "base", To: "sale"})
	_ = g.AddEdge(dag.Edge{From: "sale", To: "sale_stock"})
	_ = g.AddEdge(dag.Edge{From: "sale", To: "sale_crm"})

	lca, _ := transform.LowestCommonAncestor(g, "sale_stock", "sale_crm")
	fmt.Println(lca)
	// Output:
	// sale
}
