package dag_test

import (
	"fmt"

	"github.com/matzehuels/odoomig/pkg/dag"
)

func ExampleDAG_basic() {
	// base is required by sale, which is required by sale_management
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "base"})
	_ = g.AddNode(dag.Node{ID: "sale"})
	_ = g.AddNode(dag.Node{ID: "sale_management"})
	_ = g.AddEdge(dag.Edge{From: "base", To: "sale"})
	_ = g.AddEdge(dag.Edge{From: "sale", To: "sale_management"})

	fmt.Println("Nodes:", g.NodeCount())
	fmt.Println("Edges:", g.EdgeCount())
	fmt.Println("Sinks:", dag.NodeIDs(g.Sinks()))
	// Output:
	// Nodes: 3
	// Edges: 2
	// Sinks: [sale_management]
}

func ExampleDAG_traversal() {
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "base"})
	_ = g.AddNode(dag.Node{ID: "crm"})
	_ = g.AddNode(dag.Node{ID: "hr"})
	_ = g.AddEdge(dag.Edge{From: "base", To: "crm"})
	_ = g.AddEdge(dag.Edge{From: "base", To: "hr"})

	fmt.Println("Children of base:", g.Children("base"))
	fmt.Println("Parents of hr:", g.Parents("hr"))
	fmt.Println("Out-degree of base:", g.OutDegree("base"))
	// Output:
	// Children of base: [crm hr]
	// Parents of hr: [base]
	// Out-degree of base: 2
}

func ExampleDAG_Subgraph() {
	g := dag.New(nil)
	for _, id := range []string{"base", "web", "sale"} {
		_ = g.AddNode(dag.Node{ID: id})
	}
	_ = g.AddEdge(dag.Edge{From: "base", To: "web"})
	_ = g.AddEdge(dag.Edge{From: "web", To: "sale"})

	sub := g.Subgraph([]string{"web", "sale"})
	fmt.Println("Nodes:", sub.IDs())
	fmt.Println("Edges:", len(sub.Edges()))
	fmt.Println("Original untouched:", g.NodeCount())
	// Output:
	// Nodes: [web sale]
	// Edges: 1
	// Original untouched: 3
}
