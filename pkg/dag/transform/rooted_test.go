package transform

import (
	"slices"
	"testing"

	"github.com/matzehuels/odoomig/pkg/dag"
)

func TestRootedAt(t *testing.T) {
	g := build(t, []string{"base", "sale", "sale_management", "crm"},
		[2]string{"base", "sale"},
		[2]string{"sale", "sale_management"},
		[2]string{"base", "crm"},
	)

	sub := RootedAt(g, "sale", nil)
	if got, want := sub.IDs(), []string{"sale", "sale_management"}; !slices.Equal(got, want) {
		t.Errorf("RootedAt(sale).IDs() = %v, want %v", got, want)
	}
	if !sub.HasEdge("sale", "sale_management") {
		t.Error("induced edge missing")
	}

	sub.RemoveNode("sale_management")
	if !g.HasNode("sale_management") {
		t.Error("RootedAt result is not independent")
	}
}

func TestRootedAt_Exclude(t *testing.T) {
	g := build(t, []string{"base", "a", "b"}, [2]string{"base", "a"}, [2]string{"base", "b"})
	n, _ := g.Node("b")
	n.Meta["state"] = "uninstalled"

	sub := RootedAt(g, "base", func(n *dag.Node) bool { return n.Meta.String("state") == "uninstalled" })
	if got := sub.IDs(); !slices.Equal(got, []string{"base", "a"}) {
		t.Errorf("IDs() = %v", got)
	}
}

func TestRootedAt_Missing(t *testing.T) {
	g := build(t, []string{"a"})
	if sub := RootedAt(g, "nope", nil); sub.NodeCount() != 0 {
		t.Errorf("NodeCount() = %d, want 0", sub.NodeCount())
	}
}

func TestDescendantsPreorder(t *testing.T) {
	g := build(t, []string{"a", "b", "c", "d"},
		[2]string{"a", "b"}, [2]string{"b", "d"}, [2]string{"a", "c"}, [2]string{"c", "d"})
	if got, want := Descendants(g, "a"), []string{"a", "b", "d", "c"}; !slices.Equal(got, want) {
		t.Errorf("Descendants() = %v, want %v", got, want)
	}
}
