package transform

import (
	"slices"

	"github.com/matzehuels/odoomig/pkg/dag"
)

// LowestCommonAncestor returns the deepest node that reaches both a and b.
// A node counts as its own ancestor, so when a reaches b the answer is a.
//
// In a DAG two nodes may have several incomparable lowest common ancestors;
// the lexicographically smallest one is returned. The boolean is false when a
// or b is missing or when they share no ancestor.
func LowestCommonAncestor(g *dag.DAG, a, b string) (string, bool) {
	if !g.HasNode(a) || !g.HasNode(b) {
		return "", false
	}
	ancA := Ancestors(g, a)
	ancB := Ancestors(g, b)

	var lowest []string
	for n := range ancA {
		if !ancB[n] {
			continue
		}
		// Any common descendant would lie on a path through a common child.
		deeper := slices.ContainsFunc(g.Children(n), func(c string) bool {
			return ancA[c] && ancB[c]
		})
		if !deeper {
			lowest = append(lowest, n)
		}
	}
	if len(lowest) == 0 {
		return "", false
	}
	return slices.Min(lowest), true
}
