package odoo

import "sort"

// NameDiff lists the names only present on one side of a comparison.
type NameDiff struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// StateChange is the state of a module on both sides of a comparison.
type StateChange struct {
	OldState State `json:"old_state"`
	NewState State `json:"new_state"`
}

// Diff compares two module graphs. Changed holds the modules present on both
// sides whose resolved state differs.
type Diff struct {
	Added   []string               `json:"added"`
	Removed []string               `json:"removed"`
	Changed map[string]StateChange `json:"changed"`
}

// Empty reports whether both sides hold the same names and states.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Difference compares two name lists: added names are only in b, removed
// names only in a. Both results are sorted and never nil.
func Difference(a, b []string) NameDiff {
	inA := make(map[string]bool, len(a))
	for _, n := range a {
		inA[n] = true
	}
	inB := make(map[string]bool, len(b))
	for _, n := range b {
		inB[n] = true
	}

	d := NameDiff{Added: []string{}, Removed: []string{}}
	for n := range inB {
		if !inA[n] {
			d.Added = append(d.Added, n)
		}
	}
	for n := range inA {
		if !inB[n] {
			d.Removed = append(d.Removed, n)
		}
	}
	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	return d
}
