package transform

import "testing"

func TestLowestCommonAncestor(t *testing.T) {
	//        base
	//       /    \
	//     web    mail
	//     /  \     \
	//  sale  crm   hr
	g := build(t, []string{"base", "web", "mail", "sale", "crm", "hr", "island"},
		[2]string{"base", "web"},
		[2]string{"base", "mail"},
		[2]string{"web", "sale"},
		[2]string{"web", "crm"},
		[2]string{"mail", "hr"},
	)

	tests := []struct {
		a, b   string
		want   string
		wantOK bool
	}{
		{"sale", "crm", "web", true},
		{"sale", "hr", "base", true},
		{"web", "sale", "web", true},
		{"sale", "sale", "sale", true},
		{"sale", "island", "", false},
		{"sale", "missing", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			got, ok := LowestCommonAncestor(g, tt.a, tt.b)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("LowestCommonAncestor(%s, %s) = (%q, %v), want (%q, %v)", tt.a, tt.b, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestLowestCommonAncestor_TieBrokenByName(t *testing.T) {
	// x and y both depend on p and q, which are incomparable.
	g := build(t, []string{"q", "p", "x", "y"},
		[2]string{"q", "x"}, [2]string{"q", "y"}, [2]string{"p", "x"}, [2]string{"p", "y"})

	if got, _ := LowestCommonAncestor(g, "x", "y"); got != "p" {
		t.Errorf("LowestCommonAncestor() = %q, want p", got)
	}
}
