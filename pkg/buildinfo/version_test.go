package buildinfo

import (
	"strings"
	"testing"
)

func TestShort(t *testing.T) {
	tests := []struct {
		commit string
		want   string
	}{
		{"none", "none"},
		{"0123456789abcdef0123", "0123456789ab"},
	}
	for _, tt := range tests {
		if got := short(tt.commit); got != tt.want {
			t.Errorf("short(%q) = %q, want %q", tt.commit, got, tt.want)
		}
	}
}

func TestTemplate(t *testing.T) {
	tmpl := Template()
	if !strings.HasPrefix(tmpl, "{{.Name}} "+Version) {
		t.Errorf("Template() = %q, want the version after the name", tmpl)
	}
	if !strings.Contains(String(), "\ngo: ") {
		t.Errorf("String() = %q, want the Go version", String())
	}
}
