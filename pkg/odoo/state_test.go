package odoo

import (
	"testing"

	"github.com/matzehuels/odoomig/pkg/errors"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		db       State
		manifest State
		want     State
	}{
		{"no manifest", StateInstalled, "", StateUninstallable},
		{"nothing known", "", "", StateUninstallable},
		{"installed but code gone", StateInstalled, StateUninstallable, StateToRemove},
		{"installable but code gone", StateInstallable, StateUninstallable, StateUninstallable},
		{"code came back", StateUninstallable, StateInstallable, StateInstallable},
		{"to install but code gone", StateToInstall, StateUninstallable, StateUninstallable},
		{"to upgrade but code gone", StateToUpgrade, StateUninstallable, StateUninstallable},
		{"database wins", StateToUpgrade, StateInstallable, StateToUpgrade},
		{"installed stays installed", StateInstalled, StateInstallable, StateInstalled},
		{"unknown to database", "", StateInstallable, StateToRemove},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Merge(tt.db, tt.manifest)
			if err != nil {
				t.Fatalf("Merge(%q, %q) error = %v", tt.db, tt.manifest, err)
			}
			if got != tt.want {
				t.Errorf("Merge(%q, %q) = %q, want %q", tt.db, tt.manifest, got, tt.want)
			}
		})
	}
}

func TestMerge_Deterministic(t *testing.T) {
	all := append([]State{""}, States...)
	for _, db := range all {
		for _, m := range all {
			first, err1 := Merge(db, m)
			second, err2 := Merge(db, m)
			if first != second || (err1 == nil) != (err2 == nil) {
				t.Errorf("Merge(%q, %q) not deterministic", db, m)
			}
			if err1 == nil && first == "" {
				t.Errorf("Merge(%q, %q) returned an empty state", db, m)
			}
		}
	}
}

func TestMerge_Inconsistent(t *testing.T) {
	_, err := Merge("half installed", StateInstallable)
	if !errors.Is(err, errors.ErrCodeInconsistentState) {
		t.Errorf("Merge() error = %v, want INCONSISTENT_STATE", err)
	}
}

func TestStyle_EveryState(t *testing.T) {
	groups := map[string]bool{}
	for _, s := range States {
		border, fill, group := Style(s)
		if border == "" || fill == "" || group == "" {
			t.Errorf("Style(%q) = (%q, %q, %q), want all set", s, border, fill, group)
		}
		groups[group] = true
	}
	if len(groups) != len(States) {
		t.Errorf("groups = %v, want one per state", groups)
	}

	if border, fill, _ := Style(StateUninstallable); border != "white" || fill != "lightgrey" {
		t.Errorf("Style(uninstallable) = (%s, %s), want (white, lightgrey)", border, fill)
	}
}

func TestParseState(t *testing.T) {
	if s, err := ParseState("to upgrade"); err != nil || s != StateToUpgrade {
		t.Errorf("ParseState(to upgrade) = (%q, %v)", s, err)
	}
	for _, bad := range []string{"", "upgraded", "Installed"} {
		if _, err := ParseState(bad); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("ParseState(%q) error = %v, want INVALID_INPUT", bad, err)
		}
	}
}
