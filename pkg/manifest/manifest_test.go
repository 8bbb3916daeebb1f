package manifest

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/odoomig/pkg/errors"
)

const saleManifest = `# -*- coding: utf-8 -*-
# Part of Odoo. See LICENSE file for full copyright and licensing details.
{
    'name': 'Sales',
    'version': '1.2',
    'category': 'Sales/Sales',
    'summary': 'Sales internal machinery',
    'description': """
This module contains all the common features of Sales Management and eCommerce.
    """,
    'depends': ['sales_team', 'payment', 'portal', 'utm'],
    'data': [
        'security/sale_security.xml',
        'security/ir.model.access.csv',
    ],
    'installable': True,
    'auto_install': False,
    'sequence': 5,
    'license': 'LGPL-3',
}
`

func writeModule(t *testing.T, dir, file, body string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, file), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestParse(t *testing.T) {
	m, err := Parse([]byte(saleManifest))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if m.Title != "Sales" || m.Version != "1.2" || m.Category != "Sales/Sales" {
		t.Errorf("scalar fields = %+v", m)
	}
	if !m.Installable || m.AutoInstall || !m.Deployable() {
		t.Errorf("installable=%v auto_install=%v", m.Installable, m.AutoInstall)
	}
	if m.Sequence != 5 {
		t.Errorf("Sequence = %d, want 5", m.Sequence)
	}
	if want := []string{"sales_team", "payment", "portal", "utm"}; !slices.Equal(m.Depends, want) {
		t.Errorf("Depends = %v, want %v", m.Depends, want)
	}
	if m.Author != "Odoo S.A." || m.Website != "https://www.odoo.com" {
		t.Errorf("defaults not applied: author=%q website=%q", m.Author, m.Website)
	}
}

func TestParse_Defaults(t *testing.T) {
	m, err := Parse([]byte(`{'name': 'Bare'}`))
	if err != nil {
		t.Fatal(err)
	}
	want := Defaults()
	want.Title = "Bare"
	if m.Installable || m.AutoInstall || m.Application || m.Deployable() {
		t.Error("boolean defaults should all be false")
	}
	if m.License != want.License || m.Category != want.Category || m.Sequence != 100 || m.Version != "1.0" {
		t.Errorf("defaults = %+v", m)
	}
	if m.Depends == nil || len(m.Depends) != 0 {
		t.Errorf("Depends = %#v, want empty slice", m.Depends)
	}
}

func TestParse_LegacyActiveAndAutoInstallList(t *testing.T) {
	m, err := Parse([]byte(`{"active": True, "installable": False}`))
	if err != nil {
		t.Fatal(err)
	}
	if !m.AutoInstall || !m.Deployable() {
		t.Error(`"active" should map to auto_install`)
	}

	m, err = Parse([]byte(`{"auto_install": ["sale", "stock"]}`))
	if err != nil {
		t.Fatal(err)
	}
	if !m.AutoInstall {
		t.Error("non-empty auto_install list should be truthy")
	}
}

func TestParse_Errors(t *testing.T) {
	for _, src := range []string{
		`['not', 'a', 'dict']`,
		`{'name': 'x'`,
		`{'depends': [os.getcwd()]}`,
		`{'name': 'unterminated}`,
	} {
		if _, err := Parse([]byte(src)); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", src)
		}
	}
}

func TestParseLiteral(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want any
	}{
		{"implicit concat", `'foo' "bar"`, "foobar"},
		{"raw string", `r'\d+'`, `\d+`},
		{"escapes", `'a\nb\'c'`, "a\nb'c"},
		{"int", `-42`, int64(-42)},
		{"float", `1.5e3`, 1500.0},
		{"none", `None`, nil},
		{"paren expr", `('x')`, "x"},
		{"paren concat", "('line one '\n 'line two')", "line one line two"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLiteral(tt.src)
			if err != nil {
				t.Fatalf("parseLiteral(%q) error = %v", tt.src, err)
			}
			if got != tt.want {
				t.Errorf("parseLiteral(%q) = %#v, want %#v", tt.src, got, tt.want)
			}
		})
	}
}

func TestParseLiteral_Rejected(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"bytes", `b'data'`, "bytes and f-string"},
		{"f-string", `f"{name}"`, "bytes and f-string"},
		{"set", `{'a', 'b'}`, "set literals"},
		{"single item set", `{'a'}`, "set literals"},
		{"call", `dict(a=1)`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseLiteral(tt.src)
			if err == nil {
				t.Fatalf("parseLiteral(%q) succeeded, want error", tt.src)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("parseLiteral(%q) error = %v, want %q", tt.src, err, tt.want)
			}
		})
	}
}

func TestParseLiteral_Containers(t *testing.T) {
	got, err := parseLiteral(`{'a': (1, 2,), 'b': [], 'c': {'d': True,},}  # trailing`)
	if err != nil {
		t.Fatal(err)
	}
	m := got.(map[string]any)
	if tup := m["a"].([]any); len(tup) != 2 || tup[1] != int64(2) {
		t.Errorf("a = %#v", m["a"])
	}
	if l := m["b"].([]any); len(l) != 0 {
		t.Errorf("b = %#v", m["b"])
	}
	if m["c"].(map[string]any)["d"] != true {
		t.Errorf("c = %#v", m["c"])
	}
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	addons := filepath.Join(root, "odoo", "src", "addons")
	external := filepath.Join(root, "odoo", "external-src")

	writeModule(t, filepath.Join(addons, "sale"), "__manifest__.py", saleManifest)
	writeModule(t, filepath.Join(addons, "legacy"), "__openerp__.py", `{'installable': True}`)
	writeModule(t, filepath.Join(external, "server-tools", "base_technical_user"), "__manifest__.py", `{'installable': True}`)
	writeModule(t, filepath.Join(external, "deep", "a", "b", "too_deep"), "__manifest__.py", `{}`)
	writeModule(t, filepath.Join(addons, "sale", "static", "nested"), "__manifest__.py", `{}`)

	found, err := Scan([]string{addons, external, filepath.Join(root, "missing")}, DefaultDepth)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	for _, name := range []string{"sale", "legacy", "base_technical_user"} {
		if _, ok := found[name]; !ok {
			t.Errorf("module %s not found", name)
		}
	}
	if _, ok := found["too_deep"]; ok {
		t.Error("module below scan depth was found")
	}
	if _, ok := found["nested"]; ok {
		t.Error("scan descended into a module directory")
	}
}

func TestLoad(t *testing.T) {
	dir := writeModule(t, filepath.Join(t.TempDir(), "sale"), "__manifest__.py", saleManifest)

	m, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "sale" || m.Path != dir {
		t.Errorf("Name=%q Path=%q", m.Name, m.Path)
	}

	_, err = Load(t.TempDir())
	if !errors.Is(err, errors.ErrCodeInvalidManifest) {
		t.Errorf("Load(empty dir) = %v, want INVALID_MANIFEST", err)
	}
}

func TestLoadAll(t *testing.T) {
	root := t.TempDir()
	first := filepath.Join(root, "src")
	second := filepath.Join(root, "local")

	writeModule(t, filepath.Join(first, "sale"), "__manifest__.py", `{'version': '1.0'}`)
	writeModule(t, filepath.Join(second, "sale"), "__manifest__.py", `{'version': '2.0'}`)
	writeModule(t, filepath.Join(second, "broken"), "__manifest__.py", `{'version': `)
	writeModule(t, filepath.Join(second, "crm"), "__manifest__.py", `{'depends': ['sale']}`)

	got, err := LoadAll([]string{first, second}, DefaultDepth, nil)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, m := range got {
		names = append(names, m.Name)
	}
	if want := []string{"crm", "sale"}; !slices.Equal(names, want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	if got[1].Version != "2.0" {
		t.Errorf("duplicate module: version %s kept, want the later path's 2.0", got[1].Version)
	}
}
