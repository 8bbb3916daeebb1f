// Package manifest reads Odoo module manifests from addons directories.
//
// An Odoo module is a directory holding a __manifest__.py (or the legacy
// __openerp__.py) whose body is a single Python dict literal. [Scan] finds
// module directories below a list of addons paths, [Load] evaluates one
// manifest, and [LoadAll] does both while tolerating broken modules.
//
// Manifests are evaluated by a small Python literal parser: dicts, lists,
// tuples, strings, numbers, booleans and None. Nothing is executed.
package manifest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/odoomig/pkg/errors"
)

// Files lists the manifest file names, in lookup order.
var Files = []string{"__manifest__.py", "__openerp__.py"}

// DefaultAddonsPaths are the addons directories of a standard project layout.
var DefaultAddonsPaths = []string{
	"./odoo/src/addons",
	"./odoo/src/odoo/addons",
	"./odoo/external-src",
	"./odoo/local-src",
}

// DefaultDepth is how many directory levels below an addons path are scanned.
const DefaultDepth = 2

// Manifest is the subset of a module descriptor odoomig uses.
type Manifest struct {
	Name        string   `json:"name"`        // technical name (directory name)
	Path        string   `json:"path"`        // module directory
	Title       string   `json:"title"`       // the manifest's "name" key
	Application bool     `json:"application"`
	Author      string   `json:"author"`
	AutoInstall bool     `json:"auto_install"`
	Category    string   `json:"category"`
	Depends     []string `json:"depends"`
	Description string   `json:"description"`
	Installable bool     `json:"installable"`
	License     string   `json:"license"`
	Version     string   `json:"version"`
	Web         bool     `json:"web"`
	Website     string   `json:"website"`
	Sequence    int      `json:"sequence"`
	Summary     string   `json:"summary"`
}

// Defaults returns the descriptor values assumed for keys a manifest omits.
func Defaults() Manifest {
	return Manifest{
		Author:   "Odoo S.A.",
		Category: "Uncategorized",
		Depends:  []string{},
		License:  "LGPL-3",
		Version:  "1.0",
		Website:  "https://www.odoo.com",
		Sequence: 100,
	}
}

// Deployable reports whether the module may be installed: it is installable
// or flagged for auto-installation.
func (m Manifest) Deployable() bool {
	return m.Installable || m.AutoInstall
}

// Find returns the manifest file inside dir, or "" if there is none.
func Find(dir string) string {
	for _, name := range Files {
		p := filepath.Join(dir, name)
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p
		}
	}
	return ""
}

// Scan walks paths and returns module name → module directory for every
// directory holding a manifest. Each path is inspected itself and up to depth
// levels below it; module directories are not descended into. Missing paths
// are skipped. When two paths hold the same module name the later one wins.
func Scan(paths []string, depth int) (map[string]string, error) {
	modules := map[string]string{}
	for _, root := range paths {
		fi, err := os.Stat(root)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "scan %s", root)
		}
		if !fi.IsDir() {
			continue
		}
		if err := scanDir(root, depth, modules); err != nil {
			return nil, err
		}
	}
	return modules, nil
}

func scanDir(dir string, depth int, modules map[string]string) error {
	if Find(dir) != "" {
		modules[filepath.Base(dir)] = dir
		return nil
	}
	if depth <= 0 {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", dir)
	}
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") || e.Name() == "__pycache__" {
			continue
		}
		if err := scanDir(filepath.Join(dir, e.Name()), depth-1, modules); err != nil {
			return err
		}
	}
	return nil
}

// Load reads and evaluates the manifest of the module in dir.
func Load(dir string) (Manifest, error) {
	file := Find(dir)
	if file == "" {
		return Manifest{}, errors.New(errors.ErrCodeInvalidManifest, "no manifest in %s", dir)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return Manifest{}, errors.Wrap(errors.ErrCodeInvalidManifest, err, "read %s", file)
	}
	m, err := Parse(data)
	if err != nil {
		return Manifest{}, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parse %s", file)
	}
	m.Name = filepath.Base(dir)
	m.Path = dir
	return m, nil
}

// Parse evaluates manifest source and applies defaults for missing keys.
func Parse(data []byte) (Manifest, error) {
	v, err := parseLiteral(strings.TrimPrefix(string(data), "\ufeff"))
	if err != nil {
		return Manifest{}, err
	}
	info, ok := v.(map[string]any)
	if !ok {
		return Manifest{}, fmt.Errorf("manifest is %T, not a dict", v)
	}

	m := Defaults()
	m.Title = str(info, "name", m.Title)
	m.Application = truthy(info, "application", m.Application)
	m.Author = str(info, "author", m.Author)
	m.AutoInstall = truthy(info, "auto_install", m.AutoInstall)
	if _, ok := info["active"]; ok {
		// "active" is the pre-8.0 name of auto_install
		m.AutoInstall = truthy(info, "active", m.AutoInstall)
	}
	m.Category = str(info, "category", m.Category)
	m.Description = str(info, "description", m.Description)
	m.Installable = truthy(info, "installable", m.Installable)
	m.License = str(info, "license", m.License)
	m.Version = str(info, "version", m.Version)
	m.Web = truthy(info, "web", m.Web)
	m.Website = str(info, "website", m.Website)
	m.Summary = str(info, "summary", m.Summary)
	if n, ok := info["sequence"].(int64); ok {
		m.Sequence = int(n)
	}
	if deps, ok := info["depends"].([]any); ok {
		m.Depends = make([]string, 0, len(deps))
		for _, d := range deps {
			if s, ok := d.(string); ok {
				m.Depends = append(m.Depends, s)
			}
		}
	}
	return m, nil
}

// LoadAll scans paths and loads every manifest found, sorted by module name.
// Manifests that cannot be loaded are logged and skipped.
func LoadAll(paths []string, depth int, logger *log.Logger) ([]Manifest, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	seen := map[string]string{}
	var dirs []string
	for _, root := range paths {
		found, err := Scan([]string{root}, depth)
		if err != nil {
			return nil, err
		}
		for name, dir := range found {
			if prev, dup := seen[name]; dup {
				logger.Warn("module found in several addons paths, keeping the last", "module", name, "ignored", prev, "kept", dir)
				dirs = slices.DeleteFunc(dirs, func(d string) bool { return d == prev })
			}
			seen[name] = dir
			dirs = append(dirs, dir)
		}
	}

	out := make([]Manifest, 0, len(dirs))
	for _, dir := range dirs {
		m, err := Load(dir)
		if err != nil {
			logger.Warn("skipping module", "path", dir, "error", errors.UserMessage(err))
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	logger.Debug("loaded manifests", "count", len(out))
	return out, nil
}

func str(info map[string]any, key, def string) string {
	if s, ok := info[key].(string); ok {
		return s
	}
	return def
}

// truthy applies Python truthiness: auto_install may be a list of modules.
func truthy(info map[string]any, key string, def bool) bool {
	v, ok := info[key]
	if !ok {
		return def
	}
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case int64:
		return t != 0
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return def
}
