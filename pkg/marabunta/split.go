// Package marabunta prepares and runs split marabunta migrations.
//
// A full migration of a large database takes hours, most of it in the
// "installation / upgrade of addons" step. Splitting the run in two phases
// lets the pre-operations be iterated on alone:
//
//   - the pre phase removes every post operation from migration.yml, migrates
//     a copy of the template database and stops as soon as the addons step
//     starts;
//   - the post phase removes every pre operation and migrates a copy of the
//     pre database.
//
// migration.yml is edited in place; the original is kept next to it with a
// .bak suffix and restored before every run.
package marabunta

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/odoomig/pkg/errors"
)

// Phase selects which half of a migration runs.
type Phase string

const (
	// PhaseFull runs migration.yml unchanged.
	PhaseFull Phase = ""
	// PhasePre runs up to the addons upgrade, without post operations.
	PhasePre Phase = "pre"
	// PhasePost runs without pre operations.
	PhasePost Phase = "post"
)

// DefaultFile is the marabunta file of a project checkout.
const DefaultFile = "odoo/migration.yml"

// BackupSuffix is appended to the migration file to keep the original.
const BackupSuffix = ".bak"

// prunePaths are the operations removed from migration.yml for each phase.
var prunePaths = map[Phase][]string{
	PhasePre: {
		"migration/versions/modes/migration/operations/post",
		"migration/versions/operations/post",
		"migration/versions/samples/operations/post",
	},
	PhasePost: {
		"migration/versions/modes/migration/operations/pre",
		"migration/versions/operations/pre",
		"migration/versions/samples/operations/pre",
	},
}

// ParsePhase returns the phase named s ("", "full", "pre" or "post").
func ParsePhase(s string) (Phase, error) {
	switch strings.ToLower(s) {
	case "", "full":
		return PhaseFull, nil
	case "pre":
		return PhasePre, nil
	case "post":
		return PhasePost, nil
	}
	return PhaseFull, errors.New(errors.ErrCodeInvalidInput, "unknown phase %q, use pre or post", s)
}

func (p Phase) String() string {
	if p == PhaseFull {
		return "full"
	}
	return string(p)
}

// Prune removes the key at a slash-separated path from node.
//
// The path is matched anywhere below node: keys that do not match its first
// segment are searched with the full path, and every element of a sequence
// is searched. When the last segment matches, the key and its value are
// deleted from the mapping.
func Prune(node *yaml.Node, path string) {
	if path == "" || node == nil {
		return
	}
	prune(node, strings.Split(path, "/"))
}

func prune(node *yaml.Node, segs []string) {
	switch node.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, c := range node.Content {
			prune(c, segs)
		}
	case yaml.MappingNode:
		kept := node.Content[:0]
		for i := 0; i+1 < len(node.Content); i += 2 {
			k, v := node.Content[i], node.Content[i+1]
			if k.Value != segs[0] {
				prune(v, segs)
			} else if len(segs) == 1 {
				continue
			} else {
				prune(v, segs[1:])
			}
			kept = append(kept, k, v)
		}
		node.Content = kept
	}
}

// Split returns migration.yml data with the operations of the other phase
// removed. Comments and key order are preserved.
func Split(data []byte, phase Phase) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse migration file")
	}
	if doc.Kind == 0 {
		return data, nil
	}
	for _, path := range prunePaths[phase] {
		Prune(&doc, path)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode migration file")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode migration file")
	}
	return buf.Bytes(), nil
}

// Original returns the unmodified content of the migration file at path.
// If a backup exists it is restored first, otherwise one is created, so that
// repeated splits always start from the original file.
func Original(path string) ([]byte, error) {
	backup := path + BackupSuffix
	data, err := os.ReadFile(backup)
	switch {
	case err == nil:
		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "restore %s", path)
		}
		return data, nil
	case os.IsNotExist(err):
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", path)
		}
		if err := os.WriteFile(backup, data, 0644); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "back up %s", path)
		}
		return data, nil
	default:
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", backup)
	}
}

// SplitFile rewrites the migration file at path for phase, starting from
// the original content.
func SplitFile(path string, phase Phase) error {
	data, err := Original(path)
	if err != nil {
		return err
	}
	out, err := Split(data, phase)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	return nil
}

// LogFileName names the log of a migration started at t.
func LogFileName(t time.Time, phase Phase) string {
	name := "database_migration_" + t.Format("2006_01-02_15_04") + ".log"
	if phase != PhaseFull {
		name += "." + string(phase)
	}
	return name
}

const (
	stepMarker = "|> version setup: "
	addonsStep = "installation / upgrade of addons"
)

// IsStepLine reports whether line announces a marabunta step.
func IsStepLine(line string) bool {
	return strings.Contains(line, stepMarker)
}

// StopAfterAddons reports whether a pre phase run must stop at line: the
// addons upgrade belongs to the post phase.
func StopAfterAddons(line string) bool {
	return IsStepLine(line) && strings.Contains(line, addonsStep)
}
