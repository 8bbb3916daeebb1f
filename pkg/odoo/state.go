package odoo

import (
	"slices"

	"github.com/matzehuels/odoomig/pkg/errors"
)

// State is the lifecycle state of an Odoo module. The empty State stands for
// "unknown": a module the database or the manifest scan did not report.
type State string

// Module states as stored in ir_module_module.state, plus the two states
// derived from manifests.
const (
	StateToInstall     State = "to install"
	StateToUpgrade     State = "to upgrade"
	StateToRemove      State = "to remove"
	StateInstallable   State = "installable"
	StateInstalled     State = "installed"
	StateUninstallable State = "uninstallable"
	StateUninstalled   State = "uninstalled"
)

// States lists every valid state.
var States = []State{
	StateToInstall,
	StateToUpgrade,
	StateToRemove,
	StateInstallable,
	StateInstalled,
	StateUninstallable,
	StateUninstalled,
}

// ErrInconsistentState is the cause of the error Merge returns when no state
// can be derived from a pair.
var ErrInconsistentState = errors.New(errors.ErrCodeInconsistentState, "inconsistent states")

type statePair struct{ db, manifest State }

// overrides resolves the pairs where the manifest outranks the database.
var overrides = map[statePair]State{
	{"", ""}:                               StateUninstallable,
	{StateInstalled, StateUninstallable}:   StateToRemove,
	{StateInstallable, StateUninstallable}: StateUninstallable,
	{StateUninstallable, StateInstallable}: StateInstallable,
	{StateToInstall, StateUninstallable}:   StateUninstallable,
	{StateToUpgrade, StateUninstallable}:   StateUninstallable,
}

// Merge resolves the state of a module from the state found in the database
// and the state derived from its manifest.
//
// A module without a manifest is uninstallable. Otherwise a fixed override
// table decides, then the database state wins, and a module the database
// does not know about is to be removed. A state outside the known set makes
// the pair inconsistent.
func Merge(db, manifest State) (State, error) {
	if !db.known() || !manifest.known() {
		return "", errors.Wrap(errors.ErrCodeInconsistentState, ErrInconsistentState, "db:%q manifest:%q", db, manifest)
	}
	if manifest == "" {
		return StateUninstallable, nil
	}
	if s, ok := overrides[statePair{db, manifest}]; ok {
		return s, nil
	}
	if db != "" {
		return db, nil
	}
	return StateToRemove, nil
}

// known reports whether s is empty or one of States.
func (s State) known() bool {
	return s == "" || slices.Contains(States, s)
}

// ParseState validates s against the closed set of states.
func ParseState(s string) (State, error) {
	if st := State(s); st != "" && st.known() {
		return st, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown module state %q", s)
}

type stateStyle struct {
	border, fill, group string
}

var stateStyles = map[State]stateStyle{
	StateToInstall:     {"black", "green", "install"},
	StateToUpgrade:     {"black", "orange", "upgrade"},
	StateToRemove:      {"black", "red", "remove"},
	StateInstalled:     {"black", "white", "installed"},
	StateInstallable:   {"black", "blue", "installable"},
	StateUninstalled:   {"white", "grey", "uninstalled"},
	StateUninstallable: {"white", "lightgrey", "uninstallable"},
}

// Style returns the border color, fill color and display group of a state.
// Unknown states get empty strings.
func Style(s State) (border, fill, group string) {
	st := stateStyles[s]
	return st.border, st.fill, st.group
}
