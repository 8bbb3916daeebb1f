// Package migrationlog extracts the failures of a database migration run
// from its log.
//
// Odoo and PostgreSQL report migration problems as free text: constraints
// that cannot be added, tables that cannot be dropped because other tables
// depend on them, missing columns, fields that fail to load, modules whose
// dependencies are missing. [Parse] scans a log for these lines and groups
// them into a [Report] that can be printed as JSON and fixed one by one.
//
// Marabunta step lines ("|> version setup: ...") are collected as well, with
// the time each step took.
package migrationlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/matzehuels/odoomig/pkg/marabunta"
)

// DefaultFile is the log read when no file is given.
const DefaultFile = "database_migration.log"

// NoTable groups missing columns reported without a table.
const NoTable = "no_table"

// UnknownConstraint keys table failures that match no known shape.
const UnknownConstraint = "unknown"

// Report is what a migration log says went wrong.
type Report struct {
	// Constraints maps a table to its failing constraints or columns: a
	// constraint name gives its SQL, a column name the settings that could not
	// be applied, [UnknownConstraint] the raw line.
	Constraints map[string]map[string]any `json:"constraints"`

	// InvalidModules lists modules that were not loaded, sorted.
	InvalidModules []string `json:"invalid_modules"`

	// DropTableDependencies maps a table that could not be dropped to the
	// tables depending on it and the constraint linking them.
	DropTableDependencies map[string]map[string]string `json:"drop_table_dependencies"`

	// ColumnsMissing maps a table (or [NoTable]) to its missing columns and the
	// line numbers they were reported on.
	ColumnsMissing map[string]map[string][]int `json:"columns_missing"`

	// FieldsLoadFailed maps a model prefix and the rest of the model name to
	// the fields that could not be loaded.
	FieldsLoadFailed map[string]map[string][]string `json:"fields_load_failed"`

	// Steps are the marabunta steps in log order.
	Steps []Step `json:"steps"`

	// Errors are the lines that looked relevant but could not be parsed.
	Errors []LineError `json:"errors,omitempty"`
}

// Step is a marabunta step line. Time is the last timestamp logged before
// it; Duration runs until the next step or the end of the log.
type Step struct {
	Line     int           `json:"line"`
	Text     string        `json:"text"`
	Time     *time.Time    `json:"time,omitempty"`
	Duration time.Duration `json:"duration_ns,omitempty"`
}

// LineError is a log line the parser gave up on.
type LineError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
	Text    string `json:"text"`
}

func newReport() *Report {
	return &Report{
		Constraints:           map[string]map[string]any{},
		InvalidModules:        []string{},
		DropTableDependencies: map[string]map[string]string{},
		ColumnsMissing:        map[string]map[string][]int{},
		FieldsLoadFailed:      map[string]map[string][]string{},
		Steps:                 []Step{},
	}
}

const name = `([a-zA-Z0-9_ ]*)`

var (
	dropRe           = regexp.MustCompile(`sql_db: bad query: DROP TABLE "` + name + `"`)
	dropDetailRe     = regexp.MustCompile(`constraint ` + name + ` on table ` + name + ` depends on table ` + name)
	dropHintRe       = regexp.MustCompile(`^\s*HINT:`)
	modulesRe        = regexp.MustCompile(`Some modules are not loaded, some dependencies or manifest may be missing: (\[.*\])`)
	tableRe          = regexp.MustCompile(`Table '` + name + `': unable to `)
	columnRe         = regexp.MustCompile(`set ` + name + ` on column '` + name + `'`)
	constraintRe     = regexp.MustCompile(`add constraint '` + name + `' as ([a-zA-Z_ ]*\(.*\))`)
	checkStartRe     = regexp.MustCompile(`add constraint '` + name + `' as CHECK\($`)
	checkEndRe       = regexp.MustCompile(`^\s*\)\s*$`)
	columnMissingRe  = regexp.MustCompile(`(psycopg2\.ProgrammingError|ERROR): column ` + name + `\.` + name + ` does not exist`)
	columnMissing2Re = regexp.MustCompile(`ERROR:  column "` + name + `" does not exist`)
	columnMissing3Re = regexp.MustCompile(`ERROR:  column "` + name + `" of relation "` + name + `" does not exist`)
	fieldLoadRe      = regexp.MustCompile(`ir_model: Failed to load field ([a-zA-Z0-9_]+)\.([a-zA-Z0-9_.]+)\.([a-zA-Z0-9_]+): skipped`)
	timestampRe      = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}),(\d{3})`)
)

// Parse reads a migration log and reports what went wrong. Lines that cannot
// be parsed are recorded in Report.Errors and parsing goes on; only read
// errors are returned.
func Parse(r io.Reader) (*Report, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}

	rep := newReport()
	var last *time.Time
	for i, line := range lines {
		no := i + 1
		if ts, ok := parseTimestamp(line); ok {
			last = &ts
		}
		if marabunta.IsStepLine(line) {
			rep.Steps = append(rep.Steps, Step{Line: no, Text: strings.TrimSpace(line), Time: last})
		}
		for _, parse := range []func(*Report, []string, int) error{
			parseDropTable,
			parseInvalidModules,
			parseConstraints,
			parseMissingColumns,
			parseFieldsLoad,
		} {
			if err := parse(rep, lines, i); err != nil {
				rep.Errors = append(rep.Errors, LineError{Line: no, Message: err.Error(), Text: line})
			}
		}
	}
	setDurations(rep.Steps, last)
	return rep, nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	return lines, nil
}

func parseTimestamp(line string) (time.Time, bool) {
	m := timestampRe.FindStringSubmatch(line)
	if m == nil {
		return time.Time{}, false
	}
	ts, err := time.Parse("2006-01-02 15:04:05.000", m[1]+"."+m[2])
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func setDurations(steps []Step, end *time.Time) {
	for i := range steps {
		if steps[i].Time == nil {
			continue
		}
		next := end
		if i+1 < len(steps) {
			next = steps[i+1].Time
		}
		if next != nil {
			steps[i].Duration = next.Sub(*steps[i].Time)
		}
	}
}

// parseDropTable collects the DETAIL lines following a failed DROP TABLE up
// to the HINT line.
func parseDropTable(rep *Report, lines []string, i int) error {
	m := dropRe.FindStringSubmatch(lines[i])
	if m == nil {
		return nil
	}
	table := m[1]
	deps, ok := rep.DropTableDependencies[table]
	if !ok {
		deps = map[string]string{}
		rep.DropTableDependencies[table] = deps
	}
	for _, line := range lines[i+1:] {
		if dropHintRe.MatchString(line) {
			return nil
		}
		d := dropDetailRe.FindStringSubmatch(line)
		if d == nil {
			continue
		}
		if _, seen := deps[d[2]]; !seen {
			deps[d[2]] = d[1]
		}
	}
	return fmt.Errorf("no HINT line after DROP TABLE %q", table)
}

func parseInvalidModules(rep *Report, lines []string, i int) error {
	m := modulesRe.FindStringSubmatch(lines[i])
	if m == nil {
		return nil
	}
	var mods []string
	if err := json.Unmarshal([]byte(strings.ReplaceAll(m[1], "'", `"`)), &mods); err != nil {
		return fmt.Errorf("module list: %w", err)
	}
	rep.InvalidModules = append(rep.InvalidModules, mods...)
	sort.Strings(rep.InvalidModules)
	rep.InvalidModules = slices.Compact(rep.InvalidModules)
	return nil
}

func parseConstraints(rep *Report, lines []string, i int) error {
	line := lines[i]
	m := tableRe.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	table := m[1]
	entries, ok := rep.Constraints[table]
	if !ok {
		entries = map[string]any{}
		rep.Constraints[table] = entries
	}

	if c := constraintRe.FindStringSubmatch(line); c != nil {
		entries[c[1]] = c[2]
		return nil
	}
	if c := checkStartRe.FindStringSubmatch(line); c != nil {
		var sb strings.Builder
		sb.WriteString("CHECK(")
		for _, next := range lines[i+1:] {
			sb.WriteString(next)
			sb.WriteString("\n")
			if checkEndRe.MatchString(next) {
				entries[c[1]] = strings.TrimSuffix(strings.ReplaceAll(sb.String(), "\n\n", "\n"), "\n")
				return nil
			}
		}
		return fmt.Errorf("unterminated CHECK constraint %q", c[1])
	}
	if c := columnRe.FindStringSubmatch(line); c != nil {
		column, setting := c[2], c[1]
		settings, _ := entries[column].([]string)
		if !slices.Contains(settings, setting) {
			settings = append(settings, setting)
			sort.Strings(settings)
		}
		entries[column] = settings
		return nil
	}
	entries[UnknownConstraint] = line
	return nil
}

func parseMissingColumns(rep *Report, lines []string, i int) error {
	line, no := lines[i], i+1
	if m := columnMissingRe.FindStringSubmatch(line); m != nil {
		addMissing(rep, m[2], m[3], no)
	}
	if m := columnMissing2Re.FindStringSubmatch(line); m != nil {
		addMissing(rep, NoTable, m[1], no)
	}
	if m := columnMissing3Re.FindStringSubmatch(line); m != nil {
		addMissing(rep, m[2], m[1], no)
	}
	return nil
}

func addMissing(rep *Report, table, column string, no int) {
	cols, ok := rep.ColumnsMissing[table]
	if !ok {
		cols = map[string][]int{}
		rep.ColumnsMissing[table] = cols
	}
	if !slices.Contains(cols[column], no) {
		cols[column] = append(cols[column], no)
		slices.Sort(cols[column])
	}
}

func parseFieldsLoad(rep *Report, lines []string, i int) error {
	m := fieldLoadRe.FindStringSubmatch(lines[i])
	if m == nil {
		return nil
	}
	prefix, model, field := m[1], m[2], m[3]
	models, ok := rep.FieldsLoadFailed[prefix]
	if !ok {
		models = map[string][]string{}
		rep.FieldsLoadFailed[prefix] = models
	}
	if !slices.Contains(models[model], field) {
		models[model] = append(models[model], field)
		sort.Strings(models[model])
	}
	return nil
}
