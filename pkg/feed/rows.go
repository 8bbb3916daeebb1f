package feed

import (
	"encoding/csv"
	"errors"
	"io"
	"regexp"
	"strconv"
)

// ModuleRow is one dependency edge read from ir_module_module_dependency,
// with the attributes of both modules. Parent is the dependency and child
// the module declaring it, so base is the parent of sale.
type ModuleRow struct {
	ParentName        string `json:"parent_name"`
	ParentState       string `json:"parent_state"`
	ParentLicense     string `json:"parent_license"`
	ParentApplication bool   `json:"parent_application"`
	ChildName         string `json:"child_name"`
	ChildState        string `json:"child_state"`
	ChildLicense      string `json:"child_license"`
	ChildApplication  bool   `json:"child_application"`
}

// ViewRow is one inheritance edge of ir_ui_view. The parent columns are empty
// for root views, which the view query returns through its RIGHT JOIN.
type ViewRow struct {
	ParentID        string `json:"parent_id"`
	ParentKey       string `json:"parent_key"`
	ParentName      string `json:"parent_name"`
	ParentWebsiteID string `json:"parent_website_id"`
	ChildID         string `json:"child_id"`
	ChildKey        string `json:"child_key"`
	ChildName       string `json:"child_name"`
	ChildWebsiteID  string `json:"child_website_id"`
}

// Stats reports what decoding discarded.
type Stats struct {
	Rows      int // rows decoded
	Preamble  int // non-data lines (docker-compose and psql chatter)
	Malformed int // data-looking lines with the wrong shape
}

const rowColumns = 8

// moduleNameStart matches the start of a technical module name. Lines that
// do not start with one are preamble, not data.
var moduleNameStart = regexp.MustCompile(`^[_a-z]+`)

// DecodeModuleRows decodes the CSV output of [ModuleQuery].
func DecodeModuleRows(r io.Reader) ([]ModuleRow, Stats, error) {
	var rows []ModuleRow
	stats, err := decodeCSV(r, func(rec []string) bool {
		return moduleNameStart.MatchString(rec[0])
	}, func(rec []string) {
		rows = append(rows, ModuleRow{
			ParentName:        rec[0],
			ParentState:       rec[1],
			ParentLicense:     rec[2],
			ParentApplication: rec[3] == "t",
			ChildName:         rec[4],
			ChildState:        rec[5],
			ChildLicense:      rec[6],
			ChildApplication:  rec[7] == "t",
		})
	})
	return rows, stats, err
}

// DecodeViewRows decodes the CSV output of [ViewQuery]. A row is data when
// its child id column is numeric.
func DecodeViewRows(r io.Reader) ([]ViewRow, Stats, error) {
	var rows []ViewRow
	stats, err := decodeCSV(r, func(rec []string) bool {
		if len(rec) <= 4 {
			return false
		}
		_, err := strconv.Atoi(rec[4])
		return err == nil
	}, func(rec []string) {
		rows = append(rows, ViewRow{
			ParentID:        rec[0],
			ParentKey:       rec[1],
			ParentName:      rec[2],
			ParentWebsiteID: rec[3],
			ChildID:         rec[4],
			ChildKey:        rec[5],
			ChildName:       rec[6],
			ChildWebsiteID:  rec[7],
		})
	})
	return rows, stats, err
}

// decodeCSV reads records, classifies them with isData and hands well formed
// data rows to emit. Lines the CSV reader cannot parse count as malformed.
func decodeCSV(r io.Reader, isData func([]string) bool, emit func([]string)) (Stats, error) {
	var stats Stats
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return stats, nil
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			stats.Malformed++
			continue
		}
		if err != nil {
			return stats, err
		}

		if len(rec) == 0 || !isData(rec) {
			stats.Preamble++
			continue
		}
		if len(rec) != rowColumns {
			stats.Malformed++
			continue
		}
		emit(rec)
		stats.Rows++
	}
}
