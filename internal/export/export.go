package export

import (
	"bufio"
	"encoding/csv"
	"io"
	"strings"

	"github.com/vinnienasta1/ProITech-pub/internal/index"
	"github.com/vinnienasta1/ProITech-pub/internal/inventory"
)

// ParseSerials extracts inventory numbers from pasted text or a TXT/CSV
// file. Tokens split on commas, semicolons, tabs, spaces and newlines;
// only digit-only tokens survive.
func ParseSerials(r io.Reader) ([]string, error) {
	var out []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		for _, sep := range []string{";", "\t", " "} {
			line = strings.ReplaceAll(line, sep, ",")
		}
		for _, token := range strings.Split(line, ",") {
			token = strings.TrimSpace(token)
			if token != "" && isDigits(token) {
				out = append(out, token)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Table renders the found set through the display layer: a header row from
// the visible field mappings, then one row per record with entity labels
// resolved via the snapshot and locations trimmed.
func Table(fields *inventory.FieldTable, snap *index.Snapshot, records []inventory.Record) [][]string {
	visible := fields.VisibleEntries()
	header := make([]string, 0, len(visible))
	for _, m := range visible {
		header = append(header, m.DisplayName)
	}
	rows := [][]string{header}
	for _, rec := range records {
		row := make([]string, 0, len(visible))
		for _, m := range visible {
			row = append(row, displayValue(snap, rec, m.APIKey))
		}
		rows = append(rows, row)
	}
	return rows
}

func displayValue(snap *index.Snapshot, rec inventory.Record, apiKey string) string {
	if apiKey == "type" {
		return rec.Kind.DisplayName()
	}
	if apiKey == "otherserial" {
		if s := rec.ResolvedSerial(); s != "" {
			return s
		}
		return inventory.LabelMissing
	}
	raw := rec.Field(apiKey)
	entity, isRef := inventory.ReferenceFields[apiKey]
	if !isRef {
		if raw == "" {
			return inventory.LabelMissing
		}
		return raw
	}
	if raw == "" || raw == "0" {
		return inventory.LabelMissing
	}
	label, ok := snap.EntityLabel(entity, raw)
	if !ok {
		return inventory.LabelMissing
	}
	if entity == inventory.EntityLocation {
		return inventory.DisplayLocation(label)
	}
	return label
}

// WriteCSV writes the table with the `;` delimiter ru-locale spreadsheets
// expect.
func WriteCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	return writeAll(cw, rows)
}

// WriteTSV writes the table tab-separated, suitable for pasting into a
// spreadsheet.
func WriteTSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	return writeAll(cw, rows)
}

func writeAll(cw *csv.Writer, rows [][]string) error {
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
