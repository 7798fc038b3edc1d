package rules

import (
	"fmt"
	"strings"
)

// DocTypeCount is the number of document columns in the rule matrix.
const DocTypeCount = 12

// DocTypes returns the DocType codes D01..D12 in matrix column order.
func DocTypes() []string {
	types := make([]string, 0, DocTypeCount)
	for i := 1; i <= DocTypeCount; i++ {
		types = append(types, fmt.Sprintf("D%02d", i))
	}
	return types
}

// Requirement is one cell of the rule matrix: Null when the document does
// not apply to the declaration type, otherwise the raw cell value ("Yes" or
// a placeholder form such as "{INVOICE}"). Cells are kept raw so future
// placeholder tokens pass through unchanged.
type Requirement string

// ReqNull marks a document type that is not applicable.
const ReqNull Requirement = "Null"

// Normalize maps empty cells and the spreadsheet null spellings to ReqNull
// and returns every other value as-is.
func Normalize(cell string) Requirement {
	s := strings.TrimSpace(cell)
	if s == "" {
		return ReqNull
	}
	switch strings.ToLower(s) {
	case "null", "nan", "none":
		return ReqNull
	}
	return Requirement(s)
}

// IsNull reports whether the document type is not applicable.
func (r Requirement) IsNull() bool {
	return r == ReqNull
}

// NeedsInvoice reports whether the cell requires the invoice identifier to
// appear in the file stem.
func (r Requirement) NeedsInvoice() bool {
	return strings.Contains(string(r), "{INVOICE}")
}

// RuleTable maps each CDsType to its per-DocType requirements, preserving
// the row order of the template CSV.
type RuleTable struct {
	order []string
	rows  map[string]map[string]Requirement
}

// LoadTable reads the template CSV: a header row, then one row per CDsType
// whose columns 1..12 correspond to D01..D12. A trailing comment block is
// marked by a first cell starting with "Note" and ends the table.
func LoadTable(path string) (*RuleTable, error) {
	records, err := readRecords(path)
	if err != nil {
		return nil, fmt.Errorf("loading rule table: %w", err)
	}

	table := &RuleTable{rows: make(map[string]map[string]Requirement)}
	if len(records) == 0 {
		return table, nil
	}
	for _, record := range records[1:] {
		if isBlankRow(record) {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(record[0]), "Note") {
			break
		}
		cdsType := strings.TrimSpace(record[0])
		if cdsType == "" {
			continue
		}
		reqs := make(map[string]Requirement, DocTypeCount)
		for i, docType := range DocTypes() {
			col := i + 1
			cell := ""
			if col < len(record) {
				cell = record[col]
			}
			reqs[docType] = Normalize(cell)
		}
		if _, exists := table.rows[cdsType]; !exists {
			table.order = append(table.order, cdsType)
		}
		table.rows[cdsType] = reqs
	}
	return table, nil
}

// Len returns the number of CDsType rows.
func (t *RuleTable) Len() int {
	return len(t.order)
}

// Requirements returns the rule set for a CDsType, or nil when the type is
// not in the table.
func (t *RuleTable) Requirements(cdsType string) map[string]Requirement {
	return t.rows[cdsType]
}

// First returns the first rule set in table order. It is the generic
// fallback used in per-invoice mode, where no declaration type is known.
func (t *RuleTable) First() map[string]Requirement {
	if len(t.order) == 0 {
		return nil
	}
	return t.rows[t.order[0]]
}
