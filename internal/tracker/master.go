package tracker

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/big"
	"os"
	"regexp"
	"sort"
	"strings"
)

// MasterGroup aggregates master rows that share a CDs11 key: the first seen
// declaration type and bill, plus the sorted set of invoice identifiers.
type MasterGroup struct {
	CDs11    string
	CDsType  string
	Bill     string
	Invoices []string
}

// MasterIndex is the master CDs list keyed by CDs11.
type MasterIndex struct {
	keys   []string
	groups map[string]*MasterGroup
}

// Len returns the number of declaration groups.
func (m *MasterIndex) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the CDs11 keys in sorted order.
func (m *MasterIndex) Keys() []string {
	return m.keys
}

// Group returns the master group for a CDs11 key.
func (m *MasterIndex) Group(key string) *MasterGroup {
	return m.groups[key]
}

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]`)

// LoadMaster reads the master CDs list from CSV. Master files come from
// whatever spreadsheet the ops team maintains, so headers are matched
// loosely: lowercased, stripped of punctuation, then detected by keyword.
// CDs, Invoice and CDsType columns are required; Bill is optional.
func LoadMaster(r io.Reader) (*MasterIndex, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing master file: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("master file is empty")
	}

	columns, err := mapMasterColumns(records[0])
	if err != nil {
		return nil, err
	}

	index := &MasterIndex{groups: make(map[string]*MasterGroup)}
	for _, record := range records[1:] {
		row := make(map[string]string)
		for i, name := range columns {
			if i < len(record) {
				row[name] = strings.TrimSpace(record[i])
			}
		}
		key := normalizeCDs11(row["CDs"])
		if key == "" {
			continue
		}
		group, ok := index.groups[key]
		if !ok {
			group = &MasterGroup{
				CDs11:   key,
				CDsType: row["CDsType"],
				Bill:    row["Bill"],
			}
			index.groups[key] = group
			index.keys = append(index.keys, key)
		}
		if invoice := row["Invoice"]; invoice != "" && !contains(group.Invoices, invoice) {
			group.Invoices = append(group.Invoices, invoice)
		}
	}
	sort.Strings(index.keys)
	for _, group := range index.groups {
		sort.Strings(group.Invoices)
	}
	return index, nil
}

// LoadMasterFile reads a master CDs list from disk.
func LoadMasterFile(path string) (*MasterIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening master file: %w", err)
	}
	defer f.Close()
	return LoadMaster(f)
}

// mapMasterColumns detects the semantic columns of a master header. CDsType
// is detected before the generic CDs column so headers like "CDs Type" do
// not get claimed as the declaration-number column.
func mapMasterColumns(header []string) (map[int]string, error) {
	columns := make(map[int]string)
	mapped := make(map[string]bool)
	for i, name := range header {
		clean := nonAlnumRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "")
		switch {
		case strings.Contains(clean, "cdstype"),
			strings.HasPrefix(clean, "type") && !mapped["CDsType"]:
			columns[i] = "CDsType"
			mapped["CDsType"] = true
		case strings.HasPrefix(clean, "invoice") || strings.HasPrefix(clean, "inv"):
			columns[i] = "Invoice"
			mapped["Invoice"] = true
		case strings.Contains(clean, "bill") || strings.Contains(clean, "awb") || strings.Contains(clean, "bl"):
			columns[i] = "Bill"
			mapped["Bill"] = true
		case (strings.HasPrefix(clean, "cds") || strings.HasSuffix(clean, "cds") ||
			strings.Contains(clean, "cdsno") || strings.Contains(clean, "cdsnm") ||
			strings.Contains(clean, "barcode")) && !mapped["CDs"]:
			columns[i] = "CDs"
			mapped["CDs"] = true
		}
	}

	var missing []string
	for _, required := range []string{"CDs", "Invoice", "CDsType"} {
		if !mapped[required] {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("master file missing required columns: %s", strings.Join(missing, ", "))
	}
	return columns, nil
}

// normalizeCDs11 turns a raw master CDs value into the 11-digit grouping
// key. Spreadsheet exports can deliver the number in scientific notation, so
// numeric-looking values go through a big.Float round trip before the digit
// strip, to avoid float precision loss.
func normalizeCDs11(value string) string {
	s := strings.TrimSpace(value)
	if s == "" {
		return ""
	}
	cleaned := strings.NewReplacer(",", "", " ", "").Replace(s)

	digits := ""
	if f, ok := new(big.Float).SetString(cleaned); ok {
		n, _ := f.Int(nil)
		if n != nil {
			digits = digitsOnly(n.Text(10))
		}
	}
	if digits == "" {
		digits = digitsOnly(s)
	}
	if len(digits) > 11 {
		digits = digits[:11]
	}
	return digits
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
