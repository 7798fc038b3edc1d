// Package tracker reconciles scanned shipping-document folders against the
// rule matrix and writes the resulting report artifacts.
package tracker

import "github.com/zombor/docs-tracker/internal/rules"

// Status is the evaluation result of one DocType cell in a report row.
type Status string

const (
	// StatusNull marks a document type the declaration type does not require.
	StatusNull Status = "Null"
	// StatusYes marks a requirement satisfied by at least one valid file.
	StatusYes Status = "Yes"
	// StatusNo marks a required document with no file of that type at all.
	StatusNo Status = "No"
	// StatusMismatch marks files of the right type that all fail validation
	// (wrong declaration number, wrong bill, or missing invoice identifier).
	StatusMismatch Status = "Mismatch"
)

// ScannedFile is one classified file from a shipment folder.
type ScannedFile struct {
	Invoice string
	DocType string
	Stem    string
	Tokens  rules.Tokens
	CDs11   string
}

// Mode selects the report grouping.
type Mode string

const (
	// ModePerCDs groups rows by customs declaration, driven by a master list.
	ModePerCDs Mode = "per_cds"
	// ModePerInvoice is the fallback grouping by shipment folder.
	ModePerInvoice Mode = "per_invoice"
)

// ReportRow is one reconciliation result. Per-CDs rows fill CDs, Invoices,
// CDsType and Bill; per-invoice rows fill Invoice only. The D01..D12 cells
// are present in both modes.
type ReportRow struct {
	CDs      string `parquet:"CDs,optional" json:"cds,omitempty"`
	Invoices string `parquet:"Invoices,optional" json:"invoices,omitempty"`
	Invoice  string `parquet:"Invoice,optional" json:"invoice,omitempty"`
	CDsType  string `parquet:"CDsType,optional" json:"cds_type"`
	Bill     string `parquet:"Bill,optional" json:"bill,omitempty"`

	D01 Status `parquet:"D01" json:"d01"`
	D02 Status `parquet:"D02" json:"d02"`
	D03 Status `parquet:"D03" json:"d03"`
	D04 Status `parquet:"D04" json:"d04"`
	D05 Status `parquet:"D05" json:"d05"`
	D06 Status `parquet:"D06" json:"d06"`
	D07 Status `parquet:"D07" json:"d07"`
	D08 Status `parquet:"D08" json:"d08"`
	D09 Status `parquet:"D09" json:"d09"`
	D10 Status `parquet:"D10" json:"d10"`
	D11 Status `parquet:"D11" json:"d11"`
	D12 Status `parquet:"D12" json:"d12"`

	MissingDocs  string `parquet:"MissingDocs,optional" json:"missing_docs"`
	MismatchDocs string `parquet:"MismatchDocs,optional" json:"mismatch_docs,omitempty"`
	Issues       string `parquet:"Issues,optional" json:"issues,omitempty"`
}

// cell returns the addressable status cell for a DocType code.
func (r *ReportRow) cell(docType string) *Status {
	switch docType {
	case "D01":
		return &r.D01
	case "D02":
		return &r.D02
	case "D03":
		return &r.D03
	case "D04":
		return &r.D04
	case "D05":
		return &r.D05
	case "D06":
		return &r.D06
	case "D07":
		return &r.D07
	case "D08":
		return &r.D08
	case "D09":
		return &r.D09
	case "D10":
		return &r.D10
	case "D11":
		return &r.D11
	case "D12":
		return &r.D12
	}
	return nil
}

// SetDoc sets the status cell for a DocType code. Unknown codes are ignored.
func (r *ReportRow) SetDoc(docType string, status Status) {
	if cell := r.cell(docType); cell != nil {
		*cell = status
	}
}

// Doc returns the status cell for a DocType code.
func (r *ReportRow) Doc(docType string) Status {
	if cell := r.cell(docType); cell != nil {
		return *cell
	}
	return ""
}

// RunReport is the reconciliation result of one run.
type RunReport struct {
	Mode         Mode
	Rows         []ReportRow
	FilesScanned int
}

// Manifest records the artifacts of a run with their checksums.
type Manifest struct {
	RunID             string            `json:"run_id"`
	GeneratedAt       string            `json:"generated_at"`
	RootPath          string            `json:"root_path"`
	Mode              Mode              `json:"mode"`
	TotalCDs          int               `json:"total_cds,omitempty"`
	TotalInvoices     int               `json:"total_invoices,omitempty"`
	TotalFilesScanned int               `json:"total_files_scanned"`
	Files             map[string]string `json:"files"`
}
