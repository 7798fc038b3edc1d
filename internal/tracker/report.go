package tracker

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"

	"github.com/zombor/docs-tracker/internal/rules"
)

// ManifestName is the fixed filename of the run manifest, overwritten on
// each run so the newest manifest always sits at a known path.
const ManifestName = "REPORT.MANIFEST.json"

// WriteOutputs writes the report artifacts into root: a timestamped CSV and
// Parquet file, the manifest with SHA-256 sums, plus .sha256 sidecars for
// the tabular files. Returns the manifest and the CSV/Parquet filenames.
func WriteOutputs(root string, report *RunReport, now time.Time) (*Manifest, string, string, error) {
	stamp := now.Format("20060102_1504")
	csvName := fmt.Sprintf("report_%s.csv", stamp)
	parquetName := fmt.Sprintf("report_%s.parquet", stamp)

	if err := writeAtomic(filepath.Join(root, csvName), encodeCSV(report)); err != nil {
		return nil, "", "", fmt.Errorf("writing csv report: %w", err)
	}
	parquetBytes, err := encodeParquet(report)
	if err != nil {
		return nil, "", "", fmt.Errorf("encoding parquet report: %w", err)
	}
	if err := writeAtomic(filepath.Join(root, parquetName), parquetBytes); err != nil {
		return nil, "", "", fmt.Errorf("writing parquet report: %w", err)
	}

	manifest := &Manifest{
		RunID:             uuid.NewString(),
		GeneratedAt:       now.Format("2006-01-02T15:04:05"),
		RootPath:          root,
		Mode:              report.Mode,
		TotalFilesScanned: report.FilesScanned,
		Files:             make(map[string]string),
	}
	switch report.Mode {
	case ModePerCDs:
		manifest.TotalCDs = len(report.Rows)
	case ModePerInvoice:
		manifest.TotalInvoices = len(report.Rows)
	}
	for _, name := range []string{csvName, parquetName} {
		sum, err := sha256File(filepath.Join(root, name))
		if err != nil {
			return nil, "", "", err
		}
		manifest.Files[name] = sum
		sidecar := filepath.Join(root, name+".sha256")
		if err := os.WriteFile(sidecar, []byte(sum), 0o644); err != nil {
			return nil, "", "", fmt.Errorf("writing checksum sidecar: %w", err)
		}
	}

	manifestBytes, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, "", "", fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := writeAtomic(filepath.Join(root, ManifestName), manifestBytes); err != nil {
		return nil, "", "", fmt.Errorf("writing manifest: %w", err)
	}
	return manifest, csvName, parquetName, nil
}

// encodeCSV renders the report with a UTF-8 BOM so Excel opens it with the
// right encoding. Column order depends on the report mode.
func encodeCSV(report *RunReport) []byte {
	var buf bytes.Buffer
	buf.WriteByte(0xEF)
	buf.WriteByte(0xBB)
	buf.WriteByte(0xBF)

	writer := csv.NewWriter(&buf)
	writer.Write(csvColumns(report.Mode))
	for i := range report.Rows {
		writer.Write(csvRecord(report.Mode, &report.Rows[i]))
	}
	writer.Flush()
	return buf.Bytes()
}

func csvColumns(mode Mode) []string {
	if mode == ModePerCDs {
		cols := []string{"CDs", "Invoices", "CDsType", "Bill"}
		cols = append(cols, rules.DocTypes()...)
		return append(cols, "MissingDocs", "MismatchDocs", "Issues")
	}
	cols := []string{"Invoice", "CDsType"}
	cols = append(cols, rules.DocTypes()...)
	return append(cols, "MissingDocs")
}

func csvRecord(mode Mode, row *ReportRow) []string {
	var record []string
	if mode == ModePerCDs {
		record = append(record, row.CDs, row.Invoices, row.CDsType, row.Bill)
	} else {
		record = append(record, row.Invoice, row.CDsType)
	}
	for _, docType := range rules.DocTypes() {
		record = append(record, string(row.Doc(docType)))
	}
	record = append(record, row.MissingDocs)
	if mode == ModePerCDs {
		record = append(record, row.MismatchDocs, row.Issues)
	}
	return record
}

func encodeParquet(report *RunReport) ([]byte, error) {
	var buf bytes.Buffer
	writer := parquet.NewGenericWriter[ReportRow](&buf)
	if len(report.Rows) > 0 {
		if _, err := writer.Write(report.Rows); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeAtomic writes data to a temp file in the target directory and
// renames it into place, so readers never see a partial file.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".report-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("moving temp file into place: %w", err)
	}
	return nil
}

// sha256File computes the hex SHA-256 checksum of a file.
func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", filepath.Base(path), err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
