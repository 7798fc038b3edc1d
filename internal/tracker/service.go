package tracker

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/zombor/docs-tracker/internal/rules"
)

// ErrNoFiles is returned when the root folder holds no files to reconcile.
var ErrNoFiles = errors.New("no files found under root folder")

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// References bundles the loaded reference tables.
type References struct {
	Patterns *rules.PatternTable
	Table    *rules.RuleTable
}

// LoadReferences loads syntax.csv and template.csv from the reference
// directory.
func LoadReferences(dir string) (*References, error) {
	patterns, err := rules.LoadPatterns(filepath.Join(dir, "syntax.csv"))
	if err != nil {
		return nil, err
	}
	table, err := rules.LoadTable(filepath.Join(dir, "template.csv"))
	if err != nil {
		return nil, err
	}
	if patterns.Len() == 0 {
		slog.Warn("No usable filename patterns loaded", "dir", dir)
	}
	if table.Len() == 0 {
		slog.Warn("Rule table is empty", "dir", dir)
	}
	return &References{Patterns: patterns, Table: table}, nil
}

// Service runs scan-and-report cycles against a fixed reference set.
type Service struct {
	refs       *References
	timeSource TimeSource
}

// NewService creates a new Service with the default time source
func NewService(refs *References) *Service {
	return &Service{refs: refs, timeSource: &defaultTimeSource{}}
}

// NewServiceWithDeps creates a new Service with a custom time source for testing
func NewServiceWithDeps(refs *References, timeSource TimeSource) *Service {
	return &Service{refs: refs, timeSource: timeSource}
}

// RunResult bundles a generated report with its artifact names.
type RunResult struct {
	Report      *RunReport
	Manifest    *Manifest
	CSVName     string
	ParquetName string
}

// Run scans root, reconciles the scanned files and writes the report
// artifacts into root. With a non-empty master the report is grouped per
// declaration; otherwise it falls back to one row per shipment folder.
func (s *Service) Run(root string, master *MasterIndex) (*RunResult, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("checking root folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}

	batches, err := ScanRoot(root, s.refs.Patterns)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, batch := range batches {
		total += len(batch.Files)
	}
	if total == 0 {
		return nil, ErrNoFiles
	}

	var report *RunReport
	if master.Len() > 0 {
		slog.Info("Reconciling per CDs", "declarations", master.Len(), "files", total)
		report = ReconcilePerCDs(batches, master, s.refs.Table)
	} else {
		slog.Info("Reconciling per invoice", "folders", len(batches), "files", total)
		report = ReconcilePerInvoice(batches, s.refs.Table)
	}

	manifest, csvName, parquetName, err := WriteOutputs(root, report, s.timeSource.Now())
	if err != nil {
		return nil, err
	}
	slog.Info("Report generated",
		"mode", report.Mode,
		"rows", len(report.Rows),
		"files_scanned", report.FilesScanned,
		"csv", csvName,
	)
	return &RunResult{
		Report:      report,
		Manifest:    manifest,
		CSVName:     csvName,
		ParquetName: parquetName,
	}, nil
}

// CheckAccess verifies that root exists and is writable by probing with a
// temp file, so users catch permission problems before a long scan.
func (s *Service) CheckAccess(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("checking root folder: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root is not a directory: %s", root)
	}
	probe := filepath.Join(root, ".access_check.tmp")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("root folder is not writable: %w", err)
	}
	os.Remove(probe)
	return nil
}
