package tracker

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zombor/docs-tracker/internal/rules"
)

// FolderBatch is one shipment folder with its classified files. The folder
// name doubles as the invoice identifier.
type FolderBatch struct {
	Invoice string
	Folder  string
	Files   []ScannedFile
}

// ScanRoot walks the immediate subdirectories of root, treating each as one
// shipment folder, and classifies every file directly inside it. Nested
// directories are not descended into. Batches come back sorted by folder
// name so runs are deterministic.
func ScanRoot(root string, patterns *rules.PatternTable) ([]FolderBatch, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading root folder: %w", err)
	}

	var batches []FolderBatch
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		folder := filepath.Join(root, entry.Name())
		invoice := strings.TrimSpace(entry.Name())
		files, err := scanFolder(folder, invoice, patterns)
		if err != nil {
			return nil, err
		}
		batches = append(batches, FolderBatch{
			Invoice: invoice,
			Folder:  folder,
			Files:   files,
		})
	}
	sort.Slice(batches, func(i, j int) bool { return batches[i].Invoice < batches[j].Invoice })
	return batches, nil
}

func scanFolder(folder, invoice string, patterns *rules.PatternTable) ([]ScannedFile, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("reading folder %s: %w", invoice, err)
	}

	var files []ScannedFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		stem := fileStem(entry.Name())
		docType, tokens := patterns.Identify(stem)
		files = append(files, ScannedFile{
			Invoice: invoice,
			DocType: docType,
			Stem:    stem,
			Tokens:  tokens,
			CDs11:   cds11FromTokens(tokens),
		})
	}
	return files, nil
}

// fileStem returns the filename without its extension.
func fileStem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// cds11FromTokens derives the 11-digit declaration key from a CDs token.
// The D01 pattern yields a 12-digit number; the last digit is dropped
// because it can change during customs procedures.
func cds11FromTokens(tokens rules.Tokens) string {
	cds, ok := tokens["CDs"]
	if !ok || cds == "" {
		return ""
	}
	digits := digitsOnly(cds)
	if len(digits) > 11 {
		digits = digits[:11]
	}
	return digits
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
