package tracker

import (
	"sort"
	"strings"

	"github.com/zombor/docs-tracker/internal/rules"
)

// ReconcilePerCDs builds one report row per customs declaration in the
// master list. A declaration's invoice set is the union of the master
// invoices and the folders whose scanned files carry its CDs11 key; every
// file in those folders is a candidate, so documents that do not embed a
// declaration number still count toward the declaration.
func ReconcilePerCDs(batches []FolderBatch, master *MasterIndex, table *rules.RuleTable) *RunReport {
	files := flatten(batches)
	byInvoice := make(map[string][]ScannedFile)
	invoicesByKey := make(map[string][]string)
	for _, f := range files {
		byInvoice[f.Invoice] = append(byInvoice[f.Invoice], f)
		if f.CDs11 != "" && !contains(invoicesByKey[f.CDs11], f.Invoice) {
			invoicesByKey[f.CDs11] = append(invoicesByKey[f.CDs11], f.Invoice)
		}
	}

	report := &RunReport{Mode: ModePerCDs, FilesScanned: len(files)}
	for _, key := range master.Keys() {
		group := master.Group(key)

		invoiceSet := make(map[string]bool)
		for _, invoice := range group.Invoices {
			invoiceSet[invoice] = true
		}
		for _, invoice := range invoicesByKey[key] {
			invoiceSet[invoice] = true
		}
		invoices := make([]string, 0, len(invoiceSet))
		for invoice := range invoiceSet {
			invoices = append(invoices, invoice)
		}
		sort.Strings(invoices)

		var candidates []ScannedFile
		for _, invoice := range invoices {
			candidates = append(candidates, byInvoice[invoice]...)
		}

		row := ReportRow{
			CDs:      key,
			Invoices: strings.Join(invoices, "-"),
			CDsType:  group.CDsType,
			Bill:     group.Bill,
		}
		evaluateRow(&row, candidates, table.Requirements(group.CDsType), key, group.Bill, invoices)
		report.Rows = append(report.Rows, row)
	}
	return report
}

// evaluateRow fills the D01..D12 cells and the issue columns of a per-CDs
// row.
func evaluateRow(row *ReportRow, candidates []ScannedFile, reqs map[string]rules.Requirement, key, bill string, invoices []string) {
	var missing, mismatched, duplicated []string
	for _, docType := range rules.DocTypes() {
		rule := reqs[docType]
		if rule == "" {
			rule = rules.ReqNull
		}
		if rule.IsNull() {
			row.SetDoc(docType, StatusNull)
			continue
		}

		var ofType []ScannedFile
		for _, f := range candidates {
			if f.DocType == docType {
				ofType = append(ofType, f)
			}
		}
		if len(ofType) == 0 {
			row.SetDoc(docType, StatusNo)
			missing = append(missing, docType)
			continue
		}

		valid := 0
		for _, f := range ofType {
			if fileSatisfies(f, docType, rule, key, bill, invoices) {
				valid++
			}
		}
		switch {
		case valid == 0:
			row.SetDoc(docType, StatusMismatch)
			mismatched = append(mismatched, docType)
		case valid > 1:
			row.SetDoc(docType, StatusYes)
			duplicated = append(duplicated, docType)
		default:
			row.SetDoc(docType, StatusYes)
		}
	}

	row.MissingDocs = strings.Join(missing, ";")
	row.MismatchDocs = strings.Join(mismatched, ";")
	var issues []string
	if len(duplicated) > 0 {
		issues = append(issues, "Duplicate:"+strings.Join(duplicated, ","))
	}
	row.Issues = strings.Join(issues, ";")
}

// fileSatisfies validates one file against a non-null requirement. D01 must
// carry the row's declaration key and D08 must carry the master bill when
// one is known; a rule containing {INVOICE} additionally requires one of
// the row's invoice identifiers inside the stem.
func fileSatisfies(f ScannedFile, docType string, rule rules.Requirement, key, bill string, invoices []string) bool {
	ok := true
	switch {
	case docType == "D01":
		ok = f.CDs11 == key
	case docType == "D08" && bill != "":
		ok = f.Tokens["Bill"] == bill
	}
	if rule.NeedsInvoice() {
		found := false
		for _, invoice := range invoices {
			if strings.Contains(f.Stem, invoice) {
				found = true
				break
			}
		}
		if !found {
			ok = false
		}
	}
	return ok
}

// ReconcilePerInvoice is the fallback when no master list is supplied: one
// row per shipment folder that holds files, evaluated against the first
// rule set in the table as a generic requirement profile. Without a
// declaration type there is nothing to mismatch against, so cells are
// Null, Yes or No only.
func ReconcilePerInvoice(batches []FolderBatch, table *rules.RuleTable) *RunReport {
	reqs := table.First()

	report := &RunReport{Mode: ModePerInvoice}
	for _, batch := range batches {
		if len(batch.Files) == 0 {
			continue
		}
		report.FilesScanned += len(batch.Files)

		row := ReportRow{Invoice: batch.Invoice}
		var missing []string
		for _, docType := range rules.DocTypes() {
			rule := reqs[docType]
			if rule == "" {
				rule = rules.ReqNull
			}
			if rule.IsNull() {
				row.SetDoc(docType, StatusNull)
				continue
			}
			found := false
			for _, f := range batch.Files {
				if f.DocType == docType {
					found = true
					break
				}
			}
			if found {
				row.SetDoc(docType, StatusYes)
			} else {
				row.SetDoc(docType, StatusNo)
				missing = append(missing, docType)
			}
		}
		row.MissingDocs = strings.Join(missing, ";")
		report.Rows = append(report.Rows, row)
	}
	return report
}

func flatten(batches []FolderBatch) []ScannedFile {
	var files []ScannedFile
	for _, batch := range batches {
		files = append(files, batch.Files...)
	}
	return files
}
