// Package rules implements the reference tables of the tracker: the
// DocType-to-filename-template patterns and the CDsType-to-document
// requirement matrix. Matching a file stem against the pattern table yields
// the document type plus any identifying tokens embedded in the name
// (declaration number, bill number, booking code).
package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// UnknownDocType is returned when no template matches a file stem.
const UnknownDocType = "UNKNOWN"

// Tokens holds named values extracted from a file stem.
type Tokens map[string]string

// PatternTable maps DocType codes to compiled filename templates, in the
// order they appear in the syntax CSV. Matching tries templates in that
// order and the first match wins.
type PatternTable struct {
	order     []string
	templates map[string]string
	compiled  map[string]*regexp.Regexp
}

// headers that mark the optional first row of the syntax CSV
var syntaxHeaderLabels = map[string]bool{
	"id":      true,
	"code":    true,
	"docid":   true,
	"docs id": true,
	"docsid":  true,
}

// LoadPatterns reads the syntax CSV. Each row maps a DocType to a filename
// template; an optional middle column carries a human-readable description.
// Rows whose template fails to compile are skipped so a single bad template
// does not take the whole table down.
func LoadPatterns(path string) (*PatternTable, error) {
	records, err := readRecords(path)
	if err != nil {
		return nil, fmt.Errorf("loading patterns: %w", err)
	}

	table := &PatternTable{
		templates: make(map[string]string),
		compiled:  make(map[string]*regexp.Regexp),
	}
	for _, record := range records {
		if isBlankRow(record) {
			continue
		}
		if syntaxHeaderLabels[strings.ToLower(strings.TrimSpace(record[0]))] {
			continue
		}
		docType := strings.TrimSpace(record[0])
		var template string
		if len(record) > 2 {
			template = strings.TrimSpace(record[2])
		} else if len(record) > 1 {
			template = strings.TrimSpace(record[1])
		}
		if docType == "" || template == "" {
			continue
		}
		re, err := compileTemplate(template)
		if err != nil {
			continue
		}
		if _, exists := table.templates[docType]; !exists {
			table.order = append(table.order, docType)
		}
		table.templates[docType] = template
		table.compiled[docType] = re
	}
	return table, nil
}

// Len returns the number of usable templates.
func (t *PatternTable) Len() int {
	return len(t.order)
}

// Template returns the raw template for a DocType, if present.
func (t *PatternTable) Template(docType string) (string, bool) {
	template, ok := t.templates[docType]
	return template, ok
}

// Identify determines the DocType for a file stem and extracts its tokens.
// Pattern-captured tokens win over heuristic ones; the heuristics only fill
// in keys the template did not capture.
func (t *PatternTable) Identify(stem string) (string, Tokens) {
	for _, docType := range t.order {
		re := t.compiled[docType]
		match := re.FindStringSubmatch(stem)
		if match == nil {
			continue
		}
		tokens := make(Tokens)
		for i, name := range re.SubexpNames() {
			if name != "" && match[i] != "" {
				tokens[name] = match[i]
			}
		}
		for key, value := range ExtractTokens(stem, docType) {
			if _, exists := tokens[key]; !exists {
				tokens[key] = value
			}
		}
		return docType, tokens
	}
	return UnknownDocType, ExtractTokens(stem, "")
}

var (
	placeholderRe = regexp.MustCompile(`\{([^{}]+)\}`)
	billTokenRe   = regexp.MustCompile(`(?i)_(?:FCR|AWB|RWB)_([A-Za-z0-9\-]+)`)
	bookingRe     = regexp.MustCompile(`(?i)_BKG_([A-Za-z0-9\-]+)`)
	cds12Re       = regexp.MustCompile(`\d{12}`)
)

// compileTemplate turns a filename template into an anchored,
// case-insensitive regexp. Each {TOKEN} placeholder becomes a named capture
// group; the CDs placeholders capture exactly twelve digits, everything else
// captures a non-underscore run.
func compileTemplate(template string) (*regexp.Regexp, error) {
	expr := placeholderRe.ReplaceAllStringFunc(template, func(placeholder string) string {
		token := placeholder[1 : len(placeholder)-1]
		if token == "CDs_12digits" || token == "pCDs_12digits" {
			return `(?P<CDs>\d{12})`
		}
		return fmt.Sprintf(`(?P<%s>[^_]+)`, token)
	})
	return regexp.Compile(`(?i)^` + expr + `$`)
}

// ExtractTokens is the best-effort fallback for stems no template covers.
// Bill and booking codes follow fixed marker segments; D01 stems carry the
// twelve-digit declaration number somewhere in the name.
func ExtractTokens(stem, docType string) Tokens {
	tokens := make(Tokens)
	if m := billTokenRe.FindStringSubmatch(stem); m != nil {
		tokens["Bill"] = m[1]
	}
	if m := bookingRe.FindStringSubmatch(stem); m != nil {
		tokens["Booking"] = m[1]
	}
	if docType == "D01" {
		if _, ok := tokens["CDs"]; !ok {
			if m := cds12Re.FindString(stem); m != "" {
				tokens["CDs"] = m
			}
		}
	}
	return tokens
}
