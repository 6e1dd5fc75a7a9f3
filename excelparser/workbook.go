package excelparser

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"

	"github.com/c360studio/ontopy/vocabulary/emmo"
)

// headerSearchRows is how many leading rows are searched for a header.
const headerSearchRows = 5

// Row is one concept row of the concepts sheet.
type Row struct {
	// Number is the 1-based row number in the sheet.
	Number int

	Name        string
	PrefLabel   string
	AltLabels   []string
	Parents     []string
	Elucidation string
	Comments    []string
	Examples    []string
	Relations   []string
}

// ImportedOntology is one row of the imports sheet.
type ImportedOntology struct {
	Row      int
	IRI      string
	Location string
}

// Workbook is the content of a spreadsheet, before validation.
type Workbook struct {
	Path string

	Rows    []Row
	Imports []ImportedOntology

	// OntologyIRI is the "Ontology IRI" metadata entry.
	OntologyIRI string

	// Metadata maps metadata predicates (emmo.Metadata*) to their values.
	Metadata map[string][]string

	// Languages maps concept predicates (emmo.Concept*) to the language
	// given in their column header, as in "Elucidation@fr".
	Languages map[string]string

	// Issues are problems found while reading. They are reported with the
	// validation issues.
	Issues []Issue
}

// Language returns the language of a concept column, or def.
func (wb *Workbook) Language(predicate, def string) string {
	if lang, ok := wb.Languages[predicate]; ok {
		return lang
	}
	return def
}

// Column keys that are not annotation predicates.
const (
	columnName      = "name"
	columnRelations = "relations"
)

var conceptColumns = map[string]string{
	"name":        columnName,
	"preflabel":   emmo.ConceptPrefLabel,
	"altlabel":    emmo.ConceptAltLabel,
	"altlabels":   emmo.ConceptAltLabel,
	"subclassof":  emmo.ConceptSubClassOf,
	"parent":      emmo.ConceptSubClassOf,
	"parents":     emmo.ConceptSubClassOf,
	"elucidation": emmo.ConceptElucidation,
	"comment":     emmo.ConceptComment,
	"comments":    emmo.ConceptComment,
	"example":     emmo.ConceptExample,
	"examples":    emmo.ConceptExample,
	"relation":    columnRelations,
	"relations":   columnRelations,
}

// metadataOntologyIRI is the metadata key of the ontology IRI.
const metadataOntologyIRI = "ontologyiri"

var metadataKeys = map[string]string{
	"versioniri":   emmo.MetadataVersionIRI,
	"versioninfo":  emmo.MetadataVersionInfo,
	"title":        emmo.MetadataTitle,
	"abstract":     emmo.MetadataAbstract,
	"creator":      emmo.MetadataCreator,
	"creators":     emmo.MetadataCreator,
	"contributor":  emmo.MetadataContributor,
	"contributors": emmo.MetadataContributor,
	"license":      emmo.MetadataLicense,
	"publisher":    emmo.MetadataPublisher,
	"comment":      emmo.MetadataComment,
	"comments":     emmo.MetadataComment,
}

var (
	importIRIColumns      = map[string]bool{"iri": true, "ontologyiri": true, "importediri": true}
	importLocationColumns = map[string]bool{"location": true, "cataloglocation": true, "catalog": true, "path": true}
)

// normalize folds a header or key for matching: case, spaces, underscores
// and dashes are ignored.
func normalize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '\t':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
}

// split splits a multi-valued cell on semicolons.
func split(cell string) []string {
	var vals []string
	for _, v := range strings.Split(cell, ";") {
		if v = strings.TrimSpace(v); v != "" {
			vals = append(vals, v)
		}
	}
	return vals
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cell(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

// ReadWorkbook reads a .xlsx or .csv spreadsheet. A .csv file holds concept
// rows only.
func ReadWorkbook(path string, opts Options) (*Workbook, error) {
	opts = opts.withDefaults()
	wb := &Workbook{
		Path:      path,
		Metadata:  make(map[string][]string),
		Languages: make(map[string]string),
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		rows, err := readCSV(path)
		if err != nil {
			return nil, err
		}
		wb.readConcepts(filepath.Base(path), rows, opts.SkipAfterHeader)
	case ".xlsx", ".xlsm":
		if err := wb.readExcel(path, opts); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported spreadsheet format %q", ext)
	}

	opts.Logger.Debug("Read spreadsheet",
		"path", path,
		"concepts", len(wb.Rows),
		"imports", len(wb.Imports),
		"issues", len(wb.Issues))
	return wb, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

func (wb *Workbook) readExcel(path string, opts Options) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("open spreadsheet: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			opts.Logger.Debug("Failed to close spreadsheet", "path", path, "error", err)
		}
	}()

	sheets := make(map[string]string)
	for _, name := range f.GetSheetList() {
		sheets[normalize(name)] = name
	}
	rowsOf := func(want string) ([][]string, bool, error) {
		name, ok := sheets[normalize(want)]
		if !ok {
			return nil, false, nil
		}
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, false, fmt.Errorf("read sheet %q: %w", name, err)
		}
		return rows, true, nil
	}

	concepts, ok, err := rowsOf(opts.Sheets.Concepts)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("sheet %q not found in %s", opts.Sheets.Concepts, path)
	}
	wb.readConcepts(opts.Sheets.Concepts, concepts, opts.SkipAfterHeader)

	metadata, ok, err := rowsOf(opts.Sheets.Metadata)
	if err != nil {
		return err
	}
	if ok {
		wb.readMetadata(opts.Sheets.Metadata, metadata, opts.Logger)
	}

	imports, ok, err := rowsOf(opts.Sheets.Imports)
	if err != nil {
		return err
	}
	if ok {
		wb.readImports(imports)
	}
	return nil
}

// findHeader returns the index of the first of the leading rows that has a
// cell accepted by match, or -1.
func findHeader(rows [][]string, match func(string) bool) int {
	for i := 0; i < len(rows) && i < headerSearchRows; i++ {
		for _, c := range rows[i] {
			if match(normalize(c)) {
				return i
			}
		}
	}
	return -1
}

func (wb *Workbook) readConcepts(sheet string, rows [][]string, skip int) {
	header := findHeader(rows, func(c string) bool {
		c, _, _ = strings.Cut(c, "@")
		return c == "preflabel" || c == "name"
	})
	if header < 0 {
		wb.Issues = append(wb.Issues, Issue{
			Sheet:   sheet,
			Message: fmt.Sprintf("no header row with a prefLabel or name column in the first %d rows", headerSearchRows),
		})
		return
	}

	cols := make(map[string]int)
	for i, c := range rows[header] {
		name, lang, hasLang := strings.Cut(c, "@")
		col, ok := conceptColumns[normalize(name)]
		if !ok {
			continue
		}
		if _, dup := cols[col]; !dup {
			cols[col] = i
		}
		if hasLang {
			lang = strings.TrimSpace(lang)
			tag, err := language.Parse(lang)
			if err != nil {
				wb.Issues = append(wb.Issues, Issue{
					Sheet:   sheet,
					Row:     header + 1,
					Column:  strings.TrimSpace(c),
					Message: fmt.Sprintf("invalid language tag %q", lang),
				})
				continue
			}
			wb.Languages[col] = tag.String()
		}
	}
	at := func(cells []string, col string) string {
		i, ok := cols[col]
		if !ok {
			return ""
		}
		return cell(cells, i)
	}

	for i := header + 1 + skip; i < len(rows); i++ {
		cells := rows[i]
		if isBlank(cells) {
			continue
		}
		r := Row{
			Number:      i + 1,
			Name:        at(cells, columnName),
			PrefLabel:   at(cells, emmo.ConceptPrefLabel),
			AltLabels:   split(at(cells, emmo.ConceptAltLabel)),
			Parents:     split(at(cells, emmo.ConceptSubClassOf)),
			Elucidation: at(cells, emmo.ConceptElucidation),
			Comments:    split(at(cells, emmo.ConceptComment)),
			Examples:    split(at(cells, emmo.ConceptExample)),
			Relations:   split(at(cells, columnRelations)),
		}
		if r.Name == "" {
			r.Name = r.PrefLabel
		}
		if r.PrefLabel == "" {
			r.PrefLabel = r.Name
		}
		wb.Rows = append(wb.Rows, r)
	}
}

func (wb *Workbook) readMetadata(sheet string, rows [][]string, logger *slog.Logger) {
	for i, cells := range rows {
		if isBlank(cells) {
			continue
		}
		key := normalize(cell(cells, 0))
		var values []string
		for j := 1; j < len(cells); j++ {
			values = append(values, split(cells[j])...)
		}
		if len(values) == 0 {
			continue
		}

		if key == metadataOntologyIRI {
			wb.OntologyIRI = values[0]
			continue
		}
		pred, ok := metadataKeys[key]
		if !ok {
			logger.Debug("Ignoring metadata entry", "sheet", sheet, "row", i+1, "key", cell(cells, 0))
			continue
		}
		wb.Metadata[pred] = append(wb.Metadata[pred], values...)
	}
}

func (wb *Workbook) readImports(rows [][]string) {
	iriCol, locCol, start := 0, 1, 0
	if header := findHeader(rows, func(c string) bool { return importIRIColumns[c] }); header >= 0 {
		start = header + 1
		locCol = -1
		for i, c := range rows[header] {
			switch key := normalize(c); {
			case importIRIColumns[key]:
				iriCol = i
			case importLocationColumns[key]:
				locCol = i
			}
		}
	}

	for i := start; i < len(rows); i++ {
		iri := cell(rows[i], iriCol)
		if iri == "" {
			continue
		}
		wb.Imports = append(wb.Imports, ImportedOntology{
			Row:      i + 1,
			IRI:      iri,
			Location: cell(rows[i], locCol),
		})
	}
}
