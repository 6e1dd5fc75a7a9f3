// Package excelparser builds ontologies from spreadsheets.
//
// A workbook has a concepts sheet with one class per row, and optional
// metadata and imported ontologies sheets:
//
//	name         prefLabel    altLabels     subClassOf   Elucidation         Relations
//	Atom         Atom                                    Smallest unit...    hasPart some Nucleus
//	Electrolyte  Electrolyte  Ionic medium  Atom         ...
//
// The header row is the first of the leading rows with a name or prefLabel
// column. Multi-valued cells are separated by semicolons. Rows may
// reference parents that appear further down; the builder declares rows in
// passes until every parent is known, and reports all rows whose parents
// never appear in one *UnresolvedParentError.
//
// Usage:
//
//	onto, cat, err := excelparser.CreateOntologyFromExcel(ctx, "onto.xlsx", excelparser.DefaultOptions())
//	if err != nil {
//		return err
//	}
//	err = cat.WriteFile("catalog-v001.xml", true)
package excelparser
