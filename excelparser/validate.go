package excelparser

import (
	"fmt"

	"github.com/c360studio/ontopy/ontology"
)

// validate checks the concept rows. known reports whether a name resolves
// outside the rows, in an imported ontology or as the root. importedProperty
// reports whether a relation property is an imported object property.
func validate(wb *Workbook, sheet string, scheme IRIScheme, known, importedProperty func(string) bool) error {
	issues := append([]Issue(nil), wb.Issues...)
	add := func(row int, column, format string, args ...any) {
		issues = append(issues, Issue{Sheet: sheet, Row: row, Column: column, Message: fmt.Sprintf(format, args...)})
	}

	names := make(map[string]int, len(wb.Rows))
	for _, r := range wb.Rows {
		if r.Name == "" {
			add(r.Number, "name", "missing name")
			continue
		}
		if scheme == SchemeLabel {
			if err := ontology.ValidateName(r.Name); err != nil {
				add(r.Number, "name", "%v", err)
			}
		}
		if first, dup := names[r.Name]; dup {
			add(r.Number, "name", "duplicate name %q, first declared on row %d", r.Name, first)
			continue
		}
		names[r.Name] = r.Number
	}

	// Preferred labels resolve parents like names.
	prefLabels := make(map[string]int, len(wb.Rows))
	for _, r := range wb.Rows {
		if r.Name == "" || r.PrefLabel == "" {
			continue
		}
		if other, ok := names[r.PrefLabel]; ok && r.PrefLabel != r.Name {
			add(r.Number, "prefLabel", "prefLabel %q is the name of row %d", r.PrefLabel, other)
			continue
		}
		if first, dup := prefLabels[r.PrefLabel]; dup {
			add(r.Number, "prefLabel", "duplicate prefLabel %q, first used on row %d", r.PrefLabel, first)
			continue
		}
		prefLabels[r.PrefLabel] = r.Number
	}

	labels := make(map[string]bool, len(wb.Rows))
	for _, r := range wb.Rows {
		labels[r.Name] = true
		labels[r.PrefLabel] = true
	}
	resolves := func(name string) bool { return labels[name] || known(name) }

	for _, r := range wb.Rows {
		for _, p := range r.Parents {
			if p == r.Name || p == r.PrefLabel {
				add(r.Number, "subClassOf", "%q is its own parent", r.Name)
			}
		}
		for _, text := range r.Relations {
			rel, err := ParseRelation(text)
			if err != nil {
				add(r.Number, "relations", "%v", err)
				continue
			}
			if scheme == SchemeLabel && !importedProperty(rel.Property) {
				if err := ontology.ValidateName(rel.Property); err != nil {
					add(r.Number, "relations", "property in %q: %v", text, err)
				}
			}
			if !resolves(rel.Target) {
				add(r.Number, "relations", "unknown target %q in %q", rel.Target, text)
			}
		}
	}

	if len(issues) > 0 {
		return &ValidationError{Path: wb.Path, Issues: issues}
	}
	return nil
}
