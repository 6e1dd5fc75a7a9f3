package excelparser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/c360studio/ontopy/ontology"
)

// Relation is a restriction written in a Relations cell, for example
// "hasPart some Nucleus" or "hasPart exactly 2 Electron".
type Relation struct {
	Property    string
	Kind        ontology.RestrictionKind
	Cardinality int
	Target      string
}

func (r Relation) String() string {
	if r.Kind.Cardinal() {
		return fmt.Sprintf("%s %s %d %s", r.Property, r.Kind, r.Cardinality, r.Target)
	}
	return fmt.Sprintf("%s %s %s", r.Property, r.Kind, r.Target)
}

// ParseRelation parses "<property> <kind> [<n>] <target>" where kind is one
// of some, only, value, min, max or exactly. The cardinal kinds take a
// non-negative count.
func ParseRelation(s string) (Relation, error) {
	fields := strings.Fields(s)
	if len(fields) < 3 {
		return Relation{}, fmt.Errorf("relation %q: want \"<property> <kind> [<n>] <target>\"", s)
	}
	kind, ok := ontology.ParseRestrictionKind(fields[1])
	if !ok {
		return Relation{}, fmt.Errorf("relation %q: unknown kind %q", s, fields[1])
	}
	r := Relation{Property: fields[0], Kind: kind}

	if !kind.Cardinal() {
		if len(fields) != 3 {
			return Relation{}, fmt.Errorf("relation %q: %s takes a single target", s, kind)
		}
		r.Target = fields[2]
		return r, nil
	}

	if len(fields) != 4 {
		return Relation{}, fmt.Errorf("relation %q: %s takes a count and a target", s, kind)
	}
	n, err := strconv.Atoi(fields[2])
	if err != nil || n < 0 {
		return Relation{}, fmt.Errorf("relation %q: bad count %q", s, fields[2])
	}
	r.Cardinality = n
	r.Target = fields[3]
	return r, nil
}
