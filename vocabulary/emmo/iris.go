package emmo

// Namespace is the base IRI of EMMO terms.
const Namespace = "http://emmo.info/emmo#"

// Annotation properties EMMO uses instead of rdfs:comment and friends.
const (
	// Elucidation is a short explanation of a concept, meant for humans.
	Elucidation = Namespace + "EMMO_967080e5_2f42_4eb2_a3a9_c58143e835f9"

	// Example gives an illustrative use of a concept.
	Example = Namespace + "EMMO_b432d2d5_25f4_4165_99c5_5935a7763c1a"
)

// EntityPrefix is prepended to generated UUIDs in EMMO style IRIs.
const EntityPrefix = "EMMO_"

// Aliases maps the short names accepted by the loader to the published EMMO
// documents.
var Aliases = map[string]string{
	"emmo":             "https://emmo-repo.github.io/latest-stable/emmo.ttl",
	"emmo-inferred":    "https://emmo-repo.github.io/latest-stable/emmo-inferred.ttl",
	"emmo-development": "https://emmo-repo.github.io/development/emmo.ttl",
}

// ResolveAlias returns the document location for a short name, or the
// identifier unchanged when it is not an alias.
func ResolveAlias(identifier string) string {
	if loc, ok := Aliases[identifier]; ok {
		return loc
	}
	return identifier
}
