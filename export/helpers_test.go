package export_test

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/graph/formats/rdf"
)

func canonical(t *testing.T, stmts []*rdf.Statement) string {
	t.Helper()
	can, err := rdf.URDNA2015(nil, stmts)
	require.NoError(t, err)
	var sb strings.Builder
	for _, s := range can {
		sb.WriteString(s.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return b
}
