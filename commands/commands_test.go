package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/ontopy/config"
	"github.com/c360studio/ontopy/loader"
)

const batteryCSV = "name,prefLabel,subClassOf,Elucidation\n" +
	"Atom,,,Smallest unit of matter\n" +
	"Electrolyte,,Atom,\n"

// execute runs the command tree with an empty home and working directory.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.PathEnv, "")
	t.Chdir(t.TempDir())

	cmd := NewRootCommand("1.2.3", "test")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeSheet(t *testing.T, content string) (dir, path string) {
	t.Helper()
	dir = t.TempDir()
	path = filepath.Join(dir, "battery.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return dir, path
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "ontopy version 1.2.3 (build: test)\n", out)
}

func TestExcelLoadCatalog(t *testing.T) {
	dir, sheet := writeSheet(t, batteryCSV)
	ttl := filepath.Join(dir, "battery.ttl")

	out, err := execute(t, "excel2onto", sheet, "--base-iri", "http://example.org/battery#")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+ttl+" (2 classes")
	assert.FileExists(t, ttl)
	assert.FileExists(t, filepath.Join(dir, "catalog-v001.xml"))

	out, err = execute(t, "catalog", dir, "--check", "--provenance")
	require.NoError(t, err)
	assert.Contains(t, out, "http://example.org/battery -> "+ttl)
	assert.Contains(t, out, "http://example.org/battery#Electrolyte <- "+sheet)

	out, err = execute(t, "load", ttl, "--only-local")
	require.NoError(t, err)
	assert.Contains(t, out, "Ontology:   http://example.org/battery")
	assert.Contains(t, out, "Classes:    2\n")

	out, err = execute(t, "load", ttl, "--only-local", "-o", "-", "-f", "ntriples")
	require.NoError(t, err)
	assert.Contains(t, out, "<http://example.org/battery#Electrolyte> <http://www.w3.org/2000/01/rdf-schema#subClassOf> <http://example.org/battery#Atom> .")
}

func TestExcel_OutputFormat(t *testing.T) {
	dir, sheet := writeSheet(t, batteryCSV)
	owlPath := filepath.Join(dir, "out", "battery.owl")
	require.NoError(t, os.MkdirAll(filepath.Dir(owlPath), 0755))

	_, err := execute(t, "excel2onto", sheet, "-o", owlPath, "--no-catalog")
	require.NoError(t, err)

	data, err := os.ReadFile(owlPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<rdf:RDF")
	assert.NoFileExists(t, filepath.Join(dir, "out", "catalog-v001.xml"))
}

func TestExcel_Force(t *testing.T) {
	_, sheet := writeSheet(t, batteryCSV+"Ion,,Particle,\n")

	_, err := execute(t, "excel2onto", sheet)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `row 4 "Ion" (missing Particle)`)

	out, err := execute(t, "excel2onto", sheet, "--force")
	require.NoError(t, err)
	assert.Contains(t, out, `skipped row 4 "Ion": unresolved parents [Particle]`)
}

func TestExcel_InvalidOptions(t *testing.T) {
	_, sheet := writeSheet(t, batteryCSV)
	_, err := execute(t, "excel2onto", sheet, "--iri-scheme", "sequential")
	assert.ErrorContains(t, err, "invalid options")
}

func TestExcel_MetricsFile(t *testing.T) {
	dir, sheet := writeSheet(t, batteryCSV)
	metrics := filepath.Join(dir, "metrics.prom")

	_, err := execute(t, "excel2onto", sheet, "--metrics-file", metrics)
	require.NoError(t, err)

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), `ontopy_excel_rows_total{outcome="declared"} 2`)
}

func TestLoad_Unresolved(t *testing.T) {
	_, err := execute(t, "load", "does-not-exist.ttl", "--only-local")
	require.Error(t, err)
	assert.ErrorIs(t, err, loader.ErrUnresolved)
}

func TestLoad_SaveWithoutStore(t *testing.T) {
	dir, sheet := writeSheet(t, batteryCSV)
	_, err := execute(t, "excel2onto", sheet)
	require.NoError(t, err)

	_, err = execute(t, "load", filepath.Join(dir, "battery.ttl"), "--save")
	assert.ErrorContains(t, err, "--save needs a store")
}

func TestStore(t *testing.T) {
	dir, sheet := writeSheet(t, batteryCSV)
	store := filepath.Join(dir, "ontopy.db")
	_, err := execute(t, "excel2onto", sheet, "--base-iri", "http://example.org/battery#")
	require.NoError(t, err)

	_, err = execute(t, "--store", store, "load", filepath.Join(dir, "battery.ttl"), "--save")
	require.NoError(t, err)

	out, err := execute(t, "--store", store, "store", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "http://example.org/battery")

	out, err = execute(t, "--store", store, "store", "delete", "http://example.org/battery")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted")

	out, err = execute(t, "--store", store, "store", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "example.org")

	_, err = execute(t, "store", "list")
	assert.ErrorIs(t, err, errNoStore)
}

func TestConfigCommands(t *testing.T) {
	out, err := execute(t, "config", "show", "--search-path", "/onto")
	require.NoError(t, err)
	assert.Contains(t, out, "base_iri:")
	assert.Contains(t, out, "emmo.info/emmo/domain/onto")
	assert.Contains(t, out, "- /onto")

	out, err = execute(t, "config", "init")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Clean(out[:len(out)-1]))
}

func TestConfigFileFlag(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "ontopy.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("excel:\n  root: EMMO\n"), 0644))

	out, err := execute(t, "--config", cfgPath, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "root: EMMO")
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := execute(t, "--log-level", "loud", "config", "show")
	assert.ErrorContains(t, err, "invalid --log-level")
}
