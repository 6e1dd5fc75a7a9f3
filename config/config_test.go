package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/c360studio/ontopy/excelparser"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Excel.BaseIRI != excelparser.DefaultBaseIRI {
		t.Errorf("expected default base IRI %s, got %s", excelparser.DefaultBaseIRI, cfg.Excel.BaseIRI)
	}
	if cfg.Excel.Language != "en" {
		t.Errorf("expected default language en, got %s", cfg.Excel.Language)
	}
	if cfg.Output.Format != "turtle" {
		t.Errorf("expected default format turtle, got %s", cfg.Output.Format)
	}
	if cfg.Loader.Timeout != 30*time.Second {
		t.Errorf("expected default timeout 30s, got %v", cfg.Loader.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "negative fetch cache",
			modify:  func(c *Config) { c.Loader.FetchCacheMB = -1 },
			wantErr: true,
		},
		{
			name:    "negative timeout",
			modify:  func(c *Config) { c.Loader.Timeout = -time.Second },
			wantErr: true,
		},
		{
			name:    "unknown iri scheme",
			modify:  func(c *Config) { c.Excel.IRIScheme = "sequential" },
			wantErr: true,
		},
		{
			name:    "bad language",
			modify:  func(c *Config) { c.Excel.Language = "not a language" },
			wantErr: true,
		},
		{
			name:    "negative skip after header",
			modify:  func(c *Config) { c.Excel.SkipAfterHeader = -1 },
			wantErr: true,
		},
		{
			name:    "unknown output format",
			modify:  func(c *Config) { c.Output.Format = "manchester" },
			wantErr: true,
		},
		{
			name:    "unknown log level",
			modify:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: true,
		},
		{
			name:    "uuid scheme and debug logging",
			modify:  func(c *Config) { c.Excel.IRIScheme = "uuid"; c.Log.Level = "debug" },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
loader:
  search_paths:
    - ontologies
    - /shared/emmo/**
  catalog: catalog-v001.xml
  only_local: true
  timeout: 10s
excel:
  base_iri: "http://example.org/battery#"
  root: EMMO
  iri_scheme: uuid
  skip_after_header: 1
  sheets:
    concepts: Classes
output:
  format: rdfxml
  no_catalog: true
log:
  level: debug
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if !reflect.DeepEqual(cfg.Loader.SearchPaths, []string{"ontologies", "/shared/emmo/**"}) {
		t.Errorf("unexpected search paths %v", cfg.Loader.SearchPaths)
	}
	if !cfg.Loader.OnlyLocal {
		t.Error("expected only_local")
	}
	if cfg.Loader.Timeout != 10*time.Second {
		t.Errorf("expected timeout 10s, got %v", cfg.Loader.Timeout)
	}
	if cfg.Loader.FetchCacheMB != 32 {
		t.Errorf("expected fetch cache to keep its default, got %d", cfg.Loader.FetchCacheMB)
	}
	if cfg.Excel.Language != "en" {
		t.Errorf("expected language to keep its default, got %s", cfg.Excel.Language)
	}

	opts := cfg.Excel.Options()
	if opts.BaseIRI != "http://example.org/battery#" || opts.Root != "EMMO" {
		t.Errorf("unexpected options %+v", opts)
	}
	if opts.IRIScheme != excelparser.SchemeUUID || opts.SkipAfterHeader != 1 {
		t.Errorf("unexpected options %+v", opts)
	}
	if opts.Sheets.Concepts != "Classes" || opts.Sheets.Metadata != "Metadata" {
		t.Errorf("unexpected sheets %+v", opts.Sheets)
	}
	if !cfg.Output.NoCatalog || cfg.Output.Format != "rdfxml" {
		t.Errorf("unexpected output %+v", cfg.Output)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("loader: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	base.Loader.SearchPaths = []string{"/a"}
	override := &Config{
		Loader: LoaderConfig{
			SearchPaths: []string{"/a", "/b"},
			CacheDir:    "/cache",
		},
		Excel: ExcelConfig{
			Root:  "EMMO",
			Force: true,
		},
	}

	base.Merge(override)

	if !reflect.DeepEqual(base.Loader.SearchPaths, []string{"/a", "/b"}) {
		t.Errorf("expected accumulated search paths, got %v", base.Loader.SearchPaths)
	}
	if base.Loader.CacheDir != "/cache" {
		t.Errorf("expected cache dir /cache, got %s", base.Loader.CacheDir)
	}
	// Base IRI should remain from base since override didn't set it
	if base.Excel.BaseIRI != excelparser.DefaultBaseIRI {
		t.Errorf("expected base IRI to remain default, got %s", base.Excel.BaseIRI)
	}
	if base.Excel.Root != "EMMO" || !base.Excel.Force {
		t.Errorf("unexpected excel config %+v", base.Excel)
	}

	base.Merge(nil)
	base.Merge(&Config{})
	if !base.Excel.Force {
		t.Error("an empty config must not turn force off")
	}
}

func TestConfigResolvePaths(t *testing.T) {
	cfg := &Config{Loader: LoaderConfig{
		SearchPaths: []string{"ontologies/**", "/abs"},
		Catalog:     "catalog-v001.xml",
		Store:       "/var/ontopy.db",
	}}
	cfg.ResolvePaths("/project")

	want := LoaderConfig{
		SearchPaths: []string{"/project/ontologies/**", "/abs"},
		Catalog:     "/project/catalog-v001.xml",
		Store:       "/var/ontopy.db",
	}
	if !reflect.DeepEqual(cfg.Loader, want) {
		t.Errorf("ResolvePaths() = %+v, want %+v", cfg.Loader, want)
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Excel.Root = "EMMO"
	cfg.Loader.Timeout = time.Minute

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}

	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if !reflect.DeepEqual(loaded, cfg) {
		t.Errorf("loaded config %+v differs from saved %+v", loaded, cfg)
	}
}
