// Package config provides configuration loading and management for ontopy.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/ontopy/excelparser"
	"github.com/c360studio/ontopy/export"
)

// Config represents the complete ontopy configuration
type Config struct {
	Loader LoaderConfig `yaml:"loader"`
	Excel  ExcelConfig  `yaml:"excel"`
	Output OutputConfig `yaml:"output"`
	Log    LogConfig    `yaml:"log"`
}

// LoaderConfig configures ontology resolution
type LoaderConfig struct {
	// SearchPaths are directories or doublestar patterns scanned for local documents
	SearchPaths []string `yaml:"search_paths"`
	// Catalog is an XML catalog consulted for every load
	Catalog string `yaml:"catalog"`
	// CacheDir keeps fetched documents for offline use (empty = no cache)
	CacheDir string `yaml:"cache_dir"`
	// Store is a bbolt file holding previously loaded ontologies (empty = none)
	Store string `yaml:"store"`
	// OnlyLocal disables remote fetches
	OnlyLocal bool `yaml:"only_local"`
	// FetchCacheMB sizes the in-memory cache of fetched documents (0 = disabled)
	FetchCacheMB int `yaml:"fetch_cache_mb"`
	// Timeout bounds each remote fetch
	Timeout time.Duration `yaml:"timeout"`
}

// ExcelConfig configures the spreadsheet builder
type ExcelConfig struct {
	// BaseIRI is the namespace of generated ontologies
	BaseIRI string `yaml:"base_iri"`
	// Root is the parent of rows with an empty parent cell (empty = owl:Thing)
	Root string `yaml:"root"`
	// Language tags labels and text annotations
	Language string `yaml:"language"`
	// IRIScheme is "label" or "uuid"
	IRIScheme string `yaml:"iri_scheme"`
	// Force skips rows with unresolved parents
	Force bool `yaml:"force"`
	// SkipAfterHeader is the number of description rows after the header
	SkipAfterHeader int                `yaml:"skip_after_header"`
	Sheets          excelparser.Sheets `yaml:"sheets"`
}

// OutputConfig configures written documents
type OutputConfig struct {
	// Format is the serialization used when the output path has no known extension
	Format string `yaml:"format"`
	// NoCatalog skips writing catalog-v001.xml next to generated ontologies
	NoCatalog bool `yaml:"no_catalog"`
}

// LogConfig configures logging
type LogConfig struct {
	// Level is debug, info, warn or error
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	opts := excelparser.DefaultOptions()
	return &Config{
		Loader: LoaderConfig{
			FetchCacheMB: 32,
			Timeout:      30 * time.Second,
		},
		Excel: ExcelConfig{
			BaseIRI:   opts.BaseIRI,
			Language:  opts.Language,
			IRIScheme: string(opts.IRIScheme),
			Sheets:    opts.Sheets,
		},
		Output: OutputConfig{
			Format: string(export.FormatTurtle),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Loader.FetchCacheMB < 0 {
		return fmt.Errorf("loader.fetch_cache_mb must not be negative")
	}
	if c.Loader.Timeout < 0 {
		return fmt.Errorf("loader.timeout must not be negative")
	}
	opts := c.Excel.Options()
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("excel: %w", err)
	}
	if _, err := export.ParseFormat(c.Output.Format); err != nil {
		return fmt.Errorf("output.format: %w", err)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// Options returns builder options for the excel section. Runtime fields
// such as the importer and logger are left for the caller.
func (e ExcelConfig) Options() excelparser.Options {
	opts := excelparser.DefaultOptions()
	opts.BaseIRI = e.BaseIRI
	opts.Root = e.Root
	opts.Language = e.Language
	opts.IRIScheme = excelparser.IRIScheme(e.IRIScheme)
	opts.Force = e.Force
	opts.SkipAfterHeader = e.SkipAfterHeader
	if e.Sheets.Concepts != "" {
		opts.Sheets.Concepts = e.Sheets.Concepts
	}
	if e.Sheets.Metadata != "" {
		opts.Sheets.Metadata = e.Sheets.Metadata
	}
	if e.Sheets.Imports != "" {
		opts.Sheets.Imports = e.Sheets.Imports
	}
	return opts
}

// SlogLevel parses the configured level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// LoadFromFile loads configuration from a YAML file on top of the defaults
func LoadFromFile(path string) (*Config, error) {
	file, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	config.Merge(file)
	return config, nil
}

// ReadFile decodes a YAML file without defaults, so that only the values it
// sets take part in a merge.
func ReadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ResolvePaths makes relative file locations absolute against base, the
// directory of the file they were read from.
func (c *Config) ResolvePaths(base string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	for i, p := range c.Loader.SearchPaths {
		c.Loader.SearchPaths[i] = abs(p)
	}
	c.Loader.Catalog = abs(c.Loader.Catalog)
	c.Loader.CacheDir = abs(c.Loader.CacheDir)
	c.Loader.Store = abs(c.Loader.Store)
}

// Merge merges another config into this one (other takes precedence for non-zero values).
// Search paths accumulate; boolean switches can only be turned on.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Loader
	c.Loader.SearchPaths = appendUnique(c.Loader.SearchPaths, other.Loader.SearchPaths...)
	if other.Loader.Catalog != "" {
		c.Loader.Catalog = other.Loader.Catalog
	}
	if other.Loader.CacheDir != "" {
		c.Loader.CacheDir = other.Loader.CacheDir
	}
	if other.Loader.Store != "" {
		c.Loader.Store = other.Loader.Store
	}
	if other.Loader.OnlyLocal {
		c.Loader.OnlyLocal = true
	}
	if other.Loader.FetchCacheMB != 0 {
		c.Loader.FetchCacheMB = other.Loader.FetchCacheMB
	}
	if other.Loader.Timeout != 0 {
		c.Loader.Timeout = other.Loader.Timeout
	}

	// Excel
	if other.Excel.BaseIRI != "" {
		c.Excel.BaseIRI = other.Excel.BaseIRI
	}
	if other.Excel.Root != "" {
		c.Excel.Root = other.Excel.Root
	}
	if other.Excel.Language != "" {
		c.Excel.Language = other.Excel.Language
	}
	if other.Excel.IRIScheme != "" {
		c.Excel.IRIScheme = other.Excel.IRIScheme
	}
	if other.Excel.Force {
		c.Excel.Force = true
	}
	if other.Excel.SkipAfterHeader != 0 {
		c.Excel.SkipAfterHeader = other.Excel.SkipAfterHeader
	}
	if other.Excel.Sheets.Concepts != "" {
		c.Excel.Sheets.Concepts = other.Excel.Sheets.Concepts
	}
	if other.Excel.Sheets.Metadata != "" {
		c.Excel.Sheets.Metadata = other.Excel.Sheets.Metadata
	}
	if other.Excel.Sheets.Imports != "" {
		c.Excel.Sheets.Imports = other.Excel.Sheets.Imports
	}

	// Output
	if other.Output.Format != "" {
		c.Output.Format = other.Output.Format
	}
	if other.Output.NoCatalog {
		c.Output.NoCatalog = true
	}

	// Log
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		found := false
		for _, d := range dst {
			if d == v {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}
