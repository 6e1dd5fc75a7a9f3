package catalog

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/net/html/charset"
)

// Namespace is the OASIS XML catalog namespace.
const Namespace = "urn:oasis:names:tc:entity:xmlns:xml:catalog"

const (
	provenanceGroup = "provenance"
	repositoryGroup = "Folder Repository, directory=, recursive=false, Auto-Update=false, version=2"
)

type xmlCatalog struct {
	XMLName xml.Name   `xml:"catalog"`
	Xmlns   string     `xml:"xmlns,attr,omitempty"`
	Prefer  string     `xml:"prefer,attr,omitempty"`
	Base    string     `xml:"http://www.w3.org/XML/1998/namespace base,attr,omitempty"`
	URIs    []xmlURI   `xml:"uri"`
	Groups  []xmlGroup `xml:"group"`
	Next    []xmlNext  `xml:"nextCatalog"`
}

type xmlGroup struct {
	ID     string    `xml:"id,attr,omitempty"`
	Prefer string    `xml:"prefer,attr,omitempty"`
	Base   string    `xml:"http://www.w3.org/XML/1998/namespace base,attr,omitempty"`
	URIs   []xmlURI  `xml:"uri"`
	Next   []xmlNext `xml:"nextCatalog"`
}

type xmlURI struct {
	ID   string `xml:"id,attr,omitempty"`
	Name string `xml:"name,attr"`
	URI  string `xml:"uri,attr"`
}

type xmlNext struct {
	Catalog string `xml:"catalog,attr"`
}

// Read reads a catalog file. If path is a directory the catalog-v001.xml
// inside it is read. Relative locations are resolved against the directory
// of the catalog.
func Read(path string) (*Catalog, error) {
	file, err := catalogFile(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	c, err := Parse(f, filepath.Dir(file))
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", file, err)
	}
	c.source = file
	return c, nil
}

// ReadRecursive reads a catalog and the catalogs it references with
// nextCatalog. Entries of the referencing catalog take precedence.
func ReadRecursive(path string) (*Catalog, error) {
	c, err := Read(path)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{c.source: true}
	queue := c.Next()
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if IsURL(next) {
			continue
		}
		file, err := catalogFile(next)
		if err != nil {
			return nil, err
		}
		if seen[file] {
			continue
		}
		seen[file] = true
		sub, err := Read(file)
		if err != nil {
			return nil, err
		}
		c.fill(sub)
		queue = append(queue, sub.Next()...)
	}
	return c, nil
}

func catalogFile(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve catalog path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("stat catalog: %w", err)
	}
	if info.IsDir() {
		return filepath.Join(abs, FileName), nil
	}
	return abs, nil
}

// Parse decodes a catalog document. base is the directory or URL relative
// locations are resolved against.
func Parse(r io.Reader, base string) (*Catalog, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var doc xmlCatalog
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := New()
	root := base
	if doc.Base != "" {
		root = Resolve(base, doc.Base)
	}
	if err := c.addURIs(doc.URIs, root); err != nil {
		return nil, err
	}
	for _, n := range doc.Next {
		c.next = append(c.next, Resolve(root, n.Catalog))
	}
	for _, g := range doc.Groups {
		gbase := root
		if g.Base != "" {
			gbase = Resolve(root, g.Base)
		}
		if g.ID == provenanceGroup {
			for _, u := range g.URIs {
				c.provenance[u.Name] = Resolve(gbase, u.URI)
			}
			continue
		}
		if err := c.addURIs(g.URIs, gbase); err != nil {
			return nil, err
		}
		for _, n := range g.Next {
			c.next = append(c.next, Resolve(gbase, n.Catalog))
		}
	}
	return c, nil
}

func (c *Catalog) addURIs(uris []xmlURI, base string) error {
	for _, u := range uris {
		if u.Name == "" {
			continue
		}
		if err := c.Add(u.Name, Resolve(base, u.URI)); err != nil {
			return err
		}
	}
	return nil
}

// Write writes c as an XML catalog. When relativeTo is not empty, local
// locations are written relative to that directory.
func (c *Catalog) Write(w io.Writer, relativeTo string) error {
	doc := xmlCatalog{Xmlns: Namespace, Prefer: "public"}

	entries := xmlGroup{ID: repositoryGroup, Prefer: "public"}
	for _, e := range c.Entries() {
		entries.URIs = append(entries.URIs, xmlURI{Name: e.Name, URI: relative(relativeTo, e.Location)})
	}
	doc.Groups = append(doc.Groups, entries)

	if prov := c.ProvenanceEntries(); len(prov) > 0 {
		g := xmlGroup{ID: provenanceGroup, Prefer: "public"}
		for _, e := range prov {
			g.URIs = append(g.URIs, xmlURI{Name: e.Name, URI: relative(relativeTo, e.Location)})
		}
		doc.Groups = append(doc.Groups, g)
	}
	for _, n := range c.Next() {
		doc.Next = append(doc.Next, xmlNext{Catalog: relative(relativeTo, n)})
	}

	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="no"?>` + "\n")
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteFile writes c to path, creating parent directories. With relative
// set, local locations are written relative to the directory of path.
func (c *Catalog) WriteFile(path string, relative bool) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}
	var relativeTo string
	if relative {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("resolve catalog directory: %w", err)
		}
		relativeTo = abs
	}

	var buf bytes.Buffer
	if err := c.Write(&buf, relativeTo); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	return nil
}

func relative(dir, location string) string {
	if dir == "" || IsURL(location) || !filepath.IsAbs(location) {
		return location
	}
	rel, err := filepath.Rel(dir, location)
	if err != nil {
		return location
	}
	return filepath.ToSlash(rel)
}
