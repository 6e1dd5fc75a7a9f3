// Package storage persists ontologies of a World in a bbolt database so a
// later session can rebuild them without resolving and parsing documents
// again.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/c360studio/ontopy/export"
	"github.com/c360studio/ontopy/ontology"
	"github.com/c360studio/ontopy/source/parser"
)

// Bucket names.
const (
	BucketOntologies = "ontologies"
	BucketStatements = "statements"
)

// Record is the metadata stored for an ontology.
type Record struct {
	ID        string            `json:"id"`
	IRI       string            `json:"iri"`
	Base      string            `json:"base"`
	Location  string            `json:"location,omitempty"`
	MimeType  string            `json:"mime_type,omitempty"`
	Prefixes  map[string]string `json:"prefixes,omitempty"`
	Imports   []string          `json:"imports,omitempty"`
	EMMOBased bool              `json:"emmo_based"`
	Triples   int               `json:"triples"`
	SavedAt   time.Time         `json:"saved_at"`
}

// Store is a bbolt backed ontology store.
type Store struct {
	mu     sync.Mutex
	db     *bolt.DB
	path   string
	closed bool
}

// Open opens or creates the store at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{BucketOntologies, BucketStatements} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database. Closing twice is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *Store) check(ctx context.Context) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}
	return ctx.Err()
}

func key(iri string) []byte {
	return []byte(ontology.NormalizeIRI(iri))
}

// Save stores o, replacing any previous record for its IRI.
func (s *Store) Save(ctx context.Context, o *ontology.Ontology) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	w := export.NewNTriplesWriter()
	stmts := o.Statements()
	for _, st := range stmts {
		w.WriteStatement(st)
	}
	rec := Record{
		ID:        uuid.New().String(),
		IRI:       o.IRI(),
		Base:      o.Base(),
		Location:  o.Location(),
		MimeType:  o.MimeType(),
		Prefixes:  o.Prefixes(),
		EMMOBased: o.EMMOBased(),
		Triples:   len(stmts),
		SavedAt:   time.Now().UTC(),
	}
	for _, imp := range o.Imports() {
		rec.Imports = append(rec.Imports, imp.IRI())
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		meta := tx.Bucket([]byte(BucketOntologies))
		k := key(o.IRI())
		if prev := meta.Get(k); prev != nil {
			var old Record
			if err := json.Unmarshal(prev, &old); err == nil && old.ID != "" {
				rec.ID = old.ID
			}
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if err := meta.Put(k, data); err != nil {
			return fmt.Errorf("store record: %w", err)
		}
		if err := tx.Bucket([]byte(BucketStatements)).Put(k, []byte(w.String())); err != nil {
			return fmt.Errorf("store statements: %w", err)
		}
		return nil
	})
}

// SaveClosure stores o and every ontology it imports.
func (s *Store) SaveClosure(ctx context.Context, o *ontology.Ontology) error {
	for _, onto := range o.ImportClosure() {
		if err := s.Save(ctx, onto); err != nil {
			return fmt.Errorf("save %s: %w", onto.IRI(), err)
		}
	}
	return nil
}

// Record returns the metadata stored for iri.
func (s *Store) Record(ctx context.Context, iri string) (Record, error) {
	var rec Record
	if err := s.check(ctx); err != nil {
		return rec, err
	}
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(BucketOntologies)).Get(key(iri))
		if data == nil {
			return ErrNotFound
		}
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("unmarshal record: %w", err)
		}
		return nil
	})
	return rec, err
}

// Has reports whether an ontology is stored under iri.
func (s *Store) Has(ctx context.Context, iri string) bool {
	_, err := s.Record(ctx, iri)
	return err == nil
}

// Load rebuilds the ontology stored under iri in world, together with the
// stored ontologies it imports. Imports missing from the store are left
// for the caller to resolve.
func (s *Store) Load(ctx context.Context, world *ontology.World, iri string) (*ontology.Ontology, error) {
	return s.load(ctx, world, iri, make(map[string]*ontology.Ontology))
}

func (s *Store) load(ctx context.Context, world *ontology.World, iri string, seen map[string]*ontology.Ontology) (*ontology.Ontology, error) {
	if o, ok := seen[ontology.NormalizeIRI(iri)]; ok {
		return o, nil
	}
	rec, err := s.Record(ctx, iri)
	if err != nil {
		return nil, err
	}

	var content []byte
	err = s.db.View(func(tx *bolt.Tx) error {
		content = append(content, tx.Bucket([]byte(BucketStatements)).Get(key(iri))...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	doc, err := parser.NewNTriplesParser().Parse(rec.IRI, content)
	if err != nil {
		return nil, fmt.Errorf("decode stored statements of %s: %w", rec.IRI, err)
	}

	o := world.Ontology(rec.Base)
	seen[ontology.NormalizeIRI(rec.IRI)] = o
	o.Reset()
	if err := o.AddStatements(doc.Statements); err != nil {
		return nil, err
	}
	for p, ns := range rec.Prefixes {
		o.SetPrefix(p, ns)
	}
	o.SetEMMOBased(rec.EMMOBased)
	o.MarkLoaded(rec.Location, rec.MimeType)

	for _, imp := range rec.Imports {
		if !s.Has(ctx, imp) {
			continue
		}
		imported, err := s.load(ctx, world, imp, seen)
		if err != nil {
			return nil, fmt.Errorf("load import %s: %w", imp, err)
		}
		o.AddImport(imported)
	}
	return o, nil
}

// List returns the stored records ordered by IRI.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	var recs []Record
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(BucketOntologies)).ForEach(func(_, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("unmarshal record: %w", err)
			}
			recs = append(recs, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].IRI < recs[j].IRI })
	return recs, nil
}

// Delete removes the ontology stored under iri.
func (s *Store) Delete(ctx context.Context, iri string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		meta := tx.Bucket([]byte(BucketOntologies))
		k := key(iri)
		if meta.Get(k) == nil {
			return ErrNotFound
		}
		if err := meta.Delete(k); err != nil {
			return err
		}
		return tx.Bucket([]byte(BucketStatements)).Delete(k)
	})
}
