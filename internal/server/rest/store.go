// Package rest implements the generic JSON collection store the client
// expects on the other end of the wire: users, jobs and jobApplications,
// addressed by id, with equality filters on top-level fields. It exists
// for local development and tests; records live in memory only.
package rest

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Document is one record in a collection, kept schemaless on purpose:
// the store never interprets payloads beyond the "id" field.
type Document map[string]any

// Store holds the named collections. Safe for concurrent use.
type Store struct {
	mu          sync.Mutex
	collections map[string][]Document
}

// Collections served by the store.
var collections = map[string]bool{
	"users":           true,
	"jobs":            true,
	"jobApplications": true,
}

// NewStore returns a Store with the three job-board collections, empty.
func NewStore() *Store {
	s := &Store{collections: make(map[string][]Document)}
	for name := range collections {
		s.collections[name] = []Document{}
	}
	return s
}

// Known reports whether name is a served collection.
func Known(name string) bool {
	return collections[name]
}

// List returns the documents of coll matching every filter. Filters are
// string equality on top-level fields; non-string fields are compared by
// their default formatting, matching json-server behavior.
func (s *Store) List(coll string, filters map[string]string) []Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []Document{}
	for _, doc := range s.collections[coll] {
		if matches(doc, filters) {
			out = append(out, doc)
		}
	}
	return out
}

// Get returns the document of coll with the given id.
func (s *Store) Get(coll, id string) (Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range s.collections[coll] {
		if docID(doc) == id {
			return doc, true
		}
	}
	return nil, false
}

// Insert appends doc to coll, assigning a uuid when it carries no id, and
// returns the stored document.
func (s *Store) Insert(coll string, doc Document) Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	if docID(doc) == "" {
		doc["id"] = uuid.NewString()
	}
	s.collections[coll] = append(s.collections[coll], doc)
	return doc
}

// Replace swaps the document with the given id for doc. The id in the
// path wins over any id in the body.
func (s *Store) Replace(coll, id string, doc Document) (Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.collections[coll] {
		if docID(existing) == id {
			doc["id"] = id
			s.collections[coll][i] = doc
			return doc, true
		}
	}
	return nil, false
}

func docID(doc Document) string {
	id, _ := doc["id"].(string)
	return id
}

func matches(doc Document, filters map[string]string) bool {
	for field, want := range filters {
		v, ok := doc[field]
		if !ok {
			return false
		}
		if str, ok := v.(string); ok {
			if str != want {
				return false
			}
			continue
		}
		if fmt.Sprint(v) != want {
			return false
		}
	}
	return true
}
