package database

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore keeps documents in process, in insertion order. It backs the
// tests and the `STORE=memory` development mode.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

type memoryCollection struct {
	order []string
	docs  map[string]Document
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memoryCollection)}
}

func (s *MemoryStore) collection(name string) *memoryCollection {
	c, ok := s.collections[name]
	if !ok {
		c = &memoryCollection{docs: make(map[string]Document)}
		s.collections[name] = c
	}
	return c
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[collection]
	if !ok {
		return nil, ErrNotFound
	}
	doc, ok := c.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDocument(doc), nil
}

func (s *MemoryStore) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[collection]
	if !ok {
		return []Document{}, nil
	}

	docs := []Document{}
	for _, id := range c.order {
		doc := c.docs[id]
		if matches(doc, filters) {
			docs = append(docs, cloneDocument(doc))
		}
	}
	return docs, nil
}

func (s *MemoryStore) Create(ctx context.Context, collection string, fields Document) (string, error) {
	id := primitive.NewObjectID().Hex()
	if err := s.Set(ctx, collection, id, fields); err != nil {
		return "", err
	}
	return id, nil
}

func (s *MemoryStore) Set(ctx context.Context, collection, id string, fields Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(collection)
	doc := cloneDocument(fields)
	doc["_id"] = id
	if _, exists := c.docs[id]; !exists {
		c.order = append(c.order, id)
	}
	c.docs[id] = doc
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, deltas ...Delta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[collection]
	if !ok {
		return ErrNotFound
	}
	doc, ok := c.docs[id]
	if !ok {
		return ErrNotFound
	}

	// apply to a copy so a failing delta leaves the document untouched
	updated := cloneDocument(doc)
	if err := applyDeltas(updated, deltas); err != nil {
		return err
	}
	c.docs[id] = updated
	return nil
}
