package docstore

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is a process-local Store. Documents are kept JSON-encoded so
// callers never share maps with the store.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (s *MemoryStore) Get(ctx context.Context, path string) (Document, error) {
	if err := ValidatePath(path); err != nil {
		return Document{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(path)
}

func (s *MemoryStore) getLocked(path string) (Document, error) {
	raw, ok := s.docs[path]
	if !ok {
		return Document{}, ErrNotFound
	}
	data, err := decode(raw)
	if err != nil {
		return Document{}, err
	}
	return Document{Path: path, Data: data}, nil
}

func (s *MemoryStore) Set(ctx context.Context, path string, data map[string]interface{}) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	raw, err := encode(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.docs[path] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Merge(ctx context.Context, path string, data map[string]interface{}) error {
	return s.RunTransaction(ctx, func(ctx context.Context, tx Txn) error {
		current, err := tx.Get(ctx, path)
		if err != nil && !IsNotFound(err) {
			return err
		}
		return tx.Set(ctx, path, merge(current.Data, data))
	})
}

func (s *MemoryStore) Delete(ctx context.Context, path string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.docs, path)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, collection, field string, value interface{}) ([]Document, error) {
	docs, err := s.List(ctx, collection)
	if err != nil {
		return nil, err
	}
	return filterByField(docs, field, value), nil
}

func (s *MemoryStore) List(ctx context.Context, collection string) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collectLocked(func(path string) bool { return CollectionOf(path) == collection })
}

func (s *MemoryStore) ListAll(ctx context.Context) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collectLocked(func(string) bool { return true })
}

func (s *MemoryStore) collectLocked(match func(path string) bool) ([]Document, error) {
	paths := make([]string, 0, len(s.docs))
	for path := range s.docs {
		if match(path) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)

	docs := make([]Document, 0, len(paths))
	for _, path := range paths {
		doc, err := s.getLocked(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// RunTransaction holds the store lock for the whole of fn and applies the
// staged writes only if fn succeeds.
func (s *MemoryStore) RunTransaction(ctx context.Context, fn TxFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTxn{store: s, staged: make(map[string][]byte), deleted: make(map[string]bool)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for path := range tx.deleted {
		delete(s.docs, path)
	}
	for path, raw := range tx.staged {
		s.docs[path] = raw
	}
	return nil
}

type memoryTxn struct {
	store   *MemoryStore
	staged  map[string][]byte
	deleted map[string]bool
}

func (t *memoryTxn) Get(ctx context.Context, path string) (Document, error) {
	if err := ValidatePath(path); err != nil {
		return Document{}, err
	}
	if t.deleted[path] {
		return Document{}, ErrNotFound
	}
	if raw, ok := t.staged[path]; ok {
		data, err := decode(raw)
		if err != nil {
			return Document{}, err
		}
		return Document{Path: path, Data: data}, nil
	}
	return t.store.getLocked(path)
}

func (t *memoryTxn) Set(ctx context.Context, path string, data map[string]interface{}) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	raw, err := encode(data)
	if err != nil {
		return err
	}
	delete(t.deleted, path)
	t.staged[path] = raw
	return nil
}

func (t *memoryTxn) Delete(ctx context.Context, path string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	delete(t.staged, path)
	t.deleted[path] = true
	return nil
}

// Len returns the number of stored documents.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

