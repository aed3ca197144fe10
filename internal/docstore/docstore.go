// Package docstore provides a path-addressed JSON document store with
// single-store transactions. It stands in for a managed document database:
// collections are path prefixes, documents are JSON objects.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidPath is returned for empty paths or paths with empty segments.
	ErrInvalidPath = errors.New("invalid document path")
)

// Document is a stored JSON object and its path.
type Document struct {
	Path string
	Data map[string]interface{}
}

// Txn is the view of the store available inside RunTransaction.
type Txn interface {
	Get(ctx context.Context, path string) (Document, error)
	Set(ctx context.Context, path string, data map[string]interface{}) error
	Delete(ctx context.Context, path string) error
}

// TxFunc is the body of a transaction. Returning an error aborts it.
type TxFunc func(ctx context.Context, tx Txn) error

// Store is a document store.
type Store interface {
	Get(ctx context.Context, path string) (Document, error)
	Set(ctx context.Context, path string, data map[string]interface{}) error
	// Merge overlays the top-level fields of data onto the stored document,
	// creating it if needed.
	Merge(ctx context.Context, path string, data map[string]interface{}) error
	Delete(ctx context.Context, path string) error
	// Query returns the documents of a collection whose top-level field equals value.
	Query(ctx context.Context, collection, field string, value interface{}) ([]Document, error)
	List(ctx context.Context, collection string) ([]Document, error)
	ListAll(ctx context.Context) ([]Document, error)
	// RunTransaction runs fn atomically. Transactions on one store are
	// serialised; fn must only use tx, never the store itself.
	RunTransaction(ctx context.Context, fn TxFunc) error
}

// Join builds a document path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// CollectionOf returns the collection part of a document path.
func CollectionOf(path string) string {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return ""
	}
	return path[:i]
}

// ValidatePath rejects empty paths and paths with empty segments.
func ValidatePath(path string) error {
	if path == "" {
		return ErrInvalidPath
	}
	for _, seg := range strings.Split(path, "/") {
		if strings.TrimSpace(seg) == "" {
			return fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return nil
}

// IsNotFound reports whether err is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func encode(data map[string]interface{}) ([]byte, error) {
	if data == nil {
		data = map[string]interface{}{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return raw, nil
}

func decode(raw []byte) (map[string]interface{}, error) {
	data := map[string]interface{}{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return data, nil
}

// normalize round-trips a value through JSON so that it compares equal to
// what a decoded document holds (numbers become float64 and so on).
func normalize(v interface{}) interface{} {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

func filterByField(docs []Document, field string, value interface{}) []Document {
	want := normalize(value)
	var out []Document
	for _, doc := range docs {
		if got, ok := doc.Data[field]; ok && reflect.DeepEqual(got, want) {
			out = append(out, doc)
		}
	}
	return out
}

func merge(dst, src map[string]interface{}) map[string]interface{} {
	if dst == nil {
		dst = map[string]interface{}{}
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
