package database

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/diegovalduran/productloader/internal/models"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Memory is an in-process Store. It backs dry runs and tests.
type Memory struct {
	mu          sync.Mutex
	collections map[string]map[string]models.Document
	writes      int
	failWrite   func(n int, collection, id string) error
}

type MemoryOption func(*Memory)

// WithWriteFailure makes SetDocument consult fn before every write; n is the
// 1-based number of the write attempt. A non-nil result fails that write.
func WithWriteFailure(fn func(n int, collection, id string) error) MemoryOption {
	return func(m *Memory) {
		m.failWrite = fn
	}
}

// FailOnWrite fails the nth write attempt with an Unavailable status, the
// error Firestore returns when the service cannot be reached.
func FailOnWrite(n int) MemoryOption {
	return WithWriteFailure(func(attempt int, _, id string) error {
		if attempt == n {
			return status.Errorf(codes.Unavailable, "simulated outage writing %s", id)
		}
		return nil
	})
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{collections: make(map[string]map[string]models.Document)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) SetDocument(ctx context.Context, collection, id string, doc models.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidDocumentID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.writes++
	if m.failWrite != nil {
		if err := m.failWrite(m.writes, collection, id); err != nil {
			return err
		}
	}

	docs, ok := m.collections[collection]
	if !ok {
		docs = make(map[string]models.Document)
		m.collections[collection] = docs
	}
	docs[id] = copyDocument(doc)
	return nil
}

// ListDocuments returns the collection ordered by id.
func (m *Memory) ListDocuments(ctx context.Context, collection string) ([]models.StoredDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	docs := m.collections[collection]
	out := make([]models.StoredDocument, 0, len(docs))
	for id, doc := range docs {
		out = append(out, models.StoredDocument{ID: id, Fields: copyDocument(doc)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) Close() error {
	return nil
}

// Document returns a copy of one stored document.
func (m *Memory) Document(collection, id string) (models.Document, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.collections[collection][id]
	if !ok {
		return nil, false
	}
	return copyDocument(doc), true
}

// Len is the number of documents in a collection.
func (m *Memory) Len(collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.collections[collection])
}

// Writes counts write attempts, failed ones included.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func copyDocument(doc models.Document) models.Document {
	out := make(models.Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
