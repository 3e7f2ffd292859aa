/*
store.go - Persistence interface for issued documents and clients

The workflow persists through this interface; the sqlite implementation
lives in store/sqlite, and the in-memory one below backs unit tests.
*/
package issuance

import (
	"context"
	"errors"
	"sync"
)

// Sentinel errors shared by DocumentStore implementations.
var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrDuplicateNumber  = errors.New("duplicate document number")
)

// DocumentStore persists issued documents and registered clients.
type DocumentStore interface {
	SaveDocument(ctx context.Context, doc Document) error
	GetDocument(ctx context.Context, id string) (*Document, error)
	ListDocuments(ctx context.Context, kind Kind) ([]Document, error)

	SaveClient(ctx context.Context, c Client) error
	ListClients(ctx context.Context) ([]Client, error)
}

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type MemoryStore struct {
	mu          sync.RWMutex
	documents   map[string]Document
	numbers     map[string]bool
	clients     map[string]Client
	clientCodes map[string]bool

	// FailNextSave makes the next SaveDocument fail, for exercising the
	// burned-number compensation path in tests.
	FailNextSave error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		documents:   make(map[string]Document),
		numbers:     make(map[string]bool),
		clients:     make(map[string]Client),
		clientCodes: make(map[string]bool),
	}
}

func (m *MemoryStore) SaveDocument(_ context.Context, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailNextSave != nil {
		err := m.FailNextSave
		m.FailNextSave = nil
		return err
	}
	if m.numbers[doc.Number] {
		return ErrDuplicateNumber
	}
	m.documents[doc.ID] = doc
	m.numbers[doc.Number] = true
	return nil
}

func (m *MemoryStore) GetDocument(_ context.Context, id string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.documents[id]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return &doc, nil
}

func (m *MemoryStore) ListDocuments(_ context.Context, kind Kind) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Document
	for _, doc := range m.documents {
		if kind == "" || doc.Kind == kind {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (m *MemoryStore) SaveClient(_ context.Context, c Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Same uniqueness contract as the sqlite clients table.
	if m.clientCodes[c.Code] {
		return ErrDuplicateNumber
	}
	m.clients[c.ID] = c
	m.clientCodes[c.Code] = true
	return nil
}

func (m *MemoryStore) ListClients(_ context.Context) ([]Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Client, 0, len(m.clients))
	for _, c := range m.clients {
		out = append(out, c)
	}
	return out, nil
}

var _ DocumentStore = (*MemoryStore)(nil)
