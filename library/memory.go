package library

import (
	"context"
	"sync"
)

// MemoryBackend keeps the tables in process memory. It backs tests and
// dry runs.
type MemoryBackend struct {
	mu      sync.Mutex
	tables  *Tables
	commits int
}

// NewMemoryBackend starts from a copy of seed, or from empty tables.
func NewMemoryBackend(seed *Tables) *MemoryBackend {
	if seed == nil {
		seed = &Tables{}
	}
	return &MemoryBackend{tables: seed.Clone()}
}

func (m *MemoryBackend) Load(_ context.Context) (*Tables, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tables.Clone(), nil
}

func (m *MemoryBackend) Commit(_ context.Context, t *Tables, changed TableSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.tables.Clone()
	if changed.Has(BooksTable) {
		next.Books = append([]Book(nil), t.Books...)
	}
	if changed.Has(MembersTable) {
		next.Members = append([]Member(nil), t.Members...)
	}
	if changed.Has(LedgerTable) {
		next.Transactions = append([]Transaction(nil), t.Transactions...)
	}
	if changed.Has(QueueTable) {
		next.Pending = append([]Transaction(nil), t.Pending...)
	}
	m.tables = next
	m.commits++
	return nil
}

func (m *MemoryBackend) Close() error { return nil }

// Snapshot returns a copy of the committed tables.
func (m *MemoryBackend) Snapshot() *Tables {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tables.Clone()
}

// Commits counts successful commits.
func (m *MemoryBackend) Commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commits
}
