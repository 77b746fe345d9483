package library

import (
	"context"
	"fmt"
	"sync"
)

// TableSet names a subset of the four persisted relations.
type TableSet uint8

const (
	BooksTable TableSet = 1 << iota
	MembersTable
	LedgerTable
	QueueTable

	AllTables = BooksTable | MembersTable | LedgerTable | QueueTable
)

// Has reports whether t is part of the set.
func (s TableSet) Has(t TableSet) bool { return s&t != 0 }

// Table names shared by every backend.
const (
	booksName        = "books"
	membersName      = "members"
	transactionsName = "transactions"
	pendingName      = "pending_requests"
)

// Backend loads and persists the four relations wholesale. Commit must be
// all-or-nothing: after a crash a subsequent Load observes either the state
// before the commit or the state after it.
type Backend interface {
	Load(ctx context.Context) (*Tables, error)
	Commit(ctx context.Context, t *Tables, changed TableSet) error
	Close() error
}

// Store owns the commit boundary. It serializes every operation, so callers
// may share one Store across goroutines, but two processes must not write
// the same backend.
type Store struct {
	mu      sync.Mutex
	backend Backend
}

// NewStore wraps a backend.
func NewStore(b Backend) *Store {
	return &Store{backend: b}
}

// Close closes the backend.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.Close()
}

// View loads a snapshot and passes it to fn. fn must not retain t.
func (s *Store) View(ctx context.Context, fn func(t *Tables) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.load(ctx)
	if err != nil {
		return err
	}
	return fn(t)
}

// Update loads a snapshot, lets fn stage mutations on it and commits every
// table fn touched as a single unit. If fn fails nothing is written.
func (s *Store) Update(ctx context.Context, fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.load(ctx)
	if err != nil {
		return err
	}
	tx := &Tx{Tables: t}
	if err := fn(tx); err != nil {
		return err
	}
	if tx.dirty == 0 {
		return nil
	}
	if err := s.backend.Commit(ctx, tx.Tables, tx.dirty); err != nil {
		return persistence("commit tables", err)
	}
	return nil
}

func (s *Store) load(ctx context.Context) (*Tables, error) {
	t, err := s.backend.Load(ctx)
	if err != nil {
		return nil, persistence("load tables", err)
	}
	t.canonicalize()
	return t, nil
}

// Tx is a staged copy of the tables for one operation.
type Tx struct {
	*Tables
	dirty TableSet
}

// Touch marks tables as modified so they are persisted on commit.
func (tx *Tx) Touch(t TableSet) { tx.dirty |= t }

// Dirty returns the tables modified so far.
func (tx *Tx) Dirty() TableSet { return tx.dirty }

// Backupper is implemented by backends that can write a consistent copy of
// their state elsewhere.
type Backupper interface {
	Backup(ctx context.Context, dest string) error
}

// Backup copies the backend's state to dest while holding the write lock.
func (s *Store) Backup(ctx context.Context, dest string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.backend.(Backupper)
	if !ok {
		return persistence("backup", fmt.Errorf("%T does not support backups", s.backend))
	}
	if err := b.Backup(ctx, dest); err != nil {
		return persistence("backup", err)
	}
	return nil
}
