package library

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

const testToday = "2024-03-15"

// newTestLibrary returns a Library over an in-memory backend seeded with
// seed, a fixed clock and sequential transaction ids TX-001, TX-002, ...
func newTestLibrary(t *testing.T, seed *Tables) (*Library, *MemoryBackend) {
	t.Helper()
	mem := NewMemoryBackend(seed)
	n := 0
	lib := New(NewStore(mem),
		WithClock(func() time.Time { return testNow }),
		WithTxIDs(func(time.Time) string {
			n++
			return fmt.Sprintf("TX-%03d", n)
		}),
	)
	return lib, mem
}

func tempDB(t *testing.T) *Database {
	t.Helper()
	dir := t.TempDir()
	db, err := NewDatabase(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func books(ids ...string) []Book {
	out := make([]Book, len(ids))
	for i, id := range ids {
		out[i] = Book{ID: id, Title: "Title " + id, Author: "Author", Status: StatusAvailable}
	}
	return out
}

// sampleTables holds one copy of every kind of row.
func sampleTables() *Tables {
	return &Tables{
		Books: []Book{
			{ID: "GDL-001", Title: "Ponniyin Selvan", Author: "Kalki", Status: StatusLent},
			{ID: "GDL-002", Title: "தமிழ்", Author: "Bharathi", TitleTranslit: "thamizh", Status: StatusPending},
			{ID: "GDL-003", Title: "Sivagamiyin Sabatham", Author: "Kalki", Donor: "Ravi", Status: StatusAvailable},
		},
		Members: []Member{
			{ID: "MEM-001", Name: "Asha", Mobile: "9876543210", Email: "a@x.com", Role: RoleUser},
			{ID: "MEM-002", Name: "Bala", Mobile: "9123456780", Role: RoleAdmin},
		},
		Transactions: []Transaction{
			{TxID: "TX-A", BookID: "GDL-001", BookTitle: "Ponniyin Selvan", MemberID: "MEM-001", Name: "Asha", Mobile: "9876543210", Email: "a@x.com", BorrowDate: "2024-03-01", Status: TxActive},
			{TxID: "TX-B", BookID: "GDL-003", BookTitle: "Sivagamiyin Sabatham", MemberID: WalkIn, Name: "Guest", BorrowDate: "2024-01-01", ReturnDate: "2024-01-20", Status: TxReturned},
		},
		Pending: []Transaction{
			{TxID: "TX-C", BookID: "GDL-002", BookTitle: "தமிழ்", MemberID: "MEM-002", Name: "Bala", Mobile: "9123456780", BorrowDate: "2024-03-10", Status: TxBorrowRequested},
			{TxID: "TX-D", BookID: "GDL-001", BookTitle: "Ponniyin Selvan", MemberID: WalkIn, Name: "Chitra", Mobile: "9000000001", BorrowDate: "2024-03-11", Status: TxInterested},
		},
	}
}

func requireConsistent(t *testing.T, tables *Tables) {
	t.Helper()
	require.Empty(t, Verify(tables))
}

func snapshot(t *testing.T, lib *Library) *Tables {
	t.Helper()
	var out *Tables
	require.NoError(t, lib.Store().View(context.Background(), func(tables *Tables) error {
		out = tables.Clone()
		return nil
	}))
	return out
}
