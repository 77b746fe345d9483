package library

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabase_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db := tempDB(t)

	want := sampleTables()
	require.NoError(t, db.Commit(ctx, want, AllTables))

	got, err := db.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDatabase_CommitOnlyChangedTables(t *testing.T) {
	ctx := context.Background()
	db := tempDB(t)
	require.NoError(t, db.Commit(ctx, sampleTables(), AllTables))

	next := sampleTables()
	next.Books = next.Books[:1]
	next.Members = nil
	require.NoError(t, db.Commit(ctx, next, BooksTable))

	got, err := db.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Books, 1)
	assert.Len(t, got.Members, 2, "members were not marked changed")
}

func TestDatabase_LargeTableBatches(t *testing.T) {
	ctx := context.Background()
	db := tempDB(t)

	tables := &Tables{}
	for i := 1; i <= 3*insertBatch+7; i++ {
		tables.Books = append(tables.Books, Book{ID: BookIDs.Format(i), Title: fmt.Sprintf("Book %d", i), Status: StatusAvailable})
	}
	require.NoError(t, db.Commit(ctx, tables, BooksTable))

	got, err := db.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.Books, len(tables.Books))
	assert.Equal(t, "GDL-001", got.Books[0].ID)
	assert.Equal(t, BookIDs.Format(len(tables.Books)), got.Books[len(got.Books)-1].ID)
}

func TestDatabase_FailedCommitRollsBack(t *testing.T) {
	ctx := context.Background()
	db := tempDB(t)
	require.NoError(t, db.Commit(ctx, sampleTables(), AllTables))

	// Duplicate primary key in the ledger fails the second statement; the
	// books rewrite before it must not survive.
	bad := sampleTables()
	bad.Books = nil
	bad.Transactions = append(bad.Transactions, bad.Transactions[0])
	assert.Error(t, db.Commit(ctx, bad, BooksTable|LedgerTable))

	got, err := db.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Books, 3)
	assert.Len(t, got.Transactions, 2)
}

func TestDatabase_MigratesVersionOne(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "legacy.db")

	// A database written before the transliteration and role columns.
	raw, err := sqlx.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = raw.Exec(`CREATE TABLE meta (key TEXT PRIMARY KEY, value TEXT);`)
	require.NoError(t, err)
	require.NoError(t, migrate(raw, 1, migrations[0]))
	_, err = raw.Exec(`INSERT INTO books(id,title,author,donor,status) VALUES('GDL-001','Old','Anon','','BORROWED')`)
	require.NoError(t, err)
	_, err = raw.Exec(`INSERT INTO members(id,name,mobile,email) VALUES('MEM-001','Asha','9876543210','')`)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	db, err := NewDatabase(path)
	require.NoError(t, err)
	defer db.Close()

	got, err := db.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.Books, 1)
	assert.Equal(t, "", got.Books[0].TitleTranslit)
	assert.Equal(t, BookStatus("BORROWED"), got.Books[0].Status, "backend returns raw values")
	assert.Equal(t, RoleUser, got.Members[0].Role)

	// Through the store the legacy status reads as LENT.
	lib := New(NewStore(db))
	b, err := lib.Book(ctx, "GDL-001")
	require.NoError(t, err)
	assert.Equal(t, StatusLent, b.Status)
}

func TestDatabase_Backup(t *testing.T) {
	ctx := context.Background()
	db := tempDB(t)
	require.NoError(t, db.Commit(ctx, sampleTables(), AllTables))

	dest := filepath.Join(t.TempDir(), "copy.db")
	require.NoError(t, db.Backup(ctx, dest))
	assert.Error(t, db.Backup(ctx, dest), "existing target is not overwritten")

	copyDB, err := NewDatabase(dest)
	require.NoError(t, err)
	defer copyDB.Close()
	got, err := copyDB.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleTables(), got)
}

// TestDatabase_Lifecycle runs the full lending flow against SQLite.
func TestDatabase_Lifecycle(t *testing.T) {
	ctx := context.Background()
	db := tempDB(t)
	require.NoError(t, db.Commit(ctx, &Tables{Books: books("GDL-001", "GDL-002")}, BooksTable))
	lib := New(NewStore(db))

	res, err := lib.LendRequest(ctx, asha("GDL-002"))
	require.NoError(t, err)
	require.NoError(t, lib.ApproveLend(ctx, res.TxID))
	_, err = lib.RequestReturn(ctx, "GDL-002", "9876543210")
	require.NoError(t, err)
	require.NoError(t, lib.ApproveReturn(ctx, res.TxID))
	_, err = lib.DeleteBook(ctx, "GDL-001")
	require.NoError(t, err)

	got, err := db.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"GDL-001"}, ids(got.Books, bookID))
	require.Len(t, got.Transactions, 1)
	assert.Equal(t, "GDL-001", got.Transactions[0].BookID, "ledger follows the renumbered copy")
	assert.Equal(t, TxReturned, got.Transactions[0].Status)
	requireConsistent(t, got)
}
