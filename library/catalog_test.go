package library

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddBook(t *testing.T) {
	ctx := context.Background()
	lib, mem := newTestLibrary(t, &Tables{Books: books("GDL-001", "GDL-007")})

	id, err := lib.AddBook(ctx, BookInput{Title: "  Kadal Pura ", Author: "Sandilyan"})
	require.NoError(t, err)
	assert.Equal(t, "GDL-008", id)

	b, err := lib.Book(ctx, "gdl-008")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "Kadal Pura", b.Title)
	assert.Equal(t, StatusAvailable, b.Status)
	assert.Empty(t, b.TitleTranslit, "latin titles are not transliterated")
	assert.Equal(t, 1, mem.Commits())
}

func TestAddBook_Transliteration(t *testing.T) {
	ctx := context.Background()
	lib, _ := newTestLibrary(t, nil)

	id, err := lib.AddBook(ctx, BookInput{Title: "தமிழ்", Author: "கல்கி"})
	require.NoError(t, err)
	b, _ := lib.Book(ctx, id)
	assert.Equal(t, "thamizh", b.TitleTranslit)
	assert.Equal(t, "kalki", b.AuthorTranslit)

	id, err = lib.AddBook(ctx, BookInput{Title: "தமிழ்", TitleTranslit: "Tamil"})
	require.NoError(t, err)
	b, _ = lib.Book(ctx, id)
	assert.Equal(t, "Tamil", b.TitleTranslit, "explicit value kept")
}

func TestAddBook_RequiresTitle(t *testing.T) {
	lib, mem := newTestLibrary(t, nil)

	_, err := lib.AddBook(context.Background(), BookInput{Title: "  ", Author: "X"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, mem.Commits())
}

func TestAddCopies(t *testing.T) {
	ctx := context.Background()
	seed := sampleTables()
	lib, _ := newTestLibrary(t, seed)

	added, err := lib.AddCopies(ctx, "GDL-001", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"GDL-004", "GDL-005"}, added)

	for _, id := range added {
		b, _ := lib.Book(ctx, id)
		assert.Equal(t, "Ponniyin Selvan", b.Title)
		assert.Equal(t, StatusAvailable, b.Status, "copies of a LENT book start AVAILABLE")
	}

	_, err = lib.AddCopies(ctx, "GDL-001", 0)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = lib.AddCopies(ctx, "GDL-404", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateBook_PropagatesTitle(t *testing.T) {
	ctx := context.Background()
	lib, mem := newTestLibrary(t, sampleTables())

	require.NoError(t, lib.UpdateBook(ctx, "GDL-001", BookInput{Title: "Ponniyin Selvan Vol 1", Author: "Kalki"}))

	snap := mem.Snapshot()
	assert.Equal(t, StatusLent, snap.Books[0].Status, "status untouched")
	assert.Equal(t, "Ponniyin Selvan Vol 1", snap.Transactions[0].BookTitle)
	assert.Equal(t, "Ponniyin Selvan Vol 1", snap.Pending[1].BookTitle)
	assert.Equal(t, "Sivagamiyin Sabatham", snap.Transactions[1].BookTitle)

	assert.ErrorIs(t, lib.UpdateBook(ctx, "GDL-404", BookInput{Title: "x"}), ErrNotFound)
}

func TestDeleteBook_BlockedWhileOut(t *testing.T) {
	ctx := context.Background()
	lib, mem := newTestLibrary(t, sampleTables())

	_, err := lib.DeleteBook(ctx, "GDL-001")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Contains(t, err.Error(), "LENT")

	_, err = lib.DeleteBook(ctx, "GDL-002")
	assert.ErrorIs(t, err, ErrInvalidState, "pending request blocks delete")

	_, err = lib.DeleteBook(ctx, "GDL-404")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, mem.Commits())
}

func TestDeleteBook_RenumbersAndRewritesRefs(t *testing.T) {
	ctx := context.Background()
	seed := &Tables{
		Books: books("GDL-001", "GDL-002", "GDL-003", "GDL-004", "GDL-005"),
		Transactions: []Transaction{
			{TxID: "TX-1", BookID: "GDL-001", MemberID: WalkIn, Status: TxReturned},
			{TxID: "TX-2", BookID: "GDL-004", MemberID: WalkIn, Status: TxActive},
		},
		Pending: []Transaction{
			{TxID: "TX-3", BookID: "GDL-005", MemberID: WalkIn, Status: TxBorrowRequested},
			{TxID: "TX-4", BookID: "GDL-001", MemberID: WalkIn, Status: TxInterested},
		},
	}
	seed.Books[3].Status = StatusLent
	seed.Books[4].Status = StatusPending
	lib, mem := newTestLibrary(t, seed)

	moved, err := lib.DeleteBook(ctx, "GDL-001")
	require.NoError(t, err)
	assert.Len(t, moved, 4)

	snap := mem.Snapshot()
	assert.Equal(t, []string{"GDL-001", "GDL-002", "GDL-003", "GDL-004"}, ids(snap.Books, bookID))
	assert.Equal(t, "Title GDL-002", snap.Books[0].Title)
	assert.Equal(t, "", snap.Transactions[0].BookID, "history of the deleted copy is detached")
	assert.Equal(t, "GDL-003", snap.Transactions[1].BookID)
	require.Len(t, snap.Pending, 1, "interest in the deleted copy is dropped")
	assert.Equal(t, "GDL-004", snap.Pending[0].BookID)
	requireConsistent(t, snap)
}

func TestFilter_Apply(t *testing.T) {
	all := []Book{
		{ID: "GDL-001", Title: "Zebra", Author: "A", Status: StatusLent},
		{ID: "GDL-002", Title: "தமிழ்", TitleTranslit: "thamizh", Author: "B", Status: StatusAvailable},
		{ID: "GDL-003", Title: "Apple", Author: "Kalki", AuthorTranslit: "kalki", Status: StatusAvailable},
	}

	got := Filter{}.Apply(all)
	assert.Equal(t, []string{"GDL-003", "GDL-002", "GDL-001"}, ids(got, bookID), "available first, then title")

	got = Filter{Search: "THAM"}.Apply(all)
	assert.Equal(t, []string{"GDL-002"}, ids(got, bookID))

	got = Filter{Author: "kal"}.Apply(all)
	assert.Equal(t, []string{"GDL-003"}, ids(got, bookID))

	got = Filter{AvailableOnly: true, Limit: 1}.Apply(all)
	assert.Equal(t, []string{"GDL-003"}, ids(got, bookID))

	got = Filter{Search: "gdl-001"}.Apply(all)
	assert.Equal(t, []string{"GDL-001"}, ids(got, bookID))
}
