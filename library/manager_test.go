package library

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) *LibraryManager {
	dir := t.TempDir()
	mgr, err := NewLibraryManager(filepath.Join(dir, "lib.db"))
	if err != nil {
		t.Fatalf("mgr: %v", err)
	}
	t.Cleanup(func() { mgr.Close() })
	return mgr
}

func TestManager_ResultsNeverErrorForDomainFailures(t *testing.T) {
	ctx := context.Background()
	mgr := newManager(t)

	res, err := mgr.AddBook(ctx, BookInput{Title: "Ponniyin Selvan", Author: "Kalki"})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, "GDL-001", res.ID)

	res, err = mgr.LendRequest(ctx, LendInput{BookID: "GDL-001", Name: "Asha", Mobile: "9876543210"})
	require.NoError(t, err)
	require.True(t, res.OK, res.Message)
	assert.Equal(t, "MEM-001", res.MemberID)
	txID := res.ID

	res, err = mgr.DeleteBook(ctx, "GDL-001")
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Contains(t, res.Message, "GDL-001")

	res, err = mgr.LendRequest(ctx, LendInput{BookID: "GDL-001", Name: "Bala", Mobile: "9123456780"})
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, "book GDL-001 is currently PENDING", res.Message)

	res, err = mgr.RegisterMember(ctx, MemberInput{Name: "Asha", Mobile: "9876543210"})
	require.NoError(t, err)
	assert.False(t, res.OK)

	res, err = mgr.ApproveLend(ctx, txID)
	require.NoError(t, err)
	assert.True(t, res.OK)

	hist, err := mgr.History(ctx, "MEM-001")
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, TxActive, hist[0].Status)

	problems, err := mgr.Verify(ctx)
	require.NoError(t, err)
	assert.Empty(t, problems)
}

func TestManager_PersistenceErrorEscapes(t *testing.T) {
	ctx := context.Background()
	fb := &failingBackend{MemoryBackend: NewMemoryBackend(nil), failCommit: true}
	var logs bytes.Buffer
	mgr := NewManager(fb, slog.New(slog.NewTextHandler(&logs, nil)))

	res, err := mgr.AddBook(ctx, BookInput{Title: "Lost"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.False(t, res.OK)
	assert.Contains(t, logs.String(), "level=ERROR")
	assert.Contains(t, logs.String(), "add book")
}

func TestManager_LogsDomainFailuresAsWarnings(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer
	mgr := NewManager(NewMemoryBackend(nil), slog.New(slog.NewTextHandler(&logs, nil)))

	res, err := mgr.ApproveLend(ctx, "TX-404")
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, "lend request TX-404 not found", res.Message)
	assert.Contains(t, logs.String(), "level=WARN")
}

func TestManager_DeleteReportsRenumbering(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(NewMemoryBackend(&Tables{Books: books("GDL-001", "GDL-002", "GDL-003")}), nil)

	res, err := mgr.DeleteBook(ctx, "GDL-002")
	require.NoError(t, err)
	require.True(t, res.OK)
	assert.Equal(t, map[string]string{"GDL-003": "GDL-002"}, res.Moved)
	assert.Equal(t, "deleted book GDL-002, renumbered 1 books", res.Message)
}

func TestManager_CustomSequences(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(NewMemoryBackend(nil), nil,
		WithSequences(Sequence{Prefix: "BK", Width: 4}, Sequence{Prefix: "M", Width: 2}),
		WithClock(func() time.Time { return testNow }),
	)

	res, err := mgr.AddBook(ctx, BookInput{Title: "One"})
	require.NoError(t, err)
	assert.Equal(t, "BK-0001", res.ID)

	res, err = mgr.RegisterMember(ctx, MemberInput{Name: "A", Mobile: "9000000001"})
	require.NoError(t, err)
	assert.Equal(t, "M-01", res.ID)

	res, err = mgr.AddCopies(ctx, "BK-0001", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"BK-0002", "BK-0003"}, res.IDs)
}

func TestManager_YAMLDriver(t *testing.T) {
	ctx := context.Background()
	b, err := OpenBackend(DriverYAML, filepath.Join(t.TempDir(), "tables"))
	require.NoError(t, err)
	mgr := NewManager(b, nil)
	defer mgr.Close()

	res, err := mgr.AddBook(ctx, BookInput{Title: "One"})
	require.NoError(t, err)
	assert.True(t, res.OK)

	res, err = mgr.Backup(ctx, filepath.Join(t.TempDir(), "copy"))
	require.NoError(t, err)
	assert.True(t, res.OK)

	_, err = OpenBackend("postgres", "x")
	assert.Error(t, err)
}

func TestNewTxID(t *testing.T) {
	id := NewTxID(testNow)
	assert.Regexp(t, `^TX-20240315103000-[0-9A-F]{8}$`, id)
	assert.NotEqual(t, id, NewTxID(testNow))
}

func TestPrettyBook(t *testing.T) {
	line := PrettyBook(Book{ID: "GDL-001", Title: "A very long title that will not fit here", Author: "Kalki", Status: StatusLent})
	assert.Equal(t, "GDL-001  A very long title that will... Kalki                     LENT      ", line)
}
