package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
)

// Logger is the structured logger the manager reports operations to.
// *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Result is what a mutating operation reports to its caller. Domain failures
// are OK=false with a message; they are never returned as errors.
type Result struct {
	OK       bool              `json:"ok"`
	Message  string            `json:"message"`
	ID       string            `json:"id,omitempty"`
	IDs      []string          `json:"ids,omitempty"`
	MemberID string            `json:"member_id,omitempty"`
	Moved    map[string]string `json:"moved,omitempty"`
}

// LibraryManager is a thin façade over the Library, keeping CLI code simple.
type LibraryManager struct {
	lib *Library
	log Logger
}

// Store drivers accepted by OpenBackend.
const (
	DriverSQLite = "sqlite"
	DriverYAML   = "yaml"
)

// OpenBackend opens the backend named by driver at path.
func OpenBackend(driver, path string) (Backend, error) {
	switch strings.ToLower(driver) {
	case "", DriverSQLite:
		return NewDatabase(path)
	case DriverYAML:
		return NewYAMLStore(path)
	}
	return nil, fmt.Errorf("unknown store driver %q", driver)
}

// NewLibraryManager opens (or creates) the SQLite database at dbPath.
func NewLibraryManager(dbPath string) (*LibraryManager, error) {
	db, err := NewDatabase(filepath.Clean(dbPath))
	if err != nil {
		return nil, err
	}
	return NewManager(db, nil), nil
}

// NewManager wraps an open backend. A nil logger discards log output.
func NewManager(b Backend, log Logger, opts ...Option) *LibraryManager {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LibraryManager{lib: New(NewStore(b), opts...), log: log}
}

// Close closes the underlying backend.
func (lm *LibraryManager) Close() error { return lm.lib.Store().Close() }

// Library exposes the engine behind the façade.
func (lm *LibraryManager) Library() *Library { return lm.lib }

// finish turns an operation's error into a Result. Only persistence
// failures escape as errors.
func (lm *LibraryManager) finish(op string, res Result, err error, attrs ...any) (Result, error) {
	if err == nil {
		res.OK = true
		lm.log.Info(op, attrs...)
		return res, nil
	}
	res = Result{Message: Message(err)}
	attrs = append(attrs, "error", res.Message)
	if errors.Is(err, ErrPersistence) {
		lm.log.Error(op, attrs...)
		return res, err
	}
	lm.log.Warn(op, attrs...)
	return res, nil
}

// ------------------ Catalog ------------------

func (lm *LibraryManager) AddBook(ctx context.Context, in BookInput) (Result, error) {
	id, err := lm.lib.AddBook(ctx, in)
	return lm.finish("add book", Result{ID: id, Message: fmt.Sprintf("added book %s", id)}, err,
		"book", id, "title", in.Title)
}

func (lm *LibraryManager) AddCopies(ctx context.Context, sourceID string, count int) (Result, error) {
	added, err := lm.lib.AddCopies(ctx, sourceID, count)
	msg := fmt.Sprintf("added %d copies of %s: %s", len(added), sourceID, strings.Join(added, ", "))
	return lm.finish("add copies", Result{IDs: added, Message: msg}, err,
		"source", sourceID, "count", count)
}

func (lm *LibraryManager) UpdateBook(ctx context.Context, id string, in BookInput) (Result, error) {
	err := lm.lib.UpdateBook(ctx, id, in)
	return lm.finish("update book", Result{ID: id, Message: fmt.Sprintf("updated book %s", id)}, err,
		"book", id)
}

func (lm *LibraryManager) DeleteBook(ctx context.Context, id string) (Result, error) {
	moved, err := lm.lib.DeleteBook(ctx, id)
	msg := fmt.Sprintf("deleted book %s", id)
	if len(moved) > 0 {
		msg += fmt.Sprintf(", renumbered %d books", len(moved))
	}
	return lm.finish("delete book", Result{ID: id, Moved: moved, Message: msg}, err,
		"book", id, "renumbered", len(moved))
}

func (lm *LibraryManager) Book(ctx context.Context, id string) (*Book, error) {
	return lm.lib.Book(ctx, id)
}

func (lm *LibraryManager) Books(ctx context.Context, f Filter) ([]Book, error) {
	return lm.lib.Books(ctx, f)
}

// ------------------ Directory ------------------

func (lm *LibraryManager) RegisterMember(ctx context.Context, in MemberInput) (Result, error) {
	id, err := lm.lib.RegisterMember(ctx, in)
	return lm.finish("register member", Result{ID: id, Message: fmt.Sprintf("registered member %s", id)}, err,
		"member", id)
}

func (lm *LibraryManager) UpdateMember(ctx context.Context, id string, in MemberInput) (Result, error) {
	err := lm.lib.UpdateMember(ctx, id, in)
	return lm.finish("update member", Result{ID: id, Message: fmt.Sprintf("updated member %s", id)}, err,
		"member", id)
}

func (lm *LibraryManager) DeleteMember(ctx context.Context, id string) (Result, error) {
	moved, err := lm.lib.DeleteMember(ctx, id)
	msg := fmt.Sprintf("deleted member %s", id)
	if len(moved) > 0 {
		msg += fmt.Sprintf(", renumbered %d members", len(moved))
	}
	return lm.finish("delete member", Result{ID: id, Moved: moved, Message: msg}, err,
		"member", id, "renumbered", len(moved))
}

func (lm *LibraryManager) ResolveByID(ctx context.Context, id string) (*Member, error) {
	return lm.lib.ResolveByID(ctx, id)
}

func (lm *LibraryManager) ResolveByMobile(ctx context.Context, mobile string) (*Member, error) {
	return lm.lib.ResolveByMobile(ctx, mobile)
}

func (lm *LibraryManager) Members(ctx context.Context) ([]Member, error) {
	return lm.lib.Members(ctx)
}

// ------------------ Lending ------------------

func (lm *LibraryManager) LendRequest(ctx context.Context, in LendInput) (Result, error) {
	res, err := lm.lib.LendRequest(ctx, in)
	msg := fmt.Sprintf("lend request %s filed for book %s (member %s, by %s)", res.TxID, in.BookID, res.MemberID, res.Resolution)
	return lm.finish("lend request", Result{ID: res.TxID, MemberID: res.MemberID, Message: msg}, err,
		"book", in.BookID, "tx", res.TxID, "member", res.MemberID)
}

func (lm *LibraryManager) ExpressInterest(ctx context.Context, in InterestInput) (Result, error) {
	txID, err := lm.lib.ExpressInterest(ctx, in)
	msg := fmt.Sprintf("interest %s recorded for book %s", txID, in.BookID)
	return lm.finish("express interest", Result{ID: txID, Message: msg}, err,
		"book", in.BookID, "tx", txID)
}

func (lm *LibraryManager) ApproveLend(ctx context.Context, txID string) (Result, error) {
	err := lm.lib.ApproveLend(ctx, txID)
	return lm.finish("approve lend", Result{ID: txID, Message: fmt.Sprintf("approved lend %s", txID)}, err,
		"tx", txID)
}

func (lm *LibraryManager) RejectLend(ctx context.Context, txID string) (Result, error) {
	err := lm.lib.RejectLend(ctx, txID)
	return lm.finish("reject lend", Result{ID: txID, Message: fmt.Sprintf("rejected request %s", txID)}, err,
		"tx", txID)
}

func (lm *LibraryManager) RequestReturn(ctx context.Context, bookID, mobile string) (Result, error) {
	txID, err := lm.lib.RequestReturn(ctx, bookID, mobile)
	msg := fmt.Sprintf("return requested for book %s (%s)", bookID, txID)
	return lm.finish("request return", Result{ID: txID, Message: msg}, err,
		"book", bookID, "tx", txID)
}

func (lm *LibraryManager) ApproveReturn(ctx context.Context, txID string) (Result, error) {
	err := lm.lib.ApproveReturn(ctx, txID)
	return lm.finish("approve return", Result{ID: txID, Message: fmt.Sprintf("approved return %s", txID)}, err,
		"tx", txID)
}

func (lm *LibraryManager) LinkMobile(ctx context.Context, txID, mobile string) (Result, error) {
	err := lm.lib.LinkMobile(ctx, txID, mobile)
	msg := fmt.Sprintf("linked mobile %s to %s", NormalizeMobile(mobile), txID)
	return lm.finish("link mobile", Result{ID: txID, Message: msg}, err, "tx", txID)
}

func (lm *LibraryManager) History(ctx context.Context, identifier string) ([]Transaction, error) {
	return lm.lib.History(ctx, identifier)
}

func (lm *LibraryManager) Queue(ctx context.Context) (Queue, error) {
	return lm.lib.Queue(ctx)
}

func (lm *LibraryManager) Transactions(ctx context.Context, states ...TxStatus) ([]Transaction, error) {
	return lm.lib.Transactions(ctx, states...)
}

func (lm *LibraryManager) Stats(ctx context.Context) (Stats, error) {
	return lm.lib.Stats(ctx)
}

// ------------------ Maintenance ------------------

// Verify loads the tables and returns every invariant violation.
func (lm *LibraryManager) Verify(ctx context.Context) ([]error, error) {
	var problems []error
	err := lm.lib.Store().View(ctx, func(t *Tables) error {
		problems = Verify(t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, p := range problems {
		lm.log.Warn("invariant violated", "problem", p.Error())
	}
	return problems, nil
}

func (lm *LibraryManager) Backup(ctx context.Context, dest string) (Result, error) {
	err := lm.lib.Store().Backup(ctx, dest)
	return lm.finish("backup", Result{Message: fmt.Sprintf("backup written to %s", dest)}, err,
		"dest", dest)
}

// ------------------ Utilities ------------------

// PrettyBook formats a book for lists.
func PrettyBook(b Book) string {
	return fmt.Sprintf("%-8s %-30s %-25s %-10s", b.ID, truncate(b.Title, 30), truncate(b.Author, 25), b.Status)
}

// PrettyTx formats a ledger or queue row for lists.
func PrettyTx(r Transaction) string {
	return fmt.Sprintf("%-30s %-8s %-25s %-10s %-16s %s", r.TxID, r.BookID, truncate(r.BookTitle, 25), r.MemberID, r.Status, r.BorrowDate)
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	if n <= 3 {
		return string(rs[:n])
	}
	return string(rs[:n-3]) + "..."
}
