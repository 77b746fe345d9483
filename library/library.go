package library

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"lending-library/translit"
)

const dateLayout = "2006-01-02"

// Library implements the catalog, directory and lending workflow on top of a
// Store. Every method is one commit unit.
type Library struct {
	store    *Store
	books    Sequence
	members  Sequence
	translit func(string) string
	now      func() time.Time
	newTxID  func(time.Time) string
}

// Option configures a Library.
type Option func(*Library)

// WithSequences overrides the book and member id sequences.
func WithSequences(books, members Sequence) Option {
	return func(l *Library) {
		l.books = books
		l.members = members
	}
}

// WithTransliterator sets the function used to fill empty transliterated
// title and author fields.
func WithTransliterator(fn func(string) string) Option {
	return func(l *Library) { l.translit = fn }
}

// WithClock sets the time source for borrow and return dates.
func WithClock(now func() time.Time) Option {
	return func(l *Library) { l.now = now }
}

// WithTxIDs sets the transaction id generator.
func WithTxIDs(fn func(time.Time) string) Option {
	return func(l *Library) { l.newTxID = fn }
}

// New creates a Library over store.
func New(store *Store, opts ...Option) *Library {
	l := &Library{
		store:    store,
		books:    BookIDs,
		members:  MemberIDs,
		translit: translit.Tamil,
		now:      time.Now,
		newTxID:  NewTxID,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Store returns the underlying store.
func (l *Library) Store() *Store { return l.store }

// NewTxID returns TX-<timestamp>-<8 hex>. The random tail keeps two requests
// filed in the same second apart.
func NewTxID(now time.Time) string {
	return fmt.Sprintf("TX-%s-%s", now.Format("20060102150405"), strings.ToUpper(uuid.NewString()[:8]))
}

func (l *Library) today() string { return l.now().Format(dateLayout) }

func findBook(t *Tables, id string) int {
	id = strings.TrimSpace(id)
	for i := range t.Books {
		if strings.EqualFold(t.Books[i].ID, id) {
			return i
		}
	}
	return -1
}

func findMember(t *Tables, id string) int {
	id = strings.TrimSpace(id)
	if id == "" {
		return -1
	}
	for i := range t.Members {
		if strings.EqualFold(t.Members[i].ID, id) {
			return i
		}
	}
	return -1
}

func findMemberByMobile(t *Tables, mobile string) int {
	for i := range t.Members {
		if SameMobile(t.Members[i].Mobile, mobile) {
			return i
		}
	}
	return -1
}

func findTx(rows []Transaction, txID string) int {
	txID = strings.TrimSpace(txID)
	for i := range rows {
		if strings.EqualFold(rows[i].TxID, txID) {
			return i
		}
	}
	return -1
}

func removeTx(rows []Transaction, i int) []Transaction {
	return append(rows[:i], rows[i+1:]...)
}

// openRef returns the open ledger or queue row claiming bookID, if any.
func openRef(t *Tables, bookID string) *Transaction {
	for _, rows := range [][]Transaction{t.Pending, t.Transactions} {
		for i := range rows {
			if rows[i].Status.Open() && strings.EqualFold(rows[i].BookID, bookID) {
				return &rows[i]
			}
		}
	}
	return nil
}

func ids[T any](rows []T, idOf func(*T) *string) []string {
	out := make([]string, len(rows))
	for i := range rows {
		out[i] = *idOf(&rows[i])
	}
	return out
}

func bookID(b *Book) *string          { return &b.ID }
func memberID(m *Member) *string      { return &m.ID }
func txBookID(t *Transaction) *string { return &t.BookID }
func txMember(t *Transaction) *string { return &t.MemberID }
