package library

import "strings"

// BookStatus is the availability of a single physical copy.
type BookStatus string

const (
	StatusAvailable BookStatus = "AVAILABLE"
	StatusPending   BookStatus = "PENDING"
	StatusLent      BookStatus = "LENT"

	// legacyBorrowed is how older tables spelled LENT.
	legacyBorrowed BookStatus = "BORROWED"
)

// TxStatus is the lifecycle state of a ledger or approval-queue row.
type TxStatus string

const (
	// Approval queue states.
	TxBorrowRequested TxStatus = "BORROW_REQUESTED"
	TxInterested      TxStatus = "INTERESTED"

	// Ledger states.
	TxActive          TxStatus = "ACTIVE"
	TxReturnRequested TxStatus = "RETURN_REQUESTED"
	TxReturned        TxStatus = "RETURNED"
)

// Open reports whether a row in this state holds a claim on its book.
func (s TxStatus) Open() bool {
	switch s {
	case TxBorrowRequested, TxActive, TxReturnRequested:
		return true
	}
	return false
}

// Member roles.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// WalkIn is the member reference of a request that is not linked to a member.
const WalkIn = "WALK-IN"

// Book is one physical copy in the catalog.
type Book struct {
	ID             string     `db:"id" yaml:"id" json:"id"`
	Title          string     `db:"title" yaml:"title" json:"title"`
	Author         string     `db:"author" yaml:"author" json:"author"`
	Donor          string     `db:"donor" yaml:"donor" json:"donor"`
	TitleTranslit  string     `db:"title_translit" yaml:"title_translit" json:"title_translit"`
	AuthorTranslit string     `db:"author_translit" yaml:"author_translit" json:"author_translit"`
	Status         BookStatus `db:"status" yaml:"status" json:"status"`
}

// Member is a registered library member.
type Member struct {
	ID     string `db:"id" yaml:"id" json:"id"`
	Name   string `db:"name" yaml:"name" json:"name"`
	Mobile string `db:"mobile" yaml:"mobile" json:"mobile"`
	Email  string `db:"email" yaml:"email" json:"email"`
	Role   string `db:"role" yaml:"role" json:"role"`
}

// Transaction is a row of the ledger or of the approval queue; both tables
// share this shape. ReturnDate is empty until the copy comes back.
type Transaction struct {
	TxID       string   `db:"tx_id" yaml:"tx_id" json:"tx_id"`
	BookID     string   `db:"book_id" yaml:"book_id" json:"book_id"`
	BookTitle  string   `db:"book_title" yaml:"book_title" json:"book_title"`
	MemberID   string   `db:"member_id" yaml:"member_id" json:"member_id"`
	Name       string   `db:"name" yaml:"name" json:"name"`
	Mobile     string   `db:"mobile" yaml:"mobile" json:"mobile"`
	Email      string   `db:"email" yaml:"email" json:"email"`
	BorrowDate string   `db:"borrow_date" yaml:"borrow_date" json:"borrow_date"`
	ReturnDate string   `db:"return_date" yaml:"return_date" json:"return_date"`
	Status     TxStatus `db:"status" yaml:"status" json:"status"`
}

// IsWalkIn reports whether the row is not linked to a member.
func (t Transaction) IsWalkIn() bool {
	return t.MemberID == "" || strings.EqualFold(t.MemberID, WalkIn)
}

// Tables is a full in-memory snapshot of the four persisted relations.
type Tables struct {
	Books        []Book
	Members      []Member
	Transactions []Transaction // ledger
	Pending      []Transaction // approval queue
}

// Clone returns a deep copy; the row types hold no references.
func (t *Tables) Clone() *Tables {
	return &Tables{
		Books:        append([]Book(nil), t.Books...),
		Members:      append([]Member(nil), t.Members...),
		Transactions: append([]Transaction(nil), t.Transactions...),
		Pending:      append([]Transaction(nil), t.Pending...),
	}
}

// canonicalize repairs values written by older versions or by hand: legacy
// status spellings, blank statuses and non-canonical mobiles.
func (t *Tables) canonicalize() {
	for i := range t.Books {
		b := &t.Books[i]
		switch BookStatus(strings.ToUpper(strings.TrimSpace(string(b.Status)))) {
		case legacyBorrowed, StatusLent:
			b.Status = StatusLent
		case StatusPending:
			b.Status = StatusPending
		default:
			b.Status = StatusAvailable
		}
	}
	for i := range t.Members {
		m := &t.Members[i]
		m.Mobile = NormalizeMobile(m.Mobile)
		if m.Role == "" {
			m.Role = RoleUser
		}
	}
	for _, rows := range [][]Transaction{t.Transactions, t.Pending} {
		for i := range rows {
			rows[i].Mobile = NormalizeMobile(rows[i].Mobile)
			if rows[i].MemberID == "" {
				rows[i].MemberID = WalkIn
			}
		}
	}
}
