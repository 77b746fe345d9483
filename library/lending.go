package library

import (
	"context"
	"strings"
)

// LendInput is a request to borrow one copy.
type LendInput struct {
	BookID   string
	Name     string
	Mobile   string
	Email    string
	MemberID string // optional; tried before the mobile lookup
}

// Resolution tells how a lend request was linked to a member.
type Resolution int

const (
	ResolvedByID Resolution = iota + 1
	ResolvedByMobile
	Registered
)

func (r Resolution) String() string {
	switch r {
	case ResolvedByID:
		return "member id"
	case ResolvedByMobile:
		return "mobile"
	case Registered:
		return "new registration"
	}
	return "unknown"
}

// LendResult describes a filed lend request.
type LendResult struct {
	TxID       string
	MemberID   string
	Resolution Resolution
}

// memberResolver is one step of the member lookup. ok=false defers to the
// next step.
type memberResolver func(l *Library, tx *Tx, in LendInput) (id string, ok bool, err error)

// memberResolution is tried in order; the last step always succeeds or fails.
var memberResolution = []struct {
	tag     Resolution
	resolve memberResolver
}{
	{ResolvedByID, resolveByMemberID},
	{ResolvedByMobile, resolveByMobile},
	{Registered, resolveByRegistration},
}

func resolveByMemberID(l *Library, tx *Tx, in LendInput) (string, bool, error) {
	if strings.TrimSpace(in.MemberID) == "" {
		return "", false, nil
	}
	i := findMember(tx.Tables, in.MemberID)
	if i < 0 {
		return "", false, notFound("member %s not found", in.MemberID)
	}
	m := tx.Members[i]
	email := strings.TrimSpace(in.Email)
	if email == "" {
		email = m.Email
	}
	if !SameMobile(m.Mobile, in.Mobile) || email != m.Email {
		if err := l.updateMember(tx, m.ID, MemberInput{Name: m.Name, Mobile: in.Mobile, Email: email}); err != nil {
			return "", false, err
		}
	}
	return m.ID, true, nil
}

func resolveByMobile(_ *Library, tx *Tx, in LendInput) (string, bool, error) {
	if i := findMemberByMobile(tx.Tables, in.Mobile); i >= 0 {
		return tx.Members[i].ID, true, nil
	}
	return "", false, nil
}

func resolveByRegistration(l *Library, tx *Tx, in LendInput) (string, bool, error) {
	id, err := l.registerMember(tx, MemberInput{Name: in.Name, Mobile: in.Mobile, Email: in.Email})
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

// LendRequest files a borrow request for an AVAILABLE copy and puts the copy
// on hold (PENDING) until an admin approves or rejects it.
func (l *Library) LendRequest(ctx context.Context, in LendInput) (LendResult, error) {
	if strings.TrimSpace(in.Name) == "" {
		return LendResult{}, validation("name is required")
	}
	if err := ValidateMobile(in.Mobile); err != nil {
		return LendResult{}, err
	}

	var res LendResult
	err := l.store.Update(ctx, func(tx *Tx) error {
		bi := findBook(tx.Tables, in.BookID)
		if bi < 0 {
			return notFound("book %s not found", in.BookID)
		}
		book := tx.Books[bi]
		if book.Status != StatusAvailable {
			return invalidState("book %s is currently %s", book.ID, book.Status)
		}
		if ref := openRef(tx.Tables, book.ID); ref != nil {
			return invalidState("book %s already has %s transaction %s", book.ID, ref.Status, ref.TxID)
		}

		for _, step := range memberResolution {
			id, ok, err := step.resolve(l, tx, in)
			if err != nil {
				return err
			}
			if ok {
				res.MemberID, res.Resolution = id, step.tag
				break
			}
		}

		now := l.now()
		row := Transaction{
			TxID:       l.newTxID(now),
			BookID:     book.ID,
			BookTitle:  book.Title,
			MemberID:   res.MemberID,
			Name:       strings.TrimSpace(in.Name),
			Mobile:     NormalizeMobile(in.Mobile),
			Email:      strings.TrimSpace(in.Email),
			BorrowDate: now.Format(dateLayout),
			Status:     TxBorrowRequested,
		}
		tx.Books[bi].Status = StatusPending
		tx.Pending = append(tx.Pending, row)
		tx.Touch(BooksTable | QueueTable)
		res.TxID = row.TxID
		return nil
	})
	if err != nil {
		return LendResult{}, err
	}
	return res, nil
}

// InterestInput records that someone wants a copy that is out.
type InterestInput struct {
	BookID    string
	BookTitle string
	Name      string
	Mobile    string
	Email     string
}

// ExpressInterest queues an INTERESTED marker. It never touches the book's
// status and never blocks other requests. The row is linked to an existing
// member when the mobile is known, otherwise it is a walk-in.
func (l *Library) ExpressInterest(ctx context.Context, in InterestInput) (string, error) {
	var txID string
	err := l.store.Update(ctx, func(tx *Tx) error {
		title := strings.TrimSpace(in.BookTitle)
		bookID := strings.TrimSpace(in.BookID)
		if i := findBook(tx.Tables, bookID); i >= 0 {
			bookID = tx.Books[i].ID
			if title == "" {
				title = tx.Books[i].Title
			}
		}
		member := WalkIn
		if i := findMemberByMobile(tx.Tables, in.Mobile); i >= 0 {
			member = tx.Members[i].ID
		}

		now := l.now()
		row := Transaction{
			TxID:       l.newTxID(now),
			BookID:     bookID,
			BookTitle:  title,
			MemberID:   member,
			Name:       strings.TrimSpace(in.Name),
			Mobile:     NormalizeMobile(in.Mobile),
			Email:      strings.TrimSpace(in.Email),
			BorrowDate: now.Format(dateLayout),
			Status:     TxInterested,
		}
		tx.Pending = append(tx.Pending, row)
		tx.Touch(QueueTable)
		txID = row.TxID
		return nil
	})
	return txID, err
}

// ApproveLend turns a BORROW_REQUESTED row into an ACTIVE ledger entry and
// marks the copy LENT.
func (l *Library) ApproveLend(ctx context.Context, txID string) error {
	return l.store.Update(ctx, func(tx *Tx) error {
		i := findTx(tx.Pending, txID)
		if i < 0 {
			return notFound("lend request %s not found", txID)
		}
		row := tx.Pending[i]
		if row.Status != TxBorrowRequested {
			return invalidState("request %s is %s, not %s", row.TxID, row.Status, TxBorrowRequested)
		}
		bi := findBook(tx.Tables, row.BookID)
		if bi < 0 {
			return notFound("book %s of request %s not found", row.BookID, row.TxID)
		}
		if tx.Books[bi].Status == StatusLent {
			return invalidState("book %s is currently %s", tx.Books[bi].ID, StatusLent)
		}

		tx.Books[bi].Status = StatusLent
		row.Status = TxActive
		tx.Transactions = append(tx.Transactions, row)
		tx.Pending = removeTx(tx.Pending, i)
		tx.Touch(BooksTable | LedgerTable | QueueTable)
		return nil
	})
}

// RejectLend drops a request from the approval queue. Rejecting a borrow
// request releases the copy; rejecting an interest only dismisses it.
func (l *Library) RejectLend(ctx context.Context, txID string) error {
	return l.store.Update(ctx, func(tx *Tx) error {
		i := findTx(tx.Pending, txID)
		if i < 0 {
			return notFound("lend request %s not found", txID)
		}
		row := tx.Pending[i]
		if row.Status == TxBorrowRequested {
			if bi := findBook(tx.Tables, row.BookID); bi >= 0 && tx.Books[bi].Status == StatusPending {
				tx.Books[bi].Status = StatusAvailable
				tx.Touch(BooksTable)
			}
		}
		tx.Pending = removeTx(tx.Pending, i)
		tx.Touch(QueueTable)
		return nil
	})
}

// RequestReturn flags the ACTIVE loan of bookID held under mobile as
// RETURN_REQUESTED and returns its transaction id.
func (l *Library) RequestReturn(ctx context.Context, bookID, mobile string) (string, error) {
	var txID string
	err := l.store.Update(ctx, func(tx *Tx) error {
		for i := range tx.Transactions {
			r := &tx.Transactions[i]
			if r.Status != TxActive || !strings.EqualFold(r.BookID, strings.TrimSpace(bookID)) {
				continue
			}
			if SameMobile(r.Mobile, mobile) {
				r.Status = TxReturnRequested
				tx.Touch(LedgerTable)
				txID = r.TxID
				return nil
			}
		}
		return notFound("no active transaction for book %s and mobile %s", bookID, NormalizeMobile(mobile))
	})
	return txID, err
}

// ApproveReturn closes a loan and makes the copy AVAILABLE again. Loans that
// were never flagged by the borrower can be closed directly at the desk.
func (l *Library) ApproveReturn(ctx context.Context, txID string) error {
	return l.store.Update(ctx, func(tx *Tx) error {
		i := findTx(tx.Transactions, txID)
		if i < 0 {
			return notFound("transaction %s not found", txID)
		}
		r := &tx.Transactions[i]
		if r.Status == TxReturned {
			return invalidState("transaction %s is already %s", r.TxID, r.Status)
		}
		r.Status = TxReturned
		r.ReturnDate = l.today()
		tx.Touch(LedgerTable)
		if bi := findBook(tx.Tables, r.BookID); bi >= 0 {
			tx.Books[bi].Status = StatusAvailable
			tx.Touch(BooksTable)
		}
		return nil
	})
}

// LinkMobile stores a mobile on a ledger row, so legacy loans recorded
// without one show up in the borrower's history.
func (l *Library) LinkMobile(ctx context.Context, txID, mobile string) error {
	if err := ValidateMobile(mobile); err != nil {
		return err
	}
	return l.store.Update(ctx, func(tx *Tx) error {
		i := findTx(tx.Transactions, txID)
		if i < 0 {
			return notFound("transaction %s not found", txID)
		}
		tx.Transactions[i].Mobile = NormalizeMobile(mobile)
		tx.Touch(LedgerTable)
		return nil
	})
}

// History returns the open loans and pending borrow requests of a borrower.
// identifier is either a mobile number or a member id.
func (l *Library) History(ctx context.Context, identifier string) ([]Transaction, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, nil
	}
	matches := func(r Transaction) bool {
		if SameMobile(r.Mobile, identifier) {
			return true
		}
		return !r.IsWalkIn() && strings.EqualFold(r.MemberID, identifier)
	}

	var out []Transaction
	err := l.store.View(ctx, func(t *Tables) error {
		for _, r := range t.Transactions {
			if (r.Status == TxActive || r.Status == TxReturnRequested) && matches(r) {
				out = append(out, r)
			}
		}
		for _, r := range t.Pending {
			if r.Status == TxBorrowRequested && matches(r) {
				out = append(out, r)
			}
		}
		return nil
	})
	return out, err
}

// Queue is the admin's view of everything awaiting action.
type Queue struct {
	Lends     []Transaction // BORROW_REQUESTED
	Interests []Transaction // INTERESTED
	Returns   []Transaction // RETURN_REQUESTED
}

// Queue lists pending lend requests, interests and return requests.
func (l *Library) Queue(ctx context.Context) (Queue, error) {
	var q Queue
	err := l.store.View(ctx, func(t *Tables) error {
		for _, r := range t.Pending {
			switch r.Status {
			case TxBorrowRequested:
				q.Lends = append(q.Lends, r)
			case TxInterested:
				q.Interests = append(q.Interests, r)
			}
		}
		for _, r := range t.Transactions {
			if r.Status == TxReturnRequested {
				q.Returns = append(q.Returns, r)
			}
		}
		return nil
	})
	return q, err
}

// Transactions lists the ledger, optionally restricted to some states.
func (l *Library) Transactions(ctx context.Context, states ...TxStatus) ([]Transaction, error) {
	var out []Transaction
	err := l.store.View(ctx, func(t *Tables) error {
		for _, r := range t.Transactions {
			if len(states) == 0 || hasStatus(states, r.Status) {
				out = append(out, r)
			}
		}
		return nil
	})
	return out, err
}

func hasStatus(states []TxStatus, s TxStatus) bool {
	for _, v := range states {
		if v == s {
			return true
		}
	}
	return false
}

// Stats are the dashboard counters.
type Stats struct {
	Books          int `json:"books"`
	Available      int `json:"available"`
	Members        int `json:"members"`
	ActiveLoans    int `json:"active_loans"`
	PendingActions int `json:"pending_actions"`
}

// Stats counts books, members, active loans and items awaiting an admin.
func (l *Library) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := l.store.View(ctx, func(t *Tables) error {
		s.Books = len(t.Books)
		s.Members = len(t.Members)
		for _, b := range t.Books {
			if b.Status == StatusAvailable {
				s.Available++
			}
		}
		s.PendingActions = len(t.Pending)
		for _, r := range t.Transactions {
			switch r.Status {
			case TxActive:
				s.ActiveLoans++
			case TxReturnRequested:
				s.PendingActions++
			}
		}
		return nil
	})
	return s, err
}
