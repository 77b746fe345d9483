package library

import (
	"fmt"
	"strings"
)

// Verify checks the referential invariants of a snapshot and returns every
// violation found. A nil result means the tables are consistent.
func Verify(t *Tables) []error {
	var errs []error
	fail := func(format string, a ...any) {
		errs = append(errs, fmt.Errorf(format, a...))
	}

	books := make(map[string]Book, len(t.Books))
	for _, b := range t.Books {
		key := strings.ToUpper(b.ID)
		if _, dup := books[key]; dup {
			fail("duplicate book id %s", b.ID)
		}
		books[key] = b
	}
	members := make(map[string]bool, len(t.Members))
	mobiles := make(map[string]string, len(t.Members))
	for _, m := range t.Members {
		key := strings.ToUpper(m.ID)
		if members[key] {
			fail("duplicate member id %s", m.ID)
		}
		members[key] = true
		if m.Mobile == "" {
			continue
		}
		if other, dup := mobiles[m.Mobile]; dup {
			fail("mobile %s is shared by %s and %s", m.Mobile, other, m.ID)
		}
		mobiles[m.Mobile] = m.ID
	}

	// Open claims per book: at most one, and only on a copy that is out.
	claims := make(map[string]Transaction)
	checkRow := func(table string, r Transaction) {
		if !r.IsWalkIn() && !members[strings.ToUpper(r.MemberID)] {
			fail("%s row %s references missing member %s", table, r.TxID, r.MemberID)
		}
		if !r.Status.Open() || r.BookID == "" {
			return
		}
		key := strings.ToUpper(r.BookID)
		b, ok := books[key]
		if !ok {
			fail("%s row %s references missing book %s", table, r.TxID, r.BookID)
			return
		}
		if prev, dup := claims[key]; dup {
			fail("book %s is claimed by both %s and %s", b.ID, prev.TxID, r.TxID)
		}
		claims[key] = r
		if r.Status == TxBorrowRequested && b.Status != StatusPending {
			fail("book %s has %s request %s but is %s", b.ID, r.Status, r.TxID, b.Status)
		}
		if (r.Status == TxActive || r.Status == TxReturnRequested) && b.Status != StatusLent {
			fail("book %s has %s transaction %s but is %s", b.ID, r.Status, r.TxID, b.Status)
		}
	}
	for _, r := range t.Transactions {
		checkRow(transactionsName, r)
	}
	for _, r := range t.Pending {
		checkRow(pendingName, r)
	}

	for _, b := range t.Books {
		if b.Status == StatusAvailable {
			continue
		}
		if _, ok := claims[strings.ToUpper(b.ID)]; !ok {
			fail("book %s is %s without an open transaction", b.ID, b.Status)
		}
	}
	return errs
}
