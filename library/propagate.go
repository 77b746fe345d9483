package library

import "strings"

// renumberBooks relabels the catalog densely and rewrites book_id in the
// ledger and the approval queue.
func renumberBooks(tx *Tx, seq Sequence) map[string]string {
	moved := Renumber(seq, tx.Books, bookID)
	if len(moved) == 0 {
		return moved
	}
	tx.Touch(BooksTable)
	rewriteRefs(tx, moved, txBookID)
	return moved
}

// renumberMembers relabels the directory densely and rewrites member_id in
// the ledger and the approval queue. The walk-in sentinel never matches a
// member id, so it is left alone.
func renumberMembers(tx *Tx, seq Sequence) map[string]string {
	moved := Renumber(seq, tx.Members, memberID)
	if len(moved) == 0 {
		return moved
	}
	tx.Touch(MembersTable)
	rewriteRefs(tx, moved, txMember)
	return moved
}

func rewriteRefs(tx *Tx, moved map[string]string, col func(*Transaction) *string) {
	rewrite := func(rows []Transaction, table TableSet) {
		for i := range rows {
			ref := col(&rows[i])
			if *ref == "" {
				continue
			}
			if next, ok := lookupFold(moved, *ref); ok {
				*ref = next
				tx.Touch(table)
			}
		}
	}
	rewrite(tx.Transactions, LedgerTable)
	rewrite(tx.Pending, QueueTable)
}

// lookupFold finds key in m ignoring case; rows written by hand may differ
// in case from the id they reference.
func lookupFold(m map[string]string, key string) (string, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

// detachBook drops interest in a deleted copy and blanks the book_id of its
// closed ledger rows, so a later renumbering cannot point history at a
// different copy. The denormalized title is kept.
func detachBook(tx *Tx, id string) {
	kept := tx.Pending[:0]
	for _, r := range tx.Pending {
		if strings.EqualFold(r.BookID, id) {
			tx.Touch(QueueTable)
			continue
		}
		kept = append(kept, r)
	}
	tx.Pending = kept

	for i := range tx.Transactions {
		if strings.EqualFold(tx.Transactions[i].BookID, id) {
			tx.Transactions[i].BookID = ""
			tx.Touch(LedgerTable)
		}
	}
}

// detachMember turns the remaining rows of a deleted member into walk-in
// rows. Requester name and mobile stay on the row.
func detachMember(tx *Tx, id string) {
	detach := func(rows []Transaction, table TableSet) {
		for i := range rows {
			if strings.EqualFold(rows[i].MemberID, id) {
				rows[i].MemberID = WalkIn
				tx.Touch(table)
			}
		}
	}
	detach(tx.Transactions, LedgerTable)
	detach(tx.Pending, QueueTable)
}

// propagateMember copies a member's contact details into every row that
// references it.
func propagateMember(tx *Tx, m Member) {
	apply := func(rows []Transaction, table TableSet) {
		for i := range rows {
			r := &rows[i]
			if !strings.EqualFold(r.MemberID, m.ID) {
				continue
			}
			if r.Name != m.Name || r.Mobile != m.Mobile || r.Email != m.Email {
				r.Name, r.Mobile, r.Email = m.Name, m.Mobile, m.Email
				tx.Touch(table)
			}
		}
	}
	apply(tx.Transactions, LedgerTable)
	apply(tx.Pending, QueueTable)
}

func propagateBookTitle(tx *Tx, id, title string) {
	apply := func(rows []Transaction, table TableSet) {
		for i := range rows {
			if strings.EqualFold(rows[i].BookID, id) && rows[i].BookTitle != title {
				rows[i].BookTitle = title
				tx.Touch(table)
			}
		}
	}
	apply(tx.Transactions, LedgerTable)
	apply(tx.Pending, QueueTable)
}
