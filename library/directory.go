package library

import (
	"context"
	"strings"
)

// MemberInput carries the editable fields of a member.
type MemberInput struct {
	Name   string
	Mobile string
	Email  string
}

func (in MemberInput) validate() (MemberInput, error) {
	out := MemberInput{
		Name:   strings.TrimSpace(in.Name),
		Mobile: NormalizeMobile(in.Mobile),
		Email:  strings.TrimSpace(in.Email),
	}
	if out.Name == "" {
		return out, validation("member name is required")
	}
	if err := ValidateMobile(in.Mobile); err != nil {
		return out, err
	}
	return out, nil
}

// ResolveByID returns the member with the given id (case-insensitive), or
// nil.
func (l *Library) ResolveByID(ctx context.Context, id string) (*Member, error) {
	var out *Member
	err := l.store.View(ctx, func(t *Tables) error {
		if i := findMember(t, id); i >= 0 {
			m := t.Members[i]
			out = &m
		}
		return nil
	})
	return out, err
}

// ResolveByMobile returns the member whose canonical mobile equals mobile,
// or nil.
func (l *Library) ResolveByMobile(ctx context.Context, mobile string) (*Member, error) {
	var out *Member
	err := l.store.View(ctx, func(t *Tables) error {
		if i := findMemberByMobile(t, mobile); i >= 0 {
			m := t.Members[i]
			out = &m
		}
		return nil
	})
	return out, err
}

// Members lists the directory in stored order.
func (l *Library) Members(ctx context.Context) ([]Member, error) {
	var out []Member
	err := l.store.View(ctx, func(t *Tables) error {
		out = append(out, t.Members...)
		return nil
	})
	return out, err
}

// RegisterMember adds a USER member under the next member id.
func (l *Library) RegisterMember(ctx context.Context, in MemberInput) (string, error) {
	var id string
	err := l.store.Update(ctx, func(tx *Tx) error {
		var err error
		id, err = l.registerMember(tx, in)
		return err
	})
	return id, err
}

func (l *Library) registerMember(tx *Tx, in MemberInput) (string, error) {
	in, err := in.validate()
	if err != nil {
		return "", err
	}
	if i := findMemberByMobile(tx.Tables, in.Mobile); i >= 0 {
		return "", conflict("mobile %s is already registered to member %s", in.Mobile, tx.Members[i].ID)
	}
	m := Member{
		ID:     l.members.Next(ids(tx.Members, memberID)),
		Name:   in.Name,
		Mobile: in.Mobile,
		Email:  in.Email,
		Role:   RoleUser,
	}
	tx.Members = append(tx.Members, m)
	tx.Touch(MembersTable)
	return m.ID, nil
}

// UpdateMember overwrites a member's contact details and copies them into
// every ledger and approval-queue row linked to the member.
func (l *Library) UpdateMember(ctx context.Context, id string, in MemberInput) error {
	return l.store.Update(ctx, func(tx *Tx) error {
		return l.updateMember(tx, id, in)
	})
}

func (l *Library) updateMember(tx *Tx, id string, in MemberInput) error {
	i := findMember(tx.Tables, id)
	if i < 0 {
		return notFound("member %s not found", id)
	}
	in, err := in.validate()
	if err != nil {
		return err
	}
	if j := findMemberByMobile(tx.Tables, in.Mobile); j >= 0 && j != i {
		return conflict("mobile %s is already registered to member %s", in.Mobile, tx.Members[j].ID)
	}

	m := &tx.Members[i]
	if m.Name != in.Name || m.Mobile != in.Mobile || m.Email != in.Email {
		m.Name, m.Mobile, m.Email = in.Name, in.Mobile, in.Email
		tx.Touch(MembersTable)
	}
	propagateMember(tx, *m)
	return nil
}

// DeleteMember removes a member with no open loan and no pending request,
// then renumbers the directory. The returned map holds the ids that moved.
func (l *Library) DeleteMember(ctx context.Context, id string) (map[string]string, error) {
	var moved map[string]string
	err := l.store.Update(ctx, func(tx *Tx) error {
		i := findMember(tx.Tables, id)
		if i < 0 {
			return notFound("member %s not found", id)
		}
		m := tx.Members[i]
		for _, r := range tx.Transactions {
			if strings.EqualFold(r.MemberID, m.ID) && (r.Status == TxActive || r.Status == TxReturnRequested) {
				return invalidState("member %s has %s transaction %s for book %s", m.ID, r.Status, r.TxID, r.BookID)
			}
		}
		for _, r := range tx.Pending {
			if strings.EqualFold(r.MemberID, m.ID) {
				return invalidState("member %s has %s request %s for book %s", m.ID, r.Status, r.TxID, r.BookID)
			}
		}

		tx.Members = append(tx.Members[:i], tx.Members[i+1:]...)
		tx.Touch(MembersTable)
		detachMember(tx, m.ID)
		moved = renumberMembers(tx, l.members)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}
