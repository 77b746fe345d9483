package library

import (
	"context"
	"sort"
	"strings"
)

// BookInput carries the editable fields of a book.
type BookInput struct {
	Title          string
	Author         string
	Donor          string
	TitleTranslit  string
	AuthorTranslit string
}

func (in BookInput) trimmed() BookInput {
	return BookInput{
		Title:          strings.TrimSpace(in.Title),
		Author:         strings.TrimSpace(in.Author),
		Donor:          strings.TrimSpace(in.Donor),
		TitleTranslit:  strings.TrimSpace(in.TitleTranslit),
		AuthorTranslit: strings.TrimSpace(in.AuthorTranslit),
	}
}

// AddBook catalogs a new AVAILABLE copy under the next book id.
//
// An empty transliterated title or author is filled in from the
// transliterator when that changes the text, i.e. only for fields written in
// a script the transliterator knows. Explicit values are kept as given.
func (l *Library) AddBook(ctx context.Context, in BookInput) (string, error) {
	in = in.trimmed()
	if in.Title == "" {
		return "", validation("book title is required")
	}

	var id string
	err := l.store.Update(ctx, func(tx *Tx) error {
		b := Book{
			ID:             l.books.Next(ids(tx.Books, bookID)),
			Title:          in.Title,
			Author:         in.Author,
			Donor:          in.Donor,
			TitleTranslit:  l.fillTranslit(in.TitleTranslit, in.Title),
			AuthorTranslit: l.fillTranslit(in.AuthorTranslit, in.Author),
			Status:         StatusAvailable,
		}
		tx.Books = append(tx.Books, b)
		tx.Touch(BooksTable)
		id = b.ID
		return nil
	})
	return id, err
}

func (l *Library) fillTranslit(given, source string) string {
	if given != "" || l.translit == nil {
		return given
	}
	if out := l.translit(source); out != source {
		return out
	}
	return ""
}

// AddCopies duplicates the source book count times under consecutive new
// ids. Every copy starts AVAILABLE.
func (l *Library) AddCopies(ctx context.Context, sourceID string, count int) ([]string, error) {
	if count < 1 {
		return nil, validation("number of copies must be at least 1, got %d", count)
	}

	var added []string
	err := l.store.Update(ctx, func(tx *Tx) error {
		i := findBook(tx.Tables, sourceID)
		if i < 0 {
			return notFound("book %s not found", sourceID)
		}
		src := tx.Books[i]
		added = l.books.NextN(ids(tx.Books, bookID), count)
		for _, id := range added {
			c := src
			c.ID = id
			c.Status = StatusAvailable
			tx.Books = append(tx.Books, c)
		}
		tx.Touch(BooksTable)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// UpdateBook overwrites the descriptive fields of a book. Status is never
// changed here. A new title is copied into the denormalized book_title of
// the rows that reference the copy.
func (l *Library) UpdateBook(ctx context.Context, id string, in BookInput) error {
	in = in.trimmed()
	if in.Title == "" {
		return validation("book title is required")
	}

	return l.store.Update(ctx, func(tx *Tx) error {
		i := findBook(tx.Tables, id)
		if i < 0 {
			return notFound("book %s not found", id)
		}
		b := &tx.Books[i]
		b.Title = in.Title
		b.Author = in.Author
		b.Donor = in.Donor
		b.TitleTranslit = in.TitleTranslit
		b.AuthorTranslit = in.AuthorTranslit
		tx.Touch(BooksTable)
		propagateBookTitle(tx, b.ID, b.Title)
		return nil
	})
}

// DeleteBook removes a copy that nobody holds or has requested, then
// renumbers the catalog. The returned map holds the ids that moved.
func (l *Library) DeleteBook(ctx context.Context, id string) (map[string]string, error) {
	var moved map[string]string
	err := l.store.Update(ctx, func(tx *Tx) error {
		i := findBook(tx.Tables, id)
		if i < 0 {
			return notFound("book %s not found", id)
		}
		b := tx.Books[i]
		if b.Status == StatusLent {
			return invalidState("book %s is currently %s", b.ID, b.Status)
		}
		if ref := openRef(tx.Tables, b.ID); ref != nil {
			return invalidState("book %s is referenced by %s transaction %s", b.ID, ref.Status, ref.TxID)
		}

		tx.Books = append(tx.Books[:i], tx.Books[i+1:]...)
		tx.Touch(BooksTable)
		detachBook(tx, b.ID)
		moved = renumberBooks(tx, l.books)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

// Book returns the copy with the given id, or nil.
func (l *Library) Book(ctx context.Context, id string) (*Book, error) {
	var out *Book
	err := l.store.View(ctx, func(t *Tables) error {
		if i := findBook(t, id); i >= 0 {
			b := t.Books[i]
			out = &b
		}
		return nil
	})
	return out, err
}

// Filter selects books for browsing. Empty fields match everything.
type Filter struct {
	Search        string // title, transliterated title or id
	Author        string // author or transliterated author
	AvailableOnly bool
	Limit         int
}

// Apply returns the matching books, AVAILABLE copies first and then by
// title.
func (f Filter) Apply(books []Book) []Book {
	var out []Book
	for _, b := range books {
		if f.AvailableOnly && b.Status != StatusAvailable {
			continue
		}
		if f.Search != "" && !containsFold(f.Search, b.Title, b.TitleTranslit, b.ID) {
			continue
		}
		if f.Author != "" && !containsFold(f.Author, b.Author, b.AuthorTranslit) {
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		ai, aj := out[i].Status == StatusAvailable, out[j].Status == StatusAvailable
		if ai != aj {
			return ai
		}
		return out[i].Title < out[j].Title
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

// Books lists the catalog through f.
func (l *Library) Books(ctx context.Context, f Filter) ([]Book, error) {
	var out []Book
	err := l.store.View(ctx, func(t *Tables) error {
		out = f.Apply(t.Books)
		return nil
	})
	return out, err
}

func containsFold(q string, fields ...string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
