package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lending-library/library"
)

func newBookCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Manage the catalog of book copies",
	}
	cmd.AddCommand(
		newBookAddCmd(a),
		newBookCopiesCmd(a),
		newBookEditCmd(a),
		newBookDeleteCmd(a),
		newBookListCmd(a),
	)
	return cmd
}

func bookFlags(cmd *cobra.Command, in *library.BookInput) {
	cmd.Flags().StringVar(&in.Title, "title", "", "Book title")
	cmd.Flags().StringVar(&in.Author, "author", "", "Author")
	cmd.Flags().StringVar(&in.Donor, "donor", "", "Donor")
	cmd.Flags().StringVar(&in.TitleTranslit, "title-translit", "", "Transliterated title (filled automatically when empty)")
	cmd.Flags().StringVar(&in.AuthorTranslit, "author-translit", "", "Transliterated author (filled automatically when empty)")
}

func newBookAddCmd(a *app) *cobra.Command {
	var in library.BookInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Catalog a new copy",
		RunE: adminOnly(a, func(cmd *cobra.Command, args []string) error {
			return a.report(a.mgr.AddBook(cmd.Context(), in))
		}),
	}
	bookFlags(cmd, &in)
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newBookCopiesCmd(a *app) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "copies <book-id>",
		Short: "Add more copies of an existing book",
		Args:  cobra.ExactArgs(1),
		RunE: adminOnly(a, func(cmd *cobra.Command, args []string) error {
			return a.report(a.mgr.AddCopies(cmd.Context(), args[0], count))
		}),
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of copies to add")
	return cmd
}

func newBookEditCmd(a *app) *cobra.Command {
	var in library.BookInput
	cmd := &cobra.Command{
		Use:   "edit <book-id>",
		Short: "Change a copy's title, author, donor or transliterations",
		Long: `Change the descriptive fields of a copy. Flags that are not given keep
their current value. A new title is copied into every loan and request that
refers to the copy.`,
		Args: cobra.ExactArgs(1),
		RunE: adminOnly(a, func(cmd *cobra.Command, args []string) error {
			cur, err := a.mgr.Book(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if cur == nil {
				return fmt.Errorf("book %s not found", args[0])
			}
			f := cmd.Flags()
			keep := func(name string, dst *string, val string) {
				if !f.Changed(name) {
					*dst = val
				}
			}
			keep("title", &in.Title, cur.Title)
			keep("author", &in.Author, cur.Author)
			keep("donor", &in.Donor, cur.Donor)
			keep("title-translit", &in.TitleTranslit, cur.TitleTranslit)
			keep("author-translit", &in.AuthorTranslit, cur.AuthorTranslit)
			return a.report(a.mgr.UpdateBook(cmd.Context(), cur.ID, in))
		}),
	}
	bookFlags(cmd, &in)
	return cmd
}

func newBookDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <book-id>",
		Short: "Remove a copy and renumber the catalog",
		Long: `Remove a copy that is not lent and has no open request. The remaining
copies are renumbered densely and every loan or request referring to a moved
id is updated.`,
		Args: cobra.ExactArgs(1),
		RunE: adminOnly(a, func(cmd *cobra.Command, args []string) error {
			res, err := a.mgr.DeleteBook(cmd.Context(), args[0])
			if err == nil && res.OK && !a.asJSON {
				for old, next := range res.Moved {
					fmt.Fprintf(a.out, "  %s -> %s\n", old, next)
				}
			}
			return a.report(res, err)
		}),
	}
}

func newBookListCmd(a *app) *cobra.Command {
	var f library.Filter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Browse the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			books, err := a.mgr.Books(cmd.Context(), f)
			if err != nil {
				return err
			}
			if a.asJSON {
				if books == nil {
					books = []library.Book{}
				}
				return a.printJSON(books)
			}
			if len(books) == 0 {
				fmt.Fprintln(a.out, "No books found.")
				return nil
			}
			a.header("%-8s %-30s %-25s %-10s", "ID", "TITLE", "AUTHOR", "STATUS")
			for _, b := range books {
				fmt.Fprintln(a.out, library.PrettyBook(b))
			}
			fmt.Fprintf(a.out, "%d books\n", len(books))
			return nil
		},
	}
	cmd.Flags().StringVarP(&f.Search, "search", "s", "", "Match title, transliterated title or id")
	cmd.Flags().StringVar(&f.Author, "author", "", "Match author or transliterated author")
	cmd.Flags().BoolVar(&f.AvailableOnly, "available", false, "Only show AVAILABLE copies")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "Show at most this many books")
	return cmd
}
