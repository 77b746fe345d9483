// Command import_books bulk-adds books from a CSV file with the columns
// title, author, donor and an optional copies count.
package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"lending-library/config"
	"lending-library/library"
)

func main() {
	if err := newImportCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("✗"), err)
		os.Exit(1)
	}
}

func newImportCmd() *cobra.Command {
	var (
		cfgPath   string
		hasHeader bool
	)
	cmd := &cobra.Command{
		Use:          "import_books <file.csv>",
		Short:        "Bulk-add books from a CSV file",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			b, err := library.OpenBackend(cfg.Store.Driver, cfg.Store.Path)
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			seqs := library.WithSequences(
				library.Sequence{Prefix: cfg.IDs.BookPrefix, Width: cfg.IDs.Width},
				library.Sequence{Prefix: cfg.IDs.MemberPrefix, Width: cfg.IDs.Width},
			)
			mgr := library.NewManager(b, nil, seqs)
			defer mgr.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			sum, err := importBooks(cmd, mgr, f, hasHeader)
			fmt.Fprintf(cmd.OutOrStdout(), "\nImport complete: %d added, %d skipped\n", sum.added, sum.skipped)
			return err
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "", "Config file path")
	cmd.Flags().BoolVar(&hasHeader, "header", true, "Skip the first row")
	return cmd
}

type summary struct {
	added, skipped int
}

func importBooks(cmd *cobra.Command, mgr *library.LibraryManager, r io.Reader, hasHeader bool) (summary, error) {
	var sum summary
	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return sum, nil
		}
		if err != nil {
			return sum, fmt.Errorf("line %d: %w", line, err)
		}
		if line == 1 && hasHeader {
			continue
		}

		in, copies, err := parseRecord(rec)
		if err != nil {
			fmt.Fprintf(out, "%s line %d: %v\n", color.YellowString("!"), line, err)
			sum.skipped++
			continue
		}

		res, err := mgr.AddBook(ctx, in)
		if err != nil {
			return sum, err
		}
		if !res.OK {
			fmt.Fprintf(out, "%s line %d: %s\n", color.YellowString("!"), line, res.Message)
			sum.skipped++
			continue
		}
		sum.added++
		fmt.Fprintf(out, "%s %s %s\n", color.GreenString("✓"), res.ID, in.Title)

		if copies > 1 {
			more, err := mgr.AddCopies(ctx, res.ID, copies-1)
			if err != nil {
				return sum, err
			}
			sum.added += len(more.IDs)
			fmt.Fprintf(out, "  + %s\n", strings.Join(more.IDs, ", "))
		}
	}
}

func parseRecord(rec []string) (library.BookInput, int, error) {
	field := func(i int) string {
		if i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}
	in := library.BookInput{Title: field(0), Author: field(1), Donor: field(2)}
	if in.Title == "" {
		return in, 0, fmt.Errorf("missing title")
	}
	copies := 1
	if s := field(3); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return in, 0, fmt.Errorf("invalid copies count %q", s)
		}
		copies = n
	}
	return in, copies, nil
}
