package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lending-library/library"
)

func newLendCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lend",
		Short: "File and decide lend requests",
	}
	cmd.AddCommand(
		newLendRequestCmd(a),
		newLendInterestCmd(a),
		newLendApproveCmd(a),
		newLendRejectCmd(a),
	)
	return cmd
}

func newLendRequestCmd(a *app) *cobra.Command {
	var in library.LendInput
	cmd := &cobra.Command{
		Use:   "request <book-id>",
		Short: "Ask to borrow an available copy",
		Long: `Ask to borrow an available copy. The copy is held (PENDING) until an admin
approves or rejects the request.

The borrower is linked to a member by --member when given, otherwise by
mobile; an unknown mobile registers a new member.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.BookID = args[0]
			return a.report(a.mgr.LendRequest(cmd.Context(), in))
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "Borrower name")
	cmd.Flags().StringVar(&in.Mobile, "mobile", "", "Borrower's 10-digit mobile number")
	cmd.Flags().StringVar(&in.Email, "email", "", "Borrower email")
	cmd.Flags().StringVar(&in.MemberID, "member", "", "Member id to link the request to")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("mobile")
	return cmd
}

func newLendInterestCmd(a *app) *cobra.Command {
	var in library.InterestInput
	cmd := &cobra.Command{
		Use:   "interest <book-id>",
		Short: "Register interest in a copy that is out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.BookID = args[0]
			return a.report(a.mgr.ExpressInterest(cmd.Context(), in))
		},
	}
	cmd.Flags().StringVar(&in.BookTitle, "title", "", "Book title (looked up when empty)")
	cmd.Flags().StringVar(&in.Name, "name", "", "Your name")
	cmd.Flags().StringVar(&in.Mobile, "mobile", "", "Your mobile number")
	cmd.Flags().StringVar(&in.Email, "email", "", "Your email")
	return cmd
}

func newLendApproveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <tx-id>",
		Short: "Approve a lend request; the copy becomes LENT",
		Args:  cobra.ExactArgs(1),
		RunE: adminOnly(a, func(cmd *cobra.Command, args []string) error {
			return a.report(a.mgr.ApproveLend(cmd.Context(), args[0]))
		}),
	}
}

func newLendRejectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reject <tx-id>",
		Short: "Reject a lend request or dismiss an interest",
		Args:  cobra.ExactArgs(1),
		RunE: adminOnly(a, func(cmd *cobra.Command, args []string) error {
			return a.report(a.mgr.RejectLend(cmd.Context(), args[0]))
		}),
	}
}

func newReturnCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "return",
		Short: "Request and approve returns",
	}

	var mobile string
	request := &cobra.Command{
		Use:   "request <book-id>",
		Short: "Tell the library you are bringing a copy back",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.report(a.mgr.RequestReturn(cmd.Context(), args[0], mobile))
		},
	}
	request.Flags().StringVar(&mobile, "mobile", "", "Mobile number the loan was made under")
	_ = request.MarkFlagRequired("mobile")

	approve := &cobra.Command{
		Use:   "approve <tx-id>",
		Short: "Close a loan; the copy becomes AVAILABLE",
		Args:  cobra.ExactArgs(1),
		RunE: adminOnly(a, func(cmd *cobra.Command, args []string) error {
			return a.report(a.mgr.ApproveReturn(cmd.Context(), args[0]))
		}),
	}

	cmd.AddCommand(request, approve)
	return cmd
}

func newTxCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Inspect and repair ledger rows",
	}

	var status []string
	list := &cobra.Command{
		Use:   "list",
		Short: "List ledger rows",
		RunE: adminOnly(a, func(cmd *cobra.Command, args []string) error {
			states := make([]library.TxStatus, len(status))
			for i, s := range status {
				states[i] = library.TxStatus(strings.ToUpper(s))
			}
			rows, err := a.mgr.Transactions(cmd.Context(), states...)
			if err != nil {
				return err
			}
			return a.printTxs(rows, "No transactions.")
		}),
	}
	list.Flags().StringSliceVar(&status, "status", nil, "Only rows in these states (ACTIVE, RETURN_REQUESTED, RETURNED)")

	link := &cobra.Command{
		Use:   "link-mobile <tx-id> <mobile>",
		Short: "Attach a mobile number to a ledger row",
		Args:  cobra.ExactArgs(2),
		RunE: adminOnly(a, func(cmd *cobra.Command, args []string) error {
			return a.report(a.mgr.LinkMobile(cmd.Context(), args[0], args[1]))
		}),
	}

	cmd.AddCommand(list, link)
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history <mobile|member-id>",
		Short: "Show a borrower's open loans and pending requests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := a.mgr.History(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printTxs(rows, "Nothing on loan or pending.")
		},
	}
}

func newQueueCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "Show everything waiting for an admin",
		RunE: adminOnly(a, func(cmd *cobra.Command, args []string) error {
			q, err := a.mgr.Queue(cmd.Context())
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(q)
			}
			sections := []struct {
				title string
				rows  []library.Transaction
			}{
				{"Lend requests", q.Lends},
				{"Return requests", q.Returns},
				{"Interests", q.Interests},
			}
			for _, s := range sections {
				a.header("%s (%d)", s.title, len(s.rows))
				for _, r := range s.rows {
					fmt.Fprintf(a.out, "  %s  %s  %s\n", library.PrettyTx(r), r.Name, r.Mobile)
				}
			}
			return nil
		}),
	}
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show library counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.mgr.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(s)
			}
			a.header("Library")
			fmt.Fprintf(a.out, "  Books:           %d (%d available)\n", s.Books, s.Available)
			fmt.Fprintf(a.out, "  Members:         %d\n", s.Members)
			fmt.Fprintf(a.out, "  Active loans:    %d\n", s.ActiveLoans)
			fmt.Fprintf(a.out, "  Pending actions: %d\n", s.PendingActions)
			return nil
		},
	}
}

func (a *app) printTxs(rows []library.Transaction, empty string) error {
	if a.asJSON {
		if rows == nil {
			rows = []library.Transaction{}
		}
		return a.printJSON(rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(a.out, empty)
		return nil
	}
	a.header("%-30s %-8s %-25s %-10s %-16s %s", "TX", "BOOK", "TITLE", "MEMBER", "STATUS", "SINCE")
	for _, r := range rows {
		fmt.Fprintln(a.out, library.PrettyTx(r))
	}
	return nil
}
