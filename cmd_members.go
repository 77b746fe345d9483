package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lending-library/library"
)

func newMemberCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Manage the member directory",
	}
	cmd.AddCommand(
		newMemberRegisterCmd(a),
		newMemberEditCmd(a),
		newMemberDeleteCmd(a),
		newMemberShowCmd(a),
		newMemberListCmd(a),
	)
	return cmd
}

func memberFlags(cmd *cobra.Command, in *library.MemberInput) {
	cmd.Flags().StringVar(&in.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&in.Mobile, "mobile", "", "10-digit mobile number")
	cmd.Flags().StringVar(&in.Email, "email", "", "Email address")
}

func newMemberRegisterCmd(a *app) *cobra.Command {
	var in library.MemberInput
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new member",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.report(a.mgr.RegisterMember(cmd.Context(), in))
		},
	}
	memberFlags(cmd, &in)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("mobile")
	return cmd
}

func newMemberEditCmd(a *app) *cobra.Command {
	var in library.MemberInput
	cmd := &cobra.Command{
		Use:   "edit <member-id>",
		Short: "Change a member's contact details",
		Long: `Change a member's name, mobile or email. Flags that are not given keep
their current value. The new details are copied into every loan and request
linked to the member.`,
		Args: cobra.ExactArgs(1),
		RunE: adminOnly(a, func(cmd *cobra.Command, args []string) error {
			cur, err := a.mgr.ResolveByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if cur == nil {
				return fmt.Errorf("member %s not found", args[0])
			}
			f := cmd.Flags()
			if !f.Changed("name") {
				in.Name = cur.Name
			}
			if !f.Changed("mobile") {
				in.Mobile = cur.Mobile
			}
			if !f.Changed("email") {
				in.Email = cur.Email
			}
			return a.report(a.mgr.UpdateMember(cmd.Context(), cur.ID, in))
		}),
	}
	memberFlags(cmd, &in)
	return cmd
}

func newMemberDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <member-id>",
		Short: "Remove a member and renumber the directory",
		Args:  cobra.ExactArgs(1),
		RunE: adminOnly(a, func(cmd *cobra.Command, args []string) error {
			res, err := a.mgr.DeleteMember(cmd.Context(), args[0])
			if err == nil && res.OK && !a.asJSON {
				for old, next := range res.Moved {
					fmt.Fprintf(a.out, "  %s -> %s\n", old, next)
				}
			}
			return a.report(res, err)
		}),
	}
}

func newMemberShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <member-id|mobile>",
		Short: "Look up a member by id or mobile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.mgr.ResolveByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if m == nil {
				if m, err = a.mgr.ResolveByMobile(cmd.Context(), args[0]); err != nil {
					return err
				}
			}
			if a.asJSON {
				return a.printJSON(m)
			}
			if m == nil {
				fmt.Fprintf(a.out, "No member matches %s.\n", args[0])
				return nil
			}
			a.header("%s", m.ID)
			fmt.Fprintf(a.out, "  Name:   %s\n  Mobile: %s\n  Email:  %s\n  Role:   %s\n", m.Name, m.Mobile, m.Email, m.Role)
			return nil
		},
	}
}

func newMemberListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all members",
		RunE: adminOnly(a, func(cmd *cobra.Command, args []string) error {
			members, err := a.mgr.Members(cmd.Context())
			if err != nil {
				return err
			}
			if a.asJSON {
				if members == nil {
					members = []library.Member{}
				}
				return a.printJSON(members)
			}
			if len(members) == 0 {
				fmt.Fprintln(a.out, "No members registered.")
				return nil
			}
			a.header("%-8s %-25s %-12s %-25s %s", "ID", "NAME", "MOBILE", "EMAIL", "ROLE")
			for _, m := range members {
				fmt.Fprintf(a.out, "%-8s %-25s %-12s %-25s %s\n",
					m.ID, truncateString(m.Name, 25), m.Mobile, truncateString(m.Email, 25), m.Role)
			}
			return nil
		}),
	}
}
