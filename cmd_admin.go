package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

func newDoctorCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the tables for broken references",
		RunE: func(cmd *cobra.Command, args []string) error {
			problems, err := a.mgr.Verify(cmd.Context())
			if err != nil {
				return err
			}
			if a.asJSON {
				msgs := make([]string, len(problems))
				for i, p := range problems {
					msgs[i] = p.Error()
				}
				if err := a.printJSON(map[string]any{"ok": len(problems) == 0, "problems": msgs}); err != nil {
					return err
				}
				if len(problems) > 0 {
					return errReported
				}
				return nil
			}
			if len(problems) == 0 {
				a.ok("tables are consistent")
				return nil
			}
			for _, p := range problems {
				a.warn("%v", p)
			}
			return fmt.Errorf("%d problems found", len(problems))
		},
	}
}

func newBackupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "backup <dest>",
		Short: "Write a consistent copy of the store",
		Long: `Write a consistent copy of the store. For the sqlite driver dest is a new
database file; for the yaml driver it is a new directory.`,
		Args: cobra.ExactArgs(1),
		RunE: adminOnly(a, func(cmd *cobra.Command, args []string) error {
			return a.report(a.mgr.Backup(cmd.Context(), args[0]))
		}),
	}
}

func newAdminCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative helpers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:         "hash-password",
		Short:       "Print a bcrypt hash for admin.password_hash",
		Annotations: map[string]string{"store": "none"},
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := a.password("New admin password: ")
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			if pw == "" {
				return fmt.Errorf("password must not be empty")
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, string(hash))
			return nil
		},
	})
	return cmd
}
