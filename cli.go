package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"lending-library/config"
	"lending-library/library"
)

// errReported marks a failure whose details were already printed.
var errReported = errors.New("reported")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type app struct {
	cfgPath string
	noColor bool
	asJSON  bool

	cfg *config.Config
	mgr *library.LibraryManager
	out io.Writer
	err io.Writer

	open     func(cfg *config.Config, log library.Logger) (*library.LibraryManager, error)
	password func(prompt string) (string, error)
}

func newApp() *app {
	return &app{open: openManager, password: readPassword}
}

func openManager(cfg *config.Config, log library.Logger) (*library.LibraryManager, error) {
	b, err := library.OpenBackend(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	books := library.Sequence{Prefix: cfg.IDs.BookPrefix, Width: cfg.IDs.Width}
	members := library.Sequence{Prefix: cfg.IDs.MemberPrefix, Width: cfg.IDs.Width}
	return library.NewManager(b, log, library.WithSequences(books, members)), nil
}

func newLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "lending-library",
		Short: "Run a small lending library from the command line",
		Long: `lending-library keeps a catalog of book copies, a member directory and a
ledger of loans. Borrow and return requests wait in an approval queue until
an admin approves or rejects them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "Config file path (default: ~/.config/lending-library/config.yml)")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")
	root.PersistentFlags().BoolVar(&a.asJSON, "json", false, "Print results as JSON")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		a.out = cmd.OutOrStdout()
		a.err = cmd.ErrOrStderr()
		if a.noColor || !isTTY(a.out) {
			color.NoColor = true
		}

		var err error
		a.cfg, err = config.Load(a.cfgPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if cmd.Annotations["store"] == "none" {
			return nil
		}
		log, err := newLogger(a.cfg.Log, a.err)
		if err != nil {
			return err
		}
		a.mgr, err = a.open(a.cfg, log)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		return nil
	}
	root.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if a.mgr == nil {
			return nil
		}
		return a.mgr.Close()
	}

	root.AddCommand(
		newBookCmd(a),
		newMemberCmd(a),
		newLendCmd(a),
		newReturnCmd(a),
		newTxCmd(a),
		newHistoryCmd(a),
		newQueueCmd(a),
		newStatsCmd(a),
		newDoctorCmd(a),
		newBackupCmd(a),
		newAdminCmd(a),
	)
	return root
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// requireAdmin checks the admin password when a hash is configured.
func (a *app) requireAdmin() error {
	hash := a.cfg.Admin.PasswordHash
	if hash == "" {
		return nil
	}
	pw := os.Getenv(config.EnvPrefix + "_ADMIN_PASSWORD")
	if pw == "" {
		var err error
		if pw, err = a.password("Admin password: "); err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)); err != nil {
		return fmt.Errorf("admin password rejected")
	}
	return nil
}

// adminOnly wraps a RunE with the admin password check.
func adminOnly(a *app, run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.requireAdmin(); err != nil {
			return err
		}
		return run(cmd, args)
	}
}

// report prints the outcome of a mutating operation. A domain failure makes
// the command exit non-zero.
func (a *app) report(res library.Result, err error) error {
	if err != nil {
		return err
	}
	if a.asJSON {
		if err := a.printJSON(res); err != nil {
			return err
		}
		if !res.OK {
			return errReported
		}
		return nil
	}
	if !res.OK {
		return errors.New(res.Message)
	}
	a.ok("%s", res.Message)
	return nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ok prints a green success line.
func (a *app) ok(format string, args ...any) {
	fmt.Fprintln(a.out, color.GreenString("✓"), fmt.Sprintf(format, args...))
}

// warn prints a yellow warning line.
func (a *app) warn(format string, args ...any) {
	fmt.Fprintln(a.err, color.YellowString("!"), fmt.Sprintf(format, args...))
}

// header prints a cyan section heading.
func (a *app) header(format string, args ...any) {
	fmt.Fprintln(a.out, color.CyanString(fmt.Sprintf(format, args...)))
}
