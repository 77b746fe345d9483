package library

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// insertBatch bounds the rows per INSERT so large tables stay under
// SQLite's bound-parameter limit.
const insertBatch = 50

var dialect = goqu.Dialect("sqlite3")

// Database is the SQLite Backend. Each table is read wholesale and rewritten
// wholesale inside one SQL transaction per commit.
type Database struct {
	db *sqlx.DB
}

// NewDatabase opens (or creates) the SQLite database at dbPath and applies
// schema migrations.
func NewDatabase(dbPath string) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: the store is the only writer and WAL readers gain
	// nothing here.
	db.SetMaxOpenConns(1)

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Database{db: db}, nil
}

// Close closes the DB.
func (d *Database) Close() error { return d.db.Close() }

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 2

// migrations[i] upgrades the schema from version i to i+1. Columns added
// after version 1 carry DEFAULT '' so older rows read as empty strings.
var migrations = [][]string{
	{
		`CREATE TABLE IF NOT EXISTS books (
            id TEXT PRIMARY KEY,
            title TEXT NOT NULL,
            author TEXT NOT NULL DEFAULT '',
            donor TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'AVAILABLE'
        );`,
		`CREATE TABLE IF NOT EXISTS members (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            mobile TEXT NOT NULL DEFAULT '',
            email TEXT NOT NULL DEFAULT ''
        );`,
		`CREATE TABLE IF NOT EXISTS transactions (
            tx_id TEXT PRIMARY KEY,
            book_id TEXT NOT NULL DEFAULT '',
            book_title TEXT NOT NULL DEFAULT '',
            member_id TEXT NOT NULL DEFAULT '',
            name TEXT NOT NULL DEFAULT '',
            mobile TEXT NOT NULL DEFAULT '',
            email TEXT NOT NULL DEFAULT '',
            borrow_date TEXT NOT NULL DEFAULT '',
            return_date TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS pending_requests (
            tx_id TEXT PRIMARY KEY,
            book_id TEXT NOT NULL DEFAULT '',
            book_title TEXT NOT NULL DEFAULT '',
            member_id TEXT NOT NULL DEFAULT '',
            name TEXT NOT NULL DEFAULT '',
            mobile TEXT NOT NULL DEFAULT '',
            email TEXT NOT NULL DEFAULT '',
            borrow_date TEXT NOT NULL DEFAULT '',
            return_date TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL
        );`,
	},
	{
		`ALTER TABLE books ADD COLUMN title_translit TEXT NOT NULL DEFAULT '';`,
		`ALTER TABLE books ADD COLUMN author_translit TEXT NOT NULL DEFAULT '';`,
		`ALTER TABLE members ADD COLUMN role TEXT NOT NULL DEFAULT 'USER';`,
	},
}

func applyMigrations(db *sqlx.DB) error {
	// WAL keeps a crashed commit from corrupting the main file.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)

	for v := current; v < schemaVersion; v++ {
		if err := migrate(db, v+1, migrations[v]); err != nil {
			return fmt.Errorf("apply migration %d: %w", v+1, err)
		}
	}
	return nil
}

func migrate(db *sqlx.DB, version int, stmts []string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, version); err != nil {
		return err
	}
	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Backend
// ---------------------------------------------------------------------------

var (
	bookCols   = []string{"id", "title", "author", "donor", "title_translit", "author_translit", "status"}
	memberCols = []string{"id", "name", "mobile", "email", "role"}
	txCols     = []string{"tx_id", "book_id", "book_title", "member_id", "name", "mobile", "email", "borrow_date", "return_date", "status"}
)

// selectAll reads every column as text in insertion order; NULLs become "".
func selectAll(table string, cols []string) (string, error) {
	exprs := make([]any, len(cols))
	for i, c := range cols {
		exprs[i] = goqu.COALESCE(goqu.C(c), "").As(c)
	}
	query, _, err := dialect.From(table).
		Select(exprs...).
		Order(goqu.L("rowid").Asc()).
		ToSQL()
	if err != nil {
		return "", fmt.Errorf("build select %s: %w", table, err)
	}
	return query, nil
}

// Load reads the four tables in one read transaction.
func (d *Database) Load(ctx context.Context) (*Tables, error) {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin read: %w", err)
	}
	defer tx.Rollback()

	t := &Tables{}
	reads := []struct {
		table string
		cols  []string
		dest  any
	}{
		{booksName, bookCols, &t.Books},
		{membersName, memberCols, &t.Members},
		{transactionsName, txCols, &t.Transactions},
		{pendingName, txCols, &t.Pending},
	}
	for _, r := range reads {
		query, err := selectAll(r.table, r.cols)
		if err != nil {
			return nil, err
		}
		if err := tx.SelectContext(ctx, r.dest, query); err != nil {
			return nil, fmt.Errorf("read %s: %w", r.table, err)
		}
	}
	return t, nil
}

// Commit replaces every changed table in a single SQL transaction.
func (d *Database) Commit(ctx context.Context, t *Tables, changed TableSet) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit: %w", err)
	}
	defer tx.Rollback()

	if changed.Has(BooksTable) {
		if err := replaceTable(ctx, tx, booksName, rowsOf(t.Books)); err != nil {
			return err
		}
	}
	if changed.Has(MembersTable) {
		if err := replaceTable(ctx, tx, membersName, rowsOf(t.Members)); err != nil {
			return err
		}
	}
	if changed.Has(LedgerTable) {
		if err := replaceTable(ctx, tx, transactionsName, rowsOf(t.Transactions)); err != nil {
			return err
		}
	}
	if changed.Has(QueueTable) {
		if err := replaceTable(ctx, tx, pendingName, rowsOf(t.Pending)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func rowsOf[T any](rows []T) []any {
	out := make([]any, len(rows))
	for i := range rows {
		out[i] = rows[i]
	}
	return out
}

func replaceTable(ctx context.Context, tx *sqlx.Tx, table string, rows []any) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	for start := 0; start < len(rows); start += insertBatch {
		end := min(start+insertBatch, len(rows))
		query, args, err := dialect.Insert(table).
			Prepared(true).
			Rows(rows[start:end]...).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build insert %s: %w", table, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("write %s: %w", table, err)
		}
	}
	return nil
}

// Backup writes a consistent copy of the database to dest.
func (d *Database) Backup(ctx context.Context, dest string) error {
	if _, err := os.Stat(dest); err == nil {
		return fmt.Errorf("backup target %s already exists", dest)
	}
	if _, err := d.db.ExecContext(ctx, `VACUUM INTO ?`, dest); err != nil {
		return fmt.Errorf("vacuum into %s: %w", dest, err)
	}
	return nil
}
