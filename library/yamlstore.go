package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

const (
	yamlExt     = ".yml"
	stagedExt   = ".next"
	journalName = "COMMIT"
)

// YAMLStore is a Backend that keeps each table in its own YAML file inside a
// directory. A commit stages new files, records them in a journal, then
// renames them into place; Load finishes or discards an interrupted commit.
type YAMLStore struct {
	dir string
}

type journal struct {
	Tables []string `json:"tables"`
}

// NewYAMLStore opens the table directory, creating it if needed, and
// recovers from an interrupted commit.
func NewYAMLStore(dir string) (*YAMLStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	s := &YAMLStore{dir: dir}
	if err := s.recover(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close is a no-op; files are closed after every read and write.
func (s *YAMLStore) Close() error { return nil }

func (s *YAMLStore) path(table string) string {
	return filepath.Join(s.dir, table+yamlExt)
}

// Load reads every table file. A missing file is an empty table.
func (s *YAMLStore) Load(_ context.Context) (*Tables, error) {
	if err := s.recover(); err != nil {
		return nil, err
	}
	t := &Tables{}
	if err := readYAML(s.path(booksName), &t.Books); err != nil {
		return nil, err
	}
	if err := readYAML(s.path(membersName), &t.Members); err != nil {
		return nil, err
	}
	if err := readYAML(s.path(transactionsName), &t.Transactions); err != nil {
		return nil, err
	}
	if err := readYAML(s.path(pendingName), &t.Pending); err != nil {
		return nil, err
	}
	return t, nil
}

func readYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Commit writes the changed tables as one unit.
func (s *YAMLStore) Commit(ctx context.Context, t *Tables, changed TableSet) error {
	staged := map[string]any{}
	if changed.Has(BooksTable) {
		staged[booksName] = t.Books
	}
	if changed.Has(MembersTable) {
		staged[membersName] = t.Members
	}
	if changed.Has(LedgerTable) {
		staged[transactionsName] = t.Transactions
	}
	if changed.Has(QueueTable) {
		staged[pendingName] = t.Pending
	}
	if len(staged) == 0 {
		return nil
	}

	g, _ := errgroup.WithContext(ctx)
	names := make([]string, 0, len(staged))
	for name, rows := range staged {
		name, rows := name, rows
		names = append(names, name)
		g.Go(func() error {
			return writeSynced(s.path(name)+stagedExt, rows)
		})
	}
	if err := g.Wait(); err != nil {
		s.discardStaged()
		return err
	}

	// The journal is the commit point.
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(journal{Tables: names})
	if err != nil {
		s.discardStaged()
		return fmt.Errorf("encode journal: %w", err)
	}
	if err := writeFileSynced(filepath.Join(s.dir, journalName), data); err != nil {
		s.discardStaged()
		return err
	}
	if err := syncDir(s.dir); err != nil {
		return err
	}
	return s.rollForward(names)
}

func writeSynced(path string, rows any) error {
	data, err := yaml.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return writeFileSynced(path, data)
}

func writeFileSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("open store dir: %w", err)
	}
	defer d.Close()
	// Some filesystems refuse to fsync a directory; the renames still land.
	_ = d.Sync()
	return nil
}

// rollForward moves the staged files of a journaled commit into place and
// then drops the journal.
func (s *YAMLStore) rollForward(names []string) error {
	for _, name := range names {
		staged := s.path(name) + stagedExt
		if _, err := os.Stat(staged); errors.Is(err, os.ErrNotExist) {
			// Already renamed before an earlier crash.
			continue
		}
		if err := os.Rename(staged, s.path(name)); err != nil {
			return fmt.Errorf("install %s: %w", name, err)
		}
	}
	if err := syncDir(s.dir); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, journalName)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove journal: %w", err)
	}
	return nil
}

// recover completes a journaled commit, or discards staged files that never
// reached the journal.
func (s *YAMLStore) recover() error {
	data, err := os.ReadFile(filepath.Join(s.dir, journalName))
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.discardStaged()
		return nil
	case err != nil:
		return fmt.Errorf("read journal: %w", err)
	}

	var j journal
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &j); err != nil {
		// A torn journal means the commit point was never reached.
		s.discardStaged()
		return os.Remove(filepath.Join(s.dir, journalName))
	}
	return s.rollForward(j.Tables)
}

func (s *YAMLStore) discardStaged() {
	matches, _ := filepath.Glob(filepath.Join(s.dir, "*"+yamlExt+stagedExt))
	for _, m := range matches {
		_ = os.Remove(m)
	}
}

// Backup copies the table files into the directory dest, which must not
// exist yet.
func (s *YAMLStore) Backup(_ context.Context, dest string) error {
	if err := s.recover(); err != nil {
		return err
	}
	if _, err := os.Stat(dest); err == nil {
		return fmt.Errorf("backup target %s already exists", dest)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("list store dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), yamlExt) {
			continue
		}
		if err := copyFile(filepath.Join(s.dir, e.Name()), filepath.Join(dest, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", filepath.Base(src), err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(dst), err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", filepath.Base(src), err)
	}
	return out.Close()
}
