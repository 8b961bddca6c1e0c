package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// RunMigrations applies all .sql files in lexical order. When dir names an
// existing directory its files are used; otherwise the migrations compiled
// into the binary run. Statements are idempotent (CREATE IF NOT EXISTS), so
// re-running on an existing database is safe.
func RunMigrations(conn *sql.DB, dir string) error {
	fsys, root, err := migrationSource(dir)
	if err != nil {
		return err
	}
	names, err := sqlFiles(fsys, root)
	if err != nil {
		return err
	}
	for _, name := range names {
		data, err := fs.ReadFile(fsys, filepath.ToSlash(filepath.Join(root, name)))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if len(data) == 0 {
			continue
		}
		if _, err := conn.Exec(string(data)); err != nil {
			return fmt.Errorf("exec migration %s: %w", name, err)
		}
	}
	return nil
}

func migrationSource(dir string) (fs.FS, string, error) {
	if dir != "" {
		if _, err := os.Stat(dir); err == nil {
			return os.DirFS(dir), ".", nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("stat migrations dir: %w", err)
		}
	}
	return embeddedMigrations, "migrations", nil
}

func sqlFiles(fsys fs.FS, root string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".sql" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}
