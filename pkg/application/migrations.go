package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MigrationManager collects schema files registered by modules and
// applies each file at most once, keyed by path and content hash.
type MigrationManager interface {
	RegisterSchema(fsys fs.FS)
	Run(ctx context.Context) error
}

func NewMigrationManager(pool *pgxpool.Pool) MigrationManager {
	return &migrationManager{pool: pool}
}

type migrationManager struct {
	pool    *pgxpool.Pool
	schemas []fs.FS
}

func (m *migrationManager) RegisterSchema(fsys fs.FS) {
	m.schemas = append(m.schemas, fsys)
}

type schemaFile struct {
	path    string
	content []byte
}

func (m *migrationManager) Run(ctx context.Context) error {
	const ledger = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			path VARCHAR(512) PRIMARY KEY,
			hash VARCHAR(64) NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`
	if _, err := m.pool.Exec(ctx, ledger); err != nil {
		return fmt.Errorf("create migrations ledger: %w", err)
	}

	var files []schemaFile
	for _, fsys := range m.schemas {
		err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			content, err := fs.ReadFile(fsys, path)
			if err != nil {
				return err
			}
			files = append(files, schemaFile{path: path, content: content})
			return nil
		})
		if err != nil {
			return fmt.Errorf("read schema files: %w", err)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].path < files[j].path })

	for _, f := range files {
		sum := sha256.Sum256(f.content)
		hash := hex.EncodeToString(sum[:])

		var applied bool
		err := m.pool.QueryRow(
			ctx,
			"SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE path = $1 AND hash = $2)",
			f.path, hash,
		).Scan(&applied)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", f.path, err)
		}
		if applied {
			continue
		}

		if _, err := m.pool.Exec(ctx, string(f.content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", f.path, err)
		}
		if _, err := m.pool.Exec(
			ctx,
			`INSERT INTO schema_migrations (path, hash) VALUES ($1, $2)
			 ON CONFLICT (path) DO UPDATE SET hash = EXCLUDED.hash, applied_at = now()`,
			f.path, hash,
		); err != nil {
			return fmt.Errorf("record migration %s: %w", f.path, err)
		}
	}
	return nil
}
