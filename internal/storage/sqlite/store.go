// Package sqlite persists named notation programs so they can be rerun
// without keeping source files around.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/louisbranch/probify/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/probify/internal/storage/sqlite/migrations"
)

// ErrProgramNotFound indicates no stored program has the requested name.
var ErrProgramNotFound = errors.New("program not found")

// Program is a stored notation program.
type Program struct {
	Name      string
	Source    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store provides a SQLite-backed program library.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a program library at the provided path, creating the
// schema when needed.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// SaveProgram stores source under name, replacing any previous program
// with that name while keeping its original creation time.
func (s *Store) SaveProgram(ctx context.Context, name, source string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("program name is required")
	}
	if strings.TrimSpace(source) == "" {
		return fmt.Errorf("program source is required")
	}

	now := toMillis(time.Now())
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO programs (name, source, created_at, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET source = excluded.source, updated_at = excluded.updated_at
`, name, source, now, now)
	if err != nil {
		return fmt.Errorf("save program: %w", err)
	}
	return nil
}

// GetProgram returns the stored program with the given name.
func (s *Store) GetProgram(ctx context.Context, name string) (Program, error) {
	if err := ctx.Err(); err != nil {
		return Program{}, err
	}

	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT name, source, created_at, updated_at FROM programs WHERE name = ?", name)

	var program Program
	var createdAt, updatedAt int64
	if err := row.Scan(&program.Name, &program.Source, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Program{}, fmt.Errorf("%w: %q", ErrProgramNotFound, name)
		}
		return Program{}, fmt.Errorf("get program: %w", err)
	}
	program.CreatedAt = fromMillis(createdAt)
	program.UpdatedAt = fromMillis(updatedAt)
	return program, nil
}

// ListPrograms returns every stored program ordered by name, sources
// included.
func (s *Store) ListPrograms(ctx context.Context) ([]Program, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT name, source, created_at, updated_at FROM programs ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	defer rows.Close()

	var programs []Program
	for rows.Next() {
		var program Program
		var createdAt, updatedAt int64
		if err := rows.Scan(&program.Name, &program.Source, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan program: %w", err)
		}
		program.CreatedAt = fromMillis(createdAt)
		program.UpdatedAt = fromMillis(updatedAt)
		programs = append(programs, program)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate programs: %w", err)
	}
	return programs, nil
}

// DeleteProgram removes the stored program with the given name.
func (s *Store) DeleteProgram(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	result, err := s.sqlDB.ExecContext(ctx, "DELETE FROM programs WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("delete program: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete program: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %q", ErrProgramNotFound, name)
	}
	return nil
}
