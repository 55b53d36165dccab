// Package migration applies the numbered SQL files that define the streaklit schema.
// Each file is NNN_name.sql and runs in its own transaction together with the
// schema_version bump.
package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
)

const versionTable = "schema_version"

// ErrSchemaTooNew means the database was migrated by a newer build.
var ErrSchemaTooNew = errors.New("database schema is newer than this build supports")

// Migration is one schema step.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Runner applies migrations read from an fs.FS to a database.
type Runner struct {
	db *sql.DB
	fs fs.FS
	sb sq.StatementBuilderType
}

// NewRunner creates a runner. placeholder must match the driver behind db
// (sq.Question for SQLite, sq.Dollar for PostgreSQL).
func NewRunner(db *sql.DB, migrationFS fs.FS, placeholder sq.PlaceholderFormat) *Runner {
	return &Runner{
		db: db,
		fs: migrationFS,
		sb: sq.StatementBuilder.PlaceholderFormat(placeholder),
	}
}

func (r *Runner) EnsureSchemaVersionTable(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS "+versionTable+" (version INTEGER PRIMARY KEY)")
	return err
}

// GetCurrentVersion returns the stored schema version, 0 for a fresh database.
func (r *Runner) GetCurrentVersion(ctx context.Context) (int, error) {
	if err := r.EnsureSchemaVersionTable(ctx); err != nil {
		return 0, fmt.Errorf("failed to ensure %s table: %w", versionTable, err)
	}

	var version int
	err := r.sb.Select("version").From(versionTable).RunWith(r.db).QueryRowContext(ctx).Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}
	return version, nil
}

// SetVersion overwrites the stored schema version.
func (r *Runner) SetVersion(ctx context.Context, version int) error {
	if err := r.EnsureSchemaVersionTable(ctx); err != nil {
		return fmt.Errorf("failed to ensure %s table: %w", versionTable, err)
	}
	return r.writeVersion(ctx, r.db, version)
}

// writeVersion runs on either the db or an open transaction.
func (r *Runner) writeVersion(ctx context.Context, exec sq.BaseRunner, version int) error {
	if _, err := r.sb.Delete(versionTable).RunWith(exec).ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to clear version: %w", err)
	}
	if _, err := r.sb.Insert(versionTable).Columns("version").Values(version).RunWith(exec).ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to set version: %w", err)
	}
	return nil
}

func parseFilename(name string) (int, string, error) {
	prefix, rest, ok := strings.Cut(name, "_")
	if !ok {
		return 0, "", fmt.Errorf("invalid migration filename format: %s (expected NNN_name.sql)", name)
	}
	version, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, "", fmt.Errorf("invalid version number in filename %s: %w", name, err)
	}
	if version < 1 {
		return 0, "", fmt.Errorf("invalid version number in filename %s: version must be at least 1", name)
	}
	return version, strings.TrimSuffix(rest, ".sql"), nil
}

// ReadMigrationFiles returns every migration in the FS ordered by version.
func (r *Runner) ReadMigrationFiles() ([]Migration, error) {
	entries, err := fs.ReadDir(r.fs, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var out []Migration
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".sql" {
			continue
		}
		version, name, err := parseFilename(entry.Name())
		if err != nil {
			return nil, err
		}
		content, err := fs.ReadFile(r.fs, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", entry.Name(), err)
		}
		out = append(out, Migration{Version: version, Name: name, SQL: string(content)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	for i := 1; i < len(out); i++ {
		if out[i].Version == out[i-1].Version {
			return nil, fmt.Errorf("duplicate migration version %d", out[i].Version)
		}
	}
	return out, nil
}

// GetLatestVersion returns the highest version shipped in the FS.
func (r *Runner) GetLatestVersion() (int, error) {
	all, err := r.ReadMigrationFiles()
	if err != nil {
		return 0, err
	}
	return latest(all), nil
}

func latest(all []Migration) int {
	if len(all) == 0 {
		return 0
	}
	return all[len(all)-1].Version
}

func checkNotNewer(current, latest int) error {
	if current > latest {
		return fmt.Errorf("%w: database is at version %d, latest known is %d; upgrade streaklit", ErrSchemaTooNew, current, latest)
	}
	return nil
}

// ApplyMigrations runs every migration above the stored version and returns how many ran.
// logFn receives human-readable progress and may be nil.
func (r *Runner) ApplyMigrations(ctx context.Context, logFn func(string)) (int, error) {
	if logFn == nil {
		logFn = func(string) {}
	}

	current, err := r.GetCurrentVersion(ctx)
	if err != nil {
		return 0, err
	}
	all, err := r.ReadMigrationFiles()
	if err != nil {
		return 0, fmt.Errorf("failed to read migrations: %w", err)
	}
	if len(all) == 0 {
		logFn("No migration files found")
		return 0, nil
	}
	target := latest(all)
	if err := checkNotNewer(current, target); err != nil {
		return 0, err
	}

	start := sort.Search(len(all), func(i int) bool { return all[i].Version > current })
	pending := all[start:]
	if len(pending) == 0 {
		logFn(fmt.Sprintf("Schema is up to date (version %d)", current))
		return 0, nil
	}

	logFn(fmt.Sprintf("Migrating schema from version %d to %d", current, target))
	began := time.Now()
	for i, m := range pending {
		logFn(fmt.Sprintf("  %03d %s", m.Version, m.Name))
		if err := r.apply(ctx, m); err != nil {
			return i, err
		}
	}
	logFn(fmt.Sprintf("Applied %d migration(s) in %v", len(pending), time.Since(began).Round(time.Millisecond)))
	return len(pending), nil
}

// apply commits the schema change and the version bump together.
func (r *Runner) apply(ctx context.Context, m Migration) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migration %d: begin: %w", m.Version, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("failed to apply migration %d (%s): %w", m.Version, m.Name, err)
	}
	if err := r.writeVersion(ctx, tx, m.Version); err != nil {
		return fmt.Errorf("migration %d: %w", m.Version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migration %d: commit: %w", m.Version, err)
	}
	return nil
}

// ValidateVersion fails when the database was migrated past what this build ships.
func (r *Runner) ValidateVersion(ctx context.Context) error {
	current, err := r.GetCurrentVersion(ctx)
	if err != nil {
		return err
	}
	target, err := r.GetLatestVersion()
	if err != nil {
		return err
	}
	return checkNotNewer(current, target)
}
