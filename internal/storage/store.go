package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	pq "github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/julianstephens/streaklit/internal/constants"
	"github.com/julianstephens/streaklit/internal/migration"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/migrations"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// SQLStore is the Provider over database/sql. The same queries serve SQLite and
// PostgreSQL; only the placeholder format and the connection setup differ.
type SQLStore struct {
	dialect Dialect
	dsn     string
	db      *sql.DB
	sb      sq.StatementBuilderType
	now     func() time.Time
}

var _ Provider = (*SQLStore)(nil)

// NewSQLiteStore returns a store backed by the SQLite file at path.
func NewSQLiteStore(path string) *SQLStore {
	return newStore(DialectSQLite, path)
}

// NewPostgresStore returns a store for connStr. The streaklit schema is added to the
// search_path when the connection string does not set one.
func NewPostgresStore(connStr string) *SQLStore {
	return newStore(DialectPostgres, ensureSearchPath(connStr))
}

// Open picks the dialect from the connection string: postgres:// and postgresql:// URLs
// and key=value DSNs with a host go to PostgreSQL, anything else is a SQLite path.
func Open(conn string) *SQLStore {
	if IsPostgresConnString(conn) {
		return NewPostgresStore(conn)
	}
	return NewSQLiteStore(conn)
}

func IsPostgresConnString(conn string) bool {
	if strings.HasPrefix(conn, "postgres://") || strings.HasPrefix(conn, "postgresql://") {
		return true
	}
	for _, part := range strings.Fields(conn) {
		if strings.HasPrefix(strings.ToLower(part), "host=") {
			return true
		}
	}
	return false
}

func newStore(dialect Dialect, dsn string) *SQLStore {
	placeholder := sq.PlaceholderFormat(sq.Question)
	if dialect == DialectPostgres {
		placeholder = sq.Dollar
	}
	return &SQLStore{
		dialect: dialect,
		dsn:     dsn,
		sb:      sq.StatementBuilder.PlaceholderFormat(placeholder),
		now:     time.Now,
	}
}

func (s *SQLStore) Dialect() Dialect {
	return s.dialect
}

func (s *SQLStore) placeholder() sq.PlaceholderFormat {
	if s.dialect == DialectPostgres {
		return sq.Dollar
	}
	return sq.Question
}

func (s *SQLStore) sqliteDSN() string {
	return s.dsn + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (s *SQLStore) open(ctx context.Context) error {
	switch s.dialect {
	case DialectPostgres:
		db, err := sql.Open("postgres", s.dsn)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}

		// Configure connection pool parameters to avoid connection exhaustion
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := db.PingContext(ctx); err != nil {
			db.Close()
			if strings.Contains(err.Error(), "SSL is not enabled on the server") && !hasSSLMode(s.dsn) {
				return fmt.Errorf("failed to connect to database: %w (hint: try adding ?sslmode=disable to your connection string)", err)
			}
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		s.db = db
	default:
		db, err := sql.Open("sqlite", s.sqliteDSN())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		s.db = db
	}
	return nil
}

func (s *SQLStore) Init(ctx context.Context) error {
	if s.dialect == DialectSQLite {
		// Create config directory if it doesn't exist
		if err := os.MkdirAll(filepath.Dir(s.dsn), 0700); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if s.db == nil {
		if err := s.open(ctx); err != nil {
			return err
		}
	}

	if s.dialect == DialectPostgres {
		if _, err := s.db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+constants.AppName); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	if _, err := s.Migrate(ctx, nil); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Initialize default settings if not present
	if _, err := s.GetSettings(ctx); err != nil {
		if err := s.SaveSettings(ctx, models.DefaultSettings()); err != nil {
			return fmt.Errorf("failed to save default settings: %w", err)
		}
	}

	return nil
}

func (s *SQLStore) Load(ctx context.Context) error {
	if s.db != nil {
		return nil
	}

	if s.dialect == DialectSQLite {
		if _, err := os.Stat(s.dsn); os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run '%s init' first", constants.AppName)
		}
	}

	if err := s.open(ctx); err != nil {
		return err
	}

	runner, err := s.migrationRunner()
	if err != nil {
		return err
	}
	return runner.ValidateVersion(ctx)
}

func (s *SQLStore) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *SQLStore) migrationRunner() (*migration.Runner, error) {
	subFS, err := fs.Sub(migrations.FS, string(s.dialect))
	if err != nil {
		return nil, fmt.Errorf("failed to access %s migrations: %w", s.dialect, err)
	}
	return migration.NewRunner(s.db, subFS, s.placeholder()), nil
}

// Migrate applies pending migrations and returns how many ran.
func (s *SQLStore) Migrate(ctx context.Context, logFn func(string)) (int, error) {
	runner, err := s.migrationRunner()
	if err != nil {
		return 0, err
	}
	return runner.ApplyMigrations(ctx, logFn)
}

// SchemaVersion reports the database's schema version and the newest one this build
// ships.
func (s *SQLStore) SchemaVersion(ctx context.Context) (current, latest int, err error) {
	runner, err := s.migrationRunner()
	if err != nil {
		return 0, 0, err
	}
	if current, err = runner.GetCurrentVersion(ctx); err != nil {
		return 0, 0, err
	}
	if latest, err = runner.GetLatestVersion(); err != nil {
		return 0, 0, err
	}
	return current, latest, nil
}

func (s *SQLStore) GetConfigPath() string {
	return s.dsn
}

// GetDB returns the underlying database connection.
// Returns nil if the database has not been initialized or loaded.
func (s *SQLStore) GetDB() *sql.DB {
	return s.db
}

// isUniqueViolation reports a primary key or unique constraint failure on either
// driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(liteErr.Error(), "UNIQUE constraint failed")
		}
	}
	return false
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTimestamp(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v.String)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp %q: %w", v.String, err)
	}
	return &t, nil
}

func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func nullTimestamp(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return formatTimestamp(*t)
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
