package session

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"torn_tools/internal/app"
	"torn_tools/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

// Dialect selects the SQL database behind the store
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Well-known keys
const (
	KeyAPIKey   = "torn_api_key"
	KeyUsername = "torn_username"
)

// Store is a string key-value store on top of database/sql
type Store struct {
	dialect Dialect
	db      *sql.DB
	now     func() time.Time
}

// Open opens the store described by the configuration and applies migrations
func Open(ctx context.Context, cfg *app.Config) (*Store, error) {
	switch Dialect(cfg.StoreDialect) {
	case DialectSQLite:
		return OpenSQLite(ctx, cfg.StoreSQLitePath)
	case DialectPostgres:
		return OpenPostgres(ctx, cfg.PostgresDSN())
	default:
		return nil, fmt.Errorf("unsupported STORE_DIALECT %q", cfg.StoreDialect)
	}
}

// OpenSQLite opens a sqlite database file, creating its directory if needed
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}
	return open(ctx, DialectSQLite, "sqlite", path)
}

// OpenPostgres opens a postgres database through the pgx driver
func OpenPostgres(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("STORE_DIALECT=postgres requires STORE_POSTGRES_DSN or DATABASE_URL")
	}
	return open(ctx, DialectPostgres, "pgx", dsn)
}

func open(ctx context.Context, dialect Dialect, driverName, dsn string) (*Store, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(ctx, config.DefaultTimeouts.Store.Connect)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", dialect, err)
	}

	s := &Store{dialect: dialect, db: db, now: time.Now}
	if err := s.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Debug().
		Str("dialect", string(dialect)).
		Msg("Opened session store")

	return s, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) bind(pos int) string {
	if s.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", pos)
	}
	return "?"
}

func (s *Store) applyMigrations(ctx context.Context) error {
	create := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL
		)
	`
	if _, err := s.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := map[string]bool{}
	rows, err := s.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("scan schema migration: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate schema migrations: %w", err)
	}
	rows.Close()

	files, err := fs.Glob(migrationFS, fmt.Sprintf("migrations/%s/*.sql", s.dialect))
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		base := filepath.Base(file)
		if applied[base] {
			continue
		}
		sqlBytes, err := migrationFS.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration tx %s: %w", file, err)
		}
		if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
		q := fmt.Sprintf("INSERT INTO schema_migrations (version, applied_at) VALUES (%s, %s)", s.bind(1), s.bind(2))
		if _, err := tx.ExecContext(ctx, q, base, s.now().UTC()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
		log.Info().
			Str("dialect", string(s.dialect)).
			Str("migration", base).
			Msg("Applied store migration")
	}

	return nil
}

// Get returns the value stored under key. ok is false when the key is absent.
func (s *Store) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, config.DefaultTimeouts.Store.Request)
	defer cancel()

	q := fmt.Sprintf("SELECT value FROM kv WHERE key = %s", s.bind(1))
	err = s.db.QueryRowContext(ctx, q, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value
func (s *Store) Set(ctx context.Context, key, value string) error {
	ctx, cancel := context.WithTimeout(ctx, config.DefaultTimeouts.Store.Request)
	defer cancel()

	q := fmt.Sprintf(
		"INSERT INTO kv (key, value, updated_at) VALUES (%s, %s, %s) "+
			"ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at",
		s.bind(1), s.bind(2), s.bind(3),
	)
	if _, err := s.db.ExecContext(ctx, q, key, value, s.now().UTC()); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Delete removes the given keys. Missing keys are ignored.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	ctx, cancel := context.WithTimeout(ctx, config.DefaultTimeouts.Store.Request)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	q := fmt.Sprintf("DELETE FROM kv WHERE key = %s", s.bind(1))
	for _, key := range keys {
		if _, err := tx.ExecContext(ctx, q, key); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to remove %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete tx: %w", err)
	}
	return nil
}

// SaveAPIKey stores the Torn API key
func (s *Store) SaveAPIKey(ctx context.Context, apiKey string) error {
	return s.Set(ctx, KeyAPIKey, apiKey)
}

// GetAPIKey returns the stored Torn API key, or "" when none is stored
func (s *Store) GetAPIKey(ctx context.Context) (string, error) {
	value, _, err := s.Get(ctx, KeyAPIKey)
	return value, err
}

// RemoveAPIKey removes the API key together with the cached username
func (s *Store) RemoveAPIKey(ctx context.Context) error {
	return s.Delete(ctx, KeyAPIKey, KeyUsername)
}

// SaveUsername caches the key owner's name
func (s *Store) SaveUsername(ctx context.Context, username string) error {
	return s.Set(ctx, KeyUsername, username)
}

// GetUsername returns the cached username, or "" when none is cached
func (s *Store) GetUsername(ctx context.Context) (string, error) {
	value, _, err := s.Get(ctx, KeyUsername)
	return value, err
}
