package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/amishk599/pitchdesk/internal/model"
)

// Supported backends. The names double as migration directory names.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

var _ model.Store = (*SQLStore)(nil)

// SQLStore persists sources, postings, proposals and team profiles in a SQL
// database. Queries are written with ? placeholders and rebound per backend.
type SQLStore struct {
	db      *sql.DB
	backend string
}

// Open connects to the named backend. For sqlite, dsn is a file path.
func Open(backend, dsn string) (*SQLStore, error) {
	switch backend {
	case BackendSQLite, "":
		return NewSQLiteStore(dsn)
	case BackendPostgres:
		return NewPostgresStore(dsn)
	default:
		return nil, fmt.Errorf("unknown database driver %q", backend)
	}
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath. Call Migrate
// before use.
func NewSQLiteStore(dbPath string) (*SQLStore, error) {
	dsn := dbPath
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between source loops.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}
	return &SQLStore{db: db, backend: BackendSQLite}, nil
}

// NewPostgresStore connects to PostgreSQL through the pgx stdlib driver.
func NewPostgresStore(dsn string) (*SQLStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres db: %w", err)
	}
	return &SQLStore{db: db, backend: BackendPostgres}, nil
}

// Backend returns the backend name.
func (s *SQLStore) Backend() string {
	return s.backend
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $N for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.backend != BackendPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// expectOne maps a zero-row update to model.ErrNotFound.
func expectOne(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, model.ErrNotFound)
	}
	return nil
}
