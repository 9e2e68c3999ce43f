// Package engine provides a thin wrapper around sqlx.DB supporting sqlite and postgres.
package engine

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"  // postgres driver loaded here
	_ "modernc.org/sqlite" // sqlite driver loaded here
)

// Type is a type of database engine
type Type string

// enum of supported database engines
const (
	Unknown  Type = ""
	Sqlite   Type = "sqlite"
	Postgres Type = "postgres"
)

// SQL is a wrapper for sqlx.DB with type.
// Type allows distinguishing between different database engines.
type SQL struct {
	sqlx.DB
	gid    string // group id, to allow per-instance storage in the same database
	dbType Type   // type of the database engine
}

// TableConfig describes a table to initialize with InitTable
type TableConfig struct {
	Name          string
	CreateTable   DBCmd
	CreateIndexes DBCmd
	MigrateFunc   func(ctx context.Context, tx *sqlx.Tx, gid string) error
	QueriesMap    *QueryMap
}

// New creates a new database engine for the connection url. Postgres is used for postgres:// urls,
// sqlite for file paths, file:, sqlite:// urls and :memory:
func New(ctx context.Context, connURL, gid string) (*SQL, error) {
	if connURL == "" {
		return &SQL{}, fmt.Errorf("connection URL is empty")
	}
	switch {
	case strings.HasPrefix(connURL, "postgres://"), strings.HasPrefix(connURL, "postgresql://"):
		res, err := NewPostgres(ctx, connURL, gid)
		if err != nil {
			return &SQL{}, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return res, nil
	case connURL == ":memory:":
		return NewSqlite(connURL, gid)
	case strings.HasPrefix(connURL, "sqlite://"):
		return NewSqlite(strings.TrimPrefix(connURL, "sqlite://"), gid)
	case strings.HasPrefix(connURL, "file://"):
		return NewSqlite(strings.TrimPrefix(connURL, "file://"), gid)
	case strings.HasPrefix(connURL, "file:"):
		return NewSqlite(strings.TrimPrefix(connURL, "file:"), gid)
	case strings.HasSuffix(connURL, ".sqlite"), strings.HasSuffix(connURL, ".db"):
		return NewSqlite(connURL, gid)
	}
	return &SQL{}, fmt.Errorf("unsupported database type in connection URL %q", connURL)
}

// NewSqlite creates a new sqlite database
func NewSqlite(file, gid string) (*SQL, error) {
	db, err := sqlx.Connect("sqlite", file)
	if err != nil {
		return &SQL{}, err
	}
	if err := setSqlitePragma(db); err != nil {
		return &SQL{}, err
	}
	if file == ":memory:" {
		db.SetMaxOpenConns(1) // each connection to :memory: is a separate database
	}
	return &SQL{DB: *db, gid: gid, dbType: Sqlite}, nil
}

// NewPostgres creates a new postgres database connection
func NewPostgres(ctx context.Context, connURL, gid string) (*SQL, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", connURL)
	if err != nil {
		return &SQL{}, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	log.Printf("[DEBUG] connected to postgres, gid: %s", gid)
	return &SQL{DB: *db, gid: gid, dbType: Postgres}, nil
}

// GID returns the group id
func (e *SQL) GID() string {
	return e.gid
}

// Type returns the database engine type
func (e *SQL) Type() Type {
	return e.dbType
}

// MakeLock creates a new lock for the database engine
func (e *SQL) MakeLock() RWLocker {
	if e.dbType == Sqlite {
		return new(sync.RWMutex) // sqlite need locking
	}
	return &NoopLocker{} // other engines don't need locking
}

// Adopt converts "?" placeholders to "$N" for postgres. Placeholders inside quoted literals are kept.
func (e *SQL) Adopt(q string) string {
	if e.dbType != Postgres {
		return q
	}
	var res strings.Builder
	res.Grow(len(q) + 8)
	n, inQuote := 0, false
	for _, r := range q {
		switch {
		case r == '\'':
			inQuote = !inQuote
			res.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			res.WriteString("$" + strconv.Itoa(n))
		default:
			res.WriteRune(r)
		}
	}
	return res.String()
}

// InitTable creates the table and its indexes if the table doesn't exist and runs migration otherwise,
// all in a single transaction
func InitTable(ctx context.Context, db *SQL, cfg TableConfig) error {
	if db == nil {
		return fmt.Errorf("db connection is nil")
	}

	createTable, err := cfg.QueriesMap.Pick(db.Type(), cfg.CreateTable)
	if err != nil {
		return fmt.Errorf("failed to get create table query: %w", err)
	}
	createIndexes, err := cfg.QueriesMap.Pick(db.Type(), cfg.CreateIndexes)
	if err != nil {
		return fmt.Errorf("failed to get create indexes query: %w", err)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	existsQuery := "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?"
	if db.Type() == Postgres {
		existsQuery = "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1"
	}
	var exists int
	if err = tx.GetContext(ctx, &exists, existsQuery, cfg.Name); err != nil {
		return fmt.Errorf("failed to check for %s table existence: %w", cfg.Name, err)
	}

	if exists == 0 {
		if _, err = tx.ExecContext(ctx, createTable); err != nil {
			return fmt.Errorf("failed to create %s table: %w", cfg.Name, err)
		}
	}

	if cfg.MigrateFunc != nil {
		if err = cfg.MigrateFunc(ctx, tx, db.GID()); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", cfg.Name, err)
		}
	}

	if _, err = tx.ExecContext(ctx, createIndexes); err != nil {
		return fmt.Errorf("failed to create indexes for %s: %w", cfg.Name, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func setSqlitePragma(db *sqlx.DB) error {
	pragmas := []string{"busy_timeout = 5000"}
	for _, p := range pragmas {
		if _, err := db.Exec("PRAGMA " + p); err != nil {
			return err
		}
	}
	return nil
}
