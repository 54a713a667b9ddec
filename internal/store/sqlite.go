// ABOUTME: database/sql implementation of the Store for SQLite and PostgreSQL
// ABOUTME: Creates the schema, applies idempotent column migrations, and scopes transactions

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/lib/pq"           // registers "postgres"
	_ "github.com/mattn/go-sqlite3" // registers "sqlite3"
	_ "modernc.org/sqlite"          // registers "sqlite"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn implements Conn over a querier.
type conn struct {
	q      querier
	d      dialect
	tables map[string]TableSchema
	logger *slog.Logger
}

func (c *conn) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.q.ExecContext(ctx, c.d.rebind(query), args...)
}

func (c *conn) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.q.QueryContext(ctx, c.d.rebind(query), args...)
}

func (c *conn) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return c.q.QueryRowContext(ctx, c.d.rebind(query), args...)
}

func (c *conn) table(name string) (TableSchema, error) {
	t, ok := c.tables[name]
	if !ok {
		return TableSchema{}, fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	return t, nil
}

// SQLStore implements Store using database/sql.
type SQLStore struct {
	*conn
	db      *sql.DB
	schemas []TableSchema
}

var _ Store = (*SQLStore)(nil)

// NewSQLiteStore creates a new SQLite store at the given path using the pure Go
// driver. The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLStore, error) {
	return Open(DriverSQLite, path)
}

// Open connects with the named driver and prepares the schema. For the SQLite
// drivers dsn is a file path; for postgres it is a connection string.
func Open(driver, dsn string) (*SQLStore, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	if !d.postgres {
		// Ensure parent directory exists
		dir := filepath.Dir(strings.SplitN(dsn, "?", 2)[0])
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
		dsn = d.sqliteDSN(dsn)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s, err := Wrap(db, driver)
	if err != nil {
		db.Close()
		return nil, err
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	s.logger.Info("store initialized", "driver", driver)
	return s, nil
}

// Wrap builds a store around an open database without touching the schema.
func Wrap(db *sql.DB, driver string) (*SQLStore, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	schemas := NodeTables()
	tables := make(map[string]TableSchema, len(schemas))
	for _, t := range schemas {
		tables[t.Name] = t
	}

	return &SQLStore{
		conn: &conn{
			q:      db,
			d:      d,
			tables: tables,
			logger: slog.Default().With("component", "store"),
		},
		db:      db,
		schemas: schemas,
	}, nil
}

// Tables returns the node table schemas.
func (s *SQLStore) Tables() []TableSchema {
	return s.schemas
}

// DB exposes the underlying handle for health checks and tests.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// createSchema creates the database tables if they don't exist
func (s *SQLStore) createSchema() error {
	var stmts []string

	for _, t := range s.schemas {
		cols := []string{
			"id " + s.d.primaryKey(),
			"name TEXT NOT NULL",
			fmt.Sprintf("parent_id %s REFERENCES %s(id)", s.d.bigint(), t.Name),
			"comment TEXT NOT NULL DEFAULT ''",
			"last_modified TEXT NOT NULL",
			"created_at TEXT NOT NULL",
		}
		for _, c := range t.Extra {
			cols = append(cols, s.d.columnDDL(c))
		}
		stmts = append(stmts,
			fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", t.Name, strings.Join(cols, ",\n\t")),
			fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_parent ON %s(parent_id)", t.Name, t.Name),
			fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_name ON %s(parent_id, name)", t.Name, t.Name),
		)
	}

	stmts = append(stmts,
		`CREATE TABLE IF NOT EXISTS permissions (
			subject_type TEXT NOT NULL,
			subject_id   TEXT NOT NULL,
			category     TEXT NOT NULL,
			bits         INTEGER NOT NULL DEFAULT 0,
			updated_at   TEXT NOT NULL,

			PRIMARY KEY (subject_type, subject_id, category),
			CHECK (subject_type IN ('user', 'group'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_permissions_subject ON permissions(subject_type, subject_id)`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS attachments (
			id           %s,
			element_type TEXT NOT NULL,
			element_id   %s NOT NULL,
			name         TEXT NOT NULL,
			filename     TEXT NOT NULL DEFAULT '',
			created_at   TEXT NOT NULL
		)`, s.d.primaryKey(), s.d.bigint()),
		`CREATE INDEX IF NOT EXISTS idx_attachments_element ON attachments(element_type, element_id)`,

		`CREATE TABLE IF NOT EXISTS audit_log (
			audit_id    TEXT PRIMARY KEY,
			actor_id    TEXT NOT NULL,
			action      TEXT NOT NULL,
			target_type TEXT NOT NULL,
			target_id   TEXT NOT NULL,
			ts          TEXT NOT NULL,
			detail_json TEXT,

			CHECK (action IN (
				'create_node',
				'update_node',
				'move_node',
				'delete_node',
				'set_permission',
				'create_subject',
				'delete_subject'
			))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_ts ON audit_log(ts DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_actor ON audit_log(actor_id)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_target ON audit_log(target_type, target_id)`,
	)

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}

// runMigrations adds extra columns that are missing from existing databases.
// These are idempotent - safe to run multiple times.
func (s *SQLStore) runMigrations() error {
	check := `SELECT 1 FROM pragma_table_info(?) WHERE name = ?`
	if s.d.postgres {
		check = `SELECT 1 FROM information_schema.columns WHERE table_name = ? AND column_name = ?`
	}

	for _, t := range s.schemas {
		for _, c := range t.Extra {
			var exists int
			err := s.db.QueryRow(s.d.rebind(check), t.Name, c.Name).Scan(&exists)
			if err == nil {
				// Column already exists, skip
				continue
			}
			if !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("checking column %s.%s: %w", t.Name, c.Name, err)
			}
			if _, err := s.db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", t.Name, s.d.columnDDL(c))); err != nil {
				return fmt.Errorf("adding %s column to %s: %w", c.Name, t.Name, err)
			}
			s.logger.Info("applied migration", "column", c.Name, "table", t.Name)
		}
	}
	return nil
}

// WithTx runs fn in one transaction. The transaction is rolled back when fn
// returns an error or panics; the panic is re-raised after rollback.
func (s *SQLStore) WithTx(ctx context.Context, fn func(tx Conn) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	txConn := &conn{q: tx, d: s.d, tables: s.tables, logger: s.logger}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txConn); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("rolling back transaction", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	s.logger.Info("closing store")
	return s.db.Close()
}
