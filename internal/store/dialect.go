// ABOUTME: SQL dialect differences between SQLite and PostgreSQL backends
// ABOUTME: Placeholder rebinding, DDL column types, and driver-specific DSN pragmas

package store

import (
	"fmt"
	"strconv"
	"strings"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite"   // modernc.org/sqlite, pure Go
	DriverSQLite3  = "sqlite3"  // github.com/mattn/go-sqlite3, cgo
	DriverPostgres = "postgres" // github.com/lib/pq
)

type dialect struct {
	driver   string
	postgres bool
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case DriverSQLite, DriverSQLite3:
		return dialect{driver: driver}, nil
	case DriverPostgres:
		return dialect{driver: driver, postgres: true}, nil
	default:
		return dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (d dialect) rebind(query string) string {
	if !d.postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d dialect) primaryKey() string {
	if d.postgres {
		return "BIGSERIAL PRIMARY KEY"
	}
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

func (d dialect) bigint() string {
	if d.postgres {
		return "BIGINT"
	}
	return "INTEGER"
}

func (d dialect) columnDDL(c Column) string {
	switch c.Kind {
	case KindInt:
		return fmt.Sprintf("%s %s NOT NULL DEFAULT 0", c.Name, d.bigint())
	case KindBool:
		if d.postgres {
			return c.Name + " BOOLEAN NOT NULL DEFAULT FALSE"
		}
		return c.Name + " INTEGER NOT NULL DEFAULT 0"
	default:
		return c.Name + " TEXT NOT NULL DEFAULT ''"
	}
}

// sqliteDSN appends the pragmas every pooled connection needs.
func (d dialect) sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	if d.driver == DriverSQLite3 {
		return path + sep + "_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}
