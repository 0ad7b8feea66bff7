package sql

import (
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect identifies the SQL flavour and the database/sql driver name.
type Dialect string

const (
	// DialectSQLite uses modernc.org/sqlite, ? placeholders.
	DialectSQLite Dialect = "sqlite"
	// DialectPostgres uses github.com/lib/pq, $n placeholders.
	DialectPostgres Dialect = "postgres"
)

// DriverName returns the registered database/sql driver name.
func (d Dialect) DriverName() string {
	return string(d)
}

// ParseDialect maps a store vendor name onto a dialect.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pq":
		return DialectPostgres, nil
	}
	return "", fmt.Errorf("unsupported sql dialect: %s", name)
}

// Rebind rewrites ? placeholders for the dialect.
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
