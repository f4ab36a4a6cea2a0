package storage

import (
	"strconv"
	"strings"

	"schoolledger/internal/core"
)

// Dialect selects the SQL engine behind a repository.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

func (d Dialect) IsValid() bool {
	return d == SQLite || d == Postgres
}

func (d Dialect) driverName() string {
	if d == Postgres {
		return "pgx"
	}
	return "sqlite"
}

// rebind rewrites ? placeholders to $n for postgres.
func (d Dialect) rebind(query string) string {
	if d != Postgres {
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

// dateArg encodes a calendar day as a query argument. SQLite stores ISO
// text, postgres a DATE.
func (d Dialect) dateArg(day core.Date) any {
	if d == Postgres {
		return day.Time
	}
	return day.String()
}
