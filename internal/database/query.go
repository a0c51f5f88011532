package database

import (
	"strings"
	"sync"
)

// QueryBuilder rewrites queries written with ? parameters into the
// dialect's placeholder syntax. Rewritten queries are cached by source
// text, so it is meant for the package's constant queries.
type QueryBuilder struct {
	dialect Dialect
	native  bool // dialect already uses ?
	cache   sync.Map
}

// NewQueryBuilder creates a QueryBuilder for dialect.
func NewQueryBuilder(dialect Dialect) *QueryBuilder {
	return &QueryBuilder{
		dialect: dialect,
		native:  dialect.Placeholder(1) == "?",
	}
}

// Build returns query with every ? outside a single-quoted literal replaced
// by the dialect's numbered placeholder:
//
//	SELECT tile FROM run_collapses WHERE run_id = ? AND step = ?
//	SELECT tile FROM run_collapses WHERE run_id = $1 AND step = $2
func (qb *QueryBuilder) Build(query string) string {
	if qb.native {
		return query
	}
	if cached, ok := qb.cache.Load(query); ok {
		return cached.(string)
	}

	out := rebind(query, qb.dialect.Placeholder)
	qb.cache.Store(query, out)
	return out
}

// BuildWithReturning builds an INSERT and, for dialects without
// LastInsertId, asks for column back.
func (qb *QueryBuilder) BuildWithReturning(query string, column string) string {
	built := qb.Build(query)
	if qb.dialect.SupportsLastInsertID() {
		return built
	}
	return built + qb.dialect.ReturningClause(column)
}

func rebind(query string, placeholder func(int) string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	inLiteral := false
	for _, r := range query {
		switch {
		case r == '\'':
			inLiteral = !inLiteral
		case r == '?' && !inLiteral:
			n++
			b.WriteString(placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
