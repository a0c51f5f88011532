package database

// Dialect hides the SQL differences between the archive backends.
type Dialect interface {
	// DriverName is the database/sql driver to open.
	DriverName() string

	// Placeholder is the bind parameter for the 1-based position n.
	Placeholder(n int) string

	// SupportsLastInsertID is false when inserted ids must come back
	// through ReturningClause.
	SupportsLastInsertID() bool
	ReturningClause(column string) string

	// InitStatements run once per connection pool, before migrations.
	InitStatements() []string

	// SerialPrimaryKey is the column type of runs.id.
	SerialPrimaryKey() string

	// IsDuplicateKeyError reports a unique index violation.
	IsDuplicateKeyError(err error) bool
}

// DialectType names a backend in configuration.
type DialectType string

const (
	DialectSQLite   DialectType = "sqlite"
	DialectPostgres DialectType = "postgres"
)

// NewDialect returns the dialect for t. Anything but postgres is SQLite.
func NewDialect(t DialectType) Dialect {
	if t == DialectPostgres {
		return &PostgresDialect{}
	}
	return &SQLiteDialect{}
}
