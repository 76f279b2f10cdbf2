// Package sqlstore implements store.Store on a relational database through
// sqlx, with queries built by goqu. SQLite (modernc) is the default driver;
// PostgreSQL is reached through pgx's database/sql adapter.
package sqlstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/locallibrary/locallibrary-server/internal/domain"
	"github.com/locallibrary/locallibrary-server/internal/store"
)

//go:embed schema_sqlite.sql
var schemaSQLite string

//go:embed schema_postgres.sql
var schemaPostgres string

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// casefoldFunc is registered on every SQLite connection. The built-in lower()
// only folds ASCII, which would make "émile" miss "Émile".
const casefoldFunc = "casefold"

func init() {
	err := sqlite.RegisterDeterministicScalarFunction(casefoldFunc, 1,
		func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			switch v := args[0].(type) {
			case nil:
				return nil, nil
			case string:
				return strings.ToLower(v), nil
			case []byte:
				return strings.ToLower(string(v)), nil
			default:
				return v, nil
			}
		})
	if err != nil {
		panic(fmt.Sprintf("register sqlite %s: %v", casefoldFunc, err))
	}
}

// Config selects the database.
type Config struct {
	Driver string
	DSN    string
}

// Store provides relational persistence for the catalog.
type Store struct {
	db      *sqlx.DB
	dialect goqu.DialectWrapper
	driver  string
	lower   string
	logger  *slog.Logger

	searchIndexer store.SearchIndexer
	now           func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open connects to the database and applies the schema.
// For SQLite the DSN is a file path; WAL mode, foreign keys and a busy
// timeout are set on every pooled connection.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	var (
		driverName, dsn, schema, dialect, lower string
	)

	switch cfg.Driver {
	case DriverSQLite, "":
		driverName, dialect, schema, lower = "sqlite", "sqlite3", schemaSQLite, casefoldFunc
		dsn = sqliteDSN(cfg.DSN)
	case DriverPostgres:
		driverName, dialect, schema, lower = "pgx", "postgres", schemaPostgres, "LOWER"
		dsn = cfg.DSN
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	if driverName == "sqlite" {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(2)
	} else {
		db.SetMaxOpenConns(16)
		db.SetMaxIdleConns(4)
	}
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}

	for _, stmt := range splitStatements(schema) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec schema: %w", err)
		}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		db:            db,
		dialect:       goqu.Dialect(dialect),
		driver:        driverName,
		lower:         lower,
		logger:        logger,
		searchIndexer: store.NewNoopSearchIndexer(),
		now:           time.Now,
	}, nil
}

// sqliteDSN turns a file path into a modernc DSN carrying the connection pragmas.
func sqliteDSN(path string) string {
	pragmas := "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	if strings.Contains(path, "?") {
		return path + "&" + pragmas
	}
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	return path + "?" + pragmas
}

// splitStatements breaks a schema file into single statements so that every
// driver can run them without multi-statement support.
func splitStatements(schema string) []string {
	var out []string
	var current strings.Builder
	for line := range strings.SplitSeq(schema, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteByte('\n')
		if strings.HasSuffix(trimmed, ";") {
			out = append(out, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if rest := strings.TrimSpace(current.String()); rest != "" {
		out = append(out, rest)
	}
	return out
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Shutdown implements the DI shutdown hook.
func (s *Store) Shutdown() error {
	return s.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Driver returns the configured driver name.
func (s *Store) Driver() string {
	if s.driver == "pgx" {
		return DriverPostgres
	}
	return DriverSQLite
}

// SetSearchIndexer sets the search indexer used for maintaining the search index.
func (s *Store) SetSearchIndexer(indexer store.SearchIndexer) {
	if indexer == nil {
		indexer = store.NewNoopSearchIndexer()
	}
	s.searchIndexer = indexer
}

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	sqlx.QueryerContext
	sqlx.ExecerContext
}

// sqlBuilder is any goqu dataset that can render itself.
type sqlBuilder interface {
	ToSQL() (string, []any, error)
}

func (s *Store) selectAll(ctx context.Context, q queryer, dest any, ds *goqu.SelectDataset) error {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return sqlx.SelectContext(ctx, q, dest, query, args...)
}

func (s *Store) selectOne(ctx context.Context, q queryer, dest any, ds *goqu.SelectDataset) error {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	err = sqlx.GetContext(ctx, q, dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func (s *Store) count(ctx context.Context, ds *goqu.SelectDataset) (int, error) {
	var n int
	if err := s.selectOne(ctx, s.db, &n, ds); err != nil {
		return 0, err
	}
	return n, nil
}

// exec runs a prepared insert/update/delete and returns the affected row count.
func (s *Store) exec(ctx context.Context, q queryer, b sqlBuilder) (int64, error) {
	query, args, err := b.ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build statement: %w", err)
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// withTx runs fn inside a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// violation classifies integrity errors from either driver.
type violation int

const (
	noViolation violation = iota
	uniqueViolation
	foreignKeyViolation
)

func classify(err error) violation {
	if err == nil {
		return noViolation
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return uniqueViolation
		case "23503":
			return foreignKeyViolation
		}
		return noViolation
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return uniqueViolation
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return foreignKeyViolation
		}
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return uniqueViolation
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return foreignKeyViolation
	}
	return noViolation
}

// writeErr maps integrity failures on insert/update to store errors.
func writeErr(err error) error {
	switch classify(err) {
	case uniqueViolation:
		return store.ErrAlreadyExists.WithCause(err)
	case foreignKeyViolation:
		return store.ErrInvalidReference.WithCause(err)
	default:
		return err
	}
}

// deleteErr maps integrity failures on delete to store errors.
func deleteErr(err error) error {
	if classify(err) == foreignKeyViolation {
		return store.ErrInUse.WithCause(err)
	}
	return err
}

// containsPattern builds a LIKE pattern matching term anywhere, with LIKE
// metacharacters escaped by backslash.
func containsPattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(term)) + "%"
}

// containsFold matches rows where col contains term, ignoring case.
func (s *Store) containsFold(col any, term string) goqu.Expression {
	return goqu.L(s.lower+`(?) LIKE ? ESCAPE '\'`, col, containsPattern(term))
}

// formatTime formats a time.Time to RFC3339Nano for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses a RFC3339Nano string back to time.Time.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// parseNullableTime parses an optional time string.
func parseNullableTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// formatDate returns a calendar date for storage, or nil for NULL.
func formatDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(domain.DateLayout)
}

// parseNullableDate parses an optional YYYY-MM-DD column.
func parseNullableDate(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(domain.DateLayout, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// nullable returns nil for empty strings so they are stored as NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// stampNew fills in ID and timestamps for a record about to be inserted.
func (s *Store) stampNew(r *domain.Record, newID func() (string, error)) error {
	if r.ID == "" {
		id, err := newID()
		if err != nil {
			return err
		}
		r.ID = id
	}
	now := s.now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	return nil
}

// indexBook pushes a saved book to the search index. Failures only log.
func (s *Store) indexBook(ctx context.Context, b *domain.Book) {
	if err := s.searchIndexer.IndexBook(ctx, b); err != nil {
		s.logger.Warn("failed to index book", "book_id", b.ID, "error", err)
	}
}

func (s *Store) indexAuthor(ctx context.Context, a *domain.Author) {
	if err := s.searchIndexer.IndexAuthor(ctx, a); err != nil {
		s.logger.Warn("failed to index author", "author_id", a.ID, "error", err)
	}
}

// reorder returns items sorted to follow ids; ids with no item are skipped.
func reorder[T any](ids []string, items []T, key func(T) string) []T {
	byID := make(map[string]T, len(items))
	for _, it := range items {
		byID[key(it)] = it
	}
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if it, ok := byID[id]; ok {
			out = append(out, it)
		}
	}
	return out
}
