package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"shareit/internal/config"
	"shareit/internal/database/migrations"
	"shareit/internal/domain"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

// dbtx is the query surface shared by *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB is the relational store. A DB returned to an InTx callback is bound to
// that transaction; every other DB runs statements on the pool.
type DB struct {
	conn   *sql.DB
	q      dbtx
	inTx   bool
	driver string
	path   string
	logger *zerolog.Logger
}

var _ domain.Repository = (*DB)(nil)

// Open connects using the configured driver and applies migrations.
func Open(cfg config.DatabaseConfig, logger *zerolog.Logger) (*DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return NewPostgresDB(cfg.Postgres.DSN(), cfg.Postgres.MaxConnections, logger)
	case config.DriverSQLite, "":
		return NewDB(cfg.Path, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// NewDB opens (creating if needed) a sqlite database at path. ":memory:" is
// accepted for tests.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open(sqliteDriver, path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps :memory: databases alive and serializes writers
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn, q: conn, driver: config.DriverSQLite, path: path, logger: logger}
	if err := db.init(context.Background()); err != nil {
		conn.Close()
		return nil, err
	}

	logger.Info().Str("path", path).Msg("sqlite database initialized")
	return db, nil
}

// NewPostgresDB connects to postgres through the pgx stdlib driver.
func NewPostgresDB(dsn string, maxConns int, logger *zerolog.Logger) (*DB, error) {
	conn, err := sql.Open(config.DriverPostgres, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if maxConns > 0 {
		conn.SetMaxOpenConns(maxConns)
	}

	db := &DB{conn: conn, q: conn, driver: config.DriverPostgres, logger: logger}
	if err := db.init(context.Background()); err != nil {
		conn.Close()
		return nil, err
	}

	logger.Info().Msg("postgres database initialized")
	return db, nil
}

func (db *DB) init(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (db *DB) migrate(ctx context.Context) error {
	dir := "sqlite"
	if db.driver == config.DriverPostgres {
		dir = "postgres"
	}

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(gooseLogger{db.logger})
	if err := goose.SetDialect(db.driver); err != nil {
		return err
	}
	return goose.UpContext(ctx, db.conn, dir)
}

// Driver reports the driver name the DB was opened with.
func (db *DB) Driver() string {
	return db.driver
}

// Path is the sqlite file path, empty for postgres.
func (db *DB) Path() string {
	return db.path
}

// SnapshotTo writes a consistent copy of a sqlite database to dst.
func (db *DB) SnapshotTo(ctx context.Context, dst string) error {
	if db.driver != config.DriverSQLite {
		return fmt.Errorf("snapshot not supported for %s", db.driver)
	}
	if _, err := db.conn.ExecContext(ctx, "VACUUM INTO ?", dst); err != nil {
		return fmt.Errorf("vacuum into %s: %w", dst, err)
	}
	return nil
}

func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// InTx runs fn in a single transaction. Nested calls join the outer one.
func (db *DB) InTx(ctx context.Context, fn func(ctx context.Context, tx domain.Repository) error) error {
	if db.inTx {
		return fn(ctx, db)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	bound := *db
	bound.q = tx
	bound.inTx = true

	if err := fn(ctx, &bound); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders into $n for postgres.
func (db *DB) rebind(query string) string {
	if db.driver != config.DriverPostgres {
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

func (db *DB) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.q.ExecContext(ctx, db.rebind(query), args...)
}

func (db *DB) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.q.QueryContext(ctx, db.rebind(query), args...)
}

func (db *DB) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return db.q.QueryRowContext(ctx, db.rebind(query), args...)
}

// insert runs an INSERT ... RETURNING id statement.
func (db *DB) insert(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	if err := db.queryRow(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// inClause renders "?, ?, ?" for ids and returns them as query args.
func inClause(ids []int64) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", "), args
}

func utc(t time.Time) time.Time {
	return t.UTC()
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound(format, args...)
	}
	return err
}

type gooseLogger struct {
	logger *zerolog.Logger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug().Msgf(strings.TrimSpace(format), v...)
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Fatal().Msgf(strings.TrimSpace(format), v...)
}
