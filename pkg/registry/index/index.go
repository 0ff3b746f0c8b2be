// Package index implements the relational metadata store of the registry on
// SQLite: owners, repositories, upload sessions, blobs, manifests, and
// manifest layers.
//
// All access goes through a transaction obtained from Begin. The façade
// performs every read and write of one registry operation inside a single
// transaction; content-store writes happen before commit, deletes after the
// final confirming read.
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	"github.com/benbjohnson/clock"
	"github.com/mattn/go-sqlite3"

	"github.com/wharfd/wharfd/pkg/errdefs"
	"github.com/wharfd/wharfd/pkg/xlog"
)

const (
	// DefaultMaxConns bounds the connection pool.
	DefaultMaxConns = 5

	busyTimeoutMillis = 5000
)

// Options configures an Index.
type Options struct {
	// MaxConns bounds the connection pool, DefaultMaxConns when zero.
	MaxConns int
	// LogStatements logs every statement at debug level.
	LogStatements bool
	// Clock supplies created-at timestamps, the wall clock when nil.
	Clock clock.Clock
}

// Index is a handle to the SQLite database. It is safe for concurrent use.
type Index struct {
	db            *sql.DB
	clock         clock.Clock
	logStatements bool
}

// Open opens (creating when absent) the database at path and applies the
// schema.
//
// Transactions begin immediate: a deferred transaction that reads before
// writing pins a snapshot, and when a concurrent committer gets there first
// the write upgrade fails with BUSY_SNAPSHOT, which the busy handler never
// retries. Taking the write lock at Begin serializes transactions on the
// busy timeout instead, so each one reads the previous winner's commit.
func Open(path string, opts Options) (*Index, error) {
	dsn := fmt.Sprintf("file:%s?%s", path, url.Values{
		"_busy_timeout": []string{fmt.Sprint(busyTimeoutMillis)},
		"_journal_mode": []string{"WAL"},
		"_foreign_keys": []string{"on"},
		"_txlock":       []string{"immediate"},
	}.Encode())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errdefs.NewE(errdefs.ErrSystem, err)
	}

	maxConns := opts.MaxConns
	if maxConns <= 0 {
		maxConns = DefaultMaxConns
	}
	db.SetMaxOpenConns(maxConns)

	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}

	idx := &Index{db: db, clock: clk, logStatements: opts.LogStatements}
	if err := idx.applySchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return idx, nil
}

// Close closes the underlying database.
func (i *Index) Close() error {
	return i.db.Close()
}

// Begin starts a transaction.
func (i *Index) Begin(ctx context.Context) (*Tx, error) {
	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errdefs.NewE(errdefs.ErrSystem, err)
	}
	return &Tx{tx: tx, idx: i}, nil
}

func (i *Index) applySchema(ctx context.Context) error {
	if _, err := i.db.ExecContext(ctx, schema); err != nil {
		return errdefs.Newf(errdefs.ErrSystem, "apply schema: %v", err)
	}
	return nil
}

// Tx is one transaction over the index. It is not safe for concurrent use.
type Tx struct {
	tx  *sql.Tx
	idx *Index
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return errdefs.NewE(errdefs.ErrSystem, err)
	}
	return nil
}

// Rollback aborts the transaction. Rolling back after a commit is a no-op.
func (t *Tx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return errdefs.NewE(errdefs.ErrSystem, err)
	}
	return nil
}

func (t *Tx) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	t.logStatement(query)
	return t.tx.ExecContext(ctx, query, args...)
}

func (t *Tx) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	t.logStatement(query)
	return t.tx.QueryRowContext(ctx, query, args...)
}

func (t *Tx) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	t.logStatement(query)
	return t.tx.QueryContext(ctx, query, args...)
}

func (t *Tx) logStatement(query string) {
	if t.idx.logStatements {
		xlog.Default().Debug("executing statement", "query", query)
	}
}

// IsUniqueViolation reports whether the error is a SQLite unique-constraint
// violation. The façade uses it to recover from concurrent repository
// creation.
func IsUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if !errors.As(err, &serr) {
		return false
	}
	return serr.Code == sqlite3.ErrConstraint &&
		(serr.ExtendedCode == sqlite3.ErrConstraintUnique || serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
}
