// Package executor runs SQL statements against a database/sql connection
// inside a single transaction.
package executor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"sync"
)

// Row is one result row. Columns and Values are parallel and keep the
// order the database returned.
type Row struct {
	Columns []string
	Values  []any
}

// Get returns the value of the named column.
func (r Row) Get(column string) (any, bool) {
	for i, c := range r.Columns {
		if c == column {
			return r.Values[i], true
		}
	}
	return nil, false
}

// Session executes statements in one transaction, begun on first use.
// A Session is safe for use by one goroutine at a time.
type Session struct {
	db     *sql.DB
	ownsDB bool

	mu sync.Mutex
	tx *sql.Tx
}

// Open connects with driver (DriverName when empty) to dsn.
func Open(driver, dsn string) (*Session, error) {
	if driver == "" {
		driver = DriverName
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	// One connection keeps ":memory:" databases and the transaction on the
	// same handle.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect %s database: %w", driver, err)
	}
	return &Session{db: db, ownsDB: true}, nil
}

// NewSession wraps an existing handle. Close leaves db open.
func NewSession(db *sql.DB) *Session {
	return &Session{db: db}
}

func (s *Session) begin(ctx context.Context) (*sql.Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != nil {
		return s.tx, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	s.tx = tx
	return tx, nil
}

// Execute runs a statement that returns no rows.
func (s *Session) Execute(ctx context.Context, stmt string) error {
	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("execute %q: %w", stmt, err)
	}
	return nil
}

// Query runs stmt and yields its rows as they are read. Stopping the range
// early closes the result set.
func (s *Session) Query(ctx context.Context, stmt string) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		tx, err := s.begin(ctx)
		if err != nil {
			yield(Row{}, err)
			return
		}
		rows, err := tx.QueryContext(ctx, stmt)
		if err != nil {
			yield(Row{}, fmt.Errorf("query %q: %w", stmt, err))
			return
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			yield(Row{}, fmt.Errorf("query %q: columns: %w", stmt, err))
			return
		}
		for rows.Next() {
			values := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range values {
				ptrs[i] = &values[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				yield(Row{}, fmt.Errorf("query %q: scan: %w", stmt, err))
				return
			}
			for i, v := range values {
				if b, ok := v.([]byte); ok {
					values[i] = string(b)
				}
			}
			if !yield(Row{Columns: cols, Values: values}, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(Row{}, fmt.Errorf("query %q: %w", stmt, err))
		}
	}
}

// ErrNoTransaction is returned by Commit and Rollback before any statement ran.
var ErrNoTransaction = errors.New("no transaction in progress")

// Commit commits the work done so far. A later statement starts a new
// transaction.
func (s *Session) Commit() error {
	return s.finish((*sql.Tx).Commit)
}

// Rollback discards the work done since the last commit.
func (s *Session) Rollback() error {
	return s.finish((*sql.Tx).Rollback)
}

func (s *Session) finish(end func(*sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx == nil {
		return ErrNoTransaction
	}
	err := end(s.tx)
	s.tx = nil
	return err
}

// Close rolls back any open transaction and closes the database if the
// session opened it.
func (s *Session) Close() error {
	if err := s.Rollback(); err != nil && !errors.Is(err, ErrNoTransaction) {
		return err
	}
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}
