package tx

import (
	"context"
	"database/sql"
	"sync"
	"time"

	dErrors "copro/pkg/domain-errors"
)

const defaultTxTimeout = 5 * time.Second

// PostgresRunner runs a callback inside one database transaction. The
// transaction travels in the callback's context so every store reached
// from it joins the same unit of work.
type PostgresRunner struct {
	db      *sql.DB
	timeout time.Duration
}

type RunnerOption func(*PostgresRunner)

// WithTimeout bounds transactions whose context carries no deadline.
func WithTimeout(d time.Duration) RunnerOption {
	return func(t *PostgresRunner) {
		if d > 0 {
			t.timeout = d
		}
	}
}

func NewPostgresRunner(db *sql.DB, opts ...RunnerOption) *PostgresRunner {
	t := &PostgresRunner{db: db, timeout: defaultTxTimeout}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *PostgresRunner) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, ok := From(ctx); ok {
		return fn(ctx)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(WithTx(ctx, tx)); err != nil {
		return err
	}
	return tx.Commit()
}

// InMemoryRunner serializes callbacks so in-memory stores see the same
// read-then-write atomicity a database transaction gives.
type InMemoryRunner struct {
	mu sync.Mutex
}

func NewInMemoryRunner() *InMemoryRunner {
	return &InMemoryRunner{}
}

func (t *InMemoryRunner) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}
