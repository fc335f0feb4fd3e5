package executor

import (
	"context"
	"database/sql"
)

// Tx is an open transaction that a test case runs inside of. It is always rolled back.
type Tx interface {
	Rollback() error
}

// TxManager opens the transaction that isolates one test case.
type TxManager interface {
	Begin(ctx context.Context) (Tx, error)
}

// NoopTxManager is for targets that have no database, or manage isolation themselves.
type NoopTxManager struct{}

type noopTx struct{}

func (noopTx) Rollback() error { return nil }

func (NoopTxManager) Begin(context.Context) (Tx, error) { return noopTx{}, nil }

// SQLTxManager opens a transaction on a database/sql connection pool. In-process handlers can
// find it with TxFromContext and run their queries in it, so that nothing they write survives
// the test case.
type SQLTxManager struct {
	DB      *sql.DB
	Options *sql.TxOptions
}

func (m SQLTxManager) Begin(ctx context.Context) (Tx, error) {
	return m.DB.BeginTx(ctx, m.Options)
}

type txContextKey struct{}

// WithTx returns a context carrying tx.
func WithTx(ctx context.Context, tx Tx) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// TxFromContext returns the transaction of the test case that issued a request, if the
// request was delivered in-process.
func TxFromContext(ctx context.Context) (Tx, bool) {
	tx, ok := ctx.Value(txContextKey{}).(Tx)
	return tx, ok
}

// SQLTxFromContext is TxFromContext for transactions opened by SQLTxManager.
func SQLTxFromContext(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txContextKey{}).(*sql.Tx)
	return tx, ok
}
