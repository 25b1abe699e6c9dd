// Package repositories holds the storage contracts shared by every backend.
// Entity repositories live in the docsystem subpackage.
package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// TxFn is the unit of work passed to ExecTx. It must use the ctx it receives
// so repository calls join the transaction.
type TxFn func(ctx context.Context) error

// TransactionManager makes a document mutation and its audit entry
// all-or-nothing. A call nested inside another ExecTx joins the outer
// transaction instead of opening a second one.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgTxKey struct{}

// SetTx returns a ctx carrying tx for the Postgres repositories
func SetTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, pgTxKey{}, tx)
}

// GetTx returns the Postgres transaction carried by ctx, or nil
func GetTx(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(pgTxKey{}).(pgx.Tx)
	return tx
}
