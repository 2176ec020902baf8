package database

import (
	"context"
	"errors"
)

// GenericUnitOfWork implements application.UnitOfWork for any Connection.
// Nested Begin calls reuse the outer transaction; only the outermost unit
// commits or rolls back.
type GenericUnitOfWork struct {
	conn Connection
}

// NewUnitOfWork creates a unit of work over the given connection.
func NewUnitOfWork(conn Connection) *GenericUnitOfWork {
	return &GenericUnitOfWork{conn: conn}
}

// Begin starts a transaction and stores it in the context. An existing
// transaction is reused and marked as not owned.
func (u *GenericUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if info, ok := TxInfoFromContext(ctx); ok {
		return WithTx(ctx, info.Tx, false), nil
	}

	tx, err := u.conn.BeginTx(ctx)
	if err != nil {
		return nil, err
	}

	return WithTx(ctx, tx, true), nil
}

// Commit commits the transaction if this unit owns it.
func (u *GenericUnitOfWork) Commit(ctx context.Context) error {
	info, ok := TxInfoFromContext(ctx)
	if !ok {
		return errors.New("no transaction in context")
	}
	if !info.Owned {
		return nil
	}
	return info.Tx.Commit(ctx)
}

// Rollback rolls back the transaction if this unit owns it.
func (u *GenericUnitOfWork) Rollback(ctx context.Context) error {
	info, ok := TxInfoFromContext(ctx)
	if !ok {
		return errors.New("no transaction in context")
	}
	if !info.Owned {
		return nil
	}
	return info.Tx.Rollback(ctx)
}
