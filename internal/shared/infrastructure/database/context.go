package database

import "context"

type txKey struct{}

// TxInfo holds the transaction in context and whether the current unit of
// work owns it.
type TxInfo struct {
	Tx    Transaction
	Owned bool
}

// WithTx stores transaction info in the context.
func WithTx(ctx context.Context, tx Transaction, owned bool) context.Context {
	return context.WithValue(ctx, txKey{}, TxInfo{Tx: tx, Owned: owned})
}

// TxFromContext extracts the transaction from the context, or nil.
func TxFromContext(ctx context.Context) Transaction {
	info, ok := ctx.Value(txKey{}).(TxInfo)
	if !ok || info.Tx == nil {
		return nil
	}
	return info.Tx
}

// TxInfoFromContext extracts full transaction info from the context.
func TxInfoFromContext(ctx context.Context) (TxInfo, bool) {
	info, ok := ctx.Value(txKey{}).(TxInfo)
	if !ok || info.Tx == nil {
		return TxInfo{}, false
	}
	return info, true
}

// ExecutorFromContext returns the context's transaction if one is present,
// otherwise the bare connection. Repositories call this so the same code
// runs inside and outside a unit of work.
func ExecutorFromContext(ctx context.Context, conn Connection) Executor {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return conn
}
