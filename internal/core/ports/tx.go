package ports

import "context"

// TxManager runs fn inside a storage transaction. Repository calls made with
// the ctx handed to fn take part in it; any error rolls every write back.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
