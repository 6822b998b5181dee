package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// TxManager runs units of work in multi-document transactions. The server
// must be a replica set or sharded cluster.
type TxManager struct {
	client *mongo.Client
}

func NewTxManager(client *mongo.Client) *TxManager {
	return &TxManager{client: client}
}

// WithinTx starts a session and runs fn inside a transaction. The ctx passed
// to fn carries the session, so repository calls made with it join the
// transaction. Transient errors are retried by the driver.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	opts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	}, opts)
	return err
}
