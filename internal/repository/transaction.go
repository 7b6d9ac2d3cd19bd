package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// MongoTxRunner ejecuta fn dentro de una transacción de MongoDB.
// Requiere un replica set; el contexto que recibe fn lleva la sesión.
type MongoTxRunner struct {
	client *mongo.Client
}

func NewMongoTxRunner(client *mongo.Client) *MongoTxRunner {
	return &MongoTxRunner{client: client}
}

func (r *MongoTxRunner) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	// WithTransaction reintenta fn ante errores transitorios (write conflicts)
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
