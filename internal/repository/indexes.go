package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes crea los índices que usan los repositorios. Es idempotente.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	byCollection := map[string][]mongo.IndexModel{
		"ordenes": {
			{Keys: bson.D{{Key: "comprador", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "vendedor", Value: 1}, {Key: "estado", Value: 1}}},
			{
				Keys:    bson.D{{Key: "stripePaymentIntentId", Value: 1}},
				Options: options.Index().SetSparse(true),
			},
		},
		"productos": {
			{Keys: bson.D{{Key: "estado", Value: 1}, {Key: "categoria", Value: 1}}},
			{Keys: bson.D{{Key: "vendedor", Value: 1}}},
		},
		"metodos_pago": {
			{Keys: bson.D{{Key: "vendedor", Value: 1}}},
		},
		"resenas": {
			{Keys: bson.D{{Key: "orden", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "producto", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		"notificaciones": {
			{Keys: bson.D{{Key: "usuario", Value: 1}, {Key: "leida", Value: 1}, {Key: "createdAt", Value: -1}}},
			{
				Keys:    bson.D{{Key: "evento", Value: 1}},
				Options: options.Index().SetUnique(true).SetSparse(true),
			},
		},
	}

	for col, models := range byCollection {
		if _, err := db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("creando índices de %s: %w", col, err)
		}
	}
	return nil
}
