package repository

import (
	"context"
	"time"

	"poliventas-service/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoNotificationRepository struct {
	col *mongo.Collection
}

func NewMongoNotificationRepository(db *mongo.Database) *MongoNotificationRepository {
	return &MongoNotificationRepository{col: db.Collection("notificaciones")}
}

func (m *MongoNotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if n.EventKey == "" {
		_, err := m.col.InsertOne(ctx, n)
		return err
	}

	// upsert por evento: una redelivery encuentra la existente y no hace nada
	_, err := m.col.UpdateOne(ctx,
		bson.M{"evento": n.EventKey},
		bson.M{"$setOnInsert": n},
		options.Update().SetUpsert(true),
	)
	return err
}

func (m *MongoNotificationRepository) FindByUser(ctx context.Context, userID primitive.ObjectID, unreadOnly bool) ([]*model.Notification, error) {
	q := bson.M{"usuario": userID}
	if unreadOnly {
		q["leida"] = false
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(maxPageSize)

	cur, err := m.col.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[model.Notification](ctx, cur)
}

// MarkRead solo toca notificaciones del propio usuario.
func (m *MongoNotificationRepository) MarkRead(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := m.col.UpdateOne(ctx,
		bson.M{"_id": id, "usuario": userID},
		bson.M{"$set": bson.M{"leida": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoNotificationRepository) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := m.col.UpdateMany(ctx,
		bson.M{"usuario": userID, "leida": false},
		bson.M{"$set": bson.M{"leida": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
