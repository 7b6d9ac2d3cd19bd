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

type MongoReviewRepository struct {
	col *mongo.Collection
}

func NewMongoReviewRepository(db *mongo.Database) *MongoReviewRepository {
	return &MongoReviewRepository{col: db.Collection("resenas")}
}

// Create falla con ErrDuplicate si la orden ya tiene reseña (índice único en orden).
func (m *MongoReviewRepository) Create(ctx context.Context, r *model.Review) error {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	r.CreatedAt = time.Now().UTC()

	_, err := m.col.InsertOne(ctx, r)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (m *MongoReviewRepository) ExistsForOrder(ctx context.Context, orderID primitive.ObjectID) (bool, error) {
	n, err := m.col.CountDocuments(ctx, bson.M{"orden": orderID}, options.Count().SetLimit(1))
	return n > 0, err
}

func (m *MongoReviewRepository) FindByProduct(ctx context.Context, productID primitive.ObjectID, page, limit int) ([]*model.Review, error) {
	skip, lim := paginate(page, limit)
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip).
		SetLimit(lim)

	cur, err := m.col.Find(ctx, bson.M{"producto": productID}, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[model.Review](ctx, cur)
}
