package repository

import (
	"context"
	"regexp"
	"time"

	"poliventas-service/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoProductRepository struct {
	col *mongo.Collection
}

func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{col: db.Collection("productos")}
}

func (m *MongoProductRepository) Create(ctx context.Context, p *model.Product) error {
	now := time.Now().UTC()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := m.col.InsertOne(ctx, p)
	return err
}

func (m *MongoProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error) {
	var res model.Product
	if err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&res); err != nil {
		return nil, notFound(err)
	}
	return &res, nil
}

func (m *MongoProductRepository) Find(ctx context.Context, f model.ProductFilter) ([]*model.Product, error) {
	q := bson.M{}
	if f.SellerID != nil {
		q["vendedor"] = *f.SellerID
	}
	if f.Category != "" {
		q["categoria"] = f.Category
	}
	if f.OnlyActive {
		q["estado"] = model.ProductActive
	}
	if f.Search != "" {
		q["nombre"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
	}

	skip, limit := paginate(f.Page, f.Limit)
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	cur, err := m.col.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[model.Product](ctx, cur)
}

// Update escribe solo los campos presentes en u. Un cambio de stock se
// condiciona al valor leído para no pisar reservas hechas en el medio.
func (m *MongoProductRepository) Update(ctx context.Context, id primitive.ObjectID, u model.ProductUpdate) error {
	filter := bson.M{"_id": id}
	set := bson.M{"updatedAt": time.Now().UTC()}
	if u.Name != nil {
		set["nombre"] = *u.Name
	}
	if u.Description != nil {
		set["descripcion"] = *u.Description
	}
	if u.Category != nil {
		set["categoria"] = *u.Category
	}
	if u.Price != nil {
		set["precio"] = *u.Price
	}
	if u.Images != nil {
		set["imagenes"] = u.Images
	}
	if u.State != nil {
		set["estado"] = *u.State
	}
	if u.Stock != nil {
		set["stock"] = *u.Stock
		filter["stock"] = u.StockSeen
	}

	res, err := m.col.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if u.Stock != nil {
			return ErrConflict
		}
		return ErrNotFound
	}
	return nil
}

// ReserveStock descuenta qty solo si hay stock suficiente, en una sola operación.
func (m *MongoProductRepository) ReserveStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	res, err := m.col.UpdateOne(ctx,
		bson.M{"_id": id, "estado": model.ProductActive, "stock": bson.M{"$gte": qty}},
		bson.M{
			"$inc": bson.M{"stock": -qty},
			"$set": bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrInsufficientStock
	}
	return nil
}

func (m *MongoProductRepository) ReleaseStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	return m.inc(ctx, id, bson.M{"stock": qty})
}

func (m *MongoProductRepository) IncrementSold(ctx context.Context, id primitive.ObjectID, qty int) error {
	return m.inc(ctx, id, bson.M{"vendidos": qty})
}

func (m *MongoProductRepository) inc(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	res, err := m.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": fields, "$set": bson.M{"updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyRating recalcula el promedio de forma incremental con un update de pipeline.
func (m *MongoProductRepository) ApplyRating(ctx context.Context, id primitive.ObjectID, rating int) error {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"calificacionPromedio": bson.M{"$divide": bson.A{
				bson.M{"$add": bson.A{
					bson.M{"$multiply": bson.A{"$calificacionPromedio", "$totalResenas"}},
					rating,
				}},
				bson.M{"$add": bson.A{"$totalResenas", 1}},
			}},
			"totalResenas": bson.M{"$add": bson.A{"$totalResenas", 1}},
		}}},
	}

	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
