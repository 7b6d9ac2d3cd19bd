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

type MongoPaymentMethodRepository struct {
	col *mongo.Collection
}

func NewMongoPaymentMethodRepository(db *mongo.Database) *MongoPaymentMethodRepository {
	return &MongoPaymentMethodRepository{col: db.Collection("metodos_pago")}
}

func (m *MongoPaymentMethodRepository) Create(ctx context.Context, pm *model.PaymentMethod) error {
	now := time.Now().UTC()
	if pm.ID.IsZero() {
		pm.ID = primitive.NewObjectID()
	}
	pm.CreatedAt = now
	pm.UpdatedAt = now

	_, err := m.col.InsertOne(ctx, pm)
	return err
}

func (m *MongoPaymentMethodRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.PaymentMethod, error) {
	var res model.PaymentMethod
	if err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&res); err != nil {
		return nil, notFound(err)
	}
	return &res, nil
}

func (m *MongoPaymentMethodRepository) FindBySeller(ctx context.Context, sellerID primitive.ObjectID, onlyActive bool) ([]*model.PaymentMethod, error) {
	q := bson.M{"vendedor": sellerID}
	if onlyActive {
		q["activo"] = true
	}

	cur, err := m.col.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return decodeAll[model.PaymentMethod](ctx, cur)
}

func (m *MongoPaymentMethodRepository) Update(ctx context.Context, pm *model.PaymentMethod) error {
	pm.UpdatedAt = time.Now().UTC()
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": pm.ID}, bson.M{"$set": bson.M{
		"tipo":         pm.Type,
		"banco":        pm.Bank,
		"numeroCuenta": pm.AccountNumber,
		"titular":      pm.Holder,
		"qrImagen":     pm.QRImageURL,
		"detalle":      pm.Details,
		"activo":       pm.Active,
		"updatedAt":    pm.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Deactivate es un borrado lógico: las órdenes viejas siguen referenciando el método.
func (m *MongoPaymentMethodRepository) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"activo":    false,
		"updatedAt": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
