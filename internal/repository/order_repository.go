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

type MongoOrderRepository struct {
	col *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{col: db.Collection("ordenes")}
}

func (m *MongoOrderRepository) Create(ctx context.Context, o *model.Order) error {
	now := time.Now().UTC()
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	o.CreatedAt = now
	o.UpdatedAt = now

	// Primer estado en historial
	if len(o.History) == 0 {
		o.History = []model.StatusRecord{
			{
				State:     o.State,
				ActorID:   o.BuyerID,
				Actor:     model.ActorBuyer,
				Reason:    "Orden creada",
				Timestamp: now,
				Current:   true,
			},
		}
	}

	_, err := m.col.InsertOne(ctx, o)
	return err
}

func (m *MongoOrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Order, error) {
	var res model.Order
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&res)
	if err != nil {
		return nil, notFound(err)
	}
	return &res, nil
}

func (m *MongoOrderRepository) FindByPaymentIntent(ctx context.Context, intentID string) (*model.Order, error) {
	var res model.Order
	err := m.col.FindOne(ctx, bson.M{"stripePaymentIntentId": intentID}).Decode(&res)
	if err != nil {
		return nil, notFound(err)
	}
	return &res, nil
}

func (m *MongoOrderRepository) SetPaymentIntent(ctx context.Context, id primitive.ObjectID, intentID string) error {
	res, err := m.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"stripePaymentIntentId": intentID, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyTransition aplica t solo si la orden sigue en t.From.
// Si otra escritura ganó la carrera devuelve ErrConflict.
func (m *MongoOrderRepository) ApplyTransition(ctx context.Context, id primitive.ObjectID, t model.Transition) (*model.Order, error) {
	now := t.Record.Timestamp
	if now.IsZero() {
		now = time.Now().UTC()
		t.Record.Timestamp = now
	}
	t.Record.State = t.To
	t.Record.Current = true

	filter := bson.M{"_id": id, "estado": t.From}

	set := bson.M{
		"estado":                t.To,
		"updatedAt":             now,
		"historial.$[].current": false,
	}
	switch t.To {
	case model.StateProofUploaded:
		set["comprobantePago"] = t.ProofURL
		set["fechaComprobante"] = now
	case model.StatePaymentApproved:
		set["fechaPagoConfirmado"] = now
	case model.StateCompleted:
		set["fechaCompletada"] = now
	case model.StateCancelled:
		set["fechaCancelacion"] = now
		set["motivoCancelacion"] = t.CancelReason
		set["canceladaPor"] = t.CancelledBy
	}
	if t.ReleaseStock {
		filter["stockReservado"] = true
		set["stockReservado"] = false
	}

	// PASO 1: cambiar estado y desmarcar el registro actual
	res, err := m.col.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, ErrConflict
	}

	// PASO 2: pushear el nuevo registro y devolver la orden actualizada
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out model.Order
	err = m.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$push": bson.M{"historial": t.Record}},
		opts,
	).Decode(&out)
	if err != nil {
		return nil, notFound(err)
	}
	return &out, nil
}

func (m *MongoOrderRepository) Find(ctx context.Context, f model.OrderFilter) ([]*model.Order, error) {
	q := bson.M{}
	if f.BuyerID != nil {
		q["comprador"] = *f.BuyerID
	}
	if f.SellerID != nil {
		q["vendedor"] = *f.SellerID
	}
	if f.State != "" {
		q["estado"] = f.State
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
	return decodeAll[model.Order](ctx, cur)
}

// CountCancelledBy cuenta las órdenes del comprador canceladas por actor.
func (m *MongoOrderRepository) CountCancelledBy(ctx context.Context, buyerID primitive.ObjectID, actor model.Actor) (int64, error) {
	return m.col.CountDocuments(ctx, bson.M{
		"comprador":    buyerID,
		"estado":       model.StateCancelled,
		"canceladaPor": actor,
	})
}

type stateBucket struct {
	State model.OrderState `bson:"_id"`
	Count int              `bson:"count"`
	Total float64          `bson:"total"`
	Units int              `bson:"units"`
}

func (m *MongoOrderRepository) SalesSummary(ctx context.Context, sellerID primitive.ObjectID) (*model.SalesSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"vendedor": sellerID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$estado",
			"count": bson.M{"$sum": 1},
			"total": bson.M{"$sum": "$total"},
			"units": bson.M{"$sum": "$cantidad"},
		}}},
	}

	cur, err := m.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	buckets, err := decodeAll[stateBucket](ctx, cur)
	if err != nil {
		return nil, err
	}

	out := &model.SalesSummary{CountByState: map[model.OrderState]int{}}
	for _, b := range buckets {
		out.CountByState[b.State] = b.Count
		if b.State == model.StatePaymentApproved || b.State == model.StateCompleted {
			out.Revenue += b.Total
			out.UnitsSold += b.Units
		}
	}
	return out, nil
}
