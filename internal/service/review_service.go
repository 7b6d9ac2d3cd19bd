package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"poliventas-service/internal/model"
	"poliventas-service/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReviewService struct {
	tx       TxRunner
	reviews  ReviewRepository
	orders   OrderRepository
	products ProductRepository
	events   EventPublisher
}

func NewReviewService(tx TxRunner, reviews ReviewRepository, orders OrderRepository, products ProductRepository, events EventPublisher) *ReviewService {
	return &ReviewService{tx: tx, reviews: reviews, orders: orders, products: products, events: events}
}

type ReviewInput struct {
	OrderID primitive.ObjectID
	Rating  int
	Comment string
}

// Create guarda la reseña y actualiza el promedio del producto juntos.
// Solo el comprador de una orden completada puede reseñar, una vez por orden.
func (s *ReviewService) Create(ctx context.Context, r Requester, in ReviewInput) (*model.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, fmt.Errorf("%w: la calificación va de 1 a 5", ErrInvalidInput)
	}

	o, err := s.orders.FindByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if o.BuyerID != r.ID {
		return nil, ErrForbidden
	}
	if o.State != model.StateCompleted {
		return nil, ErrReviewNotAllowed
	}

	review := &model.Review{
		ID:        primitive.NewObjectID(),
		OrderID:   o.ID,
		ProductID: o.ProductID,
		BuyerID:   r.ID,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.reviews.ExistsForOrder(ctx, o.ID)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyReviewed
		}
		if err := s.reviews.Create(ctx, review); err != nil {
			return err
		}
		return s.products.ApplyRating(ctx, o.ProductID, in.Rating)
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrAlreadyReviewed
	}
	if err != nil {
		return nil, err
	}

	publish(ctx, s.events, newOrderEvent(model.NotifyNewReview, o, model.ActorBuyer, ""))
	return review, nil
}

func (s *ReviewService) ListByProduct(ctx context.Context, productID primitive.ObjectID, page, limit int) ([]*model.Review, error) {
	return s.reviews.FindByProduct(ctx, productID, page, limit)
}
