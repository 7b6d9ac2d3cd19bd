package service

import (
	"context"
	"testing"

	"poliventas-service/internal/model"
	"poliventas-service/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newReviewFixture() (*ReviewService, *MockReviewRepository, *MockOrderRepository, *MockProductRepository, *recordingPublisher) {
	reviews := new(MockReviewRepository)
	orders := new(MockOrderRepository)
	products := new(MockProductRepository)
	pub := &recordingPublisher{}
	return NewReviewService(&fakeTx{}, reviews, orders, products, pub), reviews, orders, products, pub
}

func TestCreateReview(t *testing.T) {
	svc, reviews, orders, products, pub := newReviewFixture()
	o := orderIn(model.StateCompleted, model.PaymentPickup)

	orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)
	reviews.On("ExistsForOrder", mock.Anything, o.ID).Return(false, nil)
	reviews.On("Create", mock.Anything, mock.MatchedBy(func(r *model.Review) bool {
		return r.OrderID == o.ID && r.ProductID == o.ProductID && r.Rating == 4 && r.Comment == "Buen estado"
	})).Return(nil)
	products.On("ApplyRating", mock.Anything, o.ProductID, 4).Return(nil)

	r, err := svc.Create(context.Background(), Requester{ID: o.BuyerID, Role: RoleBuyer}, ReviewInput{
		OrderID: o.ID, Rating: 4, Comment: "  Buen estado ",
	})

	require.NoError(t, err)
	assert.Equal(t, o.BuyerID, r.BuyerID)
	assert.Equal(t, []model.NotificationType{model.NotifyNewReview}, pub.types())
	reviews.AssertExpectations(t)
	products.AssertExpectations(t)
}

func TestCreateReview_Rejections(t *testing.T) {
	t.Run("rating out of range", func(t *testing.T) {
		svc, _, _, _, _ := newReviewFixture()
		_, err := svc.Create(context.Background(), Requester{}, ReviewInput{Rating: 6})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("not the buyer", func(t *testing.T) {
		svc, _, orders, _, _ := newReviewFixture()
		o := orderIn(model.StateCompleted, model.PaymentPickup)
		orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)

		_, err := svc.Create(context.Background(), Requester{ID: o.SellerID}, ReviewInput{OrderID: o.ID, Rating: 5})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("order not completed", func(t *testing.T) {
		svc, _, orders, _, _ := newReviewFixture()
		o := orderIn(model.StatePaymentApproved, model.PaymentPickup)
		orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)

		_, err := svc.Create(context.Background(), Requester{ID: o.BuyerID}, ReviewInput{OrderID: o.ID, Rating: 5})
		assert.ErrorIs(t, err, ErrReviewNotAllowed)
	})

	t.Run("already reviewed", func(t *testing.T) {
		svc, reviews, orders, products, pub := newReviewFixture()
		o := orderIn(model.StateCompleted, model.PaymentPickup)
		orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)
		reviews.On("ExistsForOrder", mock.Anything, o.ID).Return(true, nil)

		_, err := svc.Create(context.Background(), Requester{ID: o.BuyerID}, ReviewInput{OrderID: o.ID, Rating: 5})
		assert.ErrorIs(t, err, ErrAlreadyReviewed)
		products.AssertNotCalled(t, "ApplyRating", mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, pub.events)
	})

	t.Run("duplicate key from concurrent insert", func(t *testing.T) {
		svc, reviews, orders, _, _ := newReviewFixture()
		o := orderIn(model.StateCompleted, model.PaymentPickup)
		orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)
		reviews.On("ExistsForOrder", mock.Anything, o.ID).Return(false, nil)
		reviews.On("Create", mock.Anything, mock.Anything).Return(repository.ErrDuplicate)

		_, err := svc.Create(context.Background(), Requester{ID: o.BuyerID}, ReviewInput{OrderID: o.ID, Rating: 5})
		assert.ErrorIs(t, err, ErrAlreadyReviewed)
	})
}
