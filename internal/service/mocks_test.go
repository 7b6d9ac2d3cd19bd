package service

import (
	"context"

	"poliventas-service/internal/model"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Mocks ---

// fakeTx ejecuta fn sin transacción real.
type fakeTx struct{ calls int }

func (f *fakeTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, o *model.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if rf, ok := args.Get(0).(func(context.Context, primitive.ObjectID) *model.Order); ok {
		return rf(ctx, id), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByPaymentIntent(ctx context.Context, intentID string) (*model.Order, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) SetPaymentIntent(ctx context.Context, id primitive.ObjectID, intentID string) error {
	return m.Called(ctx, id, intentID).Error(0)
}

func (m *MockOrderRepository) ApplyTransition(ctx context.Context, id primitive.ObjectID, t model.Transition) (*model.Order, error) {
	args := m.Called(ctx, id, t)
	if rf, ok := args.Get(0).(func(context.Context, primitive.ObjectID, model.Transition) *model.Order); ok {
		return rf(ctx, id, t), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) Find(ctx context.Context, f model.OrderFilter) ([]*model.Order, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Order), args.Error(1)
}

func (m *MockOrderRepository) CountCancelledBy(ctx context.Context, buyerID primitive.ObjectID, actor model.Actor) (int64, error) {
	args := m.Called(ctx, buyerID, actor)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) SalesSummary(ctx context.Context, sellerID primitive.ObjectID) (*model.SalesSummary, error) {
	args := m.Called(ctx, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SalesSummary), args.Error(1)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, p *model.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) Find(ctx context.Context, f model.ProductFilter) ([]*model.Product, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Product), args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, id primitive.ObjectID, u model.ProductUpdate) error {
	return m.Called(ctx, id, u).Error(0)
}

func (m *MockProductRepository) ReserveStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	return m.Called(ctx, id, qty).Error(0)
}

func (m *MockProductRepository) ReleaseStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	return m.Called(ctx, id, qty).Error(0)
}

func (m *MockProductRepository) IncrementSold(ctx context.Context, id primitive.ObjectID, qty int) error {
	return m.Called(ctx, id, qty).Error(0)
}

func (m *MockProductRepository) ApplyRating(ctx context.Context, id primitive.ObjectID, rating int) error {
	return m.Called(ctx, id, rating).Error(0)
}

type MockPaymentMethodRepository struct {
	mock.Mock
}

func (m *MockPaymentMethodRepository) Create(ctx context.Context, pm *model.PaymentMethod) error {
	return m.Called(ctx, pm).Error(0)
}

func (m *MockPaymentMethodRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.PaymentMethod, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentMethod), args.Error(1)
}

func (m *MockPaymentMethodRepository) FindBySeller(ctx context.Context, sellerID primitive.ObjectID, onlyActive bool) ([]*model.PaymentMethod, error) {
	args := m.Called(ctx, sellerID, onlyActive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PaymentMethod), args.Error(1)
}

func (m *MockPaymentMethodRepository) Update(ctx context.Context, pm *model.PaymentMethod) error {
	return m.Called(ctx, pm).Error(0)
}

func (m *MockPaymentMethodRepository) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	return m.Called(ctx, id).Error(0)
}

type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Create(ctx context.Context, r *model.Review) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockReviewRepository) ExistsForOrder(ctx context.Context, orderID primitive.ObjectID) (bool, error) {
	args := m.Called(ctx, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockReviewRepository) FindByProduct(ctx context.Context, productID primitive.ObjectID, page, limit int) ([]*model.Review, error) {
	args := m.Called(ctx, productID, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Review), args.Error(1)
}

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *MockNotificationRepository) FindByUser(ctx context.Context, userID primitive.ObjectID, unreadOnly bool) ([]*model.Notification, error) {
	args := m.Called(ctx, userID, unreadOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Notification), args.Error(1)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, id, userID primitive.ObjectID) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreatePaymentIntent(ctx context.Context, o *model.Order) (*PaymentIntent, error) {
	args := m.Called(ctx, o)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PaymentIntent), args.Error(1)
}

func (m *MockGateway) CancelPaymentIntent(ctx context.Context, intentID string) error {
	return m.Called(ctx, intentID).Error(0)
}

func (m *MockGateway) RefundPayment(ctx context.Context, intentID string) error {
	return m.Called(ctx, intentID).Error(0)
}

// recordingPublisher guarda los eventos publicados.
type recordingPublisher struct {
	events []OrderEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evt OrderEvent) error {
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) types() []model.NotificationType {
	out := make([]model.NotificationType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
