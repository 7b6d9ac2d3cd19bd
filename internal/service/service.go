package service

import (
	"context"
	"errors"

	"poliventas-service/internal/model"
	"poliventas-service/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Errores de negocio exportados (los usa el controller)
var (
	ErrNotFound          = repository.ErrNotFound
	ErrInsufficientStock = repository.ErrInsufficientStock
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidInput      = errors.New("datos inválidos")
	ErrInvalidTransition = errors.New("transición de estado inválida")
	ErrFinalState        = errors.New("no se puede cambiar el estado de una orden en estado final")
	ErrConcurrentUpdate  = errors.New("la orden fue modificada por otra operación, reintente")
	ErrStockChanged      = errors.New("el stock cambió mientras se editaba, reintente")
	ErrCancellationLimit = errors.New("límite de cancelaciones alcanzado")
	ErrProductNotActive  = errors.New("el producto no está disponible")
	ErrOwnProduct        = errors.New("no puede comprar su propio producto")
	ErrInvalidPayment    = errors.New("método de pago inválido para esta orden")
	ErrCardUnavailable   = errors.New("pagos con tarjeta no disponibles")
	ErrReviewNotAllowed  = errors.New("solo se puede reseñar una orden completada")
	ErrAlreadyReviewed   = errors.New("la orden ya tiene una reseña")
)

const (
	RoleBuyer  = "comprador"
	RoleSeller = "vendedor"
	RoleAdmin  = "admin"
)

// Requester es el usuario autenticado que origina la operación.
type Requester struct {
	ID   primitive.ObjectID
	Role string
}

func (r Requester) IsAdmin() bool {
	return r.Role == RoleAdmin
}

func (r Requester) CanSell() bool {
	return r.Role == RoleSeller || r.Role == RoleAdmin
}

// TxRunner abre una transacción; el ctx que recibe fn debe usarse en los repositorios.
type TxRunner interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Interfaces que debe implementar repository
type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Order, error)
	FindByPaymentIntent(ctx context.Context, intentID string) (*model.Order, error)
	SetPaymentIntent(ctx context.Context, id primitive.ObjectID, intentID string) error
	ApplyTransition(ctx context.Context, id primitive.ObjectID, t model.Transition) (*model.Order, error)
	Find(ctx context.Context, f model.OrderFilter) ([]*model.Order, error)
	CountCancelledBy(ctx context.Context, buyerID primitive.ObjectID, actor model.Actor) (int64, error)
	SalesSummary(ctx context.Context, sellerID primitive.ObjectID) (*model.SalesSummary, error)
}

type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error)
	Find(ctx context.Context, f model.ProductFilter) ([]*model.Product, error)
	Update(ctx context.Context, id primitive.ObjectID, u model.ProductUpdate) error
	ReserveStock(ctx context.Context, id primitive.ObjectID, qty int) error
	ReleaseStock(ctx context.Context, id primitive.ObjectID, qty int) error
	IncrementSold(ctx context.Context, id primitive.ObjectID, qty int) error
	ApplyRating(ctx context.Context, id primitive.ObjectID, rating int) error
}

type PaymentMethodRepository interface {
	Create(ctx context.Context, pm *model.PaymentMethod) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.PaymentMethod, error)
	FindBySeller(ctx context.Context, sellerID primitive.ObjectID, onlyActive bool) ([]*model.PaymentMethod, error)
	Update(ctx context.Context, pm *model.PaymentMethod) error
	Deactivate(ctx context.Context, id primitive.ObjectID) error
}

type ReviewRepository interface {
	Create(ctx context.Context, r *model.Review) error
	ExistsForOrder(ctx context.Context, orderID primitive.ObjectID) (bool, error)
	FindByProduct(ctx context.Context, productID primitive.ObjectID, page, limit int) ([]*model.Review, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	FindByUser(ctx context.Context, userID primitive.ObjectID, unreadOnly bool) ([]*model.Notification, error)
	MarkRead(ctx context.Context, id, userID primitive.ObjectID) error
	MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error)
}
