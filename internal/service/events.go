package service

import (
	"context"
	"time"

	"poliventas-service/internal/model"

	"github.com/google/uuid"
)

// OrderEvent se emite después de cada transición confirmada. ID identifica
// el evento en reintentos y redeliveries.
type OrderEvent struct {
	ID          string                 `json:"id"`
	Type        model.NotificationType `json:"type"`
	OrderID     string                 `json:"orderId"`
	BuyerID     string                 `json:"buyerId"`
	SellerID    string                 `json:"sellerId"`
	ProductName string                 `json:"productName"`
	State       model.OrderState       `json:"state"`
	Actor       model.Actor            `json:"actor"`
	Reason      string                 `json:"reason,omitempty"`
	OccurredAt  time.Time              `json:"occurredAt"`
}

type EventPublisher interface {
	Publish(ctx context.Context, evt OrderEvent) error
}

func newOrderEvent(typ model.NotificationType, o *model.Order, actor model.Actor, reason string) OrderEvent {
	return OrderEvent{
		ID:          uuid.NewString(),
		Type:        typ,
		OrderID:     o.ID.Hex(),
		BuyerID:     o.BuyerID.Hex(),
		SellerID:    o.SellerID.Hex(),
		ProductName: o.ProductName,
		State:       o.State,
		Actor:       actor,
		Reason:      reason,
		OccurredAt:  time.Now().UTC(),
	}
}

// DirectPublisher entrega los eventos al servicio de notificaciones en el
// mismo proceso. Se usa cuando no hay RabbitMQ configurado.
type DirectPublisher struct {
	Notifications *NotificationService
}

func (p DirectPublisher) Publish(ctx context.Context, evt OrderEvent) error {
	return p.Notifications.HandleOrderEvent(ctx, evt)
}

// PaymentIntent es lo que el cliente necesita para completar el pago con tarjeta.
type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, o *model.Order) (*PaymentIntent, error)
	CancelPaymentIntent(ctx context.Context, intentID string) error
	RefundPayment(ctx context.Context, intentID string) error
}

type PaymentEventType string

const (
	PaymentSucceeded PaymentEventType = "succeeded"
	PaymentFailed    PaymentEventType = "failed"
	PaymentCanceled  PaymentEventType = "canceled"
)

// PaymentEvent es la versión normalizada de un webhook de la pasarela.
type PaymentEvent struct {
	ID       string
	Type     PaymentEventType
	IntentID string
	OrderID  string
}
