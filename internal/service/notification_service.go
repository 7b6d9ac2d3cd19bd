package service

import (
	"context"
	"fmt"

	"poliventas-service/internal/logger"
	"poliventas-service/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type NotificationService struct {
	repo NotificationRepository
}

func NewNotificationService(r NotificationRepository) *NotificationService {
	return &NotificationService{repo: r}
}

type notice struct {
	to      string
	message string
}

// recipients arma los avisos de cada evento: a quién y qué dice.
func recipients(evt OrderEvent) []notice {
	p := evt.ProductName
	switch evt.Type {
	case model.NotifyOrderCreated:
		return []notice{{evt.SellerID, fmt.Sprintf("Tienes un nuevo pedido de %s", p)}}
	case model.NotifyProofUploaded:
		return []notice{{evt.SellerID, fmt.Sprintf("El comprador subió el comprobante de pago de %s", p)}}
	case model.NotifyPaymentConfirmed:
		out := []notice{{evt.BuyerID, fmt.Sprintf("Tu pago de %s fue confirmado", p)}}
		if evt.Actor == model.ActorSystem {
			out = append(out, notice{evt.SellerID, fmt.Sprintf("Se acreditó un pago con tarjeta por %s", p)})
		}
		return out
	case model.NotifyOrderCompleted:
		return []notice{{evt.SellerID, fmt.Sprintf("El comprador confirmó la entrega de %s", p)}}
	case model.NotifyOrderCancelled:
		msg := fmt.Sprintf("La orden de %s fue cancelada", p)
		if evt.Reason != "" {
			msg += ": " + evt.Reason
		}
		switch evt.Actor {
		case model.ActorBuyer:
			return []notice{{evt.SellerID, msg}}
		case model.ActorSeller:
			return []notice{{evt.BuyerID, msg}}
		default:
			return []notice{{evt.BuyerID, msg}, {evt.SellerID, msg}}
		}
	case model.NotifyNewReview:
		return []notice{{evt.SellerID, fmt.Sprintf("Recibiste una nueva reseña en %s", p)}}
	}
	return nil
}

// HandleOrderEvent persiste una notificación por destinatario. Reprocesar
// el mismo evento no duplica las que ya se guardaron.
func (s *NotificationService) HandleOrderEvent(ctx context.Context, evt OrderEvent) error {
	var orderID *primitive.ObjectID
	if oid, err := primitive.ObjectIDFromHex(evt.OrderID); err == nil {
		orderID = &oid
	}

	for _, n := range recipients(evt) {
		userID, err := primitive.ObjectIDFromHex(n.to)
		if err != nil {
			logger.FromCtx(ctx).Warn("notification recipient is not an ObjectID",
				zap.String("recipient", n.to),
				zap.String("type", string(evt.Type)),
			)
			continue
		}

		notif := &model.Notification{
			UserID:    userID,
			Type:      evt.Type,
			Message:   n.message,
			OrderID:   orderID,
			CreatedAt: evt.OccurredAt,
		}
		if evt.ID != "" {
			notif.EventKey = evt.ID + ":" + userID.Hex()
		}
		err = s.repo.Create(ctx, notif)
		if err != nil {
			return fmt.Errorf("guardando notificación: %w", err)
		}
	}
	return nil
}

func (s *NotificationService) List(ctx context.Context, r Requester, unreadOnly bool) ([]*model.Notification, error) {
	return s.repo.FindByUser(ctx, r.ID, unreadOnly)
}

func (s *NotificationService) MarkRead(ctx context.Context, r Requester, id primitive.ObjectID) error {
	return s.repo.MarkRead(ctx, id, r.ID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, r Requester) (int64, error) {
	return s.repo.MarkAllRead(ctx, r.ID)
}
