package rabbit

import (
	"context"
	"encoding/json"
	"errors"

	"poliventas-service/internal/logger"
	"poliventas-service/internal/service"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type OrderEventHandler interface {
	HandleOrderEvent(ctx context.Context, evt service.OrderEvent) error
}

// NotificationConsumer convierte los eventos de orden en notificaciones.
type NotificationConsumer struct {
	Handler OrderEventHandler
}

func NewNotificationConsumer(h OrderEventHandler) *NotificationConsumer {
	return &NotificationConsumer{Handler: h}
}

// errMalformed marca mensajes que nunca van a poder procesarse.
type errMalformed struct{ err error }

func (e errMalformed) Error() string { return "mensaje mal formado: " + e.err.Error() }

func (c *NotificationConsumer) Handle(ctx context.Context, msg []byte) error {
	var envelope OrderEventMessage
	if err := json.Unmarshal(msg, &envelope); err != nil {
		return errMalformed{err}
	}
	if envelope.Message.Type == "" {
		return errMalformed{errors.New("evento sin tipo")}
	}

	ctx = logger.WithRequestID(ctx, envelope.CorrelationID)
	logger.FromCtx(ctx).Info("order event received",
		zap.String("order_id", envelope.Message.OrderID),
		zap.String("type", string(envelope.Message.Type)),
	)
	return c.Handler.HandleOrderEvent(ctx, envelope.Message)
}

// Deliver procesa y confirma un mensaje. Los mal formados se descartan;
// los que fallan se reencolan una sola vez.
func (c *NotificationConsumer) Deliver(ctx context.Context, d amqp091.Delivery) {
	err := c.Handle(ctx, d.Body)
	if err == nil {
		if aerr := d.Ack(false); aerr != nil {
			logger.L().Warn("ack failed", zap.Error(aerr))
		}
		return
	}

	requeue := !d.Redelivered
	var malformed errMalformed
	if errors.As(err, &malformed) {
		requeue = false
	}
	logger.L().Error("could not process order event",
		zap.Error(err),
		zap.Bool("requeue", requeue),
		zap.String("correlation_id", d.CorrelationId),
	)
	if nerr := d.Nack(false, requeue); nerr != nil {
		logger.L().Warn("nack failed", zap.Error(nerr))
	}
}

