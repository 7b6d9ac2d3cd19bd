package rabbit

import (
	"context"
	"fmt"

	"poliventas-service/internal/logger"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	// OrdersExchange recibe un mensaje por cada transición de orden.
	OrdersExchange     = "poliventas.ordenes"
	NotificationsQueue = "poliventas_notificaciones"
)

// DeclareTopology crea el exchange fanout y la cola de notificaciones.
func DeclareTopology(ch *amqp091.Channel) error {
	err := ch.ExchangeDeclare(
		OrdersExchange,
		amqp091.ExchangeFanout,
		true,  // durable
		false, // auto-delete
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declarando exchange %s: %w", OrdersExchange, err)
	}

	q, err := ch.QueueDeclare(
		NotificationsQueue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declarando queue: %w", err)
	}

	// fanout ignora routing key
	if err := ch.QueueBind(q.Name, "", OrdersExchange, false, nil); err != nil {
		return fmt.Errorf("binding %s -> %s: %w", OrdersExchange, q.Name, err)
	}
	return nil
}

// StartNotificationConsumer consume la cola hasta que ctx termine o el canal se cierre.
func StartNotificationConsumer(ctx context.Context, ch *amqp091.Channel, consumer *NotificationConsumer) error {
	if err := ch.Qos(10, 0, false); err != nil {
		return fmt.Errorf("configurando qos: %w", err)
	}

	msgs, err := ch.Consume(
		NotificationsQueue,
		"",
		false, // ack manual
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consumiendo queue: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					logger.L().Warn("notification consumer channel closed")
					return
				}
				consumer.Deliver(ctx, m)
			}
		}
	}()

	logger.L().Info("subscribed to orders exchange",
		zap.String("exchange", OrdersExchange),
		zap.String("queue", NotificationsQueue),
	)
	return nil
}
