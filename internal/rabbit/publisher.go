package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"poliventas-service/internal/logger"
	"poliventas-service/internal/service"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// OrderEventMessage es el sobre que viaja por el exchange.
type OrderEventMessage struct {
	CorrelationID string             `json:"correlation_id"`
	Exchange      string             `json:"exchange"`
	RoutingKey    string             `json:"routing_key"`
	Message       service.OrderEvent `json:"message"`
}

type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

type Publisher struct {
	mu sync.Mutex
	ch publishChannel
}

func NewPublisher(ch *amqp091.Channel) *Publisher {
	return &Publisher{ch: ch}
}

func (p *Publisher) Publish(ctx context.Context, evt service.OrderEvent) error {
	correlationID := logger.RequestIDFrom(ctx)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	body, err := json.Marshal(OrderEventMessage{
		CorrelationID: correlationID,
		Exchange:      OrdersExchange,
		RoutingKey:    string(evt.Type),
		Message:       evt,
	})
	if err != nil {
		return fmt.Errorf("serializando evento: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx, OrdersExchange, string(evt.Type), false, false, amqp091.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp091.Persistent,
		CorrelationId: correlationID,
		Timestamp:     evt.OccurredAt,
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("publicando en %s: %w", OrdersExchange, err)
	}

	logger.FromCtx(ctx).Debug("order event published",
		zap.String("order_id", evt.OrderID),
		zap.String("type", string(evt.Type)),
	)
	return nil
}
