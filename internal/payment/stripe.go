package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"poliventas-service/internal/logger"
	"poliventas-service/internal/model"
	"poliventas-service/internal/service"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

const metadataOrderID = "orderId"

var ErrInvalidSignature = errors.New("firma de webhook inválida")

// intentClient es el subconjunto de la API de PaymentIntents que usamos.
type intentClient interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Cancel(id string, params *stripe.PaymentIntentCancelParams) (*stripe.PaymentIntent, error)
}

type refundClient interface {
	New(params *stripe.RefundParams) (*stripe.Refund, error)
}

type StripeGateway struct {
	intents       intentClient
	refunds       refundClient
	currency      string
	webhookSecret string
}

// ----------------- Constructor -----------------

func NewStripeGateway(secretKey, webhookSecret, currency string) *StripeGateway {
	if webhookSecret == "" {
		logger.L().Warn("Stripe webhook secret is empty, webhooks will be rejected")
	}
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &StripeGateway{
		intents:       sc.PaymentIntents,
		refunds:       sc.Refunds,
		currency:      currency,
		webhookSecret: webhookSecret,
	}
}

// toCents convierte el total de la orden a la unidad mínima de la moneda.
func toCents(total float64) int64 {
	return int64(math.Round(total * 100))
}

// ----------------- CreatePaymentIntent -----------------

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, o *model.Order) (*service.PaymentIntent, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("order_id", o.ID.Hex()),
		zap.Float64("total", o.Total),
	)

	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(toCents(o.Total)),
		Currency:    stripe.String(g.currency),
		Description: stripe.String(fmt.Sprintf("%d x %s", o.Quantity, o.ProductName)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata(metadataOrderID, o.ID.Hex())
	params.AddMetadata("buyerId", o.BuyerID.Hex())
	params.SetIdempotencyKey("order-" + o.ID.Hex())

	pi, err := g.intents.New(params)
	if err != nil {
		log.Error("Stripe payment intent creation failed", zap.Error(err))
		return nil, err
	}

	log.Info("Stripe payment intent created", zap.String("intent_id", pi.ID))
	return &service.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}, nil
}

// ----------------- CancelPaymentIntent -----------------

func (g *StripeGateway) CancelPaymentIntent(ctx context.Context, intentID string) error {
	params := &stripe.PaymentIntentCancelParams{
		CancellationReason: stripe.String(string(stripe.PaymentIntentCancellationReasonRequestedByCustomer)),
	}
	params.Context = ctx
	_, err := g.intents.Cancel(intentID, params)
	return err
}

// ----------------- RefundPayment -----------------

// RefundPayment devuelve el cobro completo de un PaymentIntent. La clave de
// idempotencia evita un segundo reembolso si el webhook se reintenta.
func (g *StripeGateway) RefundPayment(ctx context.Context, intentID string) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(intentID),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.Context = ctx
	params.SetIdempotencyKey("refund-" + intentID)

	r, err := g.refunds.New(params)
	if err != nil {
		logger.FromCtx(ctx).Error("Stripe refund failed", zap.String("intent_id", intentID), zap.Error(err))
		return err
	}
	logger.FromCtx(ctx).Info("Stripe refund created",
		zap.String("intent_id", intentID),
		zap.String("refund_id", r.ID),
	)
	return nil
}

// ----------------- Webhook -----------------

// ParseWebhook verifica la firma y traduce el evento. Devuelve nil, nil
// para los tipos de evento que no nos interesan.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*service.PaymentEvent, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	var typ service.PaymentEventType
	switch string(evt.Type) {
	case "payment_intent.succeeded":
		typ = service.PaymentSucceeded
	case "payment_intent.payment_failed":
		typ = service.PaymentFailed
	case "payment_intent.canceled":
		typ = service.PaymentCanceled
	default:
		return nil, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(evt.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("decodificando payment intent: %w", err)
	}

	return &service.PaymentEvent{
		ID:       evt.ID,
		Type:     typ,
		IntentID: pi.ID,
		OrderID:  pi.Metadata[metadataOrderID],
	}, nil
}
