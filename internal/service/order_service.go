package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"poliventas-service/internal/logger"
	"poliventas-service/internal/model"
	"poliventas-service/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const defaultMaxCancellations = 2

// Transiciones permitidas por actor, indexadas por estado actual.
// Las reglas que dependen del tipo de pago están en checkTransition.
var buyerTransitions = map[model.OrderState][]model.OrderState{
	model.StatePendingPayment:  {model.StateProofUploaded, model.StateCancelled},
	model.StateProofUploaded:   {model.StateProofUploaded, model.StateCancelled},
	model.StatePaymentApproved: {model.StateCompleted},
}

var sellerTransitions = map[model.OrderState][]model.OrderState{
	model.StatePendingPayment: {model.StatePaymentApproved, model.StateCancelled},
	model.StateProofUploaded:  {model.StatePaymentApproved, model.StateCancelled},
}

// sistema: webhook de la pasarela o un admin
var systemTransitions = map[model.OrderState][]model.OrderState{
	model.StatePendingPayment: {model.StatePaymentApproved, model.StateCancelled},
	model.StateProofUploaded:  {model.StateCancelled},
}

func transitionsFor(actor model.Actor) map[model.OrderState][]model.OrderState {
	switch actor {
	case model.ActorBuyer:
		return buyerTransitions
	case model.ActorSeller:
		return sellerTransitions
	case model.ActorSystem:
		return systemTransitions
	}
	return nil
}

// checkTransition valida que actor pueda llevar la orden al estado to.
func checkTransition(o *model.Order, actor model.Actor, to model.OrderState) error {
	if o.State.Final() {
		return ErrFinalState
	}
	if !slices.Contains(transitionsFor(actor)[o.State], to) {
		return ErrInvalidTransition
	}

	switch to {
	case model.StateProofUploaded:
		if !o.PaymentType.NeedsProof() {
			return ErrInvalidTransition
		}
	case model.StatePaymentApproved:
		switch actor {
		case model.ActorSeller:
			// Tarjeta se confirma solo por webhook; retiro puede confirmarse sin comprobante
			if o.PaymentType == model.PaymentCard {
				return ErrInvalidTransition
			}
			if o.State == model.StatePendingPayment && o.PaymentType != model.PaymentPickup {
				return ErrInvalidTransition
			}
		case model.ActorSystem:
			if o.PaymentType != model.PaymentCard {
				return ErrInvalidTransition
			}
		}
	}
	return nil
}

type OrderServiceDeps struct {
	Tx       TxRunner
	Orders   OrderRepository
	Products ProductRepository
	Methods  PaymentMethodRepository
	// Gateway puede ser nil: en ese caso no se aceptan pagos con tarjeta
	Gateway PaymentGateway
	Events  EventPublisher

	MaxCancellations int
}

type OrderService struct {
	tx               TxRunner
	orders           OrderRepository
	products         ProductRepository
	methods          PaymentMethodRepository
	gateway          PaymentGateway
	events           EventPublisher
	maxCancellations int
}

func NewOrderService(d OrderServiceDeps) *OrderService {
	if d.MaxCancellations <= 0 {
		d.MaxCancellations = defaultMaxCancellations
	}
	return &OrderService{
		tx:               d.Tx,
		orders:           d.Orders,
		products:         d.Products,
		methods:          d.Methods,
		gateway:          d.Gateway,
		events:           d.Events,
		maxCancellations: d.MaxCancellations,
	}
}

type CreateOrderInput struct {
	ProductID       primitive.ObjectID
	Quantity        int
	PaymentType     model.PaymentType
	PaymentMethodID *primitive.ObjectID
}

// Create reserva el stock y crea la orden en una misma transacción.
// Para tarjeta además crea el PaymentIntent; si falla, la orden se cancela y el stock vuelve.
func (s *OrderService) Create(ctx context.Context, buyer Requester, in CreateOrderInput) (*model.Order, *PaymentIntent, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("method", "CreateOrder"),
		zap.String("buyer_id", buyer.ID.Hex()),
		zap.String("product_id", in.ProductID.Hex()),
		zap.Int("quantity", in.Quantity),
		zap.String("payment_type", string(in.PaymentType)),
	)

	if in.Quantity < 1 {
		return nil, nil, fmt.Errorf("%w: la cantidad debe ser mayor a cero", ErrInvalidInput)
	}
	if !in.PaymentType.Valid() {
		return nil, nil, fmt.Errorf("%w: tipo de pago %q", ErrInvalidInput, in.PaymentType)
	}
	if in.PaymentType == model.PaymentCard && s.gateway == nil {
		return nil, nil, ErrCardUnavailable
	}

	product, err := s.products.FindByID(ctx, in.ProductID)
	if err != nil {
		return nil, nil, err
	}
	if product.State != model.ProductActive {
		return nil, nil, ErrProductNotActive
	}
	if product.SellerID == buyer.ID {
		return nil, nil, ErrOwnProduct
	}
	if err := s.checkPaymentMethod(ctx, product.SellerID, in); err != nil {
		return nil, nil, err
	}

	subtotal := roundMoney(product.Price * float64(in.Quantity))
	order := &model.Order{
		ID:            primitive.NewObjectID(),
		BuyerID:       buyer.ID,
		SellerID:      product.SellerID,
		ProductID:     product.ID,
		ProductName:   product.Name,
		Quantity:      in.Quantity,
		UnitPrice:     product.Price,
		Subtotal:      subtotal,
		Total:         subtotal,
		State:         model.StatePendingPayment,
		PaymentType:   in.PaymentType,
		PaymentMethod: in.PaymentMethodID,
		StockReserved: true,
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		order.History = nil
		if err := s.products.ReserveStock(ctx, product.ID, in.Quantity); err != nil {
			return err
		}
		return s.orders.Create(ctx, order)
	})
	if err != nil {
		log.Warn("order creation aborted", zap.Error(err))
		return nil, nil, err
	}

	log = log.With(zap.String("order_id", order.ID.Hex()))
	log.Info("order created, stock reserved", zap.Float64("total", order.Total))

	var intent *PaymentIntent
	if order.PaymentType == model.PaymentCard {
		intent, err = s.gateway.CreatePaymentIntent(ctx, order)
		if err != nil {
			log.Error("payment intent creation failed", zap.Error(err))
			if _, cerr := s.transition(ctx, transitionRequest{
				orderID: order.ID,
				to:      model.StateCancelled,
				reason:  "No se pudo iniciar el pago con tarjeta",
				actor:   fixedActor(model.ActorSystem),
			}); cerr != nil {
				log.Error("could not release stock after payment failure", zap.Error(cerr))
			}
			return nil, nil, fmt.Errorf("creando pago con tarjeta: %w", err)
		}

		// El webhook también trae el orderId en metadata, así que esto no es fatal
		if err := s.orders.SetPaymentIntent(ctx, order.ID, intent.ID); err != nil {
			log.Error("could not store payment intent id", zap.String("intent_id", intent.ID), zap.Error(err))
		}
		order.PaymentIntentID = intent.ID
	}

	s.publish(ctx, newOrderEvent(model.NotifyOrderCreated, order, model.ActorBuyer, ""))
	return order, intent, nil
}

func (s *OrderService) checkPaymentMethod(ctx context.Context, sellerID primitive.ObjectID, in CreateOrderInput) error {
	if in.PaymentType == model.PaymentCard {
		if in.PaymentMethodID != nil {
			return fmt.Errorf("%w: tarjeta no usa métodos del vendedor", ErrInvalidPayment)
		}
		return nil
	}
	if in.PaymentMethodID == nil {
		if in.PaymentType.NeedsProof() {
			return fmt.Errorf("%w: %s requiere un método de pago del vendedor", ErrInvalidPayment, in.PaymentType)
		}
		return nil
	}

	pm, err := s.methods.FindByID(ctx, *in.PaymentMethodID)
	if errors.Is(err, ErrNotFound) {
		return ErrInvalidPayment
	}
	if err != nil {
		return err
	}
	if pm.SellerID != sellerID || !pm.Active || pm.Type != in.PaymentType {
		return ErrInvalidPayment
	}
	return nil
}

// Get devuelve la orden si el usuario participa en ella o es admin.
func (s *OrderService) Get(ctx context.Context, r Requester, id primitive.ObjectID) (*model.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !r.IsAdmin() && o.BuyerID != r.ID && o.SellerID != r.ID {
		return nil, ErrForbidden
	}
	return o, nil
}

func (s *OrderService) ListPurchases(ctx context.Context, r Requester, state model.OrderState, page, limit int) ([]*model.Order, error) {
	if state != "" && !state.Valid() {
		return nil, fmt.Errorf("%w: estado %q", ErrInvalidInput, state)
	}
	return s.orders.Find(ctx, model.OrderFilter{BuyerID: &r.ID, State: state, Page: page, Limit: limit})
}

func (s *OrderService) ListSales(ctx context.Context, r Requester, state model.OrderState, page, limit int) ([]*model.Order, error) {
	if state != "" && !state.Valid() {
		return nil, fmt.Errorf("%w: estado %q", ErrInvalidInput, state)
	}
	return s.orders.Find(ctx, model.OrderFilter{SellerID: &r.ID, State: state, Page: page, Limit: limit})
}

func (s *OrderService) ListAll(ctx context.Context, r Requester, state model.OrderState, page, limit int) ([]*model.Order, error) {
	if !r.IsAdmin() {
		return nil, ErrForbidden
	}
	if state != "" && !state.Valid() {
		return nil, fmt.Errorf("%w: estado %q", ErrInvalidInput, state)
	}
	return s.orders.Find(ctx, model.OrderFilter{State: state, Page: page, Limit: limit})
}

func (s *OrderService) SalesSummary(ctx context.Context, r Requester) (*model.SalesSummary, error) {
	return s.orders.SalesSummary(ctx, r.ID)
}

// UploadProof registra el comprobante de una transferencia o QR.
// Un comprobante nuevo reemplaza al anterior mientras el vendedor no confirme.
func (s *OrderService) UploadProof(ctx context.Context, r Requester, id primitive.ObjectID, proofURL string) (*model.Order, error) {
	if proofURL == "" {
		return nil, fmt.Errorf("%w: comprobante vacío", ErrInvalidInput)
	}
	o, err := s.transition(ctx, transitionRequest{
		orderID:  id,
		to:       model.StateProofUploaded,
		actorID:  r.ID,
		reason:   "Comprobante de pago subido",
		proofURL: proofURL,
		actor:    onlyBuyer(r),
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, newOrderEvent(model.NotifyProofUploaded, o, model.ActorBuyer, ""))
	return o, nil
}

func (s *OrderService) ConfirmPayment(ctx context.Context, r Requester, id primitive.ObjectID) (*model.Order, error) {
	o, err := s.transition(ctx, transitionRequest{
		orderID: id,
		to:      model.StatePaymentApproved,
		actorID: r.ID,
		reason:  "Pago confirmado por el vendedor",
		actor:   onlySeller(r),
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, newOrderEvent(model.NotifyPaymentConfirmed, o, model.ActorSeller, ""))
	return o, nil
}

// Complete: el comprador confirma que recibió el producto.
func (s *OrderService) Complete(ctx context.Context, r Requester, id primitive.ObjectID) (*model.Order, error) {
	o, err := s.transition(ctx, transitionRequest{
		orderID: id,
		to:      model.StateCompleted,
		actorID: r.ID,
		reason:  "Entrega confirmada por el comprador",
		actor:   onlyBuyer(r),
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, newOrderEvent(model.NotifyOrderCompleted, o, model.ActorBuyer, ""))
	return o, nil
}

// Cancel puede pedirlo el comprador, el vendedor o un admin (como sistema).
func (s *OrderService) Cancel(ctx context.Context, r Requester, id primitive.ObjectID, reason string) (*model.Order, error) {
	var actor model.Actor
	o, err := s.transition(ctx, transitionRequest{
		orderID: id,
		to:      model.StateCancelled,
		actorID: r.ID,
		reason:  reason,
		actor: func(o *model.Order) (model.Actor, error) {
			switch {
			case o.BuyerID == r.ID:
				actor = model.ActorBuyer
			case o.SellerID == r.ID:
				actor = model.ActorSeller
			case r.IsAdmin():
				actor = model.ActorSystem
			default:
				return "", ErrForbidden
			}
			return actor, nil
		},
	})
	if err != nil {
		return nil, err
	}

	s.cancelIntent(ctx, o.ID, o.PaymentIntentID)
	s.publish(ctx, newOrderEvent(model.NotifyOrderCancelled, o, actor, reason))
	return o, nil
}

// cancelIntent anula el PaymentIntent de una orden cancelada para que el
// cliente no pueda completar el pago. Si el cobro ya se hizo, la cancelación
// falla y el webhook succeeded que llegue después lo reembolsa.
func (s *OrderService) cancelIntent(ctx context.Context, orderID primitive.ObjectID, intentID string) {
	if intentID == "" || s.gateway == nil {
		return
	}
	if err := s.gateway.CancelPaymentIntent(ctx, intentID); err != nil {
		logger.FromCtx(ctx).Error("could not cancel payment intent of a cancelled order",
			zap.String("order_id", orderID.Hex()),
			zap.String("intent_id", intentID),
			zap.Error(err),
		)
	}
}

// HandlePaymentEvent aplica un webhook de la pasarela. Los eventos repetidos
// o que llegan con la orden ya procesada no hacen nada, salvo un cobro
// exitoso sobre una orden cancelada, que se reembolsa.
func (s *OrderService) HandlePaymentEvent(ctx context.Context, evt PaymentEvent) error {
	log := logger.FromCtx(ctx).With(
		zap.String("method", "HandlePaymentEvent"),
		zap.String("event_id", evt.ID),
		zap.String("intent_id", evt.IntentID),
		zap.String("type", string(evt.Type)),
	)

	o, err := s.orders.FindByPaymentIntent(ctx, evt.IntentID)
	if errors.Is(err, ErrNotFound) && evt.OrderID != "" {
		if oid, perr := primitive.ObjectIDFromHex(evt.OrderID); perr == nil {
			o, err = s.orders.FindByID(ctx, oid)
		}
	}
	if errors.Is(err, ErrNotFound) {
		log.Warn("payment event for unknown order")
		return nil
	}
	if err != nil {
		return err
	}

	log = log.With(zap.String("order_id", o.ID.Hex()), zap.String("state", string(o.State)))
	if o.PaymentType != model.PaymentCard {
		log.Warn("payment event for a non-card order")
		return nil
	}
	if o.State == model.StateCancelled && evt.Type == PaymentSucceeded {
		return s.refundCancelled(ctx, log, evt)
	}
	if o.State != model.StatePendingPayment {
		log.Info("payment event already applied")
		return nil
	}

	req := transitionRequest{orderID: o.ID, actor: fixedActor(model.ActorSystem)}
	var typ model.NotificationType
	switch evt.Type {
	case PaymentSucceeded:
		req.to = model.StatePaymentApproved
		req.reason = "Pago con tarjeta confirmado"
		typ = model.NotifyPaymentConfirmed
	case PaymentFailed:
		req.to = model.StateCancelled
		req.reason = "Pago con tarjeta rechazado"
		typ = model.NotifyOrderCancelled
	case PaymentCanceled:
		req.to = model.StateCancelled
		req.reason = "Pago con tarjeta anulado"
		typ = model.NotifyOrderCancelled
	default:
		log.Debug("ignored payment event")
		return nil
	}

	updated, err := s.transition(ctx, req)
	switch {
	case errors.Is(err, ErrConcurrentUpdate), errors.Is(err, ErrFinalState), errors.Is(err, ErrInvalidTransition):
		// otra operación movió la orden primero
		log.Warn("payment event lost the race", zap.Error(err))
		if evt.Type != PaymentSucceeded {
			return nil
		}
		cur, ferr := s.orders.FindByID(ctx, o.ID)
		if ferr != nil {
			return ferr
		}
		if cur.State == model.StateCancelled {
			return s.refundCancelled(ctx, log, evt)
		}
		return nil
	case err != nil:
		return err
	}

	// tras payment_failed el intent sigue aceptando reintentos del cliente
	if evt.Type == PaymentFailed {
		s.cancelIntent(ctx, updated.ID, evt.IntentID)
	}

	s.publish(ctx, newOrderEvent(typ, updated, model.ActorSystem, req.reason))
	return nil
}

// refundCancelled devuelve un cobro que llegó cuando la orden ya estaba
// cancelada. Si el reembolso falla se devuelve el error para que la pasarela
// reintente el webhook.
func (s *OrderService) refundCancelled(ctx context.Context, log *zap.Logger, evt PaymentEvent) error {
	log.Error("card charge succeeded on a cancelled order, refunding")
	if s.gateway == nil {
		return ErrCardUnavailable
	}
	if err := s.gateway.RefundPayment(ctx, evt.IntentID); err != nil {
		return fmt.Errorf("reembolsando cobro de orden cancelada: %w", err)
	}
	return nil
}

type transitionRequest struct {
	orderID  primitive.ObjectID
	to       model.OrderState
	actorID  primitive.ObjectID
	reason   string
	proofURL string
	// actor decide con qué rol actúa el usuario sobre esta orden, o ErrForbidden
	actor func(o *model.Order) (model.Actor, error)
}

func fixedActor(a model.Actor) func(*model.Order) (model.Actor, error) {
	return func(*model.Order) (model.Actor, error) { return a, nil }
}

func onlyBuyer(r Requester) func(*model.Order) (model.Actor, error) {
	return func(o *model.Order) (model.Actor, error) {
		if o.BuyerID != r.ID {
			return "", ErrForbidden
		}
		return model.ActorBuyer, nil
	}
}

func onlySeller(r Requester) func(*model.Order) (model.Actor, error) {
	return func(o *model.Order) (model.Actor, error) {
		if o.SellerID != r.ID {
			return "", ErrForbidden
		}
		return model.ActorSeller, nil
	}
}

// transition lee, valida y aplica el cambio de estado junto con sus efectos
// sobre el producto (devolver stock, sumar vendidos) en una transacción.
func (s *OrderService) transition(ctx context.Context, req transitionRequest) (*model.Order, error) {
	var (
		from    model.OrderState
		actor   model.Actor
		updated *model.Order
	)

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.FindByID(ctx, req.orderID)
		if err != nil {
			return err
		}

		actor, err = req.actor(o)
		if err != nil {
			return err
		}
		if err := checkTransition(o, actor, req.to); err != nil {
			return err
		}

		if req.to == model.StateCancelled && actor == model.ActorBuyer {
			n, err := s.orders.CountCancelledBy(ctx, o.BuyerID, model.ActorBuyer)
			if err != nil {
				return err
			}
			if n >= int64(s.maxCancellations) {
				return ErrCancellationLimit
			}
		}

		t := model.Transition{
			From:     o.State,
			To:       req.to,
			ProofURL: req.proofURL,
			Record: model.StatusRecord{
				Reason:    req.reason,
				ActorID:   req.actorID,
				Actor:     actor,
				Timestamp: time.Now().UTC(),
			},
		}
		if req.to == model.StateCancelled {
			t.CancelReason = req.reason
			t.CancelledBy = actor
			t.ReleaseStock = o.StockReserved
		}

		updated, err = s.orders.ApplyTransition(ctx, o.ID, t)
		if errors.Is(err, repository.ErrConflict) {
			return ErrConcurrentUpdate
		}
		if err != nil {
			return err
		}

		switch {
		case t.ReleaseStock:
			if err := s.products.ReleaseStock(ctx, o.ProductID, o.Quantity); err != nil {
				return fmt.Errorf("devolviendo stock: %w", err)
			}
		case req.to == model.StatePaymentApproved:
			if err := s.products.IncrementSold(ctx, o.ProductID, o.Quantity); err != nil {
				return fmt.Errorf("actualizando vendidos: %w", err)
			}
		}

		from = o.State
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("order state changed",
		zap.String("order_id", req.orderID.Hex()),
		zap.String("from", string(from)),
		zap.String("to", string(req.to)),
		zap.String("actor", string(actor)),
	)
	return updated, nil
}

func (s *OrderService) publish(ctx context.Context, evt OrderEvent) {
	publish(ctx, s.events, evt)
}

// publish no propaga errores: la transición ya quedó confirmada.
func publish(ctx context.Context, p EventPublisher, evt OrderEvent) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, evt); err != nil {
		logger.FromCtx(ctx).Warn("could not publish order event",
			zap.String("order_id", evt.OrderID),
			zap.String("type", string(evt.Type)),
			zap.Error(err),
		)
	}
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
