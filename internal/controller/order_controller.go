package controller

import (
	"context"
	"net/http"

	"poliventas-service/internal/dto"
	"poliventas-service/internal/model"
	"poliventas-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderService interface {
	Create(ctx context.Context, buyer service.Requester, in service.CreateOrderInput) (*model.Order, *service.PaymentIntent, error)
	Get(ctx context.Context, r service.Requester, id primitive.ObjectID) (*model.Order, error)
	ListPurchases(ctx context.Context, r service.Requester, state model.OrderState, page, limit int) ([]*model.Order, error)
	ListSales(ctx context.Context, r service.Requester, state model.OrderState, page, limit int) ([]*model.Order, error)
	ListAll(ctx context.Context, r service.Requester, state model.OrderState, page, limit int) ([]*model.Order, error)
	SalesSummary(ctx context.Context, r service.Requester) (*model.SalesSummary, error)
	UploadProof(ctx context.Context, r service.Requester, id primitive.ObjectID, proofURL string) (*model.Order, error)
	ConfirmPayment(ctx context.Context, r service.Requester, id primitive.ObjectID) (*model.Order, error)
	Complete(ctx context.Context, r service.Requester, id primitive.ObjectID) (*model.Order, error)
	Cancel(ctx context.Context, r service.Requester, id primitive.ObjectID, reason string) (*model.Order, error)
}

type OrderController struct {
	Service OrderService
}

func NewOrderController(s OrderService) *OrderController {
	return &OrderController{Service: s}
}

// POST /ordenes
func (ctl *OrderController) Create(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}

	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "productoId inválido"})
		return
	}

	in := service.CreateOrderInput{
		ProductID:   productID,
		Quantity:    req.Quantity,
		PaymentType: model.PaymentType(req.PaymentType),
	}
	if req.PaymentMethodID != "" {
		methodID, err := primitive.ObjectIDFromHex(req.PaymentMethodID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "metodoPagoId inválido"})
			return
		}
		in.PaymentMethodID = &methodID
	}

	order, intent, err := ctl.Service.Create(c.Request.Context(), r, in)
	if err != nil {
		respondError(c, err)
		return
	}

	res := dto.CreateOrderResponse{Order: order}
	if intent != nil {
		res.Payment = &dto.PaymentIntentResponse{
			ID:           intent.ID,
			ClientSecret: intent.ClientSecret,
			Amount:       intent.Amount,
			Currency:     intent.Currency,
		}
	}
	c.JSON(http.StatusCreated, res)
}

type listFunc func(ctx context.Context, r service.Requester, state model.OrderState, page, limit int) ([]*model.Order, error)

func (ctl *OrderController) list(c *gin.Context, fn listFunc) {
	r, ok := requester(c)
	if !ok {
		return
	}

	var q dto.OrderListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	orders, err := fn(c.Request.Context(), r, model.OrderState(q.State), q.Page, q.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GET /ordenes/compras
func (ctl *OrderController) ListPurchases(c *gin.Context) {
	ctl.list(c, ctl.Service.ListPurchases)
}

// GET /ordenes/ventas
func (ctl *OrderController) ListSales(c *gin.Context) {
	ctl.list(c, ctl.Service.ListSales)
}

// GET /admin/ordenes
func (ctl *OrderController) ListAll(c *gin.Context) {
	ctl.list(c, ctl.Service.ListAll)
}

// GET /ordenes/ventas/resumen
func (ctl *OrderController) SalesSummary(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	summary, err := ctl.Service.SalesSummary(c.Request.Context(), r)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GET /ordenes/:id
func (ctl *OrderController) Get(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	o, err := ctl.Service.Get(c.Request.Context(), r, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// POST /ordenes/:id/comprobante
func (ctl *OrderController) UploadProof(c *gin.Context) {
	var req dto.UploadProofRequest
	ctl.mutate(c, &req, func(ctx context.Context, r service.Requester, id primitive.ObjectID) (*model.Order, error) {
		return ctl.Service.UploadProof(ctx, r, id, req.ProofURL)
	})
}

// POST /ordenes/:id/confirmar-pago
func (ctl *OrderController) ConfirmPayment(c *gin.Context) {
	ctl.mutate(c, nil, ctl.Service.ConfirmPayment)
}

// POST /ordenes/:id/completar
func (ctl *OrderController) Complete(c *gin.Context) {
	ctl.mutate(c, nil, ctl.Service.Complete)
}

// POST /ordenes/:id/cancelar
func (ctl *OrderController) Cancel(c *gin.Context) {
	var req dto.CancelOrderRequest
	ctl.mutate(c, &req, func(ctx context.Context, r service.Requester, id primitive.ObjectID) (*model.Order, error) {
		return ctl.Service.Cancel(ctx, r, id, req.Reason)
	})
}

type mutation func(ctx context.Context, r service.Requester, id primitive.ObjectID) (*model.Order, error)

// mutate resuelve usuario, id y body (si body no es nil) y aplica fn.
func (ctl *OrderController) mutate(c *gin.Context, body any, fn mutation) {
	r, ok := requester(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(body); err != nil {
			badRequest(c, err)
			return
		}
	}

	o, err := fn(c.Request.Context(), r, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}
