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

type PaymentMethodService interface {
	Create(ctx context.Context, r service.Requester, in service.PaymentMethodInput) (*model.PaymentMethod, error)
	ListMine(ctx context.Context, r service.Requester) ([]*model.PaymentMethod, error)
	ListForSeller(ctx context.Context, sellerID primitive.ObjectID) ([]*model.PaymentMethod, error)
	Update(ctx context.Context, r service.Requester, id primitive.ObjectID, in service.PaymentMethodInput, active bool) (*model.PaymentMethod, error)
	Deactivate(ctx context.Context, r service.Requester, id primitive.ObjectID) error
}

type PaymentMethodController struct {
	Service PaymentMethodService
}

func NewPaymentMethodController(s PaymentMethodService) *PaymentMethodController {
	return &PaymentMethodController{Service: s}
}

func toPaymentMethodInput(req dto.PaymentMethodRequest) service.PaymentMethodInput {
	return service.PaymentMethodInput{
		Type:          model.PaymentType(req.Type),
		Bank:          req.Bank,
		AccountNumber: req.AccountNumber,
		Holder:        req.Holder,
		QRImageURL:    req.QRImageURL,
		Details:       req.Details,
	}
}

// GET /vendedores/:id/metodos-pago
func (ctl *PaymentMethodController) ListForSeller(c *gin.Context) {
	sellerID, ok := idParam(c, "id")
	if !ok {
		return
	}
	methods, err := ctl.Service.ListForSeller(c.Request.Context(), sellerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, methods)
}

// GET /metodos-pago
func (ctl *PaymentMethodController) ListMine(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	methods, err := ctl.Service.ListMine(c.Request.Context(), r)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, methods)
}

// POST /metodos-pago
func (ctl *PaymentMethodController) Create(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	var req dto.PaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	pm, err := ctl.Service.Create(c.Request.Context(), r, toPaymentMethodInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pm)
}

// PUT /metodos-pago/:id
func (ctl *PaymentMethodController) Update(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dto.PaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	pm, err := ctl.Service.Update(c.Request.Context(), r, id, toPaymentMethodInput(req), active)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pm)
}

// DELETE /metodos-pago/:id: desactiva, no borra
func (ctl *PaymentMethodController) Deactivate(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := ctl.Service.Deactivate(c.Request.Context(), r, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
