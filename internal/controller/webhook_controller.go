package controller

import (
	"context"
	"errors"
	"io"
	"net/http"

	"poliventas-service/internal/logger"
	"poliventas-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// los eventos de Stripe rara vez pasan de unos KB
const maxWebhookBody = 512 << 10

type WebhookParser interface {
	ParseWebhook(payload []byte, signature string) (*service.PaymentEvent, error)
}

type PaymentEventHandler interface {
	HandlePaymentEvent(ctx context.Context, evt service.PaymentEvent) error
}

type WebhookController struct {
	Parser  WebhookParser
	Handler PaymentEventHandler
}

func NewWebhookController(p WebhookParser, h PaymentEventHandler) *WebhookController {
	return &WebhookController{Parser: p, Handler: h}
}

// POST /webhooks/stripe: público, la autenticidad la da la firma
func (ctl *WebhookController) Stripe(c *gin.Context) {
	log := logger.FromCtx(c.Request.Context())

	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		log.Error("stripe webhook body too large", zap.Int64("limit", tooLarge.Limit))
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload demasiado grande"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no se pudo leer el body"})
		return
	}

	evt, err := ctl.Parser.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		log.Warn("stripe webhook rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "firma inválida"})
		return
	}
	if evt == nil {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	// un 500 hace que Stripe reintente
	if err := ctl.Handler.HandlePaymentEvent(c.Request.Context(), *evt); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
