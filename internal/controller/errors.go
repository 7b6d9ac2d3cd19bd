package controller

import (
	"errors"
	"net/http"

	"poliventas-service/internal/logger"
	"poliventas-service/internal/middleware"
	"poliventas-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var statusByError = []struct {
	err    error
	status int
}{
	{service.ErrInvalidInput, http.StatusBadRequest},
	{service.ErrInvalidPayment, http.StatusBadRequest},
	{service.ErrOwnProduct, http.StatusBadRequest},
	{service.ErrCardUnavailable, http.StatusBadRequest},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrInsufficientStock, http.StatusConflict},
	{service.ErrProductNotActive, http.StatusConflict},
	{service.ErrInvalidTransition, http.StatusConflict},
	{service.ErrFinalState, http.StatusConflict},
	{service.ErrConcurrentUpdate, http.StatusConflict},
	{service.ErrStockChanged, http.StatusConflict},
	{service.ErrCancellationLimit, http.StatusConflict},
	{service.ErrReviewNotAllowed, http.StatusConflict},
	{service.ErrAlreadyReviewed, http.StatusConflict},
}

// statusFor traduce un error de negocio a su código HTTP.
func statusFor(err error) int {
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)

	if status == http.StatusInternalServerError {
		logger.FromCtx(c.Request.Context()).Error("unexpected error",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(status, gin.H{"error": "error interno"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// idParam lee un ObjectID de la ruta; responde 400 si no es válido.
func idParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id inválido: " + name})
		return primitive.NilObjectID, false
	}
	return id, true
}

// requester devuelve el usuario autenticado; responde 401 si no hay.
func requester(c *gin.Context) (service.Requester, bool) {
	r, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no autenticado"})
	}
	return r, ok
}
