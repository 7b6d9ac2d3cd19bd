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

type NotificationService interface {
	List(ctx context.Context, r service.Requester, unreadOnly bool) ([]*model.Notification, error)
	MarkRead(ctx context.Context, r service.Requester, id primitive.ObjectID) error
	MarkAllRead(ctx context.Context, r service.Requester) (int64, error)
}

type NotificationController struct {
	Service NotificationService
}

func NewNotificationController(s NotificationService) *NotificationController {
	return &NotificationController{Service: s}
}

// GET /notificaciones
func (ctl *NotificationController) List(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	var q dto.NotificationListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	list, err := ctl.Service.List(c.Request.Context(), r, q.UnreadOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// PATCH /notificaciones/:id/leida
func (ctl *NotificationController) MarkRead(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := ctl.Service.MarkRead(c.Request.Context(), r, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PATCH /notificaciones/leidas
func (ctl *NotificationController) MarkAllRead(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	n, err := ctl.Service.MarkAllRead(c.Request.Context(), r)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MarkAllReadResponse{Updated: n})
}
