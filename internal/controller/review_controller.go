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

type ReviewService interface {
	Create(ctx context.Context, r service.Requester, in service.ReviewInput) (*model.Review, error)
}

type ReviewController struct {
	Service ReviewService
}

func NewReviewController(s ReviewService) *ReviewController {
	return &ReviewController{Service: s}
}

// POST /resenas
func (ctl *ReviewController) Create(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	var req dto.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	orderID, err := primitive.ObjectIDFromHex(req.OrderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ordenId inválido"})
		return
	}

	review, err := ctl.Service.Create(c.Request.Context(), r, service.ReviewInput{
		OrderID: orderID,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}
