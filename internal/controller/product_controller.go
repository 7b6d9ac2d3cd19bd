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

type ProductService interface {
	Create(ctx context.Context, r service.Requester, in service.ProductInput) (*model.Product, error)
	Get(ctx context.Context, id primitive.ObjectID) (*model.Product, error)
	List(ctx context.Context, f model.ProductFilter) ([]*model.Product, error)
	Update(ctx context.Context, r service.Requester, id primitive.ObjectID, patch service.ProductPatch) (*model.Product, error)
}

type ReviewLister interface {
	ListByProduct(ctx context.Context, productID primitive.ObjectID, page, limit int) ([]*model.Review, error)
}

type ProductController struct {
	Service ProductService
	Reviews ReviewLister
}

func NewProductController(s ProductService, reviews ReviewLister) *ProductController {
	return &ProductController{Service: s, Reviews: reviews}
}

// GET /productos: público, solo activos
func (ctl *ProductController) List(c *gin.Context) {
	var q dto.ProductListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	products, err := ctl.Service.List(c.Request.Context(), model.ProductFilter{
		Category:   q.Category,
		Search:     q.Search,
		OnlyActive: true,
		Page:       q.Page,
		Limit:      q.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// GET /productos/:id
func (ctl *ProductController) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	p, err := ctl.Service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// POST /productos
func (ctl *ProductController) Create(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}

	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p, err := ctl.Service.Create(c.Request.Context(), r, service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Stock:       req.Stock,
		Images:      req.Images,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// PATCH /productos/:id
func (ctl *ProductController) Update(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	patch := service.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Stock:       req.Stock,
		Images:      req.Images,
	}
	if req.State != nil {
		st := model.ProductState(*req.State)
		patch.State = &st
	}

	p, err := ctl.Service.Update(c.Request.Context(), r, id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GET /productos/:id/resenas
func (ctl *ProductController) ListReviews(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var q dto.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	reviews, err := ctl.Reviews.ListByProduct(c.Request.Context(), id, q.Page, q.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}
