package controller

import (
	"context"
	"net/http"
	"testing"

	"poliventas-service/internal/middleware"
	"poliventas-service/internal/model"
	"poliventas-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) product(args mock.Arguments) (*model.Product, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, r service.Requester, in service.ProductInput) (*model.Product, error) {
	return m.product(m.Called(ctx, r, in))
}

func (m *MockProductService) Get(ctx context.Context, id primitive.ObjectID) (*model.Product, error) {
	return m.product(m.Called(ctx, id))
}

func (m *MockProductService) List(ctx context.Context, f model.ProductFilter) ([]*model.Product, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]*model.Product), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, r service.Requester, id primitive.ObjectID, patch service.ProductPatch) (*model.Product, error) {
	return m.product(m.Called(ctx, r, id, patch))
}

type stubReviews struct{}

func (stubReviews) ListByProduct(context.Context, primitive.ObjectID, int, int) ([]*model.Review, error) {
	return []*model.Review{}, nil
}

type stubReviewService struct {
	err error
}

func (s stubReviewService) Create(_ context.Context, r service.Requester, in service.ReviewInput) (*model.Review, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.Review{OrderID: in.OrderID, BuyerID: r.ID, Rating: in.Rating}, nil
}

func newCatalogRouter(products ProductService, reviews ReviewService) *gin.Engine {
	pc := NewProductController(products, stubReviews{})
	rc := NewReviewController(reviews)

	r := gin.New()
	r.GET("/productos", pc.List)
	r.GET("/productos/:id", pc.Get)
	r.GET("/productos/:id/resenas", pc.ListReviews)
	auth := r.Group("", middleware.AuthMiddleware(stubAuth{user: testUser}))
	auth.POST("/productos", pc.Create)
	auth.PATCH("/productos/:id", pc.Update)
	auth.POST("/resenas", rc.Create)
	return r
}

func TestListProducts_OnlyActive(t *testing.T) {
	svc := new(MockProductService)
	svc.On("List", mock.Anything, mock.MatchedBy(func(f model.ProductFilter) bool {
		return f.OnlyActive && f.Category == "libros" && f.Search == "calculo"
	})).Return([]*model.Product{}, nil)

	w := doJSON(newCatalogRouter(svc, stubReviewService{}), "GET", "/productos?categoria=libros&q=calculo", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestCreateProduct(t *testing.T) {
	svc := new(MockProductService)
	svc.On("Create", mock.Anything, testUser.Requester(), mock.Anything).Return(nil, service.ErrForbidden)

	w := doJSON(newCatalogRouter(svc, stubReviewService{}), "POST", "/productos", gin.H{
		"nombre": "Bata", "categoria": "ropa", "precio": 15, "stock": 2,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(newCatalogRouter(svc, stubReviewService{}), "POST", "/productos", gin.H{
		"nombre": "Bata", "categoria": "ropa", "precio": -1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateProduct_State(t *testing.T) {
	svc := new(MockProductService)
	id := primitive.NewObjectID()
	svc.On("Update", mock.Anything, mock.Anything, id, mock.MatchedBy(func(p service.ProductPatch) bool {
		return p.State != nil && *p.State == model.ProductPaused && p.Price == nil
	})).Return(&model.Product{ID: id, State: model.ProductPaused}, nil)

	w := doJSON(newCatalogRouter(svc, stubReviewService{}), "PATCH", "/productos/"+id.Hex(), gin.H{"estado": "pausado"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(newCatalogRouter(svc, stubReviewService{}), "PATCH", "/productos/"+id.Hex(), gin.H{"estado": "vendido"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateReview(t *testing.T) {
	orderID := primitive.NewObjectID().Hex()

	w := doJSON(newCatalogRouter(new(MockProductService), stubReviewService{}), "POST", "/resenas", gin.H{
		"ordenId": orderID, "calificacion": 5, "comentario": "excelente",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(newCatalogRouter(new(MockProductService), stubReviewService{}), "POST", "/resenas", gin.H{
		"ordenId": orderID, "calificacion": 7,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(newCatalogRouter(new(MockProductService), stubReviewService{err: service.ErrAlreadyReviewed}), "POST", "/resenas", gin.H{
		"ordenId": orderID, "calificacion": 4,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestListReviews(t *testing.T) {
	w := doJSON(newCatalogRouter(new(MockProductService), stubReviewService{}), "GET", "/productos/"+primitive.NewObjectID().Hex()+"/resenas", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
