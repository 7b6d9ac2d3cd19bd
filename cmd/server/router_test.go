package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"poliventas-service/internal/controller"
	"poliventas-service/internal/middleware"
	"poliventas-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type roleAuth struct{ role string }

func (a roleAuth) ValidateToken(string) (*service.AuthUser, error) {
	return &service.AuthUser{ID: primitive.NewObjectID(), Role: a.role}, nil
}

func testRouter(role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return newRouter(handlers{
		orders:         controller.NewOrderController(nil),
		products:       controller.NewProductController(nil, nil),
		paymentMethods: controller.NewPaymentMethodController(nil),
		reviews:        controller.NewReviewController(nil),
		notifications:  controller.NewNotificationController(nil),
	}, roleAuth{role: role}, middleware.NewRateLimiter(), middleware.General(100, 100))
}

func serve(r http.Handler, method, path string, withToken bool) int {
	req := httptest.NewRequest(method, path, nil)
	if withToken {
		req.Header.Set("Authorization", "Bearer x")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRouter(t *testing.T) {
	assert.Equal(t, http.StatusOK, serve(testRouter(service.RoleBuyer), "GET", "/health", false))
	assert.Equal(t, http.StatusUnauthorized, serve(testRouter(service.RoleBuyer), "GET", "/ordenes/compras", false))
	assert.Equal(t, http.StatusForbidden, serve(testRouter(service.RoleBuyer), "GET", "/admin/ordenes", true))
	assert.Equal(t, http.StatusForbidden, serve(testRouter(service.RoleBuyer), "POST", "/metodos-pago", true))
	assert.Equal(t, http.StatusForbidden, serve(testRouter(service.RoleBuyer), "GET", "/ordenes/ventas", true))
	// sin Stripe configurado no hay webhook
	assert.Equal(t, http.StatusNotFound, serve(testRouter(service.RoleBuyer), "POST", "/webhooks/stripe", false))
}
