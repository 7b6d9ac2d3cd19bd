package main

import (
	"net/http"

	"poliventas-service/internal/controller"
	"poliventas-service/internal/logger"
	"poliventas-service/internal/middleware"
	"poliventas-service/internal/service"

	"github.com/gin-gonic/gin"
)

type handlers struct {
	orders         *controller.OrderController
	products       *controller.ProductController
	paymentMethods *controller.PaymentMethodController
	reviews        *controller.ReviewController
	notifications  *controller.NotificationController
	// nil cuando Stripe no está configurado
	webhook *controller.WebhookController
}

func newRouter(h handlers, auth middleware.TokenValidator, limiter *middleware.RateLimiter, general middleware.Tier) *gin.Engine {
	r := gin.New()
	r.Use(logger.RequestID(), logger.Access(), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Webhook: sin token, límite estricto por IP
	if h.webhook != nil {
		r.POST("/webhooks/stripe", limiter.Middleware(middleware.Strict), h.webhook.Stripe)
	}

	// Rutas públicas
	public := r.Group("/", limiter.Middleware(general))
	public.GET("/productos", h.products.List)
	public.GET("/productos/:id", h.products.Get)
	public.GET("/productos/:id/resenas", h.products.ListReviews)

	// Rutas protegidas (requieren token)
	authed := r.Group("/", middleware.AuthMiddleware(auth), limiter.Middleware(general))
	sellers := middleware.RequireRole(service.RoleSeller, service.RoleAdmin)
	strict := limiter.Middleware(middleware.Strict)

	authed.POST("/productos", sellers, h.products.Create)
	authed.PATCH("/productos/:id", sellers, h.products.Update)

	orders := authed.Group("/ordenes")
	orders.POST("", strict, h.orders.Create)
	orders.GET("/compras", h.orders.ListPurchases)
	orders.GET("/ventas", sellers, h.orders.ListSales)
	orders.GET("/ventas/resumen", sellers, h.orders.SalesSummary)
	orders.GET("/:id", h.orders.Get)
	orders.POST("/:id/comprobante", strict, h.orders.UploadProof)
	orders.POST("/:id/confirmar-pago", strict, sellers, h.orders.ConfirmPayment)
	orders.POST("/:id/completar", strict, h.orders.Complete)
	orders.POST("/:id/cancelar", strict, h.orders.Cancel)

	authed.GET("/vendedores/:id/metodos-pago", h.paymentMethods.ListForSeller)
	methods := authed.Group("/metodos-pago", sellers)
	methods.GET("", h.paymentMethods.ListMine)
	methods.POST("", h.paymentMethods.Create)
	methods.PUT("/:id", h.paymentMethods.Update)
	methods.DELETE("/:id", h.paymentMethods.Deactivate)

	authed.POST("/resenas", h.reviews.Create)

	authed.GET("/notificaciones", h.notifications.List)
	authed.PATCH("/notificaciones/leidas", h.notifications.MarkAllRead)
	authed.PATCH("/notificaciones/:id/leida", h.notifications.MarkRead)

	// Rutas admin
	admin := authed.Group("/admin", middleware.RequireRole(service.RoleAdmin))
	admin.GET("/ordenes", h.orders.ListAll)

	return r
}
