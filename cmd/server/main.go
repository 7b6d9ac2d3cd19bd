package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"poliventas-service/internal/config"
	"poliventas-service/internal/controller"
	"poliventas-service/internal/logger"
	"poliventas-service/internal/middleware"
	"poliventas-service/internal/payment"
	"poliventas-service/internal/rabbit"
	"poliventas-service/internal/repository"
	"poliventas-service/internal/service"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Conexión a MongoDB
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("mongo connect failed", zap.Error(err))
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		log.Fatal("mongo ping failed", zap.Error(err))
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	db := client.Database(cfg.MongoDBName)
	if err := repository.EnsureIndexes(connectCtx, db); err != nil {
		log.Fatal("could not create indexes", zap.Error(err))
	}

	// Repositorios y servicios
	tx := repository.NewMongoTxRunner(client)
	orderRepo := repository.NewMongoOrderRepository(db)
	productRepo := repository.NewMongoProductRepository(db)
	methodRepo := repository.NewMongoPaymentMethodRepository(db)
	reviewRepo := repository.NewMongoReviewRepository(db)
	notificationRepo := repository.NewMongoNotificationRepository(db)

	notificationService := service.NewNotificationService(notificationRepo)
	authService := service.NewAuthService(cfg.JWTSecret)

	// Eventos: RabbitMQ si está configurado, si no directo a notificaciones
	var events service.EventPublisher = service.DirectPublisher{Notifications: notificationService}
	if cfg.RabbitURL != "" {
		conn, err := amqp091.Dial(cfg.RabbitURL)
		if err != nil {
			log.Fatal("rabbitmq connect failed", zap.Error(err))
		}
		defer conn.Close()

		pubCh, err := conn.Channel()
		if err != nil {
			log.Fatal("rabbitmq channel failed", zap.Error(err))
		}
		if err := rabbit.DeclareTopology(pubCh); err != nil {
			log.Fatal("rabbitmq topology failed", zap.Error(err))
		}
		events = rabbit.NewPublisher(pubCh)

		consumeCh, err := conn.Channel()
		if err != nil {
			log.Fatal("rabbitmq channel failed", zap.Error(err))
		}
		if err := rabbit.StartNotificationConsumer(ctx, consumeCh, rabbit.NewNotificationConsumer(notificationService)); err != nil {
			log.Fatal("rabbitmq consumer failed", zap.Error(err))
		}
	} else {
		log.Warn("RABBIT_URL not set, notifications are written in-process")
	}

	// Pagos con tarjeta
	var (
		gateway       service.PaymentGateway
		stripeGateway *payment.StripeGateway
	)
	if cfg.StripeSecretKey != "" {
		stripeGateway = payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.StripeCurrency)
		gateway = stripeGateway
	} else {
		log.Warn("STRIPE_SECRET_KEY not set, card payments disabled")
	}

	orderService := service.NewOrderService(service.OrderServiceDeps{
		Tx:               tx,
		Orders:           orderRepo,
		Products:         productRepo,
		Methods:          methodRepo,
		Gateway:          gateway,
		Events:           events,
		MaxCancellations: cfg.MaxBuyerCancellations,
	})

	var webhook *controller.WebhookController
	if stripeGateway != nil {
		webhook = controller.NewWebhookController(stripeGateway, orderService)
	}

	productService := service.NewProductService(productRepo)
	reviewService := service.NewReviewService(tx, reviewRepo, orderRepo, productRepo, events)

	limiter := middleware.NewRateLimiter()
	limiter.StartCleanup(ctx)

	router := newRouter(handlers{
		orders:         controller.NewOrderController(orderService),
		products:       controller.NewProductController(productService, reviewService),
		paymentMethods: controller.NewPaymentMethodController(service.NewPaymentMethodService(methodRepo)),
		reviews:        controller.NewReviewController(reviewService),
		notifications:  controller.NewNotificationController(notificationService),
		webhook:        webhook,
	}, authService, limiter, middleware.General(cfg.RateLimitRPS, cfg.RateLimitBurst))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("PoliVentas service listening", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
