package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shop-backend/config"
	"shop-backend/internal/api"
	"shop-backend/internal/auth"
	"shop-backend/internal/broker"
	"shop-backend/internal/mail"
	"shop-backend/internal/ratelimit"
	"shop-backend/internal/service"
	"shop-backend/internal/store"
	"shop-backend/internal/stripe"
	"shop-backend/internal/util"
	"shop-backend/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting shop backend")

	tp, err := util.InitTracer("shop-backend", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	limiter, err := ratelimit.NewLoginLimiter(
		cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
		cfg.Auth.MaxLoginAttempts,
		time.Duration(cfg.Auth.LockoutSeconds)*time.Second,
	)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer limiter.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	tokens, err := auth.NewTokens(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
	if err != nil {
		log.Fatalf("Failed to initialize token issuer: %v", err)
	}

	var mailer mail.Sender = mail.LogSender{}
	if cfg.Business.SMTPAddr != "" {
		mailer = mail.NewSMTPSender(cfg.Business.SMTPAddr, cfg.Business.SMTPFrom)
	}

	stripeClient := stripe.NewClient(cfg.Stripe.SecretKey)
	pricing := service.Pricing{TaxRatePercent: int64(cfg.Business.TaxRatePercent)}

	catalogService := service.NewCatalogService(db)
	orderService := service.NewOrderService(db, eventPublisher, pricing, cfg.Business.Currency)
	checkoutService := service.NewCheckoutService(db, stripeClient, pricing, cfg.Stripe.SuccessURL, cfg.Stripe.CancelURL)
	authService := service.NewAuthService(db, tokens, limiter, mailer, cfg.Auth.AdminIPAllowlist, cfg.Auth.ResetURLPrefix)
	favoriteService := service.NewFavoriteService(db)
	messageService := service.NewMessageService(db)
	reconciler := service.NewReconciler(db, stripeClient, eventPublisher)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	notifyConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder, cfg.Kafka.ConsumerGroup)
	notifyWorker := worker.NewNotifyWorker(notifyConsumer, mailer)
	go func() {
		if err := notifyWorker.Start(workerCtx); err != nil {
			log.Printf("Notify worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(
		catalogService,
		orderService,
		checkoutService,
		authService,
		favoriteService,
		messageService,
		reconciler,
		tokens,
		cfg.Stripe.WebhookSecret,
	)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	notifyWorker.Stop()

	log.Println("Server exited")
}
