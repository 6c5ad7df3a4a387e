// main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"unityshop-backend/controllers"
	"unityshop-backend/logger"
	"unityshop-backend/payments"
	"unityshop-backend/realtime"
	"unityshop-backend/routes"
	"unityshop-backend/utils"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

// run owns every resource the process acquires, so a startup failure
// still walks back through the deferred teardown before the nonzero
// exit.
func run() error {
	// Missing .env is fine in production; settings come from the
	// environment.
	_ = godotenv.Load()

	log := logger.New(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))
	defer log.Sync()

	utils.JwtKey = []byte(os.Getenv("JWT_SECRET"))

	client, err := utils.Connect(os.Getenv("MONGODB_URL"))
	if err != nil {
		log.Error("mongo connection failed", zap.Error(err))
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := utils.Disconnect(ctx, client); err != nil {
			log.Error("mongo disconnect failed", zap.Error(err))
		}
	}()

	{
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := utils.EnsureIndexes(ctx, client)
		cancel()
		if err != nil {
			log.Error("index creation failed", zap.Error(err))
			return err
		}
	}

	hub := realtime.NewHub(log)
	emailService := utils.NewEmailService()
	provider := payments.NewStripeProvider(os.Getenv("STRIPE_SECRET_KEY"), os.Getenv("SITE_DOMAIN"))

	notificationController := controllers.NewNotificationController(client, hub, log)
	promoController := controllers.NewPromoController(client, notificationController, log)

	var mailer controllers.Mailer
	if emailService != nil {
		mailer = emailService
	} else {
		log.Warn("SENDGRID_API_KEY not set; confirmation mail disabled")
	}

	c := routes.Controllers{
		Cart:          controllers.NewCartController(client, hub, log),
		Payment:       controllers.NewPaymentController(provider, controllers.NewOrderStore(client), notificationController, promoController, mailer, log),
		Notifications: notificationController,
		Promo:         promoController,
		Orders:        controllers.NewOrderController(client, log),
		Reviews:       controllers.NewReviewController(client, log),
		Products:      controllers.NewProductController(client, log),
		Users:         controllers.NewUserController(client, log),
		Hub:           hub,
	}

	router := mux.NewRouter()
	routes.RegisterRoutes(router, c)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	// No Read/WriteTimeout: they would tear down long-lived websocket
	// connections served through the same handler.
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("port", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Error("server failed", zap.Error(err))
		return err
	case <-stop:
	}

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("shutdown failed", zap.Error(err))
		return err
	}
	return nil
}
