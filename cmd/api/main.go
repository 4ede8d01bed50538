package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/jafarshop/returnsapi/internal/api"
	"github.com/jafarshop/returnsapi/internal/config"
	"github.com/jafarshop/returnsapi/internal/domain"
	"github.com/jafarshop/returnsapi/internal/events"
	"github.com/jafarshop/returnsapi/internal/logger"
	"github.com/jafarshop/returnsapi/internal/mailer"
	"github.com/jafarshop/returnsapi/internal/razorpay"
	"github.com/jafarshop/returnsapi/internal/repository"
	"github.com/jafarshop/returnsapi/internal/repository/memory"
	"github.com/jafarshop/returnsapi/internal/repository/postgres"
	"github.com/jafarshop/returnsapi/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	repos, closeStore, err := openRepositories(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer closeStore()

	var publisher events.Publisher = events.NewLogPublisher(log)
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
	}
	defer publisher.Close()

	services := service.NewServices(
		cfg,
		repos,
		razorpay.NewClient(cfg.Razorpay, log),
		mailer.New(cfg.SMTP, log),
		publisher,
		log,
	)

	router := api.NewRouter(cfg, repos, services, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Returns API started",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
		zap.String("storage", cfg.StorageDriver),
	)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

// openRepositories returns the configured repository set and a close func for it
func openRepositories(cfg *config.Config, log *zap.Logger) (*repository.Repositories, func(), error) {
	if cfg.StorageDriver == "memory" {
		store := memory.NewStore()
		repos := memory.NewRepositories(store)
		if err := seedDemoData(store, repos, cfg.DemoOperatorKey, log); err != nil {
			return nil, nil, err
		}
		return repos, func() {}, nil
	}

	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.RunMigrations(cfg.Database, log); err != nil {
		db.Close()
		return nil, nil, err
	}
	return postgres.NewRepositories(db, log), func() { db.Close() }, nil
}

// seedDemoData gives the memory driver one customer with a delivered prepaid order
func seedDemoData(store *memory.Store, repos *repository.Repositories, operatorKey string, log *zap.Logger) error {
	now := time.Now().UTC()
	deliveredAt := now.Add(-48 * time.Hour)
	paymentID := "pay_demo0001"

	customer := domain.Customer{
		ID:        uuid.New(),
		Email:     "demo.customer@example.com",
		FullName:  "Demo Customer",
		CreatedAt: now,
	}
	store.PutCustomer(customer)

	order := domain.Order{
		ID:               uuid.New(),
		OrderNumber:      "ORD-DEMO-0001",
		CustomerID:       customer.ID,
		Status:           domain.OrderStatusDelivered,
		PaymentStatus:    domain.PaymentStatusPaid,
		PaymentMethod:    domain.PaymentMethodRazorpay,
		GatewayPaymentID: &paymentID,
		TotalAmount:      decimal.NewFromInt(2000),
		DeliveredAt:      &deliveredAt,
		CreatedAt:        now.Add(-96 * time.Hour),
		UpdatedAt:        deliveredAt,
	}
	item := domain.OrderItem{
		ID:          uuid.New(),
		OrderID:     order.ID,
		ProductID:   uuid.New(),
		ProductName: "Demo Sneakers",
		ItemType:    domain.ItemTypeProduct,
		Quantity:    1,
		UnitPrice:   decimal.NewFromInt(2000),
		TotalPrice:  decimal.NewFromInt(2000),
	}
	store.PutOrder(order, []domain.OrderItem{item})

	log.Info("Seeded demo data",
		zap.String("customer_id", customer.ID.String()),
		zap.String("order_id", order.ID.String()),
	)

	if operatorKey == "" {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(operatorKey), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash demo operator key: %w", err)
	}
	operator := &domain.Operator{
		Name:         "demo-operator",
		APIKeyHash:   string(hash),
		APIKeyLookup: domain.APIKeyLookup(operatorKey),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repos.Operator.Create(context.Background(), operator); err != nil {
		return fmt.Errorf("failed to seed demo operator: %w", err)
	}
	log.Info("Seeded demo operator", zap.String("operator_id", operator.ID.String()))
	return nil
}
