package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/selim-rachidi/boutiqa-backend/internal/catalog"
	"github.com/selim-rachidi/boutiqa-backend/internal/messaging"
	"github.com/selim-rachidi/boutiqa-backend/internal/orders"
	"github.com/selim-rachidi/boutiqa-backend/internal/ratelimit"
	"github.com/selim-rachidi/boutiqa-backend/internal/stock"
	"github.com/selim-rachidi/boutiqa-backend/internal/telemetry"
)

const (
	rateLimitRequests = 10
	rateLimitWindow   = time.Minute
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	adminToken := os.Getenv("ADMIN_TOKEN")
	if adminToken == "" {
		logger.Error("ADMIN_TOKEN environment variable is required")
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "orders", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("orders", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize meter provider", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	db, err := telemetry.OpenDB("postgres", postgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	intakeMetrics, err := telemetry.NewIntakeMetrics()
	if err != nil {
		logger.Error("failed to create intake metrics", "error", err)
		os.Exit(1)
	}

	limiter := ratelimit.NewSlidingWindow(rateLimitRequests, rateLimitWindow)

	handler := orders.NewHandler(
		catalog.NewProductRepository(db),
		stock.NewRepository(db),
		orders.NewOrderRepository(db),
		limiter,
		logger,
	).WithMetrics(intakeMetrics)

	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers != "" {
		brokers := strings.Split(kafkaBrokers, ",")
		producer := messaging.NewProducer(brokers, messaging.TopicOrderCreated)
		defer func() { _ = producer.Close() }()

		statusProducer := messaging.NewProducer(brokers, messaging.TopicOrderStatusChanged)
		defer func() { _ = statusProducer.Close() }()

		handler.WithPublisher(orders.RoutedPublisher{
			Created:       producer,
			StatusChanged: statusProducer,
		})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /commandes", telemetry.WithHTTPRoute(handler.HandleCreate))
	mux.HandleFunc("GET /commandes", telemetry.WithHTTPRoute(orders.AdminOnly(adminToken, handler.HandleList)))
	mux.HandleFunc("GET /commandes/{id}", telemetry.WithHTTPRoute(handler.HandleGet))
	mux.HandleFunc("PATCH /commandes/{id}/statut", telemetry.WithHTTPRoute(orders.AdminOnly(adminToken, handler.HandleUpdateStatus)))
	mux.Handle("GET /metrics", metricsHandler)

	// Keep the limiter's key table from accumulating one-shot clients.
	pruneCtx, cancelPrune := context.WithCancel(ctx)
	defer cancelPrune()
	go func() {
		ticker := time.NewTicker(rateLimitWindow)
		defer ticker.Stop()
		for {
			select {
			case <-pruneCtx.Done():
				return
			case <-ticker.C:
				limiter.Prune()
			}
		}
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(mux, "orders",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting orders service", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
