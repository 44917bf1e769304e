package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onyxprocessing/opsdash-backend/api/routes"
	"github.com/onyxprocessing/opsdash-backend/internal/affiliates"
	"github.com/onyxprocessing/opsdash-backend/internal/customers"
	internalorders "github.com/onyxprocessing/opsdash-backend/internal/orders"
	"github.com/onyxprocessing/opsdash-backend/internal/payments"
	"github.com/onyxprocessing/opsdash-backend/internal/products"
	"github.com/onyxprocessing/opsdash-backend/internal/shipping"
	"github.com/onyxprocessing/opsdash-backend/pkg/airtable"
	"github.com/onyxprocessing/opsdash-backend/pkg/config"
	"github.com/onyxprocessing/opsdash-backend/pkg/easypost"
	"github.com/onyxprocessing/opsdash-backend/pkg/logger"
	"github.com/onyxprocessing/opsdash-backend/pkg/metrics"
	"github.com/onyxprocessing/opsdash-backend/pkg/redis"
	"github.com/onyxprocessing/opsdash-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	callMetrics := metrics.NewExternalCallMetrics(registry)

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	airtableClient, err := airtable.NewClient(cfg.Airtable, airtable.WithMetrics(callMetrics))
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap airtable", err)
		os.Exit(1)
	}

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	easypostClient, err := easypost.NewClient(cfg.EasyPost, easypost.WithMetrics(callMetrics))
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap easypost", err)
		os.Exit(1)
	}

	verifier, err := payments.NewService(payments.NewStripeAPI(stripeClient), redisClient, cfg.Verify, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment verifier", err)
		os.Exit(1)
	}

	ordersRepo, err := internalorders.NewRepository(airtableClient, cfg.Airtable.OrdersTable)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders repository", err)
		os.Exit(1)
	}

	ordersService, err := internalorders.NewService(ordersRepo, verifier)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	shippingService, err := shipping.NewService(ordersRepo, easypostClient, cfg.ShipFrom)
	if err != nil {
		logg.Error(context.Background(), "failed to create shipping service", err)
		os.Exit(1)
	}

	productsService, err := products.NewService(airtableClient, cfg.Airtable.ProductsTable)
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}

	affiliatesService, err := affiliates.NewService(airtableClient, cfg.Airtable.AffiliatesTable, ordersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create affiliates service", err)
		os.Exit(1)
	}

	customersService, err := customers.NewService(ordersRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create customers service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"stripe_env": stripeClient.Environment(),
	})
	logg.Info(ctx, "starting api server")

	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			redisClient,
			metricsHandler,
			ordersService,
			shippingService,
			productsService,
			affiliatesService,
			customersService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
