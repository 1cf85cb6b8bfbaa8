package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nearmarket/nearmarket-backend/api/controllers"
	"github.com/nearmarket/nearmarket-backend/api/routes"
	adminsvc "github.com/nearmarket/nearmarket-backend/internal/admin"
	authsvc "github.com/nearmarket/nearmarket-backend/internal/auth"
	cartsvc "github.com/nearmarket/nearmarket-backend/internal/cart"
	"github.com/nearmarket/nearmarket-backend/internal/catalog"
	"github.com/nearmarket/nearmarket-backend/internal/categories"
	ordersvc "github.com/nearmarket/nearmarket-backend/internal/orders"
	reviewsvc "github.com/nearmarket/nearmarket-backend/internal/reviews"
	"github.com/nearmarket/nearmarket-backend/internal/users"
	vendorsvc "github.com/nearmarket/nearmarket-backend/internal/vendors"
	"github.com/nearmarket/nearmarket-backend/pkg/config"
	"github.com/nearmarket/nearmarket-backend/pkg/db"
	"github.com/nearmarket/nearmarket-backend/pkg/logger"
	"github.com/nearmarket/nearmarket-backend/pkg/metrics"
	"github.com/nearmarket/nearmarket-backend/pkg/migrate"
	"github.com/nearmarket/nearmarket-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

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

	deliveryFee, err := cfg.Orders.DeliveryFeeAmount()
	if err != nil {
		logg.Error(context.Background(), "invalid delivery fee config", err)
		os.Exit(1)
	}

	conn := dbClient.DB()
	userRepo := users.NewRepository(conn)
	profileRepo := vendorsvc.NewProfileRepository(conn)
	productRepo := vendorsvc.NewProductRepository(conn)
	categoryRepo := categories.NewRepository(conn)
	cartRepo := cartsvc.NewRepository(conn)
	orderRepo := ordersvc.NewRepository(conn)
	reviewRepo := reviewsvc.NewRepository(conn)

	authService, err := authsvc.NewService(authsvc.ServiceParams{
		DBClient:    dbClient,
		UserRepo:    userRepo,
		TokenRepo:   authsvc.NewTokenRepository(conn),
		ProfileRepo: profileRepo,
		JWTConfig:   cfg.JWT,
		Password:    cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(conn))
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartService, err := cartsvc.NewService(cartRepo, productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	orderService, err := ordersvc.NewService(ordersvc.ServiceParams{
		DBClient:    dbClient,
		Orders:      orderRepo,
		Carts:       cartRepo,
		Products:    productRepo,
		DeliveryFee: deliveryFee,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	reviewService, err := reviewsvc.NewService(reviewsvc.ServiceParams{
		Reviews:  reviewRepo,
		Users:    userRepo,
		Profiles: profileRepo,
		Products: productRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create review service", err)
		os.Exit(1)
	}

	vendorService, err := vendorsvc.NewService(vendorsvc.ServiceParams{
		Profiles:   profileRepo,
		Products:   productRepo,
		Categories: categoryRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create vendor service", err)
		os.Exit(1)
	}

	adminService, err := adminsvc.NewService(adminsvc.ServiceParams{
		Repo:       adminsvc.NewRepository(conn),
		Profiles:   profileRepo,
		Products:   productRepo,
		Categories: categoryRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create admin service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	handler := routes.NewRouter(cfg, logg, routes.Services{
		Auth:    authService,
		Catalog: catalogService,
		Cart:    cartService,
		Orders:  orderService,
		Reviews: reviewService,
		Vendors: vendorService,
		Admin:   adminService,
	}, routes.Dependencies{
		Redis:       redisClient,
		HTTPMetrics: httpMetrics,
		Registry:    registry,
		Health: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
		},
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}

	logg.Info(ctx, "api server stopped")
}
