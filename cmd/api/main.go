package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/saltline-charters/api/internal/di"
	"github.com/saltline-charters/api/internal/handlers"
	"github.com/saltline-charters/api/internal/platform/concierge"
	"github.com/saltline-charters/api/internal/platform/config"
	pfirestore "github.com/saltline-charters/api/internal/platform/firestore"
	"github.com/saltline-charters/api/internal/platform/observability"
	"github.com/saltline-charters/api/internal/platform/weather"
	"github.com/saltline-charters/api/internal/repositories"
	firestoreRepo "github.com/saltline-charters/api/internal/repositories/firestore"
	"github.com/saltline-charters/api/internal/services"
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		var validation *config.ValidationError
		if errors.As(err, &validation) {
			logger.Fatal("invalid configuration", zap.Strings("fields", validation.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	provider := pfirestore.NewProvider(cfg.Firestore)
	defer func() {
		if err := provider.Close(context.Background()); err != nil {
			logger.Warn("firestore provider close error", zap.Error(err))
		}
	}()

	var forecastProvider services.ForecastProvider
	var forecastClient *weather.Client
	if cfg.Features.EnableWeather {
		forecastClient, err = weather.NewClient(cfg.Weather)
		if err != nil {
			logger.Fatal("failed to initialise weather client", zap.Error(err))
		}
		forecastProvider = forecastClient
	}

	notifier := concierge.NewWebhookNotifier(cfg.Concierge)

	checks := []repositories.DependencyCheck{
		{
			Name: "firestore",
			Check: func(ctx context.Context) error {
				_, err := provider.Client(ctx)
				return err
			},
		},
	}
	if forecastClient != nil {
		checks = append(checks, repositories.DependencyCheck{
			Name:  "weather",
			Check: forecastClient.Ping,
		})
	}
	healthRepo, err := repositories.NewDependencyHealthRepository(checks)
	if err != nil {
		logger.Fatal("failed to initialise health repository", zap.Error(err))
	}

	registry, err := firestoreRepo.NewRegistry(firestoreRepo.RegistryDeps{
		Provider: provider,
		Health:   healthRepo,
	})
	if err != nil {
		logger.Fatal("failed to initialise repository registry", zap.Error(err))
	}

	buildInfo := buildInfoFromEnv(cfg, startedAt)

	container, err := di.NewContainer(ctx, di.ContainerDeps{
		Config:    cfg,
		Registry:  registry,
		Forecasts: forecastProvider,
		Concierge: notifier,
		Build:     buildInfo,
	})
	if err != nil {
		logger.Fatal("failed to build service container", zap.Error(err))
	}
	svc := container.Services

	offeringHandlers := handlers.NewOfferingHandlers(handlers.OfferingHandlersDeps{
		Catalog:      svc.Catalog,
		Engine:       svc.Engine,
		Policy:       svc.Policy,
		QuoteLimiter: handlers.NewRateLimiter(cfg.RateLimits.QuotePerMinute, time.Minute),
	})
	cartHandlers := handlers.NewCartHandlers(handlers.CartHandlersDeps{
		Carts:   svc.Carts,
		Catalog: svc.Catalog,
	})
	bookingHandlers := handlers.NewBookingHandlers(handlers.BookingHandlersDeps{
		Bookings: svc.Bookings,
		Catalog:  svc.Catalog,
	})
	contentHandlers := handlers.NewContentHandlers(svc.Content)
	adminCatalogHandlers := handlers.NewAdminCatalogHandlers(handlers.AdminCatalogHandlersDeps{
		Catalog: svc.Catalog,
		Content: svc.Content,
	})

	var weatherHandlers *handlers.WeatherHandlers
	if svc.Weather != nil {
		weatherHandlers = handlers.NewWeatherHandlers(svc.Weather)
	}
	var reviewHandlers *handlers.ReviewHandlers
	if svc.Reviews != nil {
		reviewHandlers = handlers.NewReviewHandlers(handlers.ReviewHandlersDeps{
			Reviews:       svc.Reviews,
			SubmitLimiter: handlers.NewRateLimiter(cfg.RateLimits.ReviewPerMinute, time.Minute),
		})
	}

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthBuildInfo(buildInfo),
		handlers.WithHealthSystemService(svc.System),
	)

	projectID := strings.TrimSpace(cfg.Firestore.ProjectID)
	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(projectID),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(projectID),
	}

	publicRoutes := func(r chi.Router) {
		r.Route("/offerings", offeringHandlers.Routes)
		r.Route("/pages", contentHandlers.Routes)
		if weatherHandlers != nil {
			r.Route("/weather", weatherHandlers.Routes)
		}
		if reviewHandlers != nil {
			r.Route("/reviews", reviewHandlers.Routes)
		}
	}
	adminRoutes := func(r chi.Router) {
		adminCatalogHandlers.Routes(r)
		if reviewHandlers != nil {
			r.Route("/reviews", reviewHandlers.AdminRoutes)
		}
	}

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithPublicRoutes(publicRoutes),
		handlers.WithCartRoutes(cartHandlers.Routes),
		handlers.WithBookingRoutes(bookingHandlers.Routes),
		handlers.WithAdminRoutes(adminRoutes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("saltline charters api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	if err := container.Close(shutdownCtx); err != nil {
		logger.Error("container close failed", zap.Error(err))
	}
}

func buildInfoFromEnv(cfg config.Config, started time.Time) services.BuildInfo {
	version := strings.TrimSpace(os.Getenv("API_BUILD_VERSION"))
	if version == "" {
		version = "dev"
	}
	commit := strings.TrimSpace(os.Getenv("API_BUILD_COMMIT_SHA"))
	if commit == "" {
		commit = "unknown"
	}
	environment := strings.TrimSpace(cfg.Server.Environment)
	if environment == "" {
		environment = "local"
	}
	return services.BuildInfo{
		Version:     version,
		CommitSHA:   commit,
		Environment: environment,
		StartedAt:   started,
	}
}
