package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/saltline-charters/api/internal/platform/config"
	"github.com/saltline-charters/api/internal/platform/requestctx"
	"github.com/saltline-charters/api/internal/repositories"
	"github.com/saltline-charters/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Catalog  services.CatalogService
	Policy   services.SelectionPolicy
	Engine   *services.PricingEngine
	Carts    services.CartService
	Bookings services.BookingService
	Content  services.ContentService
	Reviews  services.ReviewService
	Weather  services.WeatherService
	System   services.SystemService
}

// ContainerDeps carries the externally constructed collaborators. The forecast
// provider and concierge notifier live at the platform edge; the container only
// wires them into services.
type ContainerDeps struct {
	Config    config.Config
	Registry  repositories.Registry
	Forecasts services.ForecastProvider
	Concierge services.ConciergeNotifier
	Build     services.BuildInfo
	Clock     func() time.Time
}

// Container wires repositories and services for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// NewContainer constructs the runtime dependencies. Production wiring provides the
// Firestore-backed registry, while tests can supply in-memory fakes.
func NewContainer(_ context.Context, deps ContainerDeps) (*Container, error) {
	if deps.Registry == nil {
		return nil, errors.New("repositories registry is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	svc, err := buildServices(deps, clock)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       deps.Config,
		Repositories: deps.Registry,
		Services:     svc,
	}, nil
}

// Close releases resources such as repository clients.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(deps ContainerDeps, clock func() time.Time) (Services, error) {
	var svc Services
	reg := deps.Registry
	logger := eventLogger()

	engine, err := services.NewPricingEngine(services.PricingEngineDeps{
		Now:    clock,
		Logger: logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build pricing engine: %w", err)
	}
	svc.Engine = engine
	svc.Policy = services.NewSelectionPolicy()

	if offeringsRepo := reg.Offerings(); offeringsRepo != nil {
		catalogSvc, err := services.NewCatalogService(services.CatalogServiceDeps{
			Offerings: offeringsRepo,
			Clock:     clock,
			Logger:    logger,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build catalog service: %w", err)
		}
		svc.Catalog = catalogSvc
	}

	if cartsRepo := reg.Carts(); cartsRepo != nil {
		cartSvc, err := services.NewCartService(services.CartServiceDeps{
			Repository:      cartsRepo,
			Composer:        services.NewCartComposer(),
			Engine:          engine,
			Clock:           clock,
			DefaultCurrency: "USD",
			Logger:          logger,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build cart service: %w", err)
		}
		svc.Carts = cartSvc
	}

	if svc.Carts != nil {
		bookingSvc, err := services.NewBookingService(services.BookingServiceDeps{
			Engine:    engine,
			Policy:    svc.Policy,
			Carts:     svc.Carts,
			Concierge: deps.Concierge,
			Clock:     clock,
			Logger:    logger,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build booking service: %w", err)
		}
		svc.Bookings = bookingSvc
	}

	if contentRepo := reg.Content(); contentRepo != nil {
		contentSvc, err := services.NewContentService(services.ContentServiceDeps{
			Content: contentRepo,
			Clock:   clock,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build content service: %w", err)
		}
		svc.Content = contentSvc
	}

	if reviewsRepo := reg.Reviews(); reviewsRepo != nil && deps.Config.Features.EnableReviews {
		reviewSvc, err := services.NewReviewService(services.ReviewServiceDeps{
			Reviews: reviewsRepo,
			Clock:   clock,
			Logger:  logger,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build review service: %w", err)
		}
		svc.Reviews = reviewSvc
	}

	if deps.Forecasts != nil && deps.Config.Features.EnableWeather {
		weatherSvc, err := services.NewWeatherService(services.WeatherServiceDeps{
			Provider: deps.Forecasts,
			CacheTTL: deps.Config.Weather.CacheTTL,
			Clock:    clock,
			Logger:   logger,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build weather service: %w", err)
		}
		svc.Weather = weatherSvc
	}

	if healthRepo := reg.Health(); healthRepo != nil {
		systemSvc, err := services.NewSystemService(services.SystemServiceDeps{
			HealthRepository: healthRepo,
			Clock:            clock,
			Build:            deps.Build,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build system service: %w", err)
		}
		svc.System = systemSvc
	}

	return svc, nil
}

func eventLogger() func(context.Context, string, map[string]any) {
	return func(ctx context.Context, event string, fields map[string]any) {
		logger := requestctx.Logger(ctx)
		zapFields := make([]zap.Field, 0, len(fields))
		for key, value := range fields {
			zapFields = append(zapFields, zap.Any(key, value))
		}
		logger.Info(event, zapFields...)
	}
}
