package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bissquit/shop-subscriptions/internal/cart"
	cartpostgres "github.com/bissquit/shop-subscriptions/internal/cart/postgres"
	"github.com/bissquit/shop-subscriptions/internal/catalog"
	catalogpostgres "github.com/bissquit/shop-subscriptions/internal/catalog/postgres"
	"github.com/bissquit/shop-subscriptions/internal/domain"
	"github.com/bissquit/shop-subscriptions/internal/events"
	"github.com/bissquit/shop-subscriptions/internal/identity"
	identitypostgres "github.com/bissquit/shop-subscriptions/internal/identity/postgres"
	metapostgres "github.com/bissquit/shop-subscriptions/internal/meta/postgres"
	"github.com/bissquit/shop-subscriptions/internal/notifications"
	"github.com/bissquit/shop-subscriptions/internal/notifications/email"
	"github.com/bissquit/shop-subscriptions/internal/orders"
	orderspostgres "github.com/bissquit/shop-subscriptions/internal/orders/postgres"
	"github.com/bissquit/shop-subscriptions/internal/pkg/httputil"
	"github.com/bissquit/shop-subscriptions/internal/scheduler"
	schedulerpostgres "github.com/bissquit/shop-subscriptions/internal/scheduler/postgres"
	"github.com/bissquit/shop-subscriptions/internal/subscriptions"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (a *App) setupRouter(ctx context.Context) (*chi.Mux, *scheduler.Worker, error) {
	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)

	// CORS must be early to handle preflight requests before other middleware
	r.Use(httputil.CORSMiddleware(a.config.CORS.AllowedOrigins))
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLoggerMiddleware(a.logger))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", a.healthzHandler)
	r.Get("/readyz", a.readyzHandler)
	r.Get("/version", a.versionHandler)

	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-yaml")
		http.ServeFile(w, r, "api/openapi/openapi.yaml")
	})

	shopLocation, err := a.config.Shop.Location()
	if err != nil {
		return nil, nil, fmt.Errorf("load shop time zone: %w", err)
	}
	settings := subscriptions.Settings{
		Location:    shopLocation,
		HomeURL:     a.config.Shop.HomeURL,
		CheckoutURL: a.config.Shop.CheckoutURL,
	}

	bus := events.NewBus()
	metaStore := metapostgres.NewRepository(a.db)

	// Identity
	jwtAuth, err := identity.NewJWTAuthenticator(a.config.JWT.SecretKey, a.config.JWT.AccessTokenDuration)
	if err != nil {
		return nil, nil, fmt.Errorf("create authenticator: %w", err)
	}
	identityService := identity.NewService(identitypostgres.NewRepository(a.db), jwtAuth)
	if a.config.Admin.Email != "" && a.config.Admin.Password != "" {
		if err := identityService.EnsureAdmin(ctx, a.config.Admin.Email, a.config.Admin.Password); err != nil {
			return nil, nil, fmt.Errorf("seed admin account: %w", err)
		}
	}
	identityHandler := identity.NewHandler(identityService)

	// Catalog
	catalogService := catalog.NewService(catalogpostgres.NewRepository(a.db), metaStore)
	catalogHandler := catalog.NewHandler(catalogService, bus)
	bus.OnProductSaved(catalogService.HandleProductSaved)

	// Cart
	cartService := cart.NewService(cartpostgres.NewRepository(a.db), catalogService, bus)
	cartHandler := cart.NewHandler(cartService)
	bus.OnAddToCart(cart.NewGuard(cartService, catalogService).Validate)

	// Orders
	ordersService := orders.NewService(orderspostgres.NewRepository(a.db), catalogService, cartService, identityService)

	// Scheduler
	taskRepo := schedulerpostgres.NewRepository(a.db)
	taskScheduler := scheduler.NewScheduler(taskRepo, a.config.Scheduler.MaxAttempts)
	schedulerHandler := scheduler.NewHandler(taskScheduler)

	// Notifications
	emailSender, err := email.NewSender(email.Config{
		Enabled:      a.config.Email.Enabled,
		SMTPHost:     a.config.Email.SMTPHost,
		SMTPPort:     a.config.Email.SMTPPort,
		SMTPUser:     a.config.Email.SMTPUser,
		SMTPPassword: a.config.Email.SMTPPassword,
		FromAddress:  a.config.Email.FromAddress,
		RateLimit:    a.config.Email.RateLimit,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create email sender: %w", err)
	}
	if !a.config.Email.Enabled {
		slog.Warn("email sender is disabled: subscription emails will not be sent")
	}

	renderer, err := notifications.NewRenderer()
	if err != nil {
		return nil, nil, fmt.Errorf("create email renderer: %w", err)
	}

	// Subscriptions
	standings := subscriptions.NewStandings(ordersService, catalogService, metaStore, settings)
	renewalLinks := subscriptions.NewRenewalLinks(ordersService, catalogService, settings)
	dispatcher := notifications.NewDispatcher(ordersService, metaStore, renewalLinks, renderer, emailSender, a.config.Shop.Name)

	activator := subscriptions.NewActivator(ordersService, catalogService, metaStore, taskScheduler, settings)
	enforcer := subscriptions.NewEnforcer(standings, ordersService, dispatcher, settings)
	reminder := subscriptions.NewReminder(standings, dispatcher, settings)
	presenter := subscriptions.NewPresenter(standings)
	subscriptionsHandler := subscriptions.NewHandler(ordersService, renewalLinks, standings, settings)

	// Activation runs before the cart reset so a failed reset never hides the expiry
	bus.OnOrderConfirmed(activator.HandleOrderConfirmed)
	bus.OnOrderConfirmed(cart.NewResetter(cartService).HandleOrderConfirmed)

	ordersHandler := orders.NewHandler(ordersService, bus, presenter, shopLocation)

	worker := scheduler.NewWorker(scheduler.WorkerConfig{
		BatchSize:         a.config.Scheduler.BatchSize,
		PollInterval:      a.config.Scheduler.PollInterval,
		InitialBackoff:    a.config.Scheduler.InitialBackoff,
		MaxBackoff:        a.config.Scheduler.MaxBackoff,
		BackoffMultiplier: a.config.Scheduler.BackoffMultiplier,
		NumWorkers:        a.config.Scheduler.NumWorkers,
		StuckTimeout:      a.config.Scheduler.StuckTimeout,
	}, taskRepo)
	worker.Handle(scheduler.KindSubscriptionReminder, reminder.SendReminder)
	worker.Handle(scheduler.KindSubscriptionExpiry, enforcer.CheckExpiry)

	r.Route("/api/v1", func(r chi.Router) {
		identityHandler.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(httputil.AuthMiddleware(jwtAuth))

			identityHandler.RegisterProtectedRoutes(r)
			cartHandler.RegisterRoutes(r)
			ordersHandler.RegisterRoutes(r)
			subscriptionsHandler.RegisterRoutes(r)

			r.Route("/admin", func(r chi.Router) {
				r.Use(httputil.RequireRole(domain.RoleAdmin))
				catalogHandler.RegisterRoutes(r)
				ordersHandler.RegisterAdminRoutes(r)
				schedulerHandler.RegisterRoutes(r)
			})
		})
	})

	return r, worker, nil
}
