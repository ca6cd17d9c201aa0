package cmd

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"golang.org/x/sync/errgroup"

	"eventhub/config"
	"eventhub/internal/auth"
	"eventhub/internal/backend"
	"eventhub/internal/handlers"
	"eventhub/internal/routes"
	"eventhub/internal/services"
	"eventhub/internal/views"
	_ "eventhub/migrations"
	"eventhub/monitoring"
	"eventhub/security"
	"eventhub/utils"
)

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	// plain `eventhub` serves on PORT
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve", "--http=0.0.0.0:"+cfg.Port)
	}

	app := pocketbase.New()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize Redis
	redisClient, err := utils.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	// Backend and auth session store
	client := backend.NewPocketBaseClient(app, backend.NewRedisSessionStorage(redisClient, cfg.SessionTTL))
	store := auth.NewStore(client, cfg.SessionRevalidate)
	defer store.Close()

	monitor := monitoring.NewMonitor(store)

	// Initialize PubNub
	var publisher services.Publisher
	if pn := services.NewPubNubPublisher(cfg.PubNubPublishKey, cfg.PubNubSubscribeKey, cfg.PubNubSecretKey); pn != nil {
		publisher = pn
	} else {
		log.Println("PubNub keys not set, booking notifications disabled")
	}

	// Initialize services
	notifier := services.NewNotificationService(publisher, utils.NewCircuitBreaker("pubnub", cfg.BreakerSettings()), monitor)
	catalog := services.NewCatalogService(client, monitor)
	bookings := services.NewBookingService(client, services.NewIdempotencyGuard(redisClient, cfg.BookingNonceTTL), notifier, monitor)

	// Initialize handlers
	renderer := views.NewRenderer(utils.NewFormatter(cfg.Locale, cfg.CurrencySymbol))
	sessionHandler := handlers.NewSessionHandler(store, cfg.SessionTTL, !cfg.IsDevelopment())
	homeHandler := handlers.NewHomeHandler(renderer, monitor)
	authHandler := handlers.NewAuthHandler(store, sessionHandler, renderer, monitor)
	eventHandler := handlers.NewEventHandler(catalog, bookings, renderer, monitor)
	dashboardHandler := handlers.NewDashboardHandler(bookings, renderer, monitor)
	healthHandler := handlers.NewHealthHandler(redisClient)
	limiter := security.NewRateLimiter(redisClient, cfg.AuthRateLimit)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: cfg.IsDevelopment(),
	})
	app.RootCmd.AddCommand(NewSeedCommand(app))

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		slog.SetDefault(e.App.Logger())

		e.Router.BindFunc(sessionHandler.Middleware)

		// Pages
		e.Router.GET("/{$}", homeHandler.Home)
		e.Router.GET(routes.Events, eventHandler.ListEvents)
		e.Router.GET("/events/{id}", eventHandler.GetEvent)
		e.Router.GET(routes.Dashboard, dashboardHandler.Dashboard)
		e.Router.GET(routes.SignIn, authHandler.SignInPage)
		e.Router.GET(routes.SignUp, authHandler.SignUpPage)

		// Form posts
		e.Router.POST("/events/{id}/book", eventHandler.Book)
		e.Router.POST(routes.SignIn, authHandler.SignIn).
			BindFunc(limiter.AntiBotMiddleware, limiter.AuthRateLimit)
		e.Router.POST(routes.SignUp, authHandler.SignUp).
			BindFunc(limiter.AntiBotMiddleware, limiter.AuthRateLimit)
		e.Router.POST(routes.SignOut, authHandler.SignOut)

		// Health check
		e.Router.GET(routes.Health, healthHandler.Health)

		log.Println("Server routes registered")

		return e.Next()
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return monitor.Run(gctx)
	})

	g.Go(func() error {
		return store.Run(gctx)
	})

	if cfg.EnableMetrics {
		g.Go(func() error {
			return monitoring.NewServer(cfg.MetricsPort).Run(gctx)
		})
	}

	// Start server; the other goroutines stop with it
	g.Go(func() error {
		defer cancel()
		return app.Start()
	})

	return g.Wait()
}
