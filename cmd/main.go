package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RudinMaxim/BarberMarket/config"
	"github.com/RudinMaxim/BarberMarket/database"
	"github.com/RudinMaxim/BarberMarket/internal/api"
	"github.com/RudinMaxim/BarberMarket/internal/availability"
	"github.com/RudinMaxim/BarberMarket/internal/barbers"
	"github.com/RudinMaxim/BarberMarket/internal/blocking"
	"github.com/RudinMaxim/BarberMarket/internal/bookings"
	"github.com/RudinMaxim/BarberMarket/internal/bot"
	"github.com/RudinMaxim/BarberMarket/internal/calendar"
	"github.com/RudinMaxim/BarberMarket/internal/catalog"
	"github.com/RudinMaxim/BarberMarket/internal/categories"
	"github.com/RudinMaxim/BarberMarket/internal/jobs"
	"github.com/RudinMaxim/BarberMarket/internal/loyalty"
	"github.com/RudinMaxim/BarberMarket/internal/notifications"
	"github.com/RudinMaxim/BarberMarket/internal/profiles"
	"github.com/RudinMaxim/BarberMarket/internal/reviews"
	"github.com/RudinMaxim/BarberMarket/internal/slots"
	"github.com/RudinMaxim/BarberMarket/internal/stats"
	"github.com/go-redis/redis/v8"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

type application struct {
	cfg   config.Config
	log   *zap.Logger
	db    *gorm.DB
	redis *redis.Client
	cache database.Cache
	bot   *tgbotapi.BotAPI
}

func main() {
	calendarAuth := flag.Bool("calendar-auth", false, "run the Google Calendar consent flow and exit")
	rollback := flag.Bool("rollback", false, "roll back the last database migration and exit")
	flag.Parse()

	app := &application{cfg: config.Init()}
	app.log = config.Logger()
	defer func() { _ = app.log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *calendarAuth {
		if err := calendar.Authorize(ctx, app.cfg.Calendar, os.Stdin, os.Stdout); err != nil {
			log.Fatalf("Calendar authorization failed: %v", err)
		}
		return
	}

	config.LogAction("Initializing application...")
	if err := app.initialize(ctx); err != nil {
		app.log.Fatal("Failed to initialize application", zap.Error(err))
	}

	if *rollback {
		if err := database.RollbackLastMigration(app.db, app.log); err != nil {
			app.log.Fatal("Rollback failed", zap.Error(err))
		}
		return
	}

	if err := app.run(ctx); err != nil {
		app.log.Fatal("Application stopped with error", zap.Error(err))
	}
	config.LogAction("Application stopped")
}

func (app *application) initialize(ctx context.Context) error {
	if app.cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is not set")
	}

	db, err := database.InitDatabase(app.cfg.Database, app.log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := database.PingDatabase(ctx, db); err != nil {
		return fmt.Errorf("could not ping database: %w", err)
	}
	app.db = db
	config.LogAction("Database initialized")

	app.initCache(ctx)

	if app.cfg.Telegram.Enabled {
		if err := app.initBot(); err != nil {
			return fmt.Errorf("failed to initialize bot: %w", err)
		}
		config.LogAction("Bot initialized")
	}
	return nil
}

// initCache prefers Redis and falls back to an in-process cache.
func (app *application) initCache(ctx context.Context) {
	if app.cfg.Cache.Host == "" {
		app.log.Info("Redis not configured, using in-memory cache")
		app.cache = database.NewMemoryCache(app.cfg.Cache.TTL)
		return
	}

	client := database.NewRedisClient(app.cfg.Cache)
	rc := database.NewRedisCache(client)
	if err := rc.Ping(ctx); err != nil {
		app.log.Warn("Redis unavailable, using in-memory cache", zap.Error(err))
		_ = client.Close()
		app.cache = database.NewMemoryCache(app.cfg.Cache.TTL)
		return
	}
	app.redis = client
	app.cache = rc
	config.LogAction("Redis cache connected", zap.String("host", app.cfg.Cache.Host))
}

func (app *application) initBot() error {
	if app.cfg.Telegram.Token == "" {
		return errors.New("telegram.token is not set")
	}
	b, err := tgbotapi.NewBotAPI(app.cfg.Telegram.Token)
	if err != nil {
		return err
	}
	app.bot = b
	return nil
}

func (app *application) run(ctx context.Context) error {
	loc := app.cfg.Location()

	profileRepo := profiles.NewRepository(app.db)
	catalogRepo := catalog.NewRepository(app.db)
	bookingRepo := bookings.NewRepository(app.db)

	var hub *notifications.Hub
	var publishers []notifications.Publisher
	if app.redis != nil {
		defer app.redis.Close()
		hub = notifications.NewHub(app.redis, app.log.Named("hub"))
		defer hub.Close()
		publishers = append(publishers, hub)
	}
	notificationService := notifications.NewService(notifications.NewRepository(app.db), app.log, publishers...)

	availabilityService := availability.NewService(availability.NewRepository(app.db), app.cache, app.cfg.Cache.TTL, app.log)
	blockingService := blocking.NewService(blocking.NewRepository(app.db), app.log)

	categoryService := categories.NewService(categories.NewRepository(app.db), app.log.Named("categories"))
	loyaltyService := loyalty.NewService(loyalty.NewRepository(app.db), notificationService, loyalty.Rules{
		PointsPerVisit:  app.cfg.Loyalty.PointsPerVisit,
		RewardThreshold: app.cfg.Loyalty.RewardThreshold,
	}, app.log.Named("loyalty"))

	var calendarSync bookings.CalendarSync
	if app.cfg.Calendar.Enabled {
		gc, err := calendar.NewGoogleCalendar(ctx, app.cfg.Calendar, loc, profileRepo, catalogRepo, app.log.Named("calendar"))
		if err != nil {
			app.log.Warn("Calendar sync disabled", zap.Error(err))
		} else {
			calendarSync = gc
		}
	}

	bookingService := bookings.NewService(bookings.Deps{
		Repo:       bookingRepo,
		Windows:    availabilityService,
		Blocks:     blockingService,
		Notifier:   notificationService,
		Calendar:   calendarSync,
		Loyalty:    loyaltyService,
		Calculator: slots.NewCalculator(app.cfg.Schedule.StepMinutes, time.Now),
		Location:   loc,
		Log:        app.log.Named("bookings"),
	})

	if app.bot != nil {
		botHandler := bot.NewHandler(bot.NewService(profileRepo, bookingService, app.log), app.bot, loc, app.log.Named("bot"))
		notificationService.AddPublisher(botHandler)

		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		updates := app.bot.GetUpdatesChan(u)
		go botHandler.Run(ctx, updates)
		defer app.bot.StopReceivingUpdates()
		config.LogAction("Bot started")
	}

	scheduler := jobs.NewScheduler(app.log.Named("jobs"))
	if err := scheduler.AddExpireStalePending(app.cfg.Jobs.ExpireSpec, bookingService); err != nil {
		return err
	}
	scheduler.Start()

	server := api.NewServer(api.Deps{
		Bookings:       bookingService,
		Availability:   availabilityService,
		Catalog:        catalog.NewService(catalogRepo, categoryService, app.log),
		Blocking:       blockingService,
		Reviews:        reviews.NewService(reviews.NewRepository(app.db), bookingRepo, notificationService, app.log),
		Notifications:  notificationService,
		Stats:          stats.NewService(stats.NewRepository(app.db), loc),
		Barbers:        barbers.NewService(barbers.NewRepository(app.db), notificationService, app.log.Named("barbers")),
		Categories:     categoryService,
		Loyalty:        loyaltyService,
		Hub:            hub,
		JWTSecret:      app.cfg.Auth.JWTSecret,
		RatePerMinute:  app.cfg.HTTP.RatePerMinute,
		TrustedProxies: app.cfg.HTTP.TrustedProxies,
		Health:         func(ctx context.Context) error { return database.PingDatabase(ctx, app.db) },
		Log:            app.log,
	})

	httpServer := &http.Server{
		Addr:              app.cfg.HTTP.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if hub != nil {
		// Shutdown does not cancel request contexts; live streams end with the hub.
		httpServer.RegisterOnShutdown(hub.Close)
	}

	errCh := make(chan error, 1)
	go func() {
		config.LogAction("HTTP server listening", zap.String("addr", app.cfg.HTTP.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		config.LogAction("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	scheduler.Stop(shutdownCtx)
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		app.log.Error("HTTP server shutdown failed", zap.Error(err))
	}
	return nil
}
