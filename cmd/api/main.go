package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TimmyIsANerd/chamswap/cache"
	config "github.com/TimmyIsANerd/chamswap/configs"
	"github.com/TimmyIsANerd/chamswap/database"
	"github.com/TimmyIsANerd/chamswap/handlers"
	"github.com/TimmyIsANerd/chamswap/jobs"
	"github.com/TimmyIsANerd/chamswap/notifications"
	"github.com/TimmyIsANerd/chamswap/routes"
	"github.com/TimmyIsANerd/chamswap/services"
	"github.com/TimmyIsANerd/chamswap/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

var log = config.InitLogger()

func main() {
	settings := config.Load()
	if err := settings.Validate(); err != nil {
		log.Fatalf("🔥 Invalid configuration: %v", err)
	}

	db, err := database.ConnectDB(settings.DatabaseURL)
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	identities := services.NewIdentityService(db, settings.StoreTimeout)
	referrals := services.NewReferralService(db, identities, settings.StoreTimeout)
	feeSettings := services.NewSettingsService(db, settings.StoreTimeout)
	tokens := services.NewTokenService(settings.JWTSecret, settings.TokenTTL)

	var mailer services.Mailer
	if brevo := notifications.NewBrevoService(settings.BrevoAPIKey, settings.EmailSender, settings.EmailSenderName); brevo != nil {
		mailer = brevo
	}
	auth := services.NewAuthService(db, tokens, mailer, settings.FrontendURL, settings.StoreTimeout)
	if err := auth.SeedSuperAdmin(ctx, settings.SuperAdminEmail, settings.SuperAdminPassword, settings.SuperAdminName); err != nil {
		log.Fatalf("🔥 Failed to seed super admin: %v", err)
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)

	revenue := services.NewRevenueService(db, identities, settings.StoreTimeout)
	revenue.Cache = newCache(ctx, settings.RedisURL)
	revenue.Feed = hub

	var archiver jobs.Archiver
	if settings.CloudinaryURL != "" {
		cld, err := jobs.NewCloudinaryArchiver(settings.CloudinaryURL)
		if err != nil {
			log.WithError(err).Warn("⚠️ Revenue reports will not be archived")
		} else {
			archiver = cld
		}
	}
	scheduler, err := jobs.NewScheduler(auth, jobs.NewRevenueDigest(revenue, archiver))
	if err != nil {
		log.Fatalf("🔥 Failed to schedule jobs: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()
	log.Println("✅ Cron jobs scheduled successfully.")

	app := fiber.New(fiber.Config{
		AppName:       "Chamswap",
		CaseSensitive: true,
		StrictRouting: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		IdleTimeout:   60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal server error"
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
				message = e.Message
			}

			log.WithError(err).WithFields(map[string]any{
				"path":   c.Path(),
				"method": c.Method(),
			}).Error("Request failed")
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"message": message,
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  settings.FrontendURL,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Content-Disposition",
		MaxAge:        86400,
	}))
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "UTC",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	routes.Setup(app, routes.Handlers{
		Auth:     handlers.NewAuthHandler(auth),
		Settings: handlers.NewSettingsHandler(feeSettings),
		Revenue:  handlers.NewRevenueHandler(revenue),
		Referral: handlers.NewReferralHandler(referrals),
		User:     handlers.NewUserHandler(identities),
		Ledger:   websocket.ServeLedger(hub, tokens),
	}, tokens.Secret())

	go func() {
		<-ctx.Done()
		log.Info("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Error("Server shutdown failed")
		}
	}()

	log.Printf("✅ Server is running on port %s", settings.Port)
	if err := app.Listen(":" + settings.Port); err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}

// newCache prefers Redis and falls back to process memory.
func newCache(ctx context.Context, redisURL string) cache.Store {
	if redisURL == "" {
		return cache.NewMemory()
	}
	store, err := cache.NewRedis(redisURL, "chamswap")
	if err != nil {
		log.WithError(err).Warn("⚠️ Invalid REDIS_URL, using in-memory cache")
		return cache.NewMemory()
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		log.WithError(err).Warn("⚠️ Redis unavailable, using in-memory cache")
		_ = store.Close()
		return cache.NewMemory()
	}
	log.Info("✅ Connected to Redis")
	return store
}
