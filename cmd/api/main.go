package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/xavisolis/nutmeglocal/internal/auth"
	"github.com/xavisolis/nutmeglocal/internal/config"
	"github.com/xavisolis/nutmeglocal/internal/database"
	"github.com/xavisolis/nutmeglocal/internal/geocode"
	"github.com/xavisolis/nutmeglocal/internal/handler"
	middlewarepkg "github.com/xavisolis/nutmeglocal/internal/middleware"
	"github.com/xavisolis/nutmeglocal/internal/notify"
	"github.com/xavisolis/nutmeglocal/internal/repository"
	"github.com/xavisolis/nutmeglocal/internal/router"
	"github.com/xavisolis/nutmeglocal/internal/service"
	"github.com/xavisolis/nutmeglocal/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := database.EnsureSchema(ctx, pool); err != nil {
			log.Fatalf("failed to apply schema: %v", err)
		}
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	admins := auth.NewAllowList(cfg.AdminEmails)
	if admins.Len() == 0 {
		log.Printf("ADMIN_EMAILS is empty; admin routes will reject every caller")
	}

	httpClient := &http.Client{Timeout: 15 * time.Second}
	var sender notify.Sender = notify.LogSender{}
	if cfg.Mail.ResendAPIKey != "" {
		sender = notify.NewResendClient(httpClient, cfg.Mail.ResendBaseURL, cfg.Mail.ResendAPIKey)
	} else {
		log.Printf("RESEND_API_KEY not set; emails will be logged instead of sent")
	}
	mailer := notify.NewMailer(sender, notify.Config{
		From:       cfg.Mail.From,
		AdminEmail: cfg.Mail.AdminNotifyEmail,
		SiteURL:    cfg.Mail.SiteURL,
	})

	var geocoder geocode.Geocoder
	if cfg.MapboxToken != "" {
		geocoder = geocode.NewMapboxClient(httpClient, cfg.MapboxBaseURL, cfg.MapboxToken)
	}

	usersRepo := repository.NewPGXUsersRepository(pool)
	businessesRepo := repository.NewPGXBusinessesRepository(pool)
	categoriesRepo := repository.NewPGXCategoriesRepository(pool)
	postsRepo := repository.NewPGXPostsRepository(pool)
	claimsRepo := repository.NewPGXClaimsRepository(pool)
	eventsRepo := repository.NewPGXEventsRepository(pool)
	signupsRepo := repository.NewPGXSignupsRepository(pool)

	contact := service.NewContactNormalizer("US")
	photos := storage.NewPhotoStore(cfg.UploadDir, cfg.UploadBaseURL)

	authService := service.NewAuthService(usersRepo, jwtManager)
	directoryService := service.NewDirectoryService(businessesRepo, categoriesRepo, postsRepo, contact, photos, admins)
	analyticsService := service.NewAnalyticsService(businessesRepo, eventsRepo)
	claimsService := service.NewClaimsService(claimsRepo, businessesRepo, admins, mailer, cfg.MaxPendingClaims)
	signupService := service.NewSignupService(signupsRepo, contact, mailer)
	importService := service.NewImportService(categoriesRepo, businessesRepo, contact, geocoder, -1)

	handlers := router.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Directory: handler.NewDirectoryHandler(directoryService),
		Events: handler.NewEventsHandler(
			service.NewEventRecorder(eventsRepo),
			service.NewViewCounter(businessesRepo),
			directoryService,
			handler.NewViewMarkerStore(cfg.SessionSecret),
		),
		Analytics: handler.NewAnalyticsHandler(analyticsService),
		Claims:    handler.NewClaimsHandler(claimsService),
		Signups:   handler.NewSignupsHandler(signupService),
		Import:    handler.NewImportHandler(importService),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins:     []string{cfg.Mail.SiteURL},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Static(cfg.UploadBaseURL, cfg.UploadDir)

	router.Register(e, cfg, jwtManager, handlers)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- e.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
	mailer.Wait()
}
