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

	"focusd/internal/appmeta"
	"focusd/internal/appwatch"
	"focusd/internal/blocker"
	"focusd/internal/config"
	"focusd/internal/db"
	"focusd/internal/handler"
	"focusd/internal/repository"
	"focusd/internal/router"
	"focusd/internal/service"
	"focusd/internal/timer"
)

func main() {
	cfg := config.Load()

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	userRepo := repository.NewUserRepository(database)
	modeRepo := repository.NewModeRepository(database)
	sessionRepo := repository.NewSessionRepository(database)
	timerStateRepo := repository.NewTimerStateRepository(database)

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	modeService := service.NewModeService(modeRepo)
	sessionService := service.NewSessionService(sessionRepo, cfg.MinSession)

	engine := timer.New(sessionService, modeService, timerStateRepo, timer.Config{
		TickInterval: cfg.TickInterval,
	})

	catalog, err := appmeta.LoadCatalog(cfg.AppCatalogPath)
	if err != nil {
		log.Fatalf("load app catalog: %v", err)
	}

	detector := blocker.NewDetector(modeService, catalog, blocker.LoggingOverlay{}, blocker.Config{
		Cooldown: cfg.BlockCooldown,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go detector.Run(ctx)

	if cfg.ForegroundCmd != "" {
		provider := appwatch.NewCommandProvider(cfg.ForegroundCmd)
		poller := appwatch.NewPoller(provider, cfg.PollInterval, detector.Events())
		go poller.Run(ctx)
	}

	// Pick up any run that was in flight when the previous process died.
	engine.Restore(ctx)

	authHandler := handler.NewAuthHandler(authService)
	timerHandler := handler.NewTimerHandler(engine, modeService)
	modeHandler := handler.NewModeHandler(modeService)
	sessionHandler := handler.NewSessionHandler(sessionService)
	blockerHandler := handler.NewBlockerHandler(detector)

	api := router.New(
		authService,
		authHandler,
		timerHandler,
		modeHandler,
		sessionHandler,
		blockerHandler,
		cfg.CORSOrigins,
	)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api,
	}

	go func() {
		log.Printf("focusd listening on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("run server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}

	// Teardown must account for an in-flight run and never leave blocking
	// stuck on.
	engine.Shutdown(shutdownCtx)
	cancel()
}
