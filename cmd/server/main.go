package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	ecM "github.com/labstack/echo/v4/middleware"

	"userhub/internal/config"
	"userhub/internal/events"
	"userhub/internal/handlers"
	"userhub/internal/logging"
	"userhub/internal/middleware"
	"userhub/internal/repo"
	"userhub/internal/roles"
	"userhub/internal/search"
	"userhub/internal/service"
	"userhub/internal/tokens"
	httpserver "userhub/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	// A cyclic hierarchy is a configuration bug; refuse to serve with one.
	if err := roles.ValidateHierarchy(); err != nil {
		log.Fatalf("role hierarchy: %v", err)
	}

	ctx := context.Background()
	db, err := config.InitDB(ctx, cfg)
	if err != nil {
		log.Fatalf("db init: %v", err)
	}

	issuer := tokens.NewIssuer(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)
	userRepo := repo.NewUserRepo(db)

	var producer *events.Producer
	if cfg.KafkaAddress != "" {
		producer = events.NewProducer([]string{cfg.KafkaAddress})
	}

	var userIndex *search.UserIndex
	if cfg.ESURL != "" {
		esClient, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			log.Fatalf("elasticsearch init: %v", err)
		}
		userIndex = search.NewUserIndex(esClient, "users")
	}

	authSvc := service.NewAuthService(userRepo, issuer)
	userSvc := service.NewUserService(userRepo)

	e := echo.New()
	e.Pre(ecM.RemoveTrailingSlash())
	e.Use(
		ecM.Recover(),
		ecM.RequestID(),
		ecM.Secure(),
		ecM.CORS(),
		ecM.RateLimiter(ecM.NewRateLimiterMemoryStore(20)),
		middleware.RequestLogger(logger),
	)

	deps := httpserver.Deps{
		AuthHandler: &handlers.AuthHandler{Svc: authSvc, Index: userIndex, Producer: producer},
		UserHandler: &handlers.UserHandler{Svc: userSvc, Index: userIndex, Producer: producer},
		AuthMW:      middleware.NewAuth(issuer),
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()
	logger.Info("server started", "port", cfg.ServerPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := producer.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	logger.Info("shutdown complete")
}
