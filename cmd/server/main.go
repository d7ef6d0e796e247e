package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	_ "pricewatch/docs" // swagger docs

	"pricewatch/internal/auth"
	"pricewatch/internal/cache"
	"pricewatch/internal/config"
	"pricewatch/internal/db"
	"pricewatch/internal/handler"
	"pricewatch/internal/logging"
	"pricewatch/internal/provision"
	"pricewatch/internal/repository"
	"pricewatch/internal/router"
	"pricewatch/internal/service"
)

// @title Pricewatch API
// @version 1.0
// @description Community price reports, verification and per-market price aggregation.
// @host localhost:5000
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("load .env: %v", err)
	}
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	gormDB, err := db.Open(cfg)
	if err != nil {
		logger.Fatal("database init", zap.Error(err))
	}

	if cfg.ResetDB {
		logger.Warn("RESET_DB=true detected, dropping all tables")
		if err := db.Reset(gormDB); err != nil {
			logger.Fatal("reset database", zap.Error(err))
		}
	}
	if err := db.Migrate(gormDB); err != nil {
		logger.Fatal("migrate database", zap.Error(err))
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer func() { _ = cacheClient.Close() }()
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
	if err := cacheClient.Ping(pingCtx); err != nil {
		logger.Warn("redis unavailable, continuing without cache", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	cancelPing()

	store := repository.NewStore(gormDB)
	policy := provision.NewPolicy(cfg.PlaceholderEmailDomain)

	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	authService := service.NewAuthService(store.Users, store.Markets, jwtService, tokenStore, cfg.ResetTokenTTL, logger)
	marketService := service.NewMarketService(store.Markets)
	productService := service.NewProductService(store, policy, cacheClient, logger)
	reportService := service.NewReportService(store, logger)
	verificationService := service.NewVerificationService(store, policy, cacheClient, logger)
	userService := service.NewUserService(store.Users, store.Markets, policy, logger)

	e := echo.New()
	e.HideBanner = true
	router.Register(e, jwtService, tokenStore, router.Handlers{
		Auth:     handler.NewAuthHandler(authService, cfg.ExposeResetTokens),
		Markets:  handler.NewMarketHandler(marketService),
		Products: handler.NewProductHandler(productService),
		Reports:  handler.NewReportHandler(reportService, verificationService),
		Users:    handler.NewUserHandler(userService),
	}, logger)

	logger.Info("swagger documentation available", zap.String("url", swaggerURL(cfg.SwaggerHost)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		addr := ":" + cfg.ServerPort
		logger.Info("server starting", zap.String("addr", addr), zap.String("db_driver", cfg.DBDriver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

// swaggerURL resolves where the docs are reachable. SWAGGER_HOST may carry a scheme.
func swaggerURL(host string) string {
	if host == "" {
		// docker-compose maps the container's 8080 to 5000
		return "http://localhost:5000/swagger/index.html"
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return strings.TrimSuffix(host, "/") + "/swagger/index.html"
}
