// File: app/app.go
package app

import (
	"ben-bank-api/config"
	"ben-bank-api/db"
	"ben-bank-api/handler"
	"ben-bank-api/logger"
	"ben-bank-api/mailer"
	"ben-bank-api/repository"
	"ben-bank-api/router"
	"ben-bank-api/service"
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func Run() {
	config.LoadConfig(".")
	cfg := config.AppConfig
	logger.Init(cfg.Log.Level)
	logger.Log.Info("Configuration loaded successfully")

	if cfg.JWT.SecretKey == "" {
		logger.Log.Fatal("jwt.secret_key must be set (JWT_SECRET_KEY)")
	}

	if cfg.Migrations.RunOnStart {
		if err := db.RunMigrations(cfg.Migrations.Path, db.DSN(cfg)); err != nil {
			logger.Log.Fatalf("Error running database migrations: %v", err)
		}
	}

	database, err := db.Connect()
	if err != nil {
		logger.Log.Fatalf("Error connecting to the database: %v", err)
	}
	defer database.Close()

	accountOpts := service.AccountOptions{
		CacheTTL:      cfg.Cache.AccountTTL,
		NumberRetries: cfg.Ledger.AccountNumberRetries,
		PinCost:       cfg.Security.BcryptCost,
	}
	if cfg.Redis.Enabled {
		rdb, err := db.ConnectRedis(context.Background())
		if err != nil {
			logger.Log.WithError(err).Warn("Redis unavailable, account cache disabled")
		} else {
			defer rdb.Close()
			accountOpts.Cache = rdb
		}
	}

	var mail mailer.Mailer = mailer.LogMailer{}
	if cfg.SMTP.Host != "" {
		mail = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}

	userRepo := repository.NewUserRepository(database)
	accountRepo := repository.NewAccountRepository(database)
	historyRepo := repository.NewTransactionHistoryRepository(database)

	authService := service.NewAuthService(cfg.JWT.SecretKey, cfg.JWT.ExpiresIn, cfg.Security.BcryptCost)
	userService := service.NewUserService(userRepo, authService, authService, mail)
	accountService := service.NewAccountService(database, accountRepo, historyRepo, userRepo, accountOpts)

	userHandler := handler.NewUserHandler(userService)
	accountHandler := handler.NewAccountHandler(accountService)
	authLimit := handler.RateLimitMiddleware(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, cfg.RateLimit.TTL)

	r := router.NewRouter(userHandler, accountHandler, authService, authLimit)

	port := cfg.Server.Port
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}
