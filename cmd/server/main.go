// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/artisans-backend/internal/config"
	"github.com/javajoker/artisans-backend/internal/database"
	"github.com/javajoker/artisans-backend/internal/i18n"
	"github.com/javajoker/artisans-backend/internal/observability"
	"github.com/javajoker/artisans-backend/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	if cfg.Environment == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		gin.SetMode(gin.ReleaseMode)
	}

	shutdownTracing, err := observability.InitTracing(context.Background(), cfg.Tracing, cfg.Environment)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize tracing")
	}

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.Close(db)

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 2*time.Minute)
	err = database.RunMigrations(migrateCtx, db)
	cancelMigrate()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to run migrations")
	}

	if err := database.SeedInitialData(db, cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to seed initial data")
	}

	if err := i18n.Initialize(cfg.I18n.DefaultLocale); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize i18n")
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = config.NewRedisClient(cfg.Redis)
		if err != nil {
			logrus.WithError(err).Warn("Redis unavailable, using in-process state")
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	app, err := router.Initialize(db, rdb, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize router")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      app.Engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		logrus.WithField("addr", srv.Addr).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}
	app.Shutdown()
	if err := shutdownTracing(ctx); err != nil {
		logrus.WithError(err).Warn("Failed to flush traces")
	}

	logrus.Info("Server exited")
}
