package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/harmonyhub/sync-backend/api"
	"github.com/harmonyhub/sync-backend/config"
	"github.com/harmonyhub/sync-backend/internal/clock"
	"github.com/harmonyhub/sync-backend/internal/hub"
	"github.com/harmonyhub/sync-backend/internal/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins(config.Conf.AllowOrigins),
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
	}))

	h := hub.New(clock.Default)
	api.Register(engine, h)

	srv := &http.Server{
		Addr:    ":" + port(),
		Handler: engine,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Log.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Log.Error("failed to bind listener", "err", err)
			return 1
		}
	case <-ctx.Done():
		logger.Log.Info("shutting down")
		h.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Log.Warn("shutdown did not complete cleanly", "err", err)
		}
	}

	return 0
}

func port() string {
	if _, err := strconv.Atoi(config.Conf.Port); err != nil {
		return "8080"
	}
	return config.Conf.Port
}

func allowedOrigins(raw string) []string {
	if raw == "" {
		return []string{"*"}
	}
	return strings.Split(raw, ",")
}
