package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	webAdapter "garage-portal/internal/adapters/web"
	"garage-portal/internal/app"
	"garage-portal/internal/config"
	"garage-portal/internal/logger"
	"garage-portal/internal/orderapi"
	"garage-portal/internal/session"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("GARAGE_CONFIG"))
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if err := logger.Setup(cfg.LoggerConfig()); err != nil {
		log.Fatal().Err(err).Msg("logger")
	}
	l := logger.WithComponent("server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := orderapi.NewClient(cfg.APIBaseURL, cfg.Timeout())
	svc := app.NewAppService(client, nil)

	if cfg.JWTSecret == "" {
		l.Warn().Msg("JWT_SECRET is not set; session tokens are decoded without signature verification")
	}
	handler := webAdapter.NewHandler(ctx, svc, session.NewParser(cfg.JWTSecret), cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	l.Info().Str("port", cfg.ServerPort).Str("api", cfg.APIBaseURL).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Fatal().Err(err).Msg("server")
	}
	l.Info().Msg("server stopped")
}
