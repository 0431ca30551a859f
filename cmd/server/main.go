package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paypass/paypass-backend/internal/config"
	"github.com/paypass/paypass-backend/internal/gateway"
	"github.com/paypass/paypass-backend/internal/handler"
	"github.com/paypass/paypass-backend/internal/mongodb"
	"github.com/paypass/paypass-backend/internal/verifier"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load_failed", "error", err)
		os.Exit(1)
	}

	connector := mongodb.NewConnector(cfg)
	if !connector.Connect(context.Background()) {
		// Retries continue in the background; endpoints that do not
		// need the database keep working meanwhile.
		slog.Warn("mongo_unavailable_at_startup")
	}

	gatewayClient := gateway.NewHyperPay(cfg.GatewayBaseURL, cfg.GatewayToken, cfg.EntityID, &http.Client{
		Timeout: config.GatewayTimeoutSeconds * time.Second,
	})

	store := mongodb.NewOutcomeStore(connector)
	v := verifier.New(gatewayClient, store)
	h := handler.New(v, connector, cfg)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	server := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: mux,
	}

	go func() {
		slog.Info("server_starting", "addr", cfg.ServerAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server_failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	slog.Info("server_stopping")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server_shutdown_failed", "error", err)
	}
	connector.Disconnect(ctx)
}
