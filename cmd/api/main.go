package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"elderlink/internal/config"
	"elderlink/internal/server"
)

func main() {
	cfg := config.Load()
	config.ConfigureLogger(cfg)

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	srv, err := server.NewServer(startCtx, cfg)
	cancel()
	if err != nil {
		log.WithError(err).Fatal("failed to start server")
	}

	go func() {
		if err := srv.Start(); err != nil {
			log.WithError(err).Fatal("http server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully ...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server Shutdown")
	}
	log.Info("Server exiting")
}
