package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"carbonprice-service/internal/bootstrap"
	"carbonprice-service/internal/config"
	"carbonprice-service/internal/infrastructure/logx"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() { _ = godotenv.Load() }

func main() {
	log := logx.L()
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repos, cleanup, err := bootstrap.BuildRepos(ctx, cfg)
	if err != nil {
		log.Fatal("bootstrap repos", zap.Error(err))
	}
	defer cleanup()

	guard, closeGuard := bootstrap.BuildRefreshGuard(cfg)
	defer closeGuard()

	svc := bootstrap.BuildService(cfg, repos, guard)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		cancel()
	}()

	log.Info("scheduler started", zap.Duration("interval", cfg.UpdateInterval))
	bootstrap.BuildScheduler(cfg, svc).Start(ctx)
	log.Info("scheduler stopped")
}
