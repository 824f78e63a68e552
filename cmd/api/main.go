package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"carbonprice-service/internal/bootstrap"
	"carbonprice-service/internal/config"
	infraconfig "carbonprice-service/internal/infrastructure/config"
	httpserver "carbonprice-service/internal/infrastructure/http"
	"carbonprice-service/internal/infrastructure/logx"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() { _ = godotenv.Load() }

func main() {
	logger := logx.L()
	cfg := config.Load()
	addr := ":" + cfg.Port

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repos, cleanup, err := bootstrap.BuildRepos(ctx, cfg)
	if err != nil {
		logger.Fatal("bootstrap repos", zap.Error(err))
	}
	defer cleanup()

	guard, closeGuard := bootstrap.BuildRefreshGuard(cfg)
	defer closeGuard()

	svc := bootstrap.BuildService(cfg, repos, guard)
	srv := bootstrap.BuildServer(cfg, svc, repos)
	mux := httpserver.NewRouter(srv)

	// The periodic refresh runs in-process; cmd/scheduler exists for
	// deployments that split it out.
	go bootstrap.BuildScheduler(cfg, svc).Start(ctx)

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		logger.Info("server started", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	cancel()
	shutdownCtx, shCancel := context.WithTimeout(context.Background(), infraconfig.DefaultShutdownTimeout)
	defer shCancel()
	_ = server.Shutdown(shutdownCtx)
	logger.Info("server stopped")
}
