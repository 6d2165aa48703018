// Package main запускает HTTP-сервер сервиса cardtrack.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dlanderos/cardtrack-system/internal/config"
	"github.com/dlanderos/cardtrack-system/internal/coordinator"
	"github.com/dlanderos/cardtrack-system/internal/handler"
	"github.com/dlanderos/cardtrack-system/internal/identity"
	"github.com/dlanderos/cardtrack-system/internal/localstore"
	"github.com/dlanderos/cardtrack-system/internal/middleware"
	"github.com/dlanderos/cardtrack-system/internal/repository"
	"github.com/dlanderos/cardtrack-system/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	// Без DATABASE_URI сервис работает только с локальным хранилищем:
	// координатор трактует отсутствующий удалённый репозиторий как отказ
	// и переключается на локальный резерв.
	var remote coordinator.Remote
	if cfg.DatabaseURI != "" {
		repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
		if err != nil {
			sugar.Fatalw("database initialization error", "error", err.Error())
		}
		defer repo.Close()
		remote = repo
	}

	kv, err := localstore.NewFileKV(cfg.LocalStorePath)
	if err != nil {
		sugar.Fatalw("local store initialization error", "error", err.Error())
	}
	local := localstore.NewStore(kv)

	var idp *identity.Client
	var provider middleware.UserProvider
	if cfg.AuthAddress != "" {
		idp = identity.NewClient(cfg.AuthAddress, cfg.AuthAPIKey)
		provider = idp
	}

	coord := coordinator.New(remote, local, logger)
	svc := service.NewService(coord, idp)

	session := middleware.NewSessionMiddleware(provider, logger)
	h := handler.NewHandler(svc, logger, session)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting cardtrack server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
