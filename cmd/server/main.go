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

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	historyhandler "copro/internal/history/handler"
	historymetrics "copro/internal/history/metrics"
	historyservice "copro/internal/history/service"
	httpapi "copro/internal/http"
	jwttoken "copro/internal/jwt_token"
	"copro/internal/platform/config"
	"copro/internal/platform/httpserver"
	"copro/internal/platform/logger"
	residenthandler "copro/internal/resident/handler"
	residentservice "copro/internal/resident/service"
)

const shutdownTimeout = 10 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	if err := run(); err != nil {
		slog.Error("copro exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	infra, err := buildInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.Close(context.Background())

	recorderOpts := []historyservice.Option{
		historyservice.WithLogger(log),
		historyservice.WithMetrics(historymetrics.New(prometheus.DefaultRegisterer)),
	}
	if infra.publisher != nil {
		recorderOpts = append(recorderOpts, historyservice.WithPublisher(infra.publisher))
	}
	recorder, err := historyservice.New(infra.historyStore, recorderOpts...)
	if err != nil {
		return err
	}

	residents, err := residentservice.New(infra.residentStore, recorder,
		residentservice.WithLogger(log),
		residentservice.WithStoreTx(infra.tx),
	)
	if err != nil {
		return err
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "copro", "copro-api")
	router := httpapi.NewRouter(log,
		jwttoken.NewJWTServiceAdapter(jwtService),
		prometheus.DefaultGatherer,
		residenthandler.New(residents, log),
		historyhandler.New(recorder, log),
	)
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting copro", "addr", cfg.Addr, "history_backend", cfg.HistoryBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down copro")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
