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

	"github.com/ariefcatur/go-pos-orders/internal/config"
	"github.com/ariefcatur/go-pos-orders/internal/dashboard"
	"github.com/ariefcatur/go-pos-orders/internal/hub"
	kafkax "github.com/ariefcatur/go-pos-orders/internal/kafka"
	"github.com/ariefcatur/go-pos-orders/internal/logger"
	"github.com/ariefcatur/go-pos-orders/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

const workers = 4

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	log := logger.New("pos-dashboard", cfg.LogLevel)
	slog.SetDefault(log)

	if len(cfg.KafkaBrokers) == 0 {
		log.Error("KAFKA_BROKERS is required")
		os.Exit(1)
	}
	if err := run(cfg, log); err != nil {
		log.Error("dashboard exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dash := hub.New(log)
	relay := &dashboard.Relay{Hub: dash, Log: log}

	// Redis (opsional) untuk dedup event
	if cfg.RedisAddr != "" {
		rdb, err := redisx.New(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer rdb.Close()
		relay.Dedup = &redisx.Dedup{R: rdb, Service: "dashboard"}
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/ws", dash)
	srv := &http.Server{Addr: cfg.DashboardAddr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dash.Run(gctx)
		return nil
	})

	// Kafka consumer
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.DashboardGroup, cfg.OrdersTopic, workers, log)
	g.Go(func() error {
		log.Info("dashboard consumer started", "topic", cfg.OrdersTopic, "group", cfg.DashboardGroup)
		return cons.Start(gctx, relay.Handle)
	})

	g.Go(func() error {
		log.Info("dashboard listening", "addr", cfg.DashboardAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down...")
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	return g.Wait()
}
