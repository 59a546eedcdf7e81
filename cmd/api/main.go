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
	"github.com/ariefcatur/go-pos-orders/internal/httpx"
	"github.com/ariefcatur/go-pos-orders/internal/hub"
	"github.com/ariefcatur/go-pos-orders/internal/inventory"
	kafkax "github.com/ariefcatur/go-pos-orders/internal/kafka"
	"github.com/ariefcatur/go-pos-orders/internal/logger"
	"github.com/ariefcatur/go-pos-orders/internal/memory"
	"github.com/ariefcatur/go-pos-orders/internal/notify"
	"github.com/ariefcatur/go-pos-orders/internal/orders"
	"github.com/ariefcatur/go-pos-orders/internal/postgres"
	"github.com/ariefcatur/go-pos-orders/internal/rabbitmq"
	"github.com/ariefcatur/go-pos-orders/internal/redisx"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

type store interface {
	inventory.Store
	memory.ProductWriter
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.ServiceName, cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("api exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage
	var st store
	if cfg.PostgresDSN != "" {
		db, err := postgres.Connect(ctx, cfg.PostgresDSN, log)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		st = postgres.NewStore(db, log)
	} else {
		log.Warn("POSTGRES_DSN not set, using in-memory store")
		st = memory.New()
	}
	if cfg.SeedFile != "" {
		ps, err := memory.LoadSeed(cfg.SeedFile)
		if err != nil {
			return err
		}
		if err := memory.Seed(ctx, st, ps); err != nil {
			return err
		}
		log.Info("catalogue seeded", "products", len(ps), "file", cfg.SeedFile)
	}

	g, gctx := errgroup.WithContext(ctx)

	// Notification sinks
	dash := hub.New(log)
	g.Go(func() error {
		dash.Run(gctx)
		return nil
	})
	sinks := []notify.Sink{notify.HubSink{Hub: dash}}

	var prod *kafkax.Producer
	if len(cfg.KafkaBrokers) > 0 {
		prod = kafkax.NewProducer(cfg.KafkaBrokers, cfg.OrdersTopic, 1024, log)
		prod.Start(context.Background()) // ditutup manual setelah emitter drain
		sinks = append(sinks, notify.KafkaSink{Producer: prod})
	}
	if cfg.AMQPURL != "" {
		pub, err := rabbitmq.Connect(cfg.AMQPURL, log)
		if err != nil {
			return err
		}
		defer pub.Close()
		sinks = append(sinks, notify.AMQPSink{Publisher: pub})
	}
	emitter := notify.NewEmitter(cfg.ServiceName, log, sinks...)

	committer := orders.NewCommitter(st, emitter, log, orders.Options{
		CommitTimeout:      cfg.CommitTimeout,
		TaxRate:            cfg.TaxRate,
		RequireFullPayment: cfg.RequireFullPayment,
	})

	// HTTP
	router := httpx.NewRouter(log)
	oh := &httpx.OrdersHandler{
		Committer: committer,
		Limiter:   httpx.NewRateLimiter(cfg.PublicRateLimit, cfg.PublicRateBurst),
		Log:       log,
	}
	if cfg.RedisAddr != "" {
		rdb, err := redisx.New(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer rdb.Close()
		oh.Idem = &redisx.Idempotency{R: rdb}
		oh.Cache = &redisx.OrderCache{R: rdb}
	}
	oh.Register(router)
	ih := &httpx.InventoryHandler{Svc: inventory.NewService(st, log)}
	ih.Register(router)
	router.Handle("/ws", dash)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}
	g.Go(func() error {
		log.Info("HTTP listening", "addr", cfg.HTTPAddr)
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
		err := srv.Shutdown(sctx)
		emitter.Close()
		if prod != nil {
			prod.Close()      // tutup inbox -> flush & close writer
			prod.WaitClosed() // drain
		}
		return err
	})

	return g.Wait()
}
