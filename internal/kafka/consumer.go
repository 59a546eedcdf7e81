package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/segmentio/kafka-go"
)

// Handler harus return nil hanya jika proses sukses & boleh commit offset.
type Handler func(ctx context.Context, m kafka.Message) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	r       messageReader
	workers int
	log     *slog.Logger
}

func NewConsumer(brokers []string, group, topic string, workers int, log *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	return newConsumer(r, workers, log.With("component", "kafka-consumer", "topic", topic, "group", group))
}

func newConsumer(r messageReader, workers int, log *slog.Logger) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{r: r, workers: workers, log: log}
}

// Start fetches until ctx ends. Offsets are committed only after h succeeds;
// a failed message is logged and left uncommitted for redelivery. Messages
// with the same key always land on the same worker, so one order's events
// are handled in the order they were produced.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer func() {
		if err := c.r.Close(); err != nil {
			c.log.Warn("kafka reader close", "error", err)
		}
	}()

	lanes := make([]chan kafka.Message, c.workers)
	ids := make([]int, c.workers)
	var wg sync.WaitGroup
	for i := range lanes {
		lanes[i] = make(chan kafka.Message, 128)
		ids[i] = i
		wg.Add(1)
		go func(id int, jobs <-chan kafka.Message) {
			defer wg.Done()
			for m := range jobs {
				if err := h(ctx, m); err != nil {
					c.log.Error("handler failed", "worker", id, "partition", m.Partition, "offset", m.Offset, "error", err)
					continue
				}
				if err := c.r.CommitMessages(ctx, m); err != nil && !errors.Is(err, context.Canceled) {
					c.log.Error("commit failed", "worker", id, "offset", m.Offset, "error", err)
				}
			}
		}(i, lanes[i])
	}
	defer wg.Wait()
	defer func() {
		for _, l := range lanes {
			close(l)
		}
	}()

	// key -> worker pakai hash yang sama dengan producer
	route := &kafka.Hash{}

	// dispatcher loop
	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			// kecilkan noise saat shutdown
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case lanes[route.Balance(m, ids...)] <- m:
		case <-ctx.Done():
			return nil
		}
	}
}
