package kafka

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer buffers messages in memory and writes them from one goroutine.
// Publish never blocks the caller: when the buffer is full the message is
// dropped and logged.
type Producer struct {
	w     messageWriter
	inbox chan kafka.Message
	done  chan struct{}
	log   *slog.Logger

	mu     sync.RWMutex
	closed bool
}

func NewProducer(brokers []string, topic string, buf int, log *slog.Logger) *Producer {
	log = log.With("component", "kafka-producer", "topic", topic)
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        true, // fire-and-forget untuk throughput; error dilaporkan lewat Completion
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				log.Error("kafka write failed", "messages", len(msgs), "error", err)
			}
		},
	}
	return newProducer(w, buf, log)
}

func newProducer(w messageWriter, buf int, log *slog.Logger) *Producer {
	if buf <= 0 {
		buf = 256
	}
	return &Producer{
		w:     w,
		inbox: make(chan kafka.Message, buf),
		done:  make(chan struct{}),
		log:   log,
	}
}

// Start runs the write loop until ctx ends or Close is called, then flushes
// what is still buffered.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.done)
		for {
			select {
			case <-ctx.Done():
				p.Close()
				for m := range p.inbox {
					p.write(m)
				}
				p.closeWriter()
				return
			case m, ok := <-p.inbox:
				if !ok {
					p.closeWriter()
					return
				}
				p.write(m)
			}
		}
	}()
}

func (p *Producer) write(m kafka.Message) {
	if err := p.w.WriteMessages(context.Background(), m); err != nil {
		p.log.Error("kafka write failed", "key", string(m.Key), "error", err)
	}
}

func (p *Producer) closeWriter() {
	if err := p.w.Close(); err != nil {
		p.log.Warn("kafka writer close", "error", err)
	}
}

// Publish reports whether the message was accepted into the buffer.
func (p *Producer) Publish(m kafka.Message) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	if m.Time.IsZero() {
		m.Time = time.Now()
	}
	select {
	case p.inbox <- m:
		return true
	default:
		p.log.Warn("kafka buffer full, message dropped", "key", string(m.Key))
		return false
	}
}

// Close stops accepting messages; the loop flushes the rest and exits.
// Safe to call more than once.
func (p *Producer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.inbox)
}

// WaitClosed blocks until the loop has flushed and closed the writer.
func (p *Producer) WaitClosed() { <-p.done }
