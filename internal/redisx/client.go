package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-pos-orders/internal/orders"
	"github.com/redis/go-redis/v9"
)

const inFlight = "pending"

var (
	// ErrInFlight means another request with the same key is still committing.
	ErrInFlight = errors.New("request with this idempotency key is in flight")
)

func New(ctx context.Context, addr string) (*redis.Client, error) {
	r := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	if err := r.Ping(ctx).Err(); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return r, nil
}

// Idempotency guards checkout retries from a flaky till connection: the first
// request with a key claims it, later ones get the order the first produced.
type Idempotency struct {
	R *redis.Client
}

// Claim returns ("", nil) when the caller now owns key, the stored order id
// when a previous request finished, or ErrInFlight.
func (i *Idempotency) Claim(ctx context.Context, key string) (string, error) {
	k := fmt.Sprintf(KeyIdemCheckout, key)
	ok, err := i.R.SetNX(ctx, k, inFlight, TTLInFlight).Result()
	if err != nil {
		return "", err
	}
	if ok {
		return "", nil
	}
	v, err := i.R.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET; retry once
		return i.Claim(ctx, key)
	}
	if err != nil {
		return "", err
	}
	if v == inFlight {
		return "", ErrInFlight
	}
	return v, nil
}

func (i *Idempotency) Complete(ctx context.Context, key, orderID string) error {
	return i.R.Set(ctx, fmt.Sprintf(KeyIdemCheckout, key), orderID, TTLIdempotency).Err()
}

// Release drops a claim after a failed commit so the client may retry.
func (i *Idempotency) Release(ctx context.Context, key string) error {
	return i.R.Del(ctx, fmt.Sprintf(KeyIdemCheckout, key)).Err()
}

// OrderCache keeps COMPLETED orders for receipt reprints. PENDING orders are
// never cached since finalize changes them.
type OrderCache struct {
	R *redis.Client
}

func (c *OrderCache) Get(ctx context.Context, id string) (*orders.Order, bool) {
	b, err := c.R.Get(ctx, fmt.Sprintf(KeyOrder, id)).Bytes()
	if err != nil {
		return nil, false
	}
	var o orders.Order
	if err := json.Unmarshal(b, &o); err != nil {
		return nil, false
	}
	return &o, true
}

func (c *OrderCache) Put(ctx context.Context, o *orders.Order) error {
	if o.Status != orders.StatusCompleted {
		return nil
	}
	b, err := json.Marshal(o)
	if err != nil {
		return err
	}
	return c.R.Set(ctx, fmt.Sprintf(KeyOrder, o.ID), b, TTLOrderCache).Err()
}

// Dedup remembers processed event ids per service.
type Dedup struct {
	R       *redis.Client
	Service string
}

// First reports whether eventID is seen for the first time, marking it seen.
func (d *Dedup) First(ctx context.Context, eventID string) (bool, error) {
	return d.R.SetNX(ctx, fmt.Sprintf(KeyDedup, d.Service, eventID), "1", TTLDedup).Result()
}
