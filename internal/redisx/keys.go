package redisx

import "time"

const (
	// Idempotency checkout: idem:checkout:{idempotency_key} -> order_id (or "pending" while in flight)
	KeyIdemCheckout = "idem:checkout:%s"

	// Cache order selesai: order:{order_id} -> order JSON. Hanya COMPLETED, karena tidak berubah lagi.
	KeyOrder = "order:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLInFlight    = 30 * time.Second
	TTLOrderCache  = 10 * time.Minute
	TTLDedup       = 48 * time.Hour
)
