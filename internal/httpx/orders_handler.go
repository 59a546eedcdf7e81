package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ariefcatur/go-pos-orders/internal/orders"
	"github.com/ariefcatur/go-pos-orders/internal/redisx"
	"github.com/go-chi/chi/v5"
)

const HeaderIdempotencyKey = "Idempotency-Key"

type Idempotency interface {
	Claim(ctx context.Context, key string) (string, error)
	Complete(ctx context.Context, key, orderID string) error
	Release(ctx context.Context, key string) error
}

type OrderCache interface {
	Get(ctx context.Context, id string) (*orders.Order, bool)
	Put(ctx context.Context, o *orders.Order) error
}

type OrdersHandler struct {
	Committer *orders.Committer
	Idem      Idempotency // optional
	Cache     OrderCache  // optional
	Limiter   *RateLimiter
	Log       *slog.Logger
}

type CheckoutReq struct {
	orders.Cart
	Payments []orders.PaymentInput `json:"payments"`
}

type FinalizeReq struct {
	Payments []orders.PaymentInput `json:"payments"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(RequireStaff)
		r.Post("/orders", h.hold)
		r.Post("/orders/checkout", h.checkout)
		r.Post("/orders/{id}/finalize", h.finalize)
		r.Get("/orders/{id}", h.getOrder)
		r.Get("/orders", h.listOrders)
	})
	r.Group(func(r chi.Router) {
		if h.Limiter != nil {
			r.Use(h.Limiter.Middleware)
		}
		r.Post("/public/orders", h.placeVisitorOrder)
	})
}

func (h *OrdersHandler) hold(w http.ResponseWriter, r *http.Request) {
	actor, _ := orders.ActorFromContext(r.Context())
	var cart orders.Cart
	if err := decodeJSON(w, r, &cart); err != nil {
		badRequest(w, err.Error())
		return
	}
	o, err := h.Committer.Hold(r.Context(), actor, cart)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) checkout(w http.ResponseWriter, r *http.Request) {
	actor, _ := orders.ActorFromContext(r.Context())
	var req CheckoutReq
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	ctx := r.Context()
	key := r.Header.Get(HeaderIdempotencyKey)
	if key != "" && h.Idem != nil {
		// key hanya berlaku per user, bukan global
		key = idempotencyScope(actor, key)
		prev, err := h.Idem.Claim(ctx, key)
		switch {
		case errors.Is(err, redisx.ErrInFlight):
			writeJSON(w, http.StatusConflict, errorResp{Error: err.Error()})
			return
		case err != nil:
			// redis down: jalan terus tanpa idempotency, DB tetap jadi kebenaran
			h.Log.Warn("idempotency claim failed", "key", key, "error", err)
			key = ""
		case prev != "":
			o, err := h.Committer.Get(ctx, prev)
			if err != nil {
				writeError(w, r, err)
				return
			}
			w.Header().Set("Idempotent-Replayed", "true")
			writeJSON(w, http.StatusOK, o)
			return
		}
	} else {
		key = ""
	}

	o, err := h.Committer.CreateAndFinalize(ctx, actor, req.Cart, req.Payments)
	if err != nil {
		if key != "" {
			if rerr := h.Idem.Release(context.WithoutCancel(ctx), key); rerr != nil {
				h.Log.Warn("idempotency release failed", "key", key, "error", rerr)
			}
		}
		writeError(w, r, err)
		return
	}
	if key != "" {
		if err := h.Idem.Complete(context.WithoutCancel(ctx), key, o.ID); err != nil {
			h.Log.Warn("idempotency complete failed", "key", key, "order_id", o.ID, "error", err)
		}
	}
	h.cachePut(ctx, o)
	writeJSON(w, http.StatusCreated, o)
}

func idempotencyScope(actor orders.Actor, key string) string {
	return actor.UserID + ":" + key
}

func (h *OrdersHandler) finalize(w http.ResponseWriter, r *http.Request) {
	actor, _ := orders.ActorFromContext(r.Context())
	var req FinalizeReq
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	o, err := h.Committer.Finalize(r.Context(), actor, chi.URLParam(r, "id"), req.Payments)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.cachePut(r.Context(), o)
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// 1) coba cache
	if h.Cache != nil {
		if o, ok := h.Cache.Get(ctx, orderID); ok {
			writeJSON(w, http.StatusOK, o)
			return
		}
	}

	// 2) fallback DB
	o, err := h.Committer.Get(ctx, orderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.cachePut(ctx, o)
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	status := orders.Status(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		badRequest(w, "unknown status")
		return
	}
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			badRequest(w, "invalid limit")
			return
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Committer.List(ctx, status, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) placeVisitorOrder(w http.ResponseWriter, r *http.Request) {
	var cart orders.Cart
	if err := decodeJSON(w, r, &cart); err != nil {
		badRequest(w, err.Error())
		return
	}
	o, err := h.Committer.PlaceVisitorOrder(r.Context(), cart)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) cachePut(ctx context.Context, o *orders.Order) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.Put(context.WithoutCancel(ctx), o); err != nil {
		h.Log.Warn("order cache put failed", "order_id", o.ID, "error", err)
	}
}
