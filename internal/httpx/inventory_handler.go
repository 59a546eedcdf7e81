package httpx

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/ariefcatur/go-pos-orders/internal/inventory"
	"github.com/ariefcatur/go-pos-orders/internal/ledger"
	"github.com/ariefcatur/go-pos-orders/internal/orders"
	"github.com/go-chi/chi/v5"
)

type InventoryHandler struct {
	Svc *inventory.Service
}

type AdjustReq struct {
	Delta  int           `json:"delta"`
	Reason ledger.Reason `json:"reason"`
}

func (h *InventoryHandler) Register(r chi.Router) {
	r.Get("/products", h.listProducts)
	r.Group(func(r chi.Router) {
		r.Use(RequireStaff)
		r.Post("/inventory/{productID}/adjust", h.adjust)
		r.Get("/inventory/{productID}/movements", h.movements)
	})
}

func (h *InventoryHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Svc.Products(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *InventoryHandler) adjust(w http.ResponseWriter, r *http.Request) {
	actor, _ := orders.ActorFromContext(r.Context())
	var req AdjustReq
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	res, err := h.Svc.Adjust(r.Context(), actor, chi.URLParam(r, "productID"), req.Delta, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *InventoryHandler) movements(w http.ResponseWriter, r *http.Request) {
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

	ms, err := h.Svc.Movements(ctx, chi.URLParam(r, "productID"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ms)
}
