package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ariefcatur/go-pos-orders/internal/inventory"
	"github.com/ariefcatur/go-pos-orders/internal/ledger"
	"github.com/ariefcatur/go-pos-orders/internal/orders"
	"github.com/go-chi/chi/v5/middleware"
)

const maxBody = 1 << 20

type errorResp struct {
	Error     string            `json:"error"`
	Shortages []orders.Shortage `json:"shortages,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

// statusFor maps domain errors onto HTTP. Anything unrecognised is a 500.
func statusFor(err error) int {
	var short *orders.InsufficientStockError
	switch {
	case errors.Is(err, orders.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, orders.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, orders.ErrNotFound), errors.Is(err, orders.ErrProductNotFound):
		return http.StatusNotFound
	case errors.As(err, &short),
		errors.Is(err, orders.ErrAlreadyFinalized),
		errors.Is(err, inventory.ErrNegativeStock):
		return http.StatusConflict
	case errors.Is(err, orders.ErrInvalidCart),
		errors.Is(err, orders.ErrInvalidPayment),
		errors.Is(err, orders.ErrUnderpaid),
		errors.Is(err, ledger.ErrZeroDelta),
		errors.Is(err, ledger.ErrSignMismatch),
		errors.Is(err, ledger.ErrUnknownReason):
		return http.StatusBadRequest
	case errors.Is(err, orders.ErrTransactionAborted):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	resp := errorResp{Error: err.Error(), RequestID: middleware.GetReqID(r.Context())}

	var short *orders.InsufficientStockError
	if errors.As(err, &short) {
		resp.Error = orders.ErrInsufficientStock.Error()
		resp.Shortages = short.Shortages
	}
	if code == http.StatusInternalServerError {
		slog.Default().Error("unhandled error", "path", r.URL.Path, "request_id", resp.RequestID, "error", err)
		resp.Error = "internal error"
	}
	if code == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, code, resp)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResp{Error: msg})
}
