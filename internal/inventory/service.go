// Package inventory handles stock changes that do not come from a sale:
// restocks, waste write-offs and stock-take corrections. Each one is a
// guarded stock update plus exactly one ledger row in the same transaction.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ariefcatur/go-pos-orders/internal/ledger"
	"github.com/ariefcatur/go-pos-orders/internal/orders"
)

var ErrNegativeStock = errors.New("adjustment would make stock negative")

type Store interface {
	orders.Store
	ledger.Reader
}

type Service struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

func NewService(store Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log.With("component", "inventory"), now: time.Now}
}

type Adjustment struct {
	Product  orders.Product  `json:"product"`
	Movement ledger.Movement `json:"movement"`
}

// Adjust applies delta to a product's stock. Admin only. SALE is reserved for
// the order committer and INITIAL for catalogue seeding.
func (s *Service) Adjust(ctx context.Context, actor orders.Actor, productID string, delta int, reason ledger.Reason) (*Adjustment, error) {
	if !actor.Authenticated() {
		return nil, orders.ErrUnauthorized
	}
	if !actor.IsAdmin() {
		return nil, orders.ErrForbidden
	}
	switch reason {
	case ledger.ReasonRestock, ledger.ReasonWaste, ledger.ReasonCorrection:
	default:
		return nil, fmt.Errorf("%w: %q", ledger.ErrUnknownReason, reason)
	}
	if _, err := ledger.TypeFor(reason, delta); err != nil {
		return nil, err
	}

	// products are never deleted, so checking outside the transaction is enough
	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	var out Adjustment
	err := s.store.WithTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		stock, ok, err := tx.AdjustStock(ctx, productID, delta)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: have %d, delta %d", ErrNegativeStock, stock, delta)
		}
		uid := actor.UserID
		m, err := ledger.Append(ctx, tx, ledger.Entry{ProductID: productID, Delta: delta, Reason: reason, ActorID: &uid}, s.now())
		if err != nil {
			return err
		}
		out.Movement = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	p, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	out.Product = *p
	s.log.Info("stock adjusted", "product_id", productID, "delta", delta, "reason", reason, "stock", p.Stock, "actor", actor.UserID)
	return &out, nil
}

func (s *Service) Movements(ctx context.Context, productID string, limit int) ([]ledger.Movement, error) {
	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.store.ListMovements(ctx, productID, limit)
}

// Products lists the menu with current stock.
func (s *Service) Products(ctx context.Context) ([]orders.Product, error) {
	return s.store.ListProducts(ctx)
}
