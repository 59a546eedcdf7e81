// Package ledger is the append-only record of every stock change. The stock
// column on a product is a cached value; movements explain how it got there.
// Nothing here updates or deletes a movement: corrections are new entries.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeIn     Type = "IN"
	TypeOut    Type = "OUT"
	TypeAdjust Type = "ADJUST"
)

type Reason string

const (
	ReasonSale       Reason = "SALE"
	ReasonRestock    Reason = "RESTOCK"
	ReasonInitial    Reason = "INITIAL"
	ReasonWaste      Reason = "WASTE"
	ReasonCorrection Reason = "CORRECTION"
)

var (
	ErrZeroDelta     = errors.New("movement delta must not be zero")
	ErrUnknownReason = errors.New("unknown movement reason")
	ErrSignMismatch  = errors.New("movement delta sign does not match reason")
	ErrUnreconciled  = errors.New("ledger does not reconcile with stock")
)

type Movement struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Type      Type      `json:"type"`
	Delta     int       `json:"delta"`
	Reason    Reason    `json:"reason"`
	ActorID   *string   `json:"actor_id,omitempty"`
	OrderID   *string   `json:"order_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Appender is implemented by store transactions so movements commit or roll
// back together with the stock change they describe.
type Appender interface {
	AppendMovement(ctx context.Context, m Movement) error
}

type Reader interface {
	// ListMovements returns newest first.
	ListMovements(ctx context.Context, productID string, limit int) ([]Movement, error)
}

type Entry struct {
	ProductID string
	Delta     int
	Reason    Reason
	ActorID   *string
	OrderID   *string
}

// TypeFor derives the movement type and checks the delta sign the reason implies.
func TypeFor(reason Reason, delta int) (Type, error) {
	if delta == 0 {
		return "", ErrZeroDelta
	}
	switch reason {
	case ReasonSale, ReasonWaste:
		if delta > 0 {
			return "", fmt.Errorf("%w: %s needs a negative delta", ErrSignMismatch, reason)
		}
		return TypeOut, nil
	case ReasonRestock, ReasonInitial:
		if delta < 0 {
			return "", fmt.Errorf("%w: %s needs a positive delta", ErrSignMismatch, reason)
		}
		return TypeIn, nil
	case ReasonCorrection:
		return TypeAdjust, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownReason, reason)
}

// Append validates e and writes one movement through a.
func Append(ctx context.Context, a Appender, e Entry, at time.Time) (Movement, error) {
	if e.ProductID == "" {
		return Movement{}, errors.New("movement needs a product")
	}
	typ, err := TypeFor(e.Reason, e.Delta)
	if err != nil {
		return Movement{}, err
	}
	m := Movement{
		ID:        uuid.NewString(),
		ProductID: e.ProductID,
		Type:      typ,
		Delta:     e.Delta,
		Reason:    e.Reason,
		ActorID:   e.ActorID,
		OrderID:   e.OrderID,
		CreatedAt: at.UTC(),
	}
	if err := a.AppendMovement(ctx, m); err != nil {
		return Movement{}, fmt.Errorf("append movement for %s: %w", e.ProductID, err)
	}
	return m, nil
}

func Sum(ms []Movement) int {
	n := 0
	for _, m := range ms {
		n += m.Delta
	}
	return n
}

// Reconcile checks that the movements explain the move from initial to current.
func Reconcile(initial, current int, ms []Movement) error {
	if got := Sum(ms); got != current-initial {
		return fmt.Errorf("%w: movements sum to %d, stock moved by %d", ErrUnreconciled, got, current-initial)
	}
	return nil
}
