package orders

import (
	"context"
	"time"

	"github.com/ariefcatur/go-pos-orders/internal/ledger"
	"github.com/shopspring/decimal"
)

// Store is the storage engine behind the committer. Implementations live in
// internal/postgres and internal/memory.
type Store interface {
	// WithTx runs fn in one all-or-nothing unit of work. Any error returned
	// by fn, or a context that expires before commit, discards every write.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	GetOrder(ctx context.Context, id string) (*Order, error)
	ListOrders(ctx context.Context, status Status, limit int) ([]Order, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
}

type CostReader interface {
	// ProductCosts returns current cost prices; unknown ids are omitted.
	ProductCosts(ctx context.Context, productIDs []string) (map[string]decimal.Decimal, error)
}

type Tx interface {
	CostReader
	ledger.Appender

	// InsertOrder persists the header and its items. A clash on the display
	// number is reported as ErrDuplicateNumber.
	InsertOrder(ctx context.Context, o *Order) error
	InsertPayments(ctx context.Context, orderID string, ps []Payment) error

	// CompletePending flips a PENDING order to COMPLETED only if it is still
	// PENDING, and returns it with its items. Missing orders yield ErrNotFound,
	// completed ones ErrAlreadyFinalized.
	CompletePending(ctx context.Context, orderID string, at time.Time) (*Order, error)

	// AdjustStock adds delta to the product's stock unless the result would
	// be negative. ok is false when the guard refused or the product does not
	// exist; stock then reports what was there (0 for a missing product).
	AdjustStock(ctx context.Context, productID string, delta int) (stock int, ok bool, err error)
}
