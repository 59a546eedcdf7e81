package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ariefcatur/go-pos-orders/internal/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultCommitTimeout = 10 * time.Second
	numberAttempts       = 3
)

// Notifier receives committed orders. It must not block the caller and has no
// way to report failure: by the time it runs the order is already durable.
type Notifier interface {
	Notify(ctx context.Context, event string, o Order)
}

type Options struct {
	CommitTimeout time.Duration
	TaxRate       decimal.Decimal
	// RequireFullPayment rejects completions whose payments sum below the
	// order total. Off by default: split and partial tenders are accepted.
	RequireFullPayment bool
	// Numbers overrides the display number source.
	Numbers *NumberGenerator
}

// Committer turns carts into persisted, inventory-consistent orders.
type Committer struct {
	store    Store
	numbers  *NumberGenerator
	notifier Notifier
	log      *slog.Logger
	opts     Options
	now      func() time.Time
}

func NewCommitter(store Store, notifier Notifier, log *slog.Logger, opts Options) *Committer {
	if opts.CommitTimeout <= 0 {
		opts.CommitTimeout = DefaultCommitTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	numbers := opts.Numbers
	if numbers == nil {
		numbers = NewNumberGenerator()
	}
	return &Committer{
		store:    store,
		numbers:  numbers,
		notifier: notifier,
		log:      log.With("component", "committer"),
		opts:     opts,
		now:      time.Now,
	}
}

// Hold creates a PENDING order with no payments and no stock effect.
func (c *Committer) Hold(ctx context.Context, actor Actor, cart Cart) (*Order, error) {
	if !actor.Authenticated() {
		return nil, ErrUnauthorized
	}
	return c.commit(ctx, commitRequest{actor: &actor, cart: &cart, source: SourceStaff})
}

// CreateAndFinalize creates a COMPLETED order, its payments, the stock
// decrements and their ledger rows in one transaction.
func (c *Committer) CreateAndFinalize(ctx context.Context, actor Actor, cart Cart, payments []PaymentInput) (*Order, error) {
	if !actor.Authenticated() {
		return nil, ErrUnauthorized
	}
	if err := ValidatePayments(payments); err != nil {
		return nil, err
	}
	return c.commit(ctx, commitRequest{actor: &actor, cart: &cart, source: SourceStaff, payments: payments, complete: true})
}

// Finalize completes a PENDING order. The status flip is a conditional
// update inside the transaction, so of two racing calls exactly one wins and
// the other gets ErrAlreadyFinalized.
func (c *Committer) Finalize(ctx context.Context, actor Actor, orderID string, payments []PaymentInput) (*Order, error) {
	if !actor.Authenticated() {
		return nil, ErrUnauthorized
	}
	if orderID == "" {
		return nil, ErrNotFound
	}
	if err := ValidatePayments(payments); err != nil {
		return nil, err
	}
	return c.commit(ctx, commitRequest{actor: &actor, orderID: orderID, payments: payments, complete: true})
}

// PlaceVisitorOrder is the public menu path: no actor, always PENDING until
// staff finalize it.
func (c *Committer) PlaceVisitorOrder(ctx context.Context, cart Cart) (*Order, error) {
	return c.commit(ctx, commitRequest{cart: &cart, source: SourceVisitor})
}

func (c *Committer) Get(ctx context.Context, id string) (*Order, error) {
	return c.store.GetOrder(ctx, id)
}

func (c *Committer) List(ctx context.Context, status Status, limit int) ([]Order, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return c.store.ListOrders(ctx, status, limit)
}

type commitRequest struct {
	actor    *Actor
	orderID  string // set: finalize an existing PENDING order
	cart     *Cart  // set: create a fresh order
	source   Source
	payments []PaymentInput
	complete bool
}

func (c *Committer) commit(ctx context.Context, req commitRequest) (*Order, error) {
	if req.cart != nil {
		if err := req.cart.Validate(); err != nil {
			return nil, err
		}
	}

	var (
		order *Order
		err   error
	)
	for attempt := 1; attempt <= numberAttempts; attempt++ {
		order, err = c.commitOnce(ctx, req)
		if !errors.Is(err, ErrDuplicateNumber) || req.cart == nil {
			break
		}
		c.log.Warn("order number clash, retrying", "attempt", attempt)
	}
	if err != nil {
		err = abortErr(err)
		c.log.Info("commit failed", "order_id", req.orderID, "error", err)
		return nil, err
	}

	c.log.Info("order committed", "order_id", order.ID, "number", order.Number, "status", order.Status)
	c.publish(ctx, req, *order)
	return order, nil
}

func (c *Committer) commitOnce(ctx context.Context, req commitRequest) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.CommitTimeout)
	defer cancel()

	var out *Order
	err := c.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		now := c.now().UTC()

		var order *Order
		if req.orderID == "" {
			o, err := c.buildOrder(ctx, tx, req, now)
			if err != nil {
				return err
			}
			if req.complete {
				o.Status = StatusCompleted
				o.CompletedAt = &now
			}
			if err := tx.InsertOrder(ctx, o); err != nil {
				return err
			}
			order = o
		} else {
			o, err := tx.CompletePending(ctx, req.orderID, now)
			if err != nil {
				return err
			}
			order = o
		}

		if req.complete {
			if err := c.settle(ctx, tx, order, req, now); err != nil {
				return err
			}
		}
		out = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Committer) buildOrder(ctx context.Context, tx Tx, req commitRequest, now time.Time) (*Order, error) {
	cart := req.cart
	costs, err := ResolveCosts(ctx, tx, cart.ProductIDs())
	if err != nil {
		return nil, err
	}

	prefix := PrefixStaff
	if req.source == SourceVisitor {
		prefix = PrefixVisitor
	}
	o := &Order{
		ID:           uuid.NewString(),
		Number:       c.numbers.Next(prefix),
		Status:       StatusPending,
		Source:       req.source,
		TableNumber:  cart.TableNumber,
		CustomerName: cart.CustomerName,
		Notes:        cart.Notes,
		CreatedAt:    now,
		Items:        make([]OrderItem, 0, len(cart.Items)),
		Payments:     []Payment{},
	}
	if req.actor != nil {
		uid := req.actor.UserID
		o.UserID = &uid
	}

	subtotal := decimal.Zero
	for _, it := range cart.Items {
		line := it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		o.Items = append(o.Items, OrderItem{
			ID:        uuid.NewString(),
			OrderID:   o.ID,
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.UnitPrice,
			CostPrice: costs[it.ProductID],
			Quantity:  it.Quantity,
			Subtotal:  line,
		})
		subtotal = subtotal.Add(line)
	}
	o.Subtotal = subtotal
	o.Tax = subtotal.Mul(c.opts.TaxRate).Round(2)
	o.Total = o.Subtotal.Add(o.Tax)
	return o, nil
}

// settle attaches payments, decrements stock and writes one SALE movement
// per line item.
func (c *Committer) settle(ctx context.Context, tx Tx, o *Order, req commitRequest, now time.Time) error {
	payments := make([]Payment, 0, len(req.payments))
	paid := decimal.Zero
	for _, p := range req.payments {
		payments = append(payments, Payment{
			ID:        uuid.NewString(),
			OrderID:   o.ID,
			Method:    p.Method,
			Amount:    p.Amount,
			Reference: p.Reference,
			CreatedAt: now,
		})
		paid = paid.Add(p.Amount)
	}
	if c.opts.RequireFullPayment && paid.LessThan(o.Total) {
		return fmt.Errorf("%w: paid %s of %s", ErrUnderpaid, paid, o.Total)
	}
	if err := tx.InsertPayments(ctx, o.ID, payments); err != nil {
		return err
	}
	o.Payments = append(o.Payments, payments...)

	var actorID *string
	if req.actor != nil {
		uid := req.actor.UserID
		actorID = &uid
	}
	orderID := o.ID

	// one guarded decrement per product, for the cart's total of it
	need := make(map[string]int, len(o.Items))
	var productIDs []string
	for _, it := range o.Items {
		if _, seen := need[it.ProductID]; !seen {
			productIDs = append(productIDs, it.ProductID)
		}
		need[it.ProductID] += it.Quantity
	}
	var shortages []Shortage
	for _, id := range productIDs {
		stock, ok, err := tx.AdjustStock(ctx, id, -need[id])
		if err != nil {
			return fmt.Errorf("decrement stock %s: %w", id, err)
		}
		if !ok {
			shortages = append(shortages, Shortage{ProductID: id, Required: need[id], Available: stock})
		}
	}
	if len(shortages) > 0 {
		return &InsufficientStockError{Shortages: shortages}
	}

	for _, it := range o.Items {
		if _, err := ledger.Append(ctx, tx, ledger.Entry{
			ProductID: it.ProductID,
			Delta:     -it.Quantity,
			Reason:    ledger.ReasonSale,
			ActorID:   actorID,
			OrderID:   &orderID,
		}, now); err != nil {
			return err
		}
	}
	return nil
}

func (c *Committer) publish(ctx context.Context, req commitRequest, o Order) {
	if c.notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if req.orderID == "" {
		c.notifier.Notify(ctx, EventOrderCreated, o)
	}
	if o.Status == StatusCompleted {
		c.notifier.Notify(ctx, EventOrderPaid, o)
	}
}
