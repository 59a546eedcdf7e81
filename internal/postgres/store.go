package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ariefcatur/go-pos-orders/internal/ledger"
	"github.com/ariefcatur/go-pos-orders/internal/orders"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	orderColumns = `id, number, status, source, subtotal, tax, total, table_number,
		customer_name, notes, user_id, created_at, completed_at`
	productColumns  = `id, name, price, cost_price, stock, created_at, updated_at`
	movementColumns = `id, product_id, type, delta, reason, actor_id, order_id, created_at`
)

// querier is what both the pool and a transaction offer.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	DB  *pgxpool.Pool
	log *slog.Logger
}

func NewStore(db *pgxpool.Pool, log *slog.Logger) *Store {
	return &Store{DB: db, log: log.With("component", "postgres")}
}

// WithTx runs fn at READ COMMITTED. Stock guards and the finalize CAS are
// single-row conditional updates, so row locks are enough.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx orders.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		s.log.Warn("commit failed", "error", err)
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*orders.Order, error) {
	o, err := scanOrder(s.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, orders.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := loadLines(ctx, s.DB, []*orders.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Store) ListOrders(ctx context.Context, status orders.Status, limit int) ([]orders.Order, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2`, string(status), nullLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ptrs []*orders.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		ptrs = append(ptrs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := loadLines(ctx, s.DB, ptrs); err != nil {
		return nil, err
	}

	out := make([]orders.Order, 0, len(ptrs))
	for _, o := range ptrs {
		out = append(out, *o)
	}
	return out, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (*orders.Product, error) {
	p, err := scanProduct(s.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, orders.ErrProductNotFound
	}
	return p, err
}

func (s *Store) ListProducts(ctx context.Context) ([]orders.Product, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []orders.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// PutProduct upserts catalogue fields. Stock of an existing product is left
// alone; a new product with stock gets an INITIAL movement.
func (s *Store) PutProduct(ctx context.Context, p orders.Product) error {
	return s.WithTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		t := tx.(*pgTx)
		var inserted bool
		err := t.tx.QueryRow(ctx, `
			INSERT INTO products(id, name, price, cost_price, stock)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name, price = EXCLUDED.price, cost_price = EXCLUDED.cost_price, updated_at = now()
			RETURNING (xmax = 0)`,
			p.ID, p.Name, p.Price, p.CostPrice, p.Stock,
		).Scan(&inserted)
		if err != nil {
			return err
		}
		if !inserted || p.Stock <= 0 {
			return nil
		}
		_, err = ledger.Append(ctx, t, ledger.Entry{ProductID: p.ID, Delta: p.Stock, Reason: ledger.ReasonInitial}, time.Now())
		return err
	})
}

func (s *Store) SetCostPrice(ctx context.Context, productID string, cost decimal.Decimal) error {
	tag, err := s.DB.Exec(ctx, `UPDATE products SET cost_price=$2, updated_at=now() WHERE id=$1`, productID, cost)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return orders.ErrProductNotFound
	}
	return nil
}

func (s *Store) ListMovements(ctx context.Context, productID string, limit int) ([]ledger.Movement, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+movementColumns+` FROM stock_movements
		WHERE ($1 = '' OR product_id = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, productID, nullLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ledger.Movement{}
	for rows.Next() {
		var m ledger.Movement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Type, &m.Delta, &m.Reason, &m.ActorID, &m.OrderID, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// nullLimit turns "no limit" into SQL NULL, which LIMIT treats as unbounded.
func nullLimit(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}

func scanOrder(row pgx.Row) (*orders.Order, error) {
	var o orders.Order
	err := row.Scan(&o.ID, &o.Number, &o.Status, &o.Source, &o.Subtotal, &o.Tax, &o.Total,
		&o.TableNumber, &o.CustomerName, &o.Notes, &o.UserID, &o.CreatedAt, &o.CompletedAt)
	if err != nil {
		return nil, err
	}
	o.Items = []orders.OrderItem{}
	o.Payments = []orders.Payment{}
	return &o, nil
}

func scanProduct(row pgx.Row) (*orders.Product, error) {
	var p orders.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.CostPrice, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// loadLines fills items and payments for a batch of orders with one query each.
func loadLines(ctx context.Context, q querier, batch []*orders.Order) error {
	if len(batch) == 0 {
		return nil
	}
	byID := make(map[string]*orders.Order, len(batch))
	ids := make([]string, 0, len(batch))
	for _, o := range batch {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	rows, err := q.Query(ctx, `SELECT id, order_id, product_id, name, price, cost_price, quantity, subtotal
		FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, line_no`, ids)
	if err != nil {
		return err
	}
	for rows.Next() {
		var it orders.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Price, &it.CostPrice, &it.Quantity, &it.Subtotal); err != nil {
			rows.Close()
			return err
		}
		byID[it.OrderID].Items = append(byID[it.OrderID].Items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = q.Query(ctx, `SELECT id, order_id, method, amount, reference, created_at
		FROM payments WHERE order_id = ANY($1) ORDER BY order_id, line_no`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var p orders.Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Method, &p.Amount, &p.Reference, &p.CreatedAt); err != nil {
			return err
		}
		byID[p.OrderID].Payments = append(byID[p.OrderID].Payments, p)
	}
	return rows.Err()
}
