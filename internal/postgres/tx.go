package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-pos-orders/internal/ledger"
	"github.com/ariefcatur/go-pos-orders/internal/orders"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) ProductCosts(ctx context.Context, ids []string) (map[string]decimal.Decimal, error) {
	rows, err := t.tx.Query(ctx, `SELECT id, cost_price FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]decimal.Decimal, len(ids))
	for rows.Next() {
		var (
			id   string
			cost decimal.Decimal
		)
		if err := rows.Scan(&id, &cost); err != nil {
			return nil, err
		}
		out[id] = cost
	}
	return out, rows.Err()
}

func (t *pgTx) InsertOrder(ctx context.Context, o *orders.Order) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO orders(id, number, status, source, subtotal, tax, total, table_number,
			customer_name, notes, user_id, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		o.ID, o.Number, string(o.Status), string(o.Source), o.Subtotal, o.Tax, o.Total, o.TableNumber,
		o.CustomerName, o.Notes, o.UserID, o.CreatedAt, o.CompletedAt,
	)
	if isUniqueViolation(err, "orders_number_key") {
		return fmt.Errorf("%w: %s", orders.ErrDuplicateNumber, o.Number)
	}
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i, it := range o.Items {
		_, err = t.tx.Exec(ctx, `
			INSERT INTO order_items(id, order_id, line_no, product_id, name, price, cost_price, quantity, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			it.ID, o.ID, i+1, it.ProductID, it.Name, it.Price, it.CostPrice, it.Quantity, it.Subtotal,
		)
		if err != nil {
			return fmt.Errorf("insert item %s: %w", it.ProductID, err)
		}
	}
	return nil
}

func (t *pgTx) InsertPayments(ctx context.Context, orderID string, ps []orders.Payment) error {
	for i, p := range ps {
		_, err := t.tx.Exec(ctx, `
			INSERT INTO payments(id, order_id, line_no, method, amount, reference, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			p.ID, orderID, i+1, string(p.Method), p.Amount, p.Reference, p.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
	}
	return nil
}

func (t *pgTx) CompletePending(ctx context.Context, orderID string, at time.Time) (*orders.Order, error) {
	o, err := scanOrder(t.tx.QueryRow(ctx, `
		UPDATE orders SET status='COMPLETED', completed_at=$2
		WHERE id=$1 AND status='PENDING'
		RETURNING `+orderColumns, orderID, at))
	if errors.Is(err, pgx.ErrNoRows) {
		// lost the race or never existed
		var status string
		err = t.tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1`, orderID).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, orders.ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		return nil, orders.ErrAlreadyFinalized
	}
	if err != nil {
		return nil, err
	}
	if err := loadLines(ctx, t.tx, []*orders.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (t *pgTx) AdjustStock(ctx context.Context, productID string, delta int) (int, bool, error) {
	var stock int
	err := t.tx.QueryRow(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE id=$1 AND stock + $2 >= 0
		RETURNING stock`, productID, delta).Scan(&stock)
	if err == nil {
		return stock, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, err
	}

	err = t.tx.QueryRow(ctx, `SELECT stock FROM products WHERE id=$1`, productID).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return stock, false, nil
}

func (t *pgTx) AppendMovement(ctx context.Context, m ledger.Movement) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO stock_movements(id, product_id, type, delta, reason, actor_id, order_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, m.ProductID, string(m.Type), m.Delta, string(m.Reason), m.ActorID, m.OrderID, m.CreatedAt,
	)
	return err
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolation && (constraint == "" || pgErr.ConstraintName == constraint)
}
