package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// order_items.product_id has no foreign key: sold lines outlive the product.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		price       NUMERIC NOT NULL DEFAULT 0 CHECK (price >= 0),
		cost_price  NUMERIC NOT NULL DEFAULT 0 CHECK (cost_price >= 0),
		stock       INT NOT NULL DEFAULT 0 CHECK (stock >= 0),
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id             TEXT PRIMARY KEY,
		number         TEXT NOT NULL UNIQUE,
		status         TEXT NOT NULL CHECK (status IN ('PENDING', 'COMPLETED')),
		source         TEXT NOT NULL CHECK (source IN ('STAFF', 'VISITOR')),
		subtotal       NUMERIC NOT NULL CHECK (subtotal >= 0),
		tax            NUMERIC NOT NULL CHECK (tax >= 0),
		total          NUMERIC NOT NULL CHECK (total >= 0),
		table_number   INT,
		customer_name  TEXT,
		notes          TEXT,
		user_id        TEXT,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		completed_at   TIMESTAMPTZ,
		CHECK (total = subtotal + tax),
		CHECK ((status = 'COMPLETED') = (completed_at IS NOT NULL))
	)`,
	`CREATE INDEX IF NOT EXISTS orders_status_created_idx ON orders (status, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id          TEXT PRIMARY KEY,
		order_id    TEXT NOT NULL REFERENCES orders(id),
		line_no     INT NOT NULL DEFAULT 0,
		product_id  TEXT NOT NULL,
		name        TEXT NOT NULL,
		price       NUMERIC NOT NULL CHECK (price >= 0),
		cost_price  NUMERIC NOT NULL CHECK (cost_price >= 0),
		quantity    INT NOT NULL CHECK (quantity > 0),
		subtotal    NUMERIC NOT NULL
	)`,
	`ALTER TABLE order_items ADD COLUMN IF NOT EXISTS line_no INT NOT NULL DEFAULT 0`,
	`CREATE INDEX IF NOT EXISTS order_items_order_idx ON order_items (order_id, line_no)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id          TEXT PRIMARY KEY,
		order_id    TEXT NOT NULL REFERENCES orders(id),
		line_no     INT NOT NULL DEFAULT 0,
		method      TEXT NOT NULL CHECK (method IN ('CASH', 'CARD', 'TRANSFER', 'OTHER')),
		amount      NUMERIC NOT NULL CHECK (amount > 0),
		reference   TEXT,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`ALTER TABLE payments ADD COLUMN IF NOT EXISTS line_no INT NOT NULL DEFAULT 0`,
	`CREATE INDEX IF NOT EXISTS payments_order_idx ON payments (order_id, line_no)`,
	`CREATE TABLE IF NOT EXISTS stock_movements (
		id          TEXT PRIMARY KEY,
		product_id  TEXT NOT NULL,
		type        TEXT NOT NULL CHECK (type IN ('IN', 'OUT', 'ADJUST')),
		delta       INT NOT NULL CHECK (delta <> 0),
		reason      TEXT NOT NULL,
		actor_id    TEXT,
		order_id    TEXT REFERENCES orders(id),
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS stock_movements_product_idx ON stock_movements (product_id, created_at DESC)`,
}

// Migrate creates the schema if it is missing. Statements are idempotent.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
