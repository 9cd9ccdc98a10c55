// Package postgres implements the order sink on PostgreSQL: one row per
// order plus one row per order line, inserted in a single transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voxmenu/voxmenu/internal/order"
	"github.com/voxmenu/voxmenu/internal/orderstore"
)

// Compile-time interface check.
var _ orderstore.Sink = (*Store)(nil)

// Store is the PostgreSQL-backed [orderstore.Sink]. It holds a single
// [pgxpool.Pool]; all operations are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore establishes a connection pool to the PostgreSQL database at dsn
// and runs [Migrate] to ensure the orders tables exist.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres store: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: ping: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: migrate: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases all connections held by the underlying pool. Call it when
// the Store is no longer needed, typically via defer.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping probes the database connection. Used by the readiness endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate creates the orders and order_lines tables if they do not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS orders (
		    order_id       text PRIMARY KEY,
		    created_at     timestamptz NOT NULL,
		    placed_at      timestamptz NOT NULL DEFAULT now(),
		    customer_name  text NOT NULL,
		    customer_phone text NOT NULL,
		    total          numeric(10,2) NOT NULL
		);

		CREATE TABLE IF NOT EXISTS order_lines (
		    order_id   text NOT NULL REFERENCES orders(order_id) ON DELETE CASCADE,
		    position   int NOT NULL,
		    item_id    text NOT NULL,
		    name       text NOT NULL,
		    quantity   int NOT NULL,
		    variant    text NOT NULL DEFAULT '',
		    addons     text[] NOT NULL DEFAULT '{}',
		    unit_price numeric(10,2) NOT NULL,
		    PRIMARY KEY (order_id, position)
		);`

	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres store: create schema: %w", err)
	}
	return nil
}

// AppendOrder implements [orderstore.Sink]. The order row and its lines are
// inserted in one transaction; a duplicate order ID returns
// [orderstore.ErrDuplicateOrder] so retried hand-offs are idempotent.
func (s *Store) AppendOrder(ctx context.Context, snapshot order.Snapshot) error {
	if snapshot.ID == "" {
		return fmt.Errorf("postgres store: snapshot without order ID")
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("postgres store: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const insertOrder = `
		INSERT INTO orders (order_id, created_at, customer_name, customer_phone, total)
		VALUES ($1, $2, $3, $4, $5)`

	_, err = tx.Exec(ctx, insertOrder,
		snapshot.ID,
		snapshot.CreatedAt,
		snapshot.Customer.Name,
		snapshot.Customer.Phone,
		snapshot.Total,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("postgres store: order %s: %w", snapshot.ID, orderstore.ErrDuplicateOrder)
		}
		return fmt.Errorf("postgres store: insert order: %w", err)
	}

	const insertLine = `
		INSERT INTO order_lines (order_id, position, item_id, name, quantity, variant, addons, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	for i, line := range snapshot.Lines {
		_, err = tx.Exec(ctx, insertLine,
			snapshot.ID,
			i,
			line.ItemID,
			line.Name,
			line.Quantity,
			line.Variant,
			line.Addons,
			line.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("postgres store: insert line %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres store: commit: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
