package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ltnam/order-service/internal/core/domain"
)

// MySQLAdapter is the authoritative store: customers, products and orders
// live here, and the guarded UPDATE below is what makes concurrent
// decrements on the same product safe.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) FindCustomerByID(ctx context.Context, id string) (*domain.Customer, error) {
	var c domain.Customer
	err := m.db.QueryRowContext(ctx, `
		SELECT id, name, email, created_at
		FROM customers WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Email, &c.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query customer: %w", err)
	}
	return &c, nil
}

func (m *MySQLAdapter) FindProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	if len(ids) == 0 {
		return map[string]domain.Product{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := m.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, name, price, quantity, created_at, updated_at
		FROM products WHERE id IN (%s)`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make(map[string]domain.Product, len(ids))
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Quantity, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return products, nil
}

func (m *MySQLAdapter) DecrementStock(ctx context.Context, deltas []domain.StockDelta) error {
	if len(deltas) == 0 {
		return nil
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := applyDeltas(ctx, tx, deltas); err != nil {
		return err
	}

	return tx.Commit()
}

func (m *MySQLAdapter) CreateOrder(ctx context.Context, order domain.Order) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, customer_id, created_at)
		VALUES (?, ?, ?)`,
		order.ID, order.CustomerID, order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, line := range order.Lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_lines (id, order_id, product_id, unit_price, quantity)
			VALUES (?, ?, ?, ?, ?)`,
			line.ID, order.ID, line.ProductID, line.UnitPrice, line.Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}

	if err := applyDeltas(ctx, tx, order.StockDeltas()); err != nil {
		return err
	}

	return tx.Commit()
}

// applyDeltas runs the guarded decrement for every delta inside tx. Zero
// rows affected means the product is either gone or short on stock; the
// caller's rollback then undoes any deltas already applied, so the batch
// is all-or-nothing.
func applyDeltas(ctx context.Context, tx *sql.Tx, deltas []domain.StockDelta) error {
	for _, d := range deltas {
		result, err := tx.ExecContext(ctx, `
			UPDATE products
			SET quantity = quantity - ?, updated_at = NOW()
			WHERE id = ? AND quantity >= ?`,
			d.Quantity, d.ProductID, d.Quantity,
		)
		if err != nil {
			return fmt.Errorf("decrement product %s: %w", d.ProductID, err)
		}

		rows, _ := result.RowsAffected()
		if rows == 0 {
			var exists int
			err := tx.QueryRowContext(ctx, `SELECT 1 FROM products WHERE id = ?`, d.ProductID).Scan(&exists)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: %s", domain.ErrProductNotFound, d.ProductID)
			}
			if err != nil {
				return fmt.Errorf("recheck product %s: %w", d.ProductID, err)
			}
			return fmt.Errorf("%w: product %s", domain.ErrInsufficientStock, d.ProductID)
		}
	}
	return nil
}
