// source: products.sql

package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getProduct = `-- name: GetProduct :one
SELECT id, name, color, size, price, stock_quantity, created_at, updated_at
FROM products
WHERE id = $1
`

func (q *Queries) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	row := q.db.QueryRow(ctx, getProduct, id)
	var i Product
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Color,
		&i.Size,
		&i.Price,
		&i.StockQuantity,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const decrementProductStock = `-- name: DecrementProductStock :one
UPDATE products
SET stock_quantity = stock_quantity - 1, updated_at = now()
WHERE id = $1 AND stock_quantity > 0
RETURNING id, name, color, size, price, stock_quantity, created_at, updated_at
`

// DecrementProductStock returns pgx.ErrNoRows when the product is missing or
// already out of stock.
func (q *Queries) DecrementProductStock(ctx context.Context, id uuid.UUID) (Product, error) {
	row := q.db.QueryRow(ctx, decrementProductStock, id)
	var i Product
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Color,
		&i.Size,
		&i.Price,
		&i.StockQuantity,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listInventory = `-- name: ListInventory :many
SELECT id, name, color, size, price, stock_quantity, created_at, updated_at
FROM products
WHERE ($1::text IS NULL OR name ILIKE '%' || $1 || '%' OR color ILIKE '%' || $1 || '%')
  AND (NOT $2::bool OR stock_quantity <= $3)
ORDER BY name, color, size
LIMIT $4 OFFSET $5
`

type ListInventoryParams struct {
	Search       pgtype.Text `json:"search"`
	LowStockOnly bool        `json:"low_stock_only"`
	Threshold    int32       `json:"threshold"`
	Limit        int32       `json:"limit"`
	Offset       int32       `json:"offset"`
}

func (q *Queries) ListInventory(ctx context.Context, arg ListInventoryParams) ([]Product, error) {
	rows, err := q.db.Query(ctx, listInventory,
		arg.Search,
		arg.LowStockOnly,
		arg.Threshold,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Product{}
	for rows.Next() {
		var i Product
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Color,
			&i.Size,
			&i.Price,
			&i.StockQuantity,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
