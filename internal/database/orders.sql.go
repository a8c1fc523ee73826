// source: orders.sql

package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const listCompletedOrders = `-- name: ListCompletedOrders :many
SELECT o.id, o.customer_id, o.product_id, o.customer_name, o.customer_phone,
       o.product_name, o.color, o.price, o.created_at, o.completed_at,
       CASE WHEN c.id IS NULL THEN NULL
            ELSE jsonb_build_object('id', c.id, 'name', c.name, 'phone', c.phone) END AS customers,
       CASE WHEN p.id IS NULL THEN NULL
            ELSE jsonb_build_object('id', p.id, 'name', p.name, 'color', p.color) END AS products
FROM orders o
LEFT JOIN customers c ON c.id = o.customer_id
LEFT JOIN products p ON p.id = o.product_id
WHERE o.status = 'completed'
ORDER BY o.completed_at DESC NULLS LAST
`

// ListCompletedOrdersRow is one completed order joined with its customer and
// product. Customers and Products hold the raw JSON relation (null when the
// join found nothing).
type ListCompletedOrdersRow struct {
	ID            uuid.UUID          `json:"id"`
	CustomerID    pgtype.UUID        `json:"customer_id"`
	ProductID     pgtype.UUID        `json:"product_id"`
	CustomerName  pgtype.Text        `json:"customer_name"`
	CustomerPhone pgtype.Text        `json:"customer_phone"`
	ProductName   pgtype.Text        `json:"product_name"`
	Color         string             `json:"color"`
	Price         pgtype.Numeric     `json:"price"`
	CreatedAt     time.Time          `json:"created_at"`
	CompletedAt   pgtype.Timestamptz `json:"completed_at"`
	Customers     []byte             `json:"customers"`
	Products      []byte             `json:"products"`
}

func (q *Queries) ListCompletedOrders(ctx context.Context) ([]ListCompletedOrdersRow, error) {
	return q.queryCompletedOrders(ctx, listCompletedOrders)
}

const listCompletedOrdersByCreated = `-- name: ListCompletedOrdersByCreated :many
SELECT o.id, o.customer_id, o.product_id, o.customer_name, o.customer_phone,
       o.product_name, o.color, o.price, o.created_at, NULL::timestamptz AS completed_at,
       CASE WHEN c.id IS NULL THEN NULL
            ELSE jsonb_build_object('id', c.id, 'name', c.name, 'phone', c.phone) END AS customers,
       CASE WHEN p.id IS NULL THEN NULL
            ELSE jsonb_build_object('id', p.id, 'name', p.name, 'color', p.color) END AS products
FROM orders o
LEFT JOIN customers c ON c.id = o.customer_id
LEFT JOIN products p ON p.id = o.product_id
WHERE o.status = 'completed'
ORDER BY o.created_at DESC
`

// ListCompletedOrdersByCreated is the variant for schemas without a
// completed_at column.
func (q *Queries) ListCompletedOrdersByCreated(ctx context.Context) ([]ListCompletedOrdersRow, error) {
	return q.queryCompletedOrders(ctx, listCompletedOrdersByCreated)
}

func (q *Queries) queryCompletedOrders(ctx context.Context, query string) ([]ListCompletedOrdersRow, error) {
	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ListCompletedOrdersRow{}
	for rows.Next() {
		var i ListCompletedOrdersRow
		if err := rows.Scan(
			&i.ID,
			&i.CustomerID,
			&i.ProductID,
			&i.CustomerName,
			&i.CustomerPhone,
			&i.ProductName,
			&i.Color,
			&i.Price,
			&i.CreatedAt,
			&i.CompletedAt,
			&i.Customers,
			&i.Products,
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

const getCompletedOrder = `-- name: GetCompletedOrder :one
SELECT o.id, o.customer_id, o.product_id, o.customer_name, o.customer_phone,
       o.product_name, o.color, o.price, o.created_at, o.completed_at,
       CASE WHEN c.id IS NULL THEN NULL
            ELSE jsonb_build_object('id', c.id, 'name', c.name, 'phone', c.phone) END AS customers,
       CASE WHEN p.id IS NULL THEN NULL
            ELSE jsonb_build_object('id', p.id, 'name', p.name, 'color', p.color) END AS products
FROM orders o
LEFT JOIN customers c ON c.id = o.customer_id
LEFT JOIN products p ON p.id = o.product_id
WHERE o.id = $1 AND o.status = 'completed'
`

func (q *Queries) GetCompletedOrder(ctx context.Context, id uuid.UUID) (ListCompletedOrdersRow, error) {
	row := q.db.QueryRow(ctx, getCompletedOrder, id)
	var i ListCompletedOrdersRow
	err := row.Scan(
		&i.ID,
		&i.CustomerID,
		&i.ProductID,
		&i.CustomerName,
		&i.CustomerPhone,
		&i.ProductName,
		&i.Color,
		&i.Price,
		&i.CreatedAt,
		&i.CompletedAt,
		&i.Customers,
		&i.Products,
	)
	return i, err
}

const createCompletedOrder = `-- name: CreateCompletedOrder :one
INSERT INTO orders (customer_id, product_id, customer_name, customer_phone, product_name, color, price, status, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, 'completed', now())
RETURNING id, customer_id, product_id, customer_name, customer_phone, product_name, color, price, status, created_at, completed_at
`

type CreateCompletedOrderParams struct {
	CustomerID    pgtype.UUID    `json:"customer_id"`
	ProductID     pgtype.UUID    `json:"product_id"`
	CustomerName  pgtype.Text    `json:"customer_name"`
	CustomerPhone pgtype.Text    `json:"customer_phone"`
	ProductName   pgtype.Text    `json:"product_name"`
	Color         string         `json:"color"`
	Price         pgtype.Numeric `json:"price"`
}

func (q *Queries) CreateCompletedOrder(ctx context.Context, arg CreateCompletedOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createCompletedOrder,
		arg.CustomerID,
		arg.ProductID,
		arg.CustomerName,
		arg.CustomerPhone,
		arg.ProductName,
		arg.Color,
		arg.Price,
	)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.CustomerID,
		&i.ProductID,
		&i.CustomerName,
		&i.CustomerPhone,
		&i.ProductName,
		&i.Color,
		&i.Price,
		&i.Status,
		&i.CreatedAt,
		&i.CompletedAt,
	)
	return i, err
}

const upsertCustomer = `-- name: UpsertCustomer :one
INSERT INTO customers (name, phone)
VALUES (COALESCE(NULLIF($1::text, ''), 'Unknown Customer'), $2)
ON CONFLICT (phone) DO UPDATE
    SET name = CASE WHEN $1::text = '' THEN customers.name ELSE EXCLUDED.name END
RETURNING id, name, phone, created_at
`

type UpsertCustomerParams struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// UpsertCustomer keys customers by phone. An empty name never replaces a
// stored one; new customers without a name get the placeholder.
func (q *Queries) UpsertCustomer(ctx context.Context, arg UpsertCustomerParams) (Customer, error) {
	row := q.db.QueryRow(ctx, upsertCustomer, arg.Name, arg.Phone)
	var i Customer
	err := row.Scan(&i.ID, &i.Name, &i.Phone, &i.CreatedAt)
	return i, err
}
