package orders

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/loomline/backoffice/internal/database"
	"github.com/loomline/backoffice/internal/enum"
	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date format used for display and date filtering.
const DateLayout = "2006-01-02"

// Order is the flat display record of a completed order. Every field is
// populated; missing source data falls back to a fixed default.
type Order struct {
	ID            uuid.UUID       `json:"id"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	Item          string          `json:"item"`
	Color         string          `json:"color"`
	Price         decimal.Decimal `json:"price"`
	Date          string          `json:"date"`
}

type customerRelation struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type productRelation struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// TransformOrder normalizes a joined row. The second return value is a
// diagnostic, non-empty when the row points at a customer the join did not
// resolve; the returned Order is usable either way.
func TransformOrder(row database.ListCompletedOrdersRow) (Order, string) {
	o := Order{
		ID:           row.ID,
		CustomerName: enum.UnknownCustomer,
		Item:         enum.UnknownProduct,
		Color:        row.Color,
		Price:        numericToDecimal(row.Price),
	}
	if o.Price.IsNegative() {
		o.Price = decimal.Zero
	}

	if row.CompletedAt.Valid {
		o.Date = row.CompletedAt.Time.Format(DateLayout)
	} else {
		o.Date = row.CreatedAt.Format(DateLayout)
	}

	var warning string
	var customer customerRelation
	switch {
	case decodeRelation(row.Customers, &customer):
		if customer.Name != "" {
			o.CustomerName = customer.Name
		}
		o.CustomerPhone = customer.Phone
	case !row.CustomerID.Valid:
		if row.CustomerName.Valid && row.CustomerName.String != "" {
			o.CustomerName = row.CustomerName.String
		}
		if row.CustomerPhone.Valid {
			o.CustomerPhone = row.CustomerPhone.String
		}
	default:
		warning = fmt.Sprintf("order %s references customer %s but the customer relation did not resolve",
			row.ID, uuid.UUID(row.CustomerID.Bytes))
	}

	var product productRelation
	if decodeRelation(row.Products, &product) && product.Name != "" {
		o.Item = product.Name
		if o.Color == "" {
			o.Color = product.Color
		}
	} else if row.ProductName.Valid && row.ProductName.String != "" {
		o.Item = row.ProductName.String
	}

	return o, warning
}

// decodeRelation reads a joined relation that may be null, an object, or a
// one-element array. It reports whether a relation was found.
func decodeRelation(raw []byte, dst any) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return false
	}
	if raw[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil || len(list) == 0 {
			return false
		}
		raw = bytes.TrimSpace(list[0])
		if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
			return false
		}
	}
	return json.Unmarshal(raw, dst) == nil
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}
