package enum

// ── Order lifecycle (CHECK constrained in DB) ──

const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// ── Employee roles (CHECK constrained in DB) ──

const (
	UserRoleAdmin    = "ADMIN"
	UserRoleEmployee = "EMPLOYEE"
)

// ── Realtime ──

// ChannelOrdersCompleted is the LISTEN channel fed by the orders trigger.
const ChannelOrdersCompleted = "orders_completed"

// RoomAfterSales is the websocket room for the completed-orders table.
const RoomAfterSales = "after-sales"

const (
	EventOrdersRendered = "orders.rendered"
	EventFilterError    = "filter.error"
)

// ── Display defaults ──

const (
	UnknownCustomer = "Unknown Customer"
	UnknownProduct  = "Unknown Product"
	CurrencyCode    = "IDR"
)
