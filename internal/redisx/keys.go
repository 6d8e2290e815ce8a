package redisx

import "time"

const (
	// Cache of the serialized order aggregate: order:{order_id}
	KeyOrderCache = "order:%d"

	// Marks an order whose stock decrements have been applied by the
	// inventory consumer: stock:applied:{order_id}
	KeyStockApplied = "stock:applied:%d"
)

var (
	TTLOrderCache   = 5 * time.Minute
	TTLStockApplied = 48 * time.Hour
)
