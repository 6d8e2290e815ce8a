package orders

import (
	"encoding/json"
	"strconv"
)

const (
	Exchange   = "inventory-order-exchange"
	Queue      = "order-queue"
	BindingKey = "order.created.#"

	routingPrefix = "order.created."
)

// OrderPlacedMessage is the queue payload. Field names are fixed by the wire
// contract shared with the inventory consumer.
type OrderPlacedMessage struct {
	OrderID    int64              `json:"OrderId"`
	OrderItems []OrderItemRequest `json:"orderItems"`
}

// RoutingKey puts the order id in the key so the topic binding
// (order.created.#) still matches while keys stay distinguishable in the
// broker's tooling.
func RoutingKey(orderID int64) string {
	return routingPrefix + strconv.FormatInt(orderID, 10)
}

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
