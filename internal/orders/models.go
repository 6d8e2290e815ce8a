package orders

import "time"

type Order struct {
	ID         int64       `json:"id"`
	Status     Status      `json:"status"`
	TotalPrice float64     `json:"totalPrice"`
	Items      []OrderItem `json:"orderItems"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// OrderItem belongs to exactly one Order. The back-link is id-based and used
// only for persistence; it is never serialized outward.
type OrderItem struct {
	ID       int64   `json:"id"`
	OrderID  int64   `json:"-"`
	SKUCode  string  `json:"skuCode"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type OrderRequest struct {
	OrderItems []OrderItemRequest `json:"orderItems"`
}

type OrderItemRequest struct {
	SKUCode  string `json:"skuCode"`
	Quantity int    `json:"quantity"`
}

// ProductDetail is the inventory service's view of a product as seen by the
// order side.
type ProductDetail struct {
	SKUCode  string
	Name     string
	Price    float64
	Quantity int
}
