package inventory

import "time"

// Product is keyed by its SKU code; the numeric id exists for persistence
// only.
type Product struct {
	ID        int64     `json:"-"`
	SKUCode   string    `json:"skuCode"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

type Availability struct {
	SKUCode   string `json:"skuCode"`
	Available bool   `json:"available"`
	Status    string `json:"status"`
}

const (
	AvailabilityOK         = "OK"
	AvailabilityOutOfStock = "OUT_OF_STOCK"
)
