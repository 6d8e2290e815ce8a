package inventoryclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skuflow/inventory-orders/internal/orders"
)

func newInventoryStub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		sku := r.URL.Query().Get("skuCode")
		qty, _ := strconv.Atoi(r.URL.Query().Get("quantity"))
		available := sku == "A1" && qty <= 10
		status := "OK"
		if !available {
			status = "OUT_OF_STOCK"
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"skuCode": sku, "available": available, "status": status,
		})
	})

	// Go 1.21's ServeMux has no method/wildcard patterns, so dispatch on
	// method and path segments by hand under the "/products/" subtree.
	mux.HandleFunc("/products/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/products/"), "/")
		switch {
		case r.Method == http.MethodGet && len(parts) == 1:
			if parts[0] != "A1" {
				w.WriteHeader(http.StatusNotFound)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "product not found"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"skuCode": "A1", "name": "widget", "price": 5.0, "quantity": 10,
			})
		case r.Method == http.MethodPut && len(parts) == 3 && parts[2] == "update":
			switch parts[0] {
			case "A1":
				_ = json.NewEncoder(w).Encode(map[string]any{
					"skuCode": "A1", "name": "widget", "price": 5.0, "quantity": 7,
				})
			case "B2":
				w.WriteHeader(http.StatusConflict)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "insufficient stock"})
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		default:
			http.NotFound(w, r)
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGetProduct(t *testing.T) {
	c := New(newInventoryStub(t).URL)

	p, err := c.GetProduct(context.Background(), "A1")
	require.NoError(t, err)
	assert.Equal(t, "A1", p.SKUCode)
	assert.Equal(t, "widget", p.Name)
	assert.Equal(t, 5.0, p.Price)
	assert.Equal(t, 10, p.Quantity)
}

func TestGetProductNotFound(t *testing.T) {
	c := New(newInventoryStub(t).URL)

	_, err := c.GetProduct(context.Background(), "NOPE")
	assert.ErrorIs(t, err, orders.ErrSKUNotFound)
}

func TestIsAvailable(t *testing.T) {
	c := New(newInventoryStub(t).URL)

	ok, err := c.IsAvailable(context.Background(), "A1", 3)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.IsAvailable(context.Background(), "A1", 11)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDecrementStock(t *testing.T) {
	c := New(newInventoryStub(t).URL)

	require.NoError(t, c.DecrementStock(context.Background(), "A1", 3))

	err := c.DecrementStock(context.Background(), "B2", 1)
	assert.ErrorIs(t, err, orders.ErrItemUnavailable)

	err = c.DecrementStock(context.Background(), "NOPE", 1)
	assert.ErrorIs(t, err, orders.ErrSKUNotFound)
}
