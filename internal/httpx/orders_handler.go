package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/skuflow/inventory-orders/internal/orders"
	"github.com/skuflow/inventory-orders/internal/redisx"
)

type OrdersHandler struct {
	Service *orders.Service
	Cache   *redis.Client // optional
	Log     *zap.Logger
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.placeOrder)
	r.Get("/orders/{id}", h.getOrder)
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req orders.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	order, err := h.Service.PlaceOrder(ctx, req)
	if err != nil {
		writeJSON(w, placeOrderStatus(err), map[string]string{"error": err.Error()})
		return
	}

	h.cacheOrder(ctx, order)
	writeJSON(w, http.StatusOK, order)
}

func placeOrderStatus(err error) int {
	switch {
	case errors.Is(err, orders.ErrEmptyOrder), errors.Is(err, orders.ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, orders.ErrItemUnavailable):
		return http.StatusConflict
	case errors.Is(err, orders.ErrSKUNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if h.Cache != nil {
		key := fmt.Sprintf(redisx.KeyOrderCache, orderID)
		if s, err := h.Cache.Get(ctx, key).Result(); err == nil && s != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(s))
			return
		}
	}

	order, err := h.Service.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	h.cacheOrder(ctx, order)
	writeJSON(w, http.StatusOK, order)
}

func (h *OrdersHandler) cacheOrder(ctx context.Context, order *orders.Order) {
	if h.Cache == nil {
		return
	}
	b, err := json.Marshal(order)
	if err != nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderCache, order.ID)
	if err := h.Cache.Set(ctx, key, b, redisx.TTLOrderCache).Err(); err != nil {
		h.Log.Warn("order cache set failed", zap.Int64("order_id", order.ID), zap.Error(err))
	}
}
