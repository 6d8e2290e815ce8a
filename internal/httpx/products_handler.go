package httpx

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/skuflow/inventory-orders/internal/inventory"
)

type ProductsHandler struct {
	Service *inventory.Service
	Log     *zap.Logger
}

func (h *ProductsHandler) Register(r *chi.Mux) {
	r.Get("/products", h.availability)
	r.Get("/products/exists", h.existsAll)
	r.Get("/products/{skuCode}", h.getProduct)
	r.Get("/products/{skuCode}/quantity", h.getQuantity)
	r.Put("/products/{skuCode}/{quantity}/update", h.decrement)
	r.Put("/products/{skuCode}/{quantity}/restock", h.restock)
}

func (h *ProductsHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeoutCtx(r)
	defer cancel()

	p, err := h.Service.Product(ctx, chi.URLParam(r, "skuCode"))
	if err != nil {
		writeProductErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) availability(w http.ResponseWriter, r *http.Request) {
	skuCode := r.URL.Query().Get("skuCode")
	quantity, err := strconv.Atoi(r.URL.Query().Get("quantity"))
	if skuCode == "" || err != nil || quantity <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "skuCode and positive quantity required"})
		return
	}

	ctx, cancel := timeoutCtx(r)
	defer cancel()

	a, aerr := h.Service.Availability(ctx, skuCode, quantity)
	if aerr != nil {
		writeProductErr(w, aerr)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *ProductsHandler) getQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeoutCtx(r)
	defer cancel()

	skuCode := chi.URLParam(r, "skuCode")
	q, err := h.Service.Quantity(ctx, skuCode)
	if err != nil {
		writeProductErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"skuCode": skuCode, "quantity": q})
}

func (h *ProductsHandler) existsAll(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("skuCodes")
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "skuCodes required"})
		return
	}
	var skuCodes []string
	for _, s := range strings.Split(raw, ",") {
		if t := strings.TrimSpace(s); t != "" {
			skuCodes = append(skuCodes, t)
		}
	}

	ctx, cancel := timeoutCtx(r)
	defer cancel()

	ok, err := h.Service.ExistsAll(ctx, skuCodes)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": ok})
}

func (h *ProductsHandler) decrement(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.Service.Decrement)
}

func (h *ProductsHandler) restock(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.Service.Restock)
}

func (h *ProductsHandler) mutate(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, skuCode string, quantity int) (*inventory.Product, error)) {

	skuCode := chi.URLParam(r, "skuCode")
	quantity, err := strconv.Atoi(chi.URLParam(r, "quantity"))
	if err != nil || quantity <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "positive quantity required"})
		return
	}

	ctx, cancel := timeoutCtx(r)
	defer cancel()

	p, err := op(ctx, skuCode, quantity)
	if err != nil {
		writeProductErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func writeProductErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, inventory.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, inventory.ErrInsufficientStock):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func timeoutCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), 3*time.Second)
}
