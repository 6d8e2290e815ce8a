package inventoryclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/skuflow/inventory-orders/internal/orders"
)

// Client talks to the inventory service over HTTP. It satisfies
// orders.InventoryClient.
type Client struct {
	http *resty.Client
}

func New(baseURL string) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(5 * time.Second).
		SetHeader("Accept", "application/json")
	return &Client{http: c}
}

type productResponse struct {
	SKUCode  string  `json:"skuCode"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type availabilityResponse struct {
	SKUCode   string `json:"skuCode"`
	Available bool   `json:"available"`
	Status    string `json:"status"`
}

func (c *Client) IsAvailable(ctx context.Context, skuCode string, quantity int) (bool, error) {
	var out availabilityResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("skuCode", skuCode).
		SetQueryParam("quantity", strconv.Itoa(quantity)).
		SetResult(&out).
		Get("/products")
	if err != nil {
		return false, err
	}
	if resp.IsError() {
		return false, statusError(resp, skuCode)
	}
	return out.Available, nil
}

func (c *Client) GetProduct(ctx context.Context, skuCode string) (orders.ProductDetail, error) {
	var out productResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/products/" + url.PathEscape(skuCode))
	if err != nil {
		return orders.ProductDetail{}, err
	}
	if resp.IsError() {
		return orders.ProductDetail{}, statusError(resp, skuCode)
	}
	return orders.ProductDetail{
		SKUCode:  out.SKUCode,
		Name:     out.Name,
		Price:    out.Price,
		Quantity: out.Quantity,
	}, nil
}

func (c *Client) DecrementStock(ctx context.Context, skuCode string, quantity int) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Put(fmt.Sprintf("/products/%s/%d/update", url.PathEscape(skuCode), quantity))
	if err != nil {
		return err
	}
	if resp.IsError() {
		return statusError(resp, skuCode)
	}
	return nil
}

func statusError(resp *resty.Response, skuCode string) error {
	switch resp.StatusCode() {
	case http.StatusNotFound:
		return fmt.Errorf("%w: sku=%s", orders.ErrSKUNotFound, skuCode)
	case http.StatusConflict:
		return fmt.Errorf("%w: sku=%s", orders.ErrItemUnavailable, skuCode)
	default:
		return fmt.Errorf("inventory service: sku=%s status=%d", skuCode, resp.StatusCode())
	}
}
