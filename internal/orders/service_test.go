package orders

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeInventory struct {
	products      map[string]ProductDetail
	decremented   []OrderItemRequest
	failDecrement bool
}

func (f *fakeInventory) IsAvailable(_ context.Context, skuCode string, quantity int) (bool, error) {
	p, ok := f.products[skuCode]
	return ok && p.Quantity >= quantity, nil
}

func (f *fakeInventory) GetProduct(_ context.Context, skuCode string) (ProductDetail, error) {
	p, ok := f.products[skuCode]
	if !ok {
		return ProductDetail{}, ErrSKUNotFound
	}
	return p, nil
}

func (f *fakeInventory) DecrementStock(_ context.Context, skuCode string, quantity int) error {
	if f.failDecrement {
		return errors.New("inventory unreachable")
	}
	p := f.products[skuCode]
	p.Quantity -= quantity
	f.products[skuCode] = p
	f.decremented = append(f.decremented, OrderItemRequest{SKUCode: skuCode, Quantity: quantity})
	return nil
}

type fakeStore struct {
	nextID int64
	byID   map[int64]*Order
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1, byID: map[int64]*Order{}}
}

func (f *fakeStore) CreateOrder(_ context.Context, items []OrderItem, total float64) (*Order, error) {
	o := Order{ID: f.nextID, Status: StatusCreated, TotalPrice: total, Items: items}
	f.nextID++
	stored := o
	f.byID[o.ID] = &stored
	return &o, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, orderID int64, status Status) error {
	o, ok := f.byID[orderID]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	return nil
}

func (f *fakeStore) GetOrder(_ context.Context, orderID int64) (*Order, error) {
	o, ok := f.byID[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	return o, nil
}

type fakePublisher struct {
	keys   []string
	bodies [][]byte
}

func (f *fakePublisher) Publish(key string, body []byte) {
	f.keys = append(f.keys, key)
	f.bodies = append(f.bodies, body)
}

func newService(inv *fakeInventory, store *fakeStore) *Service {
	return &Service{Store: store, Inventory: inv, Log: zap.NewNop()}
}

func TestPlaceOrderConfirmsAndDecrements(t *testing.T) {
	inv := &fakeInventory{products: map[string]ProductDetail{
		"A1": {SKUCode: "A1", Name: "widget", Price: 5.0, Quantity: 10},
	}}
	store := newFakeStore()
	svc := newService(inv, store)

	order, err := svc.PlaceOrder(context.Background(), OrderRequest{
		OrderItems: []OrderItemRequest{{SKUCode: "A1", Quantity: 3}},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusConfirmed, order.Status)
	assert.Equal(t, 15.0, order.TotalPrice)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 5.0, order.Items[0].Price)
	assert.Equal(t, 7, inv.products["A1"].Quantity)

	persisted, err := store.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, persisted.Status)
}

func TestPlaceOrderTotalAcrossItems(t *testing.T) {
	inv := &fakeInventory{products: map[string]ProductDetail{
		"A1": {SKUCode: "A1", Price: 5.0, Quantity: 10},
		"B2": {SKUCode: "B2", Price: 2.5, Quantity: 4},
	}}
	svc := newService(inv, newFakeStore())

	order, err := svc.PlaceOrder(context.Background(), OrderRequest{
		OrderItems: []OrderItemRequest{
			{SKUCode: "A1", Quantity: 2},
			{SKUCode: "B2", Quantity: 4},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 20.0, order.TotalPrice)
	assert.Len(t, inv.decremented, 2)
}

func TestPlaceOrderRejectsUnavailableItem(t *testing.T) {
	inv := &fakeInventory{products: map[string]ProductDetail{
		"A1": {SKUCode: "A1", Price: 5.0, Quantity: 2},
	}}
	store := newFakeStore()
	svc := newService(inv, store)

	_, err := svc.PlaceOrder(context.Background(), OrderRequest{
		OrderItems: []OrderItemRequest{{SKUCode: "A1", Quantity: 3}},
	})
	require.ErrorIs(t, err, ErrItemUnavailable)

	// Nothing persisted, nothing decremented.
	assert.Empty(t, store.byID)
	assert.Empty(t, inv.decremented)
}

func TestPlaceOrderRejectsUnknownSKU(t *testing.T) {
	svc := newService(&fakeInventory{products: map[string]ProductDetail{}}, newFakeStore())

	_, err := svc.PlaceOrder(context.Background(), OrderRequest{
		OrderItems: []OrderItemRequest{{SKUCode: "NOPE", Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrItemUnavailable)
}

func TestPlaceOrderValidatesRequest(t *testing.T) {
	inv := &fakeInventory{products: map[string]ProductDetail{
		"A1": {SKUCode: "A1", Price: 5.0, Quantity: 10},
	}}
	svc := newService(inv, newFakeStore())

	_, err := svc.PlaceOrder(context.Background(), OrderRequest{})
	assert.ErrorIs(t, err, ErrEmptyOrder)

	_, err = svc.PlaceOrder(context.Background(), OrderRequest{
		OrderItems: []OrderItemRequest{{SKUCode: "A1", Quantity: 0}},
	})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestPlaceOrderDecrementFailureLeavesOrderCreated(t *testing.T) {
	inv := &fakeInventory{
		products: map[string]ProductDetail{
			"A1": {SKUCode: "A1", Price: 5.0, Quantity: 10},
		},
		failDecrement: true,
	}
	store := newFakeStore()
	svc := newService(inv, store)

	_, err := svc.PlaceOrder(context.Background(), OrderRequest{
		OrderItems: []OrderItemRequest{{SKUCode: "A1", Quantity: 3}},
	})
	require.Error(t, err)

	persisted, gerr := store.GetOrder(context.Background(), 1)
	require.NoError(t, gerr)
	assert.Equal(t, StatusCreated, persisted.Status)
}

func TestPlaceOrderEventModePublishesInsteadOfDecrementing(t *testing.T) {
	inv := &fakeInventory{products: map[string]ProductDetail{
		"A1": {SKUCode: "A1", Price: 5.0, Quantity: 10},
	}}
	store := newFakeStore()
	pub := &fakePublisher{}
	svc := newService(inv, store)
	svc.Publisher = pub

	order, err := svc.PlaceOrder(context.Background(), OrderRequest{
		OrderItems: []OrderItemRequest{{SKUCode: "A1", Quantity: 3}},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusCreated, order.Status)
	assert.Empty(t, inv.decremented)
	require.Len(t, pub.keys, 1)
	assert.Equal(t, RoutingKey(order.ID), pub.keys[0])

	var msg OrderPlacedMessage
	require.NoError(t, json.Unmarshal(pub.bodies[0], &msg))
	assert.Equal(t, order.ID, msg.OrderID)
	require.Len(t, msg.OrderItems, 1)
	assert.Equal(t, "A1", msg.OrderItems[0].SKUCode)
	assert.Equal(t, 3, msg.OrderItems[0].Quantity)
}
