package orders

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	ErrEmptyOrder      = errors.New("order has no items")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrItemUnavailable = errors.New("insufficient stock")
	ErrSKUNotFound     = errors.New("unknown sku")
)

// InventoryClient is the order side's view of the inventory service.
type InventoryClient interface {
	IsAvailable(ctx context.Context, skuCode string, quantity int) (bool, error)
	GetProduct(ctx context.Context, skuCode string) (ProductDetail, error)
	DecrementStock(ctx context.Context, skuCode string, quantity int) error
}

type Store interface {
	CreateOrder(ctx context.Context, items []OrderItem, total float64) (*Order, error)
	UpdateStatus(ctx context.Context, orderID int64, status Status) error
	GetOrder(ctx context.Context, orderID int64) (*Order, error)
}

type Publisher interface {
	Publish(routingKey string, body []byte)
}

type Service struct {
	Store     Store
	Inventory InventoryClient
	Publisher Publisher // nil keeps the synchronous path authoritative
	Log       *zap.Logger
}

// PlaceOrder validates availability per item, snapshots prices, persists the
// aggregate in CREATED and then applies stock. With a Publisher configured
// stock is applied asynchronously by the inventory consumer and the order is
// returned still CREATED; otherwise each item is decremented over HTTP and
// the order moves to CONFIRMED.
func (s *Service) PlaceOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if len(req.OrderItems) == 0 {
		return nil, ErrEmptyOrder
	}

	items := make([]OrderItem, 0, len(req.OrderItems))
	var total float64
	for _, it := range req.OrderItems {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: sku=%s", ErrInvalidQuantity, it.SKUCode)
		}
		ok, err := s.Inventory.IsAvailable(ctx, it.SKUCode, it.Quantity)
		if err != nil {
			return nil, fmt.Errorf("availability check sku=%s: %w", it.SKUCode, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: sku=%s", ErrItemUnavailable, it.SKUCode)
		}
		p, err := s.Inventory.GetProduct(ctx, it.SKUCode)
		if err != nil {
			return nil, fmt.Errorf("product lookup sku=%s: %w", it.SKUCode, err)
		}
		// Price is snapshotted here and never re-read.
		items = append(items, OrderItem{SKUCode: it.SKUCode, Quantity: it.Quantity, Price: p.Price})
		total += p.Price * float64(it.Quantity)
	}

	order, err := s.Store.CreateOrder(ctx, items, total)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if s.Publisher != nil {
		body := mustMarshal(OrderPlacedMessage{OrderID: order.ID, OrderItems: req.OrderItems})
		s.Publisher.Publish(RoutingKey(order.ID), body)
		s.Log.Info("order placed, event published",
			zap.Int64("order_id", order.ID),
			zap.Float64("total", order.TotalPrice))
		return order, nil
	}

	for _, it := range req.OrderItems {
		if err := s.Inventory.DecrementStock(ctx, it.SKUCode, it.Quantity); err != nil {
			// The order stays CREATED; there is no compensating action on
			// this path, the caller sees the failure.
			s.Log.Error("stock decrement failed",
				zap.Int64("order_id", order.ID),
				zap.String("sku", it.SKUCode),
				zap.Error(err))
			return nil, fmt.Errorf("decrement sku=%s for order %d: %w", it.SKUCode, order.ID, err)
		}
	}

	if !CanTransition(order.Status, StatusConfirmed) {
		return nil, fmt.Errorf("illegal transition %s -> %s for order %d", order.Status, StatusConfirmed, order.ID)
	}
	if err := s.Store.UpdateStatus(ctx, order.ID, StatusConfirmed); err != nil {
		return nil, fmt.Errorf("confirm order %d: %w", order.ID, err)
	}
	order.Status = StatusConfirmed

	s.Log.Info("order confirmed",
		zap.Int64("order_id", order.ID),
		zap.Float64("total", order.TotalPrice))
	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID int64) (*Order, error) {
	return s.Store.GetOrder(ctx, orderID)
}
