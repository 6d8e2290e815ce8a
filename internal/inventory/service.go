package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/skuflow/inventory-orders/internal/orders"
	"github.com/skuflow/inventory-orders/internal/rabbit"
)

type Store interface {
	GetBySKU(ctx context.Context, skuCode string) (*Product, error)
	IsAvailable(ctx context.Context, skuCode string, quantity int) (bool, error)
	GetQuantity(ctx context.Context, skuCode string) (int, error)
	Decrement(ctx context.Context, skuCode string, quantity int) (*Product, error)
	Increment(ctx context.Context, skuCode string, quantity int) (*Product, error)
	ExistsAllBySKU(ctx context.Context, skuCodes []string) (bool, error)
	DecrementAll(ctx context.Context, items []orders.OrderItemRequest) error
}

// AppliedMarker remembers orders whose stock decrements have already been
// applied, so broker redelivery cannot decrement twice.
type AppliedMarker interface {
	Applied(ctx context.Context, orderID int64) (bool, error)
	MarkApplied(ctx context.Context, orderID int64) error
}

type Service struct {
	Store   Store
	Applied AppliedMarker
	Log     *zap.Logger
}

func (s *Service) Product(ctx context.Context, skuCode string) (*Product, error) {
	return s.Store.GetBySKU(ctx, skuCode)
}

func (s *Service) Availability(ctx context.Context, skuCode string, quantity int) (Availability, error) {
	ok, err := s.Store.IsAvailable(ctx, skuCode, quantity)
	if err != nil {
		return Availability{}, err
	}
	status := AvailabilityOK
	if !ok {
		status = AvailabilityOutOfStock
	}
	return Availability{SKUCode: skuCode, Available: ok, Status: status}, nil
}

func (s *Service) Quantity(ctx context.Context, skuCode string) (int, error) {
	return s.Store.GetQuantity(ctx, skuCode)
}

func (s *Service) Decrement(ctx context.Context, skuCode string, quantity int) (*Product, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("invalid quantity %d for sku=%s", quantity, skuCode)
	}
	return s.Store.Decrement(ctx, skuCode, quantity)
}

// Restock is the compensating mutation for returns and replenishment.
func (s *Service) Restock(ctx context.Context, skuCode string, quantity int) (*Product, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("invalid quantity %d for sku=%s", quantity, skuCode)
	}
	return s.Store.Increment(ctx, skuCode, quantity)
}

func (s *Service) ExistsAll(ctx context.Context, skuCodes []string) (bool, error) {
	return s.Store.ExistsAllBySKU(ctx, skuCodes)
}

// HandleOrderPlaced is wired as the queue consumer handler.
func (s *Service) HandleOrderPlaced(ctx context.Context, d amqp.Delivery) error {
	var msg orders.OrderPlacedMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		return fmt.Errorf("%w: %v", rabbit.ErrBadMessage, err)
	}
	return s.ProcessOrder(ctx, msg)
}

// ProcessOrder applies an order's stock decrements at most once and
// all-or-nothing. An order with any unavailable item is dropped without
// mutating anything.
func (s *Service) ProcessOrder(ctx context.Context, msg orders.OrderPlacedMessage) error {
	if len(msg.OrderItems) == 0 {
		s.Log.Warn("order event with no items", zap.Int64("order_id", msg.OrderID))
		return nil
	}

	if s.Applied != nil {
		done, err := s.Applied.Applied(ctx, msg.OrderID)
		if err != nil {
			return fmt.Errorf("dedup check order %d: %w", msg.OrderID, err)
		}
		if done {
			s.Log.Info("order already applied", zap.Int64("order_id", msg.OrderID))
			return nil
		}
	}

	allAvailable := true
	for _, it := range msg.OrderItems {
		ok, err := s.Store.IsAvailable(ctx, it.SKUCode, it.Quantity)
		if err != nil {
			return fmt.Errorf("availability sku=%s: %w", it.SKUCode, err)
		}
		if !ok {
			allAvailable = false
			break
		}
	}
	if !allAvailable {
		s.Log.Warn("order dropped, item unavailable", zap.Int64("order_id", msg.OrderID))
		return nil
	}

	if err := s.Store.DecrementAll(ctx, msg.OrderItems); err != nil {
		if errors.Is(err, ErrInsufficientStock) {
			// Lost the race between check and apply; same outcome as an
			// unavailable item.
			s.Log.Warn("order dropped, stock raced away",
				zap.Int64("order_id", msg.OrderID), zap.Error(err))
			return nil
		}
		return fmt.Errorf("apply order %d: %w", msg.OrderID, err)
	}

	if s.Applied != nil {
		if err := s.Applied.MarkApplied(ctx, msg.OrderID); err != nil {
			s.Log.Error("mark applied failed", zap.Int64("order_id", msg.OrderID), zap.Error(err))
		}
	}

	s.Log.Info("stock applied",
		zap.Int64("order_id", msg.OrderID),
		zap.Int("items", len(msg.OrderItems)))
	return nil
}
