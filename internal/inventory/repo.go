package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skuflow/inventory-orders/internal/orders"
)

var (
	ErrNotFound          = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Repo struct{ DB *pgxpool.Pool }

const productColumns = `id, sku_code, name, price, quantity, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.SKUCode, &p.Name, &p.Price, &p.Quantity, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) GetBySKU(ctx context.Context, skuCode string) (*Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE sku_code=$1`, skuCode))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: sku=%s", ErrNotFound, skuCode)
	}
	return p, err
}

func (r *Repo) IsAvailable(ctx context.Context, skuCode string, quantity int) (bool, error) {
	var ok bool
	err := r.DB.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM products WHERE sku_code=$1 AND quantity >= $2)
	`, skuCode, quantity).Scan(&ok)
	return ok, err
}

func (r *Repo) GetQuantity(ctx context.Context, skuCode string) (int, error) {
	var q int
	err := r.DB.QueryRow(ctx, `SELECT quantity FROM products WHERE sku_code=$1`, skuCode).Scan(&q)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: sku=%s", ErrNotFound, skuCode)
	}
	return q, err
}

// Decrement is a single conditional update: availability check and mutation
// are one atomic step, so concurrent decrements of the same SKU cannot lose
// an update or drive quantity below zero.
func (r *Repo) Decrement(ctx context.Context, skuCode string, quantity int) (*Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx, `
		UPDATE products SET quantity = quantity - $2, updated_at = now()
		WHERE sku_code=$1 AND quantity >= $2
		RETURNING `+productColumns, skuCode, quantity))
	if errors.Is(err, pgx.ErrNoRows) {
		exists, eerr := r.existsBySKU(ctx, skuCode)
		if eerr != nil {
			return nil, eerr
		}
		if !exists {
			return nil, fmt.Errorf("%w: sku=%s", ErrNotFound, skuCode)
		}
		return nil, fmt.Errorf("%w: sku=%s", ErrInsufficientStock, skuCode)
	}
	return p, err
}

func (r *Repo) Increment(ctx context.Context, skuCode string, quantity int) (*Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx, `
		UPDATE products SET quantity = quantity + $2, updated_at = now()
		WHERE sku_code=$1
		RETURNING `+productColumns, skuCode, quantity))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: sku=%s", ErrNotFound, skuCode)
	}
	return p, err
}

func (r *Repo) ExistsAllBySKU(ctx context.Context, skuCodes []string) (bool, error) {
	if len(skuCodes) == 0 {
		return false, nil
	}
	distinct := make(map[string]struct{}, len(skuCodes))
	for _, s := range skuCodes {
		distinct[s] = struct{}{}
	}
	var n int
	err := r.DB.QueryRow(ctx, `
		SELECT COUNT(DISTINCT sku_code) FROM products WHERE sku_code = ANY($1)
	`, skuCodes).Scan(&n)
	if err != nil {
		return false, err
	}
	return n == len(distinct), nil
}

// DecrementAll applies every item's decrement in one transaction. Any
// shortfall rolls the whole batch back, so an order either reserves all of
// its stock or none of it.
func (r *Repo) DecrementAll(ctx context.Context, items []orders.OrderItemRequest) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, it := range items {
		ct, err := tx.Exec(ctx, `
			UPDATE products SET quantity = quantity - $2, updated_at = now()
			WHERE sku_code=$1 AND quantity >= $2
		`, it.SKUCode, it.Quantity)
		if err != nil {
			return err
		}
		if ct.RowsAffected() != 1 {
			return fmt.Errorf("%w: sku=%s", ErrInsufficientStock, it.SKUCode)
		}
	}
	return tx.Commit(ctx)
}

func (r *Repo) existsBySKU(ctx context.Context, skuCode string) (bool, error) {
	var ok bool
	err := r.DB.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM products WHERE sku_code=$1)`, skuCode).Scan(&ok)
	return ok, err
}
