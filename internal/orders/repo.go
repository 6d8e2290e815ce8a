package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

var ErrNotFound = errors.New("order not found")

// CreateOrder persists the order and its items as one aggregate write.
// Items get their generated ids and back-links filled in.
func (r *Repo) CreateOrder(ctx context.Context, items []OrderItem, total float64) (*Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o := Order{Status: StatusCreated, TotalPrice: total}
	err = tx.QueryRow(ctx, `
		INSERT INTO orders(status, total_price)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`, string(o.Status), o.TotalPrice).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}

	for i := range items {
		items[i].OrderID = o.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO order_items(order_id, sku_code, quantity, price)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, o.ID, items[i].SKUCode, items[i].Quantity, items[i].Price).Scan(&items[i].ID)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (r *Repo) UpdateStatus(ctx context.Context, orderID int64, status Status) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET status=$2, updated_at=now() WHERE id=$1
	`, orderID, string(status))
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: id=%d", ErrNotFound, orderID)
	}
	return nil
}

func (r *Repo) GetOrder(ctx context.Context, orderID int64) (*Order, error) {
	var o Order
	err := r.DB.QueryRow(ctx, `
		SELECT id, status, total_price, created_at, updated_at
		FROM orders WHERE id=$1
	`, orderID).Scan(&o.ID, &o.Status, &o.TotalPrice, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: id=%d", ErrNotFound, orderID)
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, sku_code, quantity, price
		FROM order_items WHERE order_id=$1 ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.SKUCode, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &o, nil
}
