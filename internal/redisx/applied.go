package redisx

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// AppliedSet tracks order ids whose stock mutations have been applied.
type AppliedSet struct{ RDB *redis.Client }

func (a *AppliedSet) Applied(ctx context.Context, orderID int64) (bool, error) {
	return Exists(ctx, a.RDB, fmt.Sprintf(KeyStockApplied, orderID))
}

func (a *AppliedSet) MarkApplied(ctx context.Context, orderID int64) error {
	return a.RDB.Set(ctx, fmt.Sprintf(KeyStockApplied, orderID), "1", TTLStockApplied).Err()
}
