package cache

import (
	"context"

	"dapurstok/backend/internal/domain"
)

// StockCache is a read-through cache for per-ingredient stock levels. A miss
// is (nil, false, nil); errors are reserved for backend failures so callers
// can degrade to the repository instead of failing the request.
type StockCache interface {
	Get(ctx context.Context, ingredientID string) (*domain.StockLevel, bool, error)
	Set(ctx context.Context, ingredientID string, level *domain.StockLevel) error
	Invalidate(ctx context.Context, ingredientID string) error
}

// NoopStockCache satisfies StockCache without caching anything. Used when no
// Redis address is configured.
type NoopStockCache struct{}

func (NoopStockCache) Get(ctx context.Context, ingredientID string) (*domain.StockLevel, bool, error) {
	return nil, false, nil
}

func (NoopStockCache) Set(ctx context.Context, ingredientID string, level *domain.StockLevel) error {
	return nil
}

func (NoopStockCache) Invalidate(ctx context.Context, ingredientID string) error {
	return nil
}
