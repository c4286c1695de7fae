package port

import (
	"context"

	"github.com/ltnam/order-service/internal/core/domain"
)

type InventoryLedger interface {
	// FindProductsByIDs resolves the given ids in one batch. Only the
	// subset that exists is returned; missing ids are simply absent from
	// the map. Callers detect a shortfall by comparing sizes.
	FindProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)

	// DecrementStock subtracts each delta from its product's quantity.
	// The batch is all-or-nothing: if any product is missing or short,
	// no product in the batch is decremented and the call fails with
	// domain.ErrProductNotFound or domain.ErrInsufficientStock.
	DecrementStock(ctx context.Context, deltas []domain.StockDelta) error
}
