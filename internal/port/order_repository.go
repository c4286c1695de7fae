package port

import (
	"context"

	"github.com/ltnam/order-service/internal/core/domain"
)

type OrderRepository interface {
	// CreateOrder persists the order with all its lines and applies the
	// matching stock decrement in a single transaction. Either the order
	// and the decrement both commit or neither does; a commit-time stock
	// shortfall fails with domain.ErrInsufficientStock.
	CreateOrder(ctx context.Context, order domain.Order) error
}
