package port

import (
	"context"

	"github.com/ltnam/order-service/internal/core/domain"
)

type CustomerDirectory interface {
	// FindCustomerByID resolves a customer by id, returning (nil, nil)
	// when no such customer exists.
	FindCustomerByID(ctx context.Context, id string) (*domain.Customer, error)
}
