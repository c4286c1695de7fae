package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ltnam/order-service/internal/core/domain"
	"github.com/ltnam/order-service/internal/port"
)

const idempotencyKeyPrefix = "order:"

type PlaceOrderRequest struct {
	RequestID  string
	CustomerID string
	Lines      []domain.OrderLineRequest
}

type OrderService struct {
	customers port.CustomerDirectory
	ledger    port.InventoryLedger
	orders    port.OrderRepository
	cache     port.CacheRepository // optional; nil disables the idempotency check
}

func NewOrderService(
	customers port.CustomerDirectory,
	ledger port.InventoryLedger,
	orders port.OrderRepository,
	cache port.CacheRepository,
) *OrderService {
	return &OrderService{
		customers: customers,
		ledger:    ledger,
		orders:    orders,
		cache:     cache,
	}
}

// PlaceOrder resolves the customer and the requested products, validates
// demand against the current stock snapshot, and commits the order together
// with the inventory decrement as one unit of work. On any failure nothing
// is persisted and no stock moves.
func (s *OrderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*domain.Order, error) {
	if err := validateLines(req.Lines); err != nil {
		return nil, err
	}

	key, err := s.claimRequest(ctx, req.RequestID)
	if err != nil {
		return nil, err
	}

	order, err := s.place(ctx, req)
	if err != nil {
		s.releaseRequest(ctx, key)
		return nil, err
	}

	return order, nil
}

func (s *OrderService) place(ctx context.Context, req PlaceOrderRequest) (*domain.Order, error) {
	customer, err := s.customers.FindCustomerByID(ctx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("customer lookup failed: %w", err)
	}
	if customer == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrCustomerNotFound, req.CustomerID)
	}

	demand := mergeLines(req.Lines)
	ids := make([]string, len(demand))
	for i, d := range demand {
		ids[i] = d.ProductID
	}

	products, err := s.ledger.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("product lookup failed: %w", err)
	}

	if len(products) != len(ids) {
		var missing []string
		for _, id := range ids {
			if _, ok := products[id]; !ok {
				missing = append(missing, id)
			}
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownProduct, strings.Join(missing, ", "))
	}

	// Fast precheck against the snapshot. The guarded decrement inside
	// CreateOrder is the authoritative check; this one fails early with a
	// precise message before a transaction is opened.
	for _, d := range demand {
		if p := products[d.ProductID]; d.Quantity > p.Quantity {
			return nil, fmt.Errorf("%w: product %s", domain.ErrInsufficientStock, d.ProductID)
		}
	}

	order := domain.Order{
		ID:         uuid.New().String(),
		CustomerID: customer.ID,
		CreatedAt:  time.Now(),
	}
	for _, d := range demand {
		order.Lines = append(order.Lines, domain.OrderLine{
			ID:        uuid.New().String(),
			ProductID: d.ProductID,
			UnitPrice: products[d.ProductID].Price,
			Quantity:  d.Quantity,
		})
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("order commit failed: %w", err)
	}

	return &order, nil
}

func (s *OrderService) claimRequest(ctx context.Context, requestID string) (string, error) {
	if s.cache == nil || requestID == "" {
		return "", nil
	}

	key := idempotencyKeyPrefix + requestID
	ok, err := s.cache.SetIdempotency(ctx, key)
	if err != nil {
		return "", fmt.Errorf("idempotency check failed: %w", err)
	}
	if !ok {
		return "", domain.ErrDuplicateRequest
	}
	return key, nil
}

func (s *OrderService) releaseRequest(ctx context.Context, key string) {
	if key == "" {
		return
	}
	// The key carries a TTL, so a failed release only delays a retry.
	_ = s.cache.ReleaseIdempotency(ctx, key)
}

func validateLines(lines []domain.OrderLineRequest) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: no lines", domain.ErrInvalidRequest)
	}
	for _, l := range lines {
		if l.ProductID == "" {
			return fmt.Errorf("%w: empty product id", domain.ErrInvalidRequest)
		}
		if l.Quantity <= 0 {
			return fmt.Errorf("%w: quantity %d for product %s", domain.ErrInvalidRequest, l.Quantity, l.ProductID)
		}
	}
	return nil
}

// mergeLines combines repeated product ids so the precheck and the
// decrement both see the order's total demand per product. First-seen
// order is preserved.
func mergeLines(lines []domain.OrderLineRequest) []domain.OrderLineRequest {
	index := make(map[string]int, len(lines))
	merged := make([]domain.OrderLineRequest, 0, len(lines))
	for _, l := range lines {
		if i, ok := index[l.ProductID]; ok {
			merged[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(merged)
		merged = append(merged, l)
	}
	return merged
}
