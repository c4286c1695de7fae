package domain

import "time"

type Product struct {
	ID        string
	Name      string
	Price     float64
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StockDelta is a single decrement instruction against a product's stock.
type StockDelta struct {
	ProductID string
	Quantity  int
}
