package domain

import "time"

// OrderLineRequest is the caller's transient input: which product, how many.
type OrderLineRequest struct {
	ProductID string
	Quantity  int
}

// OrderLine captures the unit price at the time the order was placed.
// Later catalog price changes never affect an existing order.
type OrderLine struct {
	ID        string
	ProductID string
	UnitPrice float64
	Quantity  int
}

type Order struct {
	ID         string
	CustomerID string
	Lines      []OrderLine
	CreatedAt  time.Time
}

// StockDeltas returns the decrement batch this order requires, one delta
// per line.
func (o *Order) StockDeltas() []StockDelta {
	deltas := make([]StockDelta, len(o.Lines))
	for i, line := range o.Lines {
		deltas[i] = StockDelta{ProductID: line.ProductID, Quantity: line.Quantity}
	}
	return deltas
}
