package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/ltnam/order-service/internal/core/domain"
	"github.com/ltnam/order-service/internal/core/service"
)

var (
	ordersPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders successfully placed.",
	})
	ordersRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_rejected_total",
		Help: "Order placements rejected, by reason.",
	}, []string{"reason"})
)

type HTTPHandler struct {
	orderService *service.OrderService
	log          zerolog.Logger
}

type orderItemPayload struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type placeOrderHTTPRequest struct {
	RequestID  string             `json:"request_id"`
	CustomerID string             `json:"customer_id"`
	Items      []orderItemPayload `json:"items"`
}

type orderLinePayload struct {
	ProductID string  `json:"product_id"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

type orderPayload struct {
	ID         string             `json:"id"`
	CustomerID string             `json:"customer_id"`
	Lines      []orderLinePayload `json:"lines"`
}

type errorHTTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func NewHTTPHandler(orderService *service.OrderService, log zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{orderService: orderService, log: log}
}

func (h *HTTPHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req placeOrderHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ordersRejected.WithLabelValues("bad_payload").Inc()
		writeJSON(w, http.StatusBadRequest, errorHTTPResponse{Message: "invalid request body"})
		return
	}

	if req.CustomerID == "" {
		ordersRejected.WithLabelValues("bad_payload").Inc()
		writeJSON(w, http.StatusBadRequest, errorHTTPResponse{Message: "missing customer_id"})
		return
	}

	lines := make([]domain.OrderLineRequest, len(req.Items))
	for i, item := range req.Items {
		lines[i] = domain.OrderLineRequest{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	order, err := h.orderService.PlaceOrder(r.Context(), service.PlaceOrderRequest{
		RequestID:  req.RequestID,
		CustomerID: req.CustomerID,
		Lines:      lines,
	})
	if err != nil {
		status, reason, message := classifyError(err)
		ordersRejected.WithLabelValues(reason).Inc()
		if status == http.StatusInternalServerError {
			h.log.Error().Err(err).Str("customer_id", req.CustomerID).Msg("order placement failed")
		}
		writeJSON(w, status, errorHTTPResponse{Message: message})
		return
	}

	ordersPlaced.Inc()
	writeJSON(w, http.StatusCreated, toOrderPayload(order))
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func classifyError(err error) (status int, reason, message string) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request", err.Error()
	case errors.Is(err, domain.ErrCustomerNotFound):
		return http.StatusNotFound, "customer_not_found", "customer not found"
	case errors.Is(err, domain.ErrUnknownProduct), errors.Is(err, domain.ErrProductNotFound):
		return http.StatusUnprocessableEntity, "unknown_product", err.Error()
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusGone, "insufficient_stock", err.Error()
	case errors.Is(err, domain.ErrDuplicateRequest):
		return http.StatusConflict, "duplicate_request", "duplicate request"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}

func toOrderPayload(order *domain.Order) orderPayload {
	payload := orderPayload{
		ID:         order.ID,
		CustomerID: order.CustomerID,
		Lines:      make([]orderLinePayload, len(order.Lines)),
	}
	for i, line := range order.Lines {
		payload.Lines[i] = orderLinePayload{
			ProductID: line.ProductID,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		}
	}
	return payload
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
