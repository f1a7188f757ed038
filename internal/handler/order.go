package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/xenking/order-engine/internal/domain/order"
)

type createOrderItemRequest struct {
	ProductID string         `json:"productId"`
	Quantity  int            `json:"quantity"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type createOrderRequest struct {
	CustomerID string                   `json:"customerId"`
	Items      []createOrderItemRequest `json:"items"`
}

type createOrderResponse struct {
	OrderID     string          `json:"orderId"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type orderItemResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"productId"`
	ProductType string          `json:"productType"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
}

type orderDetailResponse struct {
	OrderID        string              `json:"orderId"`
	CustomerID     string              `json:"customerId"`
	Items          []orderItemResponse `json:"items"`
	TotalAmount    decimal.Decimal     `json:"totalAmount"`
	Status         string              `json:"status"`
	FailureReason  string              `json:"failureReason,omitempty"`
	FailureMessage string              `json:"failureMessage,omitempty"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

type orderSummaryResponse struct {
	OrderID     string          `json:"orderId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "INVALID_BODY", Message: "malformed request body"})
		return
	}
	if req.CustomerID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "INVALID_REQUEST", Message: "customerId is required"})
		return
	}

	items := make([]order.CreateItemRequest, len(req.Items))
	for i, it := range req.Items {
		items[i] = order.CreateItemRequest{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Metadata:  it.Metadata,
		}
	}

	o, err := h.orders.Create(r.Context(), order.CreateRequest{
		CustomerID: req.CustomerID,
		Items:      items,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, createOrderResponse{
		OrderID:     o.ID,
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount,
		CreatedAt:   o.CreatedAt,
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	items := make([]orderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = orderItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductType: string(item.ProductType),
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
			Metadata:    item.Metadata,
		}
	}

	writeJSON(w, http.StatusOK, orderDetailResponse{
		OrderID:        o.ID,
		CustomerID:     o.CustomerID,
		Items:          items,
		TotalAmount:    o.TotalAmount,
		Status:         string(o.Status),
		FailureReason:  string(o.FailureReason),
		FailureMessage: o.FailureMessage,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	customerID := r.URL.Query().Get("customerId")
	if customerID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "INVALID_REQUEST", Message: "customerId query parameter is required"})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	orders, err := h.orders.ListByCustomer(r.Context(), customerID, limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}

	summaries := make([]orderSummaryResponse, len(orders))
	for i, o := range orders {
		summaries[i] = orderSummaryResponse{
			OrderID:     o.ID,
			TotalAmount: o.TotalAmount,
			Status:      string(o.Status),
			CreatedAt:   o.CreatedAt,
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"orders": summaries})
}
