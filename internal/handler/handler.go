// Package handler exposes the order API over HTTP. It is a thin mapping
// layer: business rules live in the domain services.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/xenking/order-engine/internal/domain/order"
)

// Handler serves the order endpoints.
type Handler struct {
	orders *order.Service
}

// New constructs a Handler over the order service.
func New(orders *order.Service) *Handler {
	return &Handler{orders: orders}
}

// Register mounts the order routes on the router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/orders", h.createOrder).Methods(http.MethodPost)
	r.HandleFunc("/orders", h.listOrders).Methods(http.MethodGet)
	r.HandleFunc("/orders/{id}", h.getOrder).Methods(http.MethodGet)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP status codes and a JSON error
// payload.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		be    *order.BusinessError
		iqErr *order.InvalidQuantityError
	)
	switch {
	case errors.Is(err, order.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Code: "ORDER_NOT_FOUND", Message: "order not found"})
	case errors.Is(err, order.ErrEmptyItems):
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "EMPTY_ITEMS", Message: err.Error()})
	case errors.As(err, &iqErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "INVALID_QUANTITY", Message: err.Error()})
	case errors.As(err, &be):
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: string(be.Code), Message: be.Message})
	default:
		zctx.From(r.Context()).Error("Internal error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Code: "INTERNAL", Message: "internal server error"})
	}
}
