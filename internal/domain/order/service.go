package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Sentinel errors for order creation.
var ErrEmptyItems = errors.New("order must contain at least one item")

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// EventPublisher announces a newly created order to the processing pipeline.
type EventPublisher interface {
	OrderCreated(ctx context.Context, o *Order) error
}

// CreateItemRequest is one requested line item.
type CreateItemRequest struct {
	ProductID string
	Quantity  int
	Metadata  Metadata
}

// CreateRequest holds the input for creating an order.
type CreateRequest struct {
	CustomerID string
	Items      []CreateItemRequest
}

// Service handles order creation and retrieval. Processing happens
// asynchronously: Create persists a PENDING order and publishes an
// order-created event that the orchestrator consumes.
type Service struct {
	catalog   Catalog
	orders    Repository
	publisher EventPublisher
	now       func() time.Time
}

// NewService creates an order Service with the required dependencies.
func NewService(c Catalog, orders Repository, publisher EventPublisher) *Service {
	return &Service{catalog: c, orders: orders, publisher: publisher, now: time.Now}
}

// Create validates the request, prices every item from the catalog, persists
// the PENDING order, and publishes the order-created event.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	now := s.now()
	o := &Order{
		ID:          uuid.NewString(),
		CustomerID:  req.CustomerID,
		TotalAmount: decimal.Zero,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for _, itemReq := range req.Items {
		if itemReq.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: itemReq.ProductID}
		}
		info, err := s.catalog.GetRequiredProduct(ctx, itemReq.ProductID)
		if err != nil {
			return nil, err
		}

		o.AddItem(Item{
			ID:          uuid.NewString(),
			ProductID:   info.ProductID,
			ProductType: info.ProductType,
			Quantity:    itemReq.Quantity,
			UnitPrice:   info.Price,
			TotalPrice:  info.Price.Mul(decimal.NewFromInt(int64(itemReq.Quantity))),
			Metadata:    itemReq.Metadata,
		})
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	if err := s.publisher.OrderCreated(ctx, o); err != nil {
		// The order is persisted; a lost notification is recovered by
		// re-publishing, not by failing the request.
		zctx.From(ctx).Error("Publish order created event",
			zap.String("order_id", o.ID), zap.Error(err))
	}

	return o, nil
}

// Get returns the order with the given id, or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.orders.Get(ctx, id)
}

// ListByCustomer returns the customer's orders ordered by creation time
// descending. Limit defaults to 20 and is capped at 100.
func (s *Service) ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]Order, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.orders.ListByCustomer(ctx, customerID, limit, offset)
}
