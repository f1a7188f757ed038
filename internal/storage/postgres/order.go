package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/order-engine/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders
		(id, customer_id, items, total_amount, status, failure_reason, failure_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	selectOrderSQL = `SELECT id, customer_id, items, total_amount, status,
		failure_reason, failure_message, created_at, updated_at
		FROM orders WHERE id = $1`

	updateOrderSQL = `UPDATE orders SET items = $2, total_amount = $3, status = $4,
		failure_reason = $5, failure_message = $6, updated_at = $7
		WHERE id = $1`

	listByCustomerSQL = `SELECT id, customer_id, items, total_amount, status,
		failure_reason, failure_message, created_at, updated_at
		FROM orders WHERE customer_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Order
// items are serialized to a JSONB column; the aggregate has no separate
// item table because items never outlive their order.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// itemRecord is the JSONB representation of one order item.
type itemRecord struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"productId"`
	ProductType string          `json:"productType"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	Metadata    order.Metadata  `json:"metadata,omitempty"`
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	items, err := marshalItems(o.Items)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, insertOrderSQL,
		o.ID, o.CustomerID, items, o.TotalAmount, string(o.Status),
		nullable(string(o.FailureReason)), nullable(o.FailureMessage),
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// Get loads an order by id, or order.ErrNotFound.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, selectOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("loading order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("loading order %q: %w", id, err)
	}
	return &o, nil
}

// Update persists the mutable fields of an existing order.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	items, err := marshalItems(o.Items)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, updateOrderSQL,
		o.ID, items, o.TotalAmount, string(o.Status),
		nullable(string(o.FailureReason)), nullable(o.FailureMessage),
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("updating order %q: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// ListByCustomer returns the customer's orders, newest first.
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listByCustomerSQL, customerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing orders for customer %q: %w", customerID, err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders for customer %q: %w", customerID, err)
	}
	return orders, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o              order.Order
		itemsJSON      []byte
		status         string
		failureReason  *string
		failureMessage *string
		createdAt      time.Time
		updatedAt      time.Time
	)
	err := row.Scan(
		&o.ID, &o.CustomerID, &itemsJSON, &o.TotalAmount, &status,
		&failureReason, &failureMessage, &createdAt, &updatedAt,
	)
	if err != nil {
		return o, err
	}

	var records []itemRecord
	if err := json.Unmarshal(itemsJSON, &records); err != nil {
		return o, fmt.Errorf("unmarshaling order items: %w", err)
	}
	o.Items = make([]order.Item, len(records))
	for i, rec := range records {
		o.Items[i] = order.Item{
			ID:          rec.ID,
			ProductID:   rec.ProductID,
			ProductType: order.ProductType(rec.ProductType),
			Quantity:    rec.Quantity,
			UnitPrice:   rec.UnitPrice,
			TotalPrice:  rec.TotalPrice,
			Metadata:    rec.Metadata,
		}
	}

	o.Status = order.Status(status)
	if failureReason != nil {
		o.FailureReason = order.FailureReason(*failureReason)
	}
	if failureMessage != nil {
		o.FailureMessage = *failureMessage
	}
	o.CreatedAt = createdAt
	o.UpdatedAt = updatedAt
	return o, nil
}

func marshalItems(items []order.Item) ([]byte, error) {
	records := make([]itemRecord, len(items))
	for i, item := range items {
		records[i] = itemRecord{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductType: string(item.ProductType),
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
			Metadata:    item.Metadata,
		}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("marshaling order items: %w", err)
	}
	return data, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
