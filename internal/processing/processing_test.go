package processing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/order-engine/internal/domain/catalog"
	"github.com/xenking/order-engine/internal/domain/order"
	"github.com/xenking/order-engine/internal/ledger"
	"github.com/xenking/order-engine/internal/metrics"
)

// --- Mock implementations ---

type publishedEvent struct {
	kind    string
	orderID string
	reason  order.FailureReason
	product string
}

type mockPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (m *mockPublisher) record(e publishedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

func (m *mockPublisher) OrderProcessed(_ context.Context, o *order.Order) error {
	m.record(publishedEvent{kind: "processed", orderID: o.ID})
	return nil
}

func (m *mockPublisher) OrderFailed(_ context.Context, o *order.Order, reason order.FailureReason, _ string) error {
	m.record(publishedEvent{kind: "failed", orderID: o.ID, reason: reason})
	return nil
}

func (m *mockPublisher) OrderPendingApproval(_ context.Context, o *order.Order) error {
	m.record(publishedEvent{kind: "pending_approval", orderID: o.ID})
	return nil
}

func (m *mockPublisher) LowStockAlert(_ context.Context, productID string, _ int) error {
	m.record(publishedEvent{kind: "low_stock", product: productID})
	return nil
}

func (m *mockPublisher) FraudAlert(_ context.Context, orderID string, _ decimal.Decimal) error {
	m.record(publishedEvent{kind: "fraud", orderID: orderID})
	return nil
}

func (m *mockPublisher) kinds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	for i, e := range m.events {
		out[i] = e.kind
	}
	return out
}

type mockOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*order.Order

	getErr    error
	updateErr error
	updates   int
}

func newMockOrderRepo(orders ...*order.Order) *mockOrderRepo {
	byID := make(map[string]*order.Order, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
	}
	return &mockOrderRepo{orders: byID}
}

func (m *mockOrderRepo) Create(_ context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o
	return nil
}

func (m *mockOrderRepo) Get(_ context.Context, id string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) Update(_ context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updates++
	m.orders[o.ID] = o
	return nil
}

func (m *mockOrderRepo) ListByCustomer(context.Context, string, int, int) ([]order.Order, error) {
	return nil, nil
}

func (m *mockOrderRepo) stored(id string) *order.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[id]
}

// --- Helpers ---

func nopMetrics() *metrics.Metrics { return metrics.Nop() }

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func testCatalog() *catalog.Memory {
	m := catalog.NewMemory()
	m.Put(catalog.ProductInfo{
		ProductID: "BOOK-1", Name: "Book", ProductType: order.TypePhysical,
		Price: decimal.RequireFromString("89.90"), Stock: intPtr(150), Active: true,
	})
	m.Put(catalog.ProductInfo{
		ProductID: "BOOK-LOW", Name: "Scarce Book", ProductType: order.TypePhysical,
		Price: decimal.RequireFromString("10.00"), Stock: intPtr(6), Active: true,
	})
	m.Put(catalog.ProductInfo{
		ProductID: "LAPTOP-1", Name: "Laptop", ProductType: order.TypePhysical,
		Price: decimal.RequireFromString("13000.00"), Stock: intPtr(40), Active: true,
	})
	m.Put(catalog.ProductInfo{
		ProductID: "SUB-BASIC-1", Name: "Basic Plan", ProductType: order.TypeSubscription,
		Price: decimal.RequireFromString("29.90"), Active: true,
	})
	m.Put(catalog.ProductInfo{
		ProductID: "SUB-ENTERPRISE-1", Name: "Enterprise Plan", ProductType: order.TypeSubscription,
		Price: decimal.RequireFromString("299.90"), Active: true,
	})
	m.Put(catalog.ProductInfo{
		ProductID: "EBOOK-1", Name: "Ebook", ProductType: order.TypeDigital,
		Price: decimal.RequireFromString("49.90"), Licenses: intPtr(100), Active: true,
	})
	m.Put(catalog.ProductInfo{
		ProductID: "GAME-1", Name: "Upcoming Game", ProductType: order.TypePreOrder,
		Price: decimal.RequireFromString("60.00"), ReleaseDate: timePtr(time.Now().Add(30 * 24 * time.Hour)),
		PreOrderSlots: intPtr(500), Active: true,
	})
	m.Put(catalog.ProductInfo{
		ProductID: "CHAIR-1", Name: "Office Chair", ProductType: order.TypeCorporate,
		Price: decimal.RequireFromString("899.00"), Active: true,
	})
	return m
}

type engine struct {
	catalog   *catalog.Memory
	stock     *ledger.Stock
	subs      *ledger.Subscriptions
	licenses  *ledger.Licenses
	preOrders *ledger.PreOrders
	credit    *ledger.Credit
	publisher *mockPublisher
	repo      *mockOrderRepo
	rules     *GlobalRules
	orch      *Orchestrator
}

type engineOption func(*engineConfig)

type engineConfig struct {
	creditLimit       decimal.Decimal
	approvalThreshold decimal.Decimal
	rules             GlobalRulesConfig
	random            func() float64
}

func withCreditLimit(limit string) engineOption {
	return func(c *engineConfig) { c.creditLimit = decimal.RequireFromString(limit) }
}

func withRandom(values ...float64) engineOption {
	return func(c *engineConfig) {
		i := 0
		c.random = func() float64 {
			v := values[i%len(values)]
			i++
			return v
		}
	}
}

func newEngine(t *testing.T, orders []*order.Order, opts ...engineOption) *engine {
	t.Helper()

	cfg := engineConfig{
		creditLimit:       decimal.NewFromInt(100_000),
		approvalThreshold: DefaultApprovalThreshold,
		rules:             DefaultGlobalRulesConfig(),
		// Both probabilistic draws miss unless a test overrides.
		random: func() float64 { return 1.0 },
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	cat := testCatalog()
	e := &engine{
		catalog:   cat,
		stock:     ledger.NewStock(),
		subs:      ledger.NewSubscriptions(0),
		licenses:  ledger.NewLicenses(cat),
		preOrders: ledger.NewPreOrders(cat),
		credit:    ledger.NewCredit(cfg.creditLimit),
		publisher: &mockPublisher{},
		repo:      newMockOrderRepo(orders...),
	}
	registry := NewRegistry(
		NewPhysicalProcessor(cat, e.stock, e.publisher, metrics.Nop()),
		NewSubscriptionProcessor(e.subs),
		NewDigitalProcessor(e.licenses),
		NewPreOrderProcessor(e.preOrders),
		NewCorporateProcessor(e.credit, cfg.approvalThreshold),
	)
	e.rules = NewGlobalRules(cfg.rules, e.publisher, cfg.random)
	e.orch = NewOrchestrator(e.repo, registry, e.rules, e.publisher, metrics.Nop(), nil)
	return e
}

func newPendingOrder(id, customerID string, items ...order.Item) *order.Order {
	o := &order.Order{
		ID:         id,
		CustomerID: customerID,
		Status:     order.StatusPending,
		CreatedAt:  time.Now(),
	}
	for _, item := range items {
		o.AddItem(item)
	}
	return o
}

func newItem(productID string, t order.ProductType, qty int, unitPrice string, meta order.Metadata) order.Item {
	price := decimal.RequireFromString(unitPrice)
	return order.Item{
		ID:          "item-" + productID,
		ProductID:   productID,
		ProductType: t,
		Quantity:    qty,
		UnitPrice:   price,
		TotalPrice:  price.Mul(decimal.NewFromInt(int64(qty))),
		Metadata:    meta,
	}
}

func requireBusinessError(t *testing.T, err error, code order.FailureReason) {
	t.Helper()
	var bizErr *order.BusinessError
	require.ErrorAs(t, err, &bizErr)
	assert.Equal(t, code, bizErr.Code)
}
