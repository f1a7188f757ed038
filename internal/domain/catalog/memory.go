package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/order-engine/internal/domain/order"
)

// Memory is an in-memory Catalog safe for concurrent use. Products are
// registered at startup (seed fixtures or a catalog file) and read-only
// afterwards from the processing path.
type Memory struct {
	mu       sync.RWMutex
	products map[string]ProductInfo
}

var _ Catalog = (*Memory)(nil)

// NewMemory returns an empty in-memory catalog.
func NewMemory() *Memory {
	return &Memory{products: make(map[string]ProductInfo)}
}

// Put registers or replaces a product.
func (m *Memory) Put(p ProductInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ProductID] = p
}

// Len returns the number of registered products.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.products)
}

// GetRequiredProduct implements Catalog.
func (m *Memory) GetRequiredProduct(_ context.Context, id string) (*ProductInfo, error) {
	m.mu.RLock()
	p, ok := m.products[id]
	m.mu.RUnlock()
	if !ok || !p.Active {
		return nil, NotFoundError(id)
	}
	return &p, nil
}

// NewSeeded returns a catalog pre-populated with the demo product fixtures
// covering all five product types.
func NewSeeded() *Memory {
	m := NewMemory()

	m.putPhysical("BOOK-CC-001", "Clean Code", "89.90", 150)
	m.putPhysical("LAPTOP-PRO-2024", "Laptop Pro", "5499.00", 8)
	m.putPhysical("LAPTOP-MBP-M3-001", "MacBook Pro M3", "12999.00", 25)

	m.putSubscription("SUB-PREMIUM-001", "Premium Monthly", "49.90")
	m.putSubscription("SUB-BASIC-001", "Basic Monthly", "19.90")
	m.putSubscription("SUB-BASIC-002", "Basic 2 Monthly", "299.00")
	m.putSubscription("SUB-BASIC-003", "Basic 3 Monthly", "159.00")
	m.putSubscription("SUB-BASIC-004", "Basic 4 Monthly", "159.00")
	m.putSubscription("SUB-BASIC-005", "Basic 5 Monthly", "159.00")
	m.putSubscription("SUB-ENTERPRISE-001", "Enterprise Plan", "299.00")
	m.putSubscription("SUB-ADOBE-CC-001", "Adobe Creative Cloud", "159.00")

	m.putDigital("EBOOK-JAVA-001", "Effective Java", "39.90", 1000)
	m.putDigital("EBOOK-DDD-001", "Domain-Driven Design", "59.90", 500)
	m.putDigital("EBOOK-SWIFT-001", "Swift Programming", "49.90", 800)
	m.putDigital("COURSE-KAFKA-001", "Kafka Mastery", "299.00", 500)

	m.putPreOrder("GAME-2026-001", "Epic Game 2026", "249.90", time.Now().AddDate(0, 3, 0), 1000)
	m.putPreOrder("PRE-PS6-001", "PlayStation 6", "4999.00", time.Date(2026, 11, 15, 0, 0, 0, 0, time.UTC), 500)
	m.putPreOrder("PRE-PHONE-001", "Phone 16 Pro", "7999.00", time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC), 2000)

	m.putCorporate("CORP-LICENSE-ENT", "Enterprise License", "15000.00", nil)
	stock := 500
	m.putCorporate("CORP-CHAIR-ERG-001", "Ergonomic Chair Bulk", "899.00", &stock)

	return m
}

func (m *Memory) putPhysical(id, name, price string, stock int) {
	m.Put(ProductInfo{
		ProductID: id, Name: name, ProductType: order.TypePhysical,
		Price: decimal.RequireFromString(price), Stock: &stock, Active: true,
	})
}

func (m *Memory) putSubscription(id, name, price string) {
	m.Put(ProductInfo{
		ProductID: id, Name: name, ProductType: order.TypeSubscription,
		Price: decimal.RequireFromString(price), Active: true,
	})
}

func (m *Memory) putDigital(id, name, price string, licenses int) {
	m.Put(ProductInfo{
		ProductID: id, Name: name, ProductType: order.TypeDigital,
		Price: decimal.RequireFromString(price), Licenses: &licenses, Active: true,
	})
}

func (m *Memory) putPreOrder(id, name, price string, release time.Time, slots int) {
	m.Put(ProductInfo{
		ProductID: id, Name: name, ProductType: order.TypePreOrder,
		Price: decimal.RequireFromString(price), ReleaseDate: &release, PreOrderSlots: &slots, Active: true,
	})
}

func (m *Memory) putCorporate(id, name, price string, stock *int) {
	m.Put(ProductInfo{
		ProductID: id, Name: name, ProductType: order.TypeCorporate,
		Price: decimal.RequireFromString(price), Stock: stock, Active: true,
	})
}
