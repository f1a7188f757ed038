package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/order-engine/internal/domain/order"
)

func TestMemory_GetRequiredProduct(t *testing.T) {
	m := NewMemory()
	m.Put(ProductInfo{
		ProductID:   "p1",
		Name:        "Widget",
		ProductType: order.TypePhysical,
		Price:       decimal.RequireFromString("10.00"),
		Active:      true,
	})

	p, err := m.GetRequiredProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Widget", p.Name)
}

func TestMemory_UnknownProduct(t *testing.T) {
	m := NewMemory()

	_, err := m.GetRequiredProduct(context.Background(), "missing")
	var bizErr *order.BusinessError
	require.ErrorAs(t, err, &bizErr)
	assert.Equal(t, order.ReasonInvalidRequest, bizErr.Code)
}

func TestMemory_InactiveProductTreatedAsMissing(t *testing.T) {
	m := NewMemory()
	m.Put(ProductInfo{
		ProductID:   "p1",
		ProductType: order.TypePhysical,
		Price:       decimal.RequireFromString("10.00"),
		Active:      false,
	})

	_, err := m.GetRequiredProduct(context.Background(), "p1")
	require.Error(t, err)
}

func TestNewSeeded_CoversAllProductTypes(t *testing.T) {
	m := NewSeeded()

	cases := map[string]order.ProductType{
		"BOOK-CC-001":        order.TypePhysical,
		"SUB-ENTERPRISE-001": order.TypeSubscription,
		"EBOOK-JAVA-001":     order.TypeDigital,
		"GAME-2026-001":      order.TypePreOrder,
		"CORP-CHAIR-ERG-001": order.TypeCorporate,
	}
	for id, want := range cases {
		p, err := m.GetRequiredProduct(context.Background(), id)
		require.NoError(t, err, id)
		assert.Equal(t, want, p.ProductType, id)
	}
}

const catalogJSON = `[
	{"productId": "BOOK-1", "name": "Book", "productType": "PHYSICAL", "price": 89.90, "stock": 150},
	{"productId": "EBOOK-1", "name": "Ebook", "productType": "DIGITAL", "price": 39.90, "licenses": 1000},
	{"productId": "GAME-1", "name": "Game", "productType": "PRE_ORDER", "price": 249.90,
	 "releaseDate": "2027-03-01", "preOrderSlots": 500, "extra": {"ignored": true}},
	{"productId": "OLD-1", "name": "Retired", "productType": "PHYSICAL", "price": 5.00, "active": false,
	 "stock": null}
]`

func TestLoadFile_PlainJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(catalogJSON), 0o644))

	m := NewMemory()
	n, err := m.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	book, err := m.GetRequiredProduct(context.Background(), "BOOK-1")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("89.90").Equal(book.Price))
	require.NotNil(t, book.Stock)
	assert.Equal(t, 150, *book.Stock)

	game, err := m.GetRequiredProduct(context.Background(), "GAME-1")
	require.NoError(t, err)
	require.NotNil(t, game.ReleaseDate)
	assert.Equal(t, time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC), *game.ReleaseDate)
	require.NotNil(t, game.PreOrderSlots)
	assert.Equal(t, 500, *game.PreOrderSlots)

	// Inactive products load but do not resolve.
	_, err = m.GetRequiredProduct(context.Background(), "OLD-1")
	require.Error(t, err)
}

func TestLoadFile_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(catalogJSON))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	m := NewMemory()
	n, err := m.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 4, m.Len())
}

func TestLoadFile_MissingProductID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name": "anonymous", "price": 1}]`), 0o644))

	m := NewMemory()
	_, err := m.LoadFile(path)
	require.Error(t, err)
}

func TestLoadFile_NotFound(t *testing.T) {
	m := NewMemory()
	_, err := m.LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
