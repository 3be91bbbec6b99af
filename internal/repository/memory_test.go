package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flashtans/internal/domain"
)

func TestMemoryStore_ProductCRUD(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	p := domain.Product{Name: "A", Price: 10, Description: "d", Stock: 5}
	require.NoError(t, store.Products().Create(ctx, &p))
	require.NotEmpty(t, p.ID)
	assert.Equal(t, domain.DefaultProductImage, p.Image)
	assert.False(t, p.CreatedAt.IsZero())

	got, err := store.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	n, err := store.Products().Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, store.Products().Delete(ctx, p.ID))
	_, err = store.Products().GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Products().Delete(ctx, p.ID), ErrNotFound)
}

func TestMemoryStore_DecrementStockGuard(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	p := domain.Product{Name: "A", Price: 10, Description: "d", Stock: 2}
	require.NoError(t, store.Products().Create(ctx, &p))

	assert.ErrorIs(t, store.Products().DecrementStock(ctx, p.ID, 3), ErrStockConflict)
	require.NoError(t, store.Products().DecrementStock(ctx, p.ID, 2))
	got, _ := store.Products().GetByID(ctx, p.ID)
	assert.EqualValues(t, 0, got.Stock)
	assert.ErrorIs(t, store.Products().DecrementStock(ctx, "missing", 1), ErrNotFound)
}

func TestMemoryTx_CommitAndRollback(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	// seed product
	p := domain.Product{Name: "A", Price: 10, Description: "d", Stock: 5}
	require.NoError(t, store.Products().Create(ctx, &p))

	uow, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, uow.Products().DecrementStock(ctx, p.ID, 3))
	c := domain.Customer{Name: "John", Email: "john@example.com"}
	require.NoError(t, uow.Customers().Create(ctx, &c))
	o := domain.Order{CustomerID: c.ID, Total: 30, Items: []domain.OrderLine{{ProductID: p.ID, Quantity: 3}}}
	require.NoError(t, uow.Orders().Create(ctx, &o))
	require.NoError(t, uow.Rollback(ctx))

	got, _ := store.Products().GetByID(ctx, p.ID)
	assert.EqualValues(t, 5, got.Stock, "rollback must discard the decrement")
	orders, _ := store.Orders().List(ctx)
	assert.Empty(t, orders)

	uow, err = store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, uow.Products().DecrementStock(ctx, p.ID, 3))
	require.NoError(t, uow.Customers().Create(ctx, &c))
	o = domain.Order{CustomerID: c.ID, Total: 30, Items: []domain.OrderLine{{ProductID: p.ID, Quantity: 3}}}
	require.NoError(t, uow.Orders().Create(ctx, &o))
	require.NoError(t, uow.Commit(ctx))
	assert.ErrorIs(t, uow.Commit(ctx), ErrTxDone)
	assert.NoError(t, uow.Rollback(ctx))

	// check stock after
	got, _ = store.Products().GetByID(ctx, p.ID)
	assert.EqualValues(t, 2, got.Stock)

	saved, err := store.Orders().GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, saved.Status)
	assert.Equal(t, "John", saved.CustomerName)
	assert.Equal(t, "john@example.com", saved.CustomerEmail)
}

func TestMemoryOrders_UnknownCustomer(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	o := domain.Order{CustomerID: "gone", Total: 1}
	require.NoError(t, store.Orders().Create(ctx, &o))
	got, err := store.Orders().GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UnknownCustomer, got.CustomerName)
}

func TestList_NewestFirstAndFiltering(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	add := func(n string, price float64) {
		p := domain.Product{Name: n, Price: price, Description: n, Stock: 1}
		require.NoError(t, store.Products().Create(ctx, &p))
	}
	add("Aspirin", 100)
	add("Paracetamol", 50)
	add("Ibuprofen", 150)

	list, err := store.Products().List(ctx, ProductFilter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Ibuprofen", list[0].Name)
	assert.Equal(t, "Aspirin", list[2].Name)

	// name contains
	list, _ = store.Products().List(ctx, ProductFilter{NameSubstring: "A"})
	require.Len(t, list, 2)
	assert.Equal(t, "Paracetamol", list[0].Name)
	assert.Equal(t, "Aspirin", list[1].Name)

	list, _ = store.Products().List(ctx, ProductFilter{NameSubstring: "IN"})
	require.Len(t, list, 1)
	assert.Equal(t, "Aspirin", list[0].Name)

	// min
	min := 100.0
	list, _ = store.Products().List(ctx, ProductFilter{MinPrice: &min})
	for _, p := range list {
		assert.GreaterOrEqual(t, p.Price, min)
	}

	// max
	max := 100.0
	list, _ = store.Products().List(ctx, ProductFilter{MaxPrice: &max})
	for _, p := range list {
		assert.LessOrEqual(t, p.Price, max)
	}
}

func TestUpsert_KeepsIDsAndTimestamps(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	p := domain.Product{ID: "1", Name: "Buckets", Price: 29.99, Stock: 50, CreatedAt: created, UpdatedAt: created}
	require.NoError(t, store.Products().Upsert(ctx, &p))
	p.Stock = 49
	require.NoError(t, store.Products().Upsert(ctx, &p))

	got, err := store.Products().GetByID(ctx, "1")
	require.NoError(t, err)
	assert.EqualValues(t, 49, got.Stock)
	assert.True(t, got.CreatedAt.Equal(created))
	n, _ := store.Products().Count(ctx)
	assert.EqualValues(t, 1, n)
}
