package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"flashtans/internal/domain"
	"flashtans/internal/repository"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "shop.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestSQLite_ProductCRUD(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	require.NoError(t, s.Ping(ctx))
	assert.Equal(t, DriverSQLite, s.Driver())

	p := domain.Product{Name: "Buckets", Price: 29.99, Description: "S3", Stock: 50}
	require.NoError(t, s.Products().Create(ctx, &p))
	require.NotEmpty(t, p.ID)

	got, err := s.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Buckets", got.Name)
	assert.Equal(t, domain.DefaultProductImage, got.Image)
	assert.EqualValues(t, 50, got.Stock)

	require.NoError(t, s.Products().Delete(ctx, p.ID))
	assert.ErrorIs(t, s.Products().Delete(ctx, p.ID), repository.ErrNotFound)
	_, err = s.Products().GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSQLite_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	for _, n := range []string{"first", "second", "third"} {
		p := domain.Product{Name: n, Price: 1, Description: n, Stock: 1}
		require.NoError(t, s.Products().Create(ctx, &p))
	}
	list, err := s.Products().List(ctx, repository.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].Name)
	assert.Equal(t, "first", list[2].Name)

	list, err = s.Products().List(ctx, repository.ProductFilter{NameSubstring: "IR"})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestSQLite_DecrementStock(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	p := domain.Product{Name: "A", Price: 5, Description: "d", Stock: 2}
	require.NoError(t, s.Products().Create(ctx, &p))

	assert.ErrorIs(t, s.Products().DecrementStock(ctx, p.ID, 5), repository.ErrStockConflict)
	assert.ErrorIs(t, s.Products().DecrementStock(ctx, "nope", 1), repository.ErrNotFound)
	require.NoError(t, s.Products().DecrementStock(ctx, p.ID, 2))
	got, _ := s.Products().GetByID(ctx, p.ID)
	assert.EqualValues(t, 0, got.Stock)
}

func TestSQLite_UnitOfWork(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	p := domain.Product{Name: "A", Price: 5, Description: "d", Stock: 10}
	require.NoError(t, s.Products().Create(ctx, &p))

	placeOrder := func(uow repository.UnitOfWork) *domain.Order {
		require.NoError(t, uow.Products().DecrementStock(ctx, p.ID, 3))
		c := domain.Customer{Name: "Jane", Email: "jane@example.com", Address: "Main st"}
		require.NoError(t, uow.Customers().Create(ctx, &c))
		o := domain.Order{CustomerID: c.ID, Total: 15, Items: []domain.OrderLine{
			{ProductID: p.ID, ProductName: "A", Price: 5, Quantity: 3, Subtotal: 15},
		}}
		require.NoError(t, uow.Orders().Create(ctx, &o))
		return &o
	}

	uow, err := s.Begin(ctx)
	require.NoError(t, err)
	placeOrder(uow)
	require.NoError(t, uow.Rollback(ctx))

	got, _ := s.Products().GetByID(ctx, p.ID)
	assert.EqualValues(t, 10, got.Stock)
	orders, err := s.Orders().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
	customers, err := s.Customers().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, customers)

	uow, err = s.Begin(ctx)
	require.NoError(t, err)
	o := placeOrder(uow)
	require.NoError(t, uow.Commit(ctx))
	assert.ErrorIs(t, uow.Commit(ctx), repository.ErrTxDone)

	got, _ = s.Products().GetByID(ctx, p.ID)
	assert.EqualValues(t, 7, got.Stock)

	saved, err := s.Orders().GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, saved.Status)
	assert.Equal(t, "Jane", saved.CustomerName)
	assert.Equal(t, "jane@example.com", saved.CustomerEmail)
	require.Len(t, saved.Items, 1)
	assert.Equal(t, "A", saved.Items[0].ProductName)
	assert.InDelta(t, 15.0, saved.Items[0].Subtotal, 1e-9)
}

func TestSQLite_UpsertOrderReplacesLines(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	ts := time.Date(2024, 7, 1, 9, 30, 0, 0, time.UTC)
	c := domain.Customer{ID: "c1", Name: "Jane", Email: "jane@example.com", CreatedAt: ts}
	require.NoError(t, s.Customers().Upsert(ctx, &c))

	o := domain.Order{ID: "o1", CustomerID: "c1", Total: 3, Status: domain.OrderStatusPending, CreatedAt: ts, UpdatedAt: ts,
		Items: []domain.OrderLine{{ProductID: "1", ProductName: "a", Price: 1, Quantity: 1, Subtotal: 1}, {ProductID: "2", ProductName: "b", Price: 2, Quantity: 1, Subtotal: 2}}}
	require.NoError(t, s.Orders().Upsert(ctx, &o))
	o.Items = o.Items[1:]
	o.Total = 2
	require.NoError(t, s.Orders().Upsert(ctx, &o))

	got, err := s.Orders().GetByID(ctx, "o1")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "b", got.Items[0].ProductName)
	assert.True(t, got.CreatedAt.Equal(ts))
}

// legacySchema таблицы и данные файла flash_tans.db прежнего сервиса
var legacySchema = []string{
	`CREATE TABLE products (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    price REAL NOT NULL,
    description TEXT,
    image TEXT DEFAULT '/images/placeholder.jpg',
    stock INTEGER DEFAULT 0,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE TABLE customers (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    address TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE TABLE orders (
    id TEXT PRIMARY KEY,
    customer_id TEXT,
    total REAL NOT NULL,
    status TEXT DEFAULT 'pending',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (customer_id) REFERENCES customers(id)
)`,
	`CREATE TABLE order_items (
    id TEXT PRIMARY KEY,
    order_id TEXT,
    product_id TEXT,
    product_name TEXT,
    price REAL,
    quantity INTEGER,
    subtotal REAL,
    FOREIGN KEY (order_id) REFERENCES orders(id),
    FOREIGN KEY (product_id) REFERENCES products(id)
)`,
	`CREATE TRIGGER update_products_timestamp
AFTER UPDATE ON products
BEGIN
    UPDATE products SET updated_at = CURRENT_TIMESTAMP WHERE id = NEW.id;
END`,
	`INSERT INTO products (id, name, price, description, stock, created_at, updated_at)
VALUES ('1', 'Buckets', 29.99, NULL, 50, '2024-05-01 10:00:00', '2024-05-01 10:00:00')`,
	`INSERT INTO customers (id, name, email, created_at)
VALUES ('c1', 'Jane', 'jane@example.com', '2024-05-02 11:00:00')`,
	`INSERT INTO orders (id, customer_id, total, status, created_at)
VALUES ('o1', 'c1', 59.98, 'pending', '2024-05-02 11:00:00')`,
	`INSERT INTO order_items (id, order_id, product_id, product_name, price, quantity, subtotal)
VALUES ('i1', 'o1', '1', 'Buckets', 29.99, 2, 59.98)`,
}

func TestSQLite_OpensLegacyDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "flash_tans.db")

	legacy, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	for _, stmt := range legacySchema {
		require.NoError(t, legacy.Exec(stmt).Error, stmt)
	}
	sqlDB, err := legacy.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	p, err := s.Products().GetByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Buckets", p.Name)
	assert.Empty(t, p.Description)
	assert.Equal(t, domain.DefaultProductImage, p.Image)

	o, err := s.Orders().GetByID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, "Jane", o.CustomerName)
	assert.True(t, o.UpdatedAt.Equal(o.CreatedAt), "updated_at is backfilled from created_at")
	require.Len(t, o.Items, 1)
	assert.EqualValues(t, 2, o.Items[0].Quantity)

	uow, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, uow.Products().DecrementStock(ctx, "1", 3))
	fresh := domain.Order{CustomerID: "c1", Total: 89.97, Items: []domain.OrderLine{
		{ProductID: "1", ProductName: "Buckets", Price: 29.99, Quantity: 3, Subtotal: 89.97},
	}}
	require.NoError(t, uow.Orders().Create(ctx, &fresh))
	require.NoError(t, uow.Commit(ctx))

	orders, err := s.Orders().List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, fresh.ID, orders[0].ID)
	p, err = s.Products().GetByID(ctx, "1")
	require.NoError(t, err)
	assert.EqualValues(t, 47, p.Stock)

	// повторное открытие не меняет уже обновлённую схему
	require.NoError(t, s.Close(ctx))
	s, err = OpenSQLite(path)
	require.NoError(t, err)
	_, err = s.Orders().GetByID(ctx, fresh.ID)
	assert.NoError(t, err)
}

func TestSQLite_SameTimestampKeepsInsertOrder(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return ts }

	for _, n := range []string{"first", "second", "third"} {
		p := domain.Product{Name: n, Price: 1, Description: n, Stock: 1}
		require.NoError(t, s.Products().Create(ctx, &p))
	}
	c := domain.Customer{Name: "Jane", Email: "jane@example.com"}
	require.NoError(t, s.Customers().Create(ctx, &c))
	var ids []string
	for range 3 {
		o := domain.Order{CustomerID: c.ID, Total: 1}
		require.NoError(t, s.Orders().Create(ctx, &o))
		ids = append(ids, o.ID)
	}

	products, err := s.Products().List(ctx, repository.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, []string{"third", "second", "first"}, []string{products[0].Name, products[1].Name, products[2].Name})

	orders, err := s.Orders().List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{orders[0].ID, orders[1].ID, orders[2].ID})
}
