package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"flashtans/internal/domain"
)

var (
	// ErrNotFound возвращается, когда сущность не найдена
	ErrNotFound = errors.New("not found")
	// ErrStockConflict условное списание не прошло: остатка меньше, чем списываем
	ErrStockConflict = errors.New("stock conflict")
	// ErrTxDone операция над уже завершённой единицей работы
	ErrTxDone = errors.New("unit of work already finished")
)

// ProductFilter параметры фильтрации списка товаров
type ProductFilter struct {
	NameSubstring string
	MinPrice      *float64
	MaxPrice      *float64
}

// ProductRepository интерфейс репозитория товаров
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	// List возвращает товары, новые первыми
	List(ctx context.Context, f ProductFilter) ([]domain.Product, error)
	// DecrementStock списывает qty, только если stock >= qty, иначе ErrStockConflict
	DecrementStock(ctx context.Context, id string, qty int64) error
	Count(ctx context.Context) (int64, error)
	// Upsert сохраняет запись как есть, с её id и временными метками
	Upsert(ctx context.Context, p *domain.Product) error
}

// CustomerRepository интерфейс репозитория покупателей
type CustomerRepository interface {
	Create(ctx context.Context, c *domain.Customer) error
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	List(ctx context.Context) ([]domain.Customer, error)
	Upsert(ctx context.Context, c *domain.Customer) error
}

// OrderRepository интерфейс репозитория заказов. Чтение подставляет поля покупателя.
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	Upsert(ctx context.Context, o *domain.Order) error
}

// Repositories набор репозиториев одного хранилища или одной единицы работы
type Repositories interface {
	Products() ProductRepository
	Customers() CustomerRepository
	Orders() OrderRepository
}

// UnitOfWork атомарная граница: всё, что сделано через неё, фиксируется Commit или
// отбрасывается Rollback. Rollback после Commit ничего не делает.
type UnitOfWork interface {
	Repositories
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store хранилище с поддержкой транзакций
type Store interface {
	Repositories
	Begin(ctx context.Context) (UnitOfWork, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
	Driver() string
}

// NewID генерирует идентификатор записи
func NewID() string { return uuid.NewString() }

// PrepareProduct проставляет id, картинку по умолчанию и временные метки
func PrepareProduct(p *domain.Product, now time.Time) {
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.Image == "" {
		p.Image = domain.DefaultProductImage
	}
	p.CreatedAt = now
	p.UpdatedAt = now
}

// PrepareCustomer проставляет id и время создания
func PrepareCustomer(c *domain.Customer, now time.Time) {
	if c.ID == "" {
		c.ID = NewID()
	}
	c.CreatedAt = now
}

// PrepareOrder проставляет id, статус по умолчанию и временные метки
func PrepareOrder(o *domain.Order, now time.Time) {
	if o.ID == "" {
		o.ID = NewID()
	}
	if o.Status == "" {
		o.Status = domain.OrderStatusPending
	}
	o.CreatedAt = now
	o.UpdatedAt = now
}

// Match применяет фильтр к товару; хранилища без собственного языка запросов используют его напрямую
func (f ProductFilter) Match(p domain.Product) bool {
	if !containsIgnoreCase(p.Name, f.NameSubstring) {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	return true
}

// helper: case-insensitive contains
func containsIgnoreCase(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
