package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"flashtans/internal/domain"
	"flashtans/internal/repository"
)

// OrderService оформление заказа и чтение заказов
type OrderService struct {
	store repository.Store
	log   *slog.Logger
}

func NewOrderService(store repository.Store, log *slog.Logger) *OrderService {
	return &OrderService{store: store, log: log}
}

// PlaceOrder проверяет запрос, затем в одной единице работы списывает остатки,
// создаёт покупателя и заказ. Любая ошибка откатывает всё.
func (s *OrderService) PlaceOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error) {
	if err := domain.ValidateOrderRequest(req); err != nil {
		return nil, err
	}

	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, domain.Persistence("begin order transaction", err)
	}

	total := decimal.Zero
	lines := make([]domain.OrderLine, 0, len(req.Items))
	// strictly in request order, repeated products see earlier decrements
	for _, it := range req.Items {
		p, err := uow.Products().GetByID(ctx, it.ProductID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, s.abort(ctx, uow, &domain.NotFoundError{Entity: "Product", ID: it.ProductID})
		case err != nil:
			return nil, s.abort(ctx, uow, domain.Persistence("read product", err))
		}
		if p.Stock < it.Quantity {
			return nil, s.abort(ctx, uow, insufficient(p, it.Quantity))
		}

		subtotal := decimal.NewFromFloat(p.Price).Mul(decimal.NewFromInt(it.Quantity))
		total = total.Add(subtotal)
		lines = append(lines, domain.OrderLine{
			ProductID:   p.ID,
			ProductName: p.Name,
			Price:       p.Price,
			Quantity:    it.Quantity,
			Subtotal:    subtotal.InexactFloat64(),
		})

		err = uow.Products().DecrementStock(ctx, p.ID, it.Quantity)
		switch {
		case errors.Is(err, repository.ErrStockConflict):
			return nil, s.abort(ctx, uow, insufficient(p, it.Quantity))
		case errors.Is(err, repository.ErrNotFound):
			return nil, s.abort(ctx, uow, &domain.NotFoundError{Entity: "Product", ID: it.ProductID})
		case err != nil:
			return nil, s.abort(ctx, uow, domain.Persistence("decrement stock", err))
		}
	}

	customer := domain.Customer{
		Name:    req.CustomerInfo.Name,
		Email:   req.CustomerInfo.Email,
		Address: req.CustomerInfo.Address,
	}
	if err := uow.Customers().Create(ctx, &customer); err != nil {
		return nil, s.abort(ctx, uow, domain.Persistence("create customer", err))
	}

	order := domain.Order{
		CustomerID: customer.ID,
		Total:      total.InexactFloat64(),
		Status:     domain.OrderStatusPending,
		Items:      lines,
	}
	if err := uow.Orders().Create(ctx, &order); err != nil {
		return nil, s.abort(ctx, uow, domain.Persistence("create order", err))
	}

	if err := uow.Commit(ctx); err != nil {
		return nil, domain.Persistence("commit order", err)
	}
	order.ResolveCustomer(&customer)
	return &order, nil
}

// abort откатывает единицу работы и возвращает исходную ошибку; сбой отката только логируется
func (s *OrderService) abort(ctx context.Context, uow repository.UnitOfWork, cause error) error {
	if err := uow.Rollback(ctx); err != nil {
		s.log.ErrorContext(ctx, "order_rollback_failed", "error", err, "cause", cause)
	}
	return cause
}

func insufficient(p *domain.Product, requested int64) error {
	return &domain.InsufficientStockError{
		ProductID:   p.ID,
		ProductName: p.Name,
		Requested:   requested,
		Available:   p.Stock,
	}
}

// GetOrder возвращает заказ по id с данными покупателя
func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	o, err := s.store.Orders().GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &domain.NotFoundError{Entity: "Order", ID: id}
	}
	if err != nil {
		return nil, domain.Persistence("get order", err)
	}
	return o, nil
}

// ListOrders все заказы, новые первыми
func (s *OrderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	list, err := s.store.Orders().List(ctx)
	if err != nil {
		return nil, domain.Persistence("list orders", err)
	}
	return list, nil
}
