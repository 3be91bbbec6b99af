// Package migrate переносит все записи из одного хранилища в другое с сохранением id.
package migrate

import (
	"context"
	"fmt"
	"log/slog"

	"flashtans/internal/repository"
)

// Result число перенесённых записей по сущностям
type Result struct {
	Products  int
	Customers int
	Orders    int
}

// Copy читает товары, покупателей и заказы из src и upsert-ом пишет их в dst
// одной единицей работы: либо переносится всё, либо ничего. src не меняется.
func Copy(ctx context.Context, src repository.Repositories, dst repository.Store, log *slog.Logger) (Result, error) {
	var res Result

	products, err := src.Products().List(ctx, repository.ProductFilter{})
	if err != nil {
		return res, fmt.Errorf("read products: %w", err)
	}
	log.InfoContext(ctx, "migrate_found", "entity", "products", "count", len(products))
	customers, err := src.Customers().List(ctx)
	if err != nil {
		return res, fmt.Errorf("read customers: %w", err)
	}
	log.InfoContext(ctx, "migrate_found", "entity", "customers", "count", len(customers))
	orders, err := src.Orders().List(ctx)
	if err != nil {
		return res, fmt.Errorf("read orders: %w", err)
	}
	log.InfoContext(ctx, "migrate_found", "entity", "orders", "count", len(orders))

	uow, err := dst.Begin(ctx)
	if err != nil {
		return res, fmt.Errorf("begin: %w", err)
	}
	fail := func(what string, err error) (Result, error) {
		if rbErr := uow.Rollback(ctx); rbErr != nil {
			log.ErrorContext(ctx, "migrate_rollback_failed", "error", rbErr)
		}
		return Result{}, fmt.Errorf("write %s: %w", what, err)
	}

	for i := range products {
		if err := uow.Products().Upsert(ctx, &products[i]); err != nil {
			return fail("products", err)
		}
	}
	// customers before orders: orders reference them
	for i := range customers {
		if err := uow.Customers().Upsert(ctx, &customers[i]); err != nil {
			return fail("customers", err)
		}
	}
	for i := range orders {
		if err := uow.Orders().Upsert(ctx, &orders[i]); err != nil {
			return fail("orders", err)
		}
	}
	if err := uow.Commit(ctx); err != nil {
		return Result{}, fmt.Errorf("commit: %w", err)
	}

	res = Result{Products: len(products), Customers: len(customers), Orders: len(orders)}
	log.InfoContext(ctx, "migrate_complete", "products", res.Products, "customers", res.Customers, "orders", res.Orders)
	return res, nil
}
