// Package storage выбирает реализацию repository.Store по конфигурации.
package storage

import (
	"context"
	"fmt"

	"flashtans/internal/config"
	"flashtans/internal/repository"
	"flashtans/internal/repository/mongostore"
	"flashtans/internal/repository/sqlstore"
)

// Open открывает хранилище; владелец результата отвечает за Close
func Open(ctx context.Context, cfg config.StoreConfig) (repository.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var (
		store repository.Store
		err   error
	)
	switch cfg.Driver {
	case config.DriverMemory:
		store = repository.NewMemoryStore()
	case config.DriverSQLite:
		var s *sqlstore.Store
		if s, err = sqlstore.OpenSQLite(cfg.SQLitePath); err == nil {
			store = s
		}
	case config.DriverMySQL:
		var s *sqlstore.Store
		if s, err = sqlstore.OpenMySQL(cfg.MySQLDSN, cfg.MaxOpenConns); err == nil {
			store = s
		}
	case config.DriverMongo:
		var s *mongostore.Store
		if s, err = mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDatabase); err == nil {
			store = s
		}
	default:
		err = fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}
