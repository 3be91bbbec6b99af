// Package sqlstore реализует хранилище поверх GORM: файловая SQLite или MySQL.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	gomysql "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"flashtans/internal/domain"
	"flashtans/internal/repository"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Store реляционное хранилище
type Store struct {
	db      *gorm.DB
	driver  string
	dialect dialect
	now     func() time.Time
}

var (
	_ repository.Store      = (*Store)(nil)
	_ repository.UnitOfWork = (*unitOfWork)(nil)
)

// OpenSQLite открывает (и создаёт) файл базы. Одно соединение: SQLite всё равно
// сериализует запись, а так транзакции не ловят SQLITE_BUSY друг от друга.
func OpenSQLite(path string) (*Store, error) {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	s, err := open(sqlite.Open(dsn), DriverSQLite, sqliteDialect)
	if err != nil {
		return nil, err
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return s, nil
}

// OpenMySQL подключается к MySQL; parseTime включается принудительно
func OpenMySQL(dsn string, maxOpenConns int) (*Store, error) {
	cfg, err := gomysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	if cfg.Loc == nil {
		cfg.Loc = time.UTC
	}
	s, err := open(mysql.Open(cfg.FormatDSN()), DriverMySQL, mysqlDialect)
	if err != nil {
		return nil, err
	}
	if maxOpenConns > 0 {
		sqlDB, err := s.db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(maxOpenConns)
	}
	return s, nil
}

func open(d gorm.Dialector, driver string, dl dialect) (*Store, error) {
	db, err := gorm.Open(d, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Warn),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := dl.migrate(db); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &Store{db: db, driver: driver, dialect: dl, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *Store) Driver() string { return s.driver }

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Products() repository.ProductRepository   { return products{s.conn(s.db, false)} }
func (s *Store) Customers() repository.CustomerRepository { return customers{s.conn(s.db, false)} }
func (s *Store) Orders() repository.OrderRepository       { return orders{s.conn(s.db, false)} }

func (s *Store) Begin(ctx context.Context) (repository.UnitOfWork, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &unitOfWork{store: s, tx: tx}, nil
}

// conn общий хендл репозиториев; inTx включает блокировку строк при чтении там, где она есть
type conn struct {
	db      *gorm.DB
	dialect dialect
	now     func() time.Time
	lock    bool
}

func (s *Store) conn(db *gorm.DB, inTx bool) conn {
	return conn{db: db, dialect: s.dialect, now: s.now, lock: inTx && s.driver == DriverMySQL}
}

func (c conn) with(ctx context.Context) *gorm.DB { return c.db.WithContext(ctx) }

func (c conn) forUpdate(ctx context.Context) *gorm.DB {
	q := c.with(ctx)
	if c.lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repository.ErrNotFound
	}
	return err
}

// ProductRepository implementation
type products struct{ conn }

func (r products) Create(ctx context.Context, p *domain.Product) error {
	repository.PrepareProduct(p, r.now())
	rec := toProductRecord(*p)
	return r.with(ctx).Create(&rec).Error
}

func (r products) Upsert(ctx context.Context, p *domain.Product) error {
	rec := toProductRecord(*p)
	return r.with(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error
}

func (r products) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var rec productRecord
	if err := r.forUpdate(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, notFound(err)
	}
	p := rec.toDomain()
	return &p, nil
}

func (r products) Delete(ctx context.Context, id string) error {
	res := r.with(ctx).Where("id = ?", id).Delete(&productRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DecrementStock условный UPDATE: параллельная транзакция, успевшая списать раньше,
// оставит здесь 0 затронутых строк вместо отрицательного остатка
func (r products) DecrementStock(ctx context.Context, id string, qty int64) error {
	res := r.with(ctx).Model(&productRecord{}).
		Where("id = ? AND stock >= ?", id, qty).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock - ?", qty),
			"updated_at": r.now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	var n int64
	if err := r.with(ctx).Model(&productRecord{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrStockConflict
}

func (r products) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.with(ctx).Model(&productRecord{}).Count(&n).Error
	return n, err
}

func (r products) List(ctx context.Context, f repository.ProductFilter) ([]domain.Product, error) {
	q := r.with(ctx).Model(&productRecord{})
	if f.NameSubstring != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(f.NameSubstring)+"%")
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	var recs []productRecord
	if err := q.Order(r.dialect.newestFirst()).Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.toDomain())
	}
	return out, nil
}

// CustomerRepository implementation
type customers struct{ conn }

func (r customers) Create(ctx context.Context, c *domain.Customer) error {
	repository.PrepareCustomer(c, r.now())
	rec := toCustomerRecord(*c)
	return r.with(ctx).Create(&rec).Error
}

func (r customers) Upsert(ctx context.Context, c *domain.Customer) error {
	rec := toCustomerRecord(*c)
	return r.with(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error
}

func (r customers) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	var rec customerRecord
	if err := r.with(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, notFound(err)
	}
	c := rec.toDomain()
	return &c, nil
}

func (r customers) List(ctx context.Context) ([]domain.Customer, error) {
	var recs []customerRecord
	if err := r.with(ctx).Order(r.dialect.newestFirst()).Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Customer, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.toDomain())
	}
	return out, nil
}

// OrderRepository implementation
type orders struct{ conn }

func (r orders) withLines(ctx context.Context) *gorm.DB {
	return r.with(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order(r.dialect.itemsOrder) }).
		Preload("Customer")
}

func (r orders) Create(ctx context.Context, o *domain.Order) error {
	repository.PrepareOrder(o, r.now())
	rec := toOrderRecord(*o)
	return r.with(ctx).Create(&rec).Error
}

// Upsert перезаписывает заказ и заменяет его позиции целиком
func (r orders) Upsert(ctx context.Context, o *domain.Order) error {
	rec := toOrderRecord(*o)
	db := r.with(ctx)
	if err := db.Omit(clause.Associations).Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error; err != nil {
		return err
	}
	if err := db.Where("order_id = ?", rec.ID).Delete(&orderItemRecord{}).Error; err != nil {
		return err
	}
	if len(rec.Items) == 0 {
		return nil
	}
	return db.Create(&rec.Items).Error
}

func (r orders) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var rec orderRecord
	if err := r.withLines(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, notFound(err)
	}
	o := rec.toDomain()
	return &o, nil
}

func (r orders) List(ctx context.Context) ([]domain.Order, error) {
	var recs []orderRecord
	if err := r.withLines(ctx).Order(r.dialect.newestFirst()).Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.toDomain())
	}
	return out, nil
}

// unitOfWork транзакция GORM
type unitOfWork struct {
	store *Store
	tx    *gorm.DB
	done  bool
}

func (u *unitOfWork) Products() repository.ProductRepository {
	return products{u.store.conn(u.tx, true)}
}
func (u *unitOfWork) Customers() repository.CustomerRepository {
	return customers{u.store.conn(u.tx, true)}
}
func (u *unitOfWork) Orders() repository.OrderRepository {
	return orders{u.store.conn(u.tx, true)}
}

func (u *unitOfWork) Commit(ctx context.Context) error {
	if u.done {
		return repository.ErrTxDone
	}
	u.done = true
	return u.tx.Commit().Error
}

func (u *unitOfWork) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	return u.tx.Rollback().Error
}
