// Package mongostore реализует хранилище поверх MongoDB. Транзакции требуют replica set.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"flashtans/internal/domain"
	"flashtans/internal/repository"
)

const (
	Driver = "mongo"

	productsColl  = "products"
	customersColl = "customers"
	ordersColl    = "orders"
)

// Store документное хранилище
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
}

var (
	_ repository.Store      = (*Store)(nil)
	_ repository.UnitOfWork = (*unitOfWork)(nil)
)

// Open подключается, проверяет связь и создаёт индексы по created_at
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	s := newStore(client, database)
	for _, name := range []string{productsColl, customersColl, ordersColl} {
		_, err := s.db.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		})
		if err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("create index on %s: %w", name, err)
		}
	}
	return s, nil
}

func newStore(client *mongo.Client, database string) *Store {
	return &Store{client: client, db: client.Database(database), now: func() time.Time { return time.Now().UTC() }}
}

func (s *Store) Driver() string                  { return Driver }
func (s *Store) Ping(ctx context.Context) error  { return s.client.Ping(ctx, nil) }
func (s *Store) Close(ctx context.Context) error { return s.client.Disconnect(ctx) }

func (s *Store) Products() repository.ProductRepository   { return products{s.scope(nil)} }
func (s *Store) Customers() repository.CustomerRepository { return customers{s.scope(nil)} }
func (s *Store) Orders() repository.OrderRepository       { return orders{s.scope(nil)} }

// Begin открывает сессию с транзакцией snapshot/majority
func (s *Store) Begin(ctx context.Context) (repository.UnitOfWork, error) {
	sess, err := s.client.StartSession()
	if err != nil {
		return nil, err
	}
	txOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	if err := sess.StartTransaction(txOpts); err != nil {
		sess.EndSession(ctx)
		return nil, err
	}
	return &unitOfWork{store: s, sess: sess}, nil
}

// scope коллекции плюс сессия транзакции, если она есть
type scope struct {
	db   *mongo.Database
	sess mongo.Session
	now  func() time.Time
}

func (s *Store) scope(sess mongo.Session) scope {
	return scope{db: s.db, sess: sess, now: s.now}
}

func (sc scope) ctx(ctx context.Context) context.Context {
	if sc.sess != nil {
		return mongo.NewSessionContext(ctx, sc.sess)
	}
	return ctx
}

func (sc scope) coll(name string) *mongo.Collection { return sc.db.Collection(name) }

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	return err
}

var newestFirst = options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

func upsert(ctx context.Context, c *mongo.Collection, id string, doc any) error {
	_, err := c.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	return err
}

// productFilter переводит ProductFilter в запрос MongoDB
func productFilter(f repository.ProductFilter) bson.M {
	q := bson.M{}
	if f.NameSubstring != "" {
		q["name"] = bson.M{"$regex": regexp.QuoteMeta(f.NameSubstring), "$options": "i"}
	}
	price := bson.M{}
	if f.MinPrice != nil {
		price["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		price["$lte"] = *f.MaxPrice
	}
	if len(price) > 0 {
		q["price"] = price
	}
	return q
}

// ProductRepository implementation
type products struct{ scope }

func (r products) Create(ctx context.Context, p *domain.Product) error {
	repository.PrepareProduct(p, r.now())
	_, err := r.coll(productsColl).InsertOne(r.ctx(ctx), toProductDoc(*p))
	return err
}

func (r products) Upsert(ctx context.Context, p *domain.Product) error {
	return upsert(r.ctx(ctx), r.coll(productsColl), p.ID, toProductDoc(*p))
}

func (r products) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var doc productDoc
	if err := r.coll(productsColl).FindOne(r.ctx(ctx), bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	p := doc.toDomain()
	return &p, nil
}

func (r products) Delete(ctx context.Context, id string) error {
	res, err := r.coll(productsColl).DeleteOne(r.ctx(ctx), bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r products) DecrementStock(ctx context.Context, id string, qty int64) error {
	ctx = r.ctx(ctx)
	res, err := r.coll(productsColl).UpdateOne(ctx,
		bson.M{"_id": id, "stock": bson.M{"$gte": qty}},
		bson.M{
			"$inc": bson.M{"stock": -qty},
			"$set": bson.M{"updated_at": r.now()},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := r.coll(productsColl).CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrStockConflict
}

func (r products) Count(ctx context.Context) (int64, error) {
	return r.coll(productsColl).CountDocuments(r.ctx(ctx), bson.D{})
}

func (r products) List(ctx context.Context, f repository.ProductFilter) ([]domain.Product, error) {
	ctx = r.ctx(ctx)
	cur, err := r.coll(productsColl).Find(ctx, productFilter(f), newestFirst)
	if err != nil {
		return nil, err
	}
	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// CustomerRepository implementation
type customers struct{ scope }

func (r customers) Create(ctx context.Context, c *domain.Customer) error {
	repository.PrepareCustomer(c, r.now())
	_, err := r.coll(customersColl).InsertOne(r.ctx(ctx), toCustomerDoc(*c))
	return err
}

func (r customers) Upsert(ctx context.Context, c *domain.Customer) error {
	return upsert(r.ctx(ctx), r.coll(customersColl), c.ID, toCustomerDoc(*c))
}

func (r customers) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	var doc customerDoc
	if err := r.coll(customersColl).FindOne(r.ctx(ctx), bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	c := doc.toDomain()
	return &c, nil
}

func (r customers) List(ctx context.Context) ([]domain.Customer, error) {
	ctx = r.ctx(ctx)
	cur, err := r.coll(customersColl).Find(ctx, bson.D{}, newestFirst)
	if err != nil {
		return nil, err
	}
	var docs []customerDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Customer, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// OrderRepository implementation
type orders struct{ scope }

func (r orders) Create(ctx context.Context, o *domain.Order) error {
	repository.PrepareOrder(o, r.now())
	_, err := r.coll(ordersColl).InsertOne(r.ctx(ctx), toOrderDoc(*o))
	return err
}

func (r orders) Upsert(ctx context.Context, o *domain.Order) error {
	return upsert(r.ctx(ctx), r.coll(ordersColl), o.ID, toOrderDoc(*o))
}

func (r orders) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var doc orderDoc
	if err := r.coll(ordersColl).FindOne(r.ctx(ctx), bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	resolved, err := r.resolve(ctx, []orderDoc{doc})
	if err != nil {
		return nil, err
	}
	return &resolved[0], nil
}

func (r orders) List(ctx context.Context) ([]domain.Order, error) {
	sctx := r.ctx(ctx)
	cur, err := r.coll(ordersColl).Find(sctx, bson.D{}, newestFirst)
	if err != nil {
		return nil, err
	}
	var docs []orderDoc
	if err := cur.All(sctx, &docs); err != nil {
		return nil, err
	}
	return r.resolve(ctx, docs)
}

// resolve подтягивает покупателей одним запросом $in
func (r orders) resolve(ctx context.Context, docs []orderDoc) ([]domain.Order, error) {
	out := make([]domain.Order, 0, len(docs))
	if len(docs) == 0 {
		return out, nil
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.CustomerID)
	}
	sctx := r.ctx(ctx)
	cur, err := r.coll(customersColl).Find(sctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var cdocs []customerDoc
	if err := cur.All(sctx, &cdocs); err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Customer, len(cdocs))
	for _, c := range cdocs {
		byID[c.ID] = c.toDomain()
	}
	for _, d := range docs {
		o := d.toDomain()
		if c, ok := byID[d.CustomerID]; ok {
			o.ResolveCustomer(&c)
		} else {
			o.ResolveCustomer(nil)
		}
		out = append(out, o)
	}
	return out, nil
}

// unitOfWork сессия MongoDB с открытой транзакцией
type unitOfWork struct {
	store *Store
	sess  mongo.Session
	done  bool
}

func (u *unitOfWork) Products() repository.ProductRepository {
	return products{u.store.scope(u.sess)}
}
func (u *unitOfWork) Customers() repository.CustomerRepository {
	return customers{u.store.scope(u.sess)}
}
func (u *unitOfWork) Orders() repository.OrderRepository {
	return orders{u.store.scope(u.sess)}
}

func (u *unitOfWork) Commit(ctx context.Context) error {
	if u.done {
		return repository.ErrTxDone
	}
	u.done = true
	defer u.sess.EndSession(ctx)
	return u.sess.CommitTransaction(ctx)
}

func (u *unitOfWork) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	defer u.sess.EndSession(ctx)
	return u.sess.AbortTransaction(ctx)
}
