package repository

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"flashtans/internal/domain"
)

type record[T any] struct {
	v   T
	seq int64
}

// memState снимок всех данных; транзакция работает над клоном и подменяет его при Commit
type memState struct {
	seq       int64
	products  map[string]record[domain.Product]
	customers map[string]record[domain.Customer]
	orders    map[string]record[domain.Order]
}

func newMemState() *memState {
	return &memState{
		products:  make(map[string]record[domain.Product]),
		customers: make(map[string]record[domain.Customer]),
		orders:    make(map[string]record[domain.Order]),
	}
}

func (s *memState) clone() *memState {
	return &memState{
		seq:       s.seq,
		products:  maps.Clone(s.products),
		customers: maps.Clone(s.customers),
		orders:    maps.Clone(s.orders),
	}
}

func (s *memState) next() int64 {
	s.seq++
	return s.seq
}

// MemoryStore in-memory хранилище: для тестов и запуска без базы
type MemoryStore struct {
	mu    sync.RWMutex
	state *memState
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: newMemState(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Ensure interfaces
var (
	_ Store      = (*MemoryStore)(nil)
	_ UnitOfWork = (*memoryTx)(nil)
)

func (m *MemoryStore) Driver() string                 { return "memory" }
func (m *MemoryStore) Ping(ctx context.Context) error  { return ctx.Err() }
func (m *MemoryStore) Close(ctx context.Context) error { return nil }

func (m *MemoryStore) Products() ProductRepository   { return memProducts{m.view(nil)} }
func (m *MemoryStore) Customers() CustomerRepository { return memCustomers{m.view(nil)} }
func (m *MemoryStore) Orders() OrderRepository       { return memOrders{m.view(nil)} }

// Begin держит блокировку записи до Commit/Rollback, поэтому транзакции сериализуются
func (m *MemoryStore) Begin(ctx context.Context) (UnitOfWork, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	return &memoryTx{store: m, state: m.state.clone()}, nil
}

func (m *MemoryStore) view(tx *memState) memView { return memView{store: m, tx: tx} }

// memView отделяет доступ внутри транзакции (блокировка уже взята) от обычного
type memView struct {
	store *MemoryStore
	tx    *memState
}

func (v memView) rlock() {
	if v.tx == nil {
		v.store.mu.RLock()
	}
}
func (v memView) runlock() {
	if v.tx == nil {
		v.store.mu.RUnlock()
	}
}
func (v memView) wlock() {
	if v.tx == nil {
		v.store.mu.Lock()
	}
}
func (v memView) wunlock() {
	if v.tx == nil {
		v.store.mu.Unlock()
	}
}

// st must be called with the lock held
func (v memView) st() *memState {
	if v.tx != nil {
		return v.tx
	}
	return v.store.state
}

// newestFirst сортирует по времени создания, при равенстве по порядку вставки
func newestFirst[T any](recs []record[T], created func(T) time.Time) []T {
	slices.SortFunc(recs, func(a, b record[T]) int {
		if c := created(b.v).Compare(created(a.v)); c != 0 {
			return c
		}
		return cmp.Compare(b.seq, a.seq)
	})
	out := make([]T, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.v)
	}
	return out
}

// ProductRepository implementation
type memProducts struct{ memView }

func (r memProducts) Create(ctx context.Context, p *domain.Product) error {
	r.wlock()
	defer r.wunlock()
	PrepareProduct(p, r.store.now())
	st := r.st()
	st.products[p.ID] = record[domain.Product]{v: *p, seq: st.next()}
	return nil
}

func (r memProducts) Upsert(ctx context.Context, p *domain.Product) error {
	r.wlock()
	defer r.wunlock()
	st := r.st()
	seq := st.next()
	if old, ok := st.products[p.ID]; ok {
		seq = old.seq
	}
	st.products[p.ID] = record[domain.Product]{v: *p, seq: seq}
	return nil
}

func (r memProducts) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	r.rlock()
	defer r.runlock()
	rec, ok := r.st().products[id]
	if !ok {
		return nil, ErrNotFound
	}
	// return copy
	cp := rec.v
	return &cp, nil
}

func (r memProducts) Delete(ctx context.Context, id string) error {
	r.wlock()
	defer r.wunlock()
	st := r.st()
	if _, ok := st.products[id]; !ok {
		return ErrNotFound
	}
	delete(st.products, id)
	return nil
}

func (r memProducts) DecrementStock(ctx context.Context, id string, qty int64) error {
	r.wlock()
	defer r.wunlock()
	st := r.st()
	rec, ok := st.products[id]
	if !ok {
		return ErrNotFound
	}
	if rec.v.Stock < qty {
		return ErrStockConflict
	}
	rec.v.Stock -= qty
	rec.v.UpdatedAt = r.store.now()
	st.products[id] = rec
	return nil
}

func (r memProducts) Count(ctx context.Context) (int64, error) {
	r.rlock()
	defer r.runlock()
	return int64(len(r.st().products)), nil
}

func (r memProducts) List(ctx context.Context, f ProductFilter) ([]domain.Product, error) {
	r.rlock()
	defer r.runlock()
	recs := make([]record[domain.Product], 0)
	for _, rec := range r.st().products {
		if f.Match(rec.v) {
			recs = append(recs, rec)
		}
	}
	return newestFirst(recs, func(p domain.Product) time.Time { return p.CreatedAt }), nil
}

// CustomerRepository implementation
type memCustomers struct{ memView }

func (r memCustomers) Create(ctx context.Context, c *domain.Customer) error {
	r.wlock()
	defer r.wunlock()
	PrepareCustomer(c, r.store.now())
	st := r.st()
	st.customers[c.ID] = record[domain.Customer]{v: *c, seq: st.next()}
	return nil
}

func (r memCustomers) Upsert(ctx context.Context, c *domain.Customer) error {
	r.wlock()
	defer r.wunlock()
	st := r.st()
	seq := st.next()
	if old, ok := st.customers[c.ID]; ok {
		seq = old.seq
	}
	st.customers[c.ID] = record[domain.Customer]{v: *c, seq: seq}
	return nil
}

func (r memCustomers) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	r.rlock()
	defer r.runlock()
	rec, ok := r.st().customers[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := rec.v
	return &cp, nil
}

func (r memCustomers) List(ctx context.Context) ([]domain.Customer, error) {
	r.rlock()
	defer r.runlock()
	recs := slices.Collect(maps.Values(r.st().customers))
	return newestFirst(recs, func(c domain.Customer) time.Time { return c.CreatedAt }), nil
}

// OrderRepository implementation
type memOrders struct{ memView }

func (r memOrders) Create(ctx context.Context, o *domain.Order) error {
	r.wlock()
	defer r.wunlock()
	PrepareOrder(o, r.store.now())
	st := r.st()
	st.orders[o.ID] = record[domain.Order]{v: stripOrder(*o), seq: st.next()}
	return nil
}

func (r memOrders) Upsert(ctx context.Context, o *domain.Order) error {
	r.wlock()
	defer r.wunlock()
	st := r.st()
	seq := st.next()
	if old, ok := st.orders[o.ID]; ok {
		seq = old.seq
	}
	st.orders[o.ID] = record[domain.Order]{v: stripOrder(*o), seq: seq}
	return nil
}

func (r memOrders) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	r.rlock()
	defer r.runlock()
	st := r.st()
	rec, ok := st.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	o := resolveOrder(st, rec.v)
	return &o, nil
}

func (r memOrders) List(ctx context.Context) ([]domain.Order, error) {
	r.rlock()
	defer r.runlock()
	st := r.st()
	recs := slices.Collect(maps.Values(st.orders))
	out := newestFirst(recs, func(o domain.Order) time.Time { return o.CreatedAt })
	for i := range out {
		out[i] = resolveOrder(st, out[i])
	}
	return out, nil
}

// stripOrder хранит только собственные поля заказа и свою копию позиций
func stripOrder(o domain.Order) domain.Order {
	o.Items = slices.Clone(o.Items)
	o.CustomerName, o.CustomerEmail, o.CustomerAddress = "", "", ""
	return o
}

func resolveOrder(st *memState, o domain.Order) domain.Order {
	o.Items = slices.Clone(o.Items)
	if c, ok := st.customers[o.CustomerID]; ok {
		o.ResolveCustomer(&c.v)
	} else {
		o.ResolveCustomer(nil)
	}
	return o
}

// memoryTx единица работы над клоном состояния
type memoryTx struct {
	store *MemoryStore
	state *memState
	done  bool
}

func (tx *memoryTx) Products() ProductRepository   { return memProducts{tx.store.view(tx.state)} }
func (tx *memoryTx) Customers() CustomerRepository { return memCustomers{tx.store.view(tx.state)} }
func (tx *memoryTx) Orders() OrderRepository       { return memOrders{tx.store.view(tx.state)} }

func (tx *memoryTx) Commit(ctx context.Context) error {
	if tx.done {
		return ErrTxDone
	}
	tx.done = true
	tx.store.state = tx.state
	tx.store.mu.Unlock()
	return nil
}

func (tx *memoryTx) Rollback(ctx context.Context) error {
	if tx.done {
		return nil
	}
	tx.done = true
	tx.store.mu.Unlock()
	return nil
}
