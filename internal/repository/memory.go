package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"distributor/internal/models"
)

// The memory repositories back STORE_DRIVER=memory and the tests. They keep the same
// guarantees as the gorm ones: a mutation works on a copy and becomes visible only
// once committed, and each order has its own lock.

type orderRecord struct {
	mu    sync.Mutex
	order *models.Order
}

type memoryOrderRepository struct {
	mu            sync.RWMutex
	records       map[uint]*orderRecord
	nextID        uint
	nextPaymentID uint
	products      *MemoryProductRepository
}

func NewMemoryOrderRepository(products *MemoryProductRepository) OrderRepository {
	return &memoryOrderRepository{
		records:  make(map[uint]*orderRecord),
		products: products,
	}
}

func (r *memoryOrderRepository) Create(ctx context.Context, order *models.Order, payments ...*models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	now := time.Now()
	order.ID = r.nextID
	order.CreatedAt = now
	order.UpdatedAt = now
	order.Payments = nil
	for _, p := range payments {
		r.nextPaymentID++
		p.ID = r.nextPaymentID
		p.OrderID = order.ID
		p.CreatedAt = now
		order.Payments = append(order.Payments, *p)
	}
	r.records[order.ID] = &orderRecord{order: order.Clone()}
	return nil
}

func (r *memoryOrderRepository) record(id uint) (*orderRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	return rec, nil
}

func (r *memoryOrderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	rec, err := r.record(id)
	if err != nil {
		return nil, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.order.Clone(), nil
}

func (r *memoryOrderRepository) filter(keep func(o *models.Order) bool) []models.Order {
	r.mu.RLock()
	recs := make([]*orderRecord, 0, len(r.records))
	for _, rec := range r.records {
		recs = append(recs, rec)
	}
	r.mu.RUnlock()

	var orders []models.Order
	for _, rec := range recs {
		rec.mu.Lock()
		if keep(rec.order) {
			orders = append(orders, *rec.order.Clone())
		}
		rec.mu.Unlock()
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders
}

func (r *memoryOrderRepository) GetByShopkeeper(ctx context.Context, shopkeeperID uint) ([]models.Order, error) {
	return r.filter(func(o *models.Order) bool { return o.ShopkeeperID == shopkeeperID }), nil
}

func (r *memoryOrderRepository) GetByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	return r.filter(func(o *models.Order) bool { return o.Status == status }), nil
}

func (r *memoryOrderRepository) GetByStockStatus(ctx context.Context, statuses ...models.StockStatus) ([]models.Order, error) {
	return r.filter(func(o *models.Order) bool {
		for _, s := range statuses {
			if o.StockStatus == s {
				return true
			}
		}
		return false
	}), nil
}

func (r *memoryOrderRepository) Mutate(ctx context.Context, id uint, fn MutateFunc) (*models.Order, error) {
	rec, err := r.record(id)
	if err != nil {
		return nil, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	draft := rec.order.Clone()
	change, err := fn(draft)
	if err != nil {
		return nil, err
	}

	if change != nil && change.StockDelta != 0 {
		if err := r.products.adjust(draft.ProductName, change.StockDelta); err != nil {
			return nil, err
		}
	}
	if change != nil && change.Payment != nil {
		r.mu.Lock()
		r.nextPaymentID++
		change.Payment.ID = r.nextPaymentID
		r.mu.Unlock()
		change.Payment.OrderID = draft.ID
		change.Payment.CreatedAt = time.Now()
		draft.Payments = append(draft.Payments, *change.Payment)
	}

	draft.UpdatedAt = time.Now()
	rec.order = draft
	return draft.Clone(), nil
}

// MemoryProductRepository is exported so the memory order repository can share its stock.
type MemoryProductRepository struct {
	mu       sync.Mutex
	products map[string]*models.Product
	nextID   uint
}

func NewMemoryProductRepository(seed ...models.Product) *MemoryProductRepository {
	r := &MemoryProductRepository{products: make(map[string]*models.Product)}
	for i := range seed {
		r.Upsert(context.Background(), &seed[i])
	}
	return r
}

func (r *MemoryProductRepository) GetByName(ctx context.Context, name string) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[name]
	if !ok {
		return nil, fmt.Errorf("product %q: %w", name, ErrNotFound)
	}
	c := *p
	return &c, nil
}

func (r *MemoryProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	products := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		products = append(products, *p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

func (r *MemoryProductRepository) Upsert(ctx context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	if existing, ok := r.products[product.Name]; ok {
		existing.UnitPrice = product.UnitPrice
		existing.WholesalePrice = product.WholesalePrice
		existing.UpdatedAt = now
		*product = *existing
		return nil
	}
	r.nextID++
	product.ID = r.nextID
	product.CreatedAt = now
	product.UpdatedAt = now
	c := *product
	r.products[product.Name] = &c
	return nil
}

func (r *MemoryProductRepository) adjust(name string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[name]
	if !ok || p.StockQuantity+delta < 0 {
		return fmt.Errorf("%w: %s", ErrInsufficientStock, name)
	}
	p.StockQuantity += delta
	p.UpdatedAt = time.Now()
	return nil
}

type memoryUserRepository struct {
	mu     sync.RWMutex
	users  map[uint]*models.User
	nextID uint
}

func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{users: make(map[uint]*models.User)}
}

func (r *memoryUserRepository) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username || strings.EqualFold(u.Email, user.Email) {
			return fmt.Errorf("user %q: %w", user.Username, ErrDuplicate)
		}
	}
	r.nextID++
	now := time.Now()
	user.ID = r.nextID
	user.CreatedAt = now
	user.UpdatedAt = now
	c := *user
	r.users[user.ID] = &c
	return nil
}

func (r *memoryUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	c := *u
	return &c, nil
}

func (r *memoryUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
}
