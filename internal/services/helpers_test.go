package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"distributor/internal/events"
	"distributor/internal/locker"
	"distributor/internal/models"
	"distributor/internal/redis"
	"distributor/internal/repository"

	"go.uber.org/zap"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	orders    OrderService
	users     UserService
	products  *repository.MemoryProductRepository
	published *recordingPublisher

	shopkeeper   *models.User
	salesman     *models.User
	warehouse    *models.User
	manufacturer *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	products := repository.NewMemoryProductRepository(models.DefaultProducts()...)
	orderRepo := repository.NewMemoryOrderRepository(products)
	userRepo := repository.NewMemoryUserRepository()
	pub := &recordingPublisher{}

	f := &fixture{
		orders:    NewOrderService(orderRepo, products, userRepo, locker.NewKeyedMutex(), pub, logger),
		users:     NewUserService(userRepo, redis.NewMemoryStore(), "test-secret", time.Hour, logger),
		products:  products,
		published: pub,
	}

	register := func(name string, role models.Role) *models.User {
		u, err := f.users.Register(ctx, name, name+"@example.com", "secret", role)
		if err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
		return u
	}
	f.shopkeeper = register("shop", models.RoleShopkeeper)
	f.salesman = register("sales", models.RoleSalesman)
	f.warehouse = register("whm", models.RoleWarehouseManager)
	f.manufacturer = register("maker", models.RoleManufacturer)
	return f
}

func (f *fixture) stockOf(t *testing.T, name string) int {
	t.Helper()
	p, err := f.products.GetByName(context.Background(), name)
	if err != nil {
		t.Fatalf("product %s: %v", name, err)
	}
	return p.StockQuantity
}
