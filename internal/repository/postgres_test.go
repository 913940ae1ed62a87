package repository

import (
	"context"
	"errors"
	"os"
	"testing"

	"distributor/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Runs against a real database only when TEST_DATABASE_URL is set.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.Migrator().DropTable(&models.Payment{}, &models.Order{}, &models.Product{}, &models.User{})
	if err := db.AutoMigrate(&models.User{}, &models.Product{}, &models.Order{}, &models.Payment{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestPostgresOrderMutate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	products := NewProductRepository(db)
	for _, p := range models.DefaultProducts() {
		p := p
		if err := products.Upsert(ctx, &p); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	orders := NewOrderRepository(db)

	o := placedOrder()
	if err := orders.Create(ctx, o, &models.Payment{Amount: o.AdvancePayment, Type: models.PaymentAdvance, RecordedBy: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := orders.Mutate(ctx, o.ID, func(order *models.Order) (*Change, error) {
		order.Status = models.OrderConfirmed
		return &Change{StockDelta: -2, Payment: &models.Payment{Amount: decimal.NewFromInt(1), Type: models.PaymentRemaining, RecordedBy: 2}}, nil
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if updated.Status != models.OrderConfirmed || len(updated.Payments) != 2 {
		t.Fatalf("unexpected order: %+v", updated)
	}

	_, err = orders.Mutate(ctx, o.ID, func(order *models.Order) (*Change, error) {
		order.Status = models.OrderDispatched
		return &Change{StockDelta: -100}, nil
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	got, _ := orders.GetByID(ctx, o.ID)
	if got.Status != models.OrderConfirmed {
		t.Fatalf("rolled back mutation leaked, status %s", got.Status)
	}
	candy, _ := products.GetByName(ctx, "candy")
	if candy.StockQuantity != 3 {
		t.Fatalf("expected stock 3, got %d", candy.StockQuantity)
	}
}

func TestPostgresUserDuplicate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)

	if err := users.Create(ctx, &models.User{Username: "sam", Email: "sam@example.com", HashedPassword: "x", Role: models.RoleSalesman}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := users.Create(ctx, &models.User{Username: "sam", Email: "sam2@example.com", HashedPassword: "x", Role: models.RoleSalesman})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}
