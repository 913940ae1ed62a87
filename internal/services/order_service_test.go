package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"distributor/internal/models"
	"distributor/internal/repository"
	"distributor/internal/workflow"

	"github.com/shopspring/decimal"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestCreateOrderComputesAmounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.orders.CreateOrder(ctx, f.shopkeeper, "candy", 2, dec(50))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !order.TotalAmount.Equal(dec(200)) || !order.RemainingAmount.Equal(dec(150)) {
		t.Fatalf("unexpected amounts total=%s remaining=%s", order.TotalAmount, order.RemainingAmount)
	}
	if order.Status != models.OrderPlaced || order.StockStatus != models.StockNone || order.FullyPaid {
		t.Fatalf("unexpected initial state: %+v", order)
	}
	if len(order.Payments) != 1 || order.Payments[0].Type != models.PaymentAdvance {
		t.Fatalf("expected one advance payment, got %+v", order.Payments)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		actor    *models.User
		product  string
		quantity int
		advance  decimal.Decimal
		want     error
	}{
		{"advance at cap", f.shopkeeper, "candy", 2, dec(120), nil},
		{"advance over cap", f.shopkeeper, "candy", 2, decimal.RequireFromString("120.01"), workflow.ErrValidation},
		{"negative advance", f.shopkeeper, "candy", 1, dec(-1), workflow.ErrValidation},
		{"zero quantity", f.shopkeeper, "candy", 0, dec(0), workflow.ErrValidation},
		{"unknown product", f.shopkeeper, "caviar", 1, dec(0), workflow.ErrValidation},
		{"wrong role", f.salesman, "candy", 1, dec(0), workflow.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.orders.CreateOrder(ctx, tt.actor, tt.product, tt.quantity, tt.advance)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestHappyPathEndsFullyPaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.orders.CreateOrder(ctx, f.shopkeeper, "candy", 2, dec(50))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.orders.ConfirmOrder(ctx, f.salesman, order.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := f.orders.DispatchOrder(ctx, f.warehouse, order.ID); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got := f.stockOf(t, "candy"); got != 3 {
		t.Fatalf("dispatch should take 2 from stock, have %d", got)
	}

	_, err = f.orders.DeliverOrder(ctx, f.salesman, order.ID, dec(100))
	if !errors.Is(err, workflow.ErrValidation) {
		t.Fatalf("expected mismatch to fail validation, got %v", err)
	}

	delivered, err := f.orders.DeliverOrder(ctx, f.salesman, order.ID, dec(150))
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if delivered.Status != models.OrderDelivered || !delivered.RemainingAmount.IsZero() || !delivered.FullyPaid {
		t.Fatalf("unexpected delivered order: %+v", delivered)
	}
	if len(delivered.Payments) != 2 || delivered.Payments[1].Type != models.PaymentRemaining {
		t.Fatalf("expected advance and remaining payments, got %+v", delivered.Payments)
	}

	want := []string{"order.create", "order.confirm", "order.dispatch", "order.deliver"}
	got := f.published.types()
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected events %v, got %v", want, got)
		}
	}
}

func TestConcurrentDeliverOnlyOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, _ := f.orders.CreateOrder(ctx, f.shopkeeper, "candy", 2, dec(50))
	f.orders.ConfirmOrder(ctx, f.salesman, order.ID)
	f.orders.DispatchOrder(ctx, f.warehouse, order.ID)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.orders.DeliverOrder(ctx, f.salesman, order.ID, dec(150))
		}(i)
	}
	wg.Wait()

	var ok, invalid int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, workflow.ErrInvalidTransition):
			invalid++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || invalid != 1 {
		t.Fatalf("expected one success and one invalid transition, got %d/%d", ok, invalid)
	}
}

func TestReplenishmentCycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, _ := f.orders.CreateOrder(ctx, f.shopkeeper, "biscuits", 7, dec(0))
	f.orders.ConfirmOrder(ctx, f.salesman, order.ID)

	// Only 5 on hand.
	if _, err := f.orders.DispatchOrder(ctx, f.warehouse, order.ID); !errors.Is(err, workflow.ErrValidation) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if got := f.stockOf(t, "biscuits"); got != 5 {
		t.Fatalf("failed dispatch changed stock to %d", got)
	}

	requested, err := f.orders.RequestStock(ctx, f.warehouse, order.ID)
	if err != nil {
		t.Fatalf("request stock: %v", err)
	}
	if !requested.ManufacturerPrice.Equal(dec(7 * 175)) {
		t.Fatalf("unexpected manufacturer price %s", requested.ManufacturerPrice)
	}

	if _, err := f.orders.DispatchOrder(ctx, f.warehouse, order.ID); !errors.Is(err, workflow.ErrInvalidTransition) {
		t.Fatalf("dispatch during replenishment should be invalid, got %v", err)
	}

	if _, err := f.orders.RequestPayment(ctx, f.manufacturer, order.ID); err != nil {
		t.Fatalf("request payment: %v", err)
	}
	paid, err := f.orders.PayManufacturer(ctx, f.warehouse, order.ID)
	if err != nil {
		t.Fatalf("pay manufacturer: %v", err)
	}
	last := paid.Payments[len(paid.Payments)-1]
	if last.Type != models.PaymentManufacturer || !last.Amount.Equal(dec(1225)) {
		t.Fatalf("unexpected manufacturer payment %+v", last)
	}

	if _, err := f.orders.ShipStock(ctx, f.manufacturer, order.ID); err != nil {
		t.Fatalf("ship stock: %v", err)
	}
	if got := f.stockOf(t, "biscuits"); got != 5 {
		t.Fatalf("shipped goods are earmarked for the order, pool should stay 5, have %d", got)
	}

	dispatched, err := f.orders.DispatchOrder(ctx, f.warehouse, order.ID)
	if err != nil {
		t.Fatalf("dispatch after shipping: %v", err)
	}
	if dispatched.Status != models.OrderDispatched || dispatched.StockStatus != models.StockShipped {
		t.Fatalf("unexpected state %s/%s", dispatched.Status, dispatched.StockStatus)
	}
	if got := f.stockOf(t, "biscuits"); got != 5 {
		t.Fatalf("dispatch of a replenished order must not touch the pool, have %d", got)
	}
}

func TestReplenishedOrderDispatchesAfterPoolIsDrained(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, _ := f.orders.CreateOrder(ctx, f.shopkeeper, "biscuits", 7, dec(0))
	f.orders.ConfirmOrder(ctx, f.salesman, order.ID)
	f.orders.RequestStock(ctx, f.warehouse, order.ID)
	f.orders.RequestPayment(ctx, f.manufacturer, order.ID)
	f.orders.PayManufacturer(ctx, f.warehouse, order.ID)
	if _, err := f.orders.ShipStock(ctx, f.manufacturer, order.ID); err != nil {
		t.Fatalf("ship stock: %v", err)
	}

	// Other orders empty the shared pool between shipping and dispatch.
	for i := 0; i < 5; i++ {
		other, err := f.orders.CreateOrder(ctx, f.shopkeeper, "biscuits", 1, dec(0))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		f.orders.ConfirmOrder(ctx, f.salesman, other.ID)
		if _, err := f.orders.DispatchOrder(ctx, f.warehouse, other.ID); err != nil {
			t.Fatalf("dispatch other order: %v", err)
		}
	}
	if got := f.stockOf(t, "biscuits"); got != 0 {
		t.Fatalf("expected empty pool, have %d", got)
	}

	dispatched, err := f.orders.DispatchOrder(ctx, f.warehouse, order.ID)
	if err != nil {
		t.Fatalf("replenished order must still dispatch: %v", err)
	}
	if dispatched.Status != models.OrderDispatched {
		t.Fatalf("unexpected status %s", dispatched.Status)
	}
}

func TestDeliverSettlesBalance(t *testing.T) {
	tests := []struct {
		name      string
		product   string
		quantity  int
		advance   int64
		collected int64
	}{
		{"two candy half paid up front", "candy", 2, 100, 100},
		{"two candy small advance", "candy", 2, 50, 150},
		{"no advance", "jelly", 1, 0, 80},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			order, err := f.orders.CreateOrder(ctx, f.shopkeeper, tt.product, tt.quantity, dec(tt.advance))
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if _, err := f.orders.ConfirmOrder(ctx, f.salesman, order.ID); err != nil {
				t.Fatalf("confirm: %v", err)
			}
			if _, err := f.orders.DispatchOrder(ctx, f.warehouse, order.ID); err != nil {
				t.Fatalf("dispatch: %v", err)
			}
			delivered, err := f.orders.DeliverOrder(ctx, f.salesman, order.ID, dec(tt.collected))
			if err != nil {
				t.Fatalf("deliver: %v", err)
			}
			if delivered.Status != models.OrderDelivered || !delivered.RemainingAmount.IsZero() || !delivered.FullyPaid {
				t.Fatalf("unexpected delivered order: %+v", delivered)
			}
		})
	}
}

func TestCheckOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Role is checked before existence.
	if _, err := f.orders.ConfirmOrder(ctx, f.warehouse, 999); !errors.Is(err, workflow.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := f.orders.ConfirmOrder(ctx, f.salesman, 999); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	order, _ := f.orders.CreateOrder(ctx, f.shopkeeper, "candy", 1, dec(0))

	// State is checked before input.
	if _, err := f.orders.DeliverOrder(ctx, f.salesman, order.ID, dec(1)); !errors.Is(err, workflow.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestGetOrderForShopkeeperHidesOthers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, _ := f.orders.CreateOrder(ctx, f.shopkeeper, "jelly", 1, dec(0))
	other, err := f.users.Register(ctx, "other", "other@example.com", "pw", models.RoleShopkeeper)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := f.orders.GetOrderForShopkeeper(ctx, other, order.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	got, err := f.orders.GetOrderForShopkeeper(ctx, f.shopkeeper, order.ID)
	if err != nil || got.ID != order.ID {
		t.Fatalf("owner lookup failed: %v", err)
	}
}

func TestListingsCarryUsernames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.orders.CreateOrder(ctx, f.shopkeeper, "candy", 1, dec(0))
	pending, err := f.orders.GetOrdersByStatus(ctx, models.OrderPlaced)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 1 || pending[0].Username != "shop" {
		t.Fatalf("unexpected pending orders: %+v", pending)
	}
}

func TestWarehousePendingActions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, _ := f.orders.CreateOrder(ctx, f.shopkeeper, "candy", 1, dec(0))
	b, _ := f.orders.CreateOrder(ctx, f.shopkeeper, "jelly", 1, dec(0))
	for _, id := range []uint{a.ID, b.ID} {
		f.orders.ConfirmOrder(ctx, f.salesman, id)
		f.orders.RequestStock(ctx, f.warehouse, id)
		f.orders.RequestPayment(ctx, f.manufacturer, id)
	}
	f.orders.PayManufacturer(ctx, f.warehouse, b.ID)
	f.orders.ShipStock(ctx, f.manufacturer, b.ID)

	pending, err := f.orders.GetWarehousePendingActions(ctx)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected both orders pending, got %d", len(pending))
	}

	f.orders.DispatchOrder(ctx, f.warehouse, b.ID)
	pending, _ = f.orders.GetWarehousePendingActions(ctx)
	if len(pending) != 1 || pending[0].ID != a.ID {
		t.Fatalf("dispatched order should drop out, got %+v", pending)
	}
}
