package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"distributor/internal/events"
	"distributor/internal/locker"
	"distributor/internal/models"
	"distributor/internal/repository"
	"distributor/internal/workflow"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MaxAdvanceRatio caps the advance a shopkeeper may pay at placement.
var MaxAdvanceRatio = decimal.NewFromFloat(0.6)

type OrderService interface {
	CreateOrder(ctx context.Context, actor *models.User, productName string, quantity int, advance decimal.Decimal) (*models.Order, error)
	ConfirmOrder(ctx context.Context, actor *models.User, orderID uint) (*models.Order, error)
	DispatchOrder(ctx context.Context, actor *models.User, orderID uint) (*models.Order, error)
	RequestStock(ctx context.Context, actor *models.User, orderID uint) (*models.Order, error)
	RequestPayment(ctx context.Context, actor *models.User, orderID uint) (*models.Order, error)
	PayManufacturer(ctx context.Context, actor *models.User, orderID uint) (*models.Order, error)
	ShipStock(ctx context.Context, actor *models.User, orderID uint) (*models.Order, error)
	DeliverOrder(ctx context.Context, actor *models.User, orderID uint, collected decimal.Decimal) (*models.Order, error)

	GetOrderForShopkeeper(ctx context.Context, actor *models.User, orderID uint) (*models.Order, error)
	GetOrdersByShopkeeper(ctx context.Context, shopkeeperID uint) ([]models.Order, error)
	GetOrdersByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error)
	GetStockRequests(ctx context.Context) ([]models.Order, error)
	GetWarehousePendingActions(ctx context.Context) ([]models.Order, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	locker      locker.Locker
	publisher   events.Publisher
	logger      *zap.Logger
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	lk locker.Locker,
	publisher events.Publisher,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		locker:      lk,
		publisher:   publisher,
		logger:      logger,
	}
}

func (s *orderService) CreateOrder(ctx context.Context, actor *models.User, productName string, quantity int, advance decimal.Decimal) (*models.Order, error) {
	if err := workflow.Authorize(workflow.ActionCreate, actor.Role); err != nil {
		return nil, err
	}

	product, err := s.productRepo.GetByName(ctx, productName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid product name %q", workflow.ErrValidation, productName)
		}
		return nil, err
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", workflow.ErrValidation)
	}
	if advance.IsNegative() {
		return nil, fmt.Errorf("%w: advance payment cannot be negative", workflow.ErrValidation)
	}

	total := product.UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	if advance.GreaterThan(total.Mul(MaxAdvanceRatio)) {
		return nil, fmt.Errorf("%w: advance payment cannot exceed 60%% of total amount", workflow.ErrValidation)
	}

	order := &models.Order{
		ShopkeeperID:      actor.ID,
		ProductName:       product.Name,
		Quantity:          quantity,
		UnitPrice:         product.UnitPrice,
		TotalAmount:       total,
		AdvancePayment:    advance,
		RemainingAmount:   total.Sub(advance),
		ManufacturerPrice: decimal.Zero,
	}
	order.FullyPaid = order.RemainingAmount.IsZero()
	if err := workflow.Apply(workflow.ActionCreate, order); err != nil {
		return nil, err
	}

	var payments []*models.Payment
	if advance.IsPositive() {
		payments = append(payments, &models.Payment{Amount: advance, Type: models.PaymentAdvance, RecordedBy: actor.ID})
	}
	if err := s.orderRepo.Create(ctx, order, payments...); err != nil {
		return nil, err
	}

	s.committed(ctx, workflow.ActionCreate, order, actor)
	return order, nil
}

func (s *orderService) ConfirmOrder(ctx context.Context, actor *models.User, orderID uint) (*models.Order, error) {
	return s.transition(ctx, actor, workflow.ActionConfirm, orderID, nil)
}

// DispatchOrder takes the order's quantity from warehouse stock, unless a completed
// replenishment already delivered goods earmarked for this order.
func (s *orderService) DispatchOrder(ctx context.Context, actor *models.User, orderID uint) (*models.Order, error) {
	return s.transition(ctx, actor, workflow.ActionDispatch, orderID, func(o *models.Order) (*repository.Change, error) {
		if o.StockStatus == models.StockShipped {
			return nil, nil
		}
		return &repository.Change{StockDelta: -o.Quantity}, nil
	})
}

func (s *orderService) RequestStock(ctx context.Context, actor *models.User, orderID uint) (*models.Order, error) {
	return s.transition(ctx, actor, workflow.ActionRequestStock, orderID, func(o *models.Order) (*repository.Change, error) {
		product, err := s.productRepo.GetByName(ctx, o.ProductName)
		if err != nil {
			return nil, fmt.Errorf("price stock request for order %d: %w", o.ID, err)
		}
		o.ManufacturerPrice = product.WholesalePrice.Mul(decimal.NewFromInt(int64(o.Quantity)))
		return nil, nil
	})
}

func (s *orderService) RequestPayment(ctx context.Context, actor *models.User, orderID uint) (*models.Order, error) {
	return s.transition(ctx, actor, workflow.ActionRequestPayment, orderID, nil)
}

func (s *orderService) PayManufacturer(ctx context.Context, actor *models.User, orderID uint) (*models.Order, error) {
	return s.transition(ctx, actor, workflow.ActionPayManufacturer, orderID, func(o *models.Order) (*repository.Change, error) {
		return &repository.Change{Payment: &models.Payment{
			Amount:     o.ManufacturerPrice,
			Type:       models.PaymentManufacturer,
			RecordedBy: actor.ID,
		}}, nil
	})
}

// ShipStock leaves the shared pool alone: the shipped goods belong to the order that
// requested them and are consumed by its dispatch.
func (s *orderService) ShipStock(ctx context.Context, actor *models.User, orderID uint) (*models.Order, error) {
	return s.transition(ctx, actor, workflow.ActionShipStock, orderID, nil)
}

func (s *orderService) DeliverOrder(ctx context.Context, actor *models.User, orderID uint, collected decimal.Decimal) (*models.Order, error) {
	return s.transition(ctx, actor, workflow.ActionDeliver, orderID, func(o *models.Order) (*repository.Change, error) {
		if !collected.Equal(o.RemainingAmount) {
			return nil, fmt.Errorf("%w: must collect exact remaining amount %s, collected %s",
				workflow.ErrValidation, o.RemainingAmount.StringFixed(2), collected.StringFixed(2))
		}
		o.RemainingAmount = decimal.Zero
		o.FullyPaid = true
		if !collected.IsPositive() {
			return nil, nil
		}
		return &repository.Change{Payment: &models.Payment{
			Amount:     collected,
			Type:       models.PaymentRemaining,
			RecordedBy: actor.ID,
		}}, nil
	})
}

// transition runs one action as a single check-and-commit. Checks happen in a fixed
// order: role, existence, state, then whatever input validation effect performs.
// effect may edit the order and return side effects to commit with it.
func (s *orderService) transition(ctx context.Context, actor *models.User, action workflow.Action, orderID uint, effect repository.MutateFunc) (*models.Order, error) {
	if err := workflow.Authorize(action, actor.Role); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, "order:"+strconv.FormatUint(uint64(orderID), 10))
	if err != nil {
		return nil, err
	}
	defer unlock()

	order, err := s.orderRepo.Mutate(ctx, orderID, func(o *models.Order) (*repository.Change, error) {
		if err := workflow.Check(action, o); err != nil {
			return nil, err
		}
		var change *repository.Change
		if effect != nil {
			c, err := effect(o)
			if err != nil {
				return nil, err
			}
			change = c
		}
		if err := workflow.Apply(action, o); err != nil {
			return nil, err
		}
		return change, nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			return nil, fmt.Errorf("%w: insufficient stock to %s order %d: %w", workflow.ErrValidation, action, orderID, err)
		}
		return nil, err
	}

	s.committed(ctx, action, order, actor)
	return order, nil
}

// committed logs and publishes a transition that is already durable.
// Publishing failures never reach the caller.
func (s *orderService) committed(ctx context.Context, action workflow.Action, order *models.Order, actor *models.User) {
	s.logger.Info("order transition committed",
		zap.String("action", string(action)),
		zap.Uint("order_id", order.ID),
		zap.Uint("actor_id", actor.ID),
		zap.String("status", string(order.Status)),
		zap.String("stock_status", string(order.StockStatus)),
	)
	event := events.NewOrderEvent(string(action), order, actor)
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Warn("failed to publish order event",
			zap.String("event_id", event.ID),
			zap.Uint("order_id", order.ID),
			zap.Error(err),
		)
	}
}

// GetOrderForShopkeeper hides orders of other shopkeepers behind ErrNotFound.
func (s *orderService) GetOrderForShopkeeper(ctx context.Context, actor *models.User, orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ShopkeeperID != actor.ID {
		return nil, fmt.Errorf("order %d: %w", orderID, repository.ErrNotFound)
	}
	return order, nil
}

func (s *orderService) GetOrdersByShopkeeper(ctx context.Context, shopkeeperID uint) ([]models.Order, error) {
	return s.orderRepo.GetByShopkeeper(ctx, shopkeeperID)
}

func (s *orderService) GetOrdersByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	orders, err := s.orderRepo.GetByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	return s.withUsernames(ctx, orders), nil
}

func (s *orderService) GetStockRequests(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orderRepo.GetByStockStatus(ctx, models.OpenStockStatuses...)
	if err != nil {
		return nil, err
	}
	return s.withUsernames(ctx, orders), nil
}

// GetWarehousePendingActions lists orders waiting on the warehouse: replenishments to pay for
// and confirmed orders whose stock has arrived.
func (s *orderService) GetWarehousePendingActions(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orderRepo.GetByStockStatus(ctx, models.StockPaymentRequested, models.StockShipped)
	if err != nil {
		return nil, err
	}
	pending := orders[:0]
	for _, o := range orders {
		if o.StockStatus == models.StockPaymentRequested || o.Status == models.OrderConfirmed {
			pending = append(pending, o)
		}
	}
	return s.withUsernames(ctx, pending), nil
}

func (s *orderService) withUsernames(ctx context.Context, orders []models.Order) []models.Order {
	names := make(map[uint]string)
	for i := range orders {
		id := orders[i].ShopkeeperID
		name, ok := names[id]
		if !ok {
			if u, err := s.userRepo.GetByID(ctx, id); err == nil {
				name = u.Username
			} else {
				s.logger.Warn("shopkeeper lookup failed", zap.Uint("user_id", id), zap.Error(err))
			}
			names[id] = name
		}
		orders[i].Username = name
	}
	return orders
}
