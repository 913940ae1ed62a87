package repository

import (
	"context"
	"errors"
	"fmt"

	"distributor/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Change is what a mutation writes besides the order row itself. It commits
// or rolls back together with the order.
type Change struct {
	Payment *models.Payment
	// StockDelta is added to the on-hand quantity of the order's product.
	// A negative delta fails with ErrInsufficientStock rather than going below zero.
	StockDelta int
}

// MutateFunc edits a private copy of the order. Returning an error discards the copy.
type MutateFunc func(order *models.Order) (*Change, error)

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order, payments ...*models.Payment) error
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	GetByShopkeeper(ctx context.Context, shopkeeperID uint) ([]models.Order, error)
	GetByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error)
	GetByStockStatus(ctx context.Context, statuses ...models.StockStatus) ([]models.Order, error)
	Mutate(ctx context.Context, id uint, fn MutateFunc) (*models.Order, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *models.Order, payments ...*models.Payment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		for _, p := range payments {
			p.OrderID = order.ID
			if err := tx.Create(p).Error; err != nil {
				return fmt.Errorf("failed to record %s payment: %w", p.Type, err)
			}
			order.Payments = append(order.Payments, *p)
		}
		return nil
	})
}

func (r *orderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Payments").First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get order %d: %w", id, err)
	}
	return &order, nil
}

func (r *orderRepository) GetByShopkeeper(ctx context.Context, shopkeeperID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).Preload("Payments").
		Where("shopkeeper_id = ?", shopkeeperID).Order("id").Find(&orders).Error
	return orders, err
}

func (r *orderRepository) GetByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).Preload("Payments").
		Where("status = ?", status).Order("id").Find(&orders).Error
	return orders, err
}

func (r *orderRepository) GetByStockStatus(ctx context.Context, statuses ...models.StockStatus) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).Preload("Payments").
		Where("stock_status IN ?", statuses).Order("id").Find(&orders).Error
	return orders, err
}

// Mutate holds a row lock on the order for the whole check-and-commit.
func (r *orderRepository) Mutate(ctx context.Context, id uint, fn MutateFunc) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("order %d: %w", id, ErrNotFound)
			}
			return fmt.Errorf("lock order %d: %w", id, err)
		}

		change, err := fn(&order)
		if err != nil {
			return err
		}

		if change != nil && change.StockDelta != 0 {
			if err := adjustStock(tx, order.ProductName, change.StockDelta); err != nil {
				return err
			}
		}
		if change != nil && change.Payment != nil {
			change.Payment.OrderID = order.ID
			if err := tx.Create(change.Payment).Error; err != nil {
				return fmt.Errorf("failed to record %s payment: %w", change.Payment.Type, err)
			}
		}

		if err := tx.Omit(clause.Associations).Save(&order).Error; err != nil {
			return fmt.Errorf("update order %d: %w", id, err)
		}
		return tx.Where("order_id = ?", order.ID).Order("id").Find(&order.Payments).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func adjustStock(tx *gorm.DB, productName string, delta int) error {
	result := tx.Model(&models.Product{}).
		Where("name = ? AND stock_quantity + ? >= 0", productName, delta).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", delta))
	if result.Error != nil {
		return fmt.Errorf("update stock for %s: %w", productName, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrInsufficientStock, productName)
	}
	return nil
}
