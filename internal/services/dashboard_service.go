package services

import (
	"context"
	"fmt"

	"distributor/internal/models"
	"distributor/internal/workflow"
)

// Dashboard is the landing view of one role. Only the sections that role uses are set.
type Dashboard struct {
	Role             models.Role      `json:"role"`
	MyOrders         []models.Order   `json:"my_orders,omitempty"`
	PendingOrders    []models.Order   `json:"pending_orders,omitempty"`
	DispatchedOrders []models.Order   `json:"dispatched_orders,omitempty"`
	ConfirmedOrders  []models.Order   `json:"confirmed_orders,omitempty"`
	PendingActions   []models.Order   `json:"pending_actions,omitempty"`
	StockRequests    []models.Order   `json:"stock_requests,omitempty"`
	Stock            []models.Product `json:"stock,omitempty"`
}

type DashboardService interface {
	ForUser(ctx context.Context, user *models.User) (*Dashboard, error)
}

type dashboardService struct {
	orders   OrderService
	products ProductService
}

func NewDashboardService(orders OrderService, products ProductService) DashboardService {
	return &dashboardService{orders: orders, products: products}
}

func (s *dashboardService) ForUser(ctx context.Context, user *models.User) (*Dashboard, error) {
	d := &Dashboard{Role: user.Role}
	var err error

	switch user.Role {
	case models.RoleShopkeeper:
		d.MyOrders, err = s.orders.GetOrdersByShopkeeper(ctx, user.ID)
	case models.RoleSalesman:
		if d.PendingOrders, err = s.orders.GetOrdersByStatus(ctx, models.OrderPlaced); err != nil {
			return nil, err
		}
		d.DispatchedOrders, err = s.orders.GetOrdersByStatus(ctx, models.OrderDispatched)
	case models.RoleWarehouseManager:
		if d.ConfirmedOrders, err = s.orders.GetOrdersByStatus(ctx, models.OrderConfirmed); err != nil {
			return nil, err
		}
		if d.PendingActions, err = s.orders.GetWarehousePendingActions(ctx); err != nil {
			return nil, err
		}
		d.Stock, err = s.products.GetCatalog(ctx)
	case models.RoleManufacturer:
		d.StockRequests, err = s.orders.GetStockRequests(ctx)
	default:
		return nil, fmt.Errorf("%w: no dashboard for role %q", workflow.ErrForbidden, user.Role)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}
