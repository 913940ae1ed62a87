package workflow

import "distributor/internal/models"

// NextOrderStatus reports the single legal successor of s, if any.
func NextOrderStatus(s models.OrderStatus) (models.OrderStatus, bool) {
	switch s {
	case models.OrderPlaced:
		return models.OrderConfirmed, true
	case models.OrderConfirmed:
		return models.OrderDispatched, true
	case models.OrderDispatched:
		return models.OrderDelivered, true
	}
	return "", false
}

// NextStockStatus reports the single legal successor of s, if any.
func NextStockStatus(s models.StockStatus) (models.StockStatus, bool) {
	switch s {
	case models.StockNone:
		return models.StockRequested, true
	case models.StockRequested:
		return models.StockPaymentRequested, true
	case models.StockPaymentRequested:
		return models.StockPaidToManufacturer, true
	case models.StockPaidToManufacturer:
		return models.StockShipped, true
	}
	return "", false
}
