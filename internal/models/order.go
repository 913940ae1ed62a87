package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is one shopkeeper purchase. Status and StockStatus move independently;
// the workflow package owns which moves are legal.
type Order struct {
	ID                uint            `json:"id" gorm:"primaryKey"`
	ShopkeeperID      uint            `json:"shopkeeper_id" gorm:"not null;index"`
	ProductName       string          `json:"product_name" gorm:"not null"`
	Quantity          int             `json:"quantity" gorm:"not null"`
	UnitPrice         decimal.Decimal `json:"unit_price" gorm:"type:decimal(20,2);not null"`
	TotalAmount       decimal.Decimal `json:"total_amount" gorm:"type:decimal(20,2);not null"`
	AdvancePayment    decimal.Decimal `json:"advance_payment" gorm:"type:decimal(20,2);not null;default:0"`
	RemainingAmount   decimal.Decimal `json:"remaining_amount" gorm:"type:decimal(20,2);not null"`
	FullyPaid         bool            `json:"fully_paid" gorm:"not null;default:false"`
	Status            OrderStatus     `json:"status" gorm:"type:varchar(32);not null;default:'placed';index"`
	ManufacturerPrice decimal.Decimal `json:"manufacturer_price" gorm:"type:decimal(20,2);not null;default:0"`
	StockStatus       StockStatus     `json:"stock_status" gorm:"type:varchar(32);not null;default:'none';index"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`

	Payments []Payment `json:"payments,omitempty" gorm:"foreignKey:OrderID"`

	// Username of the owning shopkeeper, filled in for staff listings.
	Username string `json:"username,omitempty" gorm:"-"`
}

// Clone returns a deep copy, payments included.
func (o *Order) Clone() *Order {
	c := *o
	if o.Payments != nil {
		c.Payments = make([]Payment, len(o.Payments))
		copy(c.Payments, o.Payments)
	}
	return &c
}

type OrderStatus string

const (
	OrderPlaced     OrderStatus = "placed"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderDispatched OrderStatus = "dispatched"
	OrderDelivered  OrderStatus = "delivered"
)

type StockStatus string

const (
	StockNone               StockStatus = "none"
	StockRequested          StockStatus = "stock_requested"
	StockPaymentRequested   StockStatus = "payment_requested"
	StockPaidToManufacturer StockStatus = "paid_to_manufacturer"
	StockShipped            StockStatus = "shipped"
)

// OpenStockStatuses are the replenishment states a manufacturer or warehouse still has to act on.
var OpenStockStatuses = []StockStatus{StockRequested, StockPaymentRequested, StockPaidToManufacturer}
