package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Payment struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	OrderID    uint            `json:"order_id" gorm:"not null;index"`
	Amount     decimal.Decimal `json:"amount" gorm:"type:decimal(20,2);not null"`
	Type       PaymentType     `json:"payment_type" gorm:"type:varchar(32);not null"`
	RecordedBy uint            `json:"recorded_by" gorm:"not null"`
	CreatedAt  time.Time       `json:"created_at"`
}

// PaymentType represents what a payment settles
type PaymentType string

const (
	PaymentAdvance      PaymentType = "advance"
	PaymentRemaining    PaymentType = "remaining"
	PaymentManufacturer PaymentType = "manufacturer"
)
