package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry together with the warehouse's on-hand quantity.
type Product struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	Name           string          `json:"product_name" gorm:"unique;not null"`
	UnitPrice      decimal.Decimal `json:"unit_price" gorm:"type:decimal(20,2);not null"`
	WholesalePrice decimal.Decimal `json:"wholesale_price" gorm:"type:decimal(20,2);not null"`
	StockQuantity  int             `json:"quantity" gorm:"not null;default:0"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// DefaultProducts is the catalog seeded into a fresh store.
func DefaultProducts() []Product {
	entry := func(name string, retail, wholesale int64, stock int) Product {
		return Product{
			Name:           name,
			UnitPrice:      decimal.NewFromInt(retail),
			WholesalePrice: decimal.NewFromInt(wholesale),
			StockQuantity:  stock,
		}
	}
	return []Product{
		entry("candy", 100, 70, 5),
		entry("snacks", 150, 105, 5),
		entry("chocolates", 200, 140, 5),
		entry("biscuits", 250, 175, 5),
		entry("cold_drinks", 50, 35, 5),
		entry("chewing_gums", 30, 20, 5),
		entry("juices", 120, 85, 5),
		entry("jelly", 80, 55, 5),
	}
}
