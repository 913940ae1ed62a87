package models

import (
	"time"
)

type User struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Username       string    `json:"username" gorm:"unique;not null"`
	Email          string    `json:"email" gorm:"unique;not null"`
	HashedPassword string    `json:"-" gorm:"not null"`
	Role           Role      `json:"role" gorm:"type:varchar(32);not null"`
	IsActive       bool      `json:"is_active" gorm:"default:true"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Role string

const (
	RoleShopkeeper       Role = "shopkeeper"
	RoleSalesman         Role = "salesman"
	RoleWarehouseManager Role = "warehouse_manager"
	RoleManufacturer     Role = "manufacturer"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleShopkeeper, RoleSalesman, RoleWarehouseManager, RoleManufacturer:
		return true
	}
	return false
}
