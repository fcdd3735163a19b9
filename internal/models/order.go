package models

import (
	"gorm.io/gorm"
)

// OrderStatus represents the fulfilment state of an order
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// Order is a print or product order
type Order struct {
	ID           string      `json:"id" gorm:"primaryKey"`
	CustomerName string      `json:"customerName" gorm:"column:customer_name;not null"`
	Email        string      `json:"email" gorm:"not null"`
	Product      string      `json:"product" gorm:"not null"`
	Quantity     int         `json:"quantity" gorm:"not null;default:1"`
	Total        float64     `json:"total"`
	Status       OrderStatus `json:"status" gorm:"not null;default:'pending';index"`
	gorm.Model
}

// TableName specifies the table name for Order Model
func (Order) TableName() string {
	return "orders"
}

func (o Order) Summary() map[string]any {
	return map[string]any{
		"customerName": o.CustomerName,
		"email":        o.Email,
		"product":      o.Product,
		"quantity":     o.Quantity,
		"total":        o.Total,
		"status":       o.Status,
	}
}

