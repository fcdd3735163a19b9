package models

import (
	"time"

	"gorm.io/gorm"
)

// QuoteStatus represents the lifecycle of a quote request
type QuoteStatus string

const (
	QuotePending   QuoteStatus = "pending"
	QuoteResponded QuoteStatus = "responded"
	QuoteAccepted  QuoteStatus = "accepted"
	QuoteRejected  QuoteStatus = "rejected"
)

func (s QuoteStatus) Valid() bool {
	switch s {
	case QuotePending, QuoteResponded, QuoteAccepted, QuoteRejected:
		return true
	}
	return false
}

// Quote is a pricing request; an admin attaches a priced response to it
type Quote struct {
	ID           string      `json:"id" gorm:"primaryKey"`
	CustomerName string      `json:"customerName" gorm:"column:customer_name;not null"`
	Email        string      `json:"email" gorm:"not null"`
	Service      string      `json:"service" gorm:"not null"`
	Description  string      `json:"description"`
	Status       QuoteStatus `json:"status" gorm:"not null;default:'pending';index"`
	Price        *float64    `json:"price"`
	Response     string      `json:"response"`
	RespondedAt  *time.Time  `json:"respondedAt" gorm:"column:responded_at"`
	gorm.Model
}

// TableName specifies the table name for Quote Model
func (Quote) TableName() string {
	return "quotes"
}

func (q Quote) Summary() map[string]any {
	return map[string]any{
		"customerName": q.CustomerName,
		"email":        q.Email,
		"service":      q.Service,
		"status":       q.Status,
	}
}
