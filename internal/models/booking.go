package models

import (
	"time"

	"gorm.io/gorm"
)

// BookingStatus represents the lifecycle of a booking request
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

// Booking is a session request submitted from the public site
type Booking struct {
	ID           string        `json:"id" gorm:"primaryKey"`
	CustomerName string        `json:"customerName" gorm:"column:customer_name;not null"`
	Email        string        `json:"email" gorm:"not null"`
	Phone        string        `json:"phone"`
	Service      string        `json:"service" gorm:"not null"`
	SessionDate  time.Time     `json:"sessionDate" gorm:"column:session_date"`
	Notes        string        `json:"notes"`
	Status       BookingStatus `json:"status" gorm:"not null;default:'pending';index"`
	gorm.Model
}

// TableName specifies the table name for Booking Model
func (Booking) TableName() string {
	return "bookings"
}

// Summary is the event payload announced to admin dashboards.
func (b Booking) Summary() map[string]any {
	return map[string]any{
		"customerName": b.CustomerName,
		"email":        b.Email,
		"service":      b.Service,
		"sessionDate":  b.SessionDate,
		"status":       b.Status,
	}
}
