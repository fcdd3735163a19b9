package models

import (
	"gorm.io/gorm"
)

// Role values stored on users and carried in JWT claims.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents a user in the system
type User struct {
	ID       string `json:"id" gorm:"primaryKey"`
	Username string `json:"username" gorm:"unique;not null"`
	Password string `json:"-" gorm:"not null"`
	Role     string `json:"role" gorm:"not null;default:'user'"`
	gorm.Model
}

// TableName specifies the table name for User Model
func (User) TableName() string {
	return "users"
}
