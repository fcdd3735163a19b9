package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"studio-ops-api/internal/auth"
	"studio-ops-api/internal/models"
)

type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// GetAllUsers returns all users (admin)
// GET /api/users
func (h *Handler) GetAllUsers(c *gin.Context) {
	var users []models.User
	if err := h.DB.Order("username asc").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	// Map to safe response payload
	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, UserResponse{
			ID:       u.ID,
			Username: u.Username,
			Role:     u.Role,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"users": resp,
		"count": len(resp),
	})
}

// CreateUser stores a user with a bcrypt-hashed password. It backs the
// create-user command.
func CreateUser(db *gorm.DB, username, password, role string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required")
	}
	if role != models.RoleAdmin && role != models.RoleUser {
		return nil, fmt.Errorf("unknown role %q", role)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		ID:       "usr-" + uuid.NewString(),
		Username: username,
		Password: hash,
		Role:     role,
	}
	if err := db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", username, err)
	}
	return user, nil
}
