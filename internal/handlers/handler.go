package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"studio-ops-api/internal/realtime"
)

// EventEmitter announces domain events to connected dashboards.
// *realtime.Notifier implements it.
type EventEmitter interface {
	EmitNewRecord(topic realtime.Topic, id string, summary any) realtime.Delivery
	EmitStatusChanged(topic realtime.Topic, id, oldStatus, newStatus string) realtime.Delivery
	EmitDeleted(topic realtime.Topic, id string, summary any) realtime.Delivery
	EmitResponseCreated(topic realtime.Topic, id string, response any) realtime.Delivery
}

// TokenIssuer signs login tokens. *auth.TokenService implements it.
type TokenIssuer interface {
	Generate(userID, username, role string) (string, error)
}

// RealtimeServer serves websocket upgrades and reports registry stats.
type RealtimeServer interface {
	http.Handler
	Stats() realtime.Stats
}

// Handler carries the dependencies shared by all HTTP handlers.
type Handler struct {
	DB       *gorm.DB
	Events   EventEmitter
	Tokens   TokenIssuer
	Realtime RealtimeServer
	Logger   *slog.Logger
}

type pagination struct {
	Page  int
	Limit int
	Sort  string
}

func (p pagination) order() string {
	if p.Sort == "asc" {
		return "created_at asc"
	}
	return "created_at desc"
}

func (p pagination) offset() int { return (p.Page - 1) * p.Limit }

// parsePagination reads page (default 1), limit (default 20, max 100) and
// sort (asc|desc on created_at, default desc).
func parsePagination(c *gin.Context) pagination {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	sort := strings.ToLower(c.DefaultQuery("sort", "desc"))
	if sort != "asc" {
		sort = "desc"
	}
	return pagination{Page: page, Limit: limit, Sort: sort}
}

// listRecords answers a paginated listing of T, optionally filtered by the
// status query parameter.
func listRecords[T any](h *Handler, c *gin.Context, key string) {
	p := parsePagination(c)
	query := h.DB.Model(new(T))
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		h.Logger.Error("Count failed", "resource", key, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count " + key})
		return
	}

	var items []T
	if err := query.Session(&gorm.Session{}).Order(p.order()).Limit(p.Limit).Offset(p.offset()).Find(&items).Error; err != nil {
		h.Logger.Error("List failed", "resource", key, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch " + key})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		key:     items,
		"count": len(items),
		"total": total,
		"page":  p.Page,
		"limit": p.Limit,
		"sort":  p.Sort,
	})
}

// findRecord loads the record named by the :id parameter into dst. It writes
// the error response and returns false when the record cannot be loaded.
func (h *Handler) findRecord(c *gin.Context, dst any, name string) bool {
	id := c.Param("id")
	if strings.TrimSpace(id) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " ID is required"})
		return false
	}

	if err := h.DB.Where("id = ?", id).First(dst).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": name + " not found"})
		} else {
			h.Logger.Error("Lookup failed", "resource", name, "id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch " + strings.ToLower(name)})
		}
		return false
	}
	return true
}

// UpdateStatusRequest is the body of every PATCH /:id/status endpoint
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
