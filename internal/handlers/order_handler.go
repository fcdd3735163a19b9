package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"studio-ops-api/internal/models"
	"studio-ops-api/internal/realtime"
)

// CreateOrderRequest represents a public order
type CreateOrderRequest struct {
	CustomerName string  `json:"customerName" binding:"required"`
	Email        string  `json:"email" binding:"required,email"`
	Product      string  `json:"product" binding:"required"`
	Quantity     int     `json:"quantity"`
	Total        float64 `json:"total" binding:"gte=0"`
}

/*
*
CreateOrder handles POST /api/orders
Stores an order and notifies subscribed admins.
*/
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quantity := req.Quantity
	if quantity < 1 {
		quantity = 1
	}

	order := models.Order{
		ID:           "od-" + uuid.NewString(),
		CustomerName: strings.TrimSpace(req.CustomerName),
		Email:        req.Email,
		Product:      req.Product,
		Quantity:     quantity,
		Total:        req.Total,
		Status:       models.OrderPending,
	}
	if err := h.DB.Create(&order).Error; err != nil {
		h.Logger.Error("Create order failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		return
	}

	h.Events.EmitNewRecord(realtime.TopicOrders, order.ID, order.Summary())
	c.JSON(http.StatusCreated, order)
}

// GetOrders handles GET /api/orders (admin)
func (h *Handler) GetOrders(c *gin.Context) {
	listRecords[models.Order](h, c, "orders")
}

// GetOrderByID handles GET /api/orders/:id (admin)
func (h *Handler) GetOrderByID(c *gin.Context) {
	var order models.Order
	if !h.findRecord(c, &order, "Order") {
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrderStatus handles PATCH /api/orders/:id/status (admin)
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status := models.OrderStatus(req.Status)
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	var order models.Order
	if !h.findRecord(c, &order, "Order") {
		return
	}

	old := order.Status
	if err := h.DB.Model(&order).Update("status", status).Error; err != nil {
		h.Logger.Error("Update order status failed", "id", order.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update status"})
		return
	}
	order.Status = status

	if old != status {
		h.Events.EmitStatusChanged(realtime.TopicOrders, order.ID, string(old), string(status))
	}
	c.JSON(http.StatusOK, order)
}

// DeleteOrder handles DELETE /api/orders/:id (admin)
func (h *Handler) DeleteOrder(c *gin.Context) {
	var order models.Order
	if !h.findRecord(c, &order, "Order") {
		return
	}

	if err := h.DB.Delete(&order).Error; err != nil {
		h.Logger.Error("Delete order failed", "id", order.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete order"})
		return
	}

	h.Events.EmitDeleted(realtime.TopicOrders, order.ID, order.Summary())
	c.JSON(http.StatusOK, gin.H{
		"message": "Order deleted successfully",
		"id":      order.ID,
	})
}
