package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"studio-ops-api/internal/middleware"
	"studio-ops-api/internal/models"
	"studio-ops-api/internal/realtime"
)

// CreateQuoteRequest represents a public quote request
type CreateQuoteRequest struct {
	CustomerName string `json:"customerName" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Service      string `json:"service" binding:"required"`
	Description  string `json:"description"`
}

// RespondQuoteRequest is the admin's priced reply to a quote
type RespondQuoteRequest struct {
	Price    float64 `json:"price" binding:"required,gt=0"`
	Response string  `json:"response" binding:"required"`
}

/*
*
CreateQuote handles POST /api/quotes
Stores a quote request and notifies subscribed admins.
*/
func (h *Handler) CreateQuote(c *gin.Context) {
	var req CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quote := models.Quote{
		ID:           "qt-" + uuid.NewString(),
		CustomerName: strings.TrimSpace(req.CustomerName),
		Email:        req.Email,
		Service:      req.Service,
		Description:  req.Description,
		Status:       models.QuotePending,
	}
	if err := h.DB.Create(&quote).Error; err != nil {
		h.Logger.Error("Create quote failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create quote"})
		return
	}

	h.Events.EmitNewRecord(realtime.TopicQuotes, quote.ID, quote.Summary())
	c.JSON(http.StatusCreated, quote)
}

// GetQuotes handles GET /api/quotes (admin)
func (h *Handler) GetQuotes(c *gin.Context) {
	listRecords[models.Quote](h, c, "quotes")
}

// GetQuoteByID handles GET /api/quotes/:id (admin)
func (h *Handler) GetQuoteByID(c *gin.Context) {
	var quote models.Quote
	if !h.findRecord(c, &quote, "Quote") {
		return
	}
	c.JSON(http.StatusOK, quote)
}

// UpdateQuoteStatus handles PATCH /api/quotes/:id/status (admin)
func (h *Handler) UpdateQuoteStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status := models.QuoteStatus(req.Status)
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	var quote models.Quote
	if !h.findRecord(c, &quote, "Quote") {
		return
	}

	old := quote.Status
	if err := h.DB.Model(&quote).Update("status", status).Error; err != nil {
		h.Logger.Error("Update quote status failed", "id", quote.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update status"})
		return
	}
	quote.Status = status

	if old != status {
		h.Events.EmitStatusChanged(realtime.TopicQuotes, quote.ID, string(old), string(status))
	}
	c.JSON(http.StatusOK, quote)
}

/*
*
RespondToQuote handles POST /api/quotes/:id/response (admin)
Attaches a priced reply, marks the quote responded and announces the response.
*/
func (h *Handler) RespondToQuote(c *gin.Context) {
	var req RespondQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var quote models.Quote
	if !h.findRecord(c, &quote, "Quote") {
		return
	}

	now := time.Now().UTC()
	updates := map[string]any{
		"price":        req.Price,
		"response":     req.Response,
		"status":       models.QuoteResponded,
		"responded_at": now,
	}
	if err := h.DB.Model(&quote).Updates(updates).Error; err != nil {
		h.Logger.Error("Respond to quote failed", "id", quote.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save response"})
		return
	}
	quote.Price = &req.Price
	quote.Response = req.Response
	quote.Status = models.QuoteResponded
	quote.RespondedAt = &now

	h.Events.EmitResponseCreated(realtime.TopicQuotes, quote.ID, gin.H{
		"price":       req.Price,
		"response":    req.Response,
		"respondedAt": now,
		"respondedBy": c.GetString(middleware.ContextUsername),
	})
	c.JSON(http.StatusOK, quote)
}

// DeleteQuote handles DELETE /api/quotes/:id (admin)
func (h *Handler) DeleteQuote(c *gin.Context) {
	var quote models.Quote
	if !h.findRecord(c, &quote, "Quote") {
		return
	}

	if err := h.DB.Delete(&quote).Error; err != nil {
		h.Logger.Error("Delete quote failed", "id", quote.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete quote"})
		return
	}

	h.Events.EmitDeleted(realtime.TopicQuotes, quote.ID, quote.Summary())
	c.JSON(http.StatusOK, gin.H{
		"message": "Quote deleted successfully",
		"id":      quote.ID,
	})
}
