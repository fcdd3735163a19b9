package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"studio-ops-api/internal/models"
	"studio-ops-api/internal/realtime"
)

// CreateBookingRequest represents the public booking form
type CreateBookingRequest struct {
	CustomerName string    `json:"customerName" binding:"required"`
	Email        string    `json:"email" binding:"required,email"`
	Phone        string    `json:"phone"`
	Service      string    `json:"service" binding:"required"`
	SessionDate  time.Time `json:"sessionDate"`
	Notes        string    `json:"notes"`
}

/*
*
CreateBooking handles POST /api/bookings
Stores a booking request from the public site and notifies subscribed admins.
*/
func (h *Handler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking := models.Booking{
		ID:           "bk-" + uuid.NewString(),
		CustomerName: strings.TrimSpace(req.CustomerName),
		Email:        req.Email,
		Phone:        req.Phone,
		Service:      req.Service,
		SessionDate:  req.SessionDate,
		Notes:        req.Notes,
		Status:       models.BookingPending,
	}
	if err := h.DB.Create(&booking).Error; err != nil {
		h.Logger.Error("Create booking failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create booking"})
		return
	}

	h.Events.EmitNewRecord(realtime.TopicBookings, booking.ID, booking.Summary())
	c.JSON(http.StatusCreated, booking)
}

// GetBookings handles GET /api/bookings (admin)
func (h *Handler) GetBookings(c *gin.Context) {
	listRecords[models.Booking](h, c, "bookings")
}

// GetBookingByID handles GET /api/bookings/:id (admin)
func (h *Handler) GetBookingByID(c *gin.Context) {
	var booking models.Booking
	if !h.findRecord(c, &booking, "Booking") {
		return
	}
	c.JSON(http.StatusOK, booking)
}

// UpdateBookingStatus handles PATCH /api/bookings/:id/status (admin)
func (h *Handler) UpdateBookingStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status := models.BookingStatus(req.Status)
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	var booking models.Booking
	if !h.findRecord(c, &booking, "Booking") {
		return
	}

	old := booking.Status
	if err := h.DB.Model(&booking).Update("status", status).Error; err != nil {
		h.Logger.Error("Update booking status failed", "id", booking.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update status"})
		return
	}
	booking.Status = status

	if old != status {
		h.Events.EmitStatusChanged(realtime.TopicBookings, booking.ID, string(old), string(status))
	}
	c.JSON(http.StatusOK, booking)
}

// DeleteBooking handles DELETE /api/bookings/:id (admin)
func (h *Handler) DeleteBooking(c *gin.Context) {
	var booking models.Booking
	if !h.findRecord(c, &booking, "Booking") {
		return
	}

	if err := h.DB.Delete(&booking).Error; err != nil {
		h.Logger.Error("Delete booking failed", "id", booking.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete booking"})
		return
	}

	h.Events.EmitDeleted(realtime.TopicBookings, booking.ID, booking.Summary())
	c.JSON(http.StatusOK, gin.H{
		"message": "Booking deleted successfully",
		"id":      booking.ID,
	})
}
