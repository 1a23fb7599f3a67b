package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"servora/models"
	"servora/services/booking"
	"servora/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const bookingCacheTTL = 30 * time.Second

// BookingHandler exposes the booking lifecycle over HTTP.
type BookingHandler struct {
	Service booking.BookingService
	Logger  *zap.Logger
}

func NewBookingHandler(svc booking.BookingService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Service: svc, Logger: logger}
}

// respondServiceError maps the engine's error taxonomy onto HTTP codes.
func (h *BookingHandler) respondServiceError(c *gin.Context, err error) {
	var (
		validationErr *booking.ValidationError
		forbiddenErr  *booking.ForbiddenError
		conflictErr   *booking.ConflictError
		notFoundErr   *booking.NotFoundError
	)
	switch {
	case errors.As(err, &validationErr):
		utils.JSONError(c, http.StatusBadRequest, "invalid request", validationErr.Message)
	case errors.As(err, &forbiddenErr):
		utils.JSONError(c, http.StatusForbidden, "not authorized for this booking", "")
	case errors.As(err, &conflictErr):
		// Benign: the booking was already resolved. The client should
		// refetch and re-render rather than treat this as a fault.
		c.JSON(http.StatusConflict, gin.H{
			"error":          "booking already resolved",
			"current_status": conflictErr.Current,
		})
	case errors.As(err, &notFoundErr):
		utils.JSONError(c, http.StatusNotFound, "booking not found", "")
	default:
		h.Logger.Error("booking operation failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "booking operation failed", "")
	}
}

func (h *BookingHandler) invalidateCache(bookingID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := utils.GetCacheClient().Del(ctx, "booking:"+bookingID).Err(); err != nil {
		h.Logger.Warn("failed to invalidate booking cache", zap.String("bookingID", bookingID), zap.Error(err))
	}
}

// CreateBooking opens a pending booking with an authorization hold.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	customerID := c.GetString("customerID")

	var input struct {
		ProviderID      string `json:"provider_id" binding:"required"`
		ServiceID       string `json:"service_id" binding:"required"`
		BaseAmount      int64  `json:"base_amount" binding:"required,gt=0"`
		TotalAmount     int64  `json:"total_amount" binding:"required,gt=0"`
		PaymentMethodID string `json:"payment_method_id" binding:"required"`
		Description     string `json:"description"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	b, err := h.Service.Create(c.Request.Context(), booking.CreateBookingRequest{
		CustomerID:      customerID,
		ProviderID:      input.ProviderID,
		ServiceID:       input.ServiceID,
		BaseAmount:      input.BaseAmount,
		TotalAmount:     input.TotalAmount,
		PaymentMethodID: input.PaymentMethodID,
		Description:     input.Description,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// GetBooking returns a booking, served from the Redis read cache when fresh.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID := c.Param("id")
	cacheKey := "booking:" + bookingID
	cacheClient := utils.GetCacheClient()

	ctx := c.Request.Context()
	if cached, err := cacheClient.Get(ctx, cacheKey).Result(); err == nil {
		var b models.Booking
		if jsonErr := json.Unmarshal([]byte(cached), &b); jsonErr == nil {
			c.JSON(http.StatusOK, b)
			return
		}
	}

	b, err := h.Service.Get(ctx, bookingID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	if data, err := json.Marshal(b); err == nil {
		if err := cacheClient.Set(ctx, cacheKey, data, bookingCacheTTL).Err(); err != nil {
			h.Logger.Warn("failed to cache booking", zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, b)
}

// AcceptBooking lets the assigned provider accept a pending booking.
func (h *BookingHandler) AcceptBooking(c *gin.Context) {
	bookingID := c.Param("id")
	providerID := c.GetString("providerID")

	b, err := h.Service.Accept(c.Request.Context(), bookingID, providerID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	h.invalidateCache(bookingID)
	c.JSON(http.StatusOK, b)
}

// DeclineBooking lets the assigned provider decline a pending booking.
func (h *BookingHandler) DeclineBooking(c *gin.Context) {
	bookingID := c.Param("id")
	providerID := c.GetString("providerID")

	var input struct {
		Reason string `json:"reason" binding:"max=500"`
	}
	if err := c.ShouldBindJSON(&input); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	b, err := h.Service.Decline(c.Request.Context(), bookingID, providerID, input.Reason)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	h.invalidateCache(bookingID)
	c.JSON(http.StatusOK, b)
}

// CompleteBooking triggers the remaining capture and the provider payout.
func (h *BookingHandler) CompleteBooking(c *gin.Context) {
	bookingID := c.Param("id")
	providerID := c.GetString("providerID")

	result, err := h.Service.Complete(c.Request.Context(), bookingID, providerID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	h.invalidateCache(bookingID)

	resp := gin.H{
		"booking":     result.Booking,
		"charge_done": result.ChargeDone,
	}
	if result.TransferID != "" {
		resp["transfer_id"] = result.TransferID
	}
	if result.FailedStep != "" {
		// The booking completed; only the payment step named here needs
		// attention. Distinguish so the client can say which.
		resp["failed_step"] = result.FailedStep
		resp["failure_detail"] = result.FailureDetail
	}
	c.JSON(http.StatusOK, resp)
}

// CancelBooking lets the customer cancel an accepted booking.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID := c.Param("id")
	customerID := c.GetString("customerID")

	b, err := h.Service.Cancel(c.Request.Context(), bookingID, customerID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	h.invalidateCache(bookingID)
	c.JSON(http.StatusOK, b)
}

// ListProviderBookings returns the calling provider's bookings.
func (h *BookingHandler) ListProviderBookings(c *gin.Context) {
	providerID := c.GetString("providerID")
	bookings, err := h.Service.ListForProvider(c.Request.Context(), providerID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// ListCustomerBookings returns the calling customer's bookings.
func (h *BookingHandler) ListCustomerBookings(c *gin.Context) {
	customerID := c.GetString("customerID")
	bookings, err := h.Service.ListForCustomer(c.Request.Context(), customerID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}
