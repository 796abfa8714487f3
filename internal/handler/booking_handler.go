package handler

import (
	"context"
	"iter"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hearthstay/service-booking/internal/application"
	"github.com/hearthstay/service-booking/internal/common/auth"
	"github.com/hearthstay/service-booking/internal/common/middleware"
	"github.com/hearthstay/service-booking/internal/common/response"
)

// BookingUseCases is the application surface the booking routes need.
type BookingUseCases interface {
	CreateBooking(ctx context.Context, guestID uuid.UUID, req application.CreateBookingRequest) (*application.BookingDTO, error)
	TransitionBookingStatus(ctx context.Context, bookingID, requesterID uuid.UUID, req application.UpdateStatusRequest) (*application.BookingDTO, error)
	DeleteBooking(ctx context.Context, bookingID, guestID uuid.UUID) error
	ListBookingsForActor(ctx context.Context, requesterID uuid.UUID, role auth.Role, view string) (iter.Seq2[application.BookingDTO, error], error)
	GetBooking(ctx context.Context, bookingID, requesterID uuid.UUID) (*application.BookingDTO, error)
	QuoteStay(ctx context.Context, req application.QuoteRequest) (*application.QuoteDTO, error)
}

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service BookingUseCases
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service BookingUseCases) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	bookings := r.Group("/api/v1/bookings")
	bookings.Use(middleware.AuthMiddleware(jwtManager))
	{
		bookings.POST("", h.CreateBooking)
		bookings.POST("/quote", h.QuoteStay)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.PUT("/:id", h.UpdateStatus)
		bookings.DELETE("/:id", h.DeleteBooking)
	}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{"booking": result})
}

// QuoteStay handles POST /api/v1/bookings/quote.
func (h *BookingHandler) QuoteStay(c *gin.Context) {
	var req application.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	result, err := h.service.QuoteStay(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"quote": result})
}

// ListBookings handles GET /api/v1/bookings?role=guest|host.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}
	role, _ := middleware.GetUserRole(c)

	seq, err := h.service.ListBookingsForActor(c.Request.Context(), userID, role, c.Query("role"))
	if err != nil {
		response.Error(c, err)
		return
	}

	bookings := make([]application.BookingDTO, 0)
	for bk, err := range seq {
		if err != nil {
			response.Error(c, err)
			return
		}
		bookings = append(bookings, bk)
	}

	response.Success(c, gin.H{"bookings": bookings})
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	userID, bookingID, ok := callerAndBooking(c)
	if !ok {
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), bookingID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"booking": result})
}

// UpdateStatus handles PUT /api/v1/bookings/:id.
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	userID, bookingID, ok := callerAndBooking(c)
	if !ok {
		return
	}

	var req application.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	result, err := h.service.TransitionBookingStatus(c.Request.Context(), bookingID, userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"booking": result})
}

// DeleteBooking handles DELETE /api/v1/bookings/:id.
func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	userID, bookingID, ok := callerAndBooking(c)
	if !ok {
		return
	}

	if err := h.service.DeleteBooking(c.Request.Context(), bookingID, userID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "Booking deleted successfully"})
}

// callerAndBooking extracts the authenticated user and the :id path parameter,
// writing the error response itself when either is missing.
func callerAndBooking(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return uuid.Nil, uuid.Nil, false
	}
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, bookingID, true
}
