package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hearthstay/service-booking/internal/application"
	"github.com/hearthstay/service-booking/internal/common/auth"
	"github.com/hearthstay/service-booking/internal/common/middleware"
	"github.com/hearthstay/service-booking/internal/common/response"
)

// HostStatsUseCase returns dashboard figures for a host.
type HostStatsUseCase interface {
	HostBookingStats(ctx context.Context, hostID uuid.UUID) (*application.HostBookingStatsDTO, error)
}

// HostBookingHandler handles host dashboard requests.
type HostBookingHandler struct {
	service HostStatsUseCase
}

// NewHostBookingHandler creates a new HostBookingHandler.
func NewHostBookingHandler(service HostStatsUseCase) *HostBookingHandler {
	return &HostBookingHandler{service: service}
}

// RegisterRoutes registers host routes.
func (h *HostBookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	host := r.Group("/api/v1/host")
	host.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireHost())
	{
		host.GET("/bookings/stats", h.BookingStats)
	}
}

// BookingStats handles GET /api/v1/host/bookings/stats.
func (h *HostBookingHandler) BookingStats(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	stats, err := h.service.HostBookingStats(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"stats": stats})
}
