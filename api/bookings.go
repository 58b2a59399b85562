package api

import (
	"net/http"

	"github.com/Domenick1991/flightstore/internal/domain"
	"github.com/Domenick1991/flightstore/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type updateStatusRequest struct {
	Status domain.BookingStatus `json:"status" binding:"required"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

// Register mounts the customer routes. The caller identifies itself with the
// X-User-Email header.
func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.listMine)
	router.GET("/:id", h.get)
	router.POST("/:id/cancel", h.cancel)
}

func (h *BookingHandler) RegisterAdmin(router *gin.RouterGroup) {
	router.GET("", h.listAll)
	router.PATCH("/:id/status", h.updateStatus)
	router.DELETE("/:id", h.delete)
}

func (h *BookingHandler) listMine(c *gin.Context) {
	bookings, err := h.service.ListForUser(c.Request.Context(), userEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *BookingHandler) get(c *gin.Context) {
	email := userEmail(c)
	if email == "" {
		respondError(c, domain.ErrNotAuthenticated)
		return
	}
	b, err := h.service.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !b.OwnedBy(email) {
		respondError(c, domain.ErrBookingNotFound)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	b, err := h.service.CancelBooking(c.Request.Context(), c.Param("id"), userEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) listAll(c *gin.Context) {
	bookings, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *BookingHandler) updateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	b, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) delete(c *gin.Context) {
	if err := h.service.DeleteBooking(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
