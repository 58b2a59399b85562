package api

import (
	"net/http"
	"strings"

	"github.com/Domenick1991/flightstore/internal/domain"
	"github.com/Domenick1991/flightstore/internal/service/flights"
	"github.com/gin-gonic/gin"
)

type FlightHandler struct {
	service flights.FlightUseCase
}

func NewFlightHandler(service flights.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.GET("/:id/quote", h.quote)
}

func (h *FlightHandler) RegisterAdmin(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.PUT("/:id", h.update)
	router.DELETE("/:id", h.delete)
	router.PATCH("/:id/book", h.bookSeats)
}

// list returns every flight, or a filtered search when any of the from, to,
// date or passengers query parameters is present.
func (h *FlightHandler) list(c *gin.Context) {
	from, to := strings.TrimSpace(c.Query("from")), strings.TrimSpace(c.Query("to"))
	date, err := queryDate(c, "date")
	if err != nil {
		badRequest(c, err)
		return
	}
	seats, err := queryInt(c, "passengers", 0)
	if err != nil {
		badRequest(c, err)
		return
	}

	var result []domain.Flight
	if from != "" || to != "" || date != nil || seats > 0 {
		result, err = h.service.Search(c.Request.Context(), flights.SearchInput{FromCity: from, ToCity: to, DepartureDate: date, MinSeats: seats})
	} else {
		result, err = h.service.List(c.Request.Context(), domain.FlightOrder(c.Query("order")))
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *FlightHandler) get(c *gin.Context) {
	flight, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (h *FlightHandler) quote(c *gin.Context) {
	passengers, err := queryInt(c, "passengers", 1)
	if err != nil {
		badRequest(c, err)
		return
	}
	q, err := h.service.Quote(c.Request.Context(), c.Param("id"), domain.SeatClass(c.Query("class")), passengers)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *FlightHandler) create(c *gin.Context) {
	var req flights.CreateFlightInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	flight, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, flight)
}

func (h *FlightHandler) update(c *gin.Context) {
	var patch domain.FlightPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	flight, err := h.service.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (h *FlightHandler) delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FlightHandler) bookSeats(c *gin.Context) {
	var req flights.BookSeatsInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	flight, err := h.service.BookSeats(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func seatClasses(c *gin.Context) {
	c.JSON(http.StatusOK, domain.SeatClasses())
}
