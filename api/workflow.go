package api

import (
	"net/http"
	"strings"

	"github.com/Domenick1991/flightstore/internal/domain"
	"github.com/Domenick1991/flightstore/internal/service/workflow"
	"github.com/gin-gonic/gin"
)

// WorkflowHandler exposes the storefront search and checkout steps. HTTP is
// stateless, so every request runs in a fresh session.
type WorkflowHandler struct {
	flights  workflow.FlightFinder
	bookings workflow.BookingCreator
}

type searchResponse struct {
	State   workflow.State  `json:"state"`
	Results []domain.Flight `json:"results"`
}

func NewWorkflowHandler(flights workflow.FlightFinder, bookings workflow.BookingCreator) *WorkflowHandler {
	return &WorkflowHandler{flights: flights, bookings: bookings}
}

func (h *WorkflowHandler) Register(router *gin.RouterGroup) {
	router.GET("/search", h.search)
	router.POST("/bookings", h.checkout)
}

func (h *WorkflowHandler) search(c *gin.Context) {
	date, err := queryDate(c, "date")
	if err != nil {
		badRequest(c, err)
		return
	}
	passengers, err := queryInt(c, "passengers", 1)
	if err != nil {
		badRequest(c, err)
		return
	}

	session := workflow.NewSession(h.flights, h.bookings)
	results, err := session.Search(c.Request.Context(), workflow.SearchRequest{
		FromCity:      strings.TrimSpace(c.Query("from")),
		ToCity:        strings.TrimSpace(c.Query("to")),
		DepartureDate: date,
		Passengers:    passengers,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if results == nil {
		results = []domain.Flight{}
	}
	c.JSON(http.StatusOK, searchResponse{State: session.State(), Results: results})
}

func (h *WorkflowHandler) checkout(c *gin.Context) {
	var req workflow.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	session := workflow.NewSession(h.flights, h.bookings)
	confirmation, err := session.Checkout(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, confirmation)
}
