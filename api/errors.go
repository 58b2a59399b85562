package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/flightstore/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type errorResponse struct {
	Error string `json:"error"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrFlightNotFound), errors.Is(err, domain.ErrBookingNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientSeats), errors.Is(err, domain.ErrSeatTaken), errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case domain.IsTransient(err):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError writes err with its mapped status. Internal errors are logged
// and replaced by a generic message.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		logrus.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		msg = "internal error"
	case http.StatusServiceUnavailable:
		logrus.WithError(err).WithField("path", c.FullPath()).Warn("backend unavailable")
		msg = "service temporarily unavailable, please retry"
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}
