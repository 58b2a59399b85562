package api

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/flightstore/internal/domain"
	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

func queryDate(c *gin.Context, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD", domain.ErrInvalidInput, key)
	}
	return &d, nil
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
	}
	return n, nil
}
