package httputil

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ParseDays safely parses and validates a "days" query parameter used by
// time-windowed endpoints. It defaults to 7 and cannot exceed 365.
func ParseDays(c *gin.Context) (int, error) {
	daysStr := c.DefaultQuery("days", "7")
	days, err := strconv.Atoi(daysStr)
	if err != nil || days < 1 || days > 365 {
		return 0, fmt.Errorf("invalid days parameter: must be between 1 and 365")
	}

	return days, nil
}
