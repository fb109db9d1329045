package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// parseIDParam extracts and validates a numeric ID path parameter.
// Returns 0 after writing a 400 response when the value is not a valid ID.
func parseIDParam(c *gin.Context, name string) uint {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + name + " parameter",
			Details: raw,
		})
		return 0
	}
	return uint(id)
}

// ParseStringIDParam extracts a non-empty string ID path parameter.
// Returns "" after writing a 400 response when the value is missing.
func ParseStringIDParam(c *gin.Context, name string) string {
	raw := c.Param(name)
	if raw == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing " + name + " parameter",
		})
		return ""
	}
	return raw
}

// parseIntQuery reads an integer query parameter with a fallback default.
func parseIntQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
