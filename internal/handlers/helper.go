package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// parseIDParam reads a positive id path parameter, responding 400 when it is
// missing or malformed. Zero means a response was already written.
func (h *BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	idStr := strings.TrimSpace(c.Param(param))
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		h.RespondWithError(c, http.StatusBadRequest, CodeInvalidRequest, "Invalid "+param, "must be a positive integer")
		return 0
	}
	return uint(id)
}

// parseIntQuery reads an optional integer query parameter.
func (h *BaseHandler) parseIntQuery(c *gin.Context, name string) (*int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, CodeInvalidRequest, "Invalid "+name, "must be an integer")
		return nil, false
	}
	return &value, true
}
