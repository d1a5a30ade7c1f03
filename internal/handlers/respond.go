package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agapovm/rodnya/internal/apperr"
)

// respondError отображает вид ошибки ядра в HTTP-статус.
// Неизвестные ошибки не просачиваются наружу деталями.
func respondError(c *gin.Context, err error) {
	var e *apperr.Error
	if errors.As(err, &e) {
		status := http.StatusInternalServerError
		switch e.Kind {
		case apperr.Validation:
			status = http.StatusBadRequest
		case apperr.Permission:
			status = http.StatusForbidden
		case apperr.NotFound:
			status = http.StatusNotFound
		case apperr.Conflict:
			status = http.StatusConflict
		case apperr.Transient:
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": e.Msg})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
