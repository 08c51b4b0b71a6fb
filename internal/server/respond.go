package server

import (
	"errors"
	"net/http"

	"github.com/soyaya/boardling-sub002/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError translates the storage error taxonomy into HTTP statuses.
// ErrTransientLock maps to 503 so clients know the request is retryable.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrStateConflict),
		errors.Is(err, store.ErrDuplicateTransaction),
		errors.Is(err, store.ErrInsufficientBalance):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrAuthorization):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrTransientLock):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage busy, retry the request"})
	default:
		zap.L().Error("Unhandled request error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
