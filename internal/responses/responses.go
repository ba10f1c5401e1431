// Package responses maps store errors to HTTP statuses and keeps the
// JSON envelope consistent across handlers.
package responses

import (
	"errors"
	"net/http"

	"github.com/AyanMustafa/Anevo/internal/store"
	"github.com/AyanMustafa/Anevo/internal/token"
	"github.com/gin-gonic/gin"
)

func Error(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func Message(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}

// FromError translates a store or token error into the response the
// client contract requires. Anything outside the sentinel taxonomy is
// a transient infrastructure failure and reported as a 500.
func FromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidInput):
		Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrUnauthenticated), errors.Is(err, token.ErrUnauthenticated):
		Error(c, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, store.ErrForbidden):
		Error(c, http.StatusForbidden, "you don't have permission to do that")
	case errors.Is(err, store.ErrNotFound):
		Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrConflict):
		Error(c, http.StatusConflict, err.Error())
	default:
		Error(c, http.StatusInternalServerError, "internal server error")
	}
}
