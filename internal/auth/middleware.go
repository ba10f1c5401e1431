package auth

import (
	"net/http"
	"strings"

	"github.com/AyanMustafa/Anevo/internal/store"
	"github.com/AyanMustafa/Anevo/internal/token"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const currentUserKey = "current_user"

// Middleware validates the bearer token and loads the user before any
// protected handler runs. Browsers cannot set headers on a websocket
// upgrade, so a `token` query parameter is accepted as fallback.
func Middleware(tokens *token.Service, users *store.UserStore) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		raw := strings.TrimPrefix(ctx.GetHeader("Authorization"), "Bearer ")
		if raw == "" {
			raw = ctx.Query("token")
		}
		if raw == "" {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "authorization token is missing"})
			ctx.Abort()
			return
		}

		userID, err := tokens.Validate(raw)
		if err != nil {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization token"})
			ctx.Abort()
			return
		}

		// Confirm the user still exists; a token can outlive its account.
		user, err := users.FindByID(ctx.Request.Context(), userID)
		if err != nil {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization token"})
			ctx.Abort()
			return
		}

		ctx.Set(currentUserKey, user.ID)
		ctx.Next()
	}
}

// CurrentUser returns the authenticated user id set by Middleware.
func CurrentUser(ctx *gin.Context) (uuid.UUID, bool) {
	v, ok := ctx.Get(currentUserKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
