package middlewares

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/delorenj/vaultsync/internal/server/handlers/api"
	"github.com/gin-gonic/gin"
)

var ErrUnauthorized = errors.New("missing or invalid bearer token")

// BearerToken rejects requests whose Authorization header does not carry token.
// An empty token disables the check.
func BearerToken(token string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if token == "" {
			ctx.Next()
			return
		}

		got, found := strings.CutPrefix(ctx.GetHeader("Authorization"), "Bearer ")
		if !found || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			api.AbortWithError(ctx, http.StatusUnauthorized, api.CodeUnauthorized, ErrUnauthorized)
			return
		}
		ctx.Next()
	}
}
