package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"agriaid/services"
)

// Auth resolves the bearer token to an identity and aborts with 401 when
// there is none. Handlers downstream read the identity from the context and
// pass it into the forum service as a value.
func Auth(gate services.SessionGate) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
		if token == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		ident, err := gate.Identify(token)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		ctx.Set("identity", ident)
		ctx.Set("token", token)
		ctx.Next()
	}
}
