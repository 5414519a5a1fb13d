package middleware

import (
	"net/http"
	"strings"

	"ridecare-backend/pkg/jwt"
	"ridecare-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Session reports who is signed in to the store.
type Session interface {
	CurrentUserID() (string, bool)
}

// AuthMiddleware accepts a request when its token is valid and names the
// user currently signed in. A token issued before Logout is refused.
func AuthMiddleware(tokens *jwt.JWTUtil, session Session, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Handle both "Bearer token" and just "token" formats. Browsers
		// cannot set headers on websocket upgrades, so ?token= is accepted too.
		tokenString := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if tokenString == "" {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Authorization header required", nil)
			c.Abort()
			return
		}

		claims, err := tokens.ValidateToken(tokenString)
		if err != nil {
			logger.Debug("token rejected", zap.Error(err))
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid or expired token", nil)
			c.Abort()
			return
		}

		if userID, ok := session.CurrentUserID(); !ok || userID != claims.UserID {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Session ended, please log in again", nil)
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)
		c.Next()
	}
}
