package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Baaaki/yamdb/internal/apperrors"
	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const currentUserKey = "current_user"

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(token string) (*models.User, error)
}

// Authenticate attaches the caller to the context when an Authorization header
// is present. Requests without one continue anonymously; a bad token is a 401.
func Authenticate(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenString == "" {
			abortUnauthenticated(c, apperrors.Unauthenticated("Invalid authorization format. Use: Bearer <token>"))
			return
		}

		user, err := auth.Authenticate(tokenString)
		if err != nil {
			var appErr *apperrors.Error
			if !errors.As(err, &appErr) {
				logger.Log.Error("Token authentication failed", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					apperrors.DetailField: []string{"Internal server error"},
				})
				return
			}
			abortUnauthenticated(c, appErr)
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

func abortUnauthenticated(c *gin.Context, err *apperrors.Error) {
	if err == nil {
		err = apperrors.Unauthenticated("")
	}
	logger.Log.Warn("Rejected bearer token",
		zap.String("ip", c.ClientIP()),
		zap.String("path", c.FullPath()),
	)
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, err.Messages())
}

// CurrentUser returns the authenticated caller, or nil for anonymous requests.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
