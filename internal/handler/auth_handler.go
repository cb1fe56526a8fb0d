package handler

import (
	"net/http"

	"github.com/Baaaki/yamdb/internal/metrics"
	"github.com/Baaaki/yamdb/internal/service"
	"github.com/Baaaki/yamdb/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *service.AuthService
	metrics     *metrics.Metrics
}

func NewAuthHandler(authService *service.AuthService, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		metrics:     m,
	}
}

// Signup registers a user, or re-sends a code to an existing one, and echoes
// the identifiers back.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req service.SignupInput
	if err := bindJSON(c, &req, false); err != nil {
		respondError(c, err)
		return
	}

	logger.Log.Info("Signup attempt",
		zap.String("username", req.Username),
		zap.String("ip", c.ClientIP()),
	)

	user, err := h.authService.Register(req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.metrics.Inc(metrics.EventSignup)
	c.JSON(http.StatusOK, gin.H{
		"email":    user.Email,
		"username": user.Username,
	})
}

// Token exchanges a username and confirmation code for a bearer token.
func (h *AuthHandler) Token(c *gin.Context) {
	var req service.TokenInput
	if err := bindJSON(c, &req, false); err != nil {
		respondError(c, err)
		return
	}

	token, err := h.authService.Exchange(req)
	if err != nil {
		logger.Log.Warn("Token exchange failed",
			zap.String("username", req.Username),
			zap.String("ip", c.ClientIP()),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	h.metrics.Inc(metrics.EventTokenIssued)
	c.JSON(http.StatusOK, gin.H{"token": token})
}
