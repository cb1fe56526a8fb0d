package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/Baaaki/yamdb/internal/apperrors"
	"github.com/Baaaki/yamdb/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func statusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation, apperrors.KindInvalidCredentials, apperrors.KindConflict:
		return http.StatusBadRequest
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindForbidden:
		return http.StatusForbidden
	case apperrors.KindUnauthenticated:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// respondError writes err as a field-keyed JSON body. Anything that is not an
// apperrors.Error is logged and reported as a bare 500.
func respondError(c *gin.Context, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		logger.Log.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			apperrors.DetailField: []string{"Internal server error"},
		})
		return
	}

	status := statusFor(appErr.Kind)
	logger.Log.Warn("Request rejected",
		zap.String("method", c.Request.Method),
		zap.String("route", c.FullPath()),
		zap.Int("status", status),
		zap.String("kind", string(appErr.Kind)),
	)
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", `Bearer realm="api"`)
	}
	c.AbortWithStatusJSON(status, appErr.Messages())
}

// bindJSON decodes the request body into dst. An empty body is accepted only
// when allowEmpty is set, which PATCH handlers use.
func bindJSON(c *gin.Context, dst any, allowEmpty bool) error {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) {
		if allowEmpty {
			return nil
		}
		return apperrors.FieldInvalid(apperrors.DetailField, "No data provided.")
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperrors.FieldInvalid(typeErr.Field, fmt.Sprintf("Expected a value of type %s.", typeErr.Type))
	}
	return apperrors.FieldInvalid(apperrors.DetailField, fmt.Sprintf("JSON parse error - %v", err))
}

// idParam parses a numeric path parameter. Anything else matches no resource.
func idParam(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.NotFound("Resource")
	}
	return uint(id), nil
}
