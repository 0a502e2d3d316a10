package http

import (
	"errors"
	"net/http"

	"social-publisher/domain/errs"
	"social-publisher/usecase"

	"github.com/gin-gonic/gin"
)

// errorStatus maps engine errors to an HTTP status and a stable error code.
func errorStatus(err error) (int, string) {
	var (
		configErr  *errs.ConfigurationError
		refreshErr *errs.RefreshFailedError
		apiErr     *errs.PlatformAPIError
		uploadErr  *errs.MediaUploadError
	)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, errs.ErrUnsupportedPlatform):
		return http.StatusNotFound, "unsupported_platform"
	case errors.Is(err, errs.ErrInvalidState):
		return http.StatusBadRequest, "invalid_state"
	case errors.Is(err, errs.ErrExpiredState):
		return http.StatusBadRequest, "expired_state"
	case errors.Is(err, errs.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, usecase.ErrInvalidContent):
		return http.StatusBadRequest, "invalid_content"
	case errors.Is(err, errs.ErrNoRefreshToken), errors.Is(err, errs.ErrProfileNotConnected):
		return http.StatusConflict, "reconnect_required"
	case errors.Is(err, usecase.ErrInvalidSignature), errors.Is(err, usecase.ErrHandshakeRejected):
		return http.StatusForbidden, "verification_failed"
	case errors.As(err, &configErr):
		return http.StatusServiceUnavailable, "not_configured"
	case errors.As(err, &refreshErr):
		return http.StatusBadGateway, "refresh_failed"
	case errors.As(err, &uploadErr):
		return http.StatusBadGateway, "media_upload_failed"
	case errors.As(err, &apiErr):
		return http.StatusBadGateway, "platform_error"
	}
	return http.StatusInternalServerError, "internal_error"
}

func abortWithError(c *gin.Context, err error) {
	status, code := errorStatus(err)
	c.AbortWithStatusJSON(status, gin.H{"error": code, "message": err.Error()})
}
