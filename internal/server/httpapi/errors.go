package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps service errors to a status code and a client message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, common.MessageBadRequest
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict, common.MessageAlreadyExists
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusBadRequest, common.MessageUserNotFound
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusBadRequest, common.MessageWrongPassword
	case errors.Is(err, common.ErrInvalidRefreshToken):
		return http.StatusUnauthorized, common.MessageInvalidRefreshToken
	case errors.Is(err, common.ErrRefreshTokenExpired):
		return http.StatusUnauthorized, common.MessageRefreshExpired
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, common.MessageAccessTokenExpired
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrorUnauthenticated):
		return http.StatusUnauthorized, common.MessageUnauthenticated
	default:
		return http.StatusInternalServerError, common.MessageInternal
	}
}

func (s *HTTPServer) abortWithError(c *gin.Context, err error) {
	code, msg := statusFor(err)
	if code == http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed",
			"error", err, "request_id", c.GetString(requestIDKey))
	}
	if code == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", `Bearer realm="gophauth"`)
	}
	c.AbortWithStatusJSON(code, errorResponse{Error: msg})
}
