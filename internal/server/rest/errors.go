package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/projectgate/internal/common"
	"github.com/gin-gonic/gin"
)

const (
	codeValidation         = "VALIDATION_ERROR"
	codeDuplicateUsername  = "DUPLICATE_USERNAME"
	codeInvalidCredentials = "INVALID_CREDENTIALS"
	codeUnauthenticated    = "UNAUTHENTICATED"
	codeForbidden          = "FORBIDDEN"
	codeNotFound           = "NOT_FOUND"
	codeInternal           = "INTERNAL_SERVER_ERROR"
)

// respondError sends the unified error payload {"error": {"code", "message"}}
// and aborts the handler chain.
func respondError(c *gin.Context, status int, code, message string) {
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", common.BearerScheme)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}

func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, codeValidation
	case errors.Is(err, common.ErrDuplicateUsername):
		return http.StatusBadRequest, codeDuplicateUsername
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, codeInvalidCredentials
	case errors.Is(err, common.ErrUnauthenticated),
		errors.Is(err, common.ErrTokenMalformed),
		errors.Is(err, common.ErrTokenSignature),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrTokenRevoked):
		return http.StatusUnauthorized, codeUnauthenticated
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden, codeForbidden
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

// writeError maps a service error to its HTTP response. Internal errors are
// logged and replaced with a generic message.
func (s *HTTPServer) writeError(c *gin.Context, err error) {
	status, code := statusOf(err)

	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		s.logger.Error(c.Request.Context(), "request failed", "error", err, "request_id", c.GetString(ctxRequestIDKey))
		msg = "internal server error"
	case http.StatusUnauthorized:
		// do not reveal which check failed
		if code == codeUnauthenticated {
			msg = common.ErrUnauthenticated.Error()
		}
	}

	respondError(c, status, code, msg)
}
