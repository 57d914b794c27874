package webserver

import (
	"errors"
	"net/http"
	"strconv"

	"storefront/internal/cache"
	"storefront/internal/domain"
	"storefront/internal/identity"

	"github.com/gin-gonic/gin"
)

// errorResponse mirrors the backend's error envelope.
type errorResponse struct {
	StatusCode int           `json:"statusCode"`
	Message    string        `json:"message"`
	Errors     []errorDetail `json:"errors"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

const (
	codeNotFound      = "ResourceNotFound"
	codeInvalidField  = "InvalidField"
	codeInvalidInput  = "InvalidInput"
	codeLoginRequired = "LoginRequired"
	codeForbidden     = "InsufficientScope"
	codeEmptyCart     = "EmptyCart"
	codeInvalidCreds  = "invalid_customer_account_credentials"
	codeConflict      = "ConcurrentModification"
	codeUnavailable   = "ServiceUnavailable"
	codeRemote        = "RemoteCallFailed"
)

func writeError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorResponse{
		StatusCode: status,
		Message:    message,
		Errors:     []errorDetail{{Code: code, Message: message}},
	})
}

// writeActionError reports a failed action. Validation failures carry the
// offending field; anything unrecognised is a failed remote call.
func writeActionError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
			StatusCode: http.StatusBadRequest,
			Message:    verr.Error(),
			Errors:     []errorDetail{{Code: codeInvalidField, Message: verr.Message, Field: verr.Field}},
		})
	case errors.Is(err, identity.ErrInvalidCredentials):
		writeError(c, http.StatusUnauthorized, codeInvalidCreds, "invalid username or password")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(c, http.StatusUnauthorized, codeLoginRequired, "please log in first")
	case errors.Is(err, domain.ErrForbidden):
		writeError(c, http.StatusForbidden, codeForbidden, "access denied")
	case errors.Is(err, domain.ErrNotFound):
		writeError(c, http.StatusNotFound, codeNotFound, "resource not found")
	case errors.Is(err, domain.ErrEmptyCart):
		writeError(c, http.StatusConflict, codeEmptyCart, "your cart is empty")
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(c, http.StatusConflict, codeConflict, err.Error())
	case errors.Is(err, identity.ErrLoginInProgress):
		writeError(c, http.StatusConflict, codeConflict, err.Error())
	case errors.Is(err, cache.ErrNotReady):
		writeError(c, http.StatusServiceUnavailable, codeUnavailable, "backend connection not ready")
	default:
		_ = c.Error(err)
		writeError(c, http.StatusBadGateway, codeRemote, "remote call failed")
	}
}

func uintParam(c *gin.Context, name string) (uint64, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		writeError(c, http.StatusBadRequest, codeInvalidInput, "invalid "+name)
		return 0, false
	}
	return v, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, http.StatusBadRequest, codeInvalidInput, "invalid payload")
		return false
	}
	return true
}
