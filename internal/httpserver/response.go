package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"storefront/internal/domain"
	authsvc "storefront/internal/service/auth"

	"github.com/gin-gonic/gin"
)

// errorResponse follows the commercetools error envelope.
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

// Error codes shared with the storefront rpc client.
const (
	codeNotFound     = "ResourceNotFound"
	codeInvalidField = "InvalidField"
	codeInvalidInput = "InvalidInput"
	codeInvalidToken = "invalid_token"
	codeUnauthorized = "Unauthorized"
	codeForbidden    = "InsufficientScope"
	codeDuplicate    = "DuplicateField"
	codeEmptyCart    = "EmptyCart"
	codeInvalidCreds = "invalid_customer_account_credentials"
	codeGeneral      = "General"
)

func writeError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorResponse{
		StatusCode: status,
		Message:    message,
		Errors:     []errorDetail{{Code: code, Message: message}},
	})
}

// writeDomainError maps service errors onto HTTP status codes.
func writeDomainError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
			StatusCode: http.StatusBadRequest,
			Message:    verr.Error(),
			Errors:     []errorDetail{{Code: codeInvalidField, Message: verr.Message, Field: verr.Field}},
		})
	case errors.Is(err, domain.ErrNotFound):
		writeError(c, http.StatusNotFound, codeNotFound, "resource not found")
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(c, http.StatusConflict, codeDuplicate, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(c, http.StatusUnauthorized, codeUnauthorized, "authentication required")
	case errors.Is(err, authsvc.ErrInvalidToken):
		writeError(c, http.StatusUnauthorized, codeInvalidToken, "invalid token")
	case errors.Is(err, domain.ErrForbidden):
		writeError(c, http.StatusForbidden, codeForbidden, "insufficient permissions")
	case errors.Is(err, domain.ErrEmptyCart):
		writeError(c, http.StatusConflict, codeEmptyCart, err.Error())
	default:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, codeGeneral, "internal error")
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
