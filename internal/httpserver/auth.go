package httpserver

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"storefront/internal/domain"
	authsvc "storefront/internal/service/auth"

	"github.com/gin-gonic/gin"
)

type ctxKey string

const callerCtxKey ctxKey = "caller"

type signupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenRequest struct {
	GrantType string `form:"grant_type" binding:"required"`
	Username  string `form:"username" binding:"required"`
	Password  string `form:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	ExpiresIn   int              `json:"expires_in"`
	Principal   domain.Principal `json:"principal"`
}

type accountResponse struct {
	Principal domain.Principal `json:"principal"`
	Username  string           `json:"username"`
	Role      domain.Role      `json:"role"`
}

func tokenHandler(svc AuthService, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req tokenRequest
		if err := c.ShouldBind(&req); err != nil {
			writeError(c, http.StatusBadRequest, codeInvalidInput, "grant_type, username and password are required")
			return
		}
		if req.GrantType != "password" {
			writeError(c, http.StatusBadRequest, "unsupported_grant_type", "unsupported grant type")
			return
		}
		acc, token, err := svc.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			if errors.Is(err, authsvc.ErrInvalidCredentials) {
				writeError(c, http.StatusUnauthorized, codeInvalidCreds, "Customer account with the given credentials not found.")
				return
			}
			writeDomainError(c, err)
			return
		}
		logger.Printf("token issued principal=%s", acc.Principal)
		c.JSON(http.StatusOK, tokenResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   svc.AccessTTLSeconds(),
			Principal:   acc.Principal,
		})
	}
}

func signupHandler(svc AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req signupRequest
		if !bindJSON(c, &req) {
			return
		}
		acc, err := svc.Signup(c.Request.Context(), authsvc.SignupInput{Username: req.Username, Password: req.Password})
		if err != nil {
			writeDomainError(c, err)
			return
		}
		c.JSON(http.StatusCreated, accountResponse{Principal: acc.Principal, Username: acc.Username, Role: acc.Role})
	}
}

func logoutHandler(svc AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			writeError(c, http.StatusUnauthorized, codeInvalidToken, "missing bearer token")
			return
		}
		if err := svc.Logout(c.Request.Context(), token); err != nil {
			writeDomainError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// callerMiddleware resolves an optional bearer token into the caller's
// principal. Requests without a token proceed as the anonymous caller; a
// token that does not validate is rejected.
func callerMiddleware(svc AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		token := bearerToken(header)
		if token == "" {
			writeError(c, http.StatusUnauthorized, codeInvalidToken, "malformed authorization header")
			return
		}
		acc, err := svc.LookupByToken(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, authsvc.ErrInvalidToken) {
				writeError(c, http.StatusUnauthorized, codeInvalidToken, "invalid token")
				return
			}
			writeDomainError(c, err)
			return
		}
		ctx := context.WithValue(c.Request.Context(), callerCtxKey, acc.Principal)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func requireCaller() gin.HandlerFunc {
	return func(c *gin.Context) {
		if callerFrom(c).IsAnonymous() {
			writeError(c, http.StatusUnauthorized, codeUnauthorized, "authentication required")
			return
		}
		c.Next()
	}
}

func requireAdmin(svc AccessService) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := callerFrom(c)
		if caller.IsAnonymous() {
			writeError(c, http.StatusUnauthorized, codeUnauthorized, "authentication required")
			return
		}
		ok, err := svc.IsAdmin(c.Request.Context(), caller)
		if err != nil {
			writeDomainError(c, err)
			return
		}
		if !ok {
			writeError(c, http.StatusForbidden, codeForbidden, "admin role required")
			return
		}
		c.Next()
	}
}

func callerFrom(c *gin.Context) domain.Principal {
	p, _ := c.Request.Context().Value(callerCtxKey).(domain.Principal)
	return p
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
