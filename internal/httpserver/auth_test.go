package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront/internal/domain"
	authsvc "storefront/internal/service/auth"
)

func TestSignupHandler_Created(t *testing.T) {
	router := newTestRouter(t, stubDeps())
	rec := doRequest(router, http.MethodPost, "/auth/signup", "", strings.NewReader(`{"username":"ann","password":"Abcdefg1"}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"username":"ann"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestSignupHandler_Conflict(t *testing.T) {
	deps := stubDeps()
	deps.AuthSvc.(*stubAuthService).signErr = domain.ErrAlreadyExists
	router := newTestRouter(t, deps)
	rec := doRequest(router, http.MethodPost, "/auth/signup", "", strings.NewReader(`{"username":"ann","password":"Abcdefg1"}`))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestTokenHandler_InvalidCredentials(t *testing.T) {
	deps := stubDeps()
	deps.AuthSvc.(*stubAuthService).loginErr = authsvc.ErrInvalidCredentials
	router := newTestRouter(t, deps)

	body := `grant_type=password&username=ann&password=badpass`
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestTokenHandler_Success(t *testing.T) {
	deps := stubDeps()
	deps.AuthSvc.(*stubAuthService).account = &domain.Account{Principal: userPrincipal}
	router := newTestRouter(t, deps)

	body := `grant_type=password&username=ann&password=Abcdefg1`
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"access_token":"access"`) || !strings.Contains(rec.Body.String(), string(userPrincipal)) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestTokenHandler_UnsupportedGrant(t *testing.T) {
	router := newTestRouter(t, stubDeps())
	body := `grant_type=client_credentials&username=ann&password=x`
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLogoutHandler(t *testing.T) {
	deps := stubDeps()
	router := newTestRouter(t, deps)

	rec := doRequest(router, http.MethodPost, "/auth/logout", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	rec = doRequest(router, http.MethodPost, "/auth/logout", "user-token", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if revoked := deps.AuthSvc.(*stubAuthService).revoked; len(revoked) != 1 || revoked[0] != "user-token" {
		t.Fatalf("unexpected revoked tokens %v", revoked)
	}
}
