package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/eventdesk/eventdesk-api/internal/domain"
	"github.com/eventdesk/eventdesk-api/internal/service"
)

type stubAuth struct {
	sessions map[string]domain.Session
}

type brokenAuth struct{}

func (brokenAuth) Authenticate(context.Context, string) (domain.Session, error) {
	return domain.Session{}, errors.New("connection refused")
}

func (s stubAuth) Authenticate(_ context.Context, token string) (domain.Session, error) {
	session, ok := s.sessions[token]
	if !ok {
		return domain.Session{}, fmt.Errorf("jwthelper.ParseToken -> %w", service.ErrInvalidToken)
	}

	return session, nil
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	auth := NewAuthenticator(stubAuth{sessions: map[string]domain.Session{
		"user-token":  {UserID: 1, Role: domain.RoleUser},
		"admin-token": {UserID: 2, Role: domain.RoleAdmin},
	}})

	r := gin.New()
	r.GET("/me", auth.VerifyJWT(), func(ctx *gin.Context) {
		session, _ := SessionFrom(ctx)
		ctx.JSON(http.StatusOK, session)
	})
	r.GET("/admin", auth.VerifyJWT(), RequireRole(domain.RoleAdmin), func(ctx *gin.Context) {
		ctx.Status(http.StatusNoContent)
	})

	return r
}

func TestVerifyJWT(t *testing.T) {
	r := newRouter()

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic user-token", want: http.StatusUnauthorized},
		{name: "no token", header: "Bearer ", want: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "valid token", header: "Bearer user-token", want: http.StatusOK},
		{name: "scheme is case insensitive", header: "bearer user-token", want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestVerifyJWTWebsocketQueryToken(t *testing.T) {
	r := newRouter()

	upgrade := httptest.NewRequest(http.MethodGet, "/me?token=user-token", nil)
	upgrade.Header.Set("Connection", "Upgrade")
	upgrade.Header.Set("Upgrade", "websocket")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, upgrade)
	assert.Equal(t, http.StatusOK, rec.Code)

	plain := httptest.NewRequest(http.MethodGet, "/me?token=user-token", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, plain)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	r := newRouter()

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{name: "user is forbidden", token: "user-token", want: http.StatusForbidden},
		{name: "admin passes", token: "admin-token", want: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			rec := httptest.NewRecorder()

			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestVerifyJWTStoreFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/me", NewAuthenticator(brokenAuth{}).VerifyJWT(), func(ctx *gin.Context) {
		ctx.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
