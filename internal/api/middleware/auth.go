package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/eventdesk/eventdesk-api/internal/api/handler/v1/response"
	"github.com/eventdesk/eventdesk-api/internal/domain"
	"github.com/eventdesk/eventdesk-api/internal/service"
)

// SessionKey is the gin context key holding the caller's domain.Session.
const SessionKey = "session"

var (
	errMissingAuthHeader = errors.New("missing Authorization header")
	errMalformedToken    = errors.New("the Authorization header must be in the format of 'Bearer <token>'")
	errMissingSession    = errors.New("no authenticated session")
)

type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (domain.Session, error)
}

type Authenticator struct {
	auth SessionAuthenticator
}

func NewAuthenticator(auth SessionAuthenticator) *Authenticator {
	return &Authenticator{
		auth: auth,
	}
}

// VerifyJWT accepts the request only with a valid, unrevoked bearer token.
// Websocket handshakes may pass the token as the token query parameter.
func (a *Authenticator) VerifyJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		// Browsers cannot set headers on a websocket handshake.
		if header == "" && websocket.IsWebSocketUpgrade(ctx.Request) && ctx.Query("token") != "" {
			header = "Bearer " + ctx.Query("token")
		}

		token, err := bearerToken(header)
		if err != nil {
			response.RenderErr(ctx, response.ErrUnauthorized(err))
			return
		}

		session, err := a.auth.Authenticate(ctx.Request.Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrInvalidToken) || errors.Is(err, service.ErrSessionRevoked) {
				response.RenderErr(ctx, response.ErrUnauthorized(err))
				return
			}

			err = fmt.Errorf("middleware.VerifyJWT -> a.auth.Authenticate -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
			return
		}

		ctx.Set(SessionKey, session)
		ctx.Next()
	}
}

// RequireRole must be mounted after VerifyJWT.
func RequireRole(role domain.Role) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		session, ok := SessionFrom(ctx)
		if !ok {
			response.RenderErr(ctx, response.ErrUnauthorized(errMissingSession))
			return
		}

		if session.Role != role {
			response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("user %v is not an %v", session.UserID, role)))
			return
		}

		ctx.Next()
	}
}

func SessionFrom(ctx *gin.Context) (domain.Session, bool) {
	v, ok := ctx.Get(SessionKey)
	if !ok {
		return domain.Session{}, false
	}

	session, ok := v.(domain.Session)

	return session, ok
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errMissingAuthHeader
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errMalformedToken
	}

	return strings.TrimSpace(token), nil
}
