package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/eventdesk/eventdesk-api/internal/domain"
	"github.com/eventdesk/eventdesk-api/internal/pkg/jwthelper"
	"github.com/eventdesk/eventdesk-api/internal/repository"
)

var (
	ErrUserEmailExists     = repository.ErrUserEmailExists
	ErrWrongPassword       = errors.New("wrong password")
	ErrInvalidRole         = errors.New("invalid role")
	ErrAdminSignupDisabled = errors.New("admin accounts cannot be created through signup")
	ErrInvalidToken        = jwthelper.ErrInvalidToken
	ErrSessionRevoked      = errors.New("session has been revoked")
)

type AuthUserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindByID(ctx context.Context, id uint) (domain.User, error)
}

type SessionRepository interface {
	Revoke(ctx context.Context, session domain.Session) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type AuthService struct {
	repo        AuthUserRepository
	sessions    SessionRepository
	key         []byte
	ttl         time.Duration
	adminSignup bool
	now         func() time.Time
}

// NewAuthService builds the auth service. Self-service signup only creates
// admins when allowAdminSignup is set.
func NewAuthService(repo AuthUserRepository, sessions SessionRepository, signingKey string, ttl time.Duration, allowAdminSignup bool) *AuthService {
	return &AuthService{
		repo:        repo,
		sessions:    sessions,
		key:         []byte(signingKey),
		ttl:         ttl,
		adminSignup: allowAdminSignup,
		now:         time.Now,
	}
}

func (s *AuthService) Signup(ctx context.Context, user domain.User) (domain.User, error) {
	if !user.Role.Valid() {
		return domain.User{}, ErrInvalidRole
	}
	if user.Role == domain.RoleAdmin && !s.adminSignup {
		return domain.User{}, ErrAdminSignupDisabled
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("bcrypt.GenerateFromPassword -> %w", err)
	}
	user.Password = string(hash)

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domain.User{}, ErrUserNotFound
		}

		return domain.User{}, fmt.Errorf("s.repo.FindByEmail -> %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return domain.User{}, ErrWrongPassword
	}

	return user, nil
}

// IssueToken signs a session token for user.
func (s *AuthService) IssueToken(user domain.User, userAgent string) (string, domain.Session, error) {
	token, claims, err := jwthelper.GenerateToken(s.key, user.ID, string(user.Role), userAgent, s.now(), s.ttl)
	if err != nil {
		return "", domain.Session{}, fmt.Errorf("jwthelper.GenerateToken -> %w", err)
	}

	return token, sessionFromClaims(claims), nil
}

// Authenticate resolves a bearer token into a session. Revoked tokens are
// refused even while their signature is still valid.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.Session, error) {
	claims, err := jwthelper.ParseToken(s.key, token)
	if err != nil {
		return domain.Session{}, fmt.Errorf("jwthelper.ParseToken -> %w", err)
	}

	revoked, err := s.sessions.IsRevoked(ctx, claims.ID)
	if err != nil {
		return domain.Session{}, fmt.Errorf("s.sessions.IsRevoked -> %w", err)
	}
	if revoked {
		return domain.Session{}, ErrSessionRevoked
	}

	return sessionFromClaims(claims), nil
}

func (s *AuthService) Me(ctx context.Context, session domain.Session) (domain.User, error) {
	user, err := s.repo.FindByID(ctx, session.UserID)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return user, nil
}

func (s *AuthService) Logout(ctx context.Context, session domain.Session) error {
	if err := s.sessions.Revoke(ctx, session); err != nil {
		return fmt.Errorf("s.sessions.Revoke -> %w", err)
	}

	if _, err := s.sessions.PurgeExpired(ctx, s.now()); err != nil {
		return fmt.Errorf("s.sessions.PurgeExpired -> %w", err)
	}

	return nil
}

func sessionFromClaims(c jwthelper.Claims) domain.Session {
	session := domain.Session{
		UserID:  c.UserID,
		Role:    domain.Role(c.Role),
		TokenID: c.ID,
	}
	if c.ExpiresAt != nil {
		session.ExpiresAt = c.ExpiresAt.Time
	}

	return session
}
