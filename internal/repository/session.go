package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/eventdesk/eventdesk-api/internal/domain"
	"github.com/eventdesk/eventdesk-api/internal/repository/dao"
)

type SessionDAO interface {
	Revoke(ctx context.Context, token dao.RevokedToken) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type SessionRepository struct {
	dao SessionDAO
}

func NewSessionRepository(dao SessionDAO) *SessionRepository {
	return &SessionRepository{
		dao: dao,
	}
}

func (r *SessionRepository) Revoke(ctx context.Context, session domain.Session) error {
	err := r.dao.Revoke(ctx, dao.RevokedToken{
		TokenID:   session.TokenID,
		UserID:    session.UserID,
		ExpiresAt: session.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("r.dao.Revoke -> %w", err)
	}

	return nil
}

func (r *SessionRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	revoked, err := r.dao.IsRevoked(ctx, tokenID)
	if err != nil {
		return false, fmt.Errorf("r.dao.IsRevoked -> %w", err)
	}

	return revoked, nil
}

func (r *SessionRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := r.dao.PurgeExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("r.dao.PurgeExpired -> %w", err)
	}

	return n, nil
}
