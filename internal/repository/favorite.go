package repository

import (
	"context"
	"fmt"

	"github.com/eventdesk/eventdesk-api/internal/domain"
	"github.com/eventdesk/eventdesk-api/internal/repository/dao"
)

type FavoriteDAO interface {
	Insert(ctx context.Context, userID, eventID uint) error
	Delete(ctx context.Context, userID, eventID uint) (bool, error)
	Exists(ctx context.Context, userID, eventID uint) (bool, error)
	ListEvents(ctx context.Context, userID uint) ([]dao.Event, error)
}

type FavoriteRepository struct {
	dao      FavoriteDAO
	eventMap *EventRepository
}

func NewFavoriteRepository(dao FavoriteDAO) *FavoriteRepository {
	return &FavoriteRepository{
		dao:      dao,
		eventMap: &EventRepository{},
	}
}

func (r *FavoriteRepository) Add(ctx context.Context, userID, eventID uint) error {
	if err := r.dao.Insert(ctx, userID, eventID); err != nil {
		return fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return nil
}

func (r *FavoriteRepository) Remove(ctx context.Context, userID, eventID uint) (bool, error) {
	removed, err := r.dao.Delete(ctx, userID, eventID)
	if err != nil {
		return false, fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return removed, nil
}

func (r *FavoriteRepository) Exists(ctx context.Context, userID, eventID uint) (bool, error) {
	exists, err := r.dao.Exists(ctx, userID, eventID)
	if err != nil {
		return false, fmt.Errorf("r.dao.Exists -> %w", err)
	}

	return exists, nil
}

func (r *FavoriteRepository) ListEvents(ctx context.Context, userID uint) ([]domain.Event, error) {
	found, err := r.dao.ListEvents(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListEvents -> %w", err)
	}

	events := make([]domain.Event, 0, len(found))
	for _, e := range found {
		events = append(events, r.eventMap.daoToDomain(e))
	}

	return events, nil
}
