package service

import (
	"context"
	"fmt"

	"github.com/eventdesk/eventdesk-api/internal/domain"
)

type FavoriteRepository interface {
	Add(ctx context.Context, userID, eventID uint) error
	Remove(ctx context.Context, userID, eventID uint) (bool, error)
	Exists(ctx context.Context, userID, eventID uint) (bool, error)
	ListEvents(ctx context.Context, userID uint) ([]domain.Event, error)
}

type FavoriteService struct {
	repo   FavoriteRepository
	events EventReader
}

func NewFavoriteService(repo FavoriteRepository, events EventReader) *FavoriteService {
	return &FavoriteService{
		repo:   repo,
		events: events,
	}
}

// Add is idempotent.
func (s *FavoriteService) Add(ctx context.Context, userID, eventID uint) error {
	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		return fmt.Errorf("s.events.FindByID -> %w", err)
	}

	if err := s.repo.Add(ctx, userID, eventID); err != nil {
		return fmt.Errorf("s.repo.Add -> %w", err)
	}

	return nil
}

// Remove is idempotent.
func (s *FavoriteService) Remove(ctx context.Context, userID, eventID uint) error {
	if _, err := s.repo.Remove(ctx, userID, eventID); err != nil {
		return fmt.Errorf("s.repo.Remove -> %w", err)
	}

	return nil
}

// Toggle flips the favorite and returns the new state.
func (s *FavoriteService) Toggle(ctx context.Context, userID, eventID uint) (bool, error) {
	removed, err := s.repo.Remove(ctx, userID, eventID)
	if err != nil {
		return false, fmt.Errorf("s.repo.Remove -> %w", err)
	}
	if removed {
		return false, nil
	}

	if err := s.Add(ctx, userID, eventID); err != nil {
		return false, err
	}

	return true, nil
}

func (s *FavoriteService) IsFavorite(ctx context.Context, userID, eventID uint) (bool, error) {
	exists, err := s.repo.Exists(ctx, userID, eventID)
	if err != nil {
		return false, fmt.Errorf("s.repo.Exists -> %w", err)
	}

	return exists, nil
}

func (s *FavoriteService) List(ctx context.Context, userID uint) ([]domain.Event, error) {
	events, err := s.repo.ListEvents(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListEvents -> %w", err)
	}

	return events, nil
}
