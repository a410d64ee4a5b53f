package service

import (
	"context"
	"fmt"

	"github.com/eventdesk/eventdesk-api/internal/domain"
	"github.com/eventdesk/eventdesk-api/internal/repository"
)

var (
	ErrUserNotFound = repository.ErrUserNotFound
)

type UserRepository interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
	FindAdmins(ctx context.Context) ([]domain.User, error)
	UpdateName(ctx context.Context, id uint, name string) (domain.User, error)
}

type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{
		repo: repo,
	}
}

func (s *UserService) GetUser(ctx context.Context, id uint) (domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return user, nil
}

func (s *UserService) UpdateName(ctx context.Context, id uint, name string) (domain.User, error) {
	user, err := s.repo.UpdateName(ctx, id, name)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.UpdateName -> %w", err)
	}

	return user, nil
}

// Admins lists the accounts allowed into the admin dashboard.
func (s *UserService) Admins(ctx context.Context) ([]domain.User, error) {
	admins, err := s.repo.FindAdmins(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAdmins -> %w", err)
	}

	return admins, nil
}
