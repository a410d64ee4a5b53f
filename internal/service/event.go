package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eventdesk/eventdesk-api/internal/domain"
	"github.com/eventdesk/eventdesk-api/internal/pkg/storage"
	"github.com/eventdesk/eventdesk-api/internal/repository"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

var (
	ErrEventNotFound         = repository.ErrEventNotFound
	ErrCapacityBelowApproved = errors.New("capacity cannot be lower than the number of approved participants")
	ErrInvalidBanner         = errors.New("banner must be an image")
	ErrStorageDisabled       = errors.New("object storage is not configured")
)

type EventRepository interface {
	List(ctx context.Context, filter domain.EventFilter, now time.Time) (domain.EventPage, error)
	FindByID(ctx context.Context, id uint) (domain.Event, error)
	Create(ctx context.Context, event domain.Event) (domain.Event, error)
	Update(ctx context.Context, event domain.Event) (domain.Event, error)
	UpdateBanner(ctx context.Context, id uint, url string) error
	Delete(ctx context.Context, id uint) error
}

type ApprovedCounter interface {
	CountApproved(ctx context.Context, eventID uint) (int, error)
}

type BannerUpload struct {
	ContentType string
	Body        io.Reader
	Size        int64
}

type EventService struct {
	repo     EventRepository
	approved ApprovedCounter
	storage  storage.Service
	now      func() time.Time
}

func NewEventService(repo EventRepository, approved ApprovedCounter, objectStorage storage.Service) *EventService {
	return &EventService{
		repo:     repo,
		approved: approved,
		storage:  objectStorage,
		now:      time.Now,
	}
}

func (s *EventService) List(ctx context.Context, filter domain.EventFilter) (domain.EventPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultPageLimit
	}
	if filter.Limit > maxPageLimit {
		filter.Limit = maxPageLimit
	}
	if filter.Date == "" {
		filter.Date = domain.DateAll
	}
	if filter.Sort == "" {
		filter.Sort = domain.SortDateDesc
	}

	page, err := s.repo.List(ctx, filter, s.now())
	if err != nil {
		return domain.EventPage{}, fmt.Errorf("s.repo.List -> %w", err)
	}

	return page, nil
}

func (s *EventService) Get(ctx context.Context, id uint) (domain.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return event, nil
}

func (s *EventService) Create(ctx context.Context, event domain.Event) (domain.Event, error) {
	created, err := s.repo.Create(ctx, event)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	zap.L().Info("event created", zap.Uint("event_id", created.ID), zap.String("title", created.Title))

	return created, nil
}

// Update replaces the editable fields of an event. Capacity cannot drop
// below the seats already approved.
func (s *EventService) Update(ctx context.Context, event domain.Event) (domain.Event, error) {
	approved, err := s.approved.CountApproved(ctx, event.ID)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.approved.CountApproved -> %w", err)
	}
	if event.Capacity < approved {
		return domain.Event{}, ErrCapacityBelowApproved
	}

	updated, err := s.repo.Update(ctx, event)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return updated, nil
}

func (s *EventService) Delete(ctx context.Context, id uint) error {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	if event.BannerURL != "" && s.storage != nil {
		if err := s.storage.DeleteObject(ctx, storage.BannerKey(id)); err != nil {
			zap.L().Warn("failed to delete event banner", zap.Uint("event_id", id), zap.Error(err))
		}
	}

	return nil
}

// UploadBanner stores the image in object storage and records its URL on
// the event.
func (s *EventService) UploadBanner(ctx context.Context, eventID uint, upload BannerUpload) (domain.Event, error) {
	if s.storage == nil {
		return domain.Event{}, ErrStorageDisabled
	}
	if !strings.HasPrefix(upload.ContentType, "image/") {
		return domain.Event{}, ErrInvalidBanner
	}

	if _, err := s.repo.FindByID(ctx, eventID); err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	url, err := s.storage.PutObject(ctx, storage.UploadInput{
		Key:         storage.BannerKey(eventID),
		ContentType: upload.ContentType,
		Body:        upload.Body,
		Size:        upload.Size,
	})
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.storage.PutObject -> %w", err)
	}

	if err := s.repo.UpdateBanner(ctx, eventID, url); err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.UpdateBanner -> %w", err)
	}

	return s.Get(ctx, eventID)
}

func (s *EventService) Categories() []string {
	return domain.EventCategories
}
