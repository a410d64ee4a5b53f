package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/eventdesk/eventdesk-api/internal/domain"
	"github.com/eventdesk/eventdesk-api/internal/repository/dao"
)

var ErrEventNotFound = dao.ErrEventNotFound

type EventDAO interface {
	Insert(ctx context.Context, event dao.Event) (dao.Event, error)
	FindByID(ctx context.Context, id uint) (dao.Event, error)
	List(ctx context.Context, q dao.EventQuery) ([]dao.Event, int64, error)
	Update(ctx context.Context, event dao.Event) (dao.Event, error)
	UpdateBanner(ctx context.Context, id uint, url string) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
	CountUpcoming(ctx context.Context, now time.Time) (int64, error)
	CountByCategory(ctx context.Context) ([]dao.CategoryCount, error)
}

type EventRepository struct {
	dao EventDAO
}

func NewEventRepository(dao EventDAO) *EventRepository {
	return &EventRepository{
		dao: dao,
	}
}

var eventOrder = map[domain.EventSort]string{
	domain.SortDateDesc:   "date DESC",
	domain.SortDateAsc:    "date ASC",
	domain.SortPopularity: "participants_count DESC",
	domain.SortName:       "title ASC",
}

// List pages through events matching filter. Date ranges are resolved
// against now.
func (r *EventRepository) List(ctx context.Context, filter domain.EventFilter, now time.Time) (domain.EventPage, error) {
	q := dao.EventQuery{
		Category: filter.Category,
		Search:   filter.Search,
		OrderBy:  eventOrder[filter.Sort],
		Offset:   (filter.Page - 1) * filter.Limit,
		Limit:    filter.Limit,
	}
	if from, to, ok := filter.Date.Bounds(now); ok {
		q.From, q.To = &from, &to
	}

	found, total, err := r.dao.List(ctx, q)
	if err != nil {
		return domain.EventPage{}, fmt.Errorf("r.dao.List -> %w", err)
	}

	events := make([]domain.Event, 0, len(found))
	for _, e := range found {
		events = append(events, r.daoToDomain(e))
	}

	return domain.EventPage{
		Events: events,
		Total:  total,
		Page:   filter.Page,
		Limit:  filter.Limit,
	}, nil
}

func (r *EventRepository) FindByID(ctx context.Context, id uint) (domain.Event, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *EventRepository) Create(ctx context.Context, event domain.Event) (domain.Event, error) {
	created, err := r.dao.Insert(ctx, r.domainToDao(event))
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *EventRepository) Update(ctx context.Context, event domain.Event) (domain.Event, error) {
	updated, err := r.dao.Update(ctx, r.domainToDao(event))
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *EventRepository) UpdateBanner(ctx context.Context, id uint, url string) error {
	if err := r.dao.UpdateBanner(ctx, id, url); err != nil {
		return fmt.Errorf("r.dao.UpdateBanner -> %w", err)
	}

	return nil
}

func (r *EventRepository) Delete(ctx context.Context, id uint) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

type EventCounts struct {
	Total      int64
	Upcoming   int64
	ByCategory map[string]int64
}

func (r *EventRepository) Counts(ctx context.Context, now time.Time) (EventCounts, error) {
	total, err := r.dao.Count(ctx)
	if err != nil {
		return EventCounts{}, fmt.Errorf("r.dao.Count -> %w", err)
	}

	upcoming, err := r.dao.CountUpcoming(ctx, now)
	if err != nil {
		return EventCounts{}, fmt.Errorf("r.dao.CountUpcoming -> %w", err)
	}

	rows, err := r.dao.CountByCategory(ctx)
	if err != nil {
		return EventCounts{}, fmt.Errorf("r.dao.CountByCategory -> %w", err)
	}

	byCategory := make(map[string]int64, len(rows))
	for _, row := range rows {
		byCategory[row.Category] = row.Count
	}

	return EventCounts{Total: total, Upcoming: upcoming, ByCategory: byCategory}, nil
}

func (r *EventRepository) daoToDomain(e dao.Event) domain.Event {
	event := domain.Event{
		ID:                   e.ID,
		Title:                e.Title,
		Description:          e.Description,
		Date:                 e.Date,
		Location:             e.Location,
		Category:             e.Category,
		Capacity:             e.Capacity,
		RegistrationClosesAt: e.RegistrationClosesAt,
		AutoApprove:          e.AutoApprove,
		BannerURL:            e.BannerURL,
		ParticipantsCount:    e.ParticipantsCount,
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}
	if e.OrganizerID != nil {
		event.OrganizerID = *e.OrganizerID
	}

	return event
}

func (r *EventRepository) domainToDao(e domain.Event) dao.Event {
	event := dao.Event{
		ID:                   e.ID,
		Title:                e.Title,
		Description:          e.Description,
		Date:                 e.Date,
		Location:             e.Location,
		Category:             e.Category,
		Capacity:             e.Capacity,
		RegistrationClosesAt: e.RegistrationClosesAt,
		AutoApprove:          e.AutoApprove,
		BannerURL:            e.BannerURL,
	}
	if e.OrganizerID != 0 {
		organizerID := e.OrganizerID
		event.OrganizerID = &organizerID
	}

	return event
}
