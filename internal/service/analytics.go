package service

import (
	"context"
	"fmt"
	"time"

	"github.com/eventdesk/eventdesk-api/internal/domain"
	"github.com/eventdesk/eventdesk-api/internal/repository"
)

type EventCounter interface {
	Counts(ctx context.Context, now time.Time) (repository.EventCounts, error)
	List(ctx context.Context, filter domain.EventFilter, now time.Time) (domain.EventPage, error)
}

type ParticipantCounter interface {
	Counts(ctx context.Context) (repository.ParticipantCounts, error)
}

type AnalyticsService struct {
	events       EventCounter
	participants ParticipantCounter
	now          func() time.Time
}

func NewAnalyticsService(events EventCounter, participants ParticipantCounter) *AnalyticsService {
	return &AnalyticsService{
		events:       events,
		participants: participants,
		now:          time.Now,
	}
}

// Overview aggregates event and participant counts for the admin dashboard.
// Fill rates are listed by event date, earliest first.
func (s *AnalyticsService) Overview(ctx context.Context) (domain.Analytics, error) {
	now := s.now()

	eventCounts, err := s.events.Counts(ctx, now)
	if err != nil {
		return domain.Analytics{}, fmt.Errorf("s.events.Counts -> %w", err)
	}

	participantCounts, err := s.participants.Counts(ctx)
	if err != nil {
		return domain.Analytics{}, fmt.Errorf("s.participants.Counts -> %w", err)
	}

	page, err := s.events.List(ctx, domain.EventFilter{
		Date:  domain.DateAll,
		Sort:  domain.SortDateAsc,
		Page:  1,
		Limit: maxPageLimit,
	}, now)
	if err != nil {
		return domain.Analytics{}, fmt.Errorf("s.events.List -> %w", err)
	}

	fills := make([]domain.EventFill, 0, len(page.Events))
	for _, e := range page.Events {
		approved := participantCounts.ApprovedByEvent[e.ID]
		fills = append(fills, domain.EventFill{
			EventID:     e.ID,
			Title:       e.Title,
			Approved:    approved,
			Capacity:    e.Capacity,
			FillPercent: domain.FillPercent(approved, e.Capacity),
		})
	}

	return domain.Analytics{
		TotalEvents:       eventCounts.Total,
		UpcomingEvents:    eventCounts.Upcoming,
		TotalParticipants: participantCounts.Total,
		ByStatus:          participantCounts.ByStatus,
		ByCategory:        eventCounts.ByCategory,
		Events:            fills,
	}, nil
}
