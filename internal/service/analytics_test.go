package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventdesk/eventdesk-api/internal/domain"
	"github.com/eventdesk/eventdesk-api/internal/repository"
)

type fakeCounters struct{}

func (fakeCounters) Counts(_ context.Context, _ time.Time) (repository.EventCounts, error) {
	return repository.EventCounts{Total: 2, Upcoming: 1, ByCategory: map[string]int64{"Workshop": 2}}, nil
}

func (fakeCounters) List(_ context.Context, _ domain.EventFilter, _ time.Time) (domain.EventPage, error) {
	return domain.EventPage{Events: []domain.Event{
		{ID: 1, Title: "A", Capacity: 3},
		{ID: 2, Title: "B", Capacity: 0},
	}}, nil
}

type fakeParticipantCounts struct{}

func (fakeParticipantCounts) Counts(_ context.Context) (repository.ParticipantCounts, error) {
	return repository.ParticipantCounts{
		Total:           4,
		ByStatus:        map[domain.ParticipantStatus]int64{domain.StatusApproved: 2, domain.StatusPending: 2},
		ApprovedByEvent: map[uint]int{1: 2},
	}, nil
}

func TestAnalyticsOverview(t *testing.T) {
	svc := NewAnalyticsService(fakeCounters{}, fakeParticipantCounts{})

	overview, err := svc.Overview(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 2, overview.TotalEvents)
	assert.EqualValues(t, 4, overview.TotalParticipants)
	require.Len(t, overview.Events, 2)
	assert.Equal(t, 66.7, overview.Events[0].FillPercent)
	assert.Equal(t, 0.0, overview.Events[1].FillPercent)
	assert.EqualValues(t, 2, overview.ByCategory["Workshop"])
}
