package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to ParticipantStatus
		want     bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusWithdrawn, true},
		{StatusApproved, StatusWithdrawn, true},
		{StatusApproved, StatusRejected, false},
		{StatusApproved, StatusPending, false},
		{StatusRejected, StatusApproved, false},
		{StatusWithdrawn, StatusPending, false},
		{StatusApproved, StatusApproved, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestGroupParticipants(t *testing.T) {
	all := []Participant{
		{ID: 1, Status: StatusApproved},
		{ID: 2, Status: StatusPending, QueuePosition: 2},
		{ID: 3, Status: StatusRejected},
		{ID: 4, Status: StatusWithdrawn},
		{ID: 5, Status: StatusPending, QueuePosition: 1},
	}

	t.Run("merged", func(t *testing.T) {
		g := GroupParticipants(all, BucketMerged)
		assert.Len(t, g.Approved, 1)
		require.Len(t, g.Pending, 2)
		assert.Equal(t, uint(5), g.Pending[0].ID)
		assert.Len(t, g.Rejected, 2)
		assert.Nil(t, g.Withdrawn)
		assert.Len(t, g.All(), len(all))
	})

	t.Run("separate", func(t *testing.T) {
		g := GroupParticipants(all, BucketSeparate)
		assert.Len(t, g.Rejected, 1)
		assert.Len(t, g.Withdrawn, 1)
		assert.Len(t, g.All(), len(all))
	})
}

func TestSortForPromotion(t *testing.T) {
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	ps := []Participant{
		{ID: 9, QueuePosition: 2, RegisteredAt: base},
		{ID: 7, QueuePosition: 1, RegisteredAt: base.Add(time.Minute)},
		{ID: 3, QueuePosition: 1, RegisteredAt: base.Add(time.Minute)},
		{ID: 8, QueuePosition: 1, RegisteredAt: base},
	}

	SortForPromotion(ps)

	var ids []uint
	for _, p := range ps {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []uint{8, 3, 7, 9}, ids)
}

func TestParticipantGroupsFilter(t *testing.T) {
	g := GroupParticipants([]Participant{
		{ID: 1, Name: "Ada Lovelace", Email: "ada@example.com", Status: StatusApproved},
		{ID: 2, Name: "Alan Turing", Email: "alan@example.com", Status: StatusPending},
	}, BucketMerged)

	filtered := g.Filter("ADA")
	assert.Len(t, filtered.Approved, 1)
	assert.Empty(t, filtered.Pending)

	assert.Len(t, g.Filter("example.com").All(), 2)
	assert.Len(t, g.Filter("").All(), 2)
}

func TestAvailableSlotsAndCutoff(t *testing.T) {
	e := Event{Capacity: 5}
	assert.Equal(t, 1, e.AvailableSlots(4))
	assert.Equal(t, 0, e.AvailableSlots(7))

	closes := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.True(t, WithinCutoff(closes.Add(-12*time.Hour), closes, 12*time.Hour))
	assert.True(t, WithinCutoff(closes.Add(time.Hour), closes, 12*time.Hour))
	assert.False(t, WithinCutoff(closes.Add(-13*time.Hour), closes, 12*time.Hour))
}

func TestFillPercent(t *testing.T) {
	assert.Equal(t, 0.0, FillPercent(3, 0))
	assert.Equal(t, 33.3, FillPercent(1, 3))
	assert.Equal(t, 66.7, FillPercent(2, 3))
	assert.Equal(t, 100.0, FillPercent(5, 5))
}

func TestDateRangeBounds(t *testing.T) {
	now := time.Date(2026, 10, 15, 14, 30, 0, 0, time.UTC) // Thursday

	from, to, ok := DateToday.Bounds(now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), to)

	from, to, ok = DateThisWeek.Bounds(now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC), to)

	from, to, ok = DateThisMonth.Bounds(now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), to)

	_, _, ok = DateAll.Bounds(now)
	assert.False(t, ok)
}
