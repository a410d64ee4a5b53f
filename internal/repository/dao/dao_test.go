package dao

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, InitTables(db))

	return db
}

func seedEvent(t *testing.T, db *gorm.DB, capacity int) Event {
	t.Helper()

	now := time.Now().UTC()
	event, err := NewEventDAO(db).Insert(context.Background(), Event{
		Title:                "Go Meetup",
		Description:          "Monthly meetup",
		Date:                 now.Add(72 * time.Hour),
		Location:             "Lyon",
		Category:             "Technology",
		Capacity:             capacity,
		RegistrationClosesAt: now.Add(48 * time.Hour),
	})
	require.NoError(t, err)

	return event
}

func TestUserDAO(t *testing.T) {
	ctx := context.Background()
	d := NewUserDAO(newTestDB(t))

	u, err := d.Insert(ctx, User{Email: "ada@example.com", Password: "hash", Name: "Ada", Role: "admin"})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)

	_, err = d.Insert(ctx, User{Email: "ada@example.com", Password: "hash", Name: "Ada"})
	assert.ErrorIs(t, err, ErrUserEmailExists)

	found, err := d.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	_, err = d.FindByID(ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)

	admins, err := d.FindByRole(ctx, "admin")
	require.NoError(t, err)
	assert.Len(t, admins, 1)
}

func TestEventDAOList(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	d := NewEventDAO(db)

	base := time.Date(2026, 11, 1, 18, 0, 0, 0, time.UTC)
	for i, e := range []Event{
		{Title: "Jazz Night", Location: "Paris", Category: "Music"},
		{Title: "Go Workshop", Location: "Lyon", Category: "Technology"},
		{Title: "Rust Workshop", Location: "Paris", Category: "Technology"},
	} {
		e.Description = "desc"
		e.Date = base.Add(time.Duration(i) * 24 * time.Hour)
		e.RegistrationClosesAt = e.Date.Add(-time.Hour)
		e.Capacity = 10
		_, err := d.Insert(ctx, e)
		require.NoError(t, err)
	}

	events, total, err := d.List(ctx, EventQuery{Category: "Technology", Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, events, 2)
	assert.Equal(t, "Rust Workshop", events[0].Title)

	events, total, err = d.List(ctx, EventQuery{Search: "paris", OrderBy: "title ASC", Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, events, 1)
	assert.Equal(t, "Jazz Night", events[0].Title)

	from := base.Add(12 * time.Hour)
	events, _, err = d.List(ctx, EventQuery{From: &from, OrderBy: "date ASC", Limit: 10})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Go Workshop", events[0].Title)

	byCategory, err := d.CountByCategory(ctx)
	require.NoError(t, err)
	assert.Equal(t, []CategoryCount{{"Music", 1}, {"Technology", 2}}, byCategory)
}

func TestEventDAOUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	d := NewEventDAO(db)
	event := seedEvent(t, db, 5)

	event.Title = "Go Meetup #2"
	event.AutoApprove = true
	updated, err := d.Update(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, "Go Meetup #2", updated.Title)
	assert.True(t, updated.AutoApprove)

	_, err = d.Update(ctx, Event{ID: 999, Title: "x"})
	assert.ErrorIs(t, err, ErrEventNotFound)

	require.NoError(t, NewFavoriteDAO(db).Insert(ctx, 1, event.ID))
	require.NoError(t, d.Delete(ctx, event.ID))

	_, err = d.FindByID(ctx, event.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)
	exists, err := NewFavoriteDAO(db).Exists(ctx, 1, event.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	assert.ErrorIs(t, d.Delete(ctx, event.ID), ErrEventNotFound)
}

func TestParticipantDAORegisterQueues(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	d := NewParticipantDAO(db)
	event := seedEvent(t, db, 1)

	register := func(userID uint, approve bool) Participant {
		p, err := d.Register(ctx, Participant{
			EventID:      event.ID,
			UserID:       userID,
			Name:         fmt.Sprintf("user-%d", userID),
			Email:        fmt.Sprintf("user-%d@example.com", userID),
			RegisteredAt: time.Now().UTC(),
		}, event.Capacity, approve)
		require.NoError(t, err)

		return p
	}

	first := register(1, true)
	assert.Equal(t, "approved", first.Status)

	second := register(2, true)
	assert.Equal(t, "pending", second.Status)
	assert.Equal(t, 0, second.QueuePosition)

	third := register(3, false)
	assert.Equal(t, 1, third.QueuePosition)

	fourth := register(4, false)
	assert.Equal(t, 2, fourth.QueuePosition)

	_, err := d.Register(ctx, Participant{EventID: event.ID, UserID: 2, Name: "dup", Email: "dup@example.com", RegisteredAt: time.Now().UTC()}, event.Capacity, false)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	active, err := d.FindActive(ctx, event.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	_, err = d.FindActive(ctx, event.ID, 42)
	assert.ErrorIs(t, err, ErrParticipantNotFound)

	e, err := NewEventDAO(db).FindByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, e.ParticipantsCount)
}

func TestParticipantDAOApprove(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	d := NewParticipantDAO(db)
	event := seedEvent(t, db, 1)

	var ids []uint
	for i := 1; i <= 2; i++ {
		p, err := d.Insert(ctx, Participant{
			EventID: event.ID, UserID: uint(i), Name: "p", Email: "p@example.com",
			Status: "pending", QueuePosition: i, RegisteredAt: time.Now().UTC(),
		})
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	approved, err := d.Approve(ctx, event.ID, ids[0], event.Capacity)
	require.NoError(t, err)
	assert.Equal(t, "approved", approved.Status)

	_, err = d.Approve(ctx, event.ID, ids[1], event.Capacity)
	assert.ErrorIs(t, err, ErrEventFull)

	_, err = d.Approve(ctx, event.ID, ids[0], event.Capacity+1)
	assert.ErrorIs(t, err, ErrStatusChanged)

	_, err = d.Approve(ctx, 999, ids[1], 10)
	assert.ErrorIs(t, err, ErrEventNotFound)

	withdrawn, err := d.Transition(ctx, ids[0], "approved", "withdrawn")
	require.NoError(t, err)
	assert.Equal(t, "withdrawn", withdrawn.Status)

	_, err = d.Transition(ctx, ids[0], "approved", "withdrawn")
	assert.ErrorIs(t, err, ErrStatusChanged)

	byStatus, err := d.CountGroupedByStatus(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []StatusCount{{"pending", 1}, {"withdrawn", 1}}, byStatus)
}

func TestFavoriteDAO(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	d := NewFavoriteDAO(db)
	event := seedEvent(t, db, 3)

	require.NoError(t, d.Insert(ctx, 7, event.ID))
	require.NoError(t, d.Insert(ctx, 7, event.ID))

	events, err := d.ListEvents(ctx, 7)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, event.ID, events[0].ID)

	removed, err := d.Delete(ctx, 7, event.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = d.Delete(ctx, 7, event.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestSessionDAO(t *testing.T) {
	ctx := context.Background()
	d := NewSessionDAO(newTestDB(t))
	now := time.Now().UTC()

	require.NoError(t, d.Revoke(ctx, RevokedToken{TokenID: "a", UserID: 1, ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, d.Revoke(ctx, RevokedToken{TokenID: "b", UserID: 1, ExpiresAt: now.Add(-time.Hour)}))

	revoked, err := d.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.True(t, revoked)

	purged, err := d.PurgeExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	revoked, err = d.IsRevoked(ctx, "b")
	require.NoError(t, err)
	assert.False(t, revoked)
}
