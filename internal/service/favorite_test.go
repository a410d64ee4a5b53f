package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventdesk/eventdesk-api/internal/domain"
)

type fakeFavorites struct {
	set map[[2]uint]bool
}

func (f *fakeFavorites) Add(_ context.Context, userID, eventID uint) error {
	f.set[[2]uint{userID, eventID}] = true
	return nil
}

func (f *fakeFavorites) Remove(_ context.Context, userID, eventID uint) (bool, error) {
	key := [2]uint{userID, eventID}
	existed := f.set[key]
	delete(f.set, key)
	return existed, nil
}

func (f *fakeFavorites) Exists(_ context.Context, userID, eventID uint) (bool, error) {
	return f.set[[2]uint{userID, eventID}], nil
}

func (f *fakeFavorites) ListEvents(_ context.Context, userID uint) ([]domain.Event, error) {
	var out []domain.Event
	for key := range f.set {
		if key[0] == userID {
			out = append(out, domain.Event{ID: key[1]})
		}
	}
	return out, nil
}

func TestFavoriteToggleTwiceRestoresState(t *testing.T) {
	ctx := context.Background()

	for _, initial := range []bool{false, true} {
		repo := &fakeFavorites{set: map[[2]uint]bool{}}
		if initial {
			repo.set[[2]uint{7, 1}] = true
		}
		svc := NewFavoriteService(repo, newFakeEvents(testEvent(5)))

		first, err := svc.Toggle(ctx, 7, 1)
		require.NoError(t, err)
		assert.Equal(t, !initial, first)

		second, err := svc.Toggle(ctx, 7, 1)
		require.NoError(t, err)
		assert.Equal(t, initial, second)

		fav, err := svc.IsFavorite(ctx, 7, 1)
		require.NoError(t, err)
		assert.Equal(t, initial, fav)
	}
}

func TestFavoriteAddUnknownEvent(t *testing.T) {
	svc := NewFavoriteService(&fakeFavorites{set: map[[2]uint]bool{}}, newFakeEvents())

	assert.ErrorIs(t, svc.Add(context.Background(), 7, 42), ErrEventNotFound)

	_, err := svc.Toggle(context.Background(), 7, 42)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestFavoriteAddRemoveIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := NewFavoriteService(&fakeFavorites{set: map[[2]uint]bool{}}, newFakeEvents(testEvent(5)))

	require.NoError(t, svc.Add(ctx, 7, 1))
	require.NoError(t, svc.Add(ctx, 7, 1))

	events, err := svc.List(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	require.NoError(t, svc.Remove(ctx, 7, 1))
	require.NoError(t, svc.Remove(ctx, 7, 1))

	events, err = svc.List(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, events)
}
