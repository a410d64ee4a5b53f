package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventdesk/eventdesk-api/internal/domain"
	"github.com/eventdesk/eventdesk-api/internal/pkg/storage"
	"github.com/eventdesk/eventdesk-api/internal/repository"
)

type fakeEventRepo struct {
	*fakeEvents
	lastFilter domain.EventFilter
	banners    map[uint]string
	deleted    []uint
}

func (f *fakeEventRepo) List(_ context.Context, filter domain.EventFilter, _ time.Time) (domain.EventPage, error) {
	f.lastFilter = filter
	return domain.EventPage{Page: filter.Page, Limit: filter.Limit}, nil
}

func (f *fakeEventRepo) Create(_ context.Context, e domain.Event) (domain.Event, error) {
	e.ID = uint(len(f.events) + 1)
	f.events[e.ID] = e
	return e, nil
}

func (f *fakeEventRepo) Update(_ context.Context, e domain.Event) (domain.Event, error) {
	if _, ok := f.events[e.ID]; !ok {
		return domain.Event{}, repository.ErrEventNotFound
	}
	f.events[e.ID] = e
	return e, nil
}

func (f *fakeEventRepo) UpdateBanner(_ context.Context, id uint, url string) error {
	e := f.events[id]
	e.BannerURL = url
	f.events[id] = e
	return nil
}

func (f *fakeEventRepo) Delete(_ context.Context, id uint) error {
	delete(f.events, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeStorage struct {
	objects map[string]string
}

func (f *fakeStorage) PutObject(_ context.Context, in storage.UploadInput) (string, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return "", err
	}
	f.objects[in.Key] = string(body)
	return "https://cdn.example.com/" + in.Key, nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func newEventFixture(participants ...domain.Participant) (*EventService, *fakeEventRepo, *fakeStorage) {
	repo := &fakeEventRepo{fakeEvents: newFakeEvents(testEvent(3))}
	store := &fakeStorage{objects: map[string]string{}}
	svc := NewEventService(repo, newFakeParticipants(participants...), store)

	return svc, repo, store
}

func TestEventListDefaults(t *testing.T) {
	svc, repo, _ := newEventFixture()

	_, err := svc.List(context.Background(), domain.EventFilter{Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.lastFilter.Page)
	assert.Equal(t, maxPageLimit, repo.lastFilter.Limit)
	assert.Equal(t, domain.DateAll, repo.lastFilter.Date)
	assert.Equal(t, domain.SortDateDesc, repo.lastFilter.Sort)
}

func TestEventUpdateCapacityBelowApproved(t *testing.T) {
	svc, _, _ := newEventFixture(approved(1), approved(2), pending(3, 1))

	event := testEvent(1)
	_, err := svc.Update(context.Background(), event)
	assert.ErrorIs(t, err, ErrCapacityBelowApproved)

	event.Capacity = 2
	updated, err := svc.Update(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Capacity)
}

func TestEventBannerLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _, store := newEventFixture()

	_, err := svc.UploadBanner(ctx, 1, BannerUpload{ContentType: "text/plain", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrInvalidBanner)

	_, err = svc.UploadBanner(ctx, 9, BannerUpload{ContentType: "image/png", Body: strings.NewReader("png")})
	assert.ErrorIs(t, err, ErrEventNotFound)

	event, err := svc.UploadBanner(ctx, 1, BannerUpload{ContentType: "image/png", Body: strings.NewReader("png"), Size: 3})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/events/1/banner", event.BannerURL)
	assert.Equal(t, "png", store.objects[storage.BannerKey(1)])

	require.NoError(t, svc.Delete(ctx, 1))
	assert.Empty(t, store.objects)

	svc.storage = nil
	_, err = svc.UploadBanner(ctx, 1, BannerUpload{ContentType: "image/png"})
	assert.ErrorIs(t, err, ErrStorageDisabled)
}

func TestEventCategories(t *testing.T) {
	svc, _, _ := newEventFixture()
	assert.Contains(t, svc.Categories(), "Workshop")
}
