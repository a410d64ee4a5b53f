package dao

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/eventdesk/eventdesk-api/internal/db"
)

func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker unavailable: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=eventdesk",
			"POSTGRES_PASSWORD=eventdesk",
			"POSTGRES_DB=eventdesk",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Purge(resource) })

	url := fmt.Sprintf("postgres://eventdesk:eventdesk@%s/eventdesk?sslmode=disable", resource.GetHostPort("5432/tcp"))

	var gdb *gorm.DB
	pool.MaxWait = time.Minute
	err = pool.Retry(func() error {
		var openErr error
		gdb, openErr = db.OpenPostgresWithURL(url)

		return openErr
	})
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(url))

	return gdb
}

func TestPostgresConcurrentApprovalsRespectCapacity(t *testing.T) {
	gdb := newPostgresDB(t)
	ctx := context.Background()
	event := seedEvent(t, gdb, 2)
	d := NewParticipantDAO(gdb)
	users := NewUserDAO(gdb)

	var ids []uint
	for i := 1; i <= 6; i++ {
		u, err := users.Insert(ctx, User{Email: fmt.Sprintf("u%d@example.com", i), Password: "x", Name: "u"})
		require.NoError(t, err)

		p, err := d.Insert(ctx, Participant{
			EventID: event.ID, UserID: u.ID, Name: "p", Email: "p@example.com",
			Status: "pending", QueuePosition: i, RegisteredAt: time.Now().UTC(),
		})
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			_, _ = d.Approve(ctx, event.ID, id, event.Capacity)
		}(id)
	}
	wg.Wait()

	approved, err := d.CountByStatus(ctx, event.ID, "approved")
	require.NoError(t, err)
	assert.EqualValues(t, 2, approved)
}

func TestPostgresDuplicateEmail(t *testing.T) {
	gdb := newPostgresDB(t)
	ctx := context.Background()
	d := NewUserDAO(gdb)

	_, err := d.Insert(ctx, User{Email: "dup@example.com", Password: "x", Name: "Dup"})
	require.NoError(t, err)

	_, err = d.Insert(ctx, User{Email: "dup@example.com", Password: "x", Name: "Dup"})
	assert.ErrorIs(t, err, ErrUserEmailExists)
}
