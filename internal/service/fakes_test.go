package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/eventdesk/eventdesk-api/internal/config"
	"github.com/eventdesk/eventdesk-api/internal/domain"
	"github.com/eventdesk/eventdesk-api/internal/pkg/emailrelay"
	"github.com/eventdesk/eventdesk-api/internal/repository"
)

type fakeEvents struct {
	events map[uint]domain.Event
}

func newFakeEvents(events ...domain.Event) *fakeEvents {
	f := &fakeEvents{events: map[uint]domain.Event{}}
	for _, e := range events {
		f.events[e.ID] = e
	}

	return f
}

func (f *fakeEvents) FindByID(_ context.Context, id uint) (domain.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return domain.Event{}, repository.ErrEventNotFound
	}

	return e, nil
}

// fakeParticipants mirrors the conditional updates of the gorm DAO.
type fakeParticipants struct {
	mu           sync.Mutex
	byID         map[uint]domain.Participant
	nextID       uint
	approveCalls int
	mutations    int
}

func newFakeParticipants(ps ...domain.Participant) *fakeParticipants {
	f := &fakeParticipants{byID: map[uint]domain.Participant{}}
	for _, p := range ps {
		f.byID[p.ID] = p
		if p.ID > f.nextID {
			f.nextID = p.ID
		}
	}

	return f
}

func (f *fakeParticipants) FindByID(_ context.Context, id uint) (domain.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.byID[id]
	if !ok {
		return domain.Participant{}, repository.ErrParticipantNotFound
	}

	return p, nil
}

func (f *fakeParticipants) FindByEvent(_ context.Context, eventID uint) ([]domain.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.Participant
	for _, p := range f.byID {
		if p.EventID == eventID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (f *fakeParticipants) FindByUser(_ context.Context, userID uint) ([]domain.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.Participant
	for _, p := range f.byID {
		if p.UserID == userID {
			out = append(out, p)
		}
	}

	return out, nil
}

func (f *fakeParticipants) FindActive(_ context.Context, eventID, userID uint) (domain.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, p := range f.byID {
		if p.EventID == eventID && p.UserID == userID && p.Active() {
			return p, nil
		}
	}

	return domain.Participant{}, repository.ErrParticipantNotFound
}

func (f *fakeParticipants) CountApproved(_ context.Context, eventID uint) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.countLocked(eventID, domain.StatusApproved), nil
}

func (f *fakeParticipants) countLocked(eventID uint, status domain.ParticipantStatus) int {
	n := 0
	for _, p := range f.byID {
		if p.EventID == eventID && p.Status == status {
			n++
		}
	}

	return n
}

func (f *fakeParticipants) Register(_ context.Context, p domain.Participant, capacity int, autoApprove bool) (domain.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.byID {
		if existing.EventID == p.EventID && existing.UserID == p.UserID && existing.Active() {
			return domain.Participant{}, repository.ErrAlreadyRegistered
		}
	}

	switch {
	case autoApprove && f.countLocked(p.EventID, domain.StatusApproved) < capacity:
		p.Status = domain.StatusApproved
	case autoApprove:
		p.Status = domain.StatusPending
	default:
		maxPos := 0
		for _, existing := range f.byID {
			if existing.EventID == p.EventID && existing.Status == domain.StatusPending && existing.QueuePosition > maxPos {
				maxPos = existing.QueuePosition
			}
		}
		p.Status = domain.StatusPending
		p.QueuePosition = maxPos + 1
	}

	f.nextID++
	p.ID = f.nextID
	f.byID[p.ID] = p
	f.mutations++

	return p, nil
}

func (f *fakeParticipants) Transition(_ context.Context, id uint, from, to domain.ParticipantStatus) (domain.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.byID[id]
	if !ok || p.Status != from {
		return domain.Participant{}, repository.ErrStatusChanged
	}
	p.Status = to
	f.byID[id] = p
	f.mutations++

	return p, nil
}

func (f *fakeParticipants) Approve(_ context.Context, eventID, id uint, capacity int) (domain.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.approveCalls++
	if f.countLocked(eventID, domain.StatusApproved) >= capacity {
		return domain.Participant{}, repository.ErrEventFull
	}

	p, ok := f.byID[id]
	if !ok || p.EventID != eventID || p.Status != domain.StatusPending {
		return domain.Participant{}, repository.ErrStatusChanged
	}
	p.Status = domain.StatusApproved
	p.QueuePosition = 0
	f.byID[id] = p
	f.mutations++

	return p, nil
}

func (f *fakeParticipants) statusOf(id uint) domain.ParticipantStatus {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.byID[id].Status
}

type fakeNotifier struct {
	mu       sync.Mutex
	status   []domain.Participant
	register []domain.Participant
	fail     bool
}

func (f *fakeNotifier) NotifyStatus(_ context.Context, _ domain.Event, p domain.Participant) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.status = append(f.status, p)
	if f.fail {
		return errors.New("relay down")
	}

	return nil
}

func (f *fakeNotifier) NotifyRegistration(_ context.Context, _ domain.Event, p domain.Participant) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.register = append(f.register, p)

	return nil
}

func (f *fakeNotifier) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.status) + len(f.register)
}

type fakePublisher struct {
	changes []domain.ParticipantChange
}

func (f *fakePublisher) Publish(change domain.ParticipantChange) {
	f.changes = append(f.changes, change)
}

type staticPolicy config.ParticipantPolicy

func (p staticPolicy) Policy() config.ParticipantPolicy {
	return config.ParticipantPolicy(p)
}

var defaultPolicy = staticPolicy{
	RejectCutoff:    12 * time.Hour,
	WithdrawCutoff:  12 * time.Hour,
	WithdrawnBucket: "merged",
	SweepMaxRounds:  5,
}

type fakeSender struct {
	mu       sync.Mutex
	sent     []emailrelay.Message
	failFor  map[string]bool
	inFlight int
	maxSeen  int
}

func (f *fakeSender) Send(_ context.Context, msg emailrelay.Message) error {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	f.mu.Unlock()

	time.Sleep(time.Millisecond)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight--

	if f.failFor[msg.Params["to_email"]] {
		return emailrelay.ErrRelayRejected
	}
	f.sent = append(f.sent, msg)

	return nil
}
