package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eventdesk/eventdesk-api/internal/config"
	"github.com/eventdesk/eventdesk-api/internal/domain"
	"github.com/eventdesk/eventdesk-api/internal/repository"
)

var (
	ErrParticipantNotFound = repository.ErrParticipantNotFound
	ErrEventFull           = repository.ErrEventFull
	ErrAlreadyRegistered   = repository.ErrAlreadyRegistered
	ErrInvalidTransition   = errors.New("participant status does not allow this action")
	ErrRejectCutoff        = errors.New("participants cannot be rejected this close to registration closing")
	ErrWithdrawCutoff      = errors.New("approved participants cannot withdraw this close to the event")
	ErrRegistrationClosed  = errors.New("registration for this event is closed")
	ErrNotRegistered       = errors.New("user is not registered for this event")
)

const (
	stepApprove  = "approve"
	stepReject   = "reject"
	stepWithdraw = "withdraw"
	stepNotify   = "notify"
	stepPromote  = "promote"
	stepPublish  = "publish"
)

type ParticipantRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Participant, error)
	FindByEvent(ctx context.Context, eventID uint) ([]domain.Participant, error)
	FindByUser(ctx context.Context, userID uint) ([]domain.Participant, error)
	FindActive(ctx context.Context, eventID, userID uint) (domain.Participant, error)
	Register(ctx context.Context, p domain.Participant, capacity int, autoApprove bool) (domain.Participant, error)
	Transition(ctx context.Context, id uint, from, to domain.ParticipantStatus) (domain.Participant, error)
	Approve(ctx context.Context, eventID, id uint, capacity int) (domain.Participant, error)
}

type EventReader interface {
	FindByID(ctx context.Context, id uint) (domain.Event, error)
}

type Notifier interface {
	NotifyStatus(ctx context.Context, event domain.Event, p domain.Participant) error
	NotifyRegistration(ctx context.Context, event domain.Event, p domain.Participant) error
}

type Publisher interface {
	Publish(change domain.ParticipantChange)
}

type PolicySource interface {
	Policy() config.ParticipantPolicy
}

type ParticipantService struct {
	repo      ParticipantRepository
	events    EventReader
	notifier  Notifier
	publisher Publisher
	policy    PolicySource
	now       func() time.Time
}

func NewParticipantService(repo ParticipantRepository, events EventReader, notifier Notifier, publisher Publisher, policy PolicySource) *ParticipantService {
	return &ParticipantService{
		repo:      repo,
		events:    events,
		notifier:  notifier,
		publisher: publisher,
		policy:    policy,
		now:       time.Now,
	}
}

// ListParticipants returns the event's participants grouped by status, after
// approving every pending participant parked at queue position 0 while seats
// are free.
func (s *ParticipantService) ListParticipants(ctx context.Context, eventID uint, search string) (domain.ParticipantList, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return domain.ParticipantList{}, fmt.Errorf("s.events.FindByID -> %w", err)
	}

	policy := s.policy.Policy()

	autoApproved, all, err := s.sweep(ctx, event, policy.SweepMaxRounds)
	if err != nil {
		return domain.ParticipantList{}, err
	}

	groups := domain.GroupParticipants(all, domain.WithdrawnBucket(policy.WithdrawnBucket))
	event.ParticipantsCount = len(groups.Approved)

	return domain.ParticipantList{
		Event:             event,
		AutoApproved:      autoApproved,
		AvailableSlots:    event.AvailableSlots(len(groups.Approved)),
		ParticipantGroups: groups.Filter(search),
	}, nil
}

func (s *ParticipantService) sweep(ctx context.Context, event domain.Event, maxRounds int) (int, []domain.Participant, error) {
	approved := 0

	for round := 0; ; round++ {
		all, err := s.repo.FindByEvent(ctx, event.ID)
		if err != nil {
			return 0, nil, fmt.Errorf("s.repo.FindByEvent -> %w", err)
		}

		var parked []domain.Participant
		for _, p := range all {
			if p.Status == domain.StatusPending && p.QueuePosition == 0 {
				parked = append(parked, p)
			}
		}
		if len(parked) == 0 || round >= maxRounds {
			return approved, all, nil
		}
		domain.SortForPromotion(parked)

		progressed := false
		for _, p := range parked {
			updated, err := s.repo.Approve(ctx, event.ID, p.ID, event.Capacity)
			if errors.Is(err, ErrEventFull) {
				return approved, s.reread(ctx, event.ID, all, progressed), nil
			}
			if errors.Is(err, repository.ErrStatusChanged) {
				continue
			}
			if err != nil {
				return 0, nil, fmt.Errorf("s.repo.Approve -> %w", err)
			}

			approved++
			progressed = true
			s.announce(ctx, event, p.Status, updated, nil)
		}

		if !progressed {
			return approved, s.reread(ctx, event.ID, all, true), nil
		}
	}
}

// reread refreshes the participant list after the sweep changed it, keeping
// the previous snapshot if the read fails.
func (s *ParticipantService) reread(ctx context.Context, eventID uint, prev []domain.Participant, changed bool) []domain.Participant {
	if !changed {
		return prev
	}

	all, err := s.repo.FindByEvent(ctx, eventID)
	if err != nil {
		zap.L().Warn("failed to reload participants after sweep", zap.Uint("event_id", eventID), zap.Error(err))
		return prev
	}

	return all
}

// Approve moves a pending participant to approved and sends the
// congratulation email. Approving an approved participant is a no-op.
func (s *ParticipantService) Approve(ctx context.Context, eventID, participantID uint) (domain.WorkflowReport, error) {
	report := domain.WorkflowReport{Action: stepApprove, ParticipantID: participantID, Promoted: []uint{}}

	event, p, err := s.load(ctx, eventID, participantID)
	if err != nil {
		return report, err
	}

	if p.Status == domain.StatusApproved {
		report.Record(stepApprove, p.ID, domain.StepSkipped, "already approved")
		return report, nil
	}
	if !domain.CanTransition(p.Status, domain.StatusApproved) {
		return report, ErrInvalidTransition
	}

	updated, err := s.repo.Approve(ctx, eventID, participantID, event.Capacity)
	if errors.Is(err, repository.ErrStatusChanged) {
		current, findErr := s.repo.FindByID(ctx, participantID)
		if findErr == nil && current.Status == domain.StatusApproved {
			report.Record(stepApprove, p.ID, domain.StepSkipped, "already approved")
			return report, nil
		}

		return report, ErrInvalidTransition
	}
	if err != nil {
		return report, fmt.Errorf("s.repo.Approve -> %w", err)
	}
	report.Record(stepApprove, p.ID, domain.StepOK, "")

	s.announce(ctx, event, p.Status, updated, &report)

	return report, nil
}

// Reject refuses a pending participant, notifies them and promotes waitlisted
// participants into any free seats. Inside the cutoff window before
// registration closes nothing is changed.
func (s *ParticipantService) Reject(ctx context.Context, eventID, participantID uint) (domain.WorkflowReport, error) {
	report := domain.WorkflowReport{Action: stepReject, ParticipantID: participantID, Promoted: []uint{}}

	event, p, err := s.load(ctx, eventID, participantID)
	if err != nil {
		return report, err
	}

	if domain.WithinCutoff(s.now(), event.RegistrationClosesAt, s.policy.Policy().RejectCutoff) {
		return report, ErrRejectCutoff
	}
	if !domain.CanTransition(p.Status, domain.StatusRejected) {
		return report, ErrInvalidTransition
	}

	updated, err := s.repo.Transition(ctx, participantID, p.Status, domain.StatusRejected)
	if errors.Is(err, repository.ErrStatusChanged) {
		return report, ErrInvalidTransition
	}
	if err != nil {
		return report, fmt.Errorf("s.repo.Transition -> %w", err)
	}
	report.Record(stepReject, p.ID, domain.StepOK, "")

	s.announce(ctx, event, p.Status, updated, &report)
	s.promote(ctx, event, &report)

	return report, nil
}

// Register signs the user up for the event.
func (s *ParticipantService) Register(ctx context.Context, eventID uint, user domain.User) (domain.Participant, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("s.events.FindByID -> %w", err)
	}

	now := s.now()
	if now.After(event.RegistrationClosesAt) {
		return domain.Participant{}, ErrRegistrationClosed
	}

	created, err := s.repo.Register(ctx, domain.Participant{
		EventID:      eventID,
		UserID:       user.ID,
		Name:         user.Name,
		Email:        user.Email,
		RegisteredAt: now,
	}, event.Capacity, event.AutoApprove)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("s.repo.Register -> %w", err)
	}

	if err := s.notifier.NotifyRegistration(ctx, event, created); err != nil {
		zap.L().Warn("failed to send registration email",
			zap.Uint("event_id", eventID), zap.Uint("participant_id", created.ID), zap.Error(err))
	}
	s.publish(event.ID, created.ID, "", created.Status)

	return created, nil
}

// Withdraw cancels the user's active registration. An approved withdrawal
// frees a seat that is offered to the waitlist.
func (s *ParticipantService) Withdraw(ctx context.Context, eventID, userID uint) (domain.WorkflowReport, error) {
	report := domain.WorkflowReport{Action: stepWithdraw, Promoted: []uint{}}

	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return report, fmt.Errorf("s.events.FindByID -> %w", err)
	}

	p, err := s.repo.FindActive(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrParticipantNotFound) {
			return report, ErrNotRegistered
		}

		return report, fmt.Errorf("s.repo.FindActive -> %w", err)
	}
	report.ParticipantID = p.ID

	if p.Status == domain.StatusApproved && domain.WithinCutoff(s.now(), event.Date, s.policy.Policy().WithdrawCutoff) {
		return report, ErrWithdrawCutoff
	}

	updated, err := s.repo.Transition(ctx, p.ID, p.Status, domain.StatusWithdrawn)
	if errors.Is(err, repository.ErrStatusChanged) {
		return report, ErrInvalidTransition
	}
	if err != nil {
		return report, fmt.Errorf("s.repo.Transition -> %w", err)
	}
	report.Record(stepWithdraw, p.ID, domain.StepOK, "")

	s.announce(ctx, event, p.Status, updated, &report)
	if p.Status == domain.StatusApproved {
		s.promote(ctx, event, &report)
	}

	return report, nil
}

func (s *ParticipantService) UserParticipations(ctx context.Context, userID uint) ([]domain.Participant, error) {
	ps, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindByUser -> %w", err)
	}

	return ps, nil
}

// promote approves waitlisted participants in promotion order until the
// event is full. Failures are recorded on the report; the status change that
// triggered the promotion stands.
func (s *ParticipantService) promote(ctx context.Context, event domain.Event, report *domain.WorkflowReport) {
	all, err := s.repo.FindByEvent(ctx, event.ID)
	if err != nil {
		report.Record(stepPromote, 0, domain.StepFailed, err.Error())
		return
	}

	groups := domain.GroupParticipants(all, domain.BucketMerged)
	slots := event.AvailableSlots(len(groups.Approved))
	if slots == 0 || len(groups.Pending) == 0 {
		report.Record(stepPromote, 0, domain.StepSkipped, "no free seats or empty waitlist")
		return
	}

	for _, p := range groups.Pending {
		if len(report.Promoted) >= slots {
			break
		}

		updated, err := s.repo.Approve(ctx, event.ID, p.ID, event.Capacity)
		if errors.Is(err, ErrEventFull) {
			report.Record(stepPromote, p.ID, domain.StepSkipped, "event is full")
			break
		}
		if errors.Is(err, repository.ErrStatusChanged) {
			report.Record(stepPromote, p.ID, domain.StepSkipped, "status changed")
			continue
		}
		if err != nil {
			report.Record(stepPromote, p.ID, domain.StepFailed, err.Error())
			continue
		}

		report.Promoted = append(report.Promoted, p.ID)
		report.Record(stepPromote, p.ID, domain.StepOK, "")
		s.announce(ctx, event, p.Status, updated, report)
	}
}

// announce emails the participant about their new status and pushes the
// change to the live feed.
func (s *ParticipantService) announce(ctx context.Context, event domain.Event, from domain.ParticipantStatus, p domain.Participant, report *domain.WorkflowReport) {
	if err := s.notifier.NotifyStatus(ctx, event, p); err != nil {
		zap.L().Warn("failed to send status email",
			zap.Uint("event_id", event.ID), zap.Uint("participant_id", p.ID), zap.Error(err))
		if report != nil {
			report.Record(stepNotify, p.ID, domain.StepFailed, err.Error())
		}
	} else if report != nil {
		report.Record(stepNotify, p.ID, domain.StepOK, "")
	}

	s.publish(event.ID, p.ID, from, p.Status)
}

func (s *ParticipantService) publish(eventID, participantID uint, from, to domain.ParticipantStatus) {
	if s.publisher == nil {
		return
	}

	s.publisher.Publish(domain.ParticipantChange{
		EventID:       eventID,
		ParticipantID: participantID,
		From:          from,
		To:            to,
		At:            s.now(),
	})
}

func (s *ParticipantService) load(ctx context.Context, eventID, participantID uint) (domain.Event, domain.Participant, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return domain.Event{}, domain.Participant{}, fmt.Errorf("s.events.FindByID -> %w", err)
	}

	p, err := s.repo.FindByID(ctx, participantID)
	if err != nil {
		return domain.Event{}, domain.Participant{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}
	if p.EventID != eventID {
		return domain.Event{}, domain.Participant{}, ErrParticipantNotFound
	}

	return event, p, nil
}
