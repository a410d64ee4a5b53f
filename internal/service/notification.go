package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/eventdesk/eventdesk-api/internal/config"
	"github.com/eventdesk/eventdesk-api/internal/domain"
	"github.com/eventdesk/eventdesk-api/internal/pkg/emailrelay"
)

var (
	ErrEmptyMessage       = errors.New("message is required")
	ErrInvalidTarget      = errors.New("invalid notification target")
	ErrNoRecipients       = errors.New("no recipients selected")
	ErrContactUnavailable = errors.New("no admin contact address is configured")
)

type EmailSender interface {
	Send(ctx context.Context, msg emailrelay.Message) error
}

type Translator interface {
	T(locale, key string, data map[string]any) string
}

type RecipientRepository interface {
	FindByEvent(ctx context.Context, eventID uint) ([]domain.Participant, error)
}

type NotificationService struct {
	sender       EmailSender
	translator   Translator
	participants RecipientRepository
	events       EventReader
	policy       PolicySource
	conf         *config.EmailConfig
	contact      *config.ContactConfig
}

func NewNotificationService(
	sender EmailSender,
	translator Translator,
	participants RecipientRepository,
	events EventReader,
	policy PolicySource,
	conf *config.EmailConfig,
	contact *config.ContactConfig,
) *NotificationService {
	return &NotificationService{
		sender:       sender,
		translator:   translator,
		participants: participants,
		events:       events,
		policy:       policy,
		conf:         conf,
		contact:      contact,
	}
}

var statusMessageKeys = map[domain.ParticipantStatus]string{
	domain.StatusApproved:  "notify.approved",
	domain.StatusRejected:  "notify.rejected",
	domain.StatusPending:   "notify.pending",
	domain.StatusWithdrawn: "notify.withdrawn",
}

// NotifyStatus tells the participant about their current status.
func (s *NotificationService) NotifyStatus(ctx context.Context, event domain.Event, p domain.Participant) error {
	key, ok := statusMessageKeys[p.Status]
	if !ok {
		key = "notify.generic"
	}

	return s.send(ctx, event, p, s.render(key, event, p))
}

// NotifyRegistration acknowledges a new registration.
func (s *NotificationService) NotifyRegistration(ctx context.Context, event domain.Event, p domain.Participant) error {
	key := "notify.registered"
	if p.Status == domain.StatusApproved {
		key = "notify.approved"
	}

	return s.send(ctx, event, p, s.render(key, event, p))
}

// Broadcast emails req.Message to the addressed participants of an event.
// Every send is awaited; a failed send is reported and does not stop the
// others.
func (s *NotificationService) Broadcast(ctx context.Context, eventID uint, req domain.BroadcastRequest) (domain.NotificationReport, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return domain.NotificationReport{}, ErrEmptyMessage
	}

	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return domain.NotificationReport{}, fmt.Errorf("s.events.FindByID -> %w", err)
	}

	all, err := s.participants.FindByEvent(ctx, eventID)
	if err != nil {
		return domain.NotificationReport{}, fmt.Errorf("s.participants.FindByEvent -> %w", err)
	}

	outcomes, recipients, err := s.resolve(all, req)
	if err != nil {
		return domain.NotificationReport{}, err
	}

	concurrency := s.conf.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, p := range recipients {
		g.Go(func() error {
			outcomes[i] = domain.DeliveryOutcome{ParticipantID: p.ID, Email: p.Email, Sent: true}
			if err := s.send(ctx, event, p, message); err != nil {
				outcomes[i].Sent = false
				outcomes[i].Error = err.Error()
			}

			return nil
		})
	}
	_ = g.Wait()

	report := domain.NotificationReport{Requested: len(outcomes), Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Sent {
			report.Sent++
		} else {
			report.Failed++
		}
	}

	return report, nil
}

// resolve picks the recipients addressed by req. The returned outcome slice
// has one slot per recipient followed by a failed outcome for every selected
// id that is not a participant of the event.
func (s *NotificationService) resolve(all []domain.Participant, req domain.BroadcastRequest) ([]domain.DeliveryOutcome, []domain.Participant, error) {
	var recipients []domain.Participant
	var unknown []uint

	switch req.Target {
	case domain.TargetAll:
		recipients = all
	case domain.TargetStatus:
		if !req.Status.Valid() {
			return nil, nil, ErrInvalidTarget
		}
		if req.Status == domain.StatusWithdrawn {
			// merged grouping folds withdrawn into rejected; address them by status.
			for _, p := range all {
				if p.Status == domain.StatusWithdrawn {
					recipients = append(recipients, p)
				}
			}
			break
		}
		groups := domain.GroupParticipants(all, domain.WithdrawnBucket(s.policy.Policy().WithdrawnBucket))
		recipients = groups.Bucket(req.Status)
	case domain.TargetSelected:
		if len(req.ParticipantIDs) == 0 {
			return nil, nil, ErrNoRecipients
		}
		byID := make(map[uint]domain.Participant, len(all))
		for _, p := range all {
			byID[p.ID] = p
		}
		seen := make(map[uint]bool, len(req.ParticipantIDs))
		for _, id := range req.ParticipantIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			if p, ok := byID[id]; ok {
				recipients = append(recipients, p)
			} else {
				unknown = append(unknown, id)
			}
		}
	default:
		return nil, nil, ErrInvalidTarget
	}

	outcomes := make([]domain.DeliveryOutcome, len(recipients), len(recipients)+len(unknown))
	for _, id := range unknown {
		outcomes = append(outcomes, domain.DeliveryOutcome{
			ParticipantID: id,
			Error:         ErrParticipantNotFound.Error(),
		})
	}

	return outcomes, recipients, nil
}

// ContactAdmin forwards a user's message to the configured admin address.
func (s *NotificationService) ContactAdmin(ctx context.Context, user domain.User, subject, message string) error {
	if s.contact == nil || s.contact.AdminEmail == "" {
		return ErrContactUnavailable
	}
	if strings.TrimSpace(message) == "" {
		return ErrEmptyMessage
	}

	body := s.translator.T(s.conf.Locale, "contact.admin", map[string]any{
		"Name":    user.Name,
		"Email":   user.Email,
		"Message": message,
	})

	err := s.sender.Send(ctx, emailrelay.Message{Params: map[string]string{
		"from_name": user.Name,
		"reply_to":  user.Email,
		"to_name":   "Admin",
		"to_email":  s.contact.AdminEmail,
		"subject":   subject,
		"message":   body,
	}})
	if err != nil {
		return fmt.Errorf("s.sender.Send -> %w", err)
	}

	return nil
}

func (s *NotificationService) render(key string, event domain.Event, p domain.Participant) string {
	return s.translator.T(s.conf.Locale, key, map[string]any{
		"Name":  p.Name,
		"Event": event.Title,
	})
}

func (s *NotificationService) send(ctx context.Context, event domain.Event, p domain.Participant, message string) error {
	fromName := s.conf.FromName
	if fromName == "" {
		fromName = s.translator.T(s.conf.Locale, "email.from", nil)
	}

	err := s.sender.Send(ctx, emailrelay.Message{Params: map[string]string{
		"from_name":  fromName,
		"to_name":    p.Name,
		"to_email":   p.Email,
		"event_name": event.Title,
		"message":    message,
	}})
	if err != nil {
		return fmt.Errorf("s.sender.Send -> %w", err)
	}

	return nil
}
