package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/eventdesk/eventdesk-api/internal/domain"
)

const exportDateLayout = "2006-01-02"

var exportHeader = []string{"Name", "Email", "Status", "Queue Position", "Registered Date"}

type ExportService struct {
	participants RecipientRepository
	events       EventReader
	policy       PolicySource
}

func NewExportService(participants RecipientRepository, events EventReader, policy PolicySource) *ExportService {
	return &ExportService{
		participants: participants,
		events:       events,
		policy:       policy,
	}
}

// ExportParticipants writes the event's participants as CSV, bucket by
// bucket. Fields containing delimiters or quotes are quoted.
func (s *ExportService) ExportParticipants(ctx context.Context, eventID uint, w io.Writer) (domain.Event, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.events.FindByID -> %w", err)
	}

	all, err := s.participants.FindByEvent(ctx, eventID)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.participants.FindByEvent -> %w", err)
	}

	groups := domain.GroupParticipants(all, domain.WithdrawnBucket(s.policy.Policy().WithdrawnBucket))

	if err := WriteParticipantsCSV(w, groups.All()); err != nil {
		return domain.Event{}, err
	}

	return event, nil
}

func WriteParticipantsCSV(w io.Writer, participants []domain.Participant) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("cw.Write -> %w", err)
	}

	for _, p := range participants {
		record := []string{
			p.Name,
			p.Email,
			string(p.Status),
			strconv.Itoa(p.QueuePosition),
			p.RegisteredAt.Format(exportDateLayout),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("cw.Write -> %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("cw.Flush -> %w", err)
	}

	return nil
}
