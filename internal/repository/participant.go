package repository

import (
	"context"
	"fmt"

	"github.com/eventdesk/eventdesk-api/internal/domain"
	"github.com/eventdesk/eventdesk-api/internal/repository/dao"
)

var (
	ErrParticipantNotFound = dao.ErrParticipantNotFound
	ErrEventFull           = dao.ErrEventFull
	ErrStatusChanged       = dao.ErrStatusChanged
	ErrAlreadyRegistered   = dao.ErrAlreadyRegistered
)

type ParticipantDAO interface {
	FindByID(ctx context.Context, id uint) (dao.Participant, error)
	FindByEventID(ctx context.Context, eventID uint) ([]dao.Participant, error)
	FindByUserID(ctx context.Context, userID uint) ([]dao.Participant, error)
	FindActive(ctx context.Context, eventID, userID uint) (dao.Participant, error)
	CountByStatus(ctx context.Context, eventID uint, status string) (int64, error)
	Register(ctx context.Context, p dao.Participant, capacity int, approve bool) (dao.Participant, error)
	Transition(ctx context.Context, id uint, from, to string) (dao.Participant, error)
	Approve(ctx context.Context, eventID, id uint, capacity int) (dao.Participant, error)
	CountAll(ctx context.Context) (int64, error)
	CountGroupedByStatus(ctx context.Context) ([]dao.StatusCount, error)
	CountApprovedByEvent(ctx context.Context) ([]dao.EventApprovedCount, error)
}

type ParticipantRepository struct {
	dao ParticipantDAO
}

func NewParticipantRepository(dao ParticipantDAO) *ParticipantRepository {
	return &ParticipantRepository{
		dao: dao,
	}
}

func (r *ParticipantRepository) FindByID(ctx context.Context, id uint) (domain.Participant, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *ParticipantRepository) FindByEvent(ctx context.Context, eventID uint) ([]domain.Participant, error) {
	found, err := r.dao.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByEventID -> %w", err)
	}

	return r.daoSliceToDomain(found), nil
}

func (r *ParticipantRepository) FindByUser(ctx context.Context, userID uint) ([]domain.Participant, error) {
	found, err := r.dao.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByUserID -> %w", err)
	}

	return r.daoSliceToDomain(found), nil
}

func (r *ParticipantRepository) FindActive(ctx context.Context, eventID, userID uint) (domain.Participant, error) {
	found, err := r.dao.FindActive(ctx, eventID, userID)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("r.dao.FindActive -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *ParticipantRepository) CountApproved(ctx context.Context, eventID uint) (int, error) {
	n, err := r.dao.CountByStatus(ctx, eventID, string(domain.StatusApproved))
	if err != nil {
		return 0, fmt.Errorf("r.dao.CountByStatus -> %w", err)
	}

	return int(n), nil
}

func (r *ParticipantRepository) Register(ctx context.Context, p domain.Participant, capacity int, autoApprove bool) (domain.Participant, error) {
	created, err := r.dao.Register(ctx, dao.Participant{
		EventID:      p.EventID,
		UserID:       p.UserID,
		Name:         p.Name,
		Email:        p.Email,
		RegisteredAt: p.RegisteredAt,
	}, capacity, autoApprove)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("r.dao.Register -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *ParticipantRepository) Transition(ctx context.Context, id uint, from, to domain.ParticipantStatus) (domain.Participant, error) {
	updated, err := r.dao.Transition(ctx, id, string(from), string(to))
	if err != nil {
		return domain.Participant{}, fmt.Errorf("r.dao.Transition -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *ParticipantRepository) Approve(ctx context.Context, eventID, id uint, capacity int) (domain.Participant, error) {
	approved, err := r.dao.Approve(ctx, eventID, id, capacity)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("r.dao.Approve -> %w", err)
	}

	return r.daoToDomain(approved), nil
}

type ParticipantCounts struct {
	Total           int64
	ByStatus        map[domain.ParticipantStatus]int64
	ApprovedByEvent map[uint]int
}

func (r *ParticipantRepository) Counts(ctx context.Context) (ParticipantCounts, error) {
	total, err := r.dao.CountAll(ctx)
	if err != nil {
		return ParticipantCounts{}, fmt.Errorf("r.dao.CountAll -> %w", err)
	}

	statusRows, err := r.dao.CountGroupedByStatus(ctx)
	if err != nil {
		return ParticipantCounts{}, fmt.Errorf("r.dao.CountGroupedByStatus -> %w", err)
	}

	eventRows, err := r.dao.CountApprovedByEvent(ctx)
	if err != nil {
		return ParticipantCounts{}, fmt.Errorf("r.dao.CountApprovedByEvent -> %w", err)
	}

	counts := ParticipantCounts{
		Total: total,
		ByStatus: map[domain.ParticipantStatus]int64{
			domain.StatusApproved:  0,
			domain.StatusPending:   0,
			domain.StatusRejected:  0,
			domain.StatusWithdrawn: 0,
		},
		ApprovedByEvent: make(map[uint]int, len(eventRows)),
	}
	for _, row := range statusRows {
		counts.ByStatus[domain.ParticipantStatus(row.Status)] = row.Count
	}
	for _, row := range eventRows {
		counts.ApprovedByEvent[row.EventID] = int(row.Count)
	}

	return counts, nil
}

func (r *ParticipantRepository) daoSliceToDomain(ps []dao.Participant) []domain.Participant {
	out := make([]domain.Participant, 0, len(ps))
	for _, p := range ps {
		out = append(out, r.daoToDomain(p))
	}

	return out
}

func (r *ParticipantRepository) daoToDomain(p dao.Participant) domain.Participant {
	return domain.Participant{
		ID:            p.ID,
		EventID:       p.EventID,
		UserID:        p.UserID,
		Name:          p.Name,
		Email:         p.Email,
		Status:        domain.ParticipantStatus(p.Status),
		QueuePosition: p.QueuePosition,
		RegisteredAt:  p.RegisteredAt,
	}
}
