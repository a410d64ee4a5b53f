package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrParticipantNotFound = errors.New("participant not found")
	ErrEventFull           = errors.New("event is at capacity")
	ErrStatusChanged       = errors.New("participant status changed concurrently")
	ErrAlreadyRegistered   = errors.New("user already registered for event")
)

type Participant struct {
	ID            uint      `gorm:"primaryKey"`
	EventID       uint      `gorm:"not null;index:idx_participants_event_status"`
	UserID        uint      `gorm:"not null;index"`
	Name          string    `gorm:"not null"`
	Email         string    `gorm:"not null"`
	Status        string    `gorm:"not null;index:idx_participants_event_status"`
	QueuePosition int       `gorm:"not null;default:0"`
	RegisteredAt  time.Time `gorm:"not null"`
	UpdatedAt     time.Time
}

type StatusCount struct {
	Status string
	Count  int64
}

type EventApprovedCount struct {
	EventID uint
	Count   int64
}

type ParticipantDAO struct {
	db *gorm.DB
}

func NewParticipantDAO(db *gorm.DB) *ParticipantDAO {
	return &ParticipantDAO{
		db: db,
	}
}

func (d *ParticipantDAO) Insert(ctx context.Context, p Participant) (Participant, error) {
	if result := d.db.WithContext(ctx).Create(&p); result.Error != nil {
		return Participant{}, result.Error
	}

	return p, nil
}

func (d *ParticipantDAO) FindByID(ctx context.Context, id uint) (Participant, error) {
	var p Participant

	result := d.db.WithContext(ctx).First(&p, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Participant{}, ErrParticipantNotFound
		}

		return Participant{}, result.Error
	}

	return p, nil
}

// FindByEventID returns participants in registration (insertion) order.
func (d *ParticipantDAO) FindByEventID(ctx context.Context, eventID uint) ([]Participant, error) {
	var ps []Participant

	result := d.db.WithContext(ctx).Where("event_id = ?", eventID).Order("id").Find(&ps)
	if result.Error != nil {
		return nil, result.Error
	}

	return ps, nil
}

func (d *ParticipantDAO) FindByUserID(ctx context.Context, userID uint) ([]Participant, error) {
	var ps []Participant

	result := d.db.WithContext(ctx).Where("user_id = ?", userID).Order("registered_at DESC").Find(&ps)
	if result.Error != nil {
		return nil, result.Error
	}

	return ps, nil
}

// FindActive returns the pending or approved registration of a user for an event.
func (d *ParticipantDAO) FindActive(ctx context.Context, eventID, userID uint) (Participant, error) {
	var p Participant

	result := d.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ? AND status IN ?", eventID, userID, []string{"pending", "approved"}).
		First(&p)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Participant{}, ErrParticipantNotFound
		}

		return Participant{}, result.Error
	}

	return p, nil
}

func (d *ParticipantDAO) CountByStatus(ctx context.Context, eventID uint, status string) (int64, error) {
	var n int64
	err := d.db.WithContext(ctx).Model(&Participant{}).
		Where("event_id = ? AND status = ?", eventID, status).
		Count(&n).Error

	return n, err
}

// Register inserts p. With approve set, p is approved while a seat is free and
// otherwise parked at queue position 0 for the next auto-approval sweep.
// Without it, p joins the tail of the pending queue.
func (d *ParticipantDAO) Register(ctx context.Context, p Participant, capacity int, approve bool) (Participant, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockEvent(tx, p.EventID); err != nil {
			return err
		}

		var active int64
		if err := tx.Model(&Participant{}).
			Where("event_id = ? AND user_id = ? AND status IN ?", p.EventID, p.UserID, []string{"pending", "approved"}).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return ErrAlreadyRegistered
		}

		approved, err := countStatus(tx, p.EventID, "approved")
		if err != nil {
			return err
		}

		switch {
		case approve && approved < int64(capacity):
			p.Status = "approved"
			p.QueuePosition = 0
		case approve:
			p.Status = "pending"
			p.QueuePosition = 0
		default:
			var maxPos int
			if err := tx.Model(&Participant{}).
				Where("event_id = ? AND status = ?", p.EventID, "pending").
				Select("COALESCE(MAX(queue_position), 0)").
				Scan(&maxPos).Error; err != nil {
				return err
			}

			p.Status = "pending"
			p.QueuePosition = maxPos + 1
		}

		return tx.Create(&p).Error
	})
	if err != nil {
		if isUniqueViolation(err, "uni_participants_active") {
			return Participant{}, ErrAlreadyRegistered
		}

		return Participant{}, err
	}

	return p, nil
}

// Transition moves a participant from one status to another. It fails with
// ErrStatusChanged when the row is no longer in the from status.
func (d *ParticipantDAO) Transition(ctx context.Context, id uint, from, to string) (Participant, error) {
	result := d.db.WithContext(ctx).Model(&Participant{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now()})
	if result.Error != nil {
		return Participant{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Participant{}, ErrStatusChanged
	}

	return d.FindByID(ctx, id)
}

// Approve moves a pending participant to approved while the event has free
// capacity. On postgres the event row is locked so concurrent approvals for
// the same event are serialized.
func (d *ParticipantDAO) Approve(ctx context.Context, eventID, id uint, capacity int) (Participant, error) {
	var approved Participant

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockEvent(tx, eventID); err != nil {
			return err
		}

		count, err := countStatus(tx, eventID, "approved")
		if err != nil {
			return err
		}
		if count >= int64(capacity) {
			return ErrEventFull
		}

		result := tx.Model(&Participant{}).
			Where("id = ? AND event_id = ? AND status = ?", id, eventID, "pending").
			Updates(map[string]any{"status": "approved", "queue_position": 0, "updated_at": time.Now()})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStatusChanged
		}

		return tx.First(&approved, id).Error
	})
	if err != nil {
		return Participant{}, err
	}

	return approved, nil
}

func (d *ParticipantDAO) CountAll(ctx context.Context) (int64, error) {
	var n int64
	err := d.db.WithContext(ctx).Model(&Participant{}).Count(&n).Error

	return n, err
}

func (d *ParticipantDAO) CountGroupedByStatus(ctx context.Context) ([]StatusCount, error) {
	var rows []StatusCount
	err := d.db.WithContext(ctx).Model(&Participant{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error

	return rows, err
}

func (d *ParticipantDAO) CountApprovedByEvent(ctx context.Context) ([]EventApprovedCount, error) {
	var rows []EventApprovedCount
	err := d.db.WithContext(ctx).Model(&Participant{}).
		Select("event_id, COUNT(*) AS count").
		Where("status = ?", "approved").
		Group("event_id").
		Scan(&rows).Error

	return rows, err
}

func lockEvent(tx *gorm.DB, eventID uint) error {
	q := tx.Model(&Event{}).Select("id").Where("id = ?", eventID)
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var id uint
	result := q.Scan(&id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEventNotFound
	}

	return nil
}

func countStatus(tx *gorm.DB, eventID uint, status string) (int64, error) {
	var n int64
	err := tx.Model(&Participant{}).Where("event_id = ? AND status = ?", eventID, status).Count(&n).Error

	return n, err
}
