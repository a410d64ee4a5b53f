package dao

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

var ErrEventNotFound = errors.New("event not found")

type Event struct {
	ID                   uint      `gorm:"primaryKey"`
	Title                string    `gorm:"not null"`
	Description          string    `gorm:"not null"`
	Date                 time.Time `gorm:"not null;index"`
	Location             string    `gorm:"not null"`
	Category             string    `gorm:"not null;index"`
	Capacity             int       `gorm:"not null;default:0"`
	RegistrationClosesAt time.Time `gorm:"not null"`
	AutoApprove          bool      `gorm:"not null;default:false"`
	BannerURL            string    `gorm:"not null;default:''"`
	OrganizerID          *uint
	ParticipantsCount    int `gorm:"->;-:migration"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type EventQuery struct {
	Category string
	Search   string
	From     *time.Time
	To       *time.Time
	OrderBy  string
	Offset   int
	Limit    int
}

const approvedCountColumn = "(SELECT COUNT(*) FROM participants p WHERE p.event_id = events.id AND p.status = 'approved') AS participants_count"

type EventDAO struct {
	db *gorm.DB
}

func NewEventDAO(db *gorm.DB) *EventDAO {
	return &EventDAO{
		db: db,
	}
}

func (d *EventDAO) Insert(ctx context.Context, event Event) (Event, error) {
	if result := d.db.WithContext(ctx).Create(&event); result.Error != nil {
		return Event{}, result.Error
	}

	return event, nil
}

func (d *EventDAO) FindByID(ctx context.Context, id uint) (Event, error) {
	var event Event

	result := d.db.WithContext(ctx).
		Select("events.*, " + approvedCountColumn).
		First(&event, "events.id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}

		return Event{}, result.Error
	}

	return event, nil
}

func (d *EventDAO) List(ctx context.Context, q EventQuery) ([]Event, int64, error) {
	tx := d.db.WithContext(ctx).Model(&Event{})

	if q.Category != "" {
		tx = tx.Where("category = ?", q.Category)
	}
	if search := strings.ToLower(strings.TrimSpace(q.Search)); search != "" {
		like := "%" + search + "%"
		tx = tx.Where("LOWER(title) LIKE ? OR LOWER(location) LIKE ?", like, like)
	}
	if q.From != nil {
		tx = tx.Where("date >= ?", *q.From)
	}
	if q.To != nil {
		tx = tx.Where("date < ?", *q.To)
	}

	tx = tx.Session(&gorm.Session{})

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := q.OrderBy
	if orderBy == "" {
		orderBy = "date DESC"
	}

	var events []Event
	result := tx.Select("events.*, " + approvedCountColumn).
		Order(orderBy).
		Order("id").
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&events)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return events, total, nil
}

func (d *EventDAO) Update(ctx context.Context, event Event) (Event, error) {
	result := d.db.WithContext(ctx).Model(&Event{ID: event.ID}).Select(
		"Title", "Description", "Date", "Location", "Category",
		"Capacity", "RegistrationClosesAt", "AutoApprove", "UpdatedAt",
	).Updates(&event)
	if result.Error != nil {
		return Event{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Event{}, ErrEventNotFound
	}

	return d.FindByID(ctx, event.ID)
}

func (d *EventDAO) UpdateBanner(ctx context.Context, id uint, url string) error {
	result := d.db.WithContext(ctx).Model(&Event{ID: id}).Update("banner_url", url)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEventNotFound
	}

	return nil
}

// Delete removes the event together with its participants and favorites.
func (d *EventDAO) Delete(ctx context.Context, id uint) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&Participant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", id).Delete(&Favorite{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&Event{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrEventNotFound
		}

		return nil
	})
}

func (d *EventDAO) Count(ctx context.Context) (int64, error) {
	var n int64
	err := d.db.WithContext(ctx).Model(&Event{}).Count(&n).Error

	return n, err
}

func (d *EventDAO) CountUpcoming(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := d.db.WithContext(ctx).Model(&Event{}).Where("date > ?", now).Count(&n).Error

	return n, err
}

type CategoryCount struct {
	Category string
	Count    int64
}

func (d *EventDAO) CountByCategory(ctx context.Context) ([]CategoryCount, error) {
	var rows []CategoryCount
	err := d.db.WithContext(ctx).Model(&Event{}).
		Select("category, COUNT(*) AS count").
		Group("category").
		Order("category").
		Scan(&rows).Error

	return rows, err
}
