package dao

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Favorite struct {
	UserID    uint `gorm:"primaryKey"`
	EventID   uint `gorm:"primaryKey;index"`
	CreatedAt time.Time
}

type FavoriteDAO struct {
	db *gorm.DB
}

func NewFavoriteDAO(db *gorm.DB) *FavoriteDAO {
	return &FavoriteDAO{
		db: db,
	}
}

// Insert is a no-op when the favorite already exists.
func (d *FavoriteDAO) Insert(ctx context.Context, userID, eventID uint) error {
	fav := Favorite{UserID: userID, EventID: eventID}

	return d.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&fav).Error
}

func (d *FavoriteDAO) Delete(ctx context.Context, userID, eventID uint) (bool, error) {
	result := d.db.WithContext(ctx).Where("user_id = ? AND event_id = ?", userID, eventID).Delete(&Favorite{})

	return result.RowsAffected > 0, result.Error
}

func (d *FavoriteDAO) Exists(ctx context.Context, userID, eventID uint) (bool, error) {
	var n int64
	err := d.db.WithContext(ctx).Model(&Favorite{}).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		Count(&n).Error

	return n > 0, err
}

// ListEvents returns the favorited events of a user, most recently added first.
func (d *FavoriteDAO) ListEvents(ctx context.Context, userID uint) ([]Event, error) {
	var events []Event

	result := d.db.WithContext(ctx).Model(&Event{}).
		Select("events.*, "+approvedCountColumn).
		Joins("JOIN favorites ON favorites.event_id = events.id").
		Where("favorites.user_id = ?", userID).
		Order("favorites.created_at DESC").
		Find(&events)
	if result.Error != nil {
		return nil, result.Error
	}

	return events, nil
}
