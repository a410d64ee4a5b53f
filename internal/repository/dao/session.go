package dao

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RevokedToken struct {
	TokenID   string    `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time
}

type SessionDAO struct {
	db *gorm.DB
}

func NewSessionDAO(db *gorm.DB) *SessionDAO {
	return &SessionDAO{
		db: db,
	}
}

func (d *SessionDAO) Revoke(ctx context.Context, token RevokedToken) error {
	return d.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&token).Error
}

func (d *SessionDAO) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var n int64
	err := d.db.WithContext(ctx).Model(&RevokedToken{}).Where("token_id = ?", tokenID).Count(&n).Error

	return n > 0, err
}

// PurgeExpired drops revocations whose tokens would be rejected anyway.
func (d *SessionDAO) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	result := d.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&RevokedToken{})

	return result.RowsAffected, result.Error
}
