package dao

import "gorm.io/gorm"

// InitTables creates the schema through gorm for databases that are not
// managed by the SQL migrations (local sqlite, tests).
func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Event{},
		&Participant{},
		&Favorite{},
		&RevokedToken{},
	)
}
