package database

import (
	"gorm.io/gorm"

	"estateinsight/server/internal/models"
)

// MigrateSchema creates or updates the tables and the (location, year)
// unique index.
func MigrateSchema(db *gorm.DB) error {
	return db.AutoMigrate(&models.Record{})
}

func (d *Database) RunMigrations() error {
	d.logger.Info("Running database migrations...")
	return MigrateSchema(d.db)
}
