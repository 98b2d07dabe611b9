package dbutils

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jiaming2012/tradebox/src/logger"
)

// InitPostgresWithUrl connects to postgres and migrates the given models.
func InitPostgresWithUrl(url string, models ...interface{}) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(url), &gorm.Config{
		Logger: logger.NewLogrusLogger(log.StandardLogger()).LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("InitPostgresWithUrl: failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(models...); err != nil {
		return nil, fmt.Errorf("InitPostgresWithUrl: failed to migrate database: %w", err)
	}

	return db, nil
}
