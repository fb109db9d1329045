package pkg

import (
	"fmt"

	"github.com/acadex/examtrack-service/internal/config"
	"github.com/acadex/examtrack-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	var logLevel logger.LogLevel
	if cfg.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// AutoMigrate creates or updates the tables this service owns. The users
// table is provisioned by the identity service and only read here.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Exam{}, &models.Result{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
