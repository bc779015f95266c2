package database

import (
	"fmt"

	"github.com/RudinMaxim/BarberMarket/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func getDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		cfg.Host,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.Port,
		cfg.SSLMode,
	)
}

func InitDatabase(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	log.Info("Connecting to database", zap.String("host", cfg.Host), zap.String("name", cfg.Name))

	db, err := gorm.Open(postgres.Open(getDSN(cfg)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := configureConnectionPool(db, cfg); err != nil {
		return nil, err
	}

	log.Info("Successfully connected to database")

	if err := AutoMigrate(db, log); err != nil {
		return nil, err
	}

	return db, nil
}
