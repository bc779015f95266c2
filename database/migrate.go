package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/RudinMaxim/BarberMarket/common"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Migration struct {
	ID        uint   `gorm:"primaryKey"`
	Version   int    `gorm:"uniqueIndex"`
	Name      string `gorm:"uniqueIndex"`
	AppliedAt time.Time
}

type migration struct {
	Version int
	Name    string
	Up      func(*gorm.DB) error
	Down    func(*gorm.DB) error
}

func exec(statements ...string) func(*gorm.DB) error {
	return func(db *gorm.DB) error {
		for _, sql := range statements {
			if err := db.Exec(sql).Error; err != nil {
				return err
			}
		}
		return nil
	}
}

var migrations = []migration{
	{
		Version: 1,
		Name:    "create_profile_table",
		Up: func(db *gorm.DB) error {
			return db.AutoMigrate(&common.Profile{})
		},
		Down: func(db *gorm.DB) error {
			return db.Migrator().DropTable(&common.Profile{})
		},
	},
	{
		Version: 2,
		Name:    "create_service_table",
		Up: func(db *gorm.DB) error {
			return db.AutoMigrate(&common.Service{})
		},
		Down: func(db *gorm.DB) error {
			return db.Migrator().DropTable(&common.Service{})
		},
	},
	{
		Version: 3,
		Name:    "create_barber_availability_table",
		Up: func(db *gorm.DB) error {
			return db.AutoMigrate(&common.Availability{})
		},
		Down: func(db *gorm.DB) error {
			return db.Migrator().DropTable(&common.Availability{})
		},
	},
	{
		Version: 4,
		Name:    "create_booking_table",
		Up: func(db *gorm.DB) error {
			return db.AutoMigrate(&common.Booking{})
		},
		Down: func(db *gorm.DB) error {
			return db.Migrator().DropTable(&common.Booking{})
		},
	},
	{
		// Concurrent inserts for the same barber and time range fail with 23P01.
		Version: 5,
		Name:    "add_booking_overlap_constraint",
		Up: func(db *gorm.DB) error {
			if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS btree_gist`).Error; err != nil {
				return err
			}
			return db.Exec(`ALTER TABLE bookings ADD CONSTRAINT bookings_no_overlap
				EXCLUDE USING gist (barber_id WITH =, tstzrange(start_time, end_time, '[)') WITH &&)
				WHERE (status <> 'cancelled')`).Error
		},
		Down: exec(`ALTER TABLE bookings DROP CONSTRAINT IF EXISTS bookings_no_overlap`),
	},
	{
		Version: 6,
		Name:    "create_blocked_client_table",
		Up: func(db *gorm.DB) error {
			return db.AutoMigrate(&common.BlockedClient{})
		},
		Down: func(db *gorm.DB) error {
			return db.Migrator().DropTable(&common.BlockedClient{})
		},
	},
	{
		Version: 7,
		Name:    "create_review_table",
		Up: func(db *gorm.DB) error {
			return db.AutoMigrate(&common.Review{})
		},
		Down: func(db *gorm.DB) error {
			return db.Migrator().DropTable(&common.Review{})
		},
	},
	{
		Version: 8,
		Name:    "create_notification_table",
		Up: func(db *gorm.DB) error {
			return db.AutoMigrate(&common.Notification{})
		},
		Down: func(db *gorm.DB) error {
			return db.Migrator().DropTable(&common.Notification{})
		},
	},
	{
		Version: 9,
		Name:    "create_city_and_neighborhood_tables",
		Up: func(db *gorm.DB) error {
			return db.AutoMigrate(&common.City{}, &common.Neighborhood{})
		},
		Down: func(db *gorm.DB) error {
			return db.Migrator().DropTable(&common.Neighborhood{}, &common.City{})
		},
	},
	{
		Version: 10,
		Name:    "create_barber_table",
		Up: func(db *gorm.DB) error {
			return db.AutoMigrate(&common.Barber{})
		},
		Down: func(db *gorm.DB) error {
			return db.Migrator().DropTable(&common.Barber{})
		},
	},
	{
		Version: 11,
		Name:    "create_category_table",
		Up: func(db *gorm.DB) error {
			return db.AutoMigrate(&common.Category{})
		},
		Down: func(db *gorm.DB) error {
			return db.Migrator().DropTable(&common.Category{})
		},
	},
	{
		Version: 12,
		Name:    "add_service_category",
		Up: exec(`ALTER TABLE services ADD COLUMN IF NOT EXISTS category_id uuid`,
			`CREATE INDEX IF NOT EXISTS idx_services_category_id ON services (category_id)`),
		Down: exec(`ALTER TABLE services DROP COLUMN IF EXISTS category_id`),
	},
	{
		Version: 13,
		Name:    "create_loyalty_points_table",
		Up: func(db *gorm.DB) error {
			return db.AutoMigrate(&common.LoyaltyPoints{})
		},
		Down: func(db *gorm.DB) error {
			return db.Migrator().DropTable(&common.LoyaltyPoints{})
		},
	},
	{
		Version: 14,
		Name:    "drop_is_active_defaults",
		Up: exec(`ALTER TABLE profiles ALTER COLUMN is_active DROP DEFAULT`,
			`ALTER TABLE services ALTER COLUMN is_active DROP DEFAULT`),
		Down: exec(`ALTER TABLE profiles ALTER COLUMN is_active SET DEFAULT true`,
			`ALTER TABLE services ALTER COLUMN is_active SET DEFAULT true`),
	},
}

func AutoMigrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("Running auto migration")
	if err := RunMigrations(db, log); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Info("Auto migration completed successfully")
	return nil
}

func InitMigrationTable(db *gorm.DB) error {
	return db.AutoMigrate(&Migration{})
}

func RunMigrations(db *gorm.DB, log *zap.Logger) error {
	if err := InitMigrationTable(db); err != nil {
		return fmt.Errorf("failed to initialize migration table: %w", err)
	}

	for _, m := range migrations {
		var applied Migration
		err := db.Where("version = ?", m.Version).First(&applied).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check migration %d: %w", m.Version, err)
		}

		log.Info("Applying migration", zap.Int("version", m.Version), zap.String("name", m.Name))
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			return tx.Create(&Migration{Version: m.Version, Name: m.Name, AppliedAt: time.Now()}).Error
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", m.Version, m.Name, err)
		}
	}

	return nil
}

func RollbackLastMigration(db *gorm.DB, log *zap.Logger) error {
	var last Migration
	if err := db.Order("version DESC").First(&last).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Info("No migrations to rollback")
			return nil
		}
		return fmt.Errorf("failed to get last migration: %w", err)
	}

	for i := len(migrations) - 1; i >= 0; i-- {
		if migrations[i].Version != last.Version {
			continue
		}
		log.Info("Rolling back migration", zap.Int("version", last.Version), zap.String("name", last.Name))
		return db.Transaction(func(tx *gorm.DB) error {
			if err := migrations[i].Down(tx); err != nil {
				return fmt.Errorf("failed to rollback migration %d (%s): %w", last.Version, last.Name, err)
			}
			if err := tx.Delete(&last).Error; err != nil {
				return fmt.Errorf("failed to delete migration record: %w", err)
			}
			return nil
		})
	}

	return fmt.Errorf("migration %d not found in migration list", last.Version)
}
