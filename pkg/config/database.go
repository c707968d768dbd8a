package config

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/web-developer77/nifty-tunes-nft/internal/models"
)

var DB *gorm.DB

// InitDB opens the configured database, applies migrations and sets the global DB
func InitDB(cfg *Config) {
	db, err := OpenDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	DB = db

	switch cfg.MigrateMode {
	case MigrateModeAuto:
		if err := AutoMigrate(DB); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
	case MigrateModeFiles:
		if err := ExecuteMigrations(DB); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
	}
}

// OpenDB connects to postgres, or to a sqlite file when DB_DRIVER=sqlite
func OpenDB(cfg *Config) (*gorm.DB, error) {
	if cfg.DBDriver == "sqlite" {
		return OpenSQLite(cfg.DBPath)
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		cfg.DBPort,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(50)
	sqlDB.SetMaxOpenConns(200)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// OpenSQLite opens a single-connection sqlite database. dsn may be a file
// path or an in-memory URI such as "file:test?mode=memory&cache=shared".
func OpenSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	// sqlite has a single writer
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// AutoMigrate creates or updates every model table
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}

// ForUpdate locks the selected rows until the surrounding transaction ends.
// Only postgres supports row locks; sqlite already serialises transactions.
func ForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
