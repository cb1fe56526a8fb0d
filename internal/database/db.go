package database

import (
	"fmt"
	"strings"

	"github.com/Baaaki/yamdb/internal/config"
	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const sqlitePrefix = "sqlite://"

var DB *gorm.DB

// Open connects to PostgreSQL, or to SQLite when the URL starts with sqlite://.
// Constraint violations are translated to gorm.ErrDuplicatedKey / gorm.ErrForeignKeyViolated.
func Open(databaseURL string) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	}

	if strings.HasPrefix(databaseURL, sqlitePrefix) {
		db, err := gorm.Open(sqlite.Open(sqliteDSN(databaseURL)), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// SQLite allows one writer; serialize everything through one connection.
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	}

	db, err := gorm.Open(postgres.Open(databaseURL), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

func sqliteDSN(databaseURL string) string {
	dsn := strings.TrimPrefix(databaseURL, sqlitePrefix)
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=1"
}

// AutoMigrate creates or updates every table the API uses.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Genre{},
		&models.Title{},
		&models.TitleGenre{},
		&models.Review{},
		&models.Comment{},
	)
}

func Connect(cfg *config.Config) {
	var err error

	DB, err = Open(cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatal("Failed to connect database", zap.Error(err))
	}

	logger.Log.Info("Database connected", zap.String("dialect", DB.Dialector.Name()))
}

func Migrate() {
	if err := AutoMigrate(DB); err != nil {
		logger.Log.Fatal("Migration failed", zap.Error(err))
	}

	logger.Log.Info("Database migration completed")
}
