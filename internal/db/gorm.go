package db

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Rogue-Bear-Innovations/bookmarking-back/internal/config"
)

var Module = fx.Provide(
	NewGormClient,
)

type (
	// User rows are keyed by a client-assigned opaque string id.
	User struct {
		UserID   string `gorm:"column:user_id"`
		UserName string `gorm:"column:user_name"`
	}

	// Bookmark carries no FK or unique constraint: the service layer
	// checks owner existence and (user_id, url) uniqueness itself.
	Bookmark struct {
		URL    string `gorm:"column:url"`
		Tags   string `gorm:"column:tags"`
		Text   string `gorm:"column:text"`
		UserID string `gorm:"column:user_id"`
	}
)

func (User) TableName() string { return "users" }

func (Bookmark) TableName() string { return "bookmarks" }

func NewGormClient(cfg *config.Config) (*gorm.DB, error) {
	newLogger := logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Info,
		Colorful:                  true,
		IgnoreRecordNotFoundError: false,
	})

	dialector, err := openDialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	if err := db.AutoMigrate(&User{}); err != nil {
		return nil, errors.Wrap(err, "migrate user")
	}
	if err := db.AutoMigrate(&Bookmark{}); err != nil {
		return nil, errors.Wrap(err, "migrate bookmark")
	}

	return db, nil
}

func openDialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		// busy_timeout makes concurrent writers fail fast instead of
		// waiting on the file lock indefinitely.
		dsn := fmt.Sprintf("%s?_busy_timeout=1000", cfg.DBPath)
		return sqlite.Open(dsn), nil
	case config.DriverPostgres:
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s connect_timeout=1",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode)
		return postgres.Open(dsn), nil
	default:
		return nil, errors.New("unknown DB driver: " + cfg.DBDriver)
	}
}
