package db

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/confessit/confessit/internal/config"
)

// Init opens the GORM connection described by DATABASE_URL. The URL
// must carry a postgres:// or sqlite:// prefix; the default is a local
// SQLite file so the server runs without any setup.
func Init() (*gorm.DB, error) {
	dbURL := viper.GetString(config.EnvDatabaseURL)

	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(dbURL, "postgres://"):
		dialector = postgres.Open(strings.TrimPrefix(dbURL, "postgres://"))
		log.Info("connecting to PostgreSQL database")
	case strings.HasPrefix(dbURL, "sqlite://"):
		dsn := strings.TrimPrefix(dbURL, "sqlite://")
		dialector = sqlite.Open(dsn)
		log.WithField("dsn", dsn).Info("connecting to SQLite database")
	default:
		return nil, fmt.Errorf("invalid DATABASE_URL %q: must start with postgres:// or sqlite://", dbURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	log.Info("database connection established")
	return db, nil
}
