package bootstrap

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fadilmartias/resume-screener/internal/config"
	"github.com/fadilmartias/resume-screener/internal/model"
)

// ConnectDB opens Postgres, sizes the pool for the environment and migrates
// the screening tables.
func ConnectDB(log *zap.Logger) (*gorm.DB, error) {
	dbConfig := config.LoadDBConfig()
	appConfig := config.LoadAppConfig()
	if err := dbConfig.Validate(); err != nil {
		return nil, err
	}

	level := gormlogger.Warn
	if appConfig.LogDebug {
		level = gormlogger.Info
	}
	db, err := gorm.Open(postgres.Open(dbConfig.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	pgDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database instance: %w", err)
	}
	if appConfig.Env != "production" {
		pgDB.SetMaxIdleConns(5)
		pgDB.SetMaxOpenConns(10)
		pgDB.SetConnMaxLifetime(30 * time.Minute)
	} else {
		pgDB.SetMaxIdleConns(20)
		pgDB.SetMaxOpenConns(200)
		pgDB.SetConnMaxLifetime(time.Hour)
	}

	// ids default to uuid_generate_v4() and candidates carry a vector column
	for _, ext := range []string{`"uuid-ossp"`, "vector"} {
		if err := db.Exec("CREATE EXTENSION IF NOT EXISTS " + ext).Error; err != nil {
			return nil, fmt.Errorf("enable extension %s: %w", ext, err)
		}
	}
	if err := db.AutoMigrate(&model.Job{}, &model.Candidate{}, &model.Application{}); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	log.Info("database ready", zap.String("host", dbConfig.Host), zap.String("name", dbConfig.Name))
	return db, nil
}
