package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"studio-attendance/internal/config"
)

const slowQueryThreshold = 200 * time.Millisecond

// NewGormConfig собирает настройки gorm: логирование через logrus без шума
// от ErrRecordNotFound (репозитории трактуют его как nil, nil) и часы в UTC.
func NewGormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: logger.New(logrus.StandardLogger(), logger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	}
}

// Open подключается к базе данных, указанной в конфигурации
func Open(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := NewGormConfig()

	switch cfg.DatabaseDriver {
	case "postgres":
		db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return db, nil
	case "sqlite":
		return OpenSQLite(cfg.DatabaseURL, gormCfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
}

// OpenSQLite открывает SQLite и включает внешние ключи.
// Соединение одно: SQLite сериализует запись, а транзакции не должны ждать друг друга на уровне пула.
func OpenSQLite(path string, gormCfg *gorm.Config) (*gorm.DB, error) {
	if gormCfg == nil {
		gormCfg = NewGormConfig()
		gormCfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	gormCfg.DisableForeignKeyConstraintWhenMigrating = true // SQLite ограничения
	gormCfg.TranslateError = true

	db, err := gorm.Open(sqlite.Open(path), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			logrus.Warnf("failed to apply %q: %v", pragma, err)
		}
	}

	return db, nil
}

// Close закрывает соединение с БД
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
