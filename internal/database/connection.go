package database

import (
	"errors"
	"fmt"

	"github.com/thereayou/discord-lite-web/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Connect открывает базу по DSN. Для mysql DSN должен содержать parseTime=true.
func (d *Database) Connect(driver, dsn string, sugar *zap.SugaredLogger) error {
	if dsn == "" {
		return errors.New("DATABASE_URL is not set")
	}

	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres, "":
		dialector = postgres.Open(dsn)
	case DriverMySQL:
		dialector = mysql.Open(dsn)
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return err
	}

	d.db = db
	sugar.Infof("Connected to %s database", dialector.Name())
	return nil
}

// Migrate создаёт таблицы и внешние ключи с ON DELETE CASCADE
func (d *Database) Migrate() error {
	return d.db.AutoMigrate(
		&models.Identity{},
		&models.User{},
		&models.Server{},
		&models.Channel{},
		&models.Message{},
	)
}
