package database

import (
	"fmt"

	"github.com/thereayou/discord-lite-web/internal/gateway"
	"github.com/thereayou/discord-lite-web/internal/models"
	"gorm.io/gorm"
)

// Database реализует gateway.Store поверх gorm
type Database struct {
	db *gorm.DB
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func modelFor(table string) (interface{}, error) {
	switch table {
	case gateway.TableUsers:
		return &models.User{}, nil
	case gateway.TableServers:
		return &models.Server{}, nil
	case gateway.TableChannels:
		return &models.Channel{}, nil
	case gateway.TableMessages:
		return &models.Message{}, nil
	}
	return nil, fmt.Errorf("%w: %q", gateway.ErrUnknownTable, table)
}
