package database

import (
	"context"
	"time"

	"github.com/thereayou/discord-lite-web/internal/models"
)

func (d *Database) CreateIdentity(ctx context.Context, identity *models.Identity) error {
	if err := d.db.WithContext(ctx).Create(identity).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (d *Database) GetIdentity(ctx context.Context, id string) (*models.Identity, error) {
	identity := models.Identity{}
	if err := d.db.WithContext(ctx).First(&identity, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &identity, nil
}

func (d *Database) FindIdentityByEmail(ctx context.Context, email string) (*models.Identity, error) {
	identity := models.Identity{}
	if err := d.db.WithContext(ctx).Where("email = ?", email).First(&identity).Error; err != nil {
		return nil, translate(err)
	}
	return &identity, nil
}

func (d *Database) UpdateLastSignIn(ctx context.Context, id string) error {
	return d.db.WithContext(ctx).
		Model(&models.Identity{}).
		Where("id = ?", id).
		Update("last_sign_in_at", time.Now().UTC()).Error
}
