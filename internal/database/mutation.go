package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thereayou/discord-lite-web/internal/gateway"
	"gorm.io/gorm"
)

// Insert сохраняет строки в одной транзакции и возвращает их с id и created_at
func (d *Database) Insert(ctx context.Context, table string, rows []gateway.Row) ([]gateway.Row, error) {
	t, err := gateway.Lookup(table)
	if err != nil {
		return nil, err
	}
	model, err := modelFor(table)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	inserted := make([]gateway.Row, 0, len(rows))
	err = d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range rows {
			prepared, err := t.PrepareInsert(row, now)
			if err != nil {
				return err
			}
			if err := tx.Model(model).Create(map[string]interface{}(prepared)).Error; err != nil {
				return translate(err)
			}
			inserted = append(inserted, prepared)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

func (d *Database) Update(ctx context.Context, table string, patch gateway.Row, filters []gateway.Filter) (int64, error) {
	t, err := gateway.Lookup(table)
	if err != nil {
		return 0, err
	}
	if len(filters) == 0 {
		return 0, gateway.ErrMissingFilter
	}
	for col := range patch {
		if col == t.PrimaryKey {
			return 0, fmt.Errorf("%w: primary key %s.%s is immutable", gateway.ErrConstraint, t.Name, col)
		}
		if err := t.CheckColumns(col); err != nil {
			return 0, err
		}
	}
	conds, err := conditions(t, filters)
	if err != nil {
		return 0, err
	}
	model, err := modelFor(table)
	if err != nil {
		return 0, err
	}

	res := d.db.WithContext(ctx).Model(model).Where(conds).Updates(map[string]interface{}(patch))
	if res.Error != nil {
		return 0, translate(res.Error)
	}
	return res.RowsAffected, nil
}

// Delete удаляет строки, зависимые таблицы чистит ON DELETE CASCADE
func (d *Database) Delete(ctx context.Context, table string, filters []gateway.Filter) (int64, error) {
	t, err := gateway.Lookup(table)
	if err != nil {
		return 0, err
	}
	if len(filters) == 0 {
		return 0, gateway.ErrMissingFilter
	}
	conds, err := conditions(t, filters)
	if err != nil {
		return 0, err
	}
	model, err := modelFor(table)
	if err != nil {
		return 0, err
	}

	res := d.db.WithContext(ctx).Where(conds).Delete(model)
	if res.Error != nil {
		return 0, translate(res.Error)
	}
	return res.RowsAffected, nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %v", gateway.ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", gateway.ErrConstraint, err)
	}
	return err
}
