package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/discord-lite-web/internal/gateway"
	"gorm.io/gorm/clause"
)

// Select выполняет запрос к одной таблице и раскрывает embeds вторым запросом
func (d *Database) Select(ctx context.Context, q gateway.Query) ([]gateway.Row, error) {
	table, err := gateway.Lookup(q.Table)
	if err != nil {
		return nil, err
	}
	columns := selectColumns(q)
	if err := table.CheckColumns(columns...); err != nil {
		return nil, err
	}

	tx := d.db.WithContext(ctx).Table(table.Name).Select(columns)
	conds, err := conditions(table, q.Filters)
	if err != nil {
		return nil, err
	}
	if len(conds) > 0 {
		tx = tx.Where(conds)
	}
	if q.Order != nil {
		if err := table.CheckColumns(q.Order.Column); err != nil {
			return nil, err
		}
		tx = tx.Order(clause.OrderByColumn{
			Column: clause.Column{Name: q.Order.Column},
			Desc:   !q.Order.Ascending,
		})
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var found []map[string]interface{}
	if err := tx.Find(&found).Error; err != nil {
		return nil, translate(err)
	}

	rows := make([]gateway.Row, len(found))
	for i, m := range found {
		rows[i] = normalize(m)
	}

	for _, embed := range q.Embeds {
		if err := d.embed(ctx, table, embed, rows); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

func (d *Database) embed(ctx context.Context, table gateway.Table, embed gateway.Embed, rows []gateway.Row) error {
	ref, ok := table.References[embed.Column]
	if !ok {
		return fmt.Errorf("%w: %s.%s is not a foreign key", gateway.ErrUnknownColumn, table.Name, embed.Column)
	}
	target, err := gateway.Lookup(ref.Table)
	if err != nil {
		return err
	}
	if err := target.CheckColumns(embed.Columns...); err != nil {
		return err
	}

	keys := make([]string, 0, len(rows))
	seen := map[string]bool{}
	for _, row := range rows {
		k := row.String(embed.Column)
		if k != "" && !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	related := map[string]gateway.Row{}
	if len(keys) > 0 {
		var found []map[string]interface{}
		err := d.db.WithContext(ctx).
			Table(target.Name).
			Select(append([]string{ref.Key}, embed.Columns...)).
			Where(clause.IN{Column: clause.Column{Name: ref.Key}, Values: toValues(keys)}).
			Find(&found).Error
		if err != nil {
			return translate(err)
		}
		for _, m := range found {
			r := normalize(m)
			nested := gateway.Row{}
			for _, c := range embed.Columns {
				nested[c] = r[c]
			}
			related[r.String(ref.Key)] = nested
		}
	}

	for _, row := range rows {
		if nested, ok := related[row.String(embed.Column)]; ok {
			row[embed.Column] = nested
		} else {
			row[embed.Column] = nil
		}
	}
	return nil
}

// selectColumns добавляет столбцы внешних ключей, нужные для embeds
func selectColumns(q gateway.Query) []string {
	columns := q.Columns
	if len(columns) == 0 {
		columns = []string{"*"}
	}
	out := append([]string(nil), columns...)
	for _, e := range q.Embeds {
		if !contains(out, e.Column) && !contains(out, "*") {
			out = append(out, e.Column)
		}
	}
	return out
}

func conditions(table gateway.Table, filters []gateway.Filter) (map[string]interface{}, error) {
	conds := make(map[string]interface{}, len(filters))
	for _, f := range filters {
		if err := table.CheckColumns(f.Column); err != nil {
			return nil, err
		}
		conds[f.Column] = f.Value
	}
	return conds, nil
}

// normalize приводит значения драйвера к string/time.Time
func normalize(m map[string]interface{}) gateway.Row {
	row := make(gateway.Row, len(m))
	for k, v := range m {
		switch t := v.(type) {
		case []byte:
			row[k] = string(t)
		case [16]byte:
			row[k] = uuid.UUID(t).String()
		case *time.Time:
			if t != nil {
				row[k] = *t
			} else {
				row[k] = nil
			}
		default:
			row[k] = v
		}
	}
	return row
}

func toValues(keys []string) []interface{} {
	out := make([]interface{}, len(keys))
	for i, k := range keys {
		out[i] = k
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
