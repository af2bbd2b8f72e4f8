// Package memdb is an in-memory gateway.Store used in self-contained mode and
// as the test fixture. It enforces foreign keys, unique columns and cascading
// deletes the same way the SQL schema does.
package memdb

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/thereayou/discord-lite-web/internal/gateway"
	"github.com/thereayou/discord-lite-web/internal/models"
)

type Store struct {
	mu         sync.RWMutex
	tables     map[string][]gateway.Row
	identities map[string]*models.Identity
	now        func() time.Time
}

func New() *Store {
	s := &Store{
		tables:     make(map[string][]gateway.Row),
		identities: make(map[string]*models.Identity),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for name := range gateway.Schema {
		s.tables[name] = nil
	}
	return s
}

// SetClock replaces the time source used for created_at stamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Select(ctx context.Context, q gateway.Query) ([]gateway.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := gateway.Lookup(q.Table)
	if err != nil {
		return nil, err
	}
	if err := t.CheckColumns(q.Columns...); err != nil {
		return nil, err
	}
	if err := checkFilters(t, q.Filters); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []gateway.Row
	for _, row := range s.tables[t.Name] {
		if matches(row, q.Filters) {
			matched = append(matched, row)
		}
	}

	if q.Order != nil {
		if err := t.CheckColumns(q.Order.Column); err != nil {
			return nil, err
		}
		col, asc := q.Order.Column, q.Order.Ascending
		sort.SliceStable(matched, func(i, j int) bool {
			c := compare(matched[i][col], matched[j][col])
			if asc {
				return c < 0
			}
			return c > 0
		})
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	out := make([]gateway.Row, len(matched))
	for i, row := range matched {
		out[i] = project(row, q.Columns, q.Embeds)
	}
	for _, e := range q.Embeds {
		if err := s.embed(t, e, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) embed(t gateway.Table, e gateway.Embed, rows []gateway.Row) error {
	ref, ok := t.References[e.Column]
	if !ok {
		return fmt.Errorf("%w: %s.%s is not a foreign key", gateway.ErrUnknownColumn, t.Name, e.Column)
	}
	target, err := gateway.Lookup(ref.Table)
	if err != nil {
		return err
	}
	if err := target.CheckColumns(e.Columns...); err != nil {
		return err
	}
	for _, row := range rows {
		parent := s.find(ref.Table, ref.Key, row.String(e.Column))
		if parent == nil {
			row[e.Column] = nil
			continue
		}
		nested := gateway.Row{}
		for _, c := range e.Columns {
			nested[c] = parent[c]
		}
		row[e.Column] = nested
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, table string, rows []gateway.Row) ([]gateway.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := gateway.Lookup(table)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	staged := make([]gateway.Row, 0, len(rows))
	for _, row := range rows {
		prepared, err := t.PrepareInsert(row, now)
		if err != nil {
			return nil, err
		}
		if err := s.checkInsert(t, prepared, staged); err != nil {
			return nil, err
		}
		staged = append(staged, prepared)
	}

	out := make([]gateway.Row, len(staged))
	for i, row := range staged {
		s.tables[t.Name] = append(s.tables[t.Name], row)
		out[i] = row.Clone()
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, table string, patch gateway.Row, filters []gateway.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	t, err := gateway.Lookup(table)
	if err != nil {
		return 0, err
	}
	if len(filters) == 0 {
		return 0, gateway.ErrMissingFilter
	}
	if err := checkFilters(t, filters); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for col, v := range patch {
		if col == t.PrimaryKey {
			return 0, fmt.Errorf("%w: primary key %s.%s is immutable", gateway.ErrConstraint, t.Name, col)
		}
		if err := t.CheckColumns(col); err != nil {
			return 0, err
		}
		if ref, ok := t.References[col]; ok {
			if err := s.checkReference(t.Name, col, ref, v); err != nil {
				return 0, err
			}
		}
	}

	var matched []gateway.Row
	for _, row := range s.tables[t.Name] {
		if matches(row, filters) {
			matched = append(matched, row)
		}
	}
	// every check runs before the first write so a failed update changes nothing
	for _, col := range t.Unique {
		v, ok := patch[col]
		if !ok || len(matched) == 0 {
			continue
		}
		if len(matched) > 1 || s.taken(t, col, v, matched[0]) {
			return 0, fmt.Errorf("%w: duplicate %s.%s", gateway.ErrConstraint, t.Name, col)
		}
	}

	for _, row := range matched {
		for col, v := range patch {
			row[col] = v
		}
	}
	return int64(len(matched)), nil
}

// Delete removes matching rows and walks the cascade to dependent tables.
func (s *Store) Delete(ctx context.Context, table string, filters []gateway.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	t, err := gateway.Lookup(table)
	if err != nil {
		return 0, err
	}
	if len(filters) == 0 {
		return 0, gateway.ErrMissingFilter
	}
	if err := checkFilters(t, filters); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.remove(t, func(row gateway.Row) bool { return matches(row, filters) })
	return int64(len(removed)), nil
}

func (s *Store) remove(t gateway.Table, match func(gateway.Row) bool) []string {
	var keep []gateway.Row
	var removed []string
	for _, row := range s.tables[t.Name] {
		if match(row) {
			removed = append(removed, row.String(t.PrimaryKey))
		} else {
			keep = append(keep, row)
		}
	}
	s.tables[t.Name] = keep
	if len(removed) == 0 {
		return nil
	}

	gone := make(map[string]bool, len(removed))
	for _, k := range removed {
		gone[k] = true
	}
	for _, dep := range gateway.Dependents(t.Name) {
		child := gateway.Schema[dep.Table]
		col := dep.Column
		s.remove(child, func(row gateway.Row) bool { return gone[row.String(col)] })
	}
	return removed
}

func (s *Store) checkInsert(t gateway.Table, row gateway.Row, staged []gateway.Row) error {
	pk := row.String(t.PrimaryKey)
	if s.find(t.Name, t.PrimaryKey, pk) != nil || findIn(staged, t.PrimaryKey, pk) != nil {
		return fmt.Errorf("%w: duplicate %s.%s", gateway.ErrConstraint, t.Name, t.PrimaryKey)
	}
	for _, col := range t.Unique {
		v := row.String(col)
		if s.find(t.Name, col, v) != nil || findIn(staged, col, v) != nil {
			return fmt.Errorf("%w: duplicate %s.%s", gateway.ErrConstraint, t.Name, col)
		}
	}
	for col, ref := range t.References {
		if err := s.checkReference(t.Name, col, ref, row[col]); err != nil {
			return err
		}
	}
	return nil
}

// checkReference requires s.mu to be held.
func (s *Store) checkReference(table, col string, ref gateway.Reference, v interface{}) error {
	key := gateway.Row{col: v}.String(col)
	if key == "" {
		return fmt.Errorf("%w: %s.%s is required", gateway.ErrConstraint, table, col)
	}
	if s.find(ref.Table, ref.Key, key) == nil {
		return fmt.Errorf("%w: %s.%s references missing %s row %q", gateway.ErrConstraint, table, col, ref.Table, key)
	}
	return nil
}

func (s *Store) taken(t gateway.Table, col string, v interface{}, self gateway.Row) bool {
	want := gateway.Row{col: v}.String(col)
	for _, row := range s.tables[t.Name] {
		if row.String(t.PrimaryKey) != self.String(t.PrimaryKey) && row.String(col) == want {
			return true
		}
	}
	return false
}

func (s *Store) find(table, col, value string) gateway.Row {
	return findIn(s.tables[table], col, value)
}

func findIn(rows []gateway.Row, col, value string) gateway.Row {
	for _, row := range rows {
		if row.String(col) == value {
			return row
		}
	}
	return nil
}

func checkFilters(t gateway.Table, filters []gateway.Filter) error {
	for _, f := range filters {
		if err := t.CheckColumns(f.Column); err != nil {
			return err
		}
	}
	return nil
}

func matches(row gateway.Row, filters []gateway.Filter) bool {
	for _, f := range filters {
		if row.String(f.Column) != (gateway.Row{f.Column: f.Value}).String(f.Column) {
			return false
		}
	}
	return true
}

func project(row gateway.Row, columns []string, embeds []gateway.Embed) gateway.Row {
	if len(columns) == 0 {
		return row.Clone()
	}
	out := gateway.Row{}
	for _, c := range columns {
		if c == "*" {
			return row.Clone()
		}
		out[c] = row[c]
	}
	for _, e := range embeds {
		out[e.Column] = row[e.Column]
	}
	return out
}

func compare(a, b interface{}) int {
	switch av := a.(type) {
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			switch {
			case av.Before(bv):
				return -1
			case av.After(bv):
				return 1
			}
			return 0
		}
	case int:
		if bv, ok := b.(int); ok {
			return av - bv
		}
	}
	as := gateway.Row{"v": a}.String("v")
	bs := gateway.Row{"v": b}.String("v")
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}
