package gateway

import (
	"fmt"
	"time"
)

// Row is a single table row keyed by column name. Embedded relations are
// stored under the foreign key column as a nested Row.
type Row map[string]interface{}

// String returns the column as a string, formatting non-string values.
func (r Row) String(column string) string {
	v, ok := r[column]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// Time returns the column as a time.Time. Strings in RFC 3339 are parsed.
func (r Row) Time(column string) time.Time {
	switch t := r[column].(type) {
	case time.Time:
		return t
	case *time.Time:
		if t != nil {
			return *t
		}
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// Embedded returns the nested row produced by an Embed on column, or nil.
func (r Row) Embedded(column string) Row {
	switch t := r[column].(type) {
	case Row:
		return t
	case map[string]interface{}:
		return Row(t)
	}
	return nil
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Filter is an equality condition on a column.
type Filter struct {
	Column string
	Value  interface{}
}

// Eq builds an equality filter.
func Eq(column string, value interface{}) Filter {
	return Filter{Column: column, Value: value}
}

type Order struct {
	Column    string
	Ascending bool
}

// Embed expands a foreign key column into the named columns of the row it
// references.
type Embed struct {
	Column  string
	Columns []string
}

type Query struct {
	Table   string
	Columns []string
	Filters []Filter
	Order   *Order
	Limit   int
	Embeds  []Embed
}
