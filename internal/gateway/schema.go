package gateway

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

const (
	TableUsers    = "users"
	TableServers  = "servers"
	TableChannels = "channels"
	TableMessages = "messages"
)

// Reference describes a foreign key column.
type Reference struct {
	Table string
	Key   string
}

type Table struct {
	Name       string
	PrimaryKey string
	Columns    []string
	References map[string]Reference
	Unique     []string
	// Stamped columns are filled with the insert time when missing.
	Stamped []string
}

// Schema lists the tables reachable through the query API. Deletes cascade
// along References.
var Schema = map[string]Table{
	TableUsers: {
		Name:       TableUsers,
		PrimaryKey: "user_id",
		Columns:    []string{"user_id", "username", "email", "avatar_url", "status", "created_at"},
		Unique:     []string{"email"},
		Stamped:    []string{"created_at"},
	},
	TableServers: {
		Name:       TableServers,
		PrimaryKey: "server_id",
		Columns:    []string{"server_id", "name", "owner_id", "created_at"},
		References: map[string]Reference{
			"owner_id": {Table: TableUsers, Key: "user_id"},
		},
		Stamped: []string{"created_at"},
	},
	TableChannels: {
		Name:       TableChannels,
		PrimaryKey: "channel_id",
		Columns:    []string{"channel_id", "name", "channel_type", "server_id", "created_at"},
		References: map[string]Reference{
			"server_id": {Table: TableServers, Key: "server_id"},
		},
		Stamped: []string{"created_at"},
	},
	TableMessages: {
		Name:       TableMessages,
		PrimaryKey: "message_id",
		Columns:    []string{"message_id", "content", "user_id", "channel_id", "created_at"},
		References: map[string]Reference{
			"user_id":    {Table: TableUsers, Key: "user_id"},
			"channel_id": {Table: TableChannels, Key: "channel_id"},
		},
		Stamped: []string{"created_at"},
	},
}

// Lookup returns the table definition or ErrUnknownTable.
func Lookup(table string) (Table, error) {
	t, ok := Schema[table]
	if !ok {
		return Table{}, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	return t, nil
}

func (t Table) HasColumn(column string) bool {
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// CheckColumns validates every column name against the table definition.
func (t Table) CheckColumns(columns ...string) error {
	for _, c := range columns {
		if c == "*" {
			continue
		}
		if !t.HasColumn(c) {
			return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.Name, c)
		}
	}
	return nil
}

// Dependent is a table holding a foreign key into another table.
type Dependent struct {
	Table  string
	Column string
}

// Dependents returns the tables whose rows are deleted when rows of table
// are deleted, in a stable order.
func Dependents(table string) []Dependent {
	var out []Dependent
	for _, name := range []string{TableUsers, TableServers, TableChannels, TableMessages} {
		t := Schema[name]
		for _, col := range sortedKeys(t.References) {
			if t.References[col].Table == table {
				out = append(out, Dependent{Table: name, Column: col})
			}
		}
	}
	return out
}

// CascadeTables returns every table reached by cascading deletes from table,
// excluding table itself.
func CascadeTables(table string) []string {
	seen := map[string]bool{table: true}
	var out []string
	queue := []string{table}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		for _, d := range Dependents(next) {
			if !seen[d.Table] {
				seen[d.Table] = true
				out = append(out, d.Table)
				queue = append(queue, d.Table)
			}
		}
	}
	return out
}

func sortedKeys(m map[string]Reference) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PrepareInsert validates a row for insertion and fills the primary key and
// stamped columns when they are missing. The input row is not modified.
func (t Table) PrepareInsert(row Row, now time.Time) (Row, error) {
	out := row.Clone()
	for col := range out {
		if err := t.CheckColumns(col); err != nil {
			return nil, err
		}
	}
	if out.String(t.PrimaryKey) == "" {
		out[t.PrimaryKey] = uuid.NewString()
	}
	for _, col := range t.Stamped {
		if _, ok := out[col]; !ok {
			out[col] = now
		}
	}
	return out, nil
}
