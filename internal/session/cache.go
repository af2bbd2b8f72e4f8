package session

import (
	"context"

	"github.com/thereayou/discord-lite-web/internal/gateway"
	"github.com/thereayou/discord-lite-web/internal/services"
)

// MessageLimit caps every messages list.
const MessageLimit = 20

// ListCache keeps the last successfully fetched rows per table.
type ListCache struct {
	rows map[string][]gateway.Row
}

func NewListCache() *ListCache {
	return &ListCache{rows: make(map[string][]gateway.Row)}
}

// Refresh replaces the cached rows of q.Table with a fresh fetch. On error
// the cache is left as it was and a *services.FetchError is returned.
func (c *ListCache) Refresh(ctx context.Context, gw gateway.Gateway, q gateway.Query) ([]gateway.Row, error) {
	rows, err := gw.Select(ctx, q)
	if err != nil {
		return nil, &services.FetchError{Table: q.Table, Err: err}
	}
	if rows == nil {
		rows = []gateway.Row{}
	}
	c.rows[q.Table] = rows
	return rows, nil
}

func (c *ListCache) Rows(table string) []gateway.Row {
	return c.rows[table]
}

func (c *ListCache) Find(table, column, value string) gateway.Row {
	for _, row := range c.rows[table] {
		if row.String(column) == value {
			return row
		}
	}
	return nil
}

func (c *ListCache) Clear(table string) {
	c.rows[table] = []gateway.Row{}
}

func byName() *gateway.Order {
	return &gateway.Order{Column: "name", Ascending: true}
}

func newestFirst() *gateway.Order {
	return &gateway.Order{Column: "created_at", Ascending: false}
}

func AdminUsersQuery() gateway.Query {
	return gateway.Query{
		Table:   gateway.TableUsers,
		Columns: []string{"user_id", "username", "email"},
		Order:   &gateway.Order{Column: "username", Ascending: true},
	}
}

func AdminServersQuery() gateway.Query {
	return gateway.Query{
		Table:   gateway.TableServers,
		Columns: []string{"server_id", "name"},
		Order:   byName(),
		Embeds:  []gateway.Embed{{Column: "owner_id", Columns: []string{"username"}}},
	}
}

func AdminChannelsQuery() gateway.Query {
	return gateway.Query{
		Table:   gateway.TableChannels,
		Columns: []string{"channel_id", "name", "channel_type"},
		Order:   byName(),
		Embeds:  []gateway.Embed{{Column: "server_id", Columns: []string{"name"}}},
	}
}

func AdminMessagesQuery() gateway.Query {
	return gateway.Query{
		Table:   gateway.TableMessages,
		Columns: []string{"message_id", "content", "created_at"},
		Order:   newestFirst(),
		Limit:   MessageLimit,
		Embeds: []gateway.Embed{
			{Column: "user_id", Columns: []string{"username"}},
			{Column: "channel_id", Columns: []string{"name"}},
		},
	}
}

func ChatServersQuery() gateway.Query {
	return gateway.Query{
		Table:   gateway.TableServers,
		Columns: []string{"server_id", "name"},
		Order:   byName(),
	}
}

func ChatChannelsQuery(serverID string) gateway.Query {
	return gateway.Query{
		Table:   gateway.TableChannels,
		Columns: []string{"channel_id", "name", "channel_type"},
		Filters: []gateway.Filter{gateway.Eq("server_id", serverID)},
		Order:   byName(),
	}
}

func ChatMessagesQuery(channelID string) gateway.Query {
	return gateway.Query{
		Table:   gateway.TableMessages,
		Columns: []string{"message_id", "content", "created_at"},
		Filters: []gateway.Filter{gateway.Eq("channel_id", channelID)},
		Order:   newestFirst(),
		Limit:   MessageLimit,
		Embeds:  []gateway.Embed{{Column: "user_id", Columns: []string{"username"}}},
	}
}
