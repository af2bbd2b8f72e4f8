// Package gateway defines the Backend Gateway contract the panel consumes:
// authentication, table queries and mutations, and a per-table change feed.
//
// Client composes a Store with a Feed and publishes a change event after
// every successful mutation, including DELETE events for tables reached by a
// cascading delete.
package gateway

import (
	"context"

	"go.uber.org/zap"
)

// Gateway is everything a view session needs from the backend.
type Gateway interface {
	Select(ctx context.Context, q Query) ([]Row, error)
	Insert(ctx context.Context, table string, rows ...Row) ([]Row, error)
	Update(ctx context.Context, table string, patch Row, filters ...Filter) error
	Delete(ctx context.Context, table string, filters ...Filter) error
	Subscribe(ctx context.Context, table string, mask EventMask) (Subscription, error)
}

// Store is the row storage behind a Gateway. Update and Delete report the
// number of affected rows.
type Store interface {
	Select(ctx context.Context, q Query) ([]Row, error)
	Insert(ctx context.Context, table string, rows []Row) ([]Row, error)
	Update(ctx context.Context, table string, patch Row, filters []Filter) (int64, error)
	Delete(ctx context.Context, table string, filters []Filter) (int64, error)
}

// AuthUser is the authenticated subject.
type AuthUser struct {
	ID    string
	Email string
}

// Auth is the authentication half of the gateway.
type Auth interface {
	// SignUp returns the new subject id, or "" when the account still needs
	// confirmation.
	SignUp(ctx context.Context, email, password string) (string, error)
	SignIn(ctx context.Context, email, password string) (string, error)
	SignOut(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (*AuthUser, error)
}

type Client struct {
	store Store
	feed  Feed
	sugar *zap.SugaredLogger
}

func NewClient(store Store, feed Feed, sugar *zap.SugaredLogger) *Client {
	return &Client{store: store, feed: feed, sugar: sugar}
}

func (c *Client) Select(ctx context.Context, q Query) ([]Row, error) {
	return c.store.Select(ctx, q)
}

func (c *Client) Insert(ctx context.Context, table string, rows ...Row) ([]Row, error) {
	inserted, err := c.store.Insert(ctx, table, rows)
	if err != nil {
		return nil, err
	}
	for _, row := range inserted {
		c.publish(ctx, ChangeEvent{Kind: EventInsert, Table: table, Row: row})
	}
	return inserted, nil
}

func (c *Client) Update(ctx context.Context, table string, patch Row, filters ...Filter) error {
	n, err := c.store.Update(ctx, table, patch, filters)
	if err != nil {
		return err
	}
	if n > 0 {
		c.publish(ctx, ChangeEvent{Kind: EventUpdate, Table: table, Row: filterRow(patch, filters)})
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, table string, filters ...Filter) error {
	n, err := c.store.Delete(ctx, table, filters)
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	c.publish(ctx, ChangeEvent{Kind: EventDelete, Table: table, Row: filterRow(nil, filters)})
	for _, dep := range CascadeTables(table) {
		c.publish(ctx, ChangeEvent{Kind: EventDelete, Table: dep})
	}
	return nil
}

func (c *Client) Subscribe(ctx context.Context, table string, mask EventMask) (Subscription, error) {
	if _, err := Lookup(table); err != nil {
		return nil, err
	}
	return c.feed.Subscribe(ctx, table, mask)
}

// publish never fails the mutation: the row change already happened.
func (c *Client) publish(ctx context.Context, event ChangeEvent) {
	if err := c.feed.Publish(ctx, event); err != nil {
		c.sugar.Errorf("Publishing %s on %s failed: %v", event.Kind, event.Table, err)
	}
}

func filterRow(patch Row, filters []Filter) Row {
	row := Row{}
	for k, v := range patch {
		row[k] = v
	}
	for _, f := range filters {
		row[f.Column] = f.Value
	}
	return row
}
