package gateway

import (
	"context"
	"fmt"
	"strings"
)

type EventKind string

const (
	EventInsert EventKind = "INSERT"
	EventUpdate EventKind = "UPDATE"
	EventDelete EventKind = "DELETE"
)

// EventMask selects which event kinds a subscription receives.
type EventMask uint8

const (
	MaskInsert EventMask = 1 << iota
	MaskUpdate
	MaskDelete

	MaskAll = MaskInsert | MaskUpdate | MaskDelete
)

func (m EventMask) Matches(kind EventKind) bool {
	switch kind {
	case EventInsert:
		return m&MaskInsert != 0
	case EventUpdate:
		return m&MaskUpdate != 0
	case EventDelete:
		return m&MaskDelete != 0
	}
	return false
}

// ParseEventKind accepts the upper or lower case kind name.
func ParseEventKind(s string) (EventKind, error) {
	switch k := EventKind(strings.ToUpper(s)); k {
	case EventInsert, EventUpdate, EventDelete:
		return k, nil
	}
	return "", fmt.Errorf("unknown event kind %q", s)
}

// ChangeEvent is a row-level change notification. Row carries whatever the
// producer knew about the changed row; consumers must not rely on it.
type ChangeEvent struct {
	Kind  EventKind `json:"kind"`
	Table string    `json:"table"`
	Row   Row       `json:"row,omitempty"`
}

// Subscription delivers change events for one table until closed.
type Subscription interface {
	Table() string
	Events() <-chan ChangeEvent
	Close() error
}

// Feed is the change-feed primitive.
type Feed interface {
	Subscribe(ctx context.Context, table string, mask EventMask) (Subscription, error)
	Publish(ctx context.Context, event ChangeEvent) error
}
