package session

import (
	"context"
	"sort"

	"github.com/thereayou/discord-lite-web/internal/gateway"
	"go.uber.org/zap"
)

// Subscriptions holds at most one live subscription per table. Events are
// handed to the session loop through post, and events of a subscription
// that has since been replaced are ignored there.
type Subscriptions struct {
	gw      gateway.Gateway
	sugar   *zap.SugaredLogger
	post    func(func(ctx context.Context)) bool
	onEvent func(ctx context.Context, event gateway.ChangeEvent)
	live    map[string]gateway.Subscription
}

func newSubscriptions(gw gateway.Gateway, sugar *zap.SugaredLogger,
	post func(func(ctx context.Context)) bool,
	onEvent func(ctx context.Context, event gateway.ChangeEvent)) *Subscriptions {
	return &Subscriptions{
		gw:      gw,
		sugar:   sugar,
		post:    post,
		onEvent: onEvent,
		live:    make(map[string]gateway.Subscription),
	}
}

// Watch replaces any subscription for table with a fresh one.
func (s *Subscriptions) Watch(ctx context.Context, table string, mask gateway.EventMask) error {
	s.Stop(table)

	sub, err := s.gw.Subscribe(ctx, table, mask)
	if err != nil {
		return err
	}
	s.live[table] = sub
	go s.forward(sub)

	s.sugar.Debugf("Watching [%s]", table)
	return nil
}

func (s *Subscriptions) forward(sub gateway.Subscription) {
	for event := range sub.Events() {
		event := event
		ok := s.post(func(ctx context.Context) {
			if s.live[sub.Table()] != sub {
				return
			}
			s.onEvent(ctx, event)
		})
		if !ok {
			return
		}
	}
}

func (s *Subscriptions) Stop(table string) {
	sub, ok := s.live[table]
	if !ok {
		return
	}
	delete(s.live, table)
	if err := sub.Close(); err != nil {
		s.sugar.Error(err)
	}
}

func (s *Subscriptions) Teardown() {
	for table := range s.live {
		s.Stop(table)
	}
}

// Tables lists the watched tables in order.
func (s *Subscriptions) Tables() []string {
	tables := make([]string, 0, len(s.live))
	for table := range s.live {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	return tables
}
