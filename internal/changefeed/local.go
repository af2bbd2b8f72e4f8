package changefeed

import (
	"context"
	"sync"

	"github.com/thereayou/discord-lite-web/internal/gateway"
	"go.uber.org/zap"
)

const DefaultBuffer = 64

// LocalFeed is an in-process change feed. Each subscriber gets its own
// buffered channel; an event for a full channel is dropped, the already
// queued event still triggers a refetch that observes the change.
type LocalFeed struct {
	mutex  sync.RWMutex
	subs   map[string]map[*localSubscription]struct{}
	buffer int
	sugar  *zap.SugaredLogger
}

func NewLocalFeed(sugar *zap.SugaredLogger, buffer int) *LocalFeed {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &LocalFeed{
		subs:   make(map[string]map[*localSubscription]struct{}),
		buffer: buffer,
		sugar:  sugar,
	}
}

func (f *LocalFeed) Subscribe(ctx context.Context, table string, mask gateway.EventMask) (gateway.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sub := &localSubscription{
		feed:   f,
		table:  table,
		mask:   mask,
		events: make(chan gateway.ChangeEvent, f.buffer),
	}

	f.mutex.Lock()
	if f.subs[table] == nil {
		f.subs[table] = make(map[*localSubscription]struct{})
	}
	f.subs[table][sub] = struct{}{}
	f.mutex.Unlock()

	stop := context.AfterFunc(ctx, func() { sub.Close() })
	f.mutex.Lock()
	sub.stop = stop
	f.mutex.Unlock()

	f.sugar.Debugf("Subscribed to [%s] changes locally", table)
	return sub, nil
}

func (f *LocalFeed) Publish(_ context.Context, event gateway.ChangeEvent) error {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	for sub := range f.subs[event.Table] {
		if !sub.mask.Matches(event.Kind) {
			continue
		}
		select {
		case sub.events <- event:
		default:
			f.sugar.Warnf("Subscriber to [%s] is full, dropping %s event", event.Table, event.Kind)
		}
	}
	return nil
}

// Subscribers reports the number of live subscriptions for table.
func (f *LocalFeed) Subscribers(table string) int {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	return len(f.subs[table])
}

func (f *LocalFeed) unsubscribe(sub *localSubscription) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if sub.stop != nil {
		sub.stop()
	}
	delete(f.subs[sub.table], sub)
	if len(f.subs[sub.table]) == 0 {
		delete(f.subs, sub.table)
	}
	close(sub.events)
}

type localSubscription struct {
	feed   *LocalFeed
	table  string
	mask   gateway.EventMask
	events chan gateway.ChangeEvent
	stop   func() bool
	once   sync.Once
}

func (s *localSubscription) Table() string                      { return s.table }
func (s *localSubscription) Events() <-chan gateway.ChangeEvent { return s.events }

func (s *localSubscription) Close() error {
	s.once.Do(func() { s.feed.unsubscribe(s) })
	return nil
}
