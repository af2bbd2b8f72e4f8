package changefeed

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/thereayou/discord-lite-web/internal/gateway"
	"go.uber.org/zap"
)

const channelPrefix = "changes:"

// RedisFeed fans change events out through Redis pub/sub so that several
// server processes share one feed.
type RedisFeed struct {
	rdb    *redis.Client
	sugar  *zap.SugaredLogger
	buffer int
}

func NewRedisFeed(rdb *redis.Client, sugar *zap.SugaredLogger, buffer int) *RedisFeed {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &RedisFeed{rdb: rdb, sugar: sugar, buffer: buffer}
}

func ChannelName(table string) string {
	return channelPrefix + table
}

func (f *RedisFeed) Publish(ctx context.Context, event gateway.ChangeEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return f.rdb.Publish(ctx, ChannelName(event.Table), data).Err()
}

func (f *RedisFeed) Subscribe(ctx context.Context, table string, mask gateway.EventMask) (gateway.Subscription, error) {
	pubsub := f.rdb.Subscribe(ctx, ChannelName(table))
	// wait for the subscription confirmation so no event published after
	// Subscribe returns is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &redisSubscription{
		table:  table,
		pubsub: pubsub,
		events: make(chan gateway.ChangeEvent, f.buffer),
		cancel: cancel,
	}
	go sub.forward(subCtx, mask, f.sugar)

	f.sugar.Debugf("Subscribed to [%s] changes in redis", table)
	return sub, nil
}

type redisSubscription struct {
	table  string
	pubsub *redis.PubSub
	events chan gateway.ChangeEvent
	cancel context.CancelFunc
	once   sync.Once
}

func (s *redisSubscription) Table() string                      { return s.table }
func (s *redisSubscription) Events() <-chan gateway.ChangeEvent { return s.events }

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		err = s.pubsub.Close()
	})
	return err
}

func (s *redisSubscription) forward(ctx context.Context, mask gateway.EventMask, sugar *zap.SugaredLogger) {
	defer close(s.events)
	defer s.Close()

	msgCh := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgCh:
			if !ok {
				return
			}
			var event gateway.ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				sugar.Error(err)
				continue
			}
			if !mask.Matches(event.Kind) {
				continue
			}
			select {
			case s.events <- event:
			default:
				sugar.Warnf("Subscriber to [%s] is full, dropping %s event", s.table, event.Kind)
			}
		}
	}
}
