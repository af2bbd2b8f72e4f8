package keyvalue

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type value struct {
	value   string
	expires time.Time
}

type Local struct {
	mutex   sync.RWMutex
	hashmap map[string]value
	sugar   *zap.SugaredLogger
	now     func() time.Time
}

func NewLocal(sugar *zap.SugaredLogger) *Local {
	return &Local{
		hashmap: make(map[string]value),
		sugar:   sugar,
		now:     time.Now,
	}
}

// Janitor removes expired keys every interval until ctx is done.
func (l *Local) Janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

func (l *Local) sweep() {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	now := l.now()
	for key, v := range l.hashmap {
		if v.expires.Before(now) {
			delete(l.hashmap, key)
		}
	}
}

func (l *Local) Get(_ context.Context, key string) (string, error) {
	l.sugar.Debugf("Getting value of key [%s] from hashmap", key)

	l.mutex.RLock()
	defer l.mutex.RUnlock()

	v, ok := l.hashmap[key]
	if !ok || v.expires.Before(l.now()) {
		return "", nil
	}
	return v.value, nil
}

func (l *Local) Exists(ctx context.Context, key string) (bool, error) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	v, ok := l.hashmap[key]
	return ok && !v.expires.Before(l.now()), nil
}

func (l *Local) Set(_ context.Context, key, val string, expires time.Duration) error {
	l.sugar.Debugf("Setting key [%s] in hashmap for %s", key, expires)

	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.hashmap[key] = value{value: val, expires: l.now().Add(expires)}
	return nil
}

func (l *Local) Del(_ context.Context, key string) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	delete(l.hashmap, key)
	return nil
}
