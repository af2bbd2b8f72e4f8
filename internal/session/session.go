// Package session drives one live browser view. Actions, change events and
// status timers all run on the session's single loop goroutine.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/thereayou/discord-lite-web/internal/gateway"
	"github.com/thereayou/discord-lite-web/internal/services"
	"github.com/thereayou/discord-lite-web/internal/view"
	"go.uber.org/zap"
)

type Kind string

const (
	ViewChat  Kind = "chat"
	ViewAdmin Kind = "admin"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case ViewChat, ViewAdmin:
		return Kind(s), nil
	}
	return "", ErrUnknownView
}

const (
	DefaultStatusTTL = 3 * time.Second
	inboxSize        = 64

	AdminIdleStatus = "✅ Panel ready. Live updates on."
)

var (
	ErrUnknownView      = errors.New("unknown view")
	ErrUnknownAction    = errors.New("unknown action")
	ErrActionNotAllowed = errors.New("action not allowed in this view")
	ErrSessionClosed    = errors.New("session closed")
)

type Config struct {
	View      Kind
	User      *gateway.AuthUser
	StatusTTL time.Duration
}

type Session struct {
	cfg      Config
	gw       gateway.Gateway
	renderer *view.Renderer
	out      Outbox
	sugar    *zap.SugaredLogger

	inbox chan func(ctx context.Context)
	done  chan struct{}

	// owned by the loop
	subs      *Subscriptions
	cache     *ListCache
	selection Selection
	pending   map[string]pendingDelete
	statusGen uint64
}

func New(cfg Config, gw gateway.Gateway, renderer *view.Renderer, out Outbox, sugar *zap.SugaredLogger) *Session {
	if cfg.StatusTTL <= 0 {
		cfg.StatusTTL = DefaultStatusTTL
	}
	s := &Session{
		cfg:      cfg,
		gw:       gw,
		renderer: renderer,
		out:      out,
		sugar:    sugar.With("view", string(cfg.View)),
		inbox:    make(chan func(ctx context.Context), inboxSize),
		done:     make(chan struct{}),
		cache:    NewListCache(),
		pending:  make(map[string]pendingDelete),
	}
	s.subs = newSubscriptions(gw, s.sugar, s.Post, s.onChange)
	return s
}

func (s *Session) View() Kind { return s.cfg.View }

// Run enters the view and then executes posted work until ctx is done.
// All subscriptions are released on return.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)
	defer s.subs.Teardown()

	s.enter(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-s.inbox:
			fn(ctx)
		}
	}
}

// Post queues fn for the loop. It reports false once the loop has exited.
func (s *Session) Post(fn func(ctx context.Context)) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.inbox <- fn:
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) enter(ctx context.Context) {
	switch s.cfg.View {
	case ViewAdmin:
		s.enterAdmin(ctx)
	default:
		s.enterChat(ctx)
	}
}

func (s *Session) push(frameType string, data interface{}) {
	if err := s.out.Push(frameType, data); err != nil {
		s.sugar.Warnf("Dropping %s frame: %v", frameType, err)
	}
}

func (s *Session) render(target, html string) {
	s.push(FrameRender, RenderFrame{Target: target, HTML: html})
}

func (s *Session) renderText(target, text string) {
	html, err := s.renderer.Text(text)
	if err != nil {
		s.sugar.Error(err)
		return
	}
	s.render(target, html)
}

func (s *Session) renderFetchError(target, table string, err error) {
	s.sugar.Errorf("Fetching [%s]: %v", table, err)
	html, rerr := s.renderer.FetchError(table, cause(err))
	if rerr != nil {
		s.sugar.Error(rerr)
		return
	}
	s.render(target, html)
}

// cause strips the FetchError wrapper, whose table is rendered separately.
func cause(err error) error {
	var fe *services.FetchError
	if errors.As(err, &fe) {
		return fe.Err
	}
	return err
}

func (s *Session) idleStatus() string {
	if s.cfg.View == ViewAdmin {
		return AdminIdleStatus
	}
	return ""
}

// setStatus replaces the status line. A transient status reverts to the
// idle text after the TTL unless another status was set meanwhile.
func (s *Session) setStatus(text, level string, transient bool) {
	s.statusGen++
	s.push(FrameStatus, StatusFrame{Text: text, Level: level})
	if !transient {
		return
	}

	gen := s.statusGen
	time.AfterFunc(s.cfg.StatusTTL, func() {
		s.Post(func(context.Context) {
			if s.statusGen != gen {
				return
			}
			s.setStatus(s.idleStatus(), view.LevelInfo, false)
		})
	})
}

func (s *Session) composer(enabled, clear bool) {
	s.push(FrameComposer, ComposerFrame{Enabled: enabled, Clear: clear})
}

func (s *Session) onChange(ctx context.Context, event gateway.ChangeEvent) {
	s.sugar.Debugf("Change on [%s]: %s", event.Table, event.Kind)
	switch s.cfg.View {
	case ViewAdmin:
		s.refreshAdmin(ctx, event)
	default:
		s.refreshChat(ctx, event)
	}
}

var nouns = map[string]string{
	gateway.TableUsers:    "user",
	gateway.TableServers:  "server",
	gateway.TableChannels: "channel",
	gateway.TableMessages: "message",
}

func noun(table string) string {
	if n, ok := nouns[table]; ok {
		return n
	}
	return strings.TrimSuffix(table, "s")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

var verbs = map[gateway.EventKind]string{
	gateway.EventInsert: "added",
	gateway.EventUpdate: "updated",
	gateway.EventDelete: "deleted",
}

// EventStatus is the status line shown after a change event.
func EventStatus(event gateway.ChangeEvent) string {
	text := "🔔 A " + noun(event.Table) + " was " + verbs[event.Kind]
	if event.Table == gateway.TableMessages {
		text += " (top 20 refreshed)"
	}
	return text + "."
}
