package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/discord-lite-web/internal/changefeed"
	"github.com/thereayou/discord-lite-web/internal/gateway"
	"github.com/thereayou/discord-lite-web/internal/memdb"
	"github.com/thereayou/discord-lite-web/internal/view"
	"go.uber.org/zap"
)

type frame struct {
	Type string
	Data interface{}
}

type recorder struct {
	mu     sync.Mutex
	frames []frame
}

func (r *recorder) Push(frameType string, data interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, frame{frameType, data})
	return nil
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func (r *recorder) renders(target string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, f := range r.frames {
		if rf, ok := f.Data.(RenderFrame); ok && rf.Target == target {
			out = append(out, rf.HTML)
		}
	}
	return out
}

func (r *recorder) lastRender(target string) string {
	all := r.renders(target)
	if len(all) == 0 {
		return ""
	}
	return all[len(all)-1]
}

func (r *recorder) statuses() []StatusFrame {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []StatusFrame
	for _, f := range r.frames {
		if sf, ok := f.Data.(StatusFrame); ok {
			out = append(out, sf)
		}
	}
	return out
}

func (r *recorder) lastStatus() StatusFrame {
	all := r.statuses()
	if len(all) == 0 {
		return StatusFrame{}
	}
	return all[len(all)-1]
}

func (r *recorder) composers() []ComposerFrame {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ComposerFrame
	for _, f := range r.frames {
		if cf, ok := f.Data.(ComposerFrame); ok {
			out = append(out, cf)
		}
	}
	return out
}

func (r *recorder) modals() []ModalFrame {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ModalFrame
	for _, f := range r.frames {
		if mf, ok := f.Data.(ModalFrame); ok {
			out = append(out, mf)
		}
	}
	return out
}

// flakyGateway fails selected calls on demand.
type flakyGateway struct {
	gateway.Gateway

	mu         sync.Mutex
	failSelect map[string]bool
	failInsert bool
	failDelete bool
}

var errBoom = errors.New("boom")

func (g *flakyGateway) setSelectFailure(table string, fail bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failSelect[table] = fail
}

func (g *flakyGateway) Select(ctx context.Context, q gateway.Query) ([]gateway.Row, error) {
	g.mu.Lock()
	fail := g.failSelect[q.Table]
	g.mu.Unlock()
	if fail {
		return nil, errBoom
	}
	return g.Gateway.Select(ctx, q)
}

func (g *flakyGateway) Insert(ctx context.Context, table string, rows ...gateway.Row) ([]gateway.Row, error) {
	if g.failInsert {
		return nil, errBoom
	}
	return g.Gateway.Insert(ctx, table, rows...)
}

func (g *flakyGateway) Delete(ctx context.Context, table string, filters ...gateway.Filter) error {
	if g.failDelete {
		return errBoom
	}
	return g.Gateway.Delete(ctx, table, filters...)
}

type fixture struct {
	feed *changefeed.LocalFeed
	gw   *flakyGateway
	out  *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	sugar := zap.NewNop().Sugar()
	feed := changefeed.NewLocalFeed(sugar, changefeed.DefaultBuffer)
	client := gateway.NewClient(memdb.New(), feed, sugar)

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	inserts := []struct {
		table string
		row   gateway.Row
	}{
		{gateway.TableUsers, gateway.Row{"user_id": "u1", "username": "ana", "email": "ana@example.com"}},
		{gateway.TableServers, gateway.Row{"server_id": "srv-b", "name": "Beta", "owner_id": "u1"}},
		{gateway.TableServers, gateway.Row{"server_id": "srv-a", "name": "Alpha", "owner_id": "u1"}},
		{gateway.TableChannels, gateway.Row{"channel_id": "c-a2", "name": "voice-room", "channel_type": "voice", "server_id": "srv-a"}},
		{gateway.TableChannels, gateway.Row{"channel_id": "c-a1", "name": "general", "channel_type": "text", "server_id": "srv-a"}},
		{gateway.TableChannels, gateway.Row{"channel_id": "c-b1", "name": "random", "channel_type": "text", "server_id": "srv-b"}},
		{gateway.TableMessages, gateway.Row{"message_id": "m1", "content": "older", "user_id": "u1", "channel_id": "c-a1", "created_at": base}},
		{gateway.TableMessages, gateway.Row{"message_id": "m2", "content": "newer", "user_id": "u1", "channel_id": "c-a1", "created_at": base.Add(time.Minute)}},
	}
	for _, in := range inserts {
		_, err := client.Insert(ctx, in.table, in.row)
		require.NoError(t, err)
	}

	return &fixture{
		feed: feed,
		gw:   &flakyGateway{Gateway: client, failSelect: map[string]bool{}},
		out:  &recorder{},
	}
}

func (f *fixture) session(t *testing.T, kind Kind, ttl time.Duration) *Session {
	t.Helper()
	renderer, err := view.New()
	require.NoError(t, err)
	s := New(Config{
		View:      kind,
		User:      &gateway.AuthUser{ID: "u1", Email: "ana@example.com"},
		StatusTTL: ttl,
	}, f.gw, renderer, f.out, zap.NewNop().Sugar())
	t.Cleanup(s.subs.Teardown)
	return s
}

func (f *fixture) count(t *testing.T, table string, filters ...gateway.Filter) int {
	t.Helper()
	rows, err := f.gw.Gateway.Select(context.Background(), gateway.Query{Table: table, Filters: filters})
	require.NoError(t, err)
	return len(rows)
}

func TestSelection(t *testing.T) {
	var sel Selection

	assert.False(t, sel.SelectChannel("c1", "general", "text"), "no server selected")
	assert.True(t, sel.SelectServer("s1", "Alpha"))
	assert.False(t, sel.SelectServer("s1", "Alpha"))
	assert.True(t, sel.SelectChannel("c1", "general", "text"))
	assert.False(t, sel.SelectChannel("c1", "general", "text"))

	assert.True(t, sel.SelectServer("s2", "Beta"))
	_, ok := sel.Channel()
	assert.False(t, ok, "switching servers clears the channel")
	server, _ := sel.Server()
	assert.Equal(t, ServerRef{ID: "s2", Name: "Beta"}, server)
}

func TestListCacheKeepsRowsOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cache := NewListCache()

	rows, err := cache.Refresh(ctx, f.gw, ChatServersQuery())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Alpha", rows[0].String("name"))

	f.gw.setSelectFailure(gateway.TableServers, true)
	_, err = cache.Refresh(ctx, f.gw, ChatServersQuery())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error loading servers")
	assert.ErrorIs(t, err, errBoom)
	assert.Len(t, cache.Rows(gateway.TableServers), 2)
}

func TestChatEnter(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, ViewChat, 0)
	s.enterChat(context.Background())

	server, ok := s.selection.Server()
	require.True(t, ok)
	assert.Equal(t, "srv-a", server.ID)
	channel, ok := s.selection.Channel()
	require.True(t, ok)
	assert.Equal(t, ChannelRef{ID: "c-a1", Name: "general", Kind: "text"}, channel)

	composers := f.out.composers()
	require.NotEmpty(t, composers)
	assert.False(t, composers[0].Enabled)
	assert.True(t, composers[len(composers)-1].Enabled)

	assert.Contains(t, f.out.lastRender(TargetServerSidebar), `class="server-icon-btn active" title="Alpha"`)
	messages := f.out.lastRender(TargetChatMessages)
	assert.Less(t, strings.Index(messages, "newer"), strings.Index(messages, "older"))
	assert.Equal(t, []string{gateway.TableChannels, gateway.TableMessages, gateway.TableServers}, s.subs.Tables())
}

func TestChatSwitchServer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.session(t, ViewChat, 0)
	s.enterChat(ctx)

	before := len(f.out.composers())
	require.NoError(t, s.selectServer(ctx, "srv-b"))

	composers := f.out.composers()[before:]
	require.Len(t, composers, 2)
	assert.False(t, composers[0].Enabled, "disabled until a channel of the new server is selected")
	assert.True(t, composers[1].Enabled)

	channel, _ := s.selection.Channel()
	assert.Equal(t, "c-b1", channel.ID)
	assert.Contains(t, f.out.lastRender(TargetChatMessages), "No messages yet.")
	assert.Contains(t, f.out.lastRender(TargetChannelList), "random")
	assert.NotContains(t, f.out.lastRender(TargetChannelList), "general")

	t.Run("SameServerIsNoop", func(t *testing.T) {
		n := f.out.len()
		require.NoError(t, s.selectServer(ctx, "srv-b"))
		assert.Equal(t, n, f.out.len())
	})

	t.Run("ChannelOfOtherServerIgnored", func(t *testing.T) {
		require.NoError(t, s.selectChannel(ctx, "c-a1"))
		channel, _ := s.selection.Channel()
		assert.Equal(t, "c-b1", channel.ID)
	})

	t.Run("UnknownServerIgnored", func(t *testing.T) {
		require.NoError(t, s.selectServer(ctx, "ghost"))
		server, _ := s.selection.Server()
		assert.Equal(t, "srv-b", server.ID)
	})
}

func TestChatServerWithoutChannels(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.gw.Insert(ctx, gateway.TableServers, gateway.Row{"server_id": "srv-c", "name": "Gamma", "owner_id": "u1"})
	require.NoError(t, err)

	s := f.session(t, ViewChat, 0)
	s.enterChat(ctx)
	require.NoError(t, s.selectServer(ctx, "srv-c"))

	composers := f.out.composers()
	assert.False(t, composers[len(composers)-1].Enabled)
	assert.Contains(t, f.out.lastRender(TargetChannelList), "No channels in this server.")
	_, ok := s.selection.Channel()
	assert.False(t, ok)
}

func TestChatEnterFetchFailure(t *testing.T) {
	f := newFixture(t)
	f.gw.setSelectFailure(gateway.TableChannels, true)
	s := f.session(t, ViewChat, 0)
	s.enterChat(context.Background())

	assert.Contains(t, f.out.lastRender(TargetChannelList), "Error loading channels: boom")
	assert.Empty(t, s.subs.Tables(), "setup stops at the failed fetch")
	assert.Equal(t, 0, f.feed.Subscribers(gateway.TableServers))
}

func TestSendMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)
		s := f.session(t, ViewChat, 0)
		s.enterChat(ctx)

		s.sendMessage(ctx, "  hello there  ")
		rows, err := f.gw.Gateway.Select(ctx, gateway.Query{
			Table:   gateway.TableMessages,
			Filters: []gateway.Filter{gateway.Eq("content", "hello there")},
		})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "u1", rows[0].String("user_id"))
		assert.Equal(t, "c-a1", rows[0].String("channel_id"))

		composers := f.out.composers()
		assert.Equal(t, ComposerFrame{Enabled: true, Clear: true}, composers[len(composers)-1])
	})

	t.Run("EmptyContentIsNoop", func(t *testing.T) {
		f := newFixture(t)
		s := f.session(t, ViewChat, 0)
		s.enterChat(ctx)
		n := f.out.len()

		s.sendMessage(ctx, "   ")
		assert.Equal(t, n, f.out.len())
		assert.Equal(t, 2, f.count(t, gateway.TableMessages))
	})

	t.Run("NoChannelIsNoop", func(t *testing.T) {
		f := newFixture(t)
		s := f.session(t, ViewChat, 0)

		s.sendMessage(ctx, "hello")
		assert.Equal(t, 0, f.out.len())
		assert.Equal(t, 2, f.count(t, gateway.TableMessages))
	})

	t.Run("FailureKeepsInput", func(t *testing.T) {
		f := newFixture(t)
		s := f.session(t, ViewChat, 0)
		s.enterChat(ctx)
		f.gw.failInsert = true

		s.sendMessage(ctx, "hello")
		for _, c := range f.out.composers() {
			assert.False(t, c.Clear)
		}
		assert.Equal(t, view.LevelError, f.out.lastStatus().Level)
		assert.Contains(t, f.out.lastStatus().Text, "Error sending message: boom")
	})
}

func TestChatRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("SelectedServerDeleted", func(t *testing.T) {
		f := newFixture(t)
		s := f.session(t, ViewChat, 0)
		s.enterChat(ctx)
		require.NoError(t, f.gw.Gateway.Delete(ctx, gateway.TableServers, gateway.Eq("server_id", "srv-a")))

		s.refreshChat(ctx, gateway.ChangeEvent{Kind: gateway.EventDelete, Table: gateway.TableServers})
		server, _ := s.selection.Server()
		assert.Equal(t, "srv-b", server.ID)
		channel, _ := s.selection.Channel()
		assert.Equal(t, "c-b1", channel.ID)
		assert.Equal(t, "🔔 A server was deleted.", f.out.lastStatus().Text)
	})

	t.Run("NewMessage", func(t *testing.T) {
		f := newFixture(t)
		s := f.session(t, ViewChat, 0)
		s.enterChat(ctx)
		_, err := f.gw.Gateway.Insert(ctx, gateway.TableMessages, gateway.Row{"content": "fresh", "user_id": "u1", "channel_id": "c-a1"})
		require.NoError(t, err)

		s.refreshChat(ctx, gateway.ChangeEvent{Kind: gateway.EventInsert, Table: gateway.TableMessages})
		assert.Contains(t, f.out.lastRender(TargetChatMessages), "fresh")
	})

	t.Run("SelectedChannelRenamed", func(t *testing.T) {
		f := newFixture(t)
		s := f.session(t, ViewChat, 0)
		s.enterChat(ctx)
		require.NoError(t, f.gw.Gateway.Update(ctx, gateway.TableChannels,
			gateway.Row{"name": "renamed", "channel_type": "voice"}, gateway.Eq("channel_id", "c-a1")))

		s.refreshChat(ctx, gateway.ChangeEvent{Kind: gateway.EventUpdate, Table: gateway.TableChannels})
		channel, _ := s.selection.Channel()
		assert.Equal(t, ChannelRef{ID: "c-a1", Name: "renamed", Kind: "voice"}, channel)
		assert.Equal(t, "# renamed", strings.TrimSpace(f.out.lastRender(TargetChannelName)))
		assert.Equal(t, "🔊", strings.TrimSpace(f.out.lastRender(TargetChannelKindTag)))
		assert.Contains(t, f.out.lastRender(TargetChannelList), "renamed")
	})

	t.Run("SelectedServerRenamed", func(t *testing.T) {
		f := newFixture(t)
		s := f.session(t, ViewChat, 0)
		s.enterChat(ctx)
		require.NoError(t, f.gw.Gateway.Update(ctx, gateway.TableServers,
			gateway.Row{"name": "Aleph"}, gateway.Eq("server_id", "srv-a")))

		s.refreshChat(ctx, gateway.ChangeEvent{Kind: gateway.EventUpdate, Table: gateway.TableServers})
		server, _ := s.selection.Server()
		assert.Equal(t, ServerRef{ID: "srv-a", Name: "Aleph"}, server)
		assert.Equal(t, "Aleph", strings.TrimSpace(f.out.lastRender(TargetServerName)))
	})

	t.Run("FailureKeepsRender", func(t *testing.T) {
		f := newFixture(t)
		s := f.session(t, ViewChat, 0)
		s.enterChat(ctx)
		rendered := len(f.out.renders(TargetChatMessages))
		f.gw.setSelectFailure(gateway.TableMessages, true)

		s.refreshChat(ctx, gateway.ChangeEvent{Kind: gateway.EventInsert, Table: gateway.TableMessages})
		assert.Len(t, f.out.renders(TargetChatMessages), rendered)
		assert.Equal(t, "error loading messages: boom", f.out.lastStatus().Text)
		assert.Len(t, s.cache.Rows(gateway.TableMessages), 2)
	})
}

func TestMessagesCappedNewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	base := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		_, err := f.gw.Gateway.Insert(ctx, gateway.TableMessages, gateway.Row{
			"message_id": fmt.Sprintf("id-%02d", i),
			"content":    fmt.Sprintf("msg-%02d", i),
			"user_id":    "u1",
			"channel_id": "c-a1",
			"created_at": base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	tests := []struct {
		kind   Kind
		target string
	}{
		{ViewChat, TargetChatMessages},
		{ViewAdmin, TargetMessages},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			f.out = &recorder{}
			s := f.session(t, tt.kind, 0)
			s.enter(ctx)

			rows := s.cache.Rows(gateway.TableMessages)
			require.Len(t, rows, MessageLimit)
			assert.Equal(t, "msg-24", rows[0].String("content"))
			assert.Equal(t, "msg-05", rows[MessageLimit-1].String("content"))
			for i := 1; i < len(rows); i++ {
				assert.True(t, rows[i-1].Time("created_at").After(rows[i].Time("created_at")))
			}

			html := f.out.lastRender(tt.target)
			assert.Less(t, strings.Index(html, "msg-24"), strings.Index(html, "msg-05"))
			assert.NotContains(t, html, "msg-04")
			assert.NotContains(t, html, "older")
		})
	}
}

func TestReenterKeepsOneSubscriptionPerTable(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		kind   Kind
		tables []string
	}{
		{ViewChat, chatTables},
		{ViewAdmin, []string{gateway.TableUsers, gateway.TableServers, gateway.TableChannels, gateway.TableMessages}},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			f := newFixture(t)
			s := f.session(t, tt.kind, 0)
			s.enter(ctx)
			s.enter(ctx)

			for _, table := range tt.tables {
				assert.Equal(t, 1, f.feed.Subscribers(table), table)
			}
			s.subs.Teardown()
			for _, table := range tt.tables {
				assert.Equal(t, 0, f.feed.Subscribers(table), table)
			}
		})
	}
}

func TestAdminEnter(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, ViewAdmin, 0)
	s.enterAdmin(context.Background())

	assert.Contains(t, f.out.lastRender(TargetUsers), "ana@example.com")
	servers := f.out.lastRender(TargetServers)
	assert.Less(t, strings.Index(servers, "Alpha"), strings.Index(servers, "Beta"))
	assert.Contains(t, servers, "Owner: ana")
	assert.Contains(t, f.out.lastRender(TargetChannels), "voice-room")
	assert.Contains(t, f.out.lastRender(TargetMessages), "#general")
	assert.Equal(t, AdminIdleStatus, f.out.lastStatus().Text)
}

func TestAdminEnterFetchFailure(t *testing.T) {
	f := newFixture(t)
	f.gw.setSelectFailure(gateway.TableChannels, true)
	s := f.session(t, ViewAdmin, 0)
	s.enterAdmin(context.Background())

	assert.Contains(t, f.out.lastRender(TargetChannels), "Error loading channels: boom")
	assert.Empty(t, f.out.renders(TargetMessages))
	assert.Empty(t, s.subs.Tables())
	assert.Equal(t, view.LevelError, f.out.lastStatus().Level)
}

func TestAdminDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("ConfirmedDeleteCascades", func(t *testing.T) {
		f := newFixture(t)
		s := f.session(t, ViewAdmin, 0)
		s.enterAdmin(ctx)
		rendered := len(f.out.renders(TargetServers))

		token, err := s.requestDelete(gateway.TableServers, "srv-a")
		require.NoError(t, err)
		modals := f.out.modals()
		require.Len(t, modals, 1)
		assert.Equal(t, token, modals[0].Token)
		assert.Contains(t, modals[0].HTML, "Delete Server")
		assert.Contains(t, modals[0].HTML, "channels and messages")

		s.confirmDelete(ctx, token, true)
		assert.Equal(t, 0, f.count(t, gateway.TableServers, gateway.Eq("server_id", "srv-a")))
		assert.Equal(t, 0, f.count(t, gateway.TableChannels, gateway.Eq("server_id", "srv-a")))
		assert.Equal(t, 0, f.count(t, gateway.TableMessages))
		assert.Equal(t, StatusFrame{Text: "✅ Server deleted (live update).", Level: view.LevelSuccess}, f.out.lastStatus())
		assert.Len(t, f.out.renders(TargetServers), rendered, "lists refresh only through the feed")

		statuses := len(f.out.statuses())
		s.confirmDelete(ctx, token, true)
		assert.Len(t, f.out.statuses(), statuses, "tokens are single use")
	})

	t.Run("Cancelled", func(t *testing.T) {
		f := newFixture(t)
		s := f.session(t, ViewAdmin, 0)
		token, err := s.requestDelete(gateway.TableUsers, "u1")
		require.NoError(t, err)

		s.confirmDelete(ctx, token, false)
		assert.Equal(t, 1, f.count(t, gateway.TableUsers))
		assert.Empty(t, s.pending)
	})

	t.Run("Failure", func(t *testing.T) {
		f := newFixture(t)
		s := f.session(t, ViewAdmin, 0)
		f.gw.failDelete = true
		token, err := s.requestDelete(gateway.TableChannels, "c-a1")
		require.NoError(t, err)

		s.confirmDelete(ctx, token, true)
		assert.Equal(t, StatusFrame{Text: "❌ Error deleting channel: boom", Level: view.LevelError}, f.out.lastStatus())
		assert.Equal(t, 3, f.count(t, gateway.TableChannels))
	})

	t.Run("UnknownKind", func(t *testing.T) {
		f := newFixture(t)
		s := f.session(t, ViewAdmin, 0)
		_, err := s.requestDelete("guilds", "x")
		assert.ErrorIs(t, err, gateway.ErrUnknownTable)
		assert.Empty(t, f.out.modals())
	})
}

func TestAdminRefreshFailureKeepsRender(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.session(t, ViewAdmin, 0)
	s.enterAdmin(ctx)
	rendered := len(f.out.renders(TargetServers))

	f.gw.setSelectFailure(gateway.TableServers, true)
	s.refreshAdmin(ctx, gateway.ChangeEvent{Kind: gateway.EventInsert, Table: gateway.TableServers})

	assert.Len(t, f.out.renders(TargetServers), rendered)
	assert.Equal(t, StatusFrame{Text: "error loading servers: boom", Level: view.LevelError}, f.out.lastStatus())
	assert.Len(t, s.cache.Rows(gateway.TableServers), 2)
}

func TestRunAppliesLiveChanges(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, ViewAdmin, 50*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		return f.feed.Subscribers(gateway.TableMessages) == 1
	}, time.Second, 5*time.Millisecond)

	_, err := f.gw.Gateway.Insert(context.Background(), gateway.TableServers, gateway.Row{"name": "Delta", "owner_id": "u1"})
	require.NoError(t, err)

	added := StatusFrame{Text: "🔔 A server was added.", Level: view.LevelInfo}
	require.Eventually(t, func() bool {
		for _, st := range f.out.statuses() {
			if st == added {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
	assert.Contains(t, f.out.lastRender(TargetServers), "Delta")

	// the event status reverts to the idle text after the TTL
	require.Eventually(t, func() bool {
		return f.out.lastStatus().Text == AdminIdleStatus
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("session did not stop")
	}
	assert.Equal(t, 0, f.feed.Subscribers(gateway.TableServers))
	assert.False(t, s.Post(func(context.Context) {}))
}

func TestHandle(t *testing.T) {
	f := newFixture(t)
	chat := f.session(t, ViewChat, 0)
	admin := f.session(t, ViewAdmin, 0)

	tests := []struct {
		name    string
		session *Session
		typ     string
		data    string
		check   func(t *testing.T, err error)
	}{
		{"UnknownType", chat, "dance", `{}`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrUnknownAction)
		}},
		{"BadJSON", chat, ActionSelectServer, `{"id":`, func(t *testing.T, err error) {
			assert.Error(t, err)
		}},
		{"MissingID", chat, ActionSelectServer, `{"name":"Alpha"}`, func(t *testing.T, err error) {
			var invalid ValidationErrors
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, "required", invalid["ID"])
		}},
		{"BadChannelKind", chat, ActionSelectChannel, `{"id":"c1","kind":"video"}`, func(t *testing.T, err error) {
			var invalid ValidationErrors
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, "oneof", invalid["Kind"])
		}},
		{"DeleteFromChat", chat, ActionRequestDelete, `{"kind":"servers","id":"s1"}`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrActionNotAllowed)
		}},
		{"SendFromAdmin", admin, ActionSendMessage, `{"content":"hi"}`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrActionNotAllowed)
		}},
		{"UnknownDeleteKind", admin, ActionRequestDelete, `{"kind":"guilds","id":"s1"}`, func(t *testing.T, err error) {
			var invalid ValidationErrors
			require.ErrorAs(t, err, &invalid)
		}},
		{"TokenNotUUID", admin, ActionConfirmDelete, `{"token":"abc","confirmed":true}`, func(t *testing.T, err error) {
			var invalid ValidationErrors
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, "uuid4", invalid["Token"])
		}},
		{"EmptyMessageAccepted", chat, ActionSendMessage, `{"content":""}`, func(t *testing.T, err error) {
			assert.NoError(t, err)
		}},
		{"DeleteQueued", admin, ActionRequestDelete, `{"kind":"messages","id":"m1"}`, func(t *testing.T, err error) {
			assert.NoError(t, err)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, tt.session.Handle(tt.typ, json.RawMessage(tt.data)))
		})
	}
}

func TestEventStatus(t *testing.T) {
	tests := []struct {
		event gateway.ChangeEvent
		want  string
	}{
		{gateway.ChangeEvent{Kind: gateway.EventInsert, Table: gateway.TableServers}, "🔔 A server was added."},
		{gateway.ChangeEvent{Kind: gateway.EventUpdate, Table: gateway.TableUsers}, "🔔 A user was updated."},
		{gateway.ChangeEvent{Kind: gateway.EventDelete, Table: gateway.TableChannels}, "🔔 A channel was deleted."},
		{gateway.ChangeEvent{Kind: gateway.EventInsert, Table: gateway.TableMessages}, "🔔 A message was added (top 20 refreshed)."},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, EventStatus(tt.event))
		})
	}
}
