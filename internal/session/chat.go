package session

import (
	"context"
	"strings"

	"github.com/thereayou/discord-lite-web/internal/gateway"
	"github.com/thereayou/discord-lite-web/internal/models"
	"github.com/thereayou/discord-lite-web/internal/services"
	"github.com/thereayou/discord-lite-web/internal/view"
)

var chatTables = []string{gateway.TableServers, gateway.TableChannels, gateway.TableMessages}

// enterChat runs the selection cascade from the first server down to its
// first channel and then watches the three chat tables. A failed fetch
// stops the cascade and nothing is watched.
func (s *Session) enterChat(ctx context.Context) {
	s.subs.Teardown()
	s.selection.Reset()
	s.composer(false, false)

	servers, err := s.cache.Refresh(ctx, s.gw, ChatServersQuery())
	if err != nil {
		s.renderFetchError(TargetServerSidebar, gateway.TableServers, err)
		return
	}
	s.renderServerPicker()

	if len(servers) > 0 {
		if err := s.selectServer(ctx, servers[0].String("server_id")); err != nil {
			return
		}
	}

	for _, table := range chatTables {
		if err := s.subs.Watch(ctx, table, gateway.MaskAll); err != nil {
			s.sugar.Error(err)
			s.setStatus("❌ Live updates unavailable: "+err.Error(), view.LevelError, false)
			return
		}
	}
}

func (s *Session) selectServer(ctx context.Context, id string) error {
	row := s.cache.Find(gateway.TableServers, "server_id", id)
	if row == nil {
		s.sugar.Debugf("Ignoring unknown server [%s]", id)
		return nil
	}
	name := row.String("name")
	if !s.selection.SelectServer(id, name) {
		return nil
	}

	s.composer(false, false)
	s.renderServerPicker()
	s.renderText(TargetServerName, name)
	s.renderText(TargetChannelName, "# Select a channel")
	s.renderText(TargetChannelKindTag, "")
	s.renderText(TargetChatMessages, "")
	if html, err := s.renderer.ChannelsLoading(name); err == nil {
		s.render(TargetChannelList, html)
	}
	s.cache.Clear(gateway.TableMessages)

	return s.loadChannels(ctx)
}

func (s *Session) loadChannels(ctx context.Context) error {
	server, ok := s.selection.Server()
	if !ok {
		return nil
	}
	channels, err := s.cache.Refresh(ctx, s.gw, ChatChannelsQuery(server.ID))
	if err != nil {
		s.renderFetchError(TargetChannelList, gateway.TableChannels, err)
		return err
	}
	if len(channels) == 0 {
		s.renderChannelPicker()
		s.renderText(TargetChatMessages, "No channels in this server.")
		return nil
	}
	return s.selectChannel(ctx, channels[0].String("channel_id"))
}

// selectChannel only accepts channels of the selected server, which are
// exactly the cached channel rows.
func (s *Session) selectChannel(ctx context.Context, id string) error {
	row := s.cache.Find(gateway.TableChannels, "channel_id", id)
	if row == nil {
		s.sugar.Debugf("Ignoring channel [%s] outside the selected server", id)
		return nil
	}
	name, kind := row.String("name"), row.String("channel_type")
	if !s.selection.SelectChannel(id, name, kind) {
		return nil
	}

	s.renderChannelPicker()
	s.renderText(TargetChannelName, "# "+name)
	s.renderText(TargetChannelKindTag, kindIcon(kind))
	s.composer(true, false)

	return s.loadMessages(ctx)
}

func (s *Session) loadMessages(ctx context.Context) error {
	channel, ok := s.selection.Channel()
	if !ok {
		return nil
	}
	rows, err := s.cache.Refresh(ctx, s.gw, ChatMessagesQuery(channel.ID))
	if err != nil {
		s.renderFetchError(TargetChatMessages, gateway.TableMessages, err)
		return err
	}
	s.renderMessages(rows)
	return nil
}

// sendMessage does nothing without content or a selected channel. The new
// message reaches the view through the change feed.
func (s *Session) sendMessage(ctx context.Context, content string) {
	content = strings.TrimSpace(content)
	channel, ok := s.selection.Channel()
	if content == "" || !ok || s.cfg.User == nil {
		return
	}

	_, err := s.gw.Insert(ctx, gateway.TableMessages, gateway.Row{
		"channel_id": channel.ID,
		"user_id":    s.cfg.User.ID,
		"content":    content,
	})
	if err != nil {
		merr := &services.MutationError{Op: "insert", Table: gateway.TableMessages, Err: err}
		s.sugar.Error(merr)
		s.setStatus("❌ Error sending message: "+err.Error(), view.LevelError, true)
		return
	}
	s.composer(true, true)
}

// refreshChat refetches the table named by event. A failed refetch keeps
// the previous render and reports on the status line.
func (s *Session) refreshChat(ctx context.Context, event gateway.ChangeEvent) {
	var err error
	switch event.Table {
	case gateway.TableServers:
		err = s.refreshServers(ctx)
	case gateway.TableChannels:
		err = s.refreshChannels(ctx)
	case gateway.TableMessages:
		err = s.refreshMessages(ctx)
	default:
		return
	}
	if err != nil {
		s.sugar.Error(err)
		s.setStatus(err.Error(), view.LevelError, true)
		return
	}
	s.setStatus(EventStatus(event), view.LevelInfo, true)
}

func (s *Session) refreshServers(ctx context.Context) error {
	servers, err := s.cache.Refresh(ctx, s.gw, ChatServersQuery())
	if err != nil {
		return err
	}

	current, ok := s.selection.Server()
	if ok {
		row := s.cache.Find(gateway.TableServers, "server_id", current.ID)
		if row != nil {
			s.selection.RenameServer(row.String("name"))
			s.renderServerPicker()
			s.renderText(TargetServerName, row.String("name"))
			return nil
		}
		s.selection.Reset()
	}

	s.renderServerPicker()
	if len(servers) > 0 {
		s.selectServer(ctx, servers[0].String("server_id"))
		return nil
	}
	s.composer(false, false)
	s.cache.Clear(gateway.TableChannels)
	s.cache.Clear(gateway.TableMessages)
	s.renderText(TargetServerName, "Select a server")
	s.renderText(TargetChannelName, "# Welcome")
	s.renderText(TargetChannelKindTag, "")
	s.renderText(TargetChannelList, "")
	s.renderText(TargetChatMessages, "")
	return nil
}

func (s *Session) refreshChannels(ctx context.Context) error {
	server, ok := s.selection.Server()
	if !ok {
		return nil
	}
	channels, err := s.cache.Refresh(ctx, s.gw, ChatChannelsQuery(server.ID))
	if err != nil {
		return err
	}

	if current, ok := s.selection.Channel(); ok {
		if row := s.cache.Find(gateway.TableChannels, "channel_id", current.ID); row != nil {
			name, kind := row.String("name"), row.String("channel_type")
			s.selection.RenameChannel(name, kind)
			s.renderChannelPicker()
			s.renderText(TargetChannelName, "# "+name)
			s.renderText(TargetChannelKindTag, kindIcon(kind))
			return nil
		}
	}

	s.selection.ClearChannel()
	s.cache.Clear(gateway.TableMessages)
	if len(channels) > 0 {
		s.selectChannel(ctx, channels[0].String("channel_id"))
		return nil
	}
	s.composer(false, false)
	s.renderChannelPicker()
	s.renderText(TargetChannelName, "# Select a channel")
	s.renderText(TargetChannelKindTag, "")
	s.renderText(TargetChatMessages, "No channels in this server.")
	return nil
}

func (s *Session) refreshMessages(ctx context.Context) error {
	channel, ok := s.selection.Channel()
	if !ok {
		return nil
	}
	rows, err := s.cache.Refresh(ctx, s.gw, ChatMessagesQuery(channel.ID))
	if err != nil {
		return err
	}
	s.renderMessages(rows)
	return nil
}

func (s *Session) renderServerPicker() {
	current, _ := s.selection.Server()
	html, err := s.renderer.ServerPicker(s.cache.Rows(gateway.TableServers), current.ID)
	if err != nil {
		s.sugar.Error(err)
		return
	}
	s.render(TargetServerSidebar, html)
}

func (s *Session) renderChannelPicker() {
	current, _ := s.selection.Channel()
	html, err := s.renderer.ChannelPicker(s.cache.Rows(gateway.TableChannels), current.ID)
	if err != nil {
		s.sugar.Error(err)
		return
	}
	s.render(TargetChannelList, html)
}

func (s *Session) renderMessages(rows []gateway.Row) {
	html, err := s.renderer.ChatMessages(rows)
	if err != nil {
		s.sugar.Error(err)
		return
	}
	s.render(TargetChatMessages, html)
}

func kindIcon(kind string) string {
	if kind == models.ChannelVoice {
		return "🔊"
	}
	return "#"
}
