package session

import (
	"context"

	"github.com/google/uuid"
	"github.com/thereayou/discord-lite-web/internal/gateway"
	"github.com/thereayou/discord-lite-web/internal/services"
	"github.com/thereayou/discord-lite-web/internal/view"
)

type adminList struct {
	table  string
	target string
	query  func() gateway.Query
	render func(*view.Renderer, []gateway.Row) (string, error)
}

var adminLists = []adminList{
	{gateway.TableUsers, TargetUsers, AdminUsersQuery, (*view.Renderer).UsersList},
	{gateway.TableServers, TargetServers, AdminServersQuery, (*view.Renderer).ServersList},
	{gateway.TableChannels, TargetChannels, AdminChannelsQuery, (*view.Renderer).ChannelsList},
	{gateway.TableMessages, TargetMessages, AdminMessagesQuery, (*view.Renderer).MessagesList},
}

func adminListFor(table string) (adminList, bool) {
	for _, l := range adminLists {
		if l.table == table {
			return l, true
		}
	}
	return adminList{}, false
}

type pendingDelete struct {
	table string
	id    string
}

func (s *Session) enterAdmin(ctx context.Context) {
	s.subs.Teardown()
	s.setStatus("Loading data...", view.LevelInfo, false)

	for _, l := range adminLists {
		rows, err := s.cache.Refresh(ctx, s.gw, l.query())
		if err != nil {
			s.renderFetchError(l.target, l.table, err)
			s.setStatus(err.Error(), view.LevelError, false)
			return
		}
		s.renderAdminList(l, rows)
	}

	for _, l := range adminLists {
		if err := s.subs.Watch(ctx, l.table, gateway.MaskAll); err != nil {
			s.sugar.Error(err)
			s.setStatus("❌ Live updates unavailable: "+err.Error(), view.LevelError, false)
			return
		}
	}
	s.setStatus(AdminIdleStatus, view.LevelInfo, false)
}

func (s *Session) renderAdminList(l adminList, rows []gateway.Row) {
	html, err := l.render(s.renderer, rows)
	if err != nil {
		s.sugar.Error(err)
		return
	}
	s.render(l.target, html)
}

func (s *Session) refreshAdmin(ctx context.Context, event gateway.ChangeEvent) {
	l, ok := adminListFor(event.Table)
	if !ok {
		return
	}
	rows, err := s.cache.Refresh(ctx, s.gw, l.query())
	if err != nil {
		s.sugar.Error(err)
		s.setStatus(err.Error(), view.LevelError, true)
		return
	}
	s.renderAdminList(l, rows)
	s.setStatus(EventStatus(event), view.LevelInfo, true)
}

var deleteBodies = map[string]string{
	gateway.TableUsers:    "Are you sure you want to delete this user? (Their servers and messages will be deleted too.)",
	gateway.TableServers:  "Are you sure you want to delete this server? (Its channels and messages will be deleted too.)",
	gateway.TableChannels: "Are you sure you want to delete this channel? (Its messages will be deleted too.)",
	gateway.TableMessages: "Are you sure you want to delete this message?",
}

// requestDelete asks the browser to confirm. The returned token is valid
// for exactly one confirm_delete.
func (s *Session) requestDelete(table, id string) (string, error) {
	body, ok := deleteBodies[table]
	if !ok {
		return "", gateway.ErrUnknownTable
	}
	token := uuid.NewString()
	html, err := s.renderer.ConfirmModal(view.Confirmation{
		Token: token,
		Title: "Delete " + capitalize(noun(table)),
		Body:  body,
	})
	if err != nil {
		return "", err
	}
	s.pending[token] = pendingDelete{table: table, id: id}
	s.push(FrameModal, ModalFrame{Token: token, HTML: html})
	return token, nil
}

// confirmDelete issues the delete. Lists are not touched here: the change
// feed refetches them.
func (s *Session) confirmDelete(ctx context.Context, token string, confirmed bool) {
	p, ok := s.pending[token]
	if !ok {
		s.sugar.Debugf("Unknown delete token [%s]", token)
		return
	}
	delete(s.pending, token)
	if !confirmed {
		return
	}

	table, err := gateway.Lookup(p.table)
	if err != nil {
		s.sugar.Error(err)
		return
	}
	what := noun(p.table)
	if err := s.gw.Delete(ctx, p.table, gateway.Eq(table.PrimaryKey, p.id)); err != nil {
		merr := &services.MutationError{Op: "delete", Table: p.table, Err: err}
		s.sugar.Error(merr)
		s.setStatus("❌ Error deleting "+what+": "+err.Error(), view.LevelError, false)
		return
	}
	s.setStatus("✅ "+capitalize(what)+" deleted (live update).", view.LevelSuccess, true)
}
