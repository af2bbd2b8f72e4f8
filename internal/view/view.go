// Package view renders pages and live fragments with html/template. Every
// user-supplied field goes through contextual auto-escaping.
package view

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"strings"
	"time"

	"github.com/thereayou/discord-lite-web/internal/gateway"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static returns the embedded /static assets.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

var funcs = template.FuncMap{
	"shortID": shortID,
	"clock":   clock,
}

type Renderer struct {
	tmpl *template.Template
}

func New() (*Renderer, error) {
	tmpl, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Templates is handed to gin.Engine.SetHTMLTemplate for full pages.
func (r *Renderer) Templates() *template.Template {
	return r.tmpl
}

func (r *Renderer) fragment(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Text escapes a plain string for an innerHTML target.
func (r *Renderer) Text(s string) (string, error) {
	return r.fragment("text", s)
}

func (r *Renderer) FetchError(table string, err error) (string, error) {
	return r.fragment("fetch_error", struct {
		Table   string
		Message string
	}{table, errMessage(err)})
}

type UserItem struct {
	ID       string
	Username string
	Email    string
}

func (r *Renderer) UsersList(rows []gateway.Row) (string, error) {
	items := make([]UserItem, len(rows))
	for i, row := range rows {
		items[i] = UserItem{
			ID:       row.String("user_id"),
			Username: row.String("username"),
			Email:    row.String("email"),
		}
	}
	return r.fragment("users_list", items)
}

type ServerItem struct {
	ID       string
	Name     string
	Owner    string
	Initials string
	Selected bool
}

func (r *Renderer) ServersList(rows []gateway.Row) (string, error) {
	items := make([]ServerItem, len(rows))
	for i, row := range rows {
		items[i] = ServerItem{
			ID:    row.String("server_id"),
			Name:  row.String("name"),
			Owner: row.Embedded("owner_id").String("username"),
		}
	}
	return r.fragment("servers_list", items)
}

func (r *Renderer) ServerPicker(rows []gateway.Row, selectedID string) (string, error) {
	items := make([]ServerItem, len(rows))
	for i, row := range rows {
		id := row.String("server_id")
		items[i] = ServerItem{
			ID:       id,
			Name:     row.String("name"),
			Initials: initials(row.String("name")),
			Selected: id == selectedID,
		}
	}
	return r.fragment("server_picker", items)
}

type ChannelItem struct {
	ID       string
	Name     string
	Kind     string
	Server   string
	Selected bool
}

func (r *Renderer) ChannelsList(rows []gateway.Row) (string, error) {
	items := make([]ChannelItem, len(rows))
	for i, row := range rows {
		items[i] = ChannelItem{
			ID:     row.String("channel_id"),
			Name:   row.String("name"),
			Kind:   row.String("channel_type"),
			Server: row.Embedded("server_id").String("name"),
		}
	}
	return r.fragment("channels_list", items)
}

func (r *Renderer) ChannelPicker(rows []gateway.Row, selectedID string) (string, error) {
	items := make([]ChannelItem, len(rows))
	for i, row := range rows {
		id := row.String("channel_id")
		items[i] = ChannelItem{
			ID:       id,
			Name:     row.String("name"),
			Kind:     row.String("channel_type"),
			Selected: id == selectedID,
		}
	}
	return r.fragment("channel_picker", items)
}

func (r *Renderer) ChannelsLoading(serverName string) (string, error) {
	return r.fragment("channels_loading", serverName)
}

type MessageItem struct {
	ID      string
	Content string
	Author  string
	Channel string
	At      time.Time
}

func messageItems(rows []gateway.Row) []MessageItem {
	items := make([]MessageItem, len(rows))
	for i, row := range rows {
		items[i] = MessageItem{
			ID:      row.String("message_id"),
			Content: row.String("content"),
			Author:  row.Embedded("user_id").String("username"),
			Channel: row.Embedded("channel_id").String("name"),
			At:      row.Time("created_at"),
		}
	}
	return items
}

// MessagesList renders the admin feed, newest first as fetched.
func (r *Renderer) MessagesList(rows []gateway.Row) (string, error) {
	return r.fragment("messages_list", messageItems(rows))
}

func (r *Renderer) ChatMessages(rows []gateway.Row) (string, error) {
	return r.fragment("chat_messages", messageItems(rows))
}

type Confirmation struct {
	Token string
	Title string
	Body  string
}

func (r *Renderer) ConfirmModal(c Confirmation) (string, error) {
	return r.fragment("confirm_modal", c)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func clock(t time.Time) string {
	if t.IsZero() {
		return "--:--"
	}
	return t.Local().Format("15:04")
}

func initials(name string) string {
	runes := []rune(strings.TrimSpace(name))
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return strings.ToUpper(string(runes))
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
