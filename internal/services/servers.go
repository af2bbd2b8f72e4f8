package services

import (
	"context"
	"strings"

	"github.com/thereayou/discord-lite-web/internal/gateway"
	"github.com/thereayou/discord-lite-web/internal/models"
	"go.uber.org/zap"
)

const DefaultChannelName = "general"

type Servers struct {
	gw    gateway.Gateway
	sugar *zap.SugaredLogger
}

func NewServers(gw gateway.Gateway, sugar *zap.SugaredLogger) *Servers {
	return &Servers{gw: gw, sugar: sugar}
}

type CreatedServer struct {
	ServerID    string
	ServerName  string
	ChannelID   string
	ChannelName string
}

// Create inserts the server owned by ownerID and then its initial text
// channel. When only the channel insert fails the server stays, and the
// returned error wraps both ErrIncomplete and the MutationError.
func (s *Servers) Create(ctx context.Context, ownerID, serverName, channelName string) (*CreatedServer, error) {
	serverName = strings.TrimSpace(serverName)
	channelName = strings.TrimSpace(channelName)
	if serverName == "" || channelName == "" {
		return nil, &ValidationError{Field: "name", Message: "Please enter a name for the server and the channel."}
	}

	servers, err := s.gw.Insert(ctx, gateway.TableServers, gateway.Row{
		"name":     serverName,
		"owner_id": ownerID,
	})
	if err != nil {
		return nil, &MutationError{Op: "insert", Table: gateway.TableServers, Err: err}
	}
	created := &CreatedServer{
		ServerID:    servers[0].String("server_id"),
		ServerName:  serverName,
		ChannelName: channelName,
	}

	channels, err := s.gw.Insert(ctx, gateway.TableChannels, gateway.Row{
		"name":         channelName,
		"channel_type": models.ChannelText,
		"server_id":    created.ServerID,
	})
	if err != nil {
		s.sugar.Errorf("Initial channel of server [%s] failed: %v", created.ServerID, err)
		return created, &IncompleteError{Err: &MutationError{Op: "insert", Table: gateway.TableChannels, Err: err}}
	}
	created.ChannelID = channels[0].String("channel_id")
	return created, nil
}

// IncompleteError is a partial success; errors.Is(err, ErrIncomplete) holds.
type IncompleteError struct {
	Err error
}

func (e *IncompleteError) Error() string   { return ErrIncomplete.Error() + ": " + e.Err.Error() }
func (e *IncompleteError) Unwrap() []error { return []error{ErrIncomplete, e.Err} }
