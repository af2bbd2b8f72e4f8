package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Client to server action types.
const (
	ActionSelectServer  = "select_server"
	ActionSelectChannel = "select_channel"
	ActionSendMessage   = "send_message"
	ActionRequestDelete = "request_delete"
	ActionConfirmDelete = "confirm_delete"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type SelectServerAction struct {
	ID   string `json:"id" validate:"required,max=64"`
	Name string `json:"name" validate:"max=200"`
}

type SelectChannelAction struct {
	ID   string `json:"id" validate:"required,max=64"`
	Name string `json:"name" validate:"max=200"`
	Kind string `json:"kind" validate:"omitempty,oneof=text voice"`
}

// SendMessageAction may carry empty content; sending it is a no-op.
type SendMessageAction struct {
	Content string `json:"content" validate:"max=4000"`
}

type RequestDeleteAction struct {
	Kind string `json:"kind" validate:"required,oneof=users servers channels messages"`
	ID   string `json:"id" validate:"required,max=64"`
}

type ConfirmDeleteAction struct {
	Token     string `json:"token" validate:"required,uuid4"`
	Confirmed bool   `json:"confirmed"`
}

// ValidationErrors maps invalid fields to the failed rule.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for field, tag := range v {
		parts = append(parts, field+": "+tag)
	}
	return "invalid action: " + strings.Join(parts, ", ")
}

func decode(data json.RawMessage, dst interface{}) error {
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode action: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		var validateErrs validator.ValidationErrors
		if errors.As(err, &validateErrs) {
			invalid := ValidationErrors{}
			for _, e := range validateErrs {
				invalid[e.Field()] = e.Tag()
			}
			return invalid
		}
		return err
	}
	return nil
}

// Handle decodes one client frame and queues the matching action on the
// loop. Errors are returned for frames that do not decode, fail
// validation, or do not belong to this view.
func (s *Session) Handle(frameType string, data json.RawMessage) error {
	var (
		action func(ctx context.Context)
		want   = ViewChat
	)

	switch frameType {
	case ActionSelectServer:
		var a SelectServerAction
		if err := decode(data, &a); err != nil {
			return err
		}
		action = func(ctx context.Context) { s.selectServer(ctx, a.ID) }
	case ActionSelectChannel:
		var a SelectChannelAction
		if err := decode(data, &a); err != nil {
			return err
		}
		action = func(ctx context.Context) { s.selectChannel(ctx, a.ID) }
	case ActionSendMessage:
		var a SendMessageAction
		if err := decode(data, &a); err != nil {
			return err
		}
		action = func(ctx context.Context) { s.sendMessage(ctx, a.Content) }
	case ActionRequestDelete:
		var a RequestDeleteAction
		if err := decode(data, &a); err != nil {
			return err
		}
		want = ViewAdmin
		action = func(context.Context) {
			if _, err := s.requestDelete(a.Kind, a.ID); err != nil {
				s.sugar.Error(err)
			}
		}
	case ActionConfirmDelete:
		var a ConfirmDeleteAction
		if err := decode(data, &a); err != nil {
			return err
		}
		want = ViewAdmin
		action = func(ctx context.Context) { s.confirmDelete(ctx, a.Token, a.Confirmed) }
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, frameType)
	}

	if want != s.cfg.View {
		return fmt.Errorf("%w: %s", ErrActionNotAllowed, frameType)
	}
	if !s.Post(action) {
		return ErrSessionClosed
	}
	return nil
}
