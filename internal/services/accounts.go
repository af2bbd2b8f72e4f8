package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/thereayou/discord-lite-web/internal/gateway"
	"github.com/thereayou/discord-lite-web/internal/models"
	"go.uber.org/zap"
)

const avatarPlaceholder = "https://placehold.co/100x100/36393f/ffffff?text="

// AvatarFor returns the placeholder avatar showing the username initial.
func AvatarFor(username string) string {
	initial := ""
	for _, r := range username {
		initial = strings.ToUpper(string(r))
		break
	}
	return avatarPlaceholder + url.QueryEscape(initial)
}

type Accounts struct {
	auth  gateway.Auth
	gw    gateway.Gateway
	sugar *zap.SugaredLogger
}

func NewAccounts(auth gateway.Auth, gw gateway.Gateway, sugar *zap.SugaredLogger) *Accounts {
	return &Accounts{auth: auth, gw: gw, sugar: sugar}
}

type Registration struct {
	UserID string
	// NeedsConfirmation is set when the auth gateway returned no subject id.
	NeedsConfirmation bool
}

// Register signs the user up and stores the users row keyed by the new
// subject id. A failed profile insert leaves the auth account in place.
func (a *Accounts) Register(ctx context.Context, username, email, password string) (*Registration, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	password = strings.TrimSpace(password)
	if username == "" || email == "" || password == "" {
		return nil, &ValidationError{Field: "form", Message: "Please fill in the required fields (username, email, password)."}
	}

	uid, err := a.auth.SignUp(ctx, email, password)
	if err != nil {
		return nil, &AuthError{Err: err}
	}
	if uid == "" {
		return &Registration{NeedsConfirmation: true}, nil
	}

	_, err = a.gw.Insert(ctx, gateway.TableUsers, gateway.Row{
		"user_id":    uid,
		"username":   username,
		"email":      email,
		"status":     models.StatusOnline,
		"avatar_url": AvatarFor(username),
	})
	if err != nil {
		a.sugar.Errorf("Saving profile of [%s] failed: %v", uid, err)
		return nil, &MutationError{Op: "insert", Table: gateway.TableUsers, Err: err}
	}
	return &Registration{UserID: uid}, nil
}

type Profile struct {
	UserID    string
	Email     string
	Username  string
	AvatarURL string
}

// ErrProfileNotFound means the auth subject has no users row.
var ErrProfileNotFound = errors.New("profile not found in users")

func (a *Accounts) Profile(ctx context.Context, user *gateway.AuthUser) (*Profile, error) {
	rows, err := a.gw.Select(ctx, gateway.Query{
		Table:   gateway.TableUsers,
		Columns: []string{"username", "avatar_url"},
		Filters: []gateway.Filter{gateway.Eq("user_id", user.ID)},
		Limit:   1,
	})
	if err != nil {
		return nil, &FetchError{Table: gateway.TableUsers, Err: err}
	}
	if len(rows) == 0 {
		return nil, ErrProfileNotFound
	}
	return &Profile{
		UserID:    user.ID,
		Email:     user.Email,
		Username:  rows[0].String("username"),
		AvatarURL: rows[0].String("avatar_url"),
	}, nil
}

func (a *Accounts) UpdateProfile(ctx context.Context, userID, username, avatarURL string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return &ValidationError{Field: "username", Message: "Username is required."}
	}
	err := a.gw.Update(ctx, gateway.TableUsers, gateway.Row{
		"username":   username,
		"avatar_url": strings.TrimSpace(avatarURL),
	}, gateway.Eq("user_id", userID))
	if err != nil {
		return &MutationError{Op: "update", Table: gateway.TableUsers, Err: err}
	}
	return nil
}

// SetStatus records presence on the users row.
func (a *Accounts) SetStatus(ctx context.Context, userID, status string) error {
	err := a.gw.Update(ctx, gateway.TableUsers, gateway.Row{"status": status}, gateway.Eq("user_id", userID))
	if err != nil {
		return fmt.Errorf("set status %s for %s: %w", status, userID, err)
	}
	return nil
}
