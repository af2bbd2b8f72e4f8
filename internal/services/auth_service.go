package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/discord-lite-web/internal/gateway"
	"github.com/thereayou/discord-lite-web/internal/keyvalue"
	"github.com/thereayou/discord-lite-web/internal/models"
	"github.com/thereayou/discord-lite-web/pkg/auth"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// IdentityStore хранит учётные данные, реализуется database.Database и memdb.Store
type IdentityStore interface {
	CreateIdentity(ctx context.Context, identity *models.Identity) error
	GetIdentity(ctx context.Context, id string) (*models.Identity, error)
	FindIdentityByEmail(ctx context.Context, email string) (*models.Identity, error)
	UpdateLastSignIn(ctx context.Context, id string) error
}

// AuthService реализует gateway.Auth: bcrypt-пароли, JWT и чёрный список токенов
type AuthService struct {
	identities IdentityStore
	jwtManager *auth.JWTManager
	blacklist  keyvalue.Store
	sugar      *zap.SugaredLogger
}

func NewAuthService(identities IdentityStore, jwtManager *auth.JWTManager, blacklist keyvalue.Store, sugar *zap.SugaredLogger) *AuthService {
	return &AuthService{
		identities: identities,
		jwtManager: jwtManager,
		blacklist:  blacklist,
		sugar:      sugar,
	}
}

func (s *AuthService) SignUp(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if len(password) < minPasswordLength {
		return "", gateway.ErrWeakPassword
	}

	if _, err := s.identities.FindIdentityByEmail(ctx, email); err == nil {
		return "", gateway.ErrEmailTaken
	} else if !errors.Is(err, gateway.ErrNotFound) {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("cannot hash password: %w", err)
	}

	identity := &models.Identity{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.identities.CreateIdentity(ctx, identity); err != nil {
		if errors.Is(err, gateway.ErrConstraint) {
			return "", gateway.ErrEmailTaken
		}
		return "", err
	}

	s.sugar.Debugf("Signed up identity [%s]", identity.ID)
	return identity.ID, nil
}

// SignIn выдаёт JWT и обновляет last_sign_in_at
func (s *AuthService) SignIn(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	identity, err := s.identities.FindIdentityByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return "", gateway.ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)); err != nil {
		return "", gateway.ErrInvalidCredentials
	}

	if err := s.identities.UpdateLastSignIn(ctx, identity.ID); err != nil {
		s.sugar.Error(err)
	}

	return s.jwtManager.Generate(identity.ID, identity.Email)
}

// SignOut ставит токен в чёрный список до истечения
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	exp, err := s.jwtManager.Expiry(token)
	if err != nil {
		return fmt.Errorf("invalid token: %w", err)
	}

	ttl := time.Until(exp)
	if ttl <= 0 {
		return nil
	}
	return s.blacklist.Set(ctx, blacklistKey(token), "1", ttl)
}

func (s *AuthService) CurrentUser(ctx context.Context, token string) (*gateway.AuthUser, error) {
	revoked, err := s.blacklist.Exists(ctx, blacklistKey(token))
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, gateway.ErrTokenRevoked
	}

	claims, err := s.jwtManager.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return &gateway.AuthUser{ID: claims.Subject, Email: claims.Email}, nil
}

func blacklistKey(token string) string {
	return "blacklist:" + token
}
