package memdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/thereayou/discord-lite-web/internal/gateway"
	"github.com/thereayou/discord-lite-web/internal/models"
)

func (s *Store) CreateIdentity(_ context.Context, identity *models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.identities[identity.ID]; ok {
		return fmt.Errorf("%w: duplicate identity id", gateway.ErrConstraint)
	}
	for _, existing := range s.identities {
		if strings.EqualFold(existing.Email, identity.Email) {
			return fmt.Errorf("%w: duplicate identity email", gateway.ErrConstraint)
		}
	}
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = s.now()
	}
	stored := *identity
	s.identities[identity.ID] = &stored
	return nil
}

func (s *Store) GetIdentity(_ context.Context, id string) (*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, ok := s.identities[id]
	if !ok {
		return nil, gateway.ErrNotFound
	}
	out := *identity
	return &out, nil
}

func (s *Store) FindIdentityByEmail(_ context.Context, email string) (*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, identity := range s.identities {
		if strings.EqualFold(identity.Email, email) {
			out := *identity
			return &out, nil
		}
	}
	return nil, gateway.ErrNotFound
}

func (s *Store) UpdateLastSignIn(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity, ok := s.identities[id]
	if !ok {
		return gateway.ErrNotFound
	}
	now := s.now()
	identity.LastSignInAt = &now
	return nil
}
