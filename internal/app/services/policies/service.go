// Package policies implements the access policy registry: one policy per
// entry, created once, with an owner-managed authorized list for private
// seals.
package policies

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/moodvault/journal_layer/internal/app/apperr"
	"github.com/moodvault/journal_layer/internal/app/domain/policy"
	"github.com/moodvault/journal_layer/internal/app/events"
	"github.com/moodvault/journal_layer/internal/app/storage"
	"github.com/moodvault/journal_layer/pkg/logger"
)

// Service manages access policies. Grant and revoke are read-modify-write
// cycles, so a single mutex serializes all registry mutations; the registry
// has exactly one logical writer.
type Service struct {
	mu      sync.Mutex
	store   storage.PolicyStore
	emitter events.Emitter
	log     *logger.Logger
}

// New constructs a policy registry service.
func New(store storage.PolicyStore, emitter events.Emitter, log *logger.Logger) *Service {
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	if log == nil {
		log = logger.NewDefault("policy")
	}
	return &Service{store: store, emitter: emitter, log: log}
}

// Create registers the access policy for an entry. An entry gets exactly one
// policy for its lifetime; a second create fails with ErrAlreadyExists.
func (s *Service) Create(ctx context.Context, entryID, owner string, isPublic bool) (policy.AccessPolicy, error) {
	if strings.TrimSpace(entryID) == "" || strings.TrimSpace(owner) == "" {
		return policy.AccessPolicy{}, fmt.Errorf("entry_id and owner are required")
	}

	seal := policy.SealPrivate
	if isPublic {
		seal = policy.SealPublic
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	created, err := s.store.CreatePolicy(ctx, policy.AccessPolicy{
		EntryID: entryID,
		Owner:   owner,
		Seal:    seal,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return policy.AccessPolicy{}, apperr.ErrAlreadyExists
		}
		return policy.AccessPolicy{}, err
	}

	s.emitter.Emit(events.EventPolicyCreated, map[string]string{
		"entry_id": created.EntryID,
		"owner":    created.Owner,
		"seal":     string(created.Seal),
	})
	s.log.WithField("entry_id", created.EntryID).
		WithField("seal", string(created.Seal)).
		Info("policy created")
	return created, nil
}

// Grant appends grantee to the authorized list of a private policy. Only the
// policy owner may grant, and a listed grantee cannot be granted twice.
func (s *Service) Grant(ctx context.Context, entryID, grantee, caller string) (policy.AccessPolicy, error) {
	if strings.TrimSpace(grantee) == "" {
		return policy.AccessPolicy{}, fmt.Errorf("grantee is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.getPolicy(ctx, entryID)
	if err != nil {
		return policy.AccessPolicy{}, err
	}
	if caller != p.Owner {
		return policy.AccessPolicy{}, apperr.ErrNotOwner
	}
	if p.IsPublic() {
		return policy.AccessPolicy{}, apperr.ErrInvalidSealType
	}
	for _, addr := range p.Authorized {
		if addr == grantee {
			return policy.AccessPolicy{}, apperr.ErrAlreadyAuthorized
		}
	}

	p.Authorized = append(p.Authorized, grantee)
	updated, err := s.store.UpdatePolicy(ctx, p)
	if err != nil {
		return policy.AccessPolicy{}, err
	}

	s.emitter.Emit(events.EventAccessGranted, map[string]string{
		"entry_id":   entryID,
		"grantee":    grantee,
		"granted_by": caller,
	})
	s.log.WithField("entry_id", entryID).
		WithField("grantee", grantee).
		Info("access granted")
	return updated, nil
}

// Revoke removes the first exact match of grantee from the authorized list,
// preserving the order of the remaining addresses.
func (s *Service) Revoke(ctx context.Context, entryID, grantee, caller string) (policy.AccessPolicy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.getPolicy(ctx, entryID)
	if err != nil {
		return policy.AccessPolicy{}, err
	}
	if caller != p.Owner {
		return policy.AccessPolicy{}, apperr.ErrNotOwner
	}
	if p.IsPublic() {
		return policy.AccessPolicy{}, apperr.ErrInvalidSealType
	}

	idx := -1
	for i, addr := range p.Authorized {
		if addr == grantee {
			idx = i
			break
		}
	}
	if idx < 0 {
		return policy.AccessPolicy{}, apperr.ErrNotAuthorized
	}

	p.Authorized = append(p.Authorized[:idx], p.Authorized[idx+1:]...)
	updated, err := s.store.UpdatePolicy(ctx, p)
	if err != nil {
		return policy.AccessPolicy{}, err
	}

	s.emitter.Emit(events.EventAccessRevoked, map[string]string{
		"entry_id":   entryID,
		"grantee":    grantee,
		"revoked_by": caller,
	})
	s.log.WithField("entry_id", entryID).
		WithField("grantee", grantee).
		Info("access revoked")
	return updated, nil
}

// Get returns the policy for an entry, or ErrPolicyNotFound.
func (s *Service) Get(ctx context.Context, entryID string) (policy.AccessPolicy, error) {
	return s.getPolicy(ctx, entryID)
}

// List returns every registered policy.
func (s *Service) List(ctx context.Context) ([]policy.AccessPolicy, error) {
	return s.store.ListPolicies(ctx)
}

// HasAccess reports whether requester may read the entry's content. It never
// fails: an entry with no policy admits no one.
func (s *Service) HasAccess(ctx context.Context, entryID, requester string) bool {
	p, err := s.getPolicy(ctx, entryID)
	if err != nil {
		return false
	}
	return p.Grants(requester)
}

// IsPublicSeal reports whether the entry's policy is public; false when no
// policy exists.
func (s *Service) IsPublicSeal(ctx context.Context, entryID string) bool {
	p, err := s.getPolicy(ctx, entryID)
	if err != nil {
		return false
	}
	return p.IsPublic()
}

// PolicyOwner returns the recorded owner, or "" when no policy exists.
func (s *Service) PolicyOwner(ctx context.Context, entryID string) string {
	p, err := s.getPolicy(ctx, entryID)
	if err != nil {
		return ""
	}
	return p.Owner
}

// Authorized returns the authorized list, empty when no policy exists.
func (s *Service) Authorized(ctx context.Context, entryID string) []string {
	p, err := s.getPolicy(ctx, entryID)
	if err != nil {
		return []string{}
	}
	if p.Authorized == nil {
		return []string{}
	}
	return p.Authorized
}

// Exists reports whether the entry has a policy.
func (s *Service) Exists(ctx context.Context, entryID string) bool {
	_, err := s.getPolicy(ctx, entryID)
	return err == nil
}

func (s *Service) getPolicy(ctx context.Context, entryID string) (policy.AccessPolicy, error) {
	p, err := s.store.GetPolicy(ctx, entryID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return policy.AccessPolicy{}, apperr.ErrPolicyNotFound
		}
		return policy.AccessPolicy{}, err
	}
	return p, nil
}
