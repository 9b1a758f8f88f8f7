package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clinic_backend/internal/metrics"
	"clinic_backend/internal/models"
	"clinic_backend/internal/repositories"
	"clinic_backend/pkg/utils"
)

// IdentityStore caches resolved identities. *cache.IdentityCache satisfies it.
type IdentityStore interface {
	Get(ctx context.Context, email string) (*models.Identity, bool, error)
	Set(ctx context.Context, identity *models.Identity) error
}

// IdentityService turns a bearer token into the caller's local identity.
type IdentityService interface {
	Resolve(ctx context.Context, token string) (*models.Identity, error)
}

type identityService struct {
	verifier    utils.TokenVerifier
	accountRepo repositories.AccountRepository
	store       IdentityStore
	metrics     *metrics.ClinicMetrics
}

// NewIdentityService creates an IdentityService. store and m may be nil.
func NewIdentityService(verifier utils.TokenVerifier, accountRepo repositories.AccountRepository, store IdentityStore, m *metrics.ClinicMetrics) IdentityService {
	return &identityService{
		verifier:    verifier,
		accountRepo: accountRepo,
		store:       store,
		metrics:     m,
	}
}

func (s *identityService) Resolve(ctx context.Context, token string) (*models.Identity, error) {
	verified, err := s.verifier.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	email := strings.ToLower(strings.TrimSpace(verified.Email))
	if email == "" {
		return nil, validationError("token carries no email")
	}

	if s.store != nil {
		cached, ok, err := s.store.Get(ctx, email)
		switch {
		case err != nil:
			s.metrics.ObserveIdentityLookup("error")
			utils.LogWarn(err, "Resolve: identity cache read failed")
		case ok:
			s.metrics.ObserveIdentityLookup("hit")
			utils.LogDebug("Resolve: identity served from cache", map[string]interface{}{"account_id": cached.AccountID})
			return cached, nil
		default:
			s.metrics.ObserveIdentityLookup("miss")
		}
	}

	user, err := s.accountRepo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	identity := &models.Identity{
		AccountID:   user.ID,
		Email:       email,
		AccountType: user.Type,
	}
	if user.Type == models.AccountTypeDoctor {
		clinician, err := s.accountRepo.FindClinicianByUserID(ctx, user.ID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, ErrClinicianNotFound
			}
			return nil, fmt.Errorf("failed to look up clinician: %w", err)
		}
		identity.ClinicianID = &clinician.ID
	}

	if s.store != nil {
		if err := s.store.Set(ctx, identity); err != nil {
			utils.LogWarn(err, "Resolve: identity cache write failed")
		}
	}
	return identity, nil
}
