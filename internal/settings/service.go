package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-proposal/internal/cache"
	"github.com/noah-isme/backend-proposal/internal/pricing"
	"github.com/noah-isme/backend-proposal/internal/resilience"
)

// ErrInvalidSettings reports settings rejected by validation.
var ErrInvalidSettings = errors.New("settings: invalid settings")

const globalCacheKey = "global"

// Service reads and writes pricing settings and resolves the effective settings of a
// calculation pass.
type Service struct {
	store   Store
	cache   *cache.JSON
	breaker *resilience.Breaker
	logger  zerolog.Logger
}

// ServiceConfig groups Service dependencies. Breaker, when set, guards store reads on
// the pricing path.
type ServiceConfig struct {
	Store   Store
	Cache   *cache.JSON
	Breaker *resilience.Breaker
	Logger  zerolog.Logger
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("settings: store is required")
	}
	return &Service{store: cfg.Store, cache: cfg.Cache, breaker: cfg.Breaker, logger: cfg.Logger}, nil
}

// Validate checks settings before they are persisted.
func Validate(s pricing.Settings) error {
	if err := s.Markup.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	switch s.Distribution {
	case "", pricing.DistributionEven, pricing.DistributionSeparate:
	default:
		return fmt.Errorf("%w: unknown distribution method %q", ErrInvalidSettings, s.Distribution)
	}
	if s.ChildShare < 0 || s.ChildShare > 1 {
		return fmt.Errorf("%w: child share must be within [0, 1]", ErrInvalidSettings)
	}
	return nil
}

// Global returns the global settings, falling back to defaults when none are stored.
func (s *Service) Global(ctx context.Context) (pricing.Settings, error) {
	var cached pricing.Settings
	if found, err := s.cache.Get(ctx, globalCacheKey, &cached); err != nil {
		s.logger.Warn().Err(err).Msg("settings cache read failed")
	} else if found {
		return cached, nil
	}

	var (
		global pricing.Settings
		ok     bool
	)
	err := s.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		global, ok, err = s.store.GetGlobal(ctx)
		return err
	})
	if err != nil {
		return pricing.Settings{}, err
	}
	if !ok {
		global = pricing.DefaultSettings()
	}
	if err := s.cache.Set(ctx, globalCacheKey, global); err != nil {
		s.logger.Warn().Err(err).Msg("settings cache write failed")
	}
	return global, nil
}

// UpdateGlobal validates and stores new global settings.
func (s *Service) UpdateGlobal(ctx context.Context, next pricing.Settings) (pricing.Settings, error) {
	if err := Validate(next); err != nil {
		return pricing.Settings{}, err
	}
	if err := s.store.PutGlobal(ctx, next); err != nil {
		return pricing.Settings{}, err
	}
	if err := s.cache.Delete(ctx, globalCacheKey); err != nil {
		s.logger.Warn().Err(err).Msg("settings cache invalidation failed")
	}
	s.logger.Info().Str("markup_type", string(next.Markup.Type)).Msg("global pricing settings updated")
	return next, nil
}

// Proposal returns the overrides for a proposal. Proposals without a row inherit.
func (s *Service) Proposal(ctx context.Context, proposalID uuid.UUID) (pricing.ProposalSettings, error) {
	var (
		p  pricing.ProposalSettings
		ok bool
	)
	err := s.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		p, ok, err = s.store.GetProposal(ctx, proposalID)
		return err
	})
	if err != nil {
		return pricing.ProposalSettings{}, err
	}
	if !ok {
		return pricing.ProposalSettings{InheritFromGlobal: true}, nil
	}
	return p, nil
}

// UpsertProposal stores overrides for a proposal.
func (s *Service) UpsertProposal(ctx context.Context, proposalID uuid.UUID, p pricing.ProposalSettings) error {
	if proposalID == uuid.Nil {
		return fmt.Errorf("%w: proposal id is required", ErrInvalidSettings)
	}
	if !p.InheritFromGlobal {
		if err := Validate(p.Custom); err != nil {
			return err
		}
	}
	return s.store.PutProposal(ctx, proposalID, p)
}

// Resolve returns the settings for one calculation pass. Inline overrides, when given,
// win over stored proposal settings and are validated like stored ones.
func (s *Service) Resolve(ctx context.Context, proposalID *uuid.UUID, inline *pricing.ProposalSettings) (pricing.Settings, error) {
	global, err := s.Global(ctx)
	if err != nil {
		return pricing.Settings{}, err
	}
	proposal := pricing.ProposalSettings{InheritFromGlobal: true}
	switch {
	case inline != nil:
		if !inline.InheritFromGlobal {
			if err := Validate(inline.Custom); err != nil {
				return pricing.Settings{}, err
			}
		}
		proposal = *inline
	case proposalID != nil && *proposalID != uuid.Nil:
		proposal, err = s.Proposal(ctx, *proposalID)
		if err != nil {
			return pricing.Settings{}, err
		}
	}
	return pricing.ResolveSettings(global, proposal), nil
}
