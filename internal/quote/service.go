package quote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/backend-proposal/internal/cache"
	"github.com/noah-isme/backend-proposal/internal/events"
	"github.com/noah-isme/backend-proposal/internal/format"
	"github.com/noah-isme/backend-proposal/internal/obs"
	"github.com/noah-isme/backend-proposal/internal/pricing"
)

var (
	// ErrNotFound is returned when a quote session does not exist or has expired.
	ErrNotFound = errors.New("quote: session not found")
	// ErrFinalized is returned when a finalized session is modified.
	ErrFinalized = errors.New("quote: session already finalized")
	// ErrEmptyQuote is returned when finalizing a quote with no priced options.
	ErrEmptyQuote = errors.New("quote: nothing to finalize")
)

var tracer = otel.Tracer("github.com/noah-isme/backend-proposal/internal/quote")

// SettingsResolver resolves the effective pricing settings of a calculation pass.
type SettingsResolver interface {
	Resolve(ctx context.Context, proposalID *uuid.UUID, inline *pricing.ProposalSettings) (pricing.Settings, error)
}

// TaxTableLoader loads tax reference data for the given countries.
type TaxTableLoader interface {
	Table(ctx context.Context, countryCodes ...string) (pricing.TaxTable, error)
}

// TaskEnqueuer hands finalize tasks to the background worker. *asynq.Client satisfies it.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// EventEmitter publishes domain events.
type EventEmitter interface {
	Emit(ctx context.Context, topic string, aggregateID uuid.UUID, payload any) (events.Event, error)
}

// SessionLocker serialises mutations of one session. lock.Locker satisfies it.
type SessionLocker interface {
	WithLock(ctx context.Context, key string, fn func(context.Context) error) error
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Sessions        *cache.JSON
	Locker          SessionLocker
	Settings        SettingsResolver
	Taxes           TaxTableLoader
	Tasks           TaskEnqueuer
	Events          EventEmitter
	Logger          zerolog.Logger
	DefaultCurrency string
	DefaultLocale   string
	FinalizeRetry   int
	Now             func() time.Time
}

// Service prices itineraries and manages quote sessions.
type Service struct {
	sessions        *cache.JSON
	locker          SessionLocker
	settings        SettingsResolver
	taxes           TaxTableLoader
	tasks           TaskEnqueuer
	events          EventEmitter
	logger          zerolog.Logger
	defaultCurrency string
	defaultLocale   string
	finalizeRetry   int
	now             func() time.Time
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Sessions == nil {
		return nil, errors.New("quote: session cache is required")
	}
	if cfg.Settings == nil {
		return nil, errors.New("quote: settings resolver is required")
	}
	svc := &Service{
		sessions:        cfg.Sessions,
		locker:          cfg.Locker,
		settings:        cfg.Settings,
		taxes:           cfg.Taxes,
		tasks:           cfg.Tasks,
		events:          cfg.Events,
		logger:          cfg.Logger,
		defaultCurrency: strings.ToUpper(strings.TrimSpace(cfg.DefaultCurrency)),
		defaultLocale:   strings.TrimSpace(cfg.DefaultLocale),
		finalizeRetry:   cfg.FinalizeRetry,
		now:             cfg.Now,
	}
	if svc.defaultCurrency == "" {
		svc.defaultCurrency = "INR"
	}
	if svc.defaultLocale == "" {
		svc.defaultLocale = "en-IN"
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc, nil
}

// Calculate prices all package options for an itinerary and stores the result as a new
// draft session.
func (s *Service) Calculate(ctx context.Context, in CalculateInput) (Session, error) {
	ctx, span := tracer.Start(ctx, "quote.calculate")
	defer span.End()

	currency, locale, err := s.currencyAndLocale(in.Currency, in.Locale)
	if err != nil {
		obs.IncQuoteCalculation("invalid")
		return Session{}, err
	}

	settings, err := s.settings.Resolve(ctx, in.ProposalID, in.Settings)
	if err != nil {
		obs.IncQuoteCalculation("error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolve settings")
		return Session{}, fmt.Errorf("quote: resolve settings: %w", err)
	}

	var table pricing.TaxTable
	if in.Tax.Enabled && s.taxes != nil {
		table, err = s.taxes.Table(ctx, in.Tax.CountryCode)
		if err != nil {
			// Priced without tax, as if the country had no configuration.
			span.RecordError(err)
			s.logger.Warn().Err(err).Str("country", in.Tax.CountryCode).Msg("tax table unavailable, pricing without tax")
			table = pricing.TaxTable{}
		}
	}

	q := pricing.Calculate(pricing.Input{
		Days:                  in.Days,
		CuratedAccommodations: in.CuratedAccommodations,
		Travelers:             in.Travelers,
		Settings:              settings,
		Discounts:             in.Discounts,
		Tax:                   in.Tax,
		TaxTable:              table,
		Selected:              in.Selected,
	})
	recordQuoteMetrics(q, settings.Markup)

	now := s.now().UTC()
	session := Session{
		ID:         uuid.New(),
		ProposalID: in.ProposalID,
		Status:     StatusDraft,
		Currency:   currency,
		Locale:     locale,
		Travelers:  in.Travelers,
		Settings:   settings,
		Quote:      q,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	span.SetAttributes(
		attribute.String("quote.id", session.ID.String()),
		attribute.Int("quote.options", len(q.Options)),
		attribute.Int("quote.days", len(in.Days)),
	)

	if err := s.sessions.Set(ctx, session.ID.String(), session); err != nil {
		obs.IncQuoteCalculation("error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "store session")
		return Session{}, fmt.Errorf("quote: store session: %w", err)
	}
	if q.Empty() {
		obs.IncQuoteCalculation("empty")
	} else {
		obs.IncQuoteCalculation("ok")
	}
	s.emit(ctx, events.TopicQuoteCalculated, session)
	return session, nil
}

// Get loads a session by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Session, error) {
	var session Session
	found, err := s.sessions.Get(ctx, id.String(), &session)
	if err != nil {
		return Session{}, fmt.Errorf("quote: load session: %w", err)
	}
	if !found {
		return Session{}, ErrNotFound
	}
	return session, nil
}

// Select switches the selected package of a draft session without repricing.
func (s *Service) Select(ctx context.Context, id uuid.UUID, pt pricing.PackageType) (Session, error) {
	var out Session
	err := s.withSession(ctx, id, func(ctx context.Context) error {
		session, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if session.Status == StatusFinalized {
			return ErrFinalized
		}
		q, err := session.Quote.Select(pt)
		if err != nil {
			return err
		}
		session.Quote = q
		session.UpdatedAt = s.now().UTC()
		if err := s.sessions.Set(ctx, session.ID.String(), session); err != nil {
			return fmt.Errorf("quote: store session: %w", err)
		}
		out = session
		return nil
	})
	if err != nil {
		return Session{}, err
	}
	s.emit(ctx, events.TopicQuoteSelected, out)
	return out, nil
}

// Finalize locks the selected option of a session and queues it for persistence.
// Finalizing an already finalized session returns it unchanged.
func (s *Service) Finalize(ctx context.Context, id uuid.UUID) (Session, error) {
	ctx, span := tracer.Start(ctx, "quote.finalize")
	defer span.End()
	span.SetAttributes(attribute.String("quote.id", id.String()))

	var out Session
	err := s.withSession(ctx, id, func(ctx context.Context) error {
		session, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if session.Status == StatusFinalized {
			out = session
			return nil
		}
		if _, ok := session.Quote.SelectedOption(); !ok {
			return ErrEmptyQuote
		}

		now := s.now().UTC()
		session.Status = StatusFinalized
		session.FinalizedAt = &now
		session.UpdatedAt = now

		if err := s.enqueueFinalize(ctx, session); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "enqueue finalize")
			return err
		}
		if err := s.sessions.Set(ctx, session.ID.String(), session); err != nil {
			return fmt.Errorf("quote: store session: %w", err)
		}
		s.logger.Info().
			Str("quote_id", session.ID.String()).
			Str("package", session.Quote.Selected.String()).
			Msg("quote finalized")
		out = session
		return nil
	})
	if err != nil {
		return Session{}, err
	}
	return out, nil
}

// withSession runs a read-modify-write of one session under its lock when a locker is
// configured.
func (s *Service) withSession(ctx context.Context, id uuid.UUID, fn func(context.Context) error) error {
	if s.locker == nil {
		return fn(ctx)
	}
	return s.locker.WithLock(ctx, id.String(), fn)
}

func (s *Service) enqueueFinalize(ctx context.Context, session Session) error {
	if s.tasks == nil {
		return errors.New("quote: task queue not configured")
	}
	record, ok := finalizedFromSession(session)
	if !ok {
		return ErrEmptyQuote
	}
	task, err := NewFinalizeTask(record)
	if err != nil {
		return err
	}
	opts := []asynq.Option{asynq.TaskID(record.SessionID.String())}
	if s.finalizeRetry > 0 {
		opts = append(opts, asynq.MaxRetry(s.finalizeRetry))
	}
	if _, err := s.tasks.EnqueueContext(ctx, task, opts...); err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		return fmt.Errorf("quote: enqueue finalize: %w", err)
	}
	return nil
}

// Formatter returns the display formatter for a session.
func (s *Service) Formatter(session Session) format.Formatter {
	f, err := format.NewFormatter(session.Currency, session.Locale)
	if err != nil {
		f, _ = format.NewFormatter(s.defaultCurrency, s.defaultLocale)
	}
	return f
}

func (s *Service) currencyAndLocale(currency, locale string) (string, string, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = s.defaultCurrency
	}
	locale = strings.TrimSpace(locale)
	if locale == "" {
		locale = s.defaultLocale
	}
	f, err := format.NewFormatter(currency, locale)
	if err != nil {
		return "", "", err
	}
	return f.Currency(), locale, nil
}

func (s *Service) emit(ctx context.Context, topic string, session Session) {
	if s.events == nil {
		return
	}
	payload := map[string]any{
		"quoteId":  session.ID,
		"status":   session.Status,
		"currency": session.Currency,
	}
	if session.ProposalID != nil {
		payload["proposalId"] = *session.ProposalID
	}
	if opt, ok := session.Quote.SelectedOption(); ok {
		payload["selected"] = opt.Type
		payload["finalTotal"] = opt.FinalTotal
	}
	if _, err := s.events.Emit(ctx, topic, session.ID, payload); err != nil {
		s.logger.Warn().Err(err).Str("topic", topic).Str("quote_id", session.ID.String()).Msg("emit quote event")
	}
}

func recordQuoteMetrics(q pricing.Quote, markup pricing.MarkupSettings) {
	slab := strings.EqualFold(string(markup.Type), string(pricing.MarkupSlab))
	for _, opt := range q.Options {
		obs.ObserveFinalTotal(opt.Type.String(), opt.FinalTotal)
		if slab {
			if _, ok := pricing.MatchSlab(opt.BaseTotal, markup.Slabs); !ok {
				obs.IncSlabMiss()
			}
		}
	}
}
