package resilience

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// ErrOpen is returned by Do while the breaker refuses calls.
var ErrOpen = errors.New("resilience: circuit open")

// State is the breaker's position in its state machine.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Config tunes a Breaker. Zero values fall back to the defaults noted per field.
type Config struct {
	// Name labels metrics and logs. Defaults to "default".
	Name string

	// MinRequests is the sample size before the failure ratio is evaluated. Defaults to 10.
	MinRequests int

	// FailureRatio opens the breaker once reached. Defaults to 0.5, capped at 1.
	FailureRatio float64

	// OpenFor is the cool-off before a half-open probe is let through. Defaults to 30s.
	OpenFor time.Duration

	Logger zerolog.Logger
	Now    func() time.Time
}

// Breaker is a failure-ratio circuit breaker guarding a single downstream dependency.
// Only one probe is admitted while half-open.
type Breaker struct {
	cfg Config

	mu        sync.Mutex
	state     State
	failures  int
	successes int
	openedAt  time.Time
	probing   bool
}

// New returns a closed breaker.
func New(cfg Config) *Breaker {
	cfg.Name = strings.TrimSpace(cfg.Name)
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	if cfg.MinRequests <= 0 {
		cfg.MinRequests = 10
	}
	if cfg.FailureRatio <= 0 {
		cfg.FailureRatio = 0.5
	}
	if cfg.FailureRatio > 1 {
		cfg.FailureRatio = 1
	}
	if cfg.OpenFor <= 0 {
		cfg.OpenFor = 30 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	b := &Breaker{cfg: cfg, state: Closed}
	breakerState.WithLabelValues(cfg.Name).Set(gaugeValue(Closed))
	return b
}

// State reports the current state, moving an expired open breaker to half-open.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Open && b.cfg.Now().Sub(b.openedAt) >= b.cfg.OpenFor {
		return HalfOpen
	}
	return b.state
}

// Do runs fn when the breaker admits the call and records its outcome. Context
// cancellation by the caller is not counted against the dependency.
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	if b == nil {
		return fn(ctx)
	}
	if !b.admit(ctx) {
		breakerRejected.WithLabelValues(b.cfg.Name).Inc()
		return ErrOpen
	}
	err := fn(ctx)
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		b.abandon()
		return err
	}
	b.record(ctx, err == nil)
	return err
}

func (b *Breaker) admit(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		if b.cfg.Now().Sub(b.openedAt) < b.cfg.OpenFor {
			return false
		}
		b.transitionLocked(ctx, HalfOpen)
		b.probing = true
		return true
	case HalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	default:
		return true
	}
}

func (b *Breaker) abandon() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == HalfOpen {
		b.probing = false
	}
}

func (b *Breaker) record(ctx context.Context, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		return
	case HalfOpen:
		b.probing = false
		if ok {
			b.transitionLocked(ctx, Closed)
		} else {
			b.transitionLocked(ctx, Open)
		}
		return
	}

	if ok {
		b.successes++
	} else {
		b.failures++
	}
	total := b.failures + b.successes
	if total < b.cfg.MinRequests {
		return
	}
	if float64(b.failures)/float64(total) >= b.cfg.FailureRatio {
		b.transitionLocked(ctx, Open)
		return
	}
	// Halve the window so old outcomes fade instead of growing without bound.
	if total > b.cfg.MinRequests*2 {
		b.successes = (b.successes + 1) / 2
		b.failures = (b.failures + 1) / 2
	}
}

func (b *Breaker) transitionLocked(ctx context.Context, next State) {
	prev := b.state
	if prev == next {
		return
	}
	b.state = next
	b.failures, b.successes = 0, 0
	switch next {
	case Open:
		b.openedAt = b.cfg.Now()
		breakerOpened.WithLabelValues(b.cfg.Name).Inc()
	case Closed:
		b.openedAt = time.Time{}
	}
	breakerState.WithLabelValues(b.cfg.Name).Set(gaugeValue(next))
	breakerTransitions.WithLabelValues(b.cfg.Name, prev.String(), next.String()).Inc()

	evt := b.cfg.Logger.Warn()
	if next == Closed {
		evt = b.cfg.Logger.Info()
	}
	if span := trace.SpanContextFromContext(ctx); span.IsValid() {
		evt = evt.Str("trace_id", span.TraceID().String())
	}
	evt.Str("breaker", b.cfg.Name).Str("from", prev.String()).Str("to", next.String()).Msg("breaker transition")
}

func gaugeValue(s State) float64 {
	switch s {
	case Closed:
		return 0
	case Open:
		return 1
	case HalfOpen:
		return 2
	default:
		return -1
	}
}
