package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-proposal/internal/events"
	"github.com/noah-isme/backend-proposal/internal/obs"
)

// TypeFinalize is the asynq task type that persists a finalized quote.
const TypeFinalize = "quote:finalize"

// NewFinalizeTask wraps a finalized quote record in an asynq task.
func NewFinalizeTask(record FinalizedQuote) (*asynq.Task, error) {
	if record.SessionID == uuid.Nil {
		return nil, errors.New("quote: finalize task requires a session id")
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("quote: encode finalize task: %w", err)
	}
	return asynq.NewTask(TypeFinalize, payload), nil
}

// FinalizedStore persists finalized quotes. Save reports false when the record already
// existed.
type FinalizedStore interface {
	Save(ctx context.Context, record FinalizedQuote) (bool, error)
}

// FinalizeProcessor handles TypeFinalize tasks on the worker.
type FinalizeProcessor struct {
	Store  FinalizedStore
	Events EventEmitter
	Logger zerolog.Logger
}

// ProcessTask implements asynq.Handler.
func (p *FinalizeProcessor) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var record FinalizedQuote
	if err := json.Unmarshal(task.Payload(), &record); err != nil {
		obs.IncQuoteFinalization("invalid")
		return fmt.Errorf("quote: decode finalize task: %v: %w", err, asynq.SkipRetry)
	}
	if record.SessionID == uuid.Nil {
		obs.IncQuoteFinalization("invalid")
		return fmt.Errorf("quote: finalize task without session id: %w", asynq.SkipRetry)
	}
	if p.Store == nil {
		return errors.New("quote: finalized store not configured")
	}

	inserted, err := p.Store.Save(ctx, record)
	if err != nil {
		obs.IncQuoteFinalization("error")
		return fmt.Errorf("quote: persist finalized quote: %w", err)
	}
	log := p.Logger.With().Str("quote_id", record.SessionID.String()).Logger()
	if !inserted {
		obs.IncQuoteFinalization("duplicate")
		log.Debug().Msg("finalized quote already persisted")
		return nil
	}
	obs.IncQuoteFinalization("ok")
	log.Info().
		Str("package", record.PackageType.String()).
		Float64("final_total", record.FinalTotal).
		Msg("finalized quote persisted")

	if p.Events != nil {
		payload := map[string]any{
			"quoteId":     record.SessionID,
			"packageType": record.PackageType,
			"currency":    record.Currency,
			"finalTotal":  record.FinalTotal,
		}
		if record.ProposalID != nil {
			payload["proposalId"] = *record.ProposalID
		}
		if _, err := p.Events.Emit(ctx, events.TopicQuoteFinalized, record.SessionID, payload); err != nil {
			log.Warn().Err(err).Msg("emit quote finalized event")
		}
	}
	return nil
}

// Register mounts the processor on an asynq mux.
func (p *FinalizeProcessor) Register(mux *asynq.ServeMux) {
	mux.Handle(TypeFinalize, p)
}
