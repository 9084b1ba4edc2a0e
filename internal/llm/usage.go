package llm

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pageza/alchemorsel-search/internal/logging"
	"github.com/pageza/alchemorsel-search/internal/model"
)

// QueryLogWriter persists query logs.
type QueryLogWriter interface {
	Create(ctx context.Context, log *model.QueryLog) error
}

// Pricer fills in the cost columns of a stored query log.
type Pricer interface {
	CalculatePrice(ctx context.Context, id uuid.UUID) (*model.QueryLog, error)
}

// RecordingChat writes a QueryLog for every successful completion and then
// prices it. Recording is best effort: the completion is returned even when
// the log or the price cannot be written.
type RecordingChat struct {
	next   ChatModel
	logs   QueryLogWriter
	pricer Pricer
	family string
	logger zerolog.Logger
}

// NewRecordingChat wraps next. pricer may be nil, leaving logs unpriced for
// a later catch-up pass.
func NewRecordingChat(next ChatModel, logs QueryLogWriter, pricer Pricer, modelFamily string) *RecordingChat {
	return &RecordingChat{
		next:   next,
		logs:   logs,
		pricer: pricer,
		family: modelFamily,
		logger: logging.WithComponent("llm_usage"),
	}
}

func (r *RecordingChat) Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	resp, err := r.next.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	// The caller's deadline covers the provider call, not bookkeeping.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	entry := &model.QueryLog{
		Model:           resp.Model,
		ModelFamily:     r.family,
		SystemPrompt:    req.System,
		UserPrompt:      req.User,
		Response:        resp.Content,
		PromptTokens:    resp.Usage.PromptTokens,
		ResponseTokens:  resp.Usage.CompletionTokens,
		ReasoningTokens: resp.Usage.ReasoningTokens,
	}
	if err := r.logs.Create(rctx, entry); err != nil {
		r.logger.Warn().Err(err).Str("model", resp.Model).Msg("failed to record query log")
		return resp, nil
	}
	if r.pricer != nil {
		if _, err := r.pricer.CalculatePrice(rctx, entry.ID); err != nil {
			r.logger.Warn().Err(err).Str("query_log_id", entry.ID.String()).Msg("failed to price query log")
		}
	}
	return resp, nil
}
