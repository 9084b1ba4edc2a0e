package llm

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/pageza/alchemorsel-search/internal/apperrors"
	"github.com/pageza/alchemorsel-search/internal/logging"
	"github.com/pageza/alchemorsel-search/internal/metrics"
)

// BreakerSettings configures the provider circuit breaker.
type BreakerSettings struct {
	Name                string
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

func newBreaker[T any](s BreakerSettings) *gobreaker.CircuitBreaker[T] {
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("LLM circuit breaker state change")
		},
		// A cancelled call says nothing about provider health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}

func breakerError(op string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperrors.NewProviderError(op, err)
	}
	return err
}

// BreakerChat fails fast while the chat provider is unhealthy.
type BreakerChat struct {
	next ChatModel
	cb   *gobreaker.CircuitBreaker[*ChatResponse]
}

func NewBreakerChat(next ChatModel, s BreakerSettings) *BreakerChat {
	if s.Name == "" {
		s.Name = "llm-chat"
	}
	return &BreakerChat{next: next, cb: newBreaker[*ChatResponse](s)}
}

func (b *BreakerChat) Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	resp, err := b.cb.Execute(func() (*ChatResponse, error) {
		return b.next.Complete(ctx, req)
	})
	if err != nil {
		metrics.LLMCalls.WithLabelValues("chat", "error").Inc()
		return nil, breakerError("chat", err)
	}
	metrics.LLMCalls.WithLabelValues("chat", "ok").Inc()
	return resp, nil
}

// BreakerEmbedder fails fast while the embedding provider is unhealthy.
type BreakerEmbedder struct {
	next Embedder
	cb   *gobreaker.CircuitBreaker[[]float32]
}

func NewBreakerEmbedder(next Embedder, s BreakerSettings) *BreakerEmbedder {
	if s.Name == "" {
		s.Name = "llm-embed"
	}
	return &BreakerEmbedder{next: next, cb: newBreaker[[]float32](s)}
}

func (b *BreakerEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := b.cb.Execute(func() ([]float32, error) {
		return b.next.Embed(ctx, text)
	})
	if err != nil {
		metrics.LLMCalls.WithLabelValues("embed", "error").Inc()
		return nil, breakerError("embed", err)
	}
	metrics.LLMCalls.WithLabelValues("embed", "ok").Inc()
	return vec, nil
}
