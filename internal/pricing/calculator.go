// Package pricing computes the USD cost of recorded LLM completions from
// a per-model-family price table.
package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pageza/alchemorsel-search/internal/apperrors"
	"github.com/pageza/alchemorsel-search/internal/logging"
	"github.com/pageza/alchemorsel-search/internal/metrics"
	"github.com/pageza/alchemorsel-search/internal/model"
)

const perMillion = 1_000_000.0

// QueryLogStore reads query logs and writes their cost columns.
type QueryLogStore interface {
	Get(ctx context.Context, id uuid.UUID) (*model.QueryLog, error)
	SavePricing(ctx context.Context, log *model.QueryLog) error
	ListUnpriced(ctx context.Context, limit int) ([]uuid.UUID, error)
}

// PriceTable looks up the price of a model family.
type PriceTable interface {
	Lookup(ctx context.Context, modelFamily string) (*model.ModelPrice, error)
}

// Calculator prices query logs.
type Calculator struct {
	logs   QueryLogStore
	prices PriceTable
	logger zerolog.Logger
}

func NewCalculator(logs QueryLogStore, prices PriceTable) *Calculator {
	return &Calculator{logs: logs, prices: prices, logger: logging.WithComponent("pricing")}
}

// Costs is the price breakdown of one log.
type Costs struct {
	Input  float64
	Output float64
	Total  float64
}

// Compute prices token counts. Reasoning tokens are billed at the input rate.
func Compute(promptTokens, responseTokens, reasoningTokens int, price *model.ModelPrice) Costs {
	input := (float64(promptTokens)/perMillion + float64(reasoningTokens)/perMillion) * price.InputPerMtokUSD
	output := float64(responseTokens) / perMillion * price.OutputPerMtokUSD
	return Costs{Input: input, Output: output, Total: input + output}
}

// CalculatePrice fills in and persists the costs of one log. It returns
// (nil, nil) when the log or its model family's price does not exist.
// Re-pricing overwrites the previous costs.
func (c *Calculator) CalculatePrice(ctx context.Context, id uuid.UUID) (*model.QueryLog, error) {
	log, err := c.logs.Get(ctx, id)
	if errors.Is(err, apperrors.ErrNotFound) || (err == nil && log == nil) {
		c.logger.Warn().Str("query_log_id", id.String()).Msg("query log not found, skipping pricing")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load query log %s: %w", id, err)
	}

	price, err := c.prices.Lookup(ctx, log.ModelFamily)
	if errors.Is(err, apperrors.ErrNotFound) || (err == nil && price == nil) {
		c.logger.Warn().Str("query_log_id", id.String()).Str("model_family", log.ModelFamily).Msg("no price for model family")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup price for %s: %w", log.ModelFamily, err)
	}

	wasPriced := log.Priced
	costs := Compute(log.PromptTokens, log.ResponseTokens, log.ReasoningTokens, price)
	log.InputCost = costs.Input
	log.OutputCost = costs.Output
	log.TotalCost = costs.Total
	log.Priced = true

	if err := c.logs.SavePricing(ctx, log); err != nil {
		return nil, fmt.Errorf("save pricing for %s: %w", id, err)
	}
	if !wasPriced {
		metrics.LLMCostUSD.WithLabelValues(log.ModelFamily).Add(costs.Total)
	}
	return log, nil
}

// PriceUnpriced prices up to limit logs that have not been priced yet and
// returns how many were priced. The store only lists logs whose model
// family has a price; the rest stay unpriced until one is added.
func (c *Calculator) PriceUnpriced(ctx context.Context, limit int) (int, error) {
	ids, err := c.logs.ListUnpriced(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list unpriced query logs: %w", err)
	}
	priced := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return priced, err
		}
		log, err := c.CalculatePrice(ctx, id)
		if err != nil {
			c.logger.Error().Err(err).Str("query_log_id", id.String()).Msg("failed to price query log")
			continue
		}
		if log != nil {
			priced++
		}
	}
	return priced, nil
}
