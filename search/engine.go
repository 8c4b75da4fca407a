package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/halcyon-labs/recall/ai"
	"github.com/halcyon-labs/recall/core"
)

// DefaultLimit is the result count when the caller doesn't specify one.
const DefaultLimit = 10

// DefaultQueryEmbedTimeout bounds the query embedding call. A slow provider
// costs the vector signal, never the whole search.
const DefaultQueryEmbedTimeout = 5 * time.Second

// Engine runs hybrid search across registered entity sources.
type Engine struct {
	embedder     ai.Embedder
	sources      []Source
	weights      core.Weights
	embedTimeout time.Duration
	logger       *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithSource registers an entity source. At least one is required.
func WithSource(source Source) Option {
	return func(e *Engine) error {
		e.sources = append(e.sources, source)
		return nil
	}
}

// WithWeights sets the engine's default signal weights.
// Default is core.DefaultWeights().
func WithWeights(weights core.Weights) Option {
	return func(e *Engine) error {
		if err := weights.Validate(); err != nil {
			return err
		}
		e.weights = weights
		return nil
	}
}

// WithQueryEmbedTimeout sets the query embedding timeout.
func WithQueryEmbedTimeout(timeout time.Duration) Option {
	return func(e *Engine) error {
		if timeout > 0 {
			e.embedTimeout = timeout
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEngine creates a hybrid search engine.
func NewEngine(embedder ai.Embedder, opts ...Option) (*Engine, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	e := &Engine{
		embedder:     embedder,
		weights:      core.DefaultWeights(),
		embedTimeout: DefaultQueryEmbedTimeout,
		logger:       slog.Default().With("component", "search-engine"),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	if len(e.sources) == 0 {
		return nil, ErrNoSources
	}
	return e, nil
}

// Options carries per-search parameters. Zero values fall back to the
// engine's defaults.
type Options struct {
	Weights *core.Weights
	Limit   int
	Monitor Monitor
}

// Search runs both signals for every registered source and returns the
// merged ranking, best first.
//
// An empty query and invalid weights are rejected up front. Provider
// failures degrade the search to keyword-only. No matches yields an empty
// slice, and a combined score of zero is a valid result.
func (e *Engine) Search(ctx context.Context, query string, ownerID, tenantID core.ID, opts Options) ([]*core.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, core.ErrEmptyQuery
	}

	weights := e.weights
	if opts.Weights != nil {
		weights = *opts.Weights
	}
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("%w: keyword=%v vector=%v", core.ErrInvalidWeights, weights.Keyword, weights.Vector)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	monitor := opts.Monitor
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(query)

	queryVector := e.embedQuery(ctx, query, monitor)

	sq := SourceQuery{Text: query, OwnerId: ownerID, TenantId: tenantID, Limit: limit}

	results := make([]*core.SearchResult, 0, limit)
	for _, source := range e.sources {
		merged, err := e.searchSource(ctx, source, sq, queryVector, weights, monitor)
		if err != nil {
			return nil, err
		}
		results = append(results, merged...)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].CombinedScore > results[j].CombinedScore
	})
	if len(results) > limit {
		results = results[:limit]
	}

	monitor.Finish(results)
	return results, nil
}

// embedQuery produces the query vector under a short timeout. Any failure is
// logged and degrades the search to keyword-only.
func (e *Engine) embedQuery(ctx context.Context, query string, monitor Monitor) []float32 {
	embedCtx, cancel := context.WithTimeout(ctx, e.embedTimeout)
	defer cancel()

	vector, err := e.embedder.EmbedText(embedCtx, query)
	if err != nil {
		e.logger.Warn("query embedding failed, degrading to keyword-only", "err", err)
		monitor.QueryEmbeddingFailed(err)
		return nil
	}
	return vector
}

// searchSource runs both passes for one source and merges them by entity id.
func (e *Engine) searchSource(ctx context.Context, source Source, sq SourceQuery, queryVector []float32, weights core.Weights, monitor Monitor) ([]*core.SearchResult, error) {
	byID := make(map[core.ID]*core.SearchResult)
	var order []core.ID

	kwCands, err := source.Keyword(ctx, sq)
	if err != nil {
		return nil, err
	}
	monitor.AfterKeywordPass(source.Kind(), kwCands)

	for _, cand := range kwCands {
		result, ok := byID[cand.Id]
		if !ok {
			result = &core.SearchResult{Kind: source.Kind(), Id: cand.Id, Title: cand.Title}
			byID[cand.Id] = result
			order = append(order, cand.Id)
		}
		result.KeywordScore = cand.Score
		if result.Excerpt == "" {
			result.Excerpt = cand.Excerpt
		}
	}

	if queryVector != nil {
		vecCands, err := source.Vector(ctx, sq, queryVector)
		if err != nil {
			return nil, err
		}
		monitor.AfterVectorPass(source.Kind(), vecCands)

		for _, cand := range vecCands {
			result, ok := byID[cand.Id]
			if !ok {
				result = &core.SearchResult{Kind: source.Kind(), Id: cand.Id, Title: cand.Title}
				byID[cand.Id] = result
				order = append(order, cand.Id)
			}
			if result.Title == "" {
				result.Title = cand.Title
			}
			// Max observed similarity wins; the first-seen excerpt sticks.
			if cand.Score > result.VectorScore {
				result.VectorScore = cand.Score
			}
			if result.Excerpt == "" {
				result.Excerpt = cand.Excerpt
			}
		}
	}

	merged := make([]*core.SearchResult, 0, len(order))
	for _, id := range order {
		result := byID[id]
		result.CombinedScore = result.KeywordScore*weights.Keyword + result.VectorScore*weights.Vector
		merged = append(merged, result)
	}
	return merged, nil
}
