package search

import (
	"context"

	"github.com/halcyon-labs/recall/core"
)

// SourceQuery is the scoped query handed to entity sources.
type SourceQuery struct {
	Text     string
	OwnerId  core.ID
	TenantId core.ID
	Limit    int
}

// Candidate is a scored entity produced by one signal of one source.
type Candidate struct {
	Id      core.ID
	Title   string
	Score   float64
	Excerpt string // best-matching chunk text, vector pass only
}

// Source produces search candidates for one entity kind. The engine runs
// both passes for every registered source and merges the results.
type Source interface {
	// Kind identifies the entity kind this source serves.
	Kind() core.EntityKind

	// Keyword returns candidates by full-text relevance, scoped to the
	// query's owner and tenant, best first, up to the query limit.
	Keyword(ctx context.Context, q SourceQuery) ([]*Candidate, error)

	// Vector returns candidates by vector similarity against the query
	// vector. An entity's score is the maximum similarity across its own
	// chunks, and the best chunk's content is the candidate's excerpt.
	Vector(ctx context.Context, q SourceQuery, vector []float32) ([]*Candidate, error)
}
