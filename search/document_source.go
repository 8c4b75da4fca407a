package search

import (
	"context"
	"sort"
	"strings"

	"github.com/halcyon-labs/recall/core"
	"github.com/halcyon-labs/recall/keyword"
	"github.com/halcyon-labs/recall/storage"
)

// tagMatchBoost multiplies a keyword score when the query exactly names one
// of the entity's tags: an explicit taxonomy match outranks incidental text
// relevance.
const tagMatchBoost = 2.0

// DocumentSource serves document candidates from the keyword index and the
// chunk store.
type DocumentSource struct {
	documents storage.DocumentRepository
	keywords  *keyword.Index
}

var _ Source = (*DocumentSource)(nil)

// NewDocumentSource creates the document entity source.
func NewDocumentSource(documents storage.DocumentRepository, keywords *keyword.Index) (*DocumentSource, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if keywords == nil {
		return nil, ErrKeywordIndexRequired
	}
	return &DocumentSource{documents: documents, keywords: keywords}, nil
}

// Kind identifies this source as serving documents.
func (s *DocumentSource) Kind() core.EntityKind {
	return core.EntityKindDocument
}

// Keyword returns documents by full-text relevance with the tag-match boost
// applied. The index is over-fetched so a tag match sitting just outside the
// top limit can still be boosted into the candidate set. Soft-deleted
// documents are filtered out here; the keyword index may lag the store.
func (s *DocumentSource) Keyword(ctx context.Context, q SourceQuery) ([]*Candidate, error) {
	hits, err := s.keywords.Search(ctx, keyword.Query{
		Text:     q.Text,
		Kind:     core.EntityKindDocument,
		OwnerId:  q.OwnerId,
		TenantId: q.TenantId,
		Limit:    q.Limit * 2,
	})
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}

	ids := make([]core.ID, 0, len(hits))
	for _, hit := range hits {
		ids = append(ids, hit.Id)
	}
	docs, err := s.documents.GetDocuments(ctx, ids...)
	if err != nil {
		return nil, err
	}
	byID := make(map[core.ID]*core.Document, len(docs))
	for _, doc := range docs {
		byID[doc.Id] = doc
	}

	tagQuery := strings.TrimSpace(q.Text)

	candidates := make([]*Candidate, 0, len(hits))
	for _, hit := range hits {
		doc, ok := byID[hit.Id]
		if !ok || doc.Deleted {
			continue
		}
		score := hit.Score
		if doc.HasTag(tagQuery) {
			score *= tagMatchBoost
		}
		candidates = append(candidates, &Candidate{
			Id:    doc.Id,
			Title: doc.Title,
			Score: score,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > q.Limit {
		candidates = candidates[:q.Limit]
	}
	return candidates, nil
}

// Vector returns documents by chunk similarity. The chunk scan is already
// scoped and sorted, so the first chunk seen per document carries its
// maximum similarity and best excerpt.
func (s *DocumentSource) Vector(ctx context.Context, q SourceQuery, vector []float32) ([]*Candidate, error) {
	// Over-fetch chunks: several top chunks may belong to one document.
	matches, err := s.documents.FindNearestChunks(ctx, q.OwnerId, q.TenantId, vector, q.Limit*4)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}

	var candidates []*Candidate
	seen := make(map[core.ID]bool)
	for _, match := range matches {
		docID := match.Chunk.DocumentId
		if seen[docID] {
			continue
		}
		seen[docID] = true
		candidates = append(candidates, &Candidate{
			Id:      docID,
			Score:   match.Score,
			Excerpt: match.Chunk.Content,
		})
		if len(candidates) == q.Limit {
			break
		}
	}

	ids := make([]core.ID, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.Id)
	}
	docs, err := s.documents.GetDocuments(ctx, ids...)
	if err != nil {
		return nil, err
	}
	titles := make(map[core.ID]string, len(docs))
	for _, doc := range docs {
		titles[doc.Id] = doc.Title
	}
	for _, c := range candidates {
		c.Title = titles[c.Id]
	}
	return candidates, nil
}
