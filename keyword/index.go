package keyword

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	keywordanalyzer "github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/halcyon-labs/recall/core"
)

// Entry is one searchable entity in the keyword index.
type Entry struct {
	Kind     core.EntityKind
	Id       core.ID
	OwnerId  core.ID
	TenantId core.ID
	Title    string
	Body     string
	Tags     []string
}

// Hit is a scored keyword match.
type Hit struct {
	Kind  core.EntityKind
	Id    core.ID
	Score float64
}

// Query scopes a keyword search to one entity kind within one owner/tenant.
type Query struct {
	Text     string
	Kind     core.EntityKind
	OwnerId  core.ID
	TenantId core.ID
	Limit    int
}

// bleveEntry is the document structure handed to Bleve.
type bleveEntry struct {
	Kind   string   `json:"kind"`
	Owner  string   `json:"owner"`
	Tenant string   `json:"tenant"`
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Tags   []string `json:"tags"`
}

// Index wraps a Bleve index for full-text relevance ranking.
type Index struct {
	mu     sync.RWMutex
	index  bleve.Index
	closed bool
}

// New creates a keyword index at path, opening an existing one when present.
// An empty path creates an in-memory index for testing.
func New(path string) (*Index, error) {
	indexMapping := createIndexMapping()

	var idx bleve.Index
	var err error
	if path == "" {
		idx, err = bleve.NewMemOnly(indexMapping)
	} else {
		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, indexMapping)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create/open keyword index: %w", err)
	}

	return &Index{index: idx}, nil
}

// createIndexMapping builds the Bleve mapping: analyzed text for title, body,
// and tags; exact keyword terms for the scoping fields.
func createIndexMapping() *mapping.IndexMappingImpl {
	exact := bleve.NewTextFieldMapping()
	exact.Analyzer = keywordanalyzer.Name
	exact.Store = false
	exact.IncludeInAll = false

	text := bleve.NewTextFieldMapping()
	text.Store = false

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("kind", exact)
	docMapping.AddFieldMappingsAt("owner", exact)
	docMapping.AddFieldMappingsAt("tenant", exact)
	docMapping.AddFieldMappingsAt("title", text)
	docMapping.AddFieldMappingsAt("body", text)
	docMapping.AddFieldMappingsAt("tags", text)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// Upsert adds or replaces entries in the index.
func (ix *Index) Upsert(ctx context.Context, entries ...*Entry) error {
	if len(entries) == 0 {
		return nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.closed {
		return fmt.Errorf("keyword index is closed")
	}

	batch := ix.index.NewBatch()
	for _, entry := range entries {
		doc := bleveEntry{
			Kind:   string(entry.Kind),
			Owner:  formatID(entry.OwnerId),
			Tenant: formatID(entry.TenantId),
			Title:  entry.Title,
			Body:   entry.Body,
			Tags:   entry.Tags,
		}
		if err := batch.Index(makeDocID(entry.Kind, entry.Id), doc); err != nil {
			return fmt.Errorf("failed to index entry %d: %w", entry.Id, err)
		}
	}

	if err := ix.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch: %w", err)
	}
	return nil
}

// Delete removes entries from the index. Deleting unknown IDs is a no-op.
func (ix *Index) Delete(ctx context.Context, kind core.EntityKind, ids ...core.ID) error {
	if len(ids) == 0 {
		return nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.closed {
		return fmt.Errorf("keyword index is closed")
	}

	batch := ix.index.NewBatch()
	for _, id := range ids {
		batch.Delete(makeDocID(kind, id))
	}

	if err := ix.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to delete entries: %w", err)
	}
	return nil
}

// Search returns scored matches for the query text within the query's scope,
// best first. An empty query text yields no hits.
func (ix *Index) Search(ctx context.Context, q Query) ([]*Hit, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.closed {
		return nil, fmt.Errorf("keyword index is closed")
	}
	if strings.TrimSpace(q.Text) == "" {
		return []*Hit{}, nil
	}

	title := bleve.NewMatchQuery(q.Text)
	title.SetField("title")
	body := bleve.NewMatchQuery(q.Text)
	body.SetField("body")
	tags := bleve.NewMatchQuery(q.Text)
	tags.SetField("tags")
	relevance := bleve.NewDisjunctionQuery(title, body, tags)

	kind := bleve.NewTermQuery(string(q.Kind))
	kind.SetField("kind")
	owner := bleve.NewTermQuery(formatID(q.OwnerId))
	owner.SetField("owner")
	tenant := bleve.NewTermQuery(formatID(q.TenantId))
	tenant.SetField("tenant")

	req := bleve.NewSearchRequest(bleve.NewConjunctionQuery(relevance, kind, owner, tenant))
	req.Size = q.Limit

	result, err := ix.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}

	hits := make([]*Hit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		hitKind, id, err := parseDocID(hit.ID)
		if err != nil {
			return nil, err
		}
		hits = append(hits, &Hit{Kind: hitKind, Id: id, Score: hit.Score})
	}
	return hits, nil
}

// DocCount returns the number of indexed entries.
func (ix *Index) DocCount() (uint64, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.index.DocCount()
}

// Close closes the index.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.closed {
		return nil
	}
	ix.closed = true
	return ix.index.Close()
}

func formatID(id core.ID) string {
	return strconv.FormatUint(uint64(id), 10)
}

// makeDocID builds the Bleve document ID, namespaced by entity kind so
// distinct kinds never collide.
func makeDocID(kind core.EntityKind, id core.ID) string {
	return string(kind) + ":" + formatID(id)
}

func parseDocID(docID string) (core.EntityKind, core.ID, error) {
	kind, rest, ok := strings.Cut(docID, ":")
	if !ok {
		return "", 0, fmt.Errorf("malformed keyword doc id %q", docID)
	}
	raw, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("malformed keyword doc id %q: %w", docID, err)
	}
	return core.EntityKind(kind), core.ID(raw), nil
}
