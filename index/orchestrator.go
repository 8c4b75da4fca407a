package index

import (
	"context"
	"log/slog"
	"runtime"
	"strings"

	"github.com/halcyon-labs/recall/chunk"
	"github.com/halcyon-labs/recall/core"
	"github.com/halcyon-labs/recall/keyword"
	"github.com/halcyon-labs/recall/normalize"
	"github.com/halcyon-labs/recall/storage"
	"github.com/panjf2000/ants/v2"
)

// Request carries everything needed to (re)index one document.
type Request struct {
	DocumentId core.ID
	OwnerId    core.ID
	TenantId   core.ID
	Title      string
	Content    string // plain-text content
	RichState  string // serialized editor state, preferred over Content when present
	Tags       []string
}

// Orchestrator rebuilds a document's index state from its current content.
type Orchestrator struct {
	documents storage.DocumentRepository
	keywords  *keyword.Index
	pool      *ants.Pool
	chunkOpts chunk.Options
	logger    *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithPoolSize sets the worker pool size for fire-and-forget indexing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(o *Orchestrator) error {
		if size < 1 {
			size = 1
		}
		if o.pool != nil {
			o.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		o.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// WithChunkOptions overrides the splitter configuration.
func WithChunkOptions(opts chunk.Options) Option {
	return func(o *Orchestrator) error {
		o.chunkOpts = opts
		return nil
	}
}

// NewOrchestrator creates an indexing orchestrator.
func NewOrchestrator(documents storage.DocumentRepository, keywords *keyword.Index, opts ...Option) (*Orchestrator, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if keywords == nil {
		return nil, ErrKeywordIndexRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		documents: documents,
		keywords:  keywords,
		pool:      pool,
		chunkOpts: chunk.DefaultOptions(),
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(o); optErr != nil {
			o.Release()
			return nil, optErr
		}
	}

	return o, nil
}

// Reindex rebuilds the document's index state from the request's content.
//
// The canonical text is the normalized body prefixed by the title. Content
// below the chunker's minimum still replaces the old state: the previous
// chunks and pending jobs are cleared so stale segments never survive an
// edit that shrank the document.
//
// The store replacement is atomic; the keyword index is updated only after
// the transaction commits, and a keyword failure is logged rather than
// surfaced since the store — the source of truth — is already consistent.
func (o *Orchestrator) Reindex(ctx context.Context, req Request) error {
	doc := &core.Document{
		Id:       req.DocumentId,
		OwnerId:  req.OwnerId,
		TenantId: req.TenantId,
		Title:    req.Title,
		Tags:     req.Tags,
	}
	if err := core.ValidateDocument(doc); err != nil {
		return err
	}

	body := normalize.Text(req.Content, req.RichState)
	canonical := body
	if req.Title != "" {
		canonical = req.Title + "\n\n" + body
	}
	doc.ContentHash = core.IDFromContent(canonical)

	// Content below the chunker's minimum is not worth embedding, but the
	// replacement still runs so prior chunks and jobs are cleared.
	minSize := o.chunkOpts.MinSize
	if minSize <= 0 {
		minSize = chunk.DefaultMinSize
	}
	var segments []string
	if len([]rune(strings.TrimSpace(canonical))) >= minSize {
		segments = chunk.Split(canonical, o.chunkOpts)
	}

	chunks := make([]*core.Chunk, 0, len(segments))
	jobs := make([]*core.EmbeddingJob, 0, len(segments))
	for i, segment := range segments {
		chunks = append(chunks, &core.Chunk{
			DocumentId: doc.Id,
			Index:      i,
			Content:    segment,
		})
		jobs = append(jobs, &core.EmbeddingJob{
			DocumentId: doc.Id,
			ChunkIndex: i,
			Content:    segment,
		})
	}

	stored, err := o.documents.ReplaceDocumentIndex(ctx, doc, chunks, jobs)
	if err != nil {
		return err
	}

	o.logger.Debug("document index replaced",
		"document", stored.Id,
		"generation", stored.Generation,
		"chunks", len(chunks))

	entry := &keyword.Entry{
		Kind:     core.EntityKindDocument,
		Id:       stored.Id,
		OwnerId:  stored.OwnerId,
		TenantId: stored.TenantId,
		Title:    stored.Title,
		Body:     body,
		Tags:     stored.Tags,
	}
	if err := o.keywords.Upsert(ctx, entry); err != nil {
		o.logger.Error("keyword index update failed", "document", stored.Id, "err", err)
	}

	return nil
}

// Enqueue dispatches a re-index without waiting for it. Failures are logged,
// never returned to the caller.
func (o *Orchestrator) Enqueue(req Request) {
	err := o.pool.Submit(func() {
		if err := o.Reindex(context.Background(), req); err != nil {
			o.logger.Error("async reindex failed", "document", req.DocumentId, "err", err)
		}
	})
	if err != nil {
		o.logger.Error("failed to submit reindex", "document", req.DocumentId, "err", err)
	}
}

// Remove drops the document's projection, chunks, pending work, and keyword
// entry. It is the indexing boundary the external delete flow calls.
func (o *Orchestrator) Remove(ctx context.Context, documentID core.ID) error {
	if err := o.documents.RemoveDocument(ctx, documentID); err != nil {
		return err
	}
	if err := o.keywords.Delete(ctx, core.EntityKindDocument, documentID); err != nil {
		o.logger.Error("keyword index delete failed", "document", documentID, "err", err)
	}
	return nil
}

// Release releases the worker pool. The orchestrator should not be used
// after calling Release.
func (o *Orchestrator) Release() {
	if o.pool != nil {
		o.pool.Release()
	}
}
