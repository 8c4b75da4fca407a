package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// EntityKind identifies the type of a searchable entity.
type EntityKind string

// EntityKindDocument is the document entity kind. Additional kinds are
// registered with the search engine through their own sources.
const EntityKindDocument EntityKind = "document"

// Document is the index-side projection of a source document. The document's
// CRUD lifecycle lives outside this module; this record carries what indexing
// and search need: scope, tags, the revision signal, and the generation
// counter that guards against stale chunk writes.
type Document struct {
	Id          ID
	OwnerId     ID
	TenantId    ID
	Title       string
	Tags        []string
	ContentHash ID     // IDFromContent of the last-indexed canonical text
	Generation  uint64 // Incremented on every index replacement
	Deleted     bool
	InsertedAt  time.Time
	UpdatedAt   time.Time
}

// HasTag reports whether the document carries the named tag, case-insensitively.
func (d *Document) HasTag(name string) bool {
	for _, tag := range d.Tags {
		if strings.EqualFold(tag, name) {
			return true
		}
	}
	return false
}

// Chunk is a bounded, contiguous segment of a document's canonical text.
// A document's chunk set is always replaced wholesale on re-index.
type Chunk struct {
	DocumentId ID
	Index      int // 0-based, contiguous within the document
	OwnerId    ID  // Denormalized for scoped vector scans
	TenantId   ID
	Generation uint64 // Copied from the document at creation time
	Content    string
	Vector     []float32 // nil until the embedding worker reports back
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// JobStatus is the lifecycle state of an embedding job.
type JobStatus int

const (
	// JobStatusPending marks a job eligible for worker pickup.
	JobStatusPending JobStatus = iota + 1
	// JobStatusProcessing marks a job claimed by a worker.
	JobStatusProcessing
	// JobStatusCompleted is the terminal success state.
	JobStatusCompleted
	// JobStatusFailed is the terminal dead-letter state after exhausting retries.
	JobStatusFailed
)

// Terminal reports whether the status is one of the two terminal states.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// String returns the status name used in logs and CLI output.
func (s JobStatus) String() string {
	switch s {
	case JobStatusPending:
		return "PENDING"
	case JobStatusProcessing:
		return "PROCESSING"
	case JobStatusCompleted:
		return "COMPLETED"
	case JobStatusFailed:
		return "FAILED"
	}
	return "UNKNOWN"
}

// MaxJobAttempts is the retry cap: a job that fails this many times is
// dead-lettered and never retried automatically.
const MaxJobAttempts = 3

// EmbeddingJob is one unit of embedding work for a single chunk. Content is a
// snapshot taken at creation time, decoupled from the live chunk.
type EmbeddingJob struct {
	Id            ID
	DocumentId    ID
	ChunkIndex    int
	Generation    uint64 // Must match the chunk's generation for the result to apply
	Content       string
	Status        JobStatus
	Attempts      int
	LastAttemptAt time.Time
	Error         string
	InsertedAt    time.Time
	UpdatedAt     time.Time
}

// Weights controls the relative contribution of the keyword and vector
// signals to a combined search score.
type Weights struct {
	Keyword float64
	Vector  float64
}

// WeightTolerance is how far Keyword+Vector may drift from 1.0.
const WeightTolerance = 0.001

// DefaultWeights returns the standard keyword/vector split.
func DefaultWeights() Weights {
	return Weights{Keyword: 0.4, Vector: 0.6}
}

// Validate checks that the weights sum to 1.0 within tolerance.
func (w Weights) Validate() error {
	sum := w.Keyword + w.Vector
	if sum < 1.0-WeightTolerance || sum > 1.0+WeightTolerance {
		return ErrInvalidWeights
	}
	return nil
}

// SearchResult is an ephemeral ranked hit produced by the hybrid search engine.
type SearchResult struct {
	Kind          EntityKind
	Id            ID
	Title         string
	KeywordScore  float64
	VectorScore   float64
	CombinedScore float64
	Excerpt       string // First-seen best-matching chunk text, never overwritten
}
