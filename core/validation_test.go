package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDocument(t *testing.T) {
	valid := func() *Document {
		return &Document{Id: 1, OwnerId: 2, TenantId: 3, Title: "notes"}
	}

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, ValidateDocument(valid()))
	})

	t.Run("nil", func(t *testing.T) {
		assert.ErrorIs(t, ValidateDocument(nil), ErrInvalidDocument)
	})

	t.Run("missing id", func(t *testing.T) {
		doc := valid()
		doc.Id = 0
		assert.ErrorIs(t, ValidateDocument(doc), ErrInvalidDocument)
	})

	t.Run("missing owner", func(t *testing.T) {
		doc := valid()
		doc.OwnerId = 0
		assert.ErrorIs(t, ValidateDocument(doc), ErrInvalidDocument)
	})

	t.Run("missing tenant", func(t *testing.T) {
		doc := valid()
		doc.TenantId = 0
		assert.ErrorIs(t, ValidateDocument(doc), ErrInvalidDocument)
	})

	t.Run("zero generation is valid", func(t *testing.T) {
		doc := valid()
		doc.Generation = 0
		require.NoError(t, ValidateDocument(doc))
	})
}

func TestValidateChunk(t *testing.T) {
	valid := func() *Chunk {
		return &Chunk{DocumentId: 1, Index: 0, Content: "some chunk text"}
	}

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, ValidateChunk(valid()))
	})

	t.Run("nil", func(t *testing.T) {
		assert.ErrorIs(t, ValidateChunk(nil), ErrInvalidChunk)
	})

	t.Run("missing document id", func(t *testing.T) {
		c := valid()
		c.DocumentId = 0
		assert.ErrorIs(t, ValidateChunk(c), ErrInvalidChunk)
	})

	t.Run("negative index", func(t *testing.T) {
		c := valid()
		c.Index = -1
		err := ValidateChunk(c)
		assert.ErrorIs(t, err, ErrInvalidChunk)
		assert.ErrorIs(t, err, ErrNegativeChunkIndex)
	})

	t.Run("empty content", func(t *testing.T) {
		c := valid()
		c.Content = ""
		err := ValidateChunk(c)
		assert.ErrorIs(t, err, ErrInvalidChunk)
		assert.ErrorIs(t, err, ErrEmptyContent)
	})

	t.Run("nil vector is valid", func(t *testing.T) {
		c := valid()
		c.Vector = nil
		require.NoError(t, ValidateChunk(c))
	})
}

func TestValidateJob(t *testing.T) {
	valid := func() *EmbeddingJob {
		return &EmbeddingJob{DocumentId: 1, ChunkIndex: 0, Content: "snapshot", Status: JobStatusPending}
	}

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, ValidateJob(valid()))
	})

	t.Run("nil", func(t *testing.T) {
		assert.ErrorIs(t, ValidateJob(nil), ErrInvalidJob)
	})

	t.Run("missing document id", func(t *testing.T) {
		j := valid()
		j.DocumentId = 0
		assert.ErrorIs(t, ValidateJob(j), ErrInvalidJob)
	})

	t.Run("negative chunk index", func(t *testing.T) {
		j := valid()
		j.ChunkIndex = -1
		assert.ErrorIs(t, ValidateJob(j), ErrNegativeChunkIndex)
	})

	t.Run("empty snapshot", func(t *testing.T) {
		j := valid()
		j.Content = ""
		assert.ErrorIs(t, ValidateJob(j), ErrEmptyContent)
	})

	t.Run("invalid status", func(t *testing.T) {
		j := valid()
		j.Status = JobStatus(0)
		assert.ErrorIs(t, ValidateJob(j), ErrInvalidJobStatus)
	})
}

func TestValidateJobStatus(t *testing.T) {
	for _, s := range []JobStatus{JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed} {
		require.NoError(t, ValidateJobStatus(s))
	}
	assert.ErrorIs(t, ValidateJobStatus(JobStatus(0)), ErrInvalidJobStatus)
	assert.ErrorIs(t, ValidateJobStatus(JobStatus(9)), ErrInvalidJobStatus)
}
