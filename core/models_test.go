package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDFromContent(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		id1 := IDFromContent("hello world")
		id2 := IDFromContent("hello world")
		assert.Equal(t, id1, id2, "identical content must produce identical IDs")
	})

	t.Run("different content different IDs", func(t *testing.T) {
		id1 := IDFromContent("hello world")
		id2 := IDFromContent("hello world!")
		assert.NotEqual(t, id1, id2)
	})

	t.Run("empty content", func(t *testing.T) {
		id := IDFromContent("")
		assert.Equal(t, id, IDFromContent(""))
	})
}

func TestDocumentHasTag(t *testing.T) {
	doc := &Document{Tags: []string{"Research", "go-notes"}}

	assert.True(t, doc.HasTag("research"))
	assert.True(t, doc.HasTag("RESEARCH"))
	assert.True(t, doc.HasTag("go-notes"))
	assert.False(t, doc.HasTag("notes"))
	assert.False(t, doc.HasTag(""))

	unicode := &Document{Tags: []string{"Çalışma"}}
	assert.True(t, unicode.HasTag("çalışma"))

	empty := &Document{}
	assert.False(t, empty.HasTag("research"))
}

func TestJobStatusTerminal(t *testing.T) {
	assert.False(t, JobStatusPending.Terminal())
	assert.False(t, JobStatusProcessing.Terminal())
	assert.True(t, JobStatusCompleted.Terminal())
	assert.True(t, JobStatusFailed.Terminal())
}

func TestJobStatusString(t *testing.T) {
	assert.Equal(t, "PENDING", JobStatusPending.String())
	assert.Equal(t, "PROCESSING", JobStatusProcessing.String())
	assert.Equal(t, "COMPLETED", JobStatusCompleted.String())
	assert.Equal(t, "FAILED", JobStatusFailed.String())
	assert.Equal(t, "UNKNOWN", JobStatus(42).String())
}

func TestWeightsValidate(t *testing.T) {
	tests := []struct {
		name    string
		weights Weights
		wantErr bool
	}{
		{"standard split", Weights{Keyword: 0.4, Vector: 0.6}, false},
		{"keyword only", Weights{Keyword: 1.0, Vector: 0.0}, false},
		{"vector only", Weights{Keyword: 0.0, Vector: 1.0}, false},
		{"within tolerance high", Weights{Keyword: 0.4005, Vector: 0.6}, false},
		{"within tolerance low", Weights{Keyword: 0.3995, Vector: 0.6}, false},
		{"sum too high", Weights{Keyword: 0.5, Vector: 0.6}, true},
		{"sum too low", Weights{Keyword: 0.2, Vector: 0.6}, true},
		{"zero weights", Weights{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.weights.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidWeights)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestDefaultWeights(t *testing.T) {
	require.NoError(t, DefaultWeights().Validate())
}
