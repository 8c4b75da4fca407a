package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-labs/recall/ai/mock"
	"github.com/halcyon-labs/recall/core"
)

// fakeSource serves canned candidates so merge behavior can be tested in
// isolation from the storage and keyword layers.
type fakeSource struct {
	kind       core.EntityKind
	keyword    []*Candidate
	vector     []*Candidate
	keywordErr error
	vectorErr  error
}

func (s *fakeSource) Kind() core.EntityKind {
	return s.kind
}

func (s *fakeSource) Keyword(_ context.Context, _ SourceQuery) ([]*Candidate, error) {
	if s.keywordErr != nil {
		return nil, s.keywordErr
	}
	return s.keyword, nil
}

func (s *fakeSource) Vector(_ context.Context, _ SourceQuery, _ []float32) ([]*Candidate, error) {
	if s.vectorErr != nil {
		return nil, s.vectorErr
	}
	return s.vector, nil
}

func newTestEngine(t *testing.T, source Source, opts ...Option) *Engine {
	t.Helper()

	opts = append([]Option{WithSource(source)}, opts...)
	engine, err := NewEngine(mock.NewMockEmbedder(), opts...)
	require.NoError(t, err)
	return engine
}

func TestNewEngine_RequiresDependencies(t *testing.T) {
	t.Parallel()

	_, err := NewEngine(nil, WithSource(&fakeSource{kind: core.EntityKindDocument}))
	require.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewEngine(mock.NewMockEmbedder())
	require.ErrorIs(t, err, ErrNoSources)

	_, err = NewEngine(mock.NewMockEmbedder(),
		WithSource(&fakeSource{kind: core.EntityKindDocument}),
		WithWeights(core.Weights{Keyword: 0.9, Vector: 0.9}),
	)
	require.ErrorIs(t, err, core.ErrInvalidWeights)
}

func TestSearch_RejectsEmptyQuery(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, &fakeSource{kind: core.EntityKindDocument})

	_, err := engine.Search(context.Background(), "   \t\n", 1, 1, Options{})
	require.ErrorIs(t, err, core.ErrEmptyQuery)
}

func TestSearch_RejectsInvalidWeights(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, &fakeSource{kind: core.EntityKindDocument})

	_, err := engine.Search(context.Background(), "query", 1, 1, Options{
		Weights: &core.Weights{Keyword: 0.7, Vector: 0.7},
	})
	require.ErrorIs(t, err, core.ErrInvalidWeights)
}

// A raw keyword score well above 1.0 weighted at 0.4 still outranks a
// near-perfect similarity weighted at 0.6. Raw keyword scores are not
// normalized before mixing, on purpose.
func TestSearch_MergeArithmetic(t *testing.T) {
	t.Parallel()

	source := &fakeSource{
		kind:    core.EntityKindDocument,
		keyword: []*Candidate{{Id: 1, Title: "doc A", Score: 5.0}},
		vector:  []*Candidate{{Id: 2, Title: "doc B", Score: 0.9, Excerpt: "excerpt B"}},
	}
	engine := newTestEngine(t, source, WithWeights(core.Weights{Keyword: 0.4, Vector: 0.6}))

	results, err := engine.Search(context.Background(), "query", 1, 1, Options{})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, core.ID(1), results[0].Id)
	assert.InDelta(t, 2.0, results[0].CombinedScore, 1e-9)
	assert.InDelta(t, 5.0, results[0].KeywordScore, 1e-9)
	assert.Zero(t, results[0].VectorScore)

	assert.Equal(t, core.ID(2), results[1].Id)
	assert.InDelta(t, 0.54, results[1].CombinedScore, 1e-9)
	assert.Zero(t, results[1].KeywordScore)
	assert.InDelta(t, 0.9, results[1].VectorScore, 1e-9)
	assert.Equal(t, "excerpt B", results[1].Excerpt)
}

func TestSearch_MergesBothSignalsPerEntity(t *testing.T) {
	t.Parallel()

	source := &fakeSource{
		kind:    core.EntityKindDocument,
		keyword: []*Candidate{{Id: 7, Title: "hybrid doc", Score: 1.5}},
		vector:  []*Candidate{{Id: 7, Score: 0.8, Excerpt: "best chunk"}},
	}
	engine := newTestEngine(t, source, WithWeights(core.Weights{Keyword: 0.4, Vector: 0.6}))

	results, err := engine.Search(context.Background(), "query", 1, 1, Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)

	result := results[0]
	assert.Equal(t, core.ID(7), result.Id)
	assert.Equal(t, "hybrid doc", result.Title)
	assert.InDelta(t, 1.5, result.KeywordScore, 1e-9)
	assert.InDelta(t, 0.8, result.VectorScore, 1e-9)
	assert.InDelta(t, 1.5*0.4+0.8*0.6, result.CombinedScore, 1e-9)
	assert.Equal(t, "best chunk", result.Excerpt)
}

func TestSearch_DegradesToKeywordOnlyOnEmbedderFailure(t *testing.T) {
	t.Parallel()

	source := &fakeSource{
		kind:      core.EntityKindDocument,
		keyword:   []*Candidate{{Id: 1, Title: "doc A", Score: 2.0}},
		vectorErr: errors.New("vector pass must not run"),
	}
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(_ context.Context, _ string) ([]float32, error) {
		return nil, errors.New("provider down")
	}
	engine, err := NewEngine(embedder, WithSource(source))
	require.NoError(t, err)

	results, err := engine.Search(context.Background(), "query", 1, 1, Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, core.ID(1), results[0].Id)
	assert.Zero(t, results[0].VectorScore)
	assert.InDelta(t, 2.0*0.4, results[0].CombinedScore, 1e-9)
}

func TestSearch_SourceErrorsPropagate(t *testing.T) {
	t.Parallel()

	boom := errors.New("index unavailable")

	engine := newTestEngine(t, &fakeSource{kind: core.EntityKindDocument, keywordErr: boom})
	_, err := engine.Search(context.Background(), "query", 1, 1, Options{})
	require.ErrorIs(t, err, boom)

	engine = newTestEngine(t, &fakeSource{kind: core.EntityKindDocument, vectorErr: boom})
	_, err = engine.Search(context.Background(), "query", 1, 1, Options{})
	require.ErrorIs(t, err, boom)
}

func TestSearch_NoMatchesReturnsEmptySlice(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, &fakeSource{kind: core.EntityKindDocument})

	results, err := engine.Search(context.Background(), "nothing here", 1, 1, Options{})
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestSearch_TruncatesToLimit(t *testing.T) {
	t.Parallel()

	source := &fakeSource{
		kind: core.EntityKindDocument,
		keyword: []*Candidate{
			{Id: 1, Score: 3.0},
			{Id: 2, Score: 2.0},
			{Id: 3, Score: 1.0},
		},
	}
	engine := newTestEngine(t, source)

	results, err := engine.Search(context.Background(), "query", 1, 1, Options{Limit: 2})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, core.ID(1), results[0].Id)
	assert.Equal(t, core.ID(2), results[1].Id)
}

func TestSearch_SortsCombinedDescending(t *testing.T) {
	t.Parallel()

	source := &fakeSource{
		kind:    core.EntityKindDocument,
		keyword: []*Candidate{{Id: 1, Score: 0.5}},
		vector:  []*Candidate{{Id: 2, Score: 0.95}},
	}
	engine := newTestEngine(t, source, WithWeights(core.Weights{Keyword: 0.4, Vector: 0.6}))

	results, err := engine.Search(context.Background(), "query", 1, 1, Options{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	// 0.95*0.6 = 0.57 beats 0.5*0.4 = 0.20.
	assert.Equal(t, core.ID(2), results[0].Id)
	assert.Equal(t, core.ID(1), results[1].Id)
}

// recordingMonitor captures the hook sequence for assertions.
type recordingMonitor struct {
	started       bool
	embedFailed   bool
	keywordPasses int
	vectorPasses  int
	finished      []*core.SearchResult
}

func (m *recordingMonitor) Start(_ string)               { m.started = true }
func (m *recordingMonitor) QueryEmbeddingFailed(_ error) { m.embedFailed = true }
func (m *recordingMonitor) AfterKeywordPass(_ core.EntityKind, _ []*Candidate) {
	m.keywordPasses++
}
func (m *recordingMonitor) AfterVectorPass(_ core.EntityKind, _ []*Candidate) {
	m.vectorPasses++
}
func (m *recordingMonitor) Finish(results []*core.SearchResult) { m.finished = results }

func TestSearch_MonitorObservesPasses(t *testing.T) {
	t.Parallel()

	source := &fakeSource{
		kind:    core.EntityKindDocument,
		keyword: []*Candidate{{Id: 1, Score: 1.0}},
	}
	engine := newTestEngine(t, source)

	monitor := &recordingMonitor{}
	results, err := engine.Search(context.Background(), "query", 1, 1, Options{Monitor: monitor})
	require.NoError(t, err)

	assert.True(t, monitor.started)
	assert.False(t, monitor.embedFailed)
	assert.Equal(t, 1, monitor.keywordPasses)
	assert.Equal(t, 1, monitor.vectorPasses)
	assert.Equal(t, results, monitor.finished)
}

func TestSearch_MonitorSeesEmbeddingFailure(t *testing.T) {
	t.Parallel()

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(_ context.Context, _ string) ([]float32, error) {
		return nil, errors.New("provider down")
	}
	engine, err := NewEngine(embedder,
		WithSource(&fakeSource{kind: core.EntityKindDocument}),
		WithQueryEmbedTimeout(time.Second),
	)
	require.NoError(t, err)

	monitor := &recordingMonitor{}
	_, err = engine.Search(context.Background(), "query", 1, 1, Options{Monitor: monitor})
	require.NoError(t, err)
	assert.True(t, monitor.embedFailed)
	assert.Zero(t, monitor.vectorPasses)
}
