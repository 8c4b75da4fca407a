package recall

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-labs/recall/ai/mock"
	"github.com/halcyon-labs/recall/core"
	"github.com/halcyon-labs/recall/index"
	"github.com/halcyon-labs/recall/search"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase("", WithInMemory(), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDatabase(t *testing.T) {
	t.Run("create new database", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		db, err := NewDatabase(tmpDir, WithProvider(mock.NewMockProvider()))
		require.NoError(t, err)
		require.NotNil(t, db)
		defer db.Close()

		assert.NotNil(t, db.DocumentRepository())
		assert.NotNil(t, db.JobRepository())
		assert.NotNil(t, db.KeywordIndex())
		assert.NotNil(t, db.backend)
		assert.NotNil(t, db.logger)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		// A file where the store directory should go.
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		db, err := NewDatabase(tmpFile, WithProvider(mock.NewMockProvider()))
		assert.Error(t, err)
		assert.Nil(t, db)
	})
}

func TestDatabase_Close(t *testing.T) {
	db, err := NewDatabase(t.TempDir(), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	require.NotNil(t, db)

	assert.NoError(t, db.Close())
}

func TestDatabase_FactoryMethods(t *testing.T) {
	db := newTestDatabase(t)

	t.Run("can create orchestrator", func(t *testing.T) {
		orchestrator, err := db.NewOrchestrator()
		require.NoError(t, err)
		require.NotNil(t, orchestrator)
		orchestrator.Release()
	})

	t.Run("can create worker", func(t *testing.T) {
		worker, err := db.NewWorker()
		require.NoError(t, err)
		require.NotNil(t, worker)
		worker.Release()
	})

	t.Run("can create sweeper", func(t *testing.T) {
		sweeper, err := db.NewSweeper()
		require.NoError(t, err)
		require.NotNil(t, sweeper)
	})

	t.Run("can create search engine", func(t *testing.T) {
		engine, err := db.NewSearchEngine()
		require.NoError(t, err)
		require.NotNil(t, engine)
	})
}

// Index a document, let a worker embed it, then find it through both
// signals of the search engine.
func TestDatabase_IndexEmbedSearch(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	orchestrator, err := db.NewOrchestrator()
	require.NoError(t, err)
	defer orchestrator.Release()

	err = orchestrator.Reindex(ctx, index.Request{
		DocumentId: 1,
		OwnerId:    7,
		TenantId:   9,
		Title:      "deploy runbook",
		Content: "When a deploy goes wrong, roll back to the previous release first. " +
			"Investigate the failure only after traffic is healthy again. " +
			"Record every rollback in the incident channel with a timestamp.",
		Tags: []string{"ops"},
	})
	require.NoError(t, err)

	worker, err := db.NewWorker()
	require.NoError(t, err)
	defer worker.Release()

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go worker.Run(workerCtx)

	require.Eventually(t, func() bool {
		counts, err := db.JobRepository().CountByStatus(ctx)
		if err != nil {
			return false
		}
		return counts[core.JobStatusPending] == 0 && counts[core.JobStatusProcessing] == 0
	}, 5*time.Second, 10*time.Millisecond)
	cancel()

	engine, err := db.NewSearchEngine()
	require.NoError(t, err)

	results, err := engine.Search(ctx, "rollback", 7, 9, search.Options{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, core.ID(1), results[0].Id)
	assert.Equal(t, "deploy runbook", results[0].Title)
	assert.Greater(t, results[0].KeywordScore, 0.0)
}
