// Copyright 2026 Halcyon Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package recall

import (
	"log/slog"
	"path/filepath"

	"github.com/halcyon-labs/recall/ai"
	"github.com/halcyon-labs/recall/ai/openai"
	"github.com/halcyon-labs/recall/index"
	"github.com/halcyon-labs/recall/keyword"
	"github.com/halcyon-labs/recall/queue"
	"github.com/halcyon-labs/recall/search"
	"github.com/halcyon-labs/recall/storage"
	"github.com/halcyon-labs/recall/storage/badger"
)

// Database bundles the stores, the keyword index, and the embedding provider
// behind one handle, with factories for the indexing and search components.
type Database struct {
	backend  *badger.Backend
	docRepo  storage.DocumentRepository
	jobRepo  storage.JobRepository
	keywords *keyword.Index
	provider ai.Provider
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	provider ai.Provider
	inMemory bool
}

// WithAIConfig overrides the embedding provider configuration.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithProvider injects a pre-built embedding provider, bypassing the
// OpenAI-compatible default. Intended for tests.
func WithProvider(provider ai.Provider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithInMemory keeps all state in memory; filePath is ignored. Intended for
// tests.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// NewDatabase opens the document store and keyword index under filePath and
// connects the embedding provider.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filepath.Join(filePath, "store"), options.inMemory)
	if err != nil {
		return nil, err
	}

	docRepo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	jobRepo, err := badger.NewJobRepository(backend)
	if err != nil {
		docRepo.Close()
		backend.Close()
		return nil, err
	}

	// The keyword index lives next to the badger store.
	keywordPath := filepath.Join(filePath, "keyword.bleve")
	if options.inMemory {
		keywordPath = ""
	}
	keywords, err := keyword.New(keywordPath)
	if err != nil {
		jobRepo.Close()
		docRepo.Close()
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			keywords.Close()
			jobRepo.Close()
			docRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	return &Database{
		backend:  backend,
		docRepo:  docRepo,
		jobRepo:  jobRepo,
		keywords: keywords,
		provider: provider,
		logger:   slog.Default(),
	}, nil
}

func (db *Database) Close() error {
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	if err := db.keywords.Close(); err != nil {
		db.logger.Error("error closing keyword index", "err", err)
		return err
	}
	if err := db.jobRepo.Close(); err != nil {
		db.logger.Error("error closing job repository", "err", err)
		return err
	}
	if err := db.docRepo.Close(); err != nil {
		db.logger.Error("error closing document repository", "err", err)
		return err
	}

	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) DocumentRepository() storage.DocumentRepository {
	return db.docRepo
}

func (db *Database) JobRepository() storage.JobRepository {
	return db.jobRepo
}

func (db *Database) KeywordIndex() *keyword.Index {
	return db.keywords
}

func (db *Database) NewOrchestrator(opts ...index.Option) (*index.Orchestrator, error) {
	return index.NewOrchestrator(db.docRepo, db.keywords, opts...)
}

func (db *Database) NewWorker(opts ...queue.WorkerOption) (*queue.Worker, error) {
	return queue.NewWorker(db.jobRepo, db.provider.Embedder(), opts...)
}

func (db *Database) NewSweeper(opts ...queue.SweeperOption) (*queue.Sweeper, error) {
	return queue.NewSweeper(db.jobRepo, opts...)
}

func (db *Database) NewSearchEngine(opts ...search.Option) (*search.Engine, error) {
	source, err := search.NewDocumentSource(db.docRepo, db.keywords)
	if err != nil {
		return nil, err
	}
	opts = append([]search.Option{search.WithSource(source)}, opts...)
	return search.NewEngine(db.provider.Embedder(), opts...)
}
