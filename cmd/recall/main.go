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


package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/halcyon-labs/recall"
	"github.com/halcyon-labs/recall/ai"
	"github.com/halcyon-labs/recall/core"
	"github.com/halcyon-labs/recall/index"
	"github.com/halcyon-labs/recall/queue"
	"github.com/halcyon-labs/recall/search"
)

func main() {
	app := &cli.App{
		Name:  "recall",
		Usage: "Content indexing and hybrid retrieval for user documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "index",
				Usage:  "Index or re-index a document from a file or stdin",
				Action: indexCommand,
				Flags: append(databaseFlags(),
					&cli.Uint64Flag{
						Name:     "id",
						Usage:    "Document identifier",
						Required: true,
					},
					&cli.Uint64Flag{
						Name:     "owner",
						Usage:    "Owner identifier",
						Required: true,
					},
					&cli.Uint64Flag{
						Name:     "tenant",
						Usage:    "Tenant identifier",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "title",
						Usage:    "Document title",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "file",
						Usage: "Read content from this file instead of stdin",
					},
					&cli.StringSliceFlag{
						Name:  "tag",
						Usage: "Document tag (repeatable)",
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Search indexed documents",
				Action:    searchCommand,
				ArgsUsage: "QUERY",
				Flags: append(databaseFlags(),
					&cli.Uint64Flag{
						Name:     "owner",
						Usage:    "Owner identifier",
						Required: true,
					},
					&cli.Uint64Flag{
						Name:     "tenant",
						Usage:    "Tenant identifier",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: search.DefaultLimit,
					},
					&cli.Float64Flag{
						Name:  "keyword-weight",
						Usage: "Keyword signal weight (keyword + vector must sum to 1.0)",
						Value: core.DefaultWeights().Keyword,
					},
					&cli.Float64Flag{
						Name:  "vector-weight",
						Usage: "Vector signal weight (keyword + vector must sum to 1.0)",
						Value: core.DefaultWeights().Vector,
					},
				),
			},
			{
				Name:   "worker",
				Usage:  "Run the embedding worker until interrupted",
				Action: workerCommand,
				Flags: append(databaseFlags(),
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of concurrent embedding calls",
						Value: 4,
					},
					&cli.DurationFlag{
						Name:  "poll-interval",
						Usage: "How often to poll for pending jobs when the queue is empty",
						Value: queue.DefaultPollInterval,
					},
				),
			},
			{
				Name:   "sweep",
				Usage:  "Purge dead-lettered jobs past the retention window",
				Action: sweepCommand,
				Flags: append(databaseFlags(),
					&cli.DurationFlag{
						Name:  "retention",
						Usage: "How long failed jobs are kept for inspection",
						Value: queue.DefaultRetention,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// databaseFlags are the flags shared by every command that opens the store.
func databaseFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to the database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.IntFlag{
			Name:  "embedding-dimensions",
			Usage: "Expected embedding dimensionality",
			Value: 768,
		},
	}
}

func openDatabase(c *cli.Context) (*recall.Database, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("embedding-host")),
		ai.WithModel(c.String("embedding-model")),
		ai.WithDimensions(c.Int("embedding-dimensions")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	db, err := recall.NewDatabase(c.String("db"), recall.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func indexCommand(c *cli.Context) error {
	ctx := context.Background()

	var content []byte
	var err error
	if file := c.String("file"); file != "" {
		content, err = os.ReadFile(file)
	} else {
		content, err = readAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	orchestrator, err := db.NewOrchestrator()
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}
	defer orchestrator.Release()

	err = orchestrator.Reindex(ctx, index.Request{
		DocumentId: core.ID(c.Uint64("id")),
		OwnerId:    core.ID(c.Uint64("owner")),
		TenantId:   core.ID(c.Uint64("tenant")),
		Title:      c.String("title"),
		Content:    string(content),
		Tags:       c.StringSlice("tag"),
	})
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	counts, err := db.JobRepository().CountByStatus(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Indexed document %d (%d embedding jobs pending)\n",
		c.Uint64("id"), counts[core.JobStatusPending])
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query is required")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	engine, err := db.NewSearchEngine()
	if err != nil {
		return fmt.Errorf("failed to create search engine: %w", err)
	}

	weights := core.Weights{
		Keyword: c.Float64("keyword-weight"),
		Vector:  c.Float64("vector-weight"),
	}
	results, err := engine.Search(ctx, query, core.ID(c.Uint64("owner")), core.ID(c.Uint64("tenant")), search.Options{
		Weights: &weights,
		Limit:   c.Int("limit"),
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}
	for i, r := range results {
		fmt.Printf("%2d. [%d] %s (combined=%.4f keyword=%.4f vector=%.4f)\n",
			i+1, r.Id, r.Title, r.CombinedScore, r.KeywordScore, r.VectorScore)
		if r.Excerpt != "" {
			fmt.Printf("    %s\n", firstLine(r.Excerpt))
		}
	}
	return nil
}

func workerCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	worker, err := db.NewWorker(
		queue.WithPoolSize(c.Int("pool-size")),
		queue.WithPollInterval(c.Duration("poll-interval")),
	)
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}
	defer worker.Release()

	sweeper, err := db.NewSweeper()
	if err != nil {
		return fmt.Errorf("failed to create sweeper: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sweeper.Run(ctx)

	fmt.Fprintf(os.Stderr, "Worker %s running, Ctrl-C to stop\n", worker.ID())
	return worker.Run(ctx)
}

func sweepCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	sweeper, err := db.NewSweeper(queue.WithRetention(c.Duration("retention")))
	if err != nil {
		return fmt.Errorf("failed to create sweeper: %w", err)
	}

	purged, err := sweeper.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Purged %d failed jobs older than %s\n", purged, c.Duration("retention"))
	return nil
}

func readAll(f *os.File) ([]byte, error) {
	info, err := f.Stat()
	if err == nil && info.Mode()&os.ModeCharDevice != 0 {
		return nil, fmt.Errorf("no input on stdin (use --file)")
	}
	return io.ReadAll(f)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	const max = 160
	if len(s) > max {
		s = s[:max] + "..."
	}
	return s
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
