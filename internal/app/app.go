// -----------------------------------------------------------------------
// Application wiring - builds the answer pipeline in dependency order
// -----------------------------------------------------------------------

package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/responsum/internal/common"
	"github.com/ternarybob/responsum/internal/interfaces"
	"github.com/ternarybob/responsum/internal/models"
	"github.com/ternarybob/responsum/internal/services/answer"
	"github.com/ternarybob/responsum/internal/services/chunker"
	"github.com/ternarybob/responsum/internal/services/documents"
	"github.com/ternarybob/responsum/internal/services/embeddings"
	"github.com/ternarybob/responsum/internal/services/evaluation"
	"github.com/ternarybob/responsum/internal/services/index"
	"github.com/ternarybob/responsum/internal/services/llm"
	"github.com/ternarybob/responsum/internal/services/retrieval"
	"github.com/ternarybob/responsum/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Storage layer
	StorageManager interfaces.StorageManager

	// Services
	DocumentService   interfaces.DocumentService
	ChunkerService    interfaces.ChunkerService
	EmbeddingService  interfaces.EmbeddingService
	VectorIndex       interfaces.VectorIndex
	RetrievalService  interfaces.RetrievalService
	LLMService        interfaces.LLMService
	AnswerService     interfaces.AnswerService
	EvaluationService interfaces.EvaluationService
}

// New initializes the application with all dependencies.
//
// Startup order matters: storage first so the .env file lands in the KV
// store, then {key-name} config replacement, then validation, then the
// services. Configuration problems abort here, before any external
// service is called.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Second replacement pass now that .env keys are loaded
	if err := common.ApplyKeyReplacements(cfg, app.StorageManager.KeyValueStorage()); err != nil {
		logger.Warn().Err(err).Msg("Failed to replace key references in config")
	}

	if err := cfg.Validate(); err != nil {
		app.Close()
		return nil, err
	}

	if err := app.initServices(); err != nil {
		app.Close()
		return nil, err
	}

	logger.Info().
		Str("index_provider", app.VectorIndex.Provider()).
		Str("embedding_model", cfg.Embedding.Model).
		Str("generation_model", cfg.GenerationModel()).
		Msg("Application initialized")

	return app, nil
}

// initStorage opens the Badger store and seeds the KV store from the
// configured .env file when one exists.
func (a *App) initStorage() error {
	manager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return err
	}
	a.StorageManager = manager

	if a.Config.EnvFile != "" {
		if _, err := os.Stat(a.Config.EnvFile); err == nil {
			if err := manager.LoadEnvFile(context.Background(), a.Config.EnvFile); err != nil {
				a.Logger.Warn().Str("path", a.Config.EnvFile).Err(err).Msg("Failed to load .env file")
			}
		}
	}

	return nil
}

// initServices builds the pipeline services in dependency order:
// documents and chunker are leaf services; embeddings and the LLM share
// the provider factory; the index backs retrieval; answer and evaluation
// sit on top.
func (a *App) initServices() error {
	kvStorage := a.StorageManager.KeyValueStorage()

	a.DocumentService = documents.NewService(&a.Config.Documents, a.Logger)
	a.ChunkerService = chunker.NewService(&a.Config.Chunking, a.Logger)

	factory := llm.NewProviderFactory(&a.Config.Gemini, &a.Config.Claude, &a.Config.LLM, kvStorage, a.Logger)

	embeddingService, err := embeddings.NewService(a.Config, factory, a.Logger)
	if err != nil {
		return err
	}
	a.EmbeddingService = embeddingService

	vectorIndex, err := index.NewVectorIndex(a.Config, a.StorageManager.VectorStorage(), kvStorage, a.Logger)
	if err != nil {
		return err
	}
	a.VectorIndex = vectorIndex

	llmService, err := llm.NewService(a.Config, factory, a.Logger)
	if err != nil {
		return err
	}
	a.LLMService = llmService

	a.RetrievalService = retrieval.NewService(a.Config, a.EmbeddingService, a.VectorIndex, a.Logger)
	a.AnswerService = answer.NewService(a.Config, a.RetrievalService, a.LLMService, a.Logger)
	a.EvaluationService = evaluation.NewService(a.Config, a.AnswerService, a.StorageManager.ReportStorage(), llmService.Model(), a.Logger)

	return nil
}

// Ingest loads every supported document in dir, chunks and embeds them,
// and upserts the vectors into the index. Failures are collected per
// document; one bad file or one failed embedding batch never aborts the
// rest of the corpus. Chunk IDs derive from document identity and
// offset, so re-running ingest overwrites rather than duplicates.
func (a *App) Ingest(ctx context.Context, dir string) (*models.IngestStats, error) {
	if dir == "" {
		dir = a.Config.Documents.Dir
	}

	if err := a.VectorIndex.Ready(ctx); err != nil {
		return nil, fmt.Errorf("vector index not ready: %w", err)
	}

	stats := &models.IngestStats{StartedAt: time.Now()}

	docs, failures, err := a.DocumentService.LoadDirectory(ctx, dir)
	if err != nil {
		return nil, err
	}
	stats.Failures = failures

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		chunks := a.ChunkerService.Split(doc)
		if len(chunks) == 0 {
			continue
		}

		embedded, err := a.EmbeddingService.EmbedChunks(ctx, chunks)
		if err != nil {
			a.Logger.Warn().Str("path", doc.SourcePath).Err(err).Msg("Failed to embed document, continuing")
			stats.Failures = append(stats.Failures, models.IngestFailure{Path: doc.SourcePath, Reason: err.Error()})
			continue
		}

		written, err := a.VectorIndex.Upsert(ctx, embedded)
		if err != nil {
			a.Logger.Warn().Str("path", doc.SourcePath).Err(err).Msg("Failed to upsert document vectors, continuing")
			stats.Failures = append(stats.Failures, models.IngestFailure{Path: doc.SourcePath, Reason: err.Error()})
			continue
		}

		stats.Documents++
		stats.Chunks += len(chunks)
		stats.Upserted += written

		a.Logger.Info().
			Str("document_id", doc.ID).
			Str("path", doc.SourcePath).
			Int("chunks", len(chunks)).
			Msg("Ingested document")
	}

	stats.DurationMillis = time.Since(stats.StartedAt).Milliseconds()

	a.Logger.Info().
		Int("documents", stats.Documents).
		Int("chunks", stats.Chunks).
		Int("upserted", stats.Upserted).
		Int("failed", len(stats.Failures)).
		Int64("duration_ms", stats.DurationMillis).
		Msg("Ingest completed")

	return stats, nil
}

// Close closes all application resources
func (a *App) Close() error {
	a.Logger.Info().Msg("Shutting down application")

	var firstErr error

	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing LLM service")
			firstErr = err
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing storage manager")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}
