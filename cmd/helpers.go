package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/ziadkadry99/studyaid/internal/auth"
	"github.com/ziadkadry99/studyaid/internal/config"
	"github.com/ziadkadry99/studyaid/internal/db"
	"github.com/ziadkadry99/studyaid/internal/embeddings"
	"github.com/ziadkadry99/studyaid/internal/llm"
	"github.com/ziadkadry99/studyaid/internal/logging"
	"github.com/ziadkadry99/studyaid/internal/materials"
	"github.com/ziadkadry99/studyaid/internal/study"
	"github.com/ziadkadry99/studyaid/internal/vectordb"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `studyaid init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// setupLogger builds the process logger; --verbose forces debug level.
func setupLogger(cfg *config.Config) (zerolog.Logger, func(), error) {
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	return logging.New(level, cfg.LogFile)
}

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}
	model := cfg.EmbeddingModel
	if model == "" {
		model = config.GetPreset(provider).EmbeddingModel
	}
	return embeddings.NewEmbedder(string(provider), model)
}

// createAnalyzerFromConfig creates the rate-limited LLM provider and the
// analyzer on top of it.
func createAnalyzerFromConfig(cfg *config.Config, log zerolog.Logger) (*study.Analyzer, error) {
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, err
	}
	provider = llm.NewRateLimitedProvider(provider, cfg.RequestsPerMinute)
	return study.NewAnalyzer(provider, cfg.Model, log), nil
}

// app holds the stores shared by the commands that touch study data.
type app struct {
	cfg       *config.Config
	log       zerolog.Logger
	db        *db.DB
	users     *auth.Store
	materials *materials.Store
	vectors   vectordb.VectorStore // nil when no embedder is available
	index     *materials.Index     // nil when no embedder is available
	vectorDir string
}

// openApp opens the database and, if an embedder can be created, the
// vector index persisted under the data directory.
func openApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	database, err := db.Open(filepath.Join(cfg.DataDir, "studyaid.db"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	a := &app{
		cfg:       cfg,
		log:       log,
		db:        database,
		users:     auth.NewStore(database),
		materials: materials.NewStore(database),
		vectorDir: filepath.Join(cfg.DataDir, "vectors"),
	}

	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("semantic search disabled")
		return a, nil
	}
	store, err := vectordb.NewChromemStore(embedder)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("creating vector store: %w", err)
	}
	if err := store.Load(ctx, a.vectorDir); err != nil {
		log.Debug().Err(err).Str("dir", a.vectorDir).Msg("no vector index loaded")
	}
	a.vectors = store
	a.index = materials.NewIndex(store, a.materials, log)
	return a, nil
}

// persistVectors writes the vector index back to the data directory.
func (a *app) persistVectors(ctx context.Context) {
	if a.vectors == nil {
		return
	}
	if err := os.MkdirAll(a.vectorDir, 0o755); err != nil {
		a.log.Error().Err(err).Msg("creating vector dir")
		return
	}
	if err := a.vectors.Persist(ctx, a.vectorDir); err != nil {
		a.log.Error().Err(err).Msg("persisting vector index")
		return
	}
	a.log.Debug().Int("documents", a.vectors.Count()).Msg("vector index persisted")
}

// userByEmail resolves the --user flag of the data commands.
func (a *app) userByEmail(ctx context.Context, email string) (*auth.User, error) {
	if email == "" {
		return nil, fmt.Errorf("--user is required")
	}
	u, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("no user with email %q; sign in to the web app once first", email)
	}
	return u, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
