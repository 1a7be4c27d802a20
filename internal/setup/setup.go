// Package setup builds the shared runtime components of the lexgraph
// binaries from environment variables.
package setup

import (
	"context"
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/lexgraph/internal/util"
	"github.com/OFFIS-RIT/lexgraph/pkg/ai"
	oai "github.com/OFFIS-RIT/lexgraph/pkg/ai/ollama"
	gai "github.com/OFFIS-RIT/lexgraph/pkg/ai/openai"
	"github.com/OFFIS-RIT/lexgraph/pkg/annotate"
	"github.com/OFFIS-RIT/lexgraph/pkg/extract"
	"github.com/OFFIS-RIT/lexgraph/pkg/graph"
	"github.com/OFFIS-RIT/lexgraph/pkg/leaselock"
	"github.com/OFFIS-RIT/lexgraph/pkg/logger"
	"github.com/OFFIS-RIT/lexgraph/pkg/logger/console"
	"github.com/OFFIS-RIT/lexgraph/pkg/logger/file"
	"github.com/OFFIS-RIT/lexgraph/pkg/merge"
	"github.com/OFFIS-RIT/lexgraph/pkg/store"
	"github.com/OFFIS-RIT/lexgraph/pkg/store/memory"
	"github.com/OFFIS-RIT/lexgraph/pkg/store/neo4j"
	"github.com/OFFIS-RIT/lexgraph/pkg/store/pgx"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Backends selectable with GRAPH_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendNeo4j    = "neo4j"
	BackendMemory   = "memory"
)

// InitLogger registers the console logger and, when LOG_FILE is set, a
// rotating file logger.
func InitLogger(prefix string) {
	debug := util.GetEnvBool("DEBUG", false)
	instances := []logger.LoggerInstance{
		console.NewConsoleLogger(console.ConsoleLoggerParams{
			Debug:  debug,
			Prefix: prefix,
			JSON:   util.GetEnvBool("LOG_JSON", false),
		}),
	}
	if path := util.GetEnv("LOG_FILE"); path != "" {
		instances = append(instances, file.NewFileLogger(file.FileLoggerParams{
			Path:       path,
			MaxSize:    util.GetEnvInt("LOG_FILE_MAX_MB", 50),
			MaxBackups: util.GetEnvInt("LOG_FILE_BACKUPS", 5),
			MaxAge:     util.GetEnvInt("LOG_FILE_MAX_AGE_DAYS", 30),
			Debug:      debug,
		}))
	}
	logger.Init(instances...)
}

// NewAIClient creates the completion client selected by AI_ADAPTER
// ("openai" or "ollama") for apiURL and apiKey. Empty values fall back to
// AI_CHAT_URL and AI_CHAT_KEY.
func NewAIClient(apiURL, apiKey string) (ai.GraphAIClient, error) {
	if apiURL == "" {
		apiURL = util.GetEnv("AI_CHAT_URL")
	}
	if apiKey == "" {
		apiKey = util.GetEnv("AI_CHAT_KEY")
	}
	model := util.GetEnv("AI_CHAT_MODEL")
	parallel := int64(util.GetEnvInt("AI_PARALLEL_REQ", 15))

	switch strings.ToLower(util.GetEnvString("AI_ADAPTER", "openai")) {
	case "ollama":
		client, err := oai.NewGraphOllamaClient(oai.NewGraphOllamaClientParams{
			ExtractionModel:       model,
			BaseURL:               apiURL,
			ApiKey:                apiKey,
			MaxConcurrentRequests: parallel,
		})
		if err != nil {
			return nil, fmt.Errorf("could not create Ollama client: %w", err)
		}
		return client, nil
	case "openai":
		return gai.NewGraphOpenAIClient(gai.NewGraphOpenAIClientParams{
			ExtractionModel: model,
			ChatURL:         apiURL,
			ChatKey:         apiKey,
		}), nil
	default:
		return nil, fmt.Errorf("unknown AI_ADAPTER %q", util.GetEnv("AI_ADAPTER"))
	}
}

// NewEngine creates the annotation engine on top of NewAIClient.
func NewEngine() (*annotate.Engine, ai.GraphAIClient, error) {
	client, err := NewAIClient("", "")
	if err != nil {
		return nil, nil, err
	}
	engine := annotate.New(annotate.EngineParams{
		Client:            client,
		NewClient:         NewAIClient,
		RequestsPerMinute: util.GetEnvInt("AI_REQUESTS_PER_MINUTE", 0),
		Encoding:          util.GetEnvString("AI_TOKEN_ENCODING", annotate.DefaultEncoding),
	})
	return engine, client, nil
}

// Backend is an opened graph store. Pool is set whenever a Postgres
// connection is available, which also enables database backed leases.
type Backend struct {
	Store store.Store
	Pool  *pgxpool.Pool
}

func (b *Backend) Close(ctx context.Context) {
	if err := b.Store.Close(ctx); err != nil {
		logger.Warn("Failed to close graph store", "err", err)
	}
	if b.Pool != nil {
		b.Pool.Close()
	}
}

// Locker returns a lease lock on Pool, or an in-process lock without one.
func (b *Backend) Locker() leaselock.Locker {
	if b.Pool != nil {
		return leaselock.New(b.Pool)
	}
	return leaselock.NewLocal()
}

// OpenBackend opens the store selected by GRAPH_BACKEND. Postgres
// migrations run first unless DB_MIGRATE is false.
func OpenBackend(ctx context.Context) (*Backend, error) {
	backend := strings.ToLower(util.GetEnvString("GRAPH_BACKEND", BackendPostgres))
	dbURL := util.GetEnv("DATABASE_URL")

	var pool *pgxpool.Pool
	if dbURL != "" && backend != BackendMemory {
		if util.GetEnvBool("DB_MIGRATE", true) {
			if err := pgx.Migrate(dbURL); err != nil {
				return nil, err
			}
		}
		p, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			return nil, fmt.Errorf("unable to connect to database: %w", err)
		}
		pool = p
	}

	switch backend {
	case BackendPostgres:
		if pool == nil {
			return nil, fmt.Errorf("GRAPH_BACKEND=postgres needs DATABASE_URL")
		}
		return &Backend{Store: pgx.NewGraphDBStorageWithConnection(pool), Pool: pool}, nil
	case BackendNeo4j:
		s, err := neo4j.Open(ctx, neo4j.Config{
			URI:      util.GetEnvString("NEO4J_URI", "neo4j://localhost:7687"),
			Username: util.GetEnvString("NEO4J_USERNAME", "neo4j"),
			Password: util.GetEnv("NEO4J_PASSWORD"),
			Database: util.GetEnv("NEO4J_DATABASE"),
		})
		if err != nil {
			if pool != nil {
				pool.Close()
			}
			return nil, err
		}
		return &Backend{Store: s, Pool: pool}, nil
	case BackendMemory:
		return &Backend{Store: memory.New()}, nil
	}

	if pool != nil {
		pool.Close()
	}
	return nil, fmt.Errorf("unknown GRAPH_BACKEND %q", backend)
}

// GraphClientParams select the optional parts of NewGraphClient.
type GraphClientParams struct {
	// WithEngine creates the annotation engine. Without it only pre-built
	// graphs and outlines without file lists can be merged.
	WithEngine bool
}

// NewGraphClient wires the engine, merge model and locker of b.
func NewGraphClient(b *Backend, params GraphClientParams) (*graph.GraphClient, ai.GraphAIClient, error) {
	var (
		engine   extract.Engine
		aiClient ai.GraphAIClient
	)
	if params.WithEngine {
		e, c, err := NewEngine()
		if err != nil {
			return nil, nil, err
		}
		engine, aiClient = e, c
	}

	client, err := graph.NewGraphClient(graph.NewGraphClientParams{
		Engine: engine,
		Retry: extract.ExtractorParams{
			MaxRetries:     util.GetEnvInt("EXTRACT_MAX_RETRIES", extract.DefaultMaxRetries),
			BaseDelay:      util.GetEnvDuration("EXTRACT_BASE_DELAY", extract.DefaultBaseDelay),
			RateLimitDelay: util.GetEnvDuration("EXTRACT_RATE_LIMIT_DELAY", extract.DefaultRateLimitDelay),
		},
		Model:         merge.New(b.Store),
		Locker:        b.Locker(),
		ParallelFiles: util.GetEnvInt("WORKER_PARALLEL_FILES", 1),
		LeaseTTL:      util.GetEnvDuration("MERGE_LEASE_TTL", 0),
	})
	if err != nil {
		return nil, nil, err
	}
	return client, aiClient, nil
}
