package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bitewise/orderflow/internal/api"
	"github.com/bitewise/orderflow/internal/catalog"
	"github.com/bitewise/orderflow/internal/engine"
	"github.com/bitewise/orderflow/internal/genai"
	"github.com/bitewise/orderflow/internal/models"
	"github.com/bitewise/orderflow/internal/nlu"
	"github.com/bitewise/orderflow/internal/store"
	"github.com/bitewise/orderflow/internal/util"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for orderflow state data
	DefaultStateDir = "/var/lib/orderflow"
	// DefaultCatalogDBFileName is the default SQLite catalog database filename
	DefaultCatalogDBFileName = "catalog.db"
	// DefaultOrdersDBFileName is the default SQLite orders database filename
	DefaultOrdersDBFileName = "orders.db"
	// DefaultAPIAddr is the default listen address for the HTTP API
	DefaultAPIAddr = ":8080"
)

// Config holds environment configuration
type Config struct {
	DatabaseURL string
	StateDir    string
	OpenAIKey   string
	APIAddr     string
	SeedCatalog bool
}

func main() {
	initializeLogger()
	config := loadEnvironmentConfig()

	dbDSN := flag.String("db-dsn", config.DatabaseURL, "database DSN; a postgres:// URL selects PostgreSQL, anything else is an SQLite file path")
	stateDir := flag.String("state-dir", config.StateDir, "directory for SQLite database files")
	apiAddr := flag.String("api-addr", config.APIAddr, "HTTP API listen address")
	openaiKey := flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key for the NLU fallback (optional)")
	seed := flag.Bool("seed-catalog", config.SeedCatalog, "seed fixture catalog data into an empty database")
	flag.Parse()

	cat, st, err := openBackends(*dbDSN, *stateDir, *seed)
	if err != nil {
		slog.Error("Failed to open storage backends", "error", err)
		os.Exit(1)
	}

	items, err := cat.Items()
	if err != nil {
		slog.Error("Failed to list catalog items", "error", err)
		os.Exit(1)
	}

	provider := buildNLUProvider(items, *openaiKey)

	eng, err := engine.New(cat, provider)
	if err != nil {
		slog.Error("Failed to build engine", "error", err)
		os.Exit(1)
	}

	slog.Info("Bootstrapping orderflow", "api_addr", *apiAddr, "catalog_items", len(items))
	if err := api.NewServer(eng, st).Run(*apiAddr); err != nil {
		slog.Error("orderflow failed to run", "error", err)
		os.Exit(1)
	}
}

// initializeLogger sets up structured logging
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("ORDERFLOW_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}
	return Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StateDir:    util.GetEnvOrDefault("ORDERFLOW_STATE_DIR", DefaultStateDir),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		APIAddr:     util.GetEnvOrDefault("API_ADDR", DefaultAPIAddr),
		SeedCatalog: util.ParseBoolEnv("ORDERFLOW_SEED_CATALOG", true),
	}
}

// openBackends opens the catalog and order store over PostgreSQL when the DSN
// is a postgres URL, and SQLite files under the state directory otherwise.
func openBackends(dsn, stateDir string, seed bool) (catalog.Catalog, store.Store, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		slog.Debug("Using PostgreSQL backends")
		catOpts := []catalog.Option{catalog.WithDSN(dsn)}
		if seed {
			catOpts = append(catOpts, catalog.WithSeed())
		}
		cat, err := catalog.OpenPostgres(catOpts...)
		if err != nil {
			return nil, nil, err
		}
		st, err := store.NewPostgresStore(store.WithDSN(dsn))
		if err != nil {
			return nil, nil, err
		}
		return cat, st, nil
	}

	catalogDSN := dsn
	if catalogDSN == "" {
		catalogDSN = filepath.Join(stateDir, DefaultCatalogDBFileName)
	}
	slog.Debug("Using SQLite backends", "catalog_dsn", catalogDSN)
	catOpts := []catalog.Option{catalog.WithDSN(catalogDSN)}
	if seed {
		catOpts = append(catOpts, catalog.WithSeed())
	}
	cat, err := catalog.OpenSQLite(catOpts...)
	if err != nil {
		return nil, nil, err
	}
	st, err := store.NewSQLiteStore(store.WithDSN(filepath.Join(stateDir, DefaultOrdersDBFileName)))
	if err != nil {
		return nil, nil, err
	}
	return cat, st, nil
}

// buildNLUProvider chains the deterministic extractor with the generative
// fallback when an OpenAI key is available.
func buildNLUProvider(items []models.CatalogItem, openaiKey string) nlu.Provider {
	det := nlu.NewDeterministic(items)
	if openaiKey == "" {
		slog.Info("No OpenAI API key configured; using deterministic extraction only")
		return det
	}
	client, err := genai.NewClient(genai.WithAPIKey(openaiKey))
	if err != nil {
		slog.Warn("GenAI client unavailable; using deterministic extraction only", "error", err)
		return det
	}
	return nlu.NewChain(det, nlu.NewGenAI(client, items))
}
