// Package cli implements the htsclass command-line interface. Commands
// are thin: they parse flags, call the driving ports and format output.
// All wiring of adapters to services happens in ensureServices.
package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/clearfreight-labs/htsclass/internal/adapters/driven/catalog/jsonfile"
	configfile "github.com/clearfreight-labs/htsclass/internal/adapters/driven/config/file"
	ollamaembed "github.com/clearfreight-labs/htsclass/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/clearfreight-labs/htsclass/internal/adapters/driven/embedding/openai"
	"github.com/clearfreight-labs/htsclass/internal/adapters/driven/storage/memory"
	"github.com/clearfreight-labs/htsclass/internal/adapters/driven/storage/sqlite"
	openaivalidate "github.com/clearfreight-labs/htsclass/internal/adapters/driven/validation/openai"
	"github.com/clearfreight-labs/htsclass/internal/adapters/driven/vector/flat"
	"github.com/clearfreight-labs/htsclass/internal/core/domain"
	"github.com/clearfreight-labs/htsclass/internal/core/ports/driven"
	"github.com/clearfreight-labs/htsclass/internal/core/ports/driving"
	"github.com/clearfreight-labs/htsclass/internal/core/services"
	"github.com/clearfreight-labs/htsclass/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Wired services, shared by the command RunE funcs.
var (
	configStore       driven.ConfigStore
	classifierService driving.Classifier
	catalogIndex      *services.CatalogIndex
	embeddingProvider driven.EmbeddingService
	metaStore         *sqlite.Store
)

var (
	flagVerbose   bool
	flagConfigDir string
)

var rootCmd = &cobra.Command{
	Use:   "htsclass",
	Short: "Semantic HTS classification with feedback-based learning",
	Long: `htsclass classifies free-text product descriptions into Harmonized
Tariff Schedule (HTS) codes using embedding similarity, calibrated
confidence scoring and learning from user corrections.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "config directory (default ~/.htsclass)")
}

// Execute runs the root command.
func Execute() error {
	defer closeServices()
	return rootCmd.Execute()
}

// ensureServices wires adapters to services on first use. Commands that
// need the classification engine call this from their RunE.
func ensureServices() error {
	if classifierService != nil {
		return nil
	}

	// Environment overrides (API keys and the like) may live in a .env
	// file next to the working directory.
	_ = godotenv.Load()

	var err error
	configStore, err = configfile.NewConfigStore(flagConfigDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	embeddingProvider, err = newEmbeddingProvider(configStore)
	if err != nil {
		return err
	}

	cache, feedbackLog, err := newStorage(configStore)
	if err != nil {
		return err
	}

	limiter := rate.NewLimiter(rate.Limit(embedRPS(configStore)), 1)
	embedder := services.NewCachedEmbedder(embeddingProvider, cache, limiter)

	source := jsonfile.NewSource(catalogDir(configStore))
	catalogIndex = services.NewCatalogIndex(source, embedder, func(dim int) driven.VectorIndex {
		return flat.New(dim)
	})

	validator, err := newValidator(configStore)
	if err != nil {
		return err
	}

	base := services.NewBaseClassifier(catalogIndex, embedder, validator, domain.DefaultThresholds())
	feedback := services.NewFeedbackService(feedbackLog, embedder)
	classifierService = services.NewEnhancedClassifier(base, feedback, embedder)
	return nil
}

// closeServices releases adapter resources.
func closeServices() {
	if embeddingProvider != nil {
		embeddingProvider.Close()
	}
	if metaStore != nil {
		metaStore.Close()
	}
}

// newEmbeddingProvider builds the configured embedding backend.
func newEmbeddingProvider(cfg driven.ConfigStore) (driven.EmbeddingService, error) {
	provider := cfg.GetString("embedding.provider")
	if provider == "" {
		provider = "ollama"
	}

	switch provider {
	case "ollama":
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    cfg.GetString("embedding.base_url"),
			Model:      cfg.GetString("embedding.model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		}), nil
	case "openai":
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     os.Getenv("OPENAI_API_KEY"),
			BaseURL:    cfg.GetString("embedding.base_url"),
			Model:      cfg.GetString("embedding.model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
}

// newStorage opens the persistent store, or in-memory stores when
// storage.in_memory is set (used in tests and throwaway runs).
func newStorage(cfg driven.ConfigStore) (driven.EmbeddingCache, driven.FeedbackLog, error) {
	if cfg.GetBool("storage.in_memory") {
		return memory.NewEmbeddingCache(), memory.NewFeedbackLog(), nil
	}

	store, err := sqlite.NewStore(cfg.GetString("storage.data_dir"))
	if err != nil {
		return nil, nil, fmt.Errorf("opening storage: %w", err)
	}
	metaStore = store
	return store.EmbeddingCache(), store.FeedbackLog(), nil
}

// newValidator builds the optional second-opinion validator. Returns
// nil (classification proceeds on similarity alone) when disabled.
func newValidator(cfg driven.ConfigStore) (driven.MatchValidator, error) {
	if !cfg.GetBool("validator.enabled") {
		return nil, nil
	}
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("%w: validator.enabled is set but OPENAI_API_KEY is empty", domain.ErrValidatorUnavailable)
	}
	return openaivalidate.NewValidator(openaivalidate.Config{
		APIKey:  apiKey,
		BaseURL: cfg.GetString("validator.base_url"),
		Model:   cfg.GetString("validator.model"),
	})
}

// embedRPS returns the embedding rate limit in requests per second.
func embedRPS(cfg driven.ConfigStore) float64 {
	if rps := cfg.GetFloat("embedding.requests_per_second"); rps > 0 {
		return rps
	}
	return 10
}

// catalogDir returns the directory holding the htsdata*.json files.
func catalogDir(cfg driven.ConfigStore) string {
	if dir := cfg.GetString("catalog.dir"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "data"
	}
	return home + "/.htsclass/data/hts"
}
