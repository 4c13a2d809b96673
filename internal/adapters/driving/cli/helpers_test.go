package cli

import (
	"context"
	"hash/fnv"
	"os"
	"strings"

	configfile "github.com/clearfreight-labs/htsclass/internal/adapters/driven/config/file"
	"github.com/clearfreight-labs/htsclass/internal/adapters/driven/storage/memory"
	"github.com/clearfreight-labs/htsclass/internal/adapters/driven/vector/flat"
	"github.com/clearfreight-labs/htsclass/internal/core/domain"
	"github.com/clearfreight-labs/htsclass/internal/core/ports/driven"
	"github.com/clearfreight-labs/htsclass/internal/core/services"
)

// fakeEmbedder produces deterministic bag-of-words vectors so command
// tests can classify without a running embedding backend.
type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, 64)
	for _, tok := range strings.Fields(text) {
		h := fnv.New32a()
		h.Write([]byte(tok)) //nolint:errcheck
		vec[h.Sum32()%64] += 1
	}
	return vec, nil
}

func (fakeEmbedder) Dimensions() int            { return 64 }
func (fakeEmbedder) ModelVersion() string       { return "fake/bow-v1" }
func (fakeEmbedder) Ping(context.Context) error { return nil }
func (fakeEmbedder) Close() error               { return nil }

// fakeCatalog serves a fixed entry set.
type fakeCatalog struct{ entries []domain.HTSEntry }

func (f fakeCatalog) Entries(context.Context) ([]domain.HTSEntry, error) {
	return f.entries, nil
}

var testEntries = []domain.HTSEntry{
	{Code: "0101.21", Description: "Horses live purebred breeding animals", Level: domain.LevelSubheading, GeneralRate: "Free", Units: []string{"No."}},
	{Code: "4202.31", Description: "Articles normally carried in the pocket with outer surface of leather", Level: domain.LevelSubheading, GeneralRate: "4.5%"},
	{Code: "6109.10", Description: "T-shirts singlets and tank tops knitted of cotton", Level: domain.LevelSubheading, GeneralRate: "16.5%", Units: []string{"doz.", "kg"}},
}

// setupTestServices swaps the package-level services for in-memory test
// doubles. The returned cleanup restores the previous wiring.
func setupTestServices() func() {
	prevConfig := configStore
	prevClassifier := classifierService
	prevCatalog := catalogIndex
	prevProvider := embeddingProvider
	prevStore := metaStore

	tmpDir, err := os.MkdirTemp("", "htsclass-cli-test")
	if err != nil {
		panic(err)
	}
	configStore, err = configfile.NewConfigStore(tmpDir)
	if err != nil {
		panic(err)
	}

	embeddingProvider = fakeEmbedder{}
	metaStore = nil

	embedder := services.NewCachedEmbedder(embeddingProvider, memory.NewEmbeddingCache(), nil)
	catalogIndex = services.NewCatalogIndex(fakeCatalog{entries: testEntries}, embedder, func(dim int) driven.VectorIndex {
		return flat.New(dim)
	})
	if err := catalogIndex.Build(context.Background()); err != nil {
		panic(err)
	}

	base := services.NewBaseClassifier(catalogIndex, embedder, nil, domain.DefaultThresholds())
	feedback := services.NewFeedbackService(memory.NewFeedbackLog(), embedder)
	classifierService = services.NewEnhancedClassifier(base, feedback, embedder)

	return func() {
		configStore = prevConfig
		classifierService = prevClassifier
		catalogIndex = prevCatalog
		embeddingProvider = prevProvider
		metaStore = prevStore
		os.RemoveAll(tmpDir) //nolint:errcheck
	}
}
