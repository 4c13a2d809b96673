package services

import (
	"context"
	"hash/fnv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/clearfreight-labs/htsclass/internal/core/domain"
	"github.com/clearfreight-labs/htsclass/internal/core/ports/driven"
)

// --- Mock implementations ---

const mockDims = 64

// hashEmbed maps text to a deterministic bag-of-words vector. Texts
// sharing tokens get high cosine similarity, which is enough signal for
// end-to-end ranking tests without a real model.
func hashEmbed(text string) []float32 {
	v := make([]float32, mockDims)
	for _, tok := range strings.Fields(text) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		v[h.Sum32()%mockDims]++
	}
	return v
}

// mockEmbeddingService implements driven.EmbeddingService for testing.
type mockEmbeddingService struct {
	calls    atomic.Int64
	embedErr error
	model    string
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls.Add(1)
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return hashEmbed(text), nil
}

func (m *mockEmbeddingService) Dimensions() int { return mockDims }

func (m *mockEmbeddingService) ModelVersion() string {
	if m.model != "" {
		return m.model
	}
	return "mock/bow-v1"
}

func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }

func (m *mockEmbeddingService) Close() error { return nil }

// mockCatalogSource implements driven.CatalogSource for testing.
type mockCatalogSource struct {
	entries []domain.HTSEntry
	err     error
}

func (m *mockCatalogSource) Entries(_ context.Context) ([]domain.HTSEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.entries, nil
}

// mockValidator implements driven.MatchValidator for testing.
type mockValidator struct {
	scores map[string]float64
	err    error
}

func (m *mockValidator) Validate(_ context.Context, _ string, candidates []driven.ValidationCandidate) ([]driven.ValidationScore, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []driven.ValidationScore
	for _, c := range candidates {
		if conf, ok := m.scores[c.Code]; ok {
			out = append(out, driven.ValidationScore{Code: c.Code, Confidence: conf})
		}
	}
	return out, nil
}

func (m *mockValidator) Ping(_ context.Context) error { return nil }

func (m *mockValidator) Close() error { return nil }

// failingFeedbackLog implements driven.FeedbackLog and fails every call.
type failingFeedbackLog struct {
	err error
}

func (f *failingFeedbackLog) Append(_ context.Context, _ domain.FeedbackRecord) error {
	return f.err
}

func (f *failingFeedbackLog) Latest(_ context.Context, _ string) (*domain.FeedbackRecord, error) {
	return nil, f.err
}

func (f *failingFeedbackLog) Since(_ context.Context, _ time.Time) ([]domain.FeedbackRecord, error) {
	return nil, f.err
}

func (f *failingFeedbackLog) Close() error { return nil }

// testCatalog are the fixture tariff lines used across service tests.
var testCatalog = []domain.HTSEntry{
	{Code: "0101", Description: "Horses asses mules and hinnies live", Level: domain.LevelHeading},
	{Code: "0101.21", Description: "Horses live purebred breeding animals", ParentCode: "0101", Level: domain.LevelSubheading, GeneralRate: "Free", Units: []string{"No."}},
	{Code: "0101.29", Description: "Horses live other than purebred", ParentCode: "0101", Level: domain.LevelSubheading, GeneralRate: "Free", Units: []string{"No."}},
	{Code: "4202.31", Description: "Articles carried in the pocket or handbag with outer surface of leather", Level: domain.LevelSubheading, GeneralRate: "4.5%", Units: []string{"No."}},
	{Code: "4202.32", Description: "Articles carried in the pocket or handbag with outer surface of plastic sheeting or textile", Level: domain.LevelSubheading, GeneralRate: "4.5%", Units: []string{"No."}},
	{Code: "6109.10", Description: "T-shirts singlets and tank tops knitted of cotton", Level: domain.LevelSubheading, GeneralRate: "16.5%", Units: []string{"doz.", "kg"}},
}
