package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearfreight-labs/htsclass/internal/adapters/driven/storage/memory"
	"github.com/clearfreight-labs/htsclass/internal/core/domain"
)

func newTestFeedback(t *testing.T) (*FeedbackService, *memory.FeedbackLog) {
	t.Helper()
	log := memory.NewFeedbackLog()
	embedder := NewCachedEmbedder(&mockEmbeddingService{}, memory.NewEmbeddingCache(), nil)
	return NewFeedbackService(log, embedder), log
}

func TestFeedbackService_RecordNormalizesQuery(t *testing.T) {
	svc, log := newTestFeedback(t)
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, "Leather   WALLET!", "4202.32", "4202.31"))
	rec, err := log.Latest(ctx, "leather wallet")
	require.NoError(t, err)
	assert.Equal(t, "4202.31", rec.CorrectedCode)
	assert.NotEmpty(t, rec.ID)
	assert.NotEmpty(t, rec.QueryEmbedding, "embedding captured at record time")
}

func TestFeedbackService_RecordRejectsInvalidInput(t *testing.T) {
	svc, _ := newTestFeedback(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Record(ctx, "  ", "4202.32", "4202.31"), domain.ErrInvalidInput)
	assert.ErrorIs(t, svc.Record(ctx, "leather wallet", "", "4202.31"), domain.ErrInvalidInput)
	assert.ErrorIs(t, svc.Record(ctx, "leather wallet", "4202.32", ""), domain.ErrInvalidInput)
}

func TestFeedbackService_DebouncesDuplicates(t *testing.T) {
	svc, log := newTestFeedback(t)
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, "leather wallet", "4202.32", "4202.31"))
	require.NoError(t, svc.Record(ctx, "leather wallet", "4202.32", "4202.31"))
	assert.Equal(t, 1, log.Len(), "identical rapid submissions coalesce into one record")

	// A different correction for the same query is not a duplicate.
	require.NoError(t, svc.Record(ctx, "leather wallet", "4202.32", "4202.39"))
	assert.Equal(t, 2, log.Len())
}

func TestFeedbackService_LookupExact(t *testing.T) {
	svc, _ := newTestFeedback(t)
	ctx := context.Background()

	_, err := svc.LookupExact(ctx, "leather wallet")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, svc.Record(ctx, "leather wallet", "4202.32", "4202.31"))
	rec, err := svc.LookupExact(ctx, "leather wallet")
	require.NoError(t, err)
	assert.Equal(t, "4202.31", rec.CorrectedCode)
}

func TestFeedbackService_LookupSimilar(t *testing.T) {
	svc, _ := newTestFeedback(t)
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, "brown leather wallet", "4202.32", "4202.31"))
	// Confirmations carry no re-ranking signal and must be excluded.
	require.NoError(t, svc.Record(ctx, "aluminum window frame", "7610.10", "7610.10"))

	matches, err := svc.LookupSimilar(ctx, hashEmbed("black leather wallet"), 0.5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "4202.31", matches[0].Record.CorrectedCode)
	assert.Greater(t, matches[0].Similarity, 0.5)
}

func TestFeedbackService_LookupSimilarRespectsRadius(t *testing.T) {
	svc, _ := newTestFeedback(t)
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, "industrial welding robot", "8428.70", "8515.21"))

	matches, err := svc.LookupSimilar(ctx, hashEmbed("cotton t-shirt"), 0.5)
	require.NoError(t, err)
	assert.Empty(t, matches, "unrelated queries fall outside the radius")
}

func TestFeedbackService_Insights(t *testing.T) {
	svc, _ := newTestFeedback(t)
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, "leather wallet", "4202.32", "4202.31"))
	require.NoError(t, svc.Record(ctx, "leather handbag", "4202.22", "4202.21"))
	require.NoError(t, svc.Record(ctx, "cotton t-shirt", "6109.10", "6109.10"))

	ins, err := svc.Insights(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, ins.TotalRecords)
	assert.Equal(t, 2, ins.TotalCorrections)
	assert.InDelta(t, 2.0/3.0, ins.CorrectionRate, 1e-9)
	assert.InDelta(t, 1.0, ins.CorrectionRateByChapter["42"], 1e-9)
	assert.InDelta(t, 0.0, ins.CorrectionRateByChapter["61"], 1e-9)
}

func TestFeedbackService_InsightsCacheInvalidatedByWrite(t *testing.T) {
	svc, _ := newTestFeedback(t)
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, "leather wallet", "4202.32", "4202.31"))
	first, err := svc.Insights(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.TotalRecords)

	// Within the TTL the cached snapshot is served, but a write drops it.
	require.NoError(t, svc.Record(ctx, "leather handbag", "4202.22", "4202.21"))
	second, err := svc.Insights(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, second.TotalRecords)
}

func TestComputeInsights_ThresholdDrift(t *testing.T) {
	now := time.Now()
	var records []domain.FeedbackRecord
	// Three chapter-61 corrections out of four records: rate 0.75,
	// enough evidence to suggest tightening.
	for i := 0; i < 3; i++ {
		records = append(records, domain.FeedbackRecord{
			QueryText: "q", PredictedCode: "6109.10", CorrectedCode: "6110.20", Timestamp: now,
		})
	}
	records = append(records, domain.FeedbackRecord{
		QueryText: "q", PredictedCode: "6109.10", CorrectedCode: "6109.10", Timestamp: now,
	})

	ins := computeInsights(records)
	assert.InDelta(t, 5, ins.ThresholdDrift["61"], 1e-9, "round((0.75-0.5)*20)")

	// Two corrections is below the evidence floor.
	ins = computeInsights(records[:2])
	assert.Empty(t, ins.ThresholdDrift)
}

func TestComputeInsights_TopPatterns(t *testing.T) {
	now := time.Now()
	var records []domain.FeedbackRecord
	for i := 0; i < 3; i++ {
		records = append(records, domain.FeedbackRecord{
			PredictedCode: "4202.32", CorrectedCode: "4202.31", Timestamp: now,
		})
	}
	records = append(records, domain.FeedbackRecord{
		PredictedCode: "6109.10", CorrectedCode: "6110.20", Timestamp: now,
	})

	ins := computeInsights(records)
	require.NotEmpty(t, ins.TopPatterns)
	assert.Equal(t, domain.CorrectionPattern{FromHeading: "4202", ToHeading: "4202", Count: 3}, ins.TopPatterns[0])
}

func TestCosine(t *testing.T) {
	a := []float32{1, 0, 0}
	assert.InDelta(t, 1.0, cosine(a, a), 1e-9)
	assert.InDelta(t, 0.0, cosine(a, []float32{0, 1, 0}), 1e-9)
	assert.Zero(t, cosine(a, []float32{1, 0}), "dimension mismatch yields zero")
	assert.Zero(t, cosine(a, []float32{0, 0, 0}))
}
