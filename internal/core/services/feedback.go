package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clearfreight-labs/htsclass/internal/core/domain"
	"github.com/clearfreight-labs/htsclass/internal/core/ports/driven"
	"github.com/clearfreight-labs/htsclass/internal/logger"
)

// Feedback policy defaults.
const (
	// DefaultFeedbackWindow bounds how far back lookups and aggregates reach.
	DefaultFeedbackWindow = 30 * 24 * time.Hour

	// DefaultDebounceWindow coalesces identical records submitted in
	// quick succession (double-clicks, retried requests).
	DefaultDebounceWindow = 10 * time.Second

	// DefaultInsightTTL is how long a computed insight is served before
	// recomputation. Insights are never required to be real-time.
	DefaultInsightTTL = 5 * time.Minute

	// DefaultSemanticRadius is the minimum cosine similarity for a
	// historical query to count as a semantic neighbour.
	DefaultSemanticRadius = 0.5

	// driftMinCorrections is the evidence floor before a chapter's
	// correction rate moves its threshold recommendation.
	driftMinCorrections = 3
)

// SimilarFeedback pairs a historical record with its similarity to the
// current query.
type SimilarFeedback struct {
	Record     domain.FeedbackRecord
	Similarity float64
}

// FeedbackService owns the append-only correction history: debounced
// writes, exact and semantic-neighbour lookups, and staleness-cached
// aggregates.
type FeedbackService struct {
	log      driven.FeedbackLog
	embedder *CachedEmbedder

	window     time.Duration
	debounce   time.Duration
	insightTTL time.Duration

	mu       sync.Mutex
	cached   *domain.LearningInsight
	cachedAt time.Time
}

// NewFeedbackService creates a feedback service with default policy.
func NewFeedbackService(log driven.FeedbackLog, embedder *CachedEmbedder) *FeedbackService {
	return &FeedbackService{
		log:        log,
		embedder:   embedder,
		window:     DefaultFeedbackWindow,
		debounce:   DefaultDebounceWindow,
		insightTTL: DefaultInsightTTL,
	}
}

// Record appends a correction. Exact duplicates (same query, prediction
// and correction) inside the debounce window are coalesced, not
// double-counted. The query embedding is captured at record time so
// semantic lookups survive later model or provider changes.
func (f *FeedbackService) Record(ctx context.Context, queryText, predictedCode, correctedCode string) error {
	normalized, err := Normalize(queryText)
	if err != nil {
		return err
	}
	if predictedCode == "" || correctedCode == "" {
		return fmt.Errorf("%w: feedback requires predicted and corrected codes", domain.ErrInvalidInput)
	}

	if prev, err := f.log.Latest(ctx, normalized); err == nil {
		if prev.PredictedCode == predictedCode &&
			prev.CorrectedCode == correctedCode &&
			time.Since(prev.Timestamp) < f.debounce {
			logger.Debug("Coalesced duplicate feedback for %q", normalized)
			return nil
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: %v", domain.ErrFeedbackStore, err)
	}

	rec := domain.FeedbackRecord{
		ID:            uuid.NewString(),
		QueryText:     normalized,
		PredictedCode: predictedCode,
		CorrectedCode: correctedCode,
		Timestamp:     time.Now(),
	}
	// The embedding is an enrichment, not a requirement: a record
	// without one still serves exact lookups.
	if vec, err := f.embedder.Embed(ctx, normalized); err == nil {
		rec.QueryEmbedding = vec.Values
	} else {
		logger.Warn("Feedback embedding unavailable, recording without: %v", err)
	}

	if err := f.log.Append(ctx, rec); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrFeedbackStore, err)
	}

	f.invalidateInsights()
	logger.Info("Feedback recorded: %s -> %s (%s)", predictedCode, correctedCode, rec.Severity())
	return nil
}

// LookupExact returns the latest correction for an identical normalized
// query text, or domain.ErrNotFound.
func (f *FeedbackService) LookupExact(ctx context.Context, normalized string) (*domain.FeedbackRecord, error) {
	rec, err := f.log.Latest(ctx, normalized)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrFeedbackStore, err)
	}
	return rec, nil
}

// LookupSimilar returns corrections whose recorded query embeddings lie
// within the similarity radius of the given vector, most similar first.
// Confirmations are excluded: only records that changed the prediction
// carry re-ranking signal.
func (f *FeedbackService) LookupSimilar(ctx context.Context, vector []float32, radius float64) ([]SimilarFeedback, error) {
	if radius <= 0 {
		radius = DefaultSemanticRadius
	}
	records, err := f.log.Since(ctx, time.Now().Add(-f.window))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFeedbackStore, err)
	}

	var matches []SimilarFeedback
	for _, rec := range records {
		if !rec.IsCorrection() || len(rec.QueryEmbedding) == 0 {
			continue
		}
		sim := cosine(vector, rec.QueryEmbedding)
		if sim >= radius {
			matches = append(matches, SimilarFeedback{Record: rec, Similarity: sim})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	return matches, nil
}

// Insights returns the aggregate view of the feedback window. The
// result is recomputed at most once per TTL; callers tolerate a
// slightly stale snapshot.
func (f *FeedbackService) Insights(ctx context.Context) (domain.LearningInsight, error) {
	f.mu.Lock()
	if f.cached != nil && time.Since(f.cachedAt) < f.insightTTL {
		ins := *f.cached
		f.mu.Unlock()
		return ins, nil
	}
	f.mu.Unlock()

	records, err := f.log.Since(ctx, time.Now().Add(-f.window))
	if err != nil {
		return domain.LearningInsight{}, fmt.Errorf("%w: %v", domain.ErrFeedbackStore, err)
	}
	ins := computeInsights(records)

	f.mu.Lock()
	f.cached = &ins
	f.cachedAt = time.Now()
	f.mu.Unlock()
	return ins, nil
}

// invalidateInsights drops the cached aggregate after a write.
func (f *FeedbackService) invalidateInsights() {
	f.mu.Lock()
	f.cached = nil
	f.mu.Unlock()
}

// computeInsights derives a LearningInsight from raw records. Pure
// function: recomputable at any time from the log alone.
func computeInsights(records []domain.FeedbackRecord) domain.LearningInsight {
	ins := domain.LearningInsight{
		TotalRecords:            len(records),
		CorrectionRateByChapter: make(map[string]float64),
		ThresholdDrift:          make(map[string]float64),
		GeneratedAt:             time.Now(),
	}
	if len(records) == 0 {
		return ins
	}

	chapterTotal := make(map[string]int)
	chapterCorrected := make(map[string]int)
	patterns := make(map[domain.CorrectionPattern]int)

	for _, rec := range records {
		ch := domain.CodeChapter(rec.PredictedCode)
		chapterTotal[ch]++
		if !rec.IsCorrection() {
			continue
		}
		ins.TotalCorrections++
		chapterCorrected[ch]++
		key := domain.CorrectionPattern{
			FromHeading: domain.CodeHeading(rec.PredictedCode),
			ToHeading:   domain.CodeHeading(rec.CorrectedCode),
		}
		patterns[key]++
	}

	ins.CorrectionRate = float64(ins.TotalCorrections) / float64(ins.TotalRecords)
	for ch, total := range chapterTotal {
		ins.CorrectionRateByChapter[ch] = float64(chapterCorrected[ch]) / float64(total)
	}

	for key, count := range patterns {
		key.Count = count
		ins.TopPatterns = append(ins.TopPatterns, key)
	}
	sort.Slice(ins.TopPatterns, func(i, j int) bool {
		if ins.TopPatterns[i].Count != ins.TopPatterns[j].Count {
			return ins.TopPatterns[i].Count > ins.TopPatterns[j].Count
		}
		return ins.TopPatterns[i].FromHeading < ins.TopPatterns[j].FromHeading
	})
	if len(ins.TopPatterns) > 5 {
		ins.TopPatterns = ins.TopPatterns[:5]
	}

	// A chapter corrected more often than not, with enough evidence,
	// should have its floor tightened in proportion to the excess.
	for ch, rate := range ins.CorrectionRateByChapter {
		if chapterCorrected[ch] >= driftMinCorrections && rate > 0.5 {
			ins.ThresholdDrift[ch] = math.Round((rate - 0.5) * 20)
		}
	}
	return ins
}

// cosine computes cosine similarity clamped to [0,1].
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(0, math.Min(1, sim))
}
