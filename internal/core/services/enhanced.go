package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/clearfreight-labs/htsclass/internal/core/domain"
	"github.com/clearfreight-labs/htsclass/internal/core/ports/driving"
	"github.com/clearfreight-labs/htsclass/internal/logger"
)

// Ensure EnhancedClassifier implements the interface.
var _ driving.Classifier = (*EnhancedClassifier)(nil)

// Feedback re-ranking weights.
const (
	// nudgeScale converts a (similarity × recency) weight into
	// confidence points. The penalty for historically rejected codes is
	// symmetric.
	nudgeScale = 15.0

	// recencyHalfLife halves a correction's weight per elapsed period.
	recencyHalfLife = 30 * 24 * time.Hour

	// demotedCap keeps non-promoted candidates strictly below an
	// exact-feedback promotion so the returned list stays sorted.
	demotedCap = HighTrustCeiling - 1
)

// EnhancedClassifier composes the base classifier with feedback-driven
// re-ranking. Classification never mutates state; AddFeedback is the
// only mutation path. Feedback store failures degrade to pure base
// output and are never propagated to the caller.
type EnhancedClassifier struct {
	base     *BaseClassifier
	feedback *FeedbackService
	embedder *CachedEmbedder
	radius   float64
}

// NewEnhancedClassifier creates the feedback-enhanced classifier.
func NewEnhancedClassifier(base *BaseClassifier, feedback *FeedbackService, embedder *CachedEmbedder) *EnhancedClassifier {
	return &EnhancedClassifier{
		base:     base,
		feedback: feedback,
		embedder: embedder,
		radius:   DefaultSemanticRadius,
	}
}

// Classify runs the base classifier and re-ranks its output against the
// feedback history.
func (e *EnhancedClassifier) Classify(ctx context.Context, description string, opts domain.ClassifyOptions) ([]domain.CandidateResult, error) {
	if opts.TopK <= 0 {
		opts.TopK = domain.DefaultTopK
	}

	normalized, err := Normalize(description)
	if err != nil {
		return nil, err
	}

	candidates, err := e.base.Classify(ctx, description, opts.TopK)
	if err != nil {
		return nil, err
	}
	if !opts.LearnFromFeedback {
		return candidates, nil
	}

	logger.Section("Feedback Re-ranking")

	if exact, err := e.feedback.LookupExact(ctx, normalized); err == nil {
		logger.Info("Exact feedback match: %s", exact.CorrectedCode)
		return e.promoteExact(candidates, exact, opts.TopK), nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		logger.Warn("Exact feedback lookup failed, using base results: %v", err)
		return candidates, nil
	}

	vec, err := e.embedder.Embed(ctx, normalized)
	if err != nil {
		logger.Warn("Query embedding for feedback lookup failed, using base results: %v", err)
		return candidates, nil
	}
	matches, err := e.feedback.LookupSimilar(ctx, vec.Values, e.radius)
	if err != nil {
		logger.Warn("Semantic feedback lookup failed, using base results: %v", err)
		return candidates, nil
	}
	if len(matches) == 0 {
		return candidates, nil
	}
	logger.Debug("Applying %d semantic feedback matches", len(matches))
	return applySemanticFeedback(candidates, matches, time.Now()), nil
}

// AddFeedback records a user correction. This is the only mutation path.
func (e *EnhancedClassifier) AddFeedback(ctx context.Context, description, predictedCode, correctedCode string) error {
	return e.feedback.Record(ctx, description, predictedCode, correctedCode)
}

// Insights returns aggregate learning insights.
func (e *EnhancedClassifier) Insights(ctx context.Context) (domain.LearningInsight, error) {
	return e.feedback.Insights(ctx)
}

// promoteExact puts the confirmed correction at rank 1 with the
// high-trust ceiling. The previous candidates are retained for
// transparency, capped just below the ceiling so the list stays sorted;
// the former top candidate is annotated as demoted.
func (e *EnhancedClassifier) promoteExact(candidates []domain.CandidateResult, rec *domain.FeedbackRecord, k int) []domain.CandidateResult {
	promoted := domain.CandidateResult{
		HTSCode:     rec.CorrectedCode,
		Description: fmt.Sprintf("HTS %s", rec.CorrectedCode),
		Confidence:  HighTrustCeiling,
		Source:      domain.SourceExactFeedback,
		Explanation: "confirmed correction for an identical prior query",
	}
	if entry, ok := e.base.catalog.Entry(rec.CorrectedCode); ok {
		if desc := e.base.catalog.FullDescription(entry.Code); desc != "" {
			promoted.Description = desc
		} else {
			promoted.Description = entry.Description
		}
		promoted.GeneralRate = entry.GeneralRate
		promoted.Units = entry.Units
	}

	out := []domain.CandidateResult{promoted}
	for i, c := range candidates {
		if c.HTSCode == rec.CorrectedCode {
			// Carry the similarity evidence onto the promotion instead
			// of listing the code twice.
			out[0].RawSimilarity = c.RawSimilarity
			continue
		}
		if c.Confidence > demotedCap {
			c.Confidence = demotedCap
		}
		if i == 0 {
			c.Explanation += "; demoted by a confirmed correction"
		}
		out = append(out, c)
	}
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// applySemanticFeedback is the pure re-ranking step: it maps
// (base candidates, feedback snapshot) to adjusted candidates without
// touching any state. Each neighbour nudges candidates matching its
// corrected code up and candidates matching its rejected code down,
// proportionally to similarity × recency weight. The final stable sort
// preserves base order among ties.
func applySemanticFeedback(candidates []domain.CandidateResult, matches []SimilarFeedback, now time.Time) []domain.CandidateResult {
	boost := make(map[string]float64)
	penalty := make(map[string]float64)
	reason := make(map[string]string)

	for _, m := range matches {
		weight := m.Similarity * recencyWeight(now.Sub(m.Record.Timestamp))
		if weight <= 0 {
			continue
		}
		boost[m.Record.CorrectedCode] += nudgeScale * weight
		penalty[m.Record.PredictedCode] += nudgeScale * weight
		if _, ok := reason[m.Record.CorrectedCode]; !ok {
			reason[m.Record.CorrectedCode] = fmt.Sprintf(
				"similar query %q was corrected to this code (similarity %.0f%%)",
				m.Record.QueryText, m.Similarity*100)
		}
	}

	out := make([]domain.CandidateResult, len(candidates))
	copy(out, candidates)
	for i := range out {
		delta := boost[out[i].HTSCode] - penalty[out[i].HTSCode]
		if delta == 0 {
			continue
		}
		out[i].Confidence = clampConfidence(out[i].Confidence + delta)
		out[i].Source = domain.SourceSemanticFeedback
		if r, ok := reason[out[i].HTSCode]; ok && delta > 0 {
			out[i].Explanation += "; " + r
		} else if delta < 0 {
			out[i].Explanation += "; similar queries were corrected away from this code"
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}

// recencyWeight decays exponentially with the age of a correction.
func recencyWeight(age time.Duration) float64 {
	if age < 0 {
		age = 0
	}
	return math.Exp2(-float64(age) / float64(recencyHalfLife))
}
