package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/clearfreight-labs/htsclass/internal/core/domain"
	"github.com/clearfreight-labs/htsclass/internal/core/ports/driven"
	"github.com/clearfreight-labs/htsclass/internal/logger"
)

// oversampleFactor widens the retrieval set before validation and
// truncation, giving the secondary pass room to reorder.
const oversampleFactor = 2

// BaseClassifier performs similarity retrieval against the catalog
// index with calibrated confidence scoring and an optional secondary
// validation pass.
type BaseClassifier struct {
	catalog    *CatalogIndex
	embedder   *CachedEmbedder
	validator  driven.MatchValidator // optional, nil degrades to similarity-only
	thresholds domain.ThresholdTable
}

// NewBaseClassifier creates a base classifier. validator may be nil.
func NewBaseClassifier(catalog *CatalogIndex, embedder *CachedEmbedder, validator driven.MatchValidator, thresholds domain.ThresholdTable) *BaseClassifier {
	return &BaseClassifier{
		catalog:    catalog,
		embedder:   embedder,
		validator:  validator,
		thresholds: thresholds,
	}
}

// Classify returns up to k ranked candidates for a product description.
// The list is never empty while the catalog has entries: candidates
// below the global minimum are flagged LowConfidence, not dropped.
func (b *BaseClassifier) Classify(ctx context.Context, description string, k int) ([]domain.CandidateResult, error) {
	if k <= 0 {
		k = domain.DefaultTopK
	}

	normalized, err := Normalize(description)
	if err != nil {
		return nil, err
	}
	logger.Section("Base Classification")
	logger.Debug("Normalized query: %q", normalized)

	vec, err := b.embedder.Embed(ctx, enrichQuery(normalized))
	if err != nil {
		return nil, err
	}

	hits, err := b.catalog.Query(ctx, vec.Values, k*oversampleFactor)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, fmt.Errorf("%w: catalog has no entries", domain.ErrIndexNotBuilt)
	}
	logger.Debug("Retrieved %d candidates (oversampled)", len(hits))

	candidates := make([]domain.CandidateResult, 0, len(hits))
	for _, h := range hits {
		desc := b.catalog.FullDescription(h.Entry.Code)
		if desc == "" {
			desc = h.Entry.Description
		}
		candidates = append(candidates, domain.CandidateResult{
			HTSCode:       h.Entry.Code,
			Description:   desc,
			RawSimilarity: h.Similarity,
			Confidence:    calibrate(h.Similarity),
			GeneralRate:   h.Entry.GeneralRate,
			Units:         h.Entry.Units,
			Source:        domain.SourceSimilarity,
			Explanation:   fmt.Sprintf("similarity match (%.0f%%)", h.Similarity*100),
		})
	}

	b.validate(ctx, normalized, candidates)

	for i := range candidates {
		conf, demoted := applyFloor(candidates[i].Confidence, candidates[i].HTSCode, b.thresholds)
		if demoted {
			candidates[i].Explanation += "; below category threshold, demoted"
			logger.Debug("Demoted %s below chapter floor", candidates[i].HTSCode)
		}
		candidates[i].Confidence = clampConfidence(conf)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	if candidates[0].Confidence < b.thresholds.GlobalMin() {
		logger.Info("No candidate cleared global minimum %.0f, flagging low confidence", b.thresholds.GlobalMin())
		for i := range candidates {
			candidates[i].LowConfidence = true
		}
	}
	return candidates, nil
}

// validate runs the optional secondary pass and blends its scores into
// the calibrated confidences. Validator failure degrades to
// similarity-only scoring and never fails the request.
func (b *BaseClassifier) validate(ctx context.Context, normalized string, candidates []domain.CandidateResult) {
	if b.validator == nil {
		return
	}

	req := make([]driven.ValidationCandidate, len(candidates))
	for i, c := range candidates {
		req[i] = driven.ValidationCandidate{Code: c.HTSCode, Description: c.Description}
	}
	scores, err := b.validator.Validate(ctx, normalized, req)
	if err != nil {
		logger.Warn("Validation pass failed, keeping similarity-only scores: %v", err)
		return
	}

	byCode := make(map[string]driven.ValidationScore, len(scores))
	for _, s := range scores {
		byCode[s.Code] = s
	}
	for i := range candidates {
		s, ok := byCode[candidates[i].HTSCode]
		if !ok {
			continue
		}
		// Average the calibrated similarity score with the validator's
		// verdict so neither pass can unilaterally dominate.
		candidates[i].Confidence = clampConfidence((candidates[i].Confidence + s.Confidence) / 2)
		if s.Explanation != "" {
			candidates[i].Explanation = s.Explanation
		}
	}
	logger.Debug("Validation pass re-scored %d candidates", len(scores))
}
