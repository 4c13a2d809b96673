package services

import "github.com/clearfreight-labs/htsclass/internal/core/domain"

// Calibration anchor points mapping cosine similarity to confidence.
// The curve is piecewise linear through these points and therefore
// strictly non-decreasing; the anchors mirror the tuning of manual
// classification review (0.50 similarity ≈ a 70-point match, exact
// matches approach the high-trust ceiling).
var calibrationAnchors = []struct {
	sim  float64
	conf float64
}{
	{0.00, 0},
	{0.30, 40},
	{0.50, 70},
	{0.80, 90},
	{1.00, 98},
}

// HighTrustCeiling is the confidence assigned to exact feedback
// promotions. Confirmed corrections outrank any similarity score.
const HighTrustCeiling = 95.0

// demotionPenalty is subtracted from candidates below their category
// floor. Demoted candidates stay in the list for transparency.
const demotionPenalty = 15.0

// calibrate maps a raw cosine similarity (clamped to [0,1]) onto the
// 0-100 confidence scale. Monotonic: a higher similarity never yields a
// lower confidence.
func calibrate(sim float64) float64 {
	if sim <= 0 {
		return 0
	}
	if sim >= 1 {
		return calibrationAnchors[len(calibrationAnchors)-1].conf
	}
	for i := 1; i < len(calibrationAnchors); i++ {
		lo, hi := calibrationAnchors[i-1], calibrationAnchors[i]
		if sim <= hi.sim {
			t := (sim - lo.sim) / (hi.sim - lo.sim)
			return lo.conf + t*(hi.conf-lo.conf)
		}
	}
	return calibrationAnchors[len(calibrationAnchors)-1].conf
}

// applyFloor demotes a confidence that falls below its category floor.
// Demotion subtracts a fixed penalty (clamped at zero), so within a
// category the similarity→confidence relationship stays monotonic.
// Candidates are never dropped here.
func applyFloor(conf float64, code string, thresholds domain.ThresholdTable) (float64, bool) {
	floor := thresholds.FloorFor(code)
	if conf >= floor {
		return conf, false
	}
	demoted := conf - demotionPenalty
	if demoted < 0 {
		demoted = 0
	}
	return demoted, true
}

// clampConfidence bounds a confidence to the 0-100 scale.
func clampConfidence(conf float64) float64 {
	switch {
	case conf < 0:
		return 0
	case conf > 100:
		return 100
	default:
		return conf
	}
}
