package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clearfreight-labs/htsclass/internal/core/domain"
)

func TestCalibrate_AnchorPoints(t *testing.T) {
	assert.InDelta(t, 0, calibrate(0), 1e-9)
	assert.InDelta(t, 40, calibrate(0.30), 1e-9)
	assert.InDelta(t, 70, calibrate(0.50), 1e-9)
	assert.InDelta(t, 90, calibrate(0.80), 1e-9)
	assert.InDelta(t, 98, calibrate(1.0), 1e-9)
}

func TestCalibrate_InterpolatesBetweenAnchors(t *testing.T) {
	// Midway between (0.30, 40) and (0.50, 70).
	assert.InDelta(t, 55, calibrate(0.40), 1e-9)
	// Midway between (0.80, 90) and (1.00, 98).
	assert.InDelta(t, 94, calibrate(0.90), 1e-9)
}

func TestCalibrate_Monotonic(t *testing.T) {
	prev := calibrate(0)
	for sim := 0.001; sim <= 1.0; sim += 0.001 {
		cur := calibrate(sim)
		assert.GreaterOrEqual(t, cur, prev, "calibrate must never decrease (sim=%.3f)", sim)
		prev = cur
	}
}

func TestCalibrate_ClampsOutOfRange(t *testing.T) {
	assert.Equal(t, 0.0, calibrate(-0.5))
	assert.Equal(t, 98.0, calibrate(1.5))
}

func TestApplyFloor(t *testing.T) {
	thresholds := domain.DefaultThresholds()

	// Above the chapter 42 floor (10): untouched.
	conf, demoted := applyFloor(55, "4202.31", thresholds)
	assert.Equal(t, 55.0, conf)
	assert.False(t, demoted)

	// Below the default floor (20): demoted, not dropped.
	conf, demoted = applyFloor(18, "0101.21", thresholds)
	assert.Equal(t, 3.0, conf)
	assert.True(t, demoted)

	// Demotion clamps at zero.
	conf, demoted = applyFloor(5, "0101.21", thresholds)
	assert.Equal(t, 0.0, conf)
	assert.True(t, demoted)
}

func TestApplyFloor_PreservesOrderWithinChapter(t *testing.T) {
	thresholds := domain.DefaultThresholds()

	// Two candidates in the same chapter, both below the floor: the
	// flat penalty keeps their relative order.
	hi, _ := applyFloor(19, "0101.21", thresholds)
	lo, _ := applyFloor(12, "0101.29", thresholds)
	assert.Greater(t, hi, lo)
}

func TestClampConfidence(t *testing.T) {
	assert.Equal(t, 0.0, clampConfidence(-3))
	assert.Equal(t, 100.0, clampConfidence(120))
	assert.Equal(t, 42.0, clampConfidence(42))
}
