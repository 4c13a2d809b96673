package domain

// ThresholdTable holds per-chapter confidence floors plus the global
// minimum. It is built once at construction time and injected into the
// classifier; there is no mutable global threshold state.
type ThresholdTable struct {
	floors     map[string]float64
	defaultMin float64
	globalMin  float64
}

// Default threshold values, tuned against manual classification review.
const (
	// DefaultFloor applies to chapters without a specific entry.
	DefaultFloor = 20.0

	// DefaultGlobalMin is the confidence below which results carry the
	// LowConfidence flag. Results are flagged, never dropped.
	DefaultGlobalMin = 30.0
)

// defaultFloors lowers the bar for categories whose tariff descriptions
// are terse and score weakly against consumer phrasing.
var defaultFloors = map[string]float64{
	"42": 10.0, // leather goods
	"61": 15.0, // knit apparel
	"62": 15.0, // woven apparel
	"76": 15.0, // aluminium articles
}

// NewThresholdTable builds a table from explicit per-chapter floors.
// Chapters absent from floors fall back to defaultMin. A nil map uses
// the built-in category defaults.
func NewThresholdTable(floors map[string]float64, defaultMin, globalMin float64) ThresholdTable {
	if floors == nil {
		floors = defaultFloors
	}
	// Copy so callers cannot mutate the table after construction.
	own := make(map[string]float64, len(floors))
	for k, v := range floors {
		own[k] = v
	}
	if defaultMin <= 0 {
		defaultMin = DefaultFloor
	}
	if globalMin <= 0 {
		globalMin = DefaultGlobalMin
	}
	return ThresholdTable{floors: own, defaultMin: defaultMin, globalMin: globalMin}
}

// DefaultThresholds returns the built-in table.
func DefaultThresholds() ThresholdTable {
	return NewThresholdTable(nil, DefaultFloor, DefaultGlobalMin)
}

// FloorFor returns the confidence floor for the chapter of the given code.
func (t ThresholdTable) FloorFor(code string) float64 {
	if f, ok := t.floors[CodeChapter(code)]; ok {
		return f
	}
	return t.defaultMin
}

// GlobalMin returns the global minimum confidence.
func (t ThresholdTable) GlobalMin() float64 {
	return t.globalMin
}
