package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// DutyRate is a parsed general duty rate.
type DutyRate struct {
	// AdValorem is the percentage of declared value (0 for free or
	// purely specific rates).
	AdValorem float64

	// SpecificCents is the cents-per-unit component, e.g. "2.6¢/kg".
	SpecificCents float64

	// SpecificUnit is the unit the specific component applies to.
	SpecificUnit string

	// Free is true for duty-free lines.
	Free bool
}

// ParseDutyRate parses general rate strings as they appear in the HTS
// dataset: "Free", "4.5%", "2.6¢/kg", "2.6¢/kg + 5%".
func ParseDutyRate(raw string) (DutyRate, error) {
	s := strings.TrimSpace(strings.ToLower(raw))
	if s == "" {
		return DutyRate{}, fmt.Errorf("%w: empty duty rate", ErrInvalidInput)
	}
	if s == "free" {
		return DutyRate{Free: true}, nil
	}

	var rate DutyRate
	for _, part := range strings.Split(s, "+") {
		part = strings.TrimSpace(part)
		switch {
		case strings.HasSuffix(part, "%"):
			v, err := strconv.ParseFloat(strings.TrimSuffix(part, "%"), 64)
			if err != nil {
				return DutyRate{}, fmt.Errorf("%w: duty rate %q", ErrInvalidInput, raw)
			}
			rate.AdValorem += v
		case strings.Contains(part, "¢/") || strings.Contains(part, "cents/"):
			num, unit, ok := splitSpecific(part)
			if !ok {
				return DutyRate{}, fmt.Errorf("%w: duty rate %q", ErrInvalidInput, raw)
			}
			rate.SpecificCents += num
			rate.SpecificUnit = unit
		default:
			return DutyRate{}, fmt.Errorf("%w: duty rate %q", ErrInvalidInput, raw)
		}
	}
	return rate, nil
}

// splitSpecific parses "2.6¢/kg" style components.
func splitSpecific(part string) (float64, string, bool) {
	var numStr, unit string
	switch {
	case strings.Contains(part, "¢/"):
		i := strings.Index(part, "¢/")
		numStr, unit = part[:i], part[i+len("¢/"):]
	case strings.Contains(part, "cents/"):
		i := strings.Index(part, "cents/")
		numStr, unit = strings.TrimSpace(part[:i]), part[i+len("cents/"):]
	default:
		return 0, "", false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(numStr), 64)
	if err != nil {
		return 0, "", false
	}
	return v, strings.TrimSpace(unit), true
}

// Estimate computes the duty in dollars for a declared customs value
// and quantity. Quantity applies to the specific component only.
func (r DutyRate) Estimate(declaredValue, quantity float64) float64 {
	if r.Free {
		return 0
	}
	duty := declaredValue * r.AdValorem / 100
	duty += r.SpecificCents / 100 * quantity
	return duty
}
