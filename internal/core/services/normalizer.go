package services

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/clearfreight-labs/htsclass/internal/core/domain"
)

// replacement rewrites a pattern to a canonical form. Every replacement
// target is itself a fixed point of the table, which keeps Normalize
// idempotent.
type replacement struct {
	re *regexp.Regexp
	to string
}

// Trade terminology rewrites. Targets are the short canonical forms the
// tariff descriptions themselves tend to use.
var materialReplacements = []replacement{
	{regexp.MustCompile(`stainless\s+steel`), "ss"},
	{regexp.MustCompile(`carbon\s+steel`), "cs"},
	{regexp.MustCompile(`aluminium`), "aluminum"},
	{regexp.MustCompile(`polyethylene`), "pe"},
	{regexp.MustCompile(`polypropylene`), "pp"},
	{regexp.MustCompile(`poly\s*vinyl\s*chloride`), "pvc"},
}

var measurementReplacements = []replacement{
	{regexp.MustCompile(`kilograms?\b`), "kg"},
	{regexp.MustCompile(`milligrams?\b`), "mg"},
	{regexp.MustCompile(`grams?\b`), "g"},
	{regexp.MustCompile(`centimeters?\b`), "cm"},
	{regexp.MustCompile(`millimeters?\b`), "mm"},
	{regexp.MustCompile(`meters?\b`), "m"},
	{regexp.MustCompile(`metres?\b`), "m"},
	{regexp.MustCompile(`lit(?:re|er)s?\b`), "l"},
	{regexp.MustCompile(`inch(?:es)?\b`), "in"},
	{regexp.MustCompile(`foot\b|feet\b`), "ft"},
	{regexp.MustCompile(`pounds?\b`), "lb"},
	{regexp.MustCompile(`ounces?\b`), "oz"},
	{regexp.MustCompile(`gallons?\b`), "gal"},
	{regexp.MustCompile(`(\d+)\s*percent\b`), "$1%"},
	{regexp.MustCompile(`(\d+)\s*pct\b`), "$1%"},
}

var (
	nonAlnum   = regexp.MustCompile(`[^a-z0-9\s\-%/\.]`)
	multiSpace = regexp.MustCompile(`\s+`)
	hasLetter  = regexp.MustCompile(`[a-z]`)
)

// Normalize converts a raw product description into its canonical text
// form: lowercased, trade terms rewritten, punctuation noise stripped,
// whitespace collapsed. It is a deterministic pure function and
// idempotent: Normalize(Normalize(t)) == Normalize(t).
//
// Returns domain.ErrInvalidInput for empty or non-textual input.
func Normalize(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty description", domain.ErrInvalidInput)
	}

	s := strings.ToLower(text)
	for _, r := range materialReplacements {
		s = r.re.ReplaceAllString(s, r.to)
	}
	for _, r := range measurementReplacements {
		s = r.re.ReplaceAllString(s, r.to)
	}
	s = nonAlnum.ReplaceAllString(s, " ")
	s = multiSpace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	if !hasLetter.MatchString(s) {
		return "", fmt.Errorf("%w: description has no text content", domain.ErrInvalidInput)
	}
	return s, nil
}

// enrichmentTerms appends tariff vocabulary to queries containing known
// product or material keywords, improving recall against terse tariff
// line descriptions. Enrichment is applied by the classifier after
// Normalize and deliberately kept out of it: appending terms is not
// idempotent, so it must not be part of the canonical form.
var enrichmentTerms = map[string]string{
	"wallet":    "leather articles wallet billfold purse small leather goods",
	"handbag":   "leather articles handbag purse shoulder bag tote",
	"briefcase": "leather articles briefcase attache business case",
	"suitcase":  "leather articles suitcase luggage travel goods",
	"t-shirt":   "knitted cotton t-shirt singlet tank top",
	"sweater":   "knitted sweater pullover jersey",
	"leather":   "leather cowhide bovine animal hide",
	"cotton":    "cotton textile fabric woven knit",
	"aluminum":  "aluminum metal alloy",
	"horse":     "live equine animal",
	"horses":    "live equine animal",
}

// enrichQuery returns the normalized query with matching vocabulary
// appended. The result feeds the embedder only; callers keep the plain
// normalized form for cache keys and feedback lookups.
func enrichQuery(normalized string) string {
	var extra []string
	for key, terms := range enrichmentTerms {
		if strings.Contains(normalized, key) {
			extra = append(extra, terms)
		}
	}
	if len(extra) == 0 {
		return normalized
	}
	// Map iteration order is random; sort for a deterministic embedding input.
	sort.Strings(extra)
	return normalized + " " + strings.Join(extra, " ")
}
