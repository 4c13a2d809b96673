package domain

import "strings"

// CodeLevel identifies the depth of an HTS code in the tariff hierarchy.
type CodeLevel string

const (
	LevelChapter     CodeLevel = "chapter"     // 2 digits, e.g. "42"
	LevelHeading     CodeLevel = "heading"     // 4 digits, e.g. "4202"
	LevelSubheading  CodeLevel = "subheading"  // 6 digits, e.g. "4202.31"
	LevelStatistical CodeLevel = "statistical" // 8-10 digits, e.g. "4202.31.60.00"
)

// HTSEntry is a single record of the Harmonized Tariff Schedule.
// Entries are immutable once loaded and owned by the catalog index.
type HTSEntry struct {
	// Code is the dotted hierarchical HTS code, e.g. "4202.31".
	Code string

	// Description is the tariff line description text.
	Description string

	// ParentCode is the code of the nearest shorter-prefix entry.
	// Empty for chapter-level entries.
	ParentCode string

	// Level is the hierarchy depth derived from the code.
	Level CodeLevel

	// GeneralRate is the column-2 general duty rate string, e.g. "4.5%" or "Free".
	GeneralRate string

	// Units lists the units of quantity for the line, e.g. ["No.", "kg"].
	Units []string

	// CountryNotes maps ISO country codes to special rate or unit notes.
	CountryNotes map[string]string
}

// Chapter returns the 2-digit chapter prefix of the entry's code.
func (e HTSEntry) Chapter() string {
	return CodeChapter(e.Code)
}

// Valid reports whether the entry can be indexed. Entries without a code
// or description would poison the index and must fail the build.
func (e HTSEntry) Valid() bool {
	return codeDigits(e.Code) != "" && strings.TrimSpace(e.Description) != ""
}

// CodeChapter extracts the 2-digit chapter from an HTS code.
// Returns "" if the code is too short.
func CodeChapter(code string) string {
	d := codeDigits(code)
	if len(d) < 2 {
		return ""
	}
	return d[:2]
}

// CodeHeading extracts the 4-digit heading from an HTS code.
// Returns "" if the code is too short.
func CodeHeading(code string) string {
	d := codeDigits(code)
	if len(d) < 4 {
		return ""
	}
	return d[:4]
}

// LevelOf derives the hierarchy level from a dotted HTS code.
func LevelOf(code string) CodeLevel {
	switch n := len(codeDigits(code)); {
	case n <= 2:
		return LevelChapter
	case n <= 4:
		return LevelHeading
	case n <= 6:
		return LevelSubheading
	default:
		return LevelStatistical
	}
}

// codeDigits strips dot separators, keeping only the digit sequence.
func codeDigits(code string) string {
	var b strings.Builder
	for _, r := range code {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
