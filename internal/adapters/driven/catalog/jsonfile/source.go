// Package jsonfile loads the HTS catalog from the published JSON
// chapter exports (htsdata*.json). Each file is an array of tariff
// lines with an indent column; parent codes are recovered by walking
// backwards to the nearest shallower-indent line with a prefix code.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/clearfreight-labs/htsclass/internal/core/domain"
	"github.com/clearfreight-labs/htsclass/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.CatalogSource = (*Source)(nil)

// rawEntry is the published HTS JSON line format.
type rawEntry struct {
	HTSNo       string          `json:"htsno"`
	Description string          `json:"description"`
	Indent      json.RawMessage `json:"indent"` // string in some exports, number in others
	General     string          `json:"general"`
	Special     string          `json:"special"`
	Units       []string        `json:"units"`
	Superior    bool            `json:"superior"`
}

// Source reads HTS entries from a directory of chapter JSON files.
type Source struct {
	dir string
}

// NewSource creates a catalog source for the given data directory.
func NewSource(dir string) *Source {
	return &Source{dir: dir}
}

// Dir returns the data directory being read.
func (s *Source) Dir() string {
	return s.dir
}

// Entries loads every tariff line from all chapter files, in file then
// line order. Section headers (superior lines and lines without a code)
// are skipped; a file that fails to parse fails the whole load since a
// partial catalog silently produces wrong classifications.
func (s *Source) Entries(ctx context.Context) ([]domain.HTSEntry, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "htsdata*.json"))
	if err != nil {
		return nil, fmt.Errorf("globbing catalog files: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no htsdata*.json files in %s", domain.ErrDatasetInvalid, s.dir)
	}
	sort.Strings(paths)

	var entries []domain.HTSEntry
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chapter, err := loadChapter(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrDatasetInvalid, filepath.Base(path), err)
		}
		entries = append(entries, chapter...)
	}
	return entries, nil
}

// loadChapter parses one chapter file into domain entries.
func loadChapter(path string) ([]domain.HTSEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw []rawEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}

	// First pass keeps indexable lines along with their indent so the
	// second pass can resolve parents.
	type line struct {
		entry  domain.HTSEntry
		indent int
	}
	var lines []line
	for _, r := range raw {
		code := strings.TrimSpace(r.HTSNo)
		if code == "" || r.Superior {
			continue
		}
		lines = append(lines, line{
			entry: domain.HTSEntry{
				Code:         code,
				Description:  strings.TrimSpace(r.Description),
				Level:        domain.LevelOf(code),
				GeneralRate:  strings.TrimSpace(r.General),
				Units:        cleanUnits(r.Units),
				CountryNotes: parseSpecial(r.Special),
			},
			indent: parseIndent(r.Indent),
		})
	}

	// Parent is the nearest earlier line with a shallower indent whose
	// code prefixes this one.
	entries := make([]domain.HTSEntry, 0, len(lines))
	for i, ln := range lines {
		for j := i - 1; j >= 0; j-- {
			if lines[j].indent < ln.indent && strings.HasPrefix(ln.entry.Code, lines[j].entry.Code) {
				ln.entry.ParentCode = lines[j].entry.Code
				break
			}
		}
		entries = append(entries, ln.entry)
	}
	return entries, nil
}

// parseIndent tolerates both `"indent": "2"` and `"indent": 2`.
func parseIndent(raw json.RawMessage) int {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// cleanUnits drops empty unit strings.
func cleanUnits(units []string) []string {
	var out []string
	for _, u := range units {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// parseSpecial extracts country programme notes from the special-rate
// column, e.g. "Free (A,AU,BH,CA)" becomes {"A": "Free", "AU": "Free", ...}.
// Text that does not follow the rate-with-programme-list shape is kept
// under the "*" key so no information is dropped.
func parseSpecial(special string) map[string]string {
	special = strings.TrimSpace(special)
	if special == "" {
		return nil
	}

	open := strings.Index(special, "(")
	close := strings.LastIndex(special, ")")
	if open < 0 || close <= open {
		return map[string]string{"*": special}
	}

	rate := strings.TrimSpace(special[:open])
	notes := make(map[string]string)
	for _, code := range strings.Split(special[open+1:close], ",") {
		if code = strings.TrimSpace(code); code != "" {
			notes[code] = rate
		}
	}
	if len(notes) == 0 {
		return map[string]string{"*": special}
	}
	return notes
}
