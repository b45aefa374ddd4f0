package collection

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/amaumene/cinearchive/internal/models"
	"golang.org/x/text/cases"
)

const (
	// similarTitleDistance is the largest edit distance still treated as the same title
	similarTitleDistance = 2
	// Titles this short must match exactly, "Up" and "It" are not the same film
	shortTitleRunes = 6
)

// FindSimilar returns the records whose title is (nearly) the given title,
// ignoring case
func (s *Store) FindSimilar(title string) []models.Record {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(title))
	if needle == "" {
		return nil
	}

	maxDistance := similarTitleDistance
	if len([]rune(needle)) <= shortTitleRunes {
		maxDistance = 0
	}

	var matches []models.Record
	for _, record := range s.Records() {
		candidate := fold.String(strings.TrimSpace(record.Title))
		if levenshtein.ComputeDistance(needle, candidate) <= maxDistance {
			matches = append(matches, record)
		}
	}
	return matches
}
