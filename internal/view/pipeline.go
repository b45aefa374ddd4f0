package view

import (
	"sort"
	"strings"

	"github.com/amaumene/cinearchive/internal/models"
	"golang.org/x/text/cases"
)

// Page is one derived page of the view
type Page struct {
	Records   []models.Record `json:"records"`
	Total     int             `json:"total"`     // Records matching the filters
	PageIndex int             `json:"page"`      // 1-based
	PageCount int             `json:"pageCount"` // 0 when nothing matches
	PageSize  int             `json:"pageSize"`
}

// Derive filters, sorts and paginates records. It never modifies its input
// and an out-of-range page yields an empty page rather than an error.
// Ties in the sort keep the relative order of the input.
func Derive(records []models.Record, state State) Page {
	filtered := Filter(records, state)
	Sort(filtered, state.Sort)

	pageIndex := state.PageIndex
	if pageIndex < 1 {
		pageIndex = 1
	}

	page := Page{
		Records:   []models.Record{},
		Total:     len(filtered),
		PageIndex: pageIndex,
		PageCount: (len(filtered) + PageSize - 1) / PageSize,
		PageSize:  PageSize,
	}

	if pageIndex > page.PageCount {
		return page
	}
	start := (pageIndex - 1) * PageSize
	end := start + PageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	page.Records = filtered[start:end]
	return page
}

// Filter returns a new slice with the records matching the type, status and
// search selection
func Filter(records []models.Record, state State) []models.Record {
	fold := cases.Fold()
	needle := fold.String(state.SearchText)

	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if !state.Type.matches(r) || !state.Status.matches(r) {
			continue
		}
		if needle != "" && !strings.Contains(fold.String(r.Title), needle) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Sort orders records in place, stably
func Sort(records []models.Record, key SortKey) {
	switch key {
	case SortOrdinalAsc:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Ordinal < records[j].Ordinal
		})
	case SortRatingDesc:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Rating > records[j].Rating
		})
	default:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Ordinal > records[j].Ordinal
		})
	}
}
