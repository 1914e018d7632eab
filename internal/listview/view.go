package listview

import (
	"slices"
	"strconv"
	"strings"

	"github.com/granme/caprisystem/pkg/types"
)

// Page is one page of a derived view.
type Page[T any] struct {
	Records    []T
	Number     int // current page, 1-based
	TotalPages int // at least 1
	Total      int // matching records across all pages
	PageSize   int
}

// PageCount returns the number of pages needed for total records, never
// less than 1.
func PageCount(total, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	if total <= 0 {
		return 1
	}
	return (total + size - 1) / size
}

// ApplyView searches, filters and sorts records, then returns the page
// selected by s. The page number is clamped to the available pages. records
// is not modified.
func ApplyView[T types.Record](records []T, d Descriptor, s State) Page[T] {
	matched := Derive(records, d, s)
	size := d.pageSize()
	pages := PageCount(len(matched), size)
	n := clampPage(s.Page, pages)

	start := (n - 1) * size
	end := min(start+size, len(matched))
	return Page[T]{
		Records:    slices.Clone(matched[start:end]),
		Number:     n,
		TotalPages: pages,
		Total:      len(matched),
		PageSize:   size,
	}
}

// Derive returns the searched, filtered and sorted records without
// pagination.
func Derive[T types.Record](records []T, d Descriptor, s State) []T {
	out := make([]T, 0, len(records))
	term := strings.TrimSpace(s.Search)
	for _, r := range records {
		if matchesSearch(r, d, term) && matchesFilters(r, s.Filters) {
			out = append(out, r)
		}
	}
	sortRecords(out, s.Sort)
	return out
}

func matchesSearch[T types.Record](r T, d Descriptor, term string) bool {
	if term == "" {
		return true
	}
	if d.IDSearch && isDigits(term) && strconv.FormatInt(r.RecordID(), 10) == term {
		return true
	}
	needle := strings.ToLower(term)
	for _, field := range d.Searchable {
		if strings.Contains(strings.ToLower(Format(r.Field(field))), needle) {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}

func matchesFilters[T types.Record](r T, filters map[string][]string) bool {
	for dim, selected := range filters {
		if len(selected) == 0 {
			continue
		}
		if !slices.Contains(selected, Format(r.Field(dim))) {
			return false
		}
	}
	return true
}

// sortRecords sorts rs in place. Ascending is a stable sort; descending is
// its exact mirror.
func sortRecords[T types.Record](rs []T, s Sort) {
	if s.Field == "" {
		return
	}
	slices.SortStableFunc(rs, func(a, b T) int {
		return Compare(a.Field(s.Field), b.Field(s.Field))
	})
	if s.Direction == Descending {
		slices.Reverse(rs)
	}
}

// Facets returns, for each dimension, the distinct non-empty values present
// in records in first-seen order.
func Facets[T types.Record](records []T, dimensions []string) map[string][]string {
	out := make(map[string][]string, len(dimensions))
	for _, dim := range dimensions {
		seen := make(map[string]bool)
		values := []string{}
		for _, r := range records {
			v := Format(r.Field(dim))
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			values = append(values, v)
		}
		out[dim] = values
	}
	return out
}
