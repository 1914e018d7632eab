// Package listview derives searchable, filterable, sortable, paginated views
// over a client-side collection and keeps that collection in step with the
// server after each confirmed write.
package listview

import "slices"

// DefaultPageSize is the number of records per page when a descriptor does
// not set one.
const DefaultPageSize = 8

// Descriptor lists the fields a view searches and filters on.
type Descriptor struct {
	// Name identifies the collection in logs and notifications.
	Name string

	// Label is a human name for the collection, used in messages.
	Label string

	// Searchable fields are matched case-insensitively against the search term.
	Searchable []string

	// Dimensions are the fields offered as filters.
	Dimensions []string

	// IDSearch makes an all-digit search term also match the record whose ID
	// equals it, in addition to the substring match on Searchable.
	IDSearch bool

	PageSize int
}

func (d Descriptor) pageSize() int {
	if d.PageSize <= 0 {
		return DefaultPageSize
	}
	return d.PageSize
}

func (d Descriptor) label() string {
	if d.Label != "" {
		return d.Label
	}
	return d.Name
}

// Direction of a sort.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// Sort is the active sort. An empty Field keeps collection order.
type Sort struct {
	Field     string
	Direction Direction
}

// State is the search, filter, sort and page selection of a view. State
// values are immutable: transitions return a new State.
type State struct {
	Search  string
	Filters map[string][]string
	Sort    Sort
	Page    int
}

// NewState returns the initial state: no search, no filters, page 1.
func NewState() State {
	return State{Page: 1}
}

func (s State) cloneFilters() map[string][]string {
	out := make(map[string][]string, len(s.Filters))
	for dim, values := range s.Filters {
		out[dim] = slices.Clone(values)
	}
	return out
}

// SetSearchTerm replaces the search term and returns to page 1.
func (s State) SetSearchTerm(term string) State {
	s.Filters = s.cloneFilters()
	s.Search = term
	s.Page = 1
	return s
}

// ToggleFilterValue adds value to the selection of dimension, or removes it
// when already selected, and returns to page 1.
func (s State) ToggleFilterValue(dimension, value string) State {
	filters := s.cloneFilters()
	selected := filters[dimension]
	if i := slices.Index(selected, value); i >= 0 {
		selected = slices.Delete(selected, i, i+1)
	} else {
		selected = append(selected, value)
	}
	if len(selected) == 0 {
		delete(filters, dimension)
	} else {
		filters[dimension] = selected
	}
	s.Filters = filters
	s.Page = 1
	return s
}

// ClearFilters drops every filter selection and the search term, and
// returns to page 1.
func (s State) ClearFilters() State {
	s.Filters = nil
	s.Search = ""
	s.Page = 1
	return s
}

// RequestSort sorts by field. Requesting the active field toggles the
// direction; a new field starts ascending. Returns to page 1.
func (s State) RequestSort(field string) State {
	s.Filters = s.cloneFilters()
	if s.Sort.Field == field && s.Sort.Direction == Ascending {
		s.Sort.Direction = Descending
	} else {
		s.Sort = Sort{Field: field, Direction: Ascending}
	}
	s.Page = 1
	return s
}

// SetPage moves to page n clamped to [1, lastPage].
func (s State) SetPage(n, lastPage int) State {
	s.Filters = s.cloneFilters()
	s.Page = clampPage(n, lastPage)
	return s
}

// Selected reports whether value is selected for dimension.
func (s State) Selected(dimension, value string) bool {
	return slices.Contains(s.Filters[dimension], value)
}

func clampPage(n, lastPage int) int {
	if lastPage < 1 {
		lastPage = 1
	}
	return min(max(n, 1), lastPage)
}
