// Package entity describes each collection the admin client manages: how
// it is searched and filtered, how its records are drafted and validated,
// which server conflicts it can report, and how it is shown in a table.
package entity

import (
	"strconv"

	"github.com/goccy/go-json"

	"github.com/granme/caprisystem/internal/apiclient"
	"github.com/granme/caprisystem/internal/form"
	"github.com/granme/caprisystem/internal/listview"
)

// Relations resolves records of other collections for display.
type Relations interface {
	// Label returns a short name for record id of resource.
	Label(resource string, id int64) (string, bool)
}

type noRelations struct{}

func (noRelations) Label(string, int64) (string, bool) { return "", false }

// NoRelations resolves nothing.
var NoRelations Relations = noRelations{}

// Column is one table column.
type Column[T any] struct {
	Header string
	Field  string // sort key
	Value  func(r T, rel Relations) string
}

// Kind describes one collection of records of type T.
type Kind[T apiclient.Entity] struct {
	// Name is the API collection, e.g. "goats".
	Name string

	Singular string
	Plural   string

	View      listview.Descriptor
	Form      form.Schema[T]
	Conflicts []apiclient.ConflictRule
	Columns   []Column[T]

	// Related lists the collections the columns look up.
	Related []string

	// Label names a record when another collection refers to it.
	Label func(T) string
}

// Row renders r with the kind's columns.
func (k Kind[T]) Row(r T, rel Relations) []string {
	if rel == nil {
		rel = NoRelations
	}
	row := make([]string, len(k.Columns))
	for i, c := range k.Columns {
		row[i] = c.Value(r, rel)
	}
	return row
}

// Headers returns the column headers.
func (k Kind[T]) Headers() []string {
	out := make([]string, len(k.Columns))
	for i, c := range k.Columns {
		out[i] = c.Header
	}
	return out
}

// field is a column showing a field as text.
func field[T apiclient.Entity](header, name string) Column[T] {
	return Column[T]{Header: header, Field: name, Value: func(r T, _ Relations) string {
		return listview.Format(r.Field(name))
	}}
}

// ref is a column showing the label of the record of resource that field
// name points to, falling back to the raw value.
func ref[T apiclient.Entity](header, name, resource string) Column[T] {
	return Column[T]{Header: header, Field: name, Value: func(r T, rel Relations) string {
		raw := listview.Format(r.Field(name))
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return raw
		}
		if label, ok := rel.Label(resource, id); ok {
			return label
		}
		return raw
	}}
}

// without returns the JSON fields of v minus id and the given fields. Edit
// payloads use it to leave out immutable business codes.
func without(v any, fields ...string) any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return v
	}
	delete(m, "id")
	for _, f := range fields {
		delete(m, f)
	}
	return m
}

func conflict(field, message string, patterns ...string) apiclient.ConflictRule {
	return apiclient.ConflictRule{Field: field, Patterns: append([]string{field}, patterns...), Message: message}
}
