// Package form owns the working copy of a record while it is created or
// edited: it initializes the draft, validates it on submit and drives the
// dialog through its states until the server confirms the write.
package form

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// Errors maps a field name to a readable validation message.
type Errors map[string]string

// Fields returns the fields with errors in sorted order.
func (e Errors) Fields() []string {
	out := make([]string, 0, len(e))
	for f := range e {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// ValidationError is returned by Submit when the draft does not validate.
type ValidationError struct {
	Errors Errors
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, f := range e.Errors.Fields() {
		parts = append(parts, f+": "+e.Errors[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Dialog errors.
var (
	ErrInvalidState = errors.New("operation not allowed in the current dialog state")
	ErrUnknownField = errors.New("unknown form field")
)

// Schema describes how a record of type T is drafted and validated.
type Schema[T any] struct {
	// Label names one record in messages, e.g. "caprino".
	Label string

	// Defaults returns the draft of a new record.
	Defaults func() T

	Rules []Rule

	// UpdatePayload builds the body sent when editing. Nil sends the draft.
	UpdatePayload func(T) any
}

func (s Schema[T]) label() string {
	if s.Label == "" {
		return "registro"
	}
	return s.Label
}

// Validate runs every rule against draft. The first failing rule of a field
// sets its message.
func Validate[T any](s Schema[T], draft T) Errors {
	values, err := toValues(draft)
	if err != nil {
		return Errors{"": fmt.Sprintf("no se pudo leer el formulario: %v", err)}
	}
	errs := Errors{}
	for _, r := range s.Rules {
		if _, done := errs[r.Field]; done {
			continue
		}
		if msg := r.Check(values[r.Field], values); msg != "" {
			errs[r.Field] = msg
		}
	}
	return errs
}

// Values is a record flattened to its JSON fields.
type Values map[string]any

func toValues(v any) (Values, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := Values{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
