// Package screen binds an entity kind to its list engine, its create/edit
// dialog and its REST resource, and exposes the result through a single
// non-generic Screen the shell can drive by resource name.
package screen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/granme/caprisystem/internal/apiclient"
	"github.com/granme/caprisystem/internal/entity"
	"github.com/granme/caprisystem/internal/form"
	"github.com/granme/caprisystem/internal/listview"
	"github.com/granme/caprisystem/internal/notify"
	"github.com/granme/caprisystem/pkg/types"
)

// Assignment sets one draft field from text.
type Assignment struct {
	Field string
	Value string
}

// Query selects what a list shows. Filters holds the values toggled on per
// dimension.
type Query struct {
	Search  string
	Filters map[string][]string
	Sort    string
	Desc    bool
	Page    int
}

// Table is one rendered page.
type Table struct {
	Resource   string
	Headers    []string
	Rows       [][]string
	Records    []any
	Page       int
	TotalPages int
	Total      int
}

// Screen is one collection screen.
type Screen interface {
	Name() string
	Singular() string
	Plural() string
	Related() []string

	Load(ctx context.Context) error
	Refresh(ctx context.Context) error
	Loading() bool

	Query(q Query) (Table, error)
	Facets() map[string][]string
	Label(id int64) (string, bool)

	Get(ctx context.Context, id int64) (any, error)
	Create(ctx context.Context, fields []Assignment) (any, error)
	Update(ctx context.Context, id int64, fields []Assignment) (any, error)
	Delete(ctx context.Context, id int64) error

	Export(w io.Writer, format Format) error
	Close()
}

// Options tune every screen of a Set.
type Options struct {
	PageSize  int
	Retries   int
	RetryStep time.Duration
	Notifier  notify.Notifier
	Logger    *zap.SugaredLogger
}

// page is the Screen over records of type T.
type page[T apiclient.Entity] struct {
	kind   entity.Kind[T]
	res    *apiclient.Resource[T]
	engine *listview.Engine[T]
	dialog *form.Dialog[T]
	rel    entity.Relations
	log    *zap.SugaredLogger
}

func bind[T apiclient.Entity](k entity.Kind[T], c *apiclient.Client, rel entity.Relations, opts Options) *page[T] {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	desc := k.View
	if opts.PageSize > 0 {
		desc.PageSize = opts.PageSize
	}
	res := apiclient.NewResource[T](c, k.Name, k.Conflicts...)
	engine := listview.New(desc, listview.Source[T](res), listview.Options{
		Retries:   opts.Retries,
		RetryStep: opts.RetryStep,
		Notifier:  opts.Notifier,
		Logger:    opts.Logger,
	})
	dialog := form.NewDialog(k.Form, form.Gateway[T](res), form.Committer[T](engine), form.Options{
		Notifier: opts.Notifier,
		Logger:   opts.Logger.With("collection", k.Name),
	})
	return &page[T]{kind: k, res: res, engine: engine, dialog: dialog, rel: rel, log: opts.Logger}
}

func (p *page[T]) Name() string      { return p.kind.Name }
func (p *page[T]) Singular() string  { return p.kind.Singular }
func (p *page[T]) Plural() string    { return p.kind.Plural }
func (p *page[T]) Related() []string { return slices.Clone(p.kind.Related) }
func (p *page[T]) Loading() bool     { return p.engine.Loading() }
func (p *page[T]) Close()            { p.engine.Close() }

func (p *page[T]) Load(ctx context.Context) error    { return p.engine.Load(ctx) }
func (p *page[T]) Refresh(ctx context.Context) error { return p.engine.Refresh(ctx) }

func (p *page[T]) Facets() map[string][]string { return p.engine.Facets() }

func (p *page[T]) Label(id int64) (string, bool) {
	r, ok := p.engine.Find(id)
	if !ok || p.kind.Label == nil {
		return "", false
	}
	return p.kind.Label(r), true
}

// sortable reports whether field can order the list.
func (p *page[T]) sortable(field string) bool {
	if field == "id" || slices.Contains(p.kind.View.Searchable, field) || slices.Contains(p.kind.View.Dimensions, field) {
		return true
	}
	return slices.ContainsFunc(p.kind.Columns, func(c entity.Column[T]) bool { return c.Field == field })
}

// state builds the view state q asks for.
func (p *page[T]) state(q Query) (listview.State, error) {
	s := listview.NewState().SetSearchTerm(q.Search)
	for _, d := range slices.Sorted(maps.Keys(q.Filters)) {
		if !slices.Contains(p.kind.View.Dimensions, d) {
			return s, fmt.Errorf("filter %s on %s: %w", d, p.kind.Name, types.ErrUnknownField)
		}
		for _, v := range q.Filters[d] {
			if !s.Selected(d, v) {
				s = s.ToggleFilterValue(d, v)
			}
		}
	}
	if q.Sort != "" {
		if !p.sortable(q.Sort) {
			return s, fmt.Errorf("sort %s by %s: %w", p.kind.Name, q.Sort, types.ErrUnknownField)
		}
		s = s.RequestSort(q.Sort)
		if q.Desc {
			s = s.RequestSort(q.Sort)
		}
	}
	return s, nil
}

func (p *page[T]) Query(q Query) (Table, error) {
	s, err := p.state(q)
	if err != nil {
		return Table{}, err
	}
	n := q.Page
	if n < 1 {
		n = 1
	}
	p.engine.SetState(s)
	pg := p.engine.SetPage(n)

	t := Table{
		Resource:   p.kind.Name,
		Headers:    p.kind.Headers(),
		Rows:       make([][]string, 0, len(pg.Records)),
		Records:    make([]any, 0, len(pg.Records)),
		Page:       pg.Number,
		TotalPages: pg.TotalPages,
		Total:      pg.Total,
	}
	for _, r := range pg.Records {
		t.Rows = append(t.Rows, p.kind.Row(r, p.rel))
		t.Records = append(t.Records, r)
	}
	return t, nil
}

func (p *page[T]) Get(ctx context.Context, id int64) (any, error) {
	return p.res.GetByID(ctx, id)
}

// fill applies fields to the open draft and submits it. The dialog is
// closed again when the draft cannot be submitted.
func (p *page[T]) fill(ctx context.Context, fields []Assignment) (T, error) {
	var zero T
	for _, a := range fields {
		if err := p.dialog.SetText(a.Field, a.Value); err != nil {
			_ = p.dialog.Cancel()
			return zero, fmt.Errorf("set %s: %w", a.Field, err)
		}
	}
	rec, err := p.dialog.Submit(ctx)
	if err != nil {
		if st := p.dialog.State(); st == form.StateOpen || st == form.StateInvalid {
			_ = p.dialog.Cancel()
		}
		return zero, err
	}
	return rec, nil
}

func (p *page[T]) Create(ctx context.Context, fields []Assignment) (any, error) {
	if err := p.dialog.Open(nil); err != nil {
		return nil, err
	}
	return p.fill(ctx, fields)
}

// local returns record id from the collection, fetching the collection
// once when it does not hold the record yet.
func (p *page[T]) local(ctx context.Context, id int64) (T, error) {
	if r, ok := p.engine.Find(id); ok {
		return r, nil
	}
	if err := p.engine.Refresh(ctx); err != nil {
		var zero T
		return zero, err
	}
	if r, ok := p.engine.Find(id); ok {
		return r, nil
	}
	var zero T
	return zero, fmt.Errorf("%s %d: %w", p.kind.Name, id, types.ErrNotFound)
}

func (p *page[T]) Update(ctx context.Context, id int64, fields []Assignment) (any, error) {
	if id <= 0 {
		return nil, types.ErrInvalidID
	}
	existing, err := p.local(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := p.dialog.Open(&existing); err != nil {
		return nil, err
	}
	return p.fill(ctx, fields)
}

func (p *page[T]) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return types.ErrInvalidID
	}
	if _, err := p.local(ctx, id); err != nil {
		return err
	}
	return p.engine.Delete(ctx, id)
}

// IsValidation reports whether err is a rejected draft and returns its
// field messages.
func IsValidation(err error) (form.Errors, bool) {
	var verr *form.ValidationError
	if errors.As(err, &verr) {
		return verr.Errors, true
	}
	return nil, false
}
