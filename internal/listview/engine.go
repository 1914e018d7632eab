package listview

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/granme/caprisystem/internal/apiclient"
	"github.com/granme/caprisystem/internal/notify"
	"github.com/granme/caprisystem/pkg/types"
)

// Defaults for Options.
const (
	DefaultRetries   = 3
	DefaultRetryStep = time.Second
)

// ErrClosed is returned by operations whose results arrive after Close.
var ErrClosed = errors.New("list view is closed")

// Source fetches and deletes records of one collection.
type Source[T any] interface {
	GetAll(ctx context.Context) ([]T, error)
	Delete(ctx context.Context, id int64) error
}

// Options tune an Engine. Zero values select the defaults.
type Options struct {
	Retries   int // retries after the first failed initial load; negative disables
	RetryStep time.Duration
	Notifier  notify.Notifier
	Logger    *zap.SugaredLogger
}

// Engine holds a collection and its view state. All methods are safe for
// concurrent use. Results of requests that complete after Close are
// discarded.
type Engine[T types.Record] struct {
	desc    Descriptor
	src     Source[T]
	retries int
	step    time.Duration
	notify  notify.Notifier
	log     *zap.SugaredLogger

	life context.Context
	end  context.CancelFunc

	mu      sync.Mutex
	records []T
	state   State
	loading bool
}

// New returns an engine over src. The collection is empty until Load.
func New[T types.Record](desc Descriptor, src Source[T], opts Options) *Engine[T] {
	if opts.Retries == 0 {
		opts.Retries = DefaultRetries
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.RetryStep <= 0 {
		opts.RetryStep = DefaultRetryStep
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Discard
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	life, cancel := context.WithCancel(context.Background())
	return &Engine[T]{
		desc:    desc,
		src:     src,
		retries: opts.Retries,
		step:    opts.RetryStep,
		notify:  opts.Notifier,
		log:     opts.Logger.With("collection", desc.Name),
		life:    life,
		end:     cancel,
		state:   NewState(),
	}
}

// Descriptor returns the descriptor the engine was built with.
func (e *Engine[T]) Descriptor() Descriptor { return e.desc }

// scope derives a context cancelled when either ctx or the engine lifetime
// ends.
func (e *Engine[T]) scope(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(e.life, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (e *Engine[T]) closed() bool { return e.life.Err() != nil }

// Close ends the engine lifetime and cancels in-flight requests.
func (e *Engine[T]) Close() { e.end() }

// Loading reports whether a load or refresh is in flight.
func (e *Engine[T]) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}

func (e *Engine[T]) setLoading(v bool) {
	e.mu.Lock()
	e.loading = v
	e.mu.Unlock()
}

// Load fetches the collection, retrying failures with a linear backoff.
// On failure the collection keeps its last known contents and an error
// notification is sent.
func (e *Engine[T]) Load(ctx context.Context) error {
	return e.fetch(ctx, e.retries)
}

// Refresh fetches the collection once, without retrying.
func (e *Engine[T]) Refresh(ctx context.Context) error {
	return e.fetch(ctx, 0)
}

func (e *Engine[T]) fetch(ctx context.Context, retries int) error {
	if e.closed() {
		return ErrClosed
	}
	ctx, cancel := e.scope(ctx)
	defer cancel()

	e.setLoading(true)
	defer e.setLoading(false)

	var records []T
	attempts := 0
	op := func() error {
		attempts++
		got, err := e.src.GetAll(ctx)
		if err != nil {
			if ctx.Err() != nil || !apiclient.Retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		records = got
		return nil
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(&linearBackOff{step: e.step}, uint64(retries)), ctx)
	onRetry := func(err error, wait time.Duration) {
		e.log.Infow("load failed, retrying", "attempt", attempts, "wait", wait, "error", err)
	}

	err := backoff.RetryNotify(op, policy, onRetry)
	if e.closed() {
		e.log.Debugw("discarding load result after close", "attempts", attempts)
		return ErrClosed
	}
	if err != nil {
		e.log.Warnw("load failed", "attempts", attempts, "error", err)
		e.notify.Notify(notify.Error("Error",
			fmt.Sprintf("No se pudieron cargar los %s. %s", e.desc.label(), apiclient.Message(err))))
		return fmt.Errorf("loading %s: %w", e.desc.Name, err)
	}

	e.mu.Lock()
	e.records = records
	e.mu.Unlock()
	e.log.Debugw("collection loaded", "records", len(records), "attempts", attempts)
	return nil
}

// Records returns a copy of the collection in collection order.
func (e *Engine[T]) Records() []T {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.records)
}

// SetRecords replaces the collection, for screens that received it from
// elsewhere.
func (e *Engine[T]) SetRecords(records []T) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.records = slices.Clone(records)
}

// Find returns the record with id.
func (e *Engine[T]) Find(id int64) (T, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range e.records {
		if r.RecordID() == id {
			return r, true
		}
	}
	var zero T
	return zero, false
}

// InsertRecord puts a record confirmed by the server at the front of the
// collection.
func (e *Engine[T]) InsertRecord(r T) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.records = slices.Insert(e.records, 0, r)
}

// ReplaceRecord swaps the record with id for r.
func (e *Engine[T]) ReplaceRecord(id int64, r T) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.indexOf(id)
	if i < 0 {
		return fmt.Errorf("replace %s %d: %w", e.desc.Name, id, types.ErrNotFound)
	}
	e.records[i] = r
	return nil
}

// RemoveRecord drops the record with id and reports whether it was present.
func (e *Engine[T]) RemoveRecord(id int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.indexOf(id)
	if i < 0 {
		return false
	}
	e.records = slices.Delete(e.records, i, i+1)
	return true
}

func (e *Engine[T]) indexOf(id int64) int {
	return slices.IndexFunc(e.records, func(r T) bool { return r.RecordID() == id })
}

// Delete asks the server to delete id and removes the record locally once
// the server confirms.
func (e *Engine[T]) Delete(ctx context.Context, id int64) error {
	if _, ok := e.Find(id); !ok {
		return fmt.Errorf("delete %s %d: %w", e.desc.Name, id, types.ErrNotFound)
	}
	if e.closed() {
		return ErrClosed
	}
	ctx, cancel := e.scope(ctx)
	defer cancel()

	err := e.src.Delete(ctx, id)
	if e.closed() {
		return ErrClosed
	}
	if err != nil {
		e.log.Warnw("delete failed", "id", id, "error", err)
		e.notify.Notify(notify.Error("Error", "No se pudo eliminar el registro. "+apiclient.Message(err)))
		return fmt.Errorf("delete %s %d: %w", e.desc.Name, id, err)
	}
	e.RemoveRecord(id)
	e.notify.Notify(notify.Success("Registro eliminado", fmt.Sprintf("El registro %d fue eliminado correctamente.", id)))
	return nil
}

// State returns the current view state.
func (e *Engine[T]) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// SetState replaces the view state.
func (e *Engine[T]) SetState(s State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = s
}

// View returns the current page of the derived view.
func (e *Engine[T]) View() Page[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ApplyView(e.records, e.desc, e.state)
}

func (e *Engine[T]) update(f func(State) State) Page[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = f(e.state)
	return ApplyView(e.records, e.desc, e.state)
}

// SetSearchTerm applies State.SetSearchTerm and returns the new page.
func (e *Engine[T]) SetSearchTerm(term string) Page[T] {
	return e.update(func(s State) State { return s.SetSearchTerm(term) })
}

// ToggleFilterValue applies State.ToggleFilterValue and returns the new page.
func (e *Engine[T]) ToggleFilterValue(dimension, value string) Page[T] {
	return e.update(func(s State) State { return s.ToggleFilterValue(dimension, value) })
}

// ClearFilters applies State.ClearFilters and returns the new page.
func (e *Engine[T]) ClearFilters() Page[T] {
	return e.update(func(s State) State { return s.ClearFilters() })
}

// RequestSort applies State.RequestSort and returns the new page.
func (e *Engine[T]) RequestSort(field string) Page[T] {
	return e.update(func(s State) State { return s.RequestSort(field) })
}

// SetPage moves to page n, clamped to the pages of the current view.
func (e *Engine[T]) SetPage(n int) Page[T] {
	return e.update(func(s State) State {
		total := len(Derive(e.records, e.desc, s))
		return s.SetPage(n, PageCount(total, e.desc.pageSize()))
	})
}

// Facets returns the distinct values of each filter dimension.
func (e *Engine[T]) Facets() map[string][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Facets(e.records, e.desc.Dimensions)
}
