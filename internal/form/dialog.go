package form

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/looplab/fsm"
	"github.com/tiendc/go-deepcopy"
	"go.uber.org/zap"

	"github.com/granme/caprisystem/internal/apiclient"
	"github.com/granme/caprisystem/internal/notify"
	"github.com/granme/caprisystem/pkg/types"
)

// Dialog states.
const (
	StateClosed     = "closed"
	StateOpen       = "open"
	StateValidating = "validating"
	StateInvalid    = "invalid"
	StateSubmitting = "submitting"
)

// Dialog events.
const (
	EventOpen     = "open"
	EventValidate = "validate"
	EventReject   = "reject"
	EventSubmit   = "submit"
	EventSucceed  = "succeed"
	EventFail     = "fail"
	EventCancel   = "cancel"
)

var dialogEvents = fsm.Events{
	{Name: EventOpen, Src: []string{StateClosed}, Dst: StateOpen},
	{Name: EventValidate, Src: []string{StateOpen, StateInvalid}, Dst: StateValidating},
	{Name: EventReject, Src: []string{StateValidating}, Dst: StateInvalid},
	{Name: EventSubmit, Src: []string{StateValidating}, Dst: StateSubmitting},
	{Name: EventSucceed, Src: []string{StateSubmitting}, Dst: StateClosed},
	{Name: EventFail, Src: []string{StateSubmitting}, Dst: StateOpen},
	{Name: EventCancel, Src: []string{StateOpen, StateInvalid}, Dst: StateClosed},
}

// Mode tells whether a dialog creates a new record or edits one.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// Gateway performs the server write of a submitted draft.
type Gateway[T any] interface {
	Create(ctx context.Context, payload any) (T, error)
	Update(ctx context.Context, id int64, payload any) (T, error)
}

// Committer applies a confirmed write to the local collection.
type Committer[T any] interface {
	InsertRecord(r T)
	ReplaceRecord(id int64, r T) error
}

// Options tune a Dialog.
type Options struct {
	Notifier notify.Notifier
	Logger   *zap.SugaredLogger
}

// Dialog is the create/edit dialog of one collection. The draft lives only
// in the dialog until the server confirms the write.
type Dialog[T types.Record] struct {
	schema Schema[T]
	gw     Gateway[T]
	commit Committer[T]
	notify notify.Notifier
	log    *zap.SugaredLogger

	mu      sync.Mutex
	machine *fsm.FSM
	mode    Mode
	editID  int64
	draft   T
	errs    Errors
}

// NewDialog returns a closed dialog.
func NewDialog[T types.Record](schema Schema[T], gw Gateway[T], commit Committer[T], opts Options) *Dialog[T] {
	if opts.Notifier == nil {
		opts.Notifier = notify.Discard
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	d := &Dialog[T]{
		schema: schema,
		gw:     gw,
		commit: commit,
		notify: opts.Notifier,
		log:    opts.Logger,
	}
	d.machine = fsm.NewFSM(StateClosed, dialogEvents, fsm.Callbacks{
		"enter_state": func(_ context.Context, e *fsm.Event) {
			d.log.Debugw("dialog transition", "event", e.Event, "from", e.Src, "to", e.Dst)
		},
	})
	return d
}

// fire runs event on the state machine. Caller holds d.mu.
func (d *Dialog[T]) fire(ctx context.Context, event string) error {
	if err := d.machine.Event(ctx, event); err != nil {
		return fmt.Errorf("%s in state %s: %w", event, d.machine.Current(), ErrInvalidState)
	}
	return nil
}

// State returns the current dialog state.
func (d *Dialog[T]) State() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.machine.Current()
}

// Mode returns whether the open dialog creates or edits.
func (d *Dialog[T]) Mode() Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

// Open initializes the draft and opens the dialog. A nil existing starts a
// new record from the schema defaults; otherwise the draft is a deep copy
// of existing.
func (d *Dialog[T]) Open(existing *T) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var draft T
	mode, editID := ModeCreate, int64(0)
	if existing != nil {
		if err := deepcopy.Copy(&draft, existing); err != nil {
			return fmt.Errorf("copying record: %w", err)
		}
		mode, editID = ModeEdit, (*existing).RecordID()
	} else if d.schema.Defaults != nil {
		draft = d.schema.Defaults()
	}

	if err := d.fire(context.Background(), EventOpen); err != nil {
		return err
	}
	d.draft, d.mode, d.editID, d.errs = draft, mode, editID, nil
	return nil
}

// Draft returns a copy of the current draft.
func (d *Dialog[T]) Draft() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out T
	if err := deepcopy.Copy(&out, &d.draft); err != nil {
		return d.draft
	}
	return out
}

// Errors returns the validation errors of the last submit attempt.
func (d *Dialog[T]) Errors() Errors {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(Errors, len(d.errs))
	for k, v := range d.errs {
		out[k] = v
	}
	return out
}

func (d *Dialog[T]) editable() error {
	switch d.machine.Current() {
	case StateOpen, StateInvalid:
		return nil
	default:
		return fmt.Errorf("edit draft in state %s: %w", d.machine.Current(), ErrInvalidState)
	}
}

// Set assigns value to the draft field with the given JSON name.
func (d *Dialog[T]) Set(field string, value any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.editable(); err != nil {
		return err
	}
	next, err := setField(d.draft, field, value)
	if err != nil {
		return err
	}
	d.draft = next
	return nil
}

// SetText assigns a textual value: JSON is tried first so that numbers and
// booleans keep their type, then the raw string.
func (d *Dialog[T]) SetText(field, raw string) error {
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
		if err := d.Set(field, parsed); err == nil {
			return nil
		} else if !errors.Is(err, errFieldType) {
			return err
		}
	}
	return d.Set(field, raw)
}

// Cancel discards the draft and closes the dialog without committing.
func (d *Dialog[T]) Cancel() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fire(context.Background(), EventCancel); err != nil {
		return err
	}
	d.reset()
	return nil
}

// reset clears the draft. Caller holds d.mu.
func (d *Dialog[T]) reset() {
	var zero T
	d.draft, d.mode, d.editID, d.errs = zero, ModeCreate, 0, nil
}

// Submit validates the draft and, when valid, writes it to the server. On
// success the collection is patched and the dialog closes. On a validation
// failure the dialog moves to invalid and no request is made. On a server
// or network failure the dialog reopens with the draft intact.
func (d *Dialog[T]) Submit(ctx context.Context) (T, error) {
	var zero T

	d.mu.Lock()
	if err := d.fire(ctx, EventValidate); err != nil {
		d.mu.Unlock()
		return zero, err
	}
	errs := Validate(d.schema, d.draft)
	d.errs = errs
	if len(errs) > 0 {
		_ = d.fire(ctx, EventReject)
		d.mu.Unlock()
		d.log.Debugw("draft rejected", "fields", errs.Fields())
		return zero, &ValidationError{Errors: errs}
	}
	if err := d.fire(ctx, EventSubmit); err != nil {
		d.mu.Unlock()
		return zero, err
	}
	draft, mode, id := d.draft, d.mode, d.editID
	d.mu.Unlock()

	var rec T
	var err error
	if mode == ModeEdit {
		var payload any = draft
		if d.schema.UpdatePayload != nil {
			payload = d.schema.UpdatePayload(draft)
		}
		rec, err = d.gw.Update(ctx, id, payload)
	} else {
		rec, err = d.gw.Create(ctx, draft)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		_ = d.fire(context.Background(), EventFail)
		d.log.Warnw("submit failed", "mode", mode.String(), "id", id, "error", err)
		d.notify.Notify(notify.Error("Error",
			fmt.Sprintf("No se pudo guardar el %s. %s", d.schema.label(), apiclient.Message(err))))
		return zero, err
	}

	if mode == ModeEdit {
		if cerr := d.commit.ReplaceRecord(id, rec); cerr != nil {
			d.log.Warnw("edited record missing locally, inserting", "id", id, "error", cerr)
			d.commit.InsertRecord(rec)
		}
		d.notify.Notify(notify.Success("Cambios guardados",
			fmt.Sprintf("El %s se actualizó correctamente.", d.schema.label())))
	} else {
		d.commit.InsertRecord(rec)
		d.notify.Notify(notify.Success("Registro creado",
			fmt.Sprintf("El %s se registró correctamente.", d.schema.label())))
	}
	_ = d.fire(context.Background(), EventSucceed)
	d.reset()
	return rec, nil
}

var errFieldType = errors.New("value does not fit field")

// fieldCache maps a struct type to its JSON field names.
var fieldCache sync.Map

func jsonFields(t reflect.Type) map[string]bool {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.(map[string]bool)
	}
	fields := make(map[string]bool)
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				continue
			}
			if name == "" {
				name = f.Name
			}
			fields[name] = true
		}
	}
	fieldCache.Store(t, fields)
	return fields
}

// setField returns a copy of draft with field set to value, going through
// the JSON representation of the record.
func setField[T any](draft T, field string, value any) (T, error) {
	if !jsonFields(reflect.TypeOf(draft))[field] {
		return draft, fmt.Errorf("%q: %w", field, ErrUnknownField)
	}
	values, err := toValues(draft)
	if err != nil {
		return draft, fmt.Errorf("reading draft: %w", err)
	}
	values[field] = value

	data, err := json.Marshal(values)
	if err != nil {
		return draft, fmt.Errorf("encoding draft: %w", err)
	}
	var next T
	if err := json.Unmarshal(data, &next); err != nil {
		return draft, fmt.Errorf("setting %q: %w: %v", field, errFieldType, err)
	}
	return next, nil
}
