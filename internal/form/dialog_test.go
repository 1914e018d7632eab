package form

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/granme/caprisystem/internal/apiclient"
	"github.com/granme/caprisystem/internal/listview"
	"github.com/granme/caprisystem/internal/notify"
	"github.com/granme/caprisystem/pkg/types"
)

var goatSchema = Schema[types.Goat]{
	Label: "caprino",
	Defaults: func() types.Goat {
		return types.Goat{Gender: types.GenderFemale, Status: types.GoatStatusActive}
	},
	Rules: append(Required("goat_id", "name", "breed", "birthDate", "gender"),
		OneOf("gender", types.GoatGenders...),
		Date("birthDate"),
	),
	UpdatePayload: func(g types.Goat) any {
		return map[string]any{"name": g.Name, "breed": g.Breed, "birthDate": g.BirthDate, "gender": g.Gender}
	},
}

// recordingGateway records every call and answers with the configured
// result.
type recordingGateway struct {
	mu      sync.Mutex
	creates []any
	updates map[int64]any
	nextID  int64
	err     error
}

func (g *recordingGateway) Create(_ context.Context, payload any) (types.Goat, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.creates = append(g.creates, payload)
	if g.err != nil {
		return types.Goat{}, g.err
	}
	goat := payload.(types.Goat)
	g.nextID++
	goat.ID = g.nextID
	return goat, nil
}

func (g *recordingGateway) Update(_ context.Context, id int64, payload any) (types.Goat, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.updates == nil {
		g.updates = map[int64]any{}
	}
	g.updates[id] = payload
	if g.err != nil {
		return types.Goat{}, g.err
	}
	p := payload.(map[string]any)
	return types.Goat{ID: id, GoatID: "CAP001", Name: p["name"].(string), Breed: p["breed"].(string)}, nil
}

func (g *recordingGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.creates) + len(g.updates)
}

func newCollection(t *testing.T, goats ...types.Goat) *listview.Engine[types.Goat] {
	t.Helper()
	e := listview.New[types.Goat](listview.Descriptor{Name: "goats"}, nil, listview.Options{})
	e.SetRecords(goats)
	t.Cleanup(e.Close)
	return e
}

func fillGoat(t *testing.T, d *Dialog[types.Goat]) {
	t.Helper()
	for field, value := range map[string]string{
		"goat_id":   "CAP010",
		"name":      "Perla",
		"breed":     "Saanen",
		"birthDate": "2023-01-01",
		"gender":    "FEMALE",
	} {
		require.NoError(t, d.SetText(field, value))
	}
}

func TestMissingRequiredFieldNeverReachesGateway(t *testing.T) {
	gw := &recordingGateway{}
	goats := newCollection(t)
	d := NewDialog(goatSchema, gw, goats, Options{})

	require.NoError(t, d.Open(nil))
	require.NoError(t, d.Set("name", "Perla"))
	require.NoError(t, d.Set("breed", "   "))

	_, err := d.Submit(context.Background())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, MsgRequired, verr.Errors["goat_id"])
	assert.Equal(t, MsgRequired, verr.Errors["breed"])
	assert.Equal(t, MsgRequired, verr.Errors["birthDate"])
	assert.NotContains(t, verr.Errors, "name")
	assert.Equal(t, StateInvalid, d.State())
	assert.Equal(t, verr.Errors, d.Errors())
	assert.Equal(t, 0, gw.calls())
	assert.Empty(t, goats.Records())

	_, err = d.Submit(context.Background())
	require.Error(t, err, "validation is rerun on every submit")
	assert.Equal(t, 0, gw.calls())
}

func TestCreateGoat(t *testing.T) {
	gw := &recordingGateway{nextID: 9}
	goats := newCollection(t, types.Goat{ID: 1, GoatID: "CAP001", Name: "Vieja"})
	rec := &notify.Recorder{}
	d := NewDialog(goatSchema, gw, goats, Options{Notifier: rec})

	require.NoError(t, d.Open(nil))
	assert.Equal(t, ModeCreate, d.Mode())
	fillGoat(t, d)

	created, err := d.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(10), created.ID)
	assert.Len(t, gw.creates, 1)

	all := goats.Records()
	require.Len(t, all, 2)
	n := 0
	for _, g := range all {
		if g.GoatID == "CAP010" {
			n++
		}
	}
	assert.Equal(t, 1, n)
	assert.Equal(t, "CAP010", all[0].GoatID, "created records are prepended")

	assert.Equal(t, StateClosed, d.State())
	assert.Equal(t, types.Goat{}, d.Draft(), "closing resets the draft")
	assert.Equal(t, 1, rec.Count(notify.LevelSuccess))
}

func TestDuplicateGoatIDKeepsDialogOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"Duplicate entry 'CAP010' for key 'goats.goat_id'"}`))
	}))
	defer srv.Close()

	client := apiclient.New(apiclient.Config{BaseURL: srv.URL})
	res := apiclient.NewResource[types.Goat](client, types.ResourceGoats, apiclient.ConflictRule{
		Field:    "goat_id",
		Patterns: []string{"goat_id"},
		Message:  "El ID de la cabra ya está registrado.",
	})
	before := []types.Goat{{ID: 1, GoatID: "CAP010", Name: "Perla"}}
	goats := newCollection(t, before...)
	rec := &notify.Recorder{}
	d := NewDialog(goatSchema, res, goats, Options{Notifier: rec})

	require.NoError(t, d.Open(nil))
	fillGoat(t, d)
	draft := d.Draft()

	_, err := d.Submit(context.Background())
	require.Error(t, err)
	assert.Contains(t, apiclient.Message(err), "ID de la cabra")
	assert.True(t, apiclient.IsKind(err, apiclient.KindConflict))

	assert.Equal(t, before, goats.Records(), "collection unchanged")
	assert.Equal(t, StateOpen, d.State())
	assert.Equal(t, draft, d.Draft(), "draft retained")

	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, notify.LevelError, last.Level)
	assert.Contains(t, last.Message, "ID de la cabra")
}

func TestEditSendsUpdatePayloadAndReplaces(t *testing.T) {
	gw := &recordingGateway{}
	original := types.Goat{ID: 1, GoatID: "CAP001", Name: "Perla", Breed: "Saanen", BirthDate: "2022-01-01", Gender: types.GenderFemale}
	goats := newCollection(t, original)
	d := NewDialog(goatSchema, gw, goats, Options{})

	require.NoError(t, d.Open(&original))
	assert.Equal(t, ModeEdit, d.Mode())
	assert.Equal(t, original, d.Draft())

	require.NoError(t, d.Set("name", "Perla II"))
	assert.Equal(t, "Perla", original.Name, "editing the draft leaves the record alone")

	updated, err := d.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Perla II", updated.Name)
	assert.NotContains(t, gw.updates[1], "goat_id")

	got, ok := goats.Find(1)
	require.True(t, ok)
	assert.Equal(t, "Perla II", got.Name)
	assert.Len(t, goats.Records(), 1)
}

func TestFailedSubmitReopens(t *testing.T) {
	gw := &recordingGateway{err: &apiclient.Error{Kind: apiclient.KindUnreachable, Message: apiclient.MsgUnreachable}}
	goats := newCollection(t)
	d := NewDialog(goatSchema, gw, goats, Options{})

	require.NoError(t, d.Open(nil))
	fillGoat(t, d)
	_, err := d.Submit(context.Background())
	assert.True(t, apiclient.IsKind(err, apiclient.KindUnreachable))
	assert.Equal(t, StateOpen, d.State())
	assert.Equal(t, "CAP010", d.Draft().GoatID)
	assert.Empty(t, goats.Records())

	gw.err = nil
	_, err = d.Submit(context.Background())
	require.NoError(t, err)
	assert.Len(t, goats.Records(), 1)
}

func TestCancelDiscardsDraft(t *testing.T) {
	gw := &recordingGateway{}
	d := NewDialog(goatSchema, gw, newCollection(t), Options{})

	assert.ErrorIs(t, d.Cancel(), ErrInvalidState)

	require.NoError(t, d.Open(nil))
	assert.ErrorIs(t, d.Open(nil), ErrInvalidState, "already open")
	require.NoError(t, d.Set("name", "Temporal"))
	require.NoError(t, d.Cancel())
	assert.Equal(t, StateClosed, d.State())
	assert.Equal(t, types.Goat{}, d.Draft())
	assert.ErrorIs(t, d.Set("name", "x"), ErrInvalidState)

	_, err := d.Submit(context.Background())
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 0, gw.calls())

	require.NoError(t, d.Open(nil))
	assert.Equal(t, types.GenderFemale, d.Draft().Gender, "new drafts start from defaults")
}

func TestSetField(t *testing.T) {
	d := NewDialog(goatSchema, &recordingGateway{}, newCollection(t), Options{})
	require.NoError(t, d.Open(nil))

	assert.ErrorIs(t, d.Set("color", "blanco"), ErrUnknownField)

	require.NoError(t, d.SetText("weight", "42.5"))
	assert.Equal(t, 42.5, d.Draft().Weight.Float())

	require.NoError(t, d.SetText("goat_id", "0001"))
	assert.Equal(t, "0001", d.Draft().GoatID)

	require.NoError(t, d.SetText("parent_id", "7"))
	require.NotNil(t, d.Draft().ParentID)
	assert.Equal(t, int64(7), *d.Draft().ParentID)

	err := d.Set("parent_id", "not a number")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnknownField))
}
