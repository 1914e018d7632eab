package listview

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/granme/caprisystem/internal/apiclient"
	"github.com/granme/caprisystem/internal/notify"
	"github.com/granme/caprisystem/pkg/types"
)

// fakeSource fails the first failures calls to GetAll, then returns records.
type fakeSource struct {
	mu        sync.Mutex
	records   []types.Goat
	failures  int
	failWith  error
	calls     int
	deleted   []int64
	deleteErr error
	block     bool
}

func (f *fakeSource) GetAll(ctx context.Context) ([]types.Goat, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	block := f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if call <= f.failures {
		if f.failWith != nil {
			return nil, f.failWith
		}
		return nil, &apiclient.Error{Kind: apiclient.KindUnreachable, Message: apiclient.MsgUnreachable}
	}
	return f.records, nil
}

func (f *fakeSource) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newEngine(src *fakeSource, rec *notify.Recorder) *Engine[types.Goat] {
	return New[types.Goat](goatDesc, src, Options{RetryStep: time.Millisecond, Notifier: rec})
}

func TestLoadRecoversAfterTwoFailures(t *testing.T) {
	src := &fakeSource{records: herd(), failures: 2}
	rec := &notify.Recorder{}
	e := newEngine(src, rec)
	defer e.Close()

	require.NoError(t, e.Load(context.Background()))
	assert.Equal(t, 3, src.callCount())
	assert.Equal(t, herd(), e.Records())
	assert.Equal(t, 0, rec.Count(notify.LevelError))
	assert.False(t, e.Loading())
}

func TestLoadGivesUpAfterRetries(t *testing.T) {
	src := &fakeSource{records: herd(), failures: 10}
	rec := &notify.Recorder{}
	e := newEngine(src, rec)
	defer e.Close()

	err := e.Load(context.Background())
	require.Error(t, err)
	assert.True(t, apiclient.IsKind(err, apiclient.KindUnreachable))
	assert.Equal(t, 1+DefaultRetries, src.callCount())
	assert.Empty(t, e.Records(), "first failure leaves the collection empty")

	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, notify.LevelError, last.Level)
	assert.Contains(t, last.Message, "caprinos")
	assert.Contains(t, last.Message, apiclient.MsgUnreachable)
}

func TestRefreshDoesNotRetryAndKeepsLastState(t *testing.T) {
	src := &fakeSource{records: herd()}
	rec := &notify.Recorder{}
	e := newEngine(src, rec)
	defer e.Close()
	require.NoError(t, e.Load(context.Background()))

	src.mu.Lock()
	src.failures = 100
	src.mu.Unlock()

	require.Error(t, e.Refresh(context.Background()))
	assert.Equal(t, 2, src.callCount())
	assert.Len(t, e.Records(), len(herd()))
	assert.Equal(t, 1, rec.Count(notify.LevelError))
}

func TestLoadDoesNotRetryPermanentErrors(t *testing.T) {
	src := &fakeSource{failures: 5, failWith: &apiclient.Error{Kind: apiclient.KindForbidden, Message: apiclient.MsgForbidden}}
	e := newEngine(src, &notify.Recorder{})
	defer e.Close()

	err := e.Load(context.Background())
	assert.True(t, apiclient.IsKind(err, apiclient.KindForbidden))
	assert.Equal(t, 1, src.callCount())
}

func TestCloseDiscardsInFlightLoad(t *testing.T) {
	src := &fakeSource{block: true}
	rec := &notify.Recorder{}
	e := newEngine(src, rec)

	done := make(chan error, 1)
	go func() { done <- e.Load(context.Background()) }()

	require.Eventually(t, func() bool { return src.callCount() == 1 }, time.Second, time.Millisecond)
	e.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("load did not return after Close")
	}
	assert.Empty(t, e.Records())
	assert.Empty(t, rec.All(), "no notification after close")
	assert.ErrorIs(t, e.Refresh(context.Background()), ErrClosed)
}

func TestInsertRemoveRoundTrip(t *testing.T) {
	e := newEngine(&fakeSource{}, &notify.Recorder{})
	defer e.Close()
	e.SetRecords(herd())
	before := ids(e.Records())

	e.InsertRecord(types.Goat{ID: 99, GoatID: "CAP099", Name: "Nueva"})
	got := e.Records()
	assert.Equal(t, int64(99), got[0].ID, "new records go first")

	assert.True(t, e.RemoveRecord(99))
	assert.ElementsMatch(t, before, ids(e.Records()))
	assert.False(t, e.RemoveRecord(99))
}

func TestReplaceRecord(t *testing.T) {
	e := newEngine(&fakeSource{}, &notify.Recorder{})
	defer e.Close()
	e.SetRecords(herd())

	require.NoError(t, e.ReplaceRecord(3, types.Goat{ID: 3, GoatID: "CAP003", Name: "Luna Llena"}))
	g, ok := e.Find(3)
	require.True(t, ok)
	assert.Equal(t, "Luna Llena", g.Name)

	assert.ErrorIs(t, e.ReplaceRecord(77, types.Goat{ID: 77}), types.ErrNotFound)
}

func TestDelete(t *testing.T) {
	src := &fakeSource{}
	rec := &notify.Recorder{}
	e := newEngine(src, rec)
	defer e.Close()
	e.SetRecords(herd())

	require.NoError(t, e.Delete(context.Background(), 2))
	_, ok := e.Find(2)
	assert.False(t, ok)
	assert.Equal(t, []int64{2}, src.deleted)
	assert.Equal(t, 1, rec.Count(notify.LevelSuccess))

	assert.ErrorIs(t, e.Delete(context.Background(), 2), types.ErrNotFound)

	src.deleteErr = &apiclient.Error{Kind: apiclient.KindServer, Message: apiclient.MsgServer}
	err := e.Delete(context.Background(), 1)
	assert.True(t, apiclient.IsKind(err, apiclient.KindServer))
	_, ok = e.Find(1)
	assert.True(t, ok, "failed delete keeps the record")
	assert.Equal(t, 1, rec.Count(notify.LevelError))
}

func TestEngineViewTransitions(t *testing.T) {
	e := newEngine(&fakeSource{}, &notify.Recorder{})
	defer e.Close()
	e.SetRecords(herd())

	p := e.SetSearchTerm("saanen")
	assert.Equal(t, []int64{1, 3}, ids(p.Records))

	p = e.RequestSort("name")
	assert.Equal(t, []int64{3, 1}, ids(p.Records))

	p = e.ToggleFilterValue("status", types.GoatStatusSold)
	assert.Equal(t, []int64{3}, ids(p.Records))

	p = e.SetPage(4)
	assert.Equal(t, 1, p.Number)

	p = e.ClearFilters()
	assert.Len(t, p.Records, len(herd()))
	assert.Equal(t, "", e.State().Search)
	assert.Equal(t, []string{"Saanen", "Alpina", "Nubia"}, e.Facets()["breed"])
}

func TestNonAPIErrorsAreRetried(t *testing.T) {
	src := &fakeSource{records: herd(), failures: 1, failWith: errors.New("connection reset")}
	e := newEngine(src, &notify.Recorder{})
	defer e.Close()

	require.NoError(t, e.Load(context.Background()))
	assert.Equal(t, 2, src.callCount())
}
