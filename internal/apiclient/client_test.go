package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/h2non/gock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/granme/caprisystem/pkg/types"
)

const testURL = "http://api.capri.test"

// newMockedClient returns a client whose transport is intercepted by gock.
func newMockedClient(t *testing.T, metrics *Metrics) *Client {
	t.Helper()
	c := New(Config{BaseURL: testURL + "/", HTTPClient: &http.Client{}, Metrics: metrics})
	gock.InterceptClient(c.HTTPClient())
	t.Cleanup(func() {
		gock.RestoreClient(c.HTTPClient())
		gock.OffAll()
	})
	return c
}

func noAuthHeader(req *http.Request, _ *gock.Request) (bool, error) {
	return req.Header.Get("Authorization") == "", nil
}

func TestGetAllAttachesTokenAndDropsInvalidRecords(t *testing.T) {
	c := newMockedClient(t, nil)
	c.UseSession(func() string { return "tok" }, nil)

	gock.New(testURL).
		Get("/goats").
		MatchHeader("Authorization", "^Bearer tok$").
		MatchHeader("Accept", "application/json").
		HeaderPresent("X-Request-ID").
		Reply(200).
		BodyString(`[
			{"id":1,"goat_id":"CAP001","name":"Perla","weight":"42.5"},
			{"id":0,"goat_id":"CAP002","name":"Sin id"},
			{"id":3,"goat_id":"CAP003","name":"Luna","weight":""},
			"not an object"
		]`)

	goats, err := NewResource[types.Goat](c, types.ResourceGoats).GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, goats, 2)
	assert.Equal(t, "CAP001", goats[0].GoatID)
	assert.Equal(t, 42.5, goats[0].Weight.Float())
	assert.Equal(t, "CAP003", goats[1].GoatID)
	assert.True(t, gock.IsDone())
}

func TestCRUDPaths(t *testing.T) {
	c := newMockedClient(t, nil)
	res := NewResource[types.Supplier](c, types.ResourceSuppliers)
	ctx := context.Background()

	gock.New(testURL).Get("/suppliers/4").Reply(200).JSON(map[string]any{"id": 4, "name": "Forrajes"})
	gock.New(testURL).Post("/suppliers").
		MatchType("json").
		JSON(map[string]any{"name": "Nuevo"}).
		Reply(201).JSON(map[string]any{"id": 9, "name": "Nuevo"})
	gock.New(testURL).Put("/suppliers/9").Reply(200).JSON(map[string]any{"id": 9, "name": "Renombrado"})
	gock.New(testURL).Delete("/suppliers/9").Reply(204)

	got, err := res.GetByID(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, "Forrajes", got.Name)

	created, err := res.Create(ctx, map[string]any{"name": "Nuevo"})
	require.NoError(t, err)
	assert.Equal(t, int64(9), created.ID)

	updated, err := res.Update(ctx, 9, map[string]any{"name": "Renombrado"})
	require.NoError(t, err)
	assert.Equal(t, "Renombrado", updated.Name)

	require.NoError(t, res.Delete(ctx, 9))
	assert.True(t, gock.IsDone())

	_, err = res.GetByID(ctx, 0)
	assert.ErrorIs(t, err, types.ErrInvalidID)
	assert.ErrorIs(t, res.Delete(ctx, -1), types.ErrInvalidID)
}

func TestSingleRecordDecodeFailure(t *testing.T) {
	c := newMockedClient(t, nil)
	gock.New(testURL).Get("/goats/5").Reply(200).JSON(map[string]any{"id": 5})
	gock.New(testURL).Get("/goats/6").Reply(200).BodyString("{broken")

	_, err := NewResource[types.Goat](c, types.ResourceGoats).GetByID(context.Background(), 5)
	assert.True(t, IsKind(err, KindDecode))
	assert.ErrorIs(t, err, types.ErrInvalidRecord)

	_, err = NewResource[types.Goat](c, types.ResourceGoats).GetByID(context.Background(), 6)
	assert.True(t, IsKind(err, KindDecode))
}

func TestDuplicateGoatID(t *testing.T) {
	c := newMockedClient(t, nil)
	gock.New(testURL).Post("/goats").
		Reply(500).
		JSON(map[string]any{"message": "could not execute statement; Duplicate entry 'CAP010' for key 'goat_id'"})

	_, err := NewResource[types.Goat](c, types.ResourceGoats, goatRules...).
		Create(context.Background(), map[string]any{"goat_id": "CAP010"})

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindConflict, apiErr.Kind)
	assert.Equal(t, "goat_id", apiErr.Field)
	assert.Contains(t, apiErr.Message, "ID de la cabra")
}

func TestUnauthorizedRunsHook(t *testing.T) {
	c := newMockedClient(t, nil)
	cleared := 0
	c.UseSession(func() string { return "expired" }, func() { cleared++ })

	gock.New(testURL).Get("/sales").Reply(401)
	_, err := NewResource[types.Sale](c, types.ResourceSales).GetAll(context.Background())
	assert.True(t, IsKind(err, KindUnauthorized))
	assert.Equal(t, 1, cleared)

	gock.New(testURL).Post("/users/login").AddMatcher(noAuthHeader).Reply(401)
	_, err = NewUsers(c).Login(context.Background(), types.Credentials{Email: "a@b.c", Password: "x"})
	assert.True(t, IsKind(err, KindUnauthorized))
	assert.Equal(t, 1, cleared, "login failures do not clear the session")
	assert.True(t, gock.IsDone())
}

func TestUsersEndpoints(t *testing.T) {
	c := newMockedClient(t, nil)
	c.UseSession(func() string { return "tok" }, nil)
	users := NewUsers(c)
	ctx := context.Background()

	gock.New(testURL).Post("/users/login").
		AddMatcher(noAuthHeader).
		JSON(map[string]string{"email": "ana@granme.com", "password": "secret"}).
		Reply(200).
		JSON(map[string]any{"token": "jwt", "user": map[string]any{"id": 1, "email": "ana@granme.com"}})
	gock.New(testURL).Post("/users").
		AddMatcher(noAuthHeader).
		Reply(409).
		JSON(map[string]any{"message": "email already exists"})
	gock.New(testURL).Put("/users/1").
		MatchHeader("Authorization", "^Bearer tok$").
		Reply(200).
		JSON(map[string]any{"id": 1, "firstName": "Ana", "email": "ana@granme.com"})
	gock.New(testURL).Post("/users/logout").
		MatchHeader("Authorization", "^Bearer tok$").
		Reply(204)
	gock.New(testURL).Post("/forgot-password").
		AddMatcher(noAuthHeader).
		JSON(map[string]string{"email": "ana@granme.com"}).
		Reply(200)
	gock.New(testURL).Post("/forgot-password").
		AddMatcher(noAuthHeader).
		Reply(404)

	login, err := users.Login(ctx, types.Credentials{Email: "ana@granme.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "jwt", login.Token)
	require.NotNil(t, login.User)
	assert.Equal(t, int64(1), login.User.ID)

	_, err = users.Register(ctx, types.Registration{Email: "ana@granme.com"})
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "email", apiErr.Field)

	updated, err := users.UpdateProfile(ctx, 1, types.ProfileUpdate{FirstName: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "Ana", updated.FirstName)

	require.NoError(t, users.Logout(ctx))

	require.NoError(t, users.ForgotPassword(ctx, types.PasswordRecovery{Email: "ana@granme.com"}))
	err = users.ForgotPassword(ctx, types.PasswordRecovery{Email: "nadie@granme.com"})
	assert.True(t, IsKind(err, KindNotFound))
	assert.True(t, gock.IsDone())
}

func TestMetricsRecordRequests(t *testing.T) {
	m := NewMetrics()
	c := newMockedClient(t, m)
	gock.New(testURL).Get("/staff").Times(2).Reply(200).JSON([]any{})
	gock.New(testURL).Get("/staff/3").Reply(404)

	res := NewResource[types.Staff](c, types.ResourceStaff)
	ctx := context.Background()
	_, _ = res.GetAll(ctx)
	_, _ = res.GetAll(ctx)
	_, err := res.GetByID(ctx, 3)
	assert.True(t, IsKind(err, KindNotFound))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("staff", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("staff", "GET", "404")))

	var out strings.Builder
	require.NoError(t, m.WriteText(&out))
	assert.Contains(t, out.String(), "capri_api_requests_total")
	assert.Contains(t, out.String(), "capri_api_request_duration_seconds")

	var none *Metrics
	assert.NoError(t, none.WriteText(&out))
}

func TestTimeoutIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := NewResource[types.Goat](c, types.ResourceGoats).GetAll(context.Background())

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindUnreachable, apiErr.Kind)
	assert.Equal(t, MsgUnreachable, apiErr.Message)
	assert.True(t, isTimeout(apiErr.Err))
}

func TestClosedServerIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(Config{BaseURL: url})
	err := NewResource[types.Goat](c, types.ResourceGoats).Delete(context.Background(), 1)
	assert.True(t, IsKind(err, KindUnreachable))
}

func TestCanceledContextIsNotAnAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	c := New(Config{BaseURL: srv.URL})
	_, err := NewResource[types.Goat](c, types.ResourceGoats).GetAll(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, KindUnknown, KindOf(err))
}
