package screen

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/granme/caprisystem/internal/apiclient"
	"github.com/granme/caprisystem/internal/notify"
	"github.com/granme/caprisystem/pkg/types"
)

const testURL = "http://api.capri.test"

func newSet(t *testing.T, rec *notify.Recorder) *Set {
	t.Helper()
	c := apiclient.New(apiclient.Config{BaseURL: testURL, HTTPClient: &http.Client{}})
	gock.InterceptClient(c.HTTPClient())
	opts := Options{Retries: -1}
	if rec != nil {
		opts.Notifier = rec
	}
	s := New(c, opts)
	t.Cleanup(func() {
		s.Close()
		gock.RestoreClient(c.HTTPClient())
		gock.OffAll()
	})
	return s
}

// bodyLacks matches JSON bodies without field.
func bodyLacks(field string) gock.MatchFunc {
	return func(req *http.Request, _ *gock.Request) (bool, error) {
		data, err := io.ReadAll(req.Body)
		if err != nil {
			return false, err
		}
		req.Body = io.NopCloser(bytes.NewReader(data))
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			return false, err
		}
		_, has := m[field]
		return !has, nil
	}
}

func herd() []map[string]any {
	return []map[string]any{
		{"id": 1, "goat_id": "CAP001", "name": "Perla", "breed": "Saanen", "gender": "FEMALE", "weight": 40},
		{"id": 2, "goat_id": "CAP002", "name": "Tito", "breed": "Alpina", "gender": "MALE", "weight": "55", "parent_id": 1},
		{"id": 3, "goat_id": "CAP003", "name": "Luna", "breed": "Saanen", "gender": "FEMALE", "weight": 38},
	}
}

func TestNamesFollowMenuOrder(t *testing.T) {
	s := newSet(t, nil)
	assert.Equal(t, types.StandardResourceNames, s.Names())

	_, err := s.Get("cows")
	assert.ErrorIs(t, err, types.ErrUnknownResource)
}

func TestOpenJoinsLookups(t *testing.T) {
	s := newSet(t, nil)
	gock.New(testURL).Get("/products").Reply(200).JSON([]map[string]any{
		{"id": 1, "code": "P01", "name": "Sal mineral", "unit": "kg", "stock": 12, "supplier_id": 7},
		{"id": 2, "code": "P02", "name": "Heno", "unit": "kg", "stock": 3, "supplier_id": 8},
	})
	gock.New(testURL).Get("/suppliers").Reply(200).JSON([]map[string]any{
		{"id": 7, "name": "Forrajes del Valle", "tax_id": "1790012345001"},
	})

	sc, err := s.Open(context.Background(), types.ResourceProducts)
	require.NoError(t, err)
	tbl, err := sc.Query(Query{})
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 2)

	last := len(tbl.Headers) - 1
	assert.Equal(t, "Proveedor", tbl.Headers[last])
	assert.Equal(t, "Forrajes del Valle", tbl.Rows[0][last])
	assert.Equal(t, "8", tbl.Rows[1][last])
	assert.True(t, gock.IsDone())
}

func TestOpenSurvivesFailedLookup(t *testing.T) {
	rec := &notify.Recorder{}
	s := newSet(t, rec)
	gock.New(testURL).Get("/product-outputs").Reply(200).JSON([]map[string]any{
		{"id": 1, "product_id": 4, "quantity": 2, "date": "2024-05-01"},
	})
	gock.New(testURL).Get("/products").Reply(500)

	sc, err := s.Open(context.Background(), types.ResourceProductOutputs)
	require.NoError(t, err)
	tbl, err := sc.Query(Query{})
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "4", tbl.Rows[0][0])
	assert.Equal(t, 1, rec.Count(notify.LevelError))
}

func TestOpenReportsMainFailure(t *testing.T) {
	s := newSet(t, nil)
	gock.New(testURL).Get("/staff").Reply(403)

	_, err := s.Open(context.Background(), types.ResourceStaff)
	assert.True(t, apiclient.IsKind(err, apiclient.KindForbidden))
}

func TestQuery(t *testing.T) {
	s := newSet(t, nil)
	gock.New(testURL).Get("/goats").Reply(200).JSON(herd())
	sc, err := s.Open(context.Background(), types.ResourceGoats)
	require.NoError(t, err)

	tbl, err := sc.Query(Query{Filters: map[string][]string{"gender": {"FEMALE"}}, Sort: "weight", Desc: true})
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "CAP001", tbl.Rows[0][0])
	assert.Equal(t, "CAP003", tbl.Rows[1][0])
	assert.Equal(t, 2, tbl.Total)

	tbl, err = sc.Query(Query{Search: "2"})
	require.NoError(t, err)
	require.Len(t, tbl.Records, 1)
	assert.Equal(t, "CAP002", tbl.Records[0].(types.Goat).GoatID)
	assert.Equal(t, "CAP001 Perla", tbl.Rows[0][len(tbl.Rows[0])-1], "parent resolved within the herd")

	tbl, err = sc.Query(Query{Page: 9})
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Page)

	_, err = sc.Query(Query{Filters: map[string][]string{"color": {"negro"}}})
	assert.ErrorIs(t, err, types.ErrUnknownField)
	_, err = sc.Query(Query{Sort: "color"})
	assert.ErrorIs(t, err, types.ErrUnknownField)

	assert.Equal(t, []string{"Saanen", "Alpina"}, sc.Facets()["breed"])
}

func TestCreatePrependsConfirmedRecord(t *testing.T) {
	rec := &notify.Recorder{}
	s := newSet(t, rec)
	gock.New(testURL).Get("/goats").Reply(200).JSON(herd())
	gock.New(testURL).Post("/goats").
		AddMatcher(bodyLacks("id")).
		Reply(201).
		JSON(map[string]any{"id": 10, "goat_id": "CAP010", "name": "Nieve", "breed": "Saanen", "gender": "FEMALE"})

	sc, err := s.Open(context.Background(), types.ResourceGoats)
	require.NoError(t, err)
	got, err := sc.Create(context.Background(), []Assignment{
		{"goat_id", "CAP010"},
		{"name", "Nieve"},
		{"breed", "Saanen"},
		{"birthDate", "2024-01-15"},
		{"weight", "12.5"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.(types.Goat).ID)

	tbl, err := sc.Query(Query{})
	require.NoError(t, err)
	assert.Equal(t, "CAP010", tbl.Rows[0][0])
	assert.Equal(t, 4, tbl.Total)
	assert.Equal(t, 1, rec.Count(notify.LevelSuccess))
	assert.True(t, gock.IsDone())
}

func TestCreateRejectsInvalidDraftWithoutRequest(t *testing.T) {
	s := newSet(t, nil)
	sc, err := s.Get(types.ResourceSales)
	require.NoError(t, err)

	_, err = sc.Create(context.Background(), []Assignment{{"sale_id", "V001"}, {"client_id", "123"}})
	errs, ok := IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "La cédula debe tener 10 dígitos", errs["client_id"])
	assert.Equal(t, "Debe seleccionar un usuario", errs["user_id"])
	assert.False(t, gock.HasUnmatchedRequest())

	// The dialog is usable again.
	_, err = sc.Create(context.Background(), nil)
	_, ok = IsValidation(err)
	assert.True(t, ok)
}

func TestUpdateFetchesCollectionAndOmitsBusinessCode(t *testing.T) {
	s := newSet(t, nil)
	gock.New(testURL).Get("/staff").Reply(200).JSON([]map[string]any{
		{"id": 1, "staff_id": "E01", "first_name": "Ana", "last_name": "Mora", "dni": "0911", "staff_type": "ADMINISTRATIVO"},
	})
	gock.New(testURL).Put("/staff/1").
		AddMatcher(bodyLacks("staff_id")).
		Reply(200).
		JSON(map[string]any{"id": 1, "staff_id": "E01", "first_name": "Ana", "last_name": "Mora Ruiz", "dni": "0911", "staff_type": "ADMINISTRATIVO"})

	sc, err := s.Get(types.ResourceStaff)
	require.NoError(t, err)
	got, err := sc.Update(context.Background(), 1, []Assignment{{"last_name", "Mora Ruiz"}})
	require.NoError(t, err)
	assert.Equal(t, "Ana Mora Ruiz", got.(types.Staff).FullName())

	label, ok := sc.Label(1)
	assert.True(t, ok)
	assert.Equal(t, "Ana Mora Ruiz", label)
	assert.True(t, gock.IsDone())
}

func TestUpdateUnknownRecord(t *testing.T) {
	s := newSet(t, nil)
	gock.New(testURL).Get("/suppliers").Reply(200).JSON([]any{})
	sc, err := s.Get(types.ResourceSuppliers)
	require.NoError(t, err)

	_, err = sc.Update(context.Background(), 5, []Assignment{{"name", "X"}})
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = sc.Update(context.Background(), 0, nil)
	assert.ErrorIs(t, err, types.ErrInvalidID)
}

func TestDelete(t *testing.T) {
	rec := &notify.Recorder{}
	s := newSet(t, rec)
	gock.New(testURL).Delete("/goats/2").Reply(204)
	gock.New(testURL).Get("/goats").Reply(200).JSON(herd())

	sc, err := s.Get(types.ResourceGoats)
	require.NoError(t, err)
	require.NoError(t, sc.Delete(context.Background(), 2))

	_, ok := sc.Label(2)
	assert.False(t, ok)
	last, _ := rec.Last()
	assert.Equal(t, notify.LevelSuccess, last.Level)
}

func TestExport(t *testing.T) {
	s := newSet(t, nil)
	gock.New(testURL).Get("/goats").Reply(200).JSON(herd())
	sc, err := s.Open(context.Background(), types.ResourceGoats)
	require.NoError(t, err)
	_, err = sc.Query(Query{Filters: map[string][]string{"breed": {"Saanen"}}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, sc.Export(&buf, FormatCSV))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus every matching record")
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "CAP001", rows[1][0])

	buf.Reset()
	require.NoError(t, sc.Export(&buf, FormatJSON))
	var goats []types.Goat
	require.NoError(t, json.Unmarshal(buf.Bytes(), &goats))
	assert.Len(t, goats, 2)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" CSV ")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseFormat("xlsx")
	assert.True(t, err != nil && strings.Contains(err.Error(), "xlsx"))
}

func TestLoadAll(t *testing.T) {
	s := newSet(t, nil)
	gock.New(testURL).Get("/goats").Reply(200).JSON(herd())
	gock.New(testURL).Get("/vaccines").Reply(200).JSON([]map[string]any{
		{"id": 1, "goat_id": 3, "name": "Aftosa", "dose": 2, "unit": "ml", "application_date": "2024-02-01"},
	})

	require.NoError(t, s.LoadAll(context.Background(), types.ResourceGoats, types.ResourceVaccines))
	label, ok := s.Label(types.ResourceGoats, 3)
	assert.True(t, ok)
	assert.Equal(t, "CAP003 Luna", label)

	vac, err := s.Get(types.ResourceVaccines)
	require.NoError(t, err)
	tbl, err := vac.Query(Query{})
	require.NoError(t, err)
	assert.Equal(t, "CAP003 Luna", tbl.Rows[0][0])

	assert.ErrorIs(t, s.LoadAll(context.Background(), "cows"), types.ErrUnknownResource)
}
