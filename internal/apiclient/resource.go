package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/granme/caprisystem/pkg/types"
)

// Entity is a record the API can return: it has an ID, exposes its fields
// and can check its identity after decoding.
type Entity interface {
	types.Record
	types.Checker
}

// Resource exposes the CRUD endpoints of one collection at /<name>.
type Resource[T Entity] struct {
	client *Client
	name   string
	rules  []ConflictRule
}

// NewResource binds the collection name to c. rules identify which field
// collided when the server rejects a write as a duplicate.
func NewResource[T Entity](c *Client, name string, rules ...ConflictRule) *Resource[T] {
	return &Resource[T]{client: c, name: name, rules: rules}
}

// Name returns the collection name.
func (r *Resource[T]) Name() string { return r.name }

func (r *Resource[T]) path(id int64) string {
	if id == 0 {
		return "/" + r.name
	}
	return fmt.Sprintf("/%s/%d", r.name, id)
}

func (r *Resource[T]) req(method string, id int64, body any) request {
	return request{
		method:   method,
		path:     r.path(id),
		resource: r.name,
		body:     body,
		rules:    r.rules,
	}
}

// GetAll fetches the whole collection. Items that do not decode or fail
// their identity check are dropped and logged.
func (r *Resource[T]) GetAll(ctx context.Context) ([]T, error) {
	var raw []json.RawMessage
	if err := r.client.do(ctx, r.req(http.MethodGet, 0, nil), &raw); err != nil {
		return nil, err
	}

	out := make([]T, 0, len(raw))
	for i, item := range raw {
		var rec T
		if err := json.Unmarshal(item, &rec); err != nil {
			r.client.log.Warnw("dropping undecodable record", "resource", r.name, "index", i, "error", err)
			continue
		}
		if err := rec.Check(); err != nil {
			r.client.log.Warnw("dropping invalid record", "resource", r.name, "index", i, "error", err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// GetByID fetches one record.
func (r *Resource[T]) GetByID(ctx context.Context, id int64) (T, error) {
	var zero T
	if id <= 0 {
		return zero, types.ErrInvalidID
	}
	return r.one(ctx, r.req(http.MethodGet, id, nil))
}

// Create posts payload and returns the created record.
func (r *Resource[T]) Create(ctx context.Context, payload any) (T, error) {
	return r.one(ctx, r.req(http.MethodPost, 0, payload))
}

// Update puts payload to the record and returns the updated record.
func (r *Resource[T]) Update(ctx context.Context, id int64, payload any) (T, error) {
	var zero T
	if id <= 0 {
		return zero, types.ErrInvalidID
	}
	return r.one(ctx, r.req(http.MethodPut, id, payload))
}

// Delete removes the record.
func (r *Resource[T]) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return types.ErrInvalidID
	}
	return r.client.do(ctx, r.req(http.MethodDelete, id, nil), nil)
}

func (r *Resource[T]) one(ctx context.Context, req request) (T, error) {
	var rec T
	if err := r.client.do(ctx, req, &rec); err != nil {
		return rec, err
	}
	if err := rec.Check(); err != nil {
		return rec, &Error{Kind: KindDecode, Message: MsgDecode, Err: err}
	}
	return rec, nil
}
