package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// Resource is a REST collection of T under one path.
type Resource[T any] struct {
	client *Client
	path   string
}

// NewResource binds path on c, for example NewResource[User](c, "/users").
func NewResource[T any](c *Client, path string) *Resource[T] {
	return &Resource[T]{client: c, path: "/" + strings.Trim(path, "/")}
}

// Path returns the collection path.
func (r *Resource[T]) Path() string { return r.path }

func (r *Resource[T]) item(id string) string {
	return r.path + "/" + url.PathEscape(id)
}

// List fetches one page.
func (r *Resource[T]) List(ctx context.Context, l ListParams) (Page[T], error) {
	pp := r.client.PageParams()
	data, err := r.client.Do(ctx, http.MethodGet, r.path, pp.Query(l), nil)
	if err != nil {
		return Page[T]{}, err
	}
	p, err := DecodePage[T](data)
	if err != nil {
		return p, &Error{Method: http.MethodGet, Path: r.path, Status: http.StatusOK, Message: "unexpected list payload", Err: err}
	}
	if pp.ZeroBased {
		p.Current = max(l.Page, 1)
	}
	return p, nil
}

// Get fetches one item.
func (r *Resource[T]) Get(ctx context.Context, id string) (T, error) {
	var v T
	err := r.client.Get(ctx, r.item(id), nil, &v)
	return v, err
}

// Create posts a new item and returns what the backend echoed back.
func (r *Resource[T]) Create(ctx context.Context, body any) (T, error) {
	var v T
	err := r.client.Post(ctx, r.path, body, &v)
	return v, err
}

// Update replaces an item.
func (r *Resource[T]) Update(ctx context.Context, id string, body any) (T, error) {
	var v T
	err := r.client.Put(ctx, r.item(id), body, &v)
	return v, err
}

// Delete removes one item.
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	return r.client.Delete(ctx, r.item(id), nil)
}

// DeleteBatch removes several items in one call.
func (r *Resource[T]) DeleteBatch(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.client.Delete(ctx, r.path+"/batch", map[string][]string{"ids": ids})
}
