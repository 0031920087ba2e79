package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jonwraymond/courtlistener/filter"
	"github.com/jonwraymond/courtlistener/schema"
)

// Resource is one API endpoint bound to a client.
type Resource struct {
	client   *Client
	endpoint *schema.Endpoint
}

// Endpoint returns the schema of the resource.
func (r *Resource) Endpoint() *schema.Endpoint { return r.endpoint }

// Validate returns the wire query for filters without sending anything.
func (r *Resource) Validate(filters map[string]any) (filter.Query, error) {
	return r.client.validator.Validate(r.endpoint.ID, filters)
}

// List validates filters and returns an iterator positioned before the
// first page. No request is made until the iterator is used.
func (r *Resource) List(filters map[string]any) (*Iterator, error) {
	e, q, err := r.client.validator.Resolve(r.endpoint.ID, filters)
	if err != nil {
		return nil, err
	}
	return &Iterator{client: r.client, endpoint: e, query: q}, nil
}

// Get fetches one record by id from {path}{id}/.
func (r *Resource) Get(ctx context.Context, id any) (map[string]any, error) {
	ref := r.endpoint.Path + url.PathEscape(filter.FormatValue(id)) + "/"
	var out map[string]any
	if err := r.client.do(ctx, http.MethodGet, r.endpoint.ID, ref, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Resource) String() string {
	return fmt.Sprintf("Resource(%s)", r.endpoint.ID)
}
