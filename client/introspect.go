package client

import (
	"context"
	"net/http"
	"slices"

	"github.com/jonwraymond/courtlistener/schema"
)

// Endpoints lists the API root: endpoint id to endpoint URL.
func (c *Client) Endpoints(ctx context.Context) (map[string]string, error) {
	var out map[string]string
	if err := c.do(ctx, http.MethodGet, "root", "/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Describe returns the OPTIONS introspection of one endpoint.
func (c *Client) Describe(ctx context.Context, id string) (schema.Options, error) {
	var out schema.Options
	err := c.do(ctx, http.MethodOptions, id, "/"+id+"/", nil, &out)
	return out, err
}

// Refresh rebuilds the catalog from live introspection. The search
// endpoints, which OPTIONS does not describe, are carried over from the
// client's registry. Endpoints that fail to describe are logged and
// skipped.
func (c *Client) Refresh(ctx context.Context) (*schema.Registry, error) {
	root, err := c.Endpoints(ctx)
	if err != nil {
		return nil, err
	}

	var keep []*schema.Endpoint
	for _, e := range c.registry.Endpoints() {
		if e.IsSearch() {
			cp := *e
			cp.Fields = slices.Clone(e.Fields)
			keep = append(keep, &cp)
		}
	}

	ids := make([]string, 0, len(root))
	for id := range root {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	options := make(map[string]schema.Options, len(ids))
	for _, id := range ids {
		if e, err := c.registry.Endpoint(id); err == nil && e.IsSearch() {
			continue
		}
		opts, err := c.Describe(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.log.Warn().Err(err).Str("endpoint", id).Msg("skipping endpoint")
			continue
		}
		options[id] = opts
	}
	return schema.NewRegistry(schema.ConvertOptions(options, keep...)...)
}
