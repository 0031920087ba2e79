package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jonwraymond/courtlistener/query"
	"github.com/jonwraymond/courtlistener/schema"
	"github.com/jonwraymond/courtlistener/telemetry"
)

const (
	DefaultBaseURL = "https://www.courtlistener.com/api/rest/v4"
	DefaultTimeout = 300 * time.Second
	TokenEnv       = "COURTLISTENER_API_TOKEN"
)

// Options configures New.
type Options struct {
	// Token is sent as "Authorization: Token <token>". Empty means
	// the COURTLISTENER_API_TOKEN environment variable.
	Token string
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
	// Timeout applies when HTTPClient is nil. Defaults to DefaultTimeout.
	Timeout time.Duration
	// HTTPClient replaces the default otelhttp-instrumented client.
	HTTPClient *http.Client
	// Logger receives one debug event per request. The zero value discards.
	Logger zerolog.Logger
	// Registry defaults to schema.Default().
	Registry *schema.Registry
	// Metrics is optional.
	Metrics *telemetry.Metrics
}

// Client issues requests to the CourtListener API. It is safe for
// concurrent use.
type Client struct {
	token     string
	baseURL   string
	http      *http.Client
	log       zerolog.Logger
	registry  *schema.Registry
	validator *query.Validator
	metrics   *telemetry.Metrics
}

// New returns a client. It fails with ErrMissingToken when no token is
// configured.
func New(opts Options) (*Client, error) {
	token := opts.Token
	if token == "" {
		token = os.Getenv(TokenEnv)
	}
	if token == "" {
		return nil, ErrMissingToken
	}

	base := opts.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	base = strings.TrimRight(base, "/")
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	reg := opts.Registry
	if reg == nil {
		reg = schema.Default()
	}

	return &Client{
		token:     token,
		baseURL:   base,
		http:      httpClient,
		log:       opts.Logger,
		registry:  reg,
		validator: query.New(reg),
		metrics:   opts.Metrics,
	}, nil
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Registry returns the endpoint registry used to validate filters.
func (c *Client) Registry() *schema.Registry { return c.registry }

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// Resource returns the resource for an endpoint id.
func (c *Client) Resource(id string) (*Resource, error) {
	e, err := c.registry.Endpoint(id)
	if err != nil {
		return nil, err
	}
	return &Resource{client: c, endpoint: e}, nil
}

// MustResource is Resource that panics on an unknown id.
func (c *Client) MustResource(id string) *Resource {
	r, err := c.Resource(id)
	if err != nil {
		panic(err)
	}
	return r
}

// resolve joins ref to the base URL. A path that repeats the tail of the
// base URL, such as a next link of "/api/rest/v4/dockets/?cursor=x", has
// the repeated part stripped first.
func (c *Client) resolve(ref string, params url.Values) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", ref, err)
	}
	path := u.Path
	path = path[overlap(c.baseURL, path):]

	target := c.baseURL + path
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	return target, nil
}

// overlap returns the length of the longest proper prefix of path that base
// ends with.
func overlap(base, path string) int {
	for i := len(path) - 1; i > 0; i-- {
		if strings.HasSuffix(base, path[:i]) {
			return i
		}
	}
	return 0
}

// do sends one request and decodes a 2xx JSON body into out. label names
// the endpoint in logs and metrics.
func (c *Client) do(ctx context.Context, method, label, ref string, params url.Values, out any) error {
	target, err := c.resolve(ref, params)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	rsp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.ObserveRequest(label, method, 0, elapsed)
		c.log.Debug().Err(err).Str("method", method).Str("url", target).Dur("duration", elapsed).Msg("request failed")
		return fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer rsp.Body.Close()

	c.metrics.ObserveRequest(label, method, rsp.StatusCode, elapsed)
	c.log.Debug().
		Str("method", method).
		Str("endpoint", label).
		Str("url", target).
		Int("status", rsp.StatusCode).
		Dur("duration", elapsed).
		Msg("request")

	if rsp.StatusCode < 200 || rsp.StatusCode >= 300 {
		return parseError(rsp, method, req.URL.Path)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, rsp.Body)
		return nil
	}

	if err := json.NewDecoder(rsp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, req.URL.Path, err)
	}
	return nil
}
