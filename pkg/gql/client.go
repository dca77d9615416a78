package gql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// defaultResultCacheSize bounds the denormalized result cache.
const defaultResultCacheSize = 256

// Request is one GraphQL operation.
type Request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName,omitempty"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
}

// Response is the decoded GraphQL response envelope. Data and Errors
// may both be present; partial data passes through untouched.
type Response struct {
	Data   map[string]interface{} `json:"data"`
	Errors Errors                 `json:"errors,omitempty"`
}

// Options configures a Client.
type Options struct {
	// Endpoint is the regional GraphQL endpoint URL.
	Endpoint string

	// TokenSource supplies the bearer credential for the first pipeline
	// stage. Required.
	TokenSource TokenSource

	// RoutePath supplies the current route for the X-Console-Url trace
	// header. Optional; defaults to an empty path.
	RoutePath func() string

	// FlagHeader supplies the serialized feature-flag summary. Optional.
	FlagHeader func() string

	// Policies overrides the cache policy table. Defaults to
	// ConsolePolicies.
	Policies *Policies

	// HTTPClient overrides the transport. Defaults to an OTel-traced
	// client with a 30 second timeout.
	HTTPClient *http.Client

	// ResultCacheSize bounds the denormalized result cache.
	ResultCacheSize int

	Metrics *Metrics
	Logger  *logrus.Entry
}

// Client executes GraphQL operations for one authenticated session. It
// owns the request pipeline and the session's normalized cache.
type Client struct {
	endpoint   string
	httpClient *http.Client
	stages     []Stage
	store      *Store
	results    *lru.Cache[string, *Response]
	metrics    *Metrics
	logger     *logrus.Entry
}

// NewClient builds the session client. The pipeline stage order is
// fixed: bearer credential, route trace, feature flags, dispatch.
func NewClient(opts Options) (*Client, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if opts.TokenSource == nil {
		return nil, fmt.Errorf("token source is required")
	}
	routePath := opts.RoutePath
	if routePath == nil {
		routePath = func() string { return "" }
	}
	flagHeader := opts.FlagHeader
	if flagHeader == nil {
		flagHeader = func() string { return "" }
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	size := opts.ResultCacheSize
	if size <= 0 {
		size = defaultResultCacheSize
	}
	results, err := lru.New[string, *Response](size)
	if err != nil {
		return nil, fmt.Errorf("building result cache: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	return &Client{
		endpoint:   opts.Endpoint,
		httpClient: httpClient,
		stages: []Stage{
			BearerStage(opts.TokenSource),
			TraceStage(routePath),
			FlagStage(flagHeader),
		},
		store:   NewStore(opts.Policies),
		results: results,
		metrics: opts.Metrics,
		logger:  logger.WithField("component", "gql"),
	}, nil
}

// Store exposes the session's normalized cache.
func (c *Client) Store() *Store {
	return c.store
}

// Reset discards the normalized cache and the result cache. It must be
// called on every session change.
func (c *Client) Reset() {
	c.store.Reset()
	c.results.Purge()
}

// Query executes a query with a cache-first policy: an identical
// request served before on this session returns the cached response
// without touching the network.
func (c *Client) Query(ctx context.Context, req *Request) (*Response, error) {
	key := resultKey(req)
	if resp, ok := c.results.Get(key); ok {
		c.countCache(true, req)
		return resp, nil
	}
	c.countCache(false, req)

	resp, err := c.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	c.results.Add(key, resp)
	return resp, nil
}

// Mutate executes a mutation. Entities in the payload are folded into
// the normalized cache and the result cache is dropped, since any
// memoized query may now be stale.
func (c *Client) Mutate(ctx context.Context, req *Request) (*Response, error) {
	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.Data != nil {
		c.store.WriteEntities(resp.Data)
	}
	c.results.Purge()
	return resp, nil
}

// Execute runs one query over the network, unconditionally, and folds
// the response into the normalized cache.
func (c *Client) Execute(ctx context.Context, req *Request) (*Response, error) {
	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.Data != nil {
		c.store.WriteQuery(resp.Data, req.Variables)
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, req *Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	// The pipeline stages run in order; each may only rewrite headers.
	for _, stage := range c.stages {
		if err := stage(ctx, httpReq.Header); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.observe(req, "transport_error", start)
		return nil, fmt.Errorf("executing %s: %w", req.OperationName, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		c.observe(req, fmt.Sprintf("http_%d", httpResp.StatusCode), start)
		data, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
		return nil, fmt.Errorf("executing %s: unexpected status %d: %s",
			req.OperationName, httpResp.StatusCode, bytes.TrimSpace(data))
	}

	var resp Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		c.observe(req, "decode_error", start)
		return nil, fmt.Errorf("decoding %s response: %w", req.OperationName, err)
	}

	if len(resp.Errors) > 0 {
		c.observe(req, "graphql_error", start)
		c.logger.WithFields(logrus.Fields{
			"operation": req.OperationName,
			"errors":    resp.Errors.Error(),
		}).Debug("graphql response carried errors")
	} else {
		c.observe(req, "ok", start)
	}
	return &resp, nil
}

// Decode converts a loosely typed response value into out via JSON.
func Decode(value interface{}, out interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding value: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding value: %w", err)
	}
	return nil
}

// DecodeField decodes one top-level field of a response into out.
func DecodeField(resp *Response, field string, out interface{}) error {
	value, ok := resp.Data[field]
	if !ok {
		return fmt.Errorf("response has no field %q", field)
	}
	return Decode(value, out)
}

func resultKey(req *Request) string {
	return req.Query + "\x00" + canonicalJSON(req.Variables)
}

func (c *Client) observe(req *Request, status string, start time.Time) {
	if c.metrics == nil {
		return
	}
	op := req.OperationName
	if op == "" {
		op = "unnamed"
	}
	c.metrics.RequestsTotal.WithLabelValues(op, status).Inc()
	c.metrics.RequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (c *Client) countCache(hit bool, req *Request) {
	if c.metrics == nil {
		return
	}
	op := req.OperationName
	if op == "" {
		op = "unnamed"
	}
	if hit {
		c.metrics.CacheHitsTotal.WithLabelValues(op).Inc()
		return
	}
	c.metrics.CacheMissTotal.WithLabelValues(op).Inc()
}
