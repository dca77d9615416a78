package gql

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	header http.Header
	body   Request
}

func newTestServer(t *testing.T, respond func(Request) Response) (*httptest.Server, *atomic.Int64, *capturedRequest) {
	t.Helper()
	var calls atomic.Int64
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		captured.header = r.Header.Clone()
		captured.body = req
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(respond(req)))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls, captured
}

func newTestClient(t *testing.T, endpoint string, token string) *Client {
	t.Helper()
	c, err := NewClient(Options{
		Endpoint:    endpoint,
		TokenSource: func(ctx context.Context) (string, error) { return token, nil },
		RoutePath:   func() string { return "/space/overview" },
		FlagHeader:  func() string { return "compliance=enabled;cicd=disabled" },
	})
	require.NoError(t, err)
	return c
}

func TestClientPipelineHeaders(t *testing.T) {
	srv, _, captured := newTestServer(t, func(Request) Response {
		return Response{Data: map[string]interface{}{"ok": true}}
	})
	c := newTestClient(t, srv.URL, "tok-123")

	_, err := c.Execute(context.Background(), &Request{Query: "query Ping { ok }", OperationName: "Ping"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-123", captured.header.Get("Authorization"))
	assert.Equal(t, "/space/overview", captured.header.Get("X-Console-Url"))
	assert.Equal(t, "compliance=enabled;cicd=disabled", captured.header.Get("X-MONDOO-FEATURE-FLAGS"))
	assert.Equal(t, "application/json", captured.header.Get("Content-Type"))
}

func TestClientOmitsEmptyHeaders(t *testing.T) {
	srv, _, captured := newTestServer(t, func(Request) Response {
		return Response{Data: map[string]interface{}{}}
	})
	c, err := NewClient(Options{
		Endpoint:    srv.URL,
		TokenSource: func(ctx context.Context) (string, error) { return "", nil },
	})
	require.NoError(t, err)

	_, err = c.Execute(context.Background(), &Request{Query: "{ ok }"})
	require.NoError(t, err)

	_, hasAuth := captured.header["Authorization"]
	assert.False(t, hasAuth, "unauthenticated requests carry no Authorization header")
	_, hasFlags := captured.header["X-Mondoo-Feature-Flags"]
	assert.False(t, hasFlags, "empty flag summary omits the header")
}

func TestClientPartialDataWithErrors(t *testing.T) {
	srv, _, _ := newTestServer(t, func(Request) Response {
		return Response{
			Data:   map[string]interface{}{"space": nil},
			Errors: Errors{{Message: "space not found"}},
		}
	})
	c := newTestClient(t, srv.URL, "tok")

	resp, err := c.Execute(context.Background(), &Request{Query: "{ space { mrn } }"})
	require.NoError(t, err, "partial data is not a transport failure")
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "space not found", resp.Errors[0].Message)
	assert.Contains(t, resp.Data, "space")
}

func TestClientTransportFailure(t *testing.T) {
	srv, _, _ := newTestServer(t, func(Request) Response { return Response{} })
	c := newTestClient(t, srv.URL, "tok")
	srv.Close()

	_, err := c.Execute(context.Background(), &Request{Query: "{ ok }", OperationName: "Ping"})
	require.Error(t, err)
}

func TestClientUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	c := newTestClient(t, srv.URL, "tok")

	_, err := c.Execute(context.Background(), &Request{Query: "{ ok }", OperationName: "Ping"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestClientQueryIsCacheFirst(t *testing.T) {
	srv, calls, _ := newTestServer(t, func(Request) Response {
		return Response{Data: map[string]interface{}{"ok": true}}
	})
	c := newTestClient(t, srv.URL, "tok")
	req := &Request{Query: "query Ping { ok }", OperationName: "Ping"}

	_, err := c.Query(context.Background(), req)
	require.NoError(t, err)
	_, err = c.Query(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(1), calls.Load(), "identical query must be served from the result cache")

	// Different variables miss the cache.
	_, err = c.Query(context.Background(), &Request{
		Query:         req.Query,
		OperationName: req.OperationName,
		Variables:     map[string]interface{}{"x": float64(1)},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
}

func TestClientResetDiscardsEverything(t *testing.T) {
	srv, calls, _ := newTestServer(t, func(Request) Response {
		return Response{Data: map[string]interface{}{
			"space": map[string]interface{}{
				"__typename": "Space",
				"mrn":        "//spaces/one",
			},
		}}
	})
	c := newTestClient(t, srv.URL, "tok")
	req := &Request{Query: "query Space { space { mrn } }", OperationName: "Space"}

	_, err := c.Query(context.Background(), req)
	require.NoError(t, err)
	require.NotZero(t, c.Store().Len())

	// Session change: the whole cache goes, nothing is selectively
	// kept.
	c.Reset()
	assert.Zero(t, c.Store().Len())

	_, err = c.Query(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
}

func TestClientMutatePurgesResultCache(t *testing.T) {
	srv, calls, _ := newTestServer(t, func(Request) Response {
		return Response{Data: map[string]interface{}{"ok": true}}
	})
	c := newTestClient(t, srv.URL, "tok")
	query := &Request{Query: "query Ping { ok }", OperationName: "Ping"}

	_, err := c.Query(context.Background(), query)
	require.NoError(t, err)

	_, err = c.Mutate(context.Background(), &Request{Query: "mutation M { ok }", OperationName: "M"})
	require.NoError(t, err)

	_, err = c.Query(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, int64(3), calls.Load(), "mutations invalidate memoized queries")
}

func TestDecodeField(t *testing.T) {
	resp := &Response{Data: map[string]interface{}{
		"space": map[string]interface{}{"mrn": "//spaces/one", "name": "prod"},
	}}

	var out struct {
		MRN  string `json:"mrn"`
		Name string `json:"name"`
	}
	require.NoError(t, DecodeField(resp, "space", &out))
	assert.Equal(t, "//spaces/one", out.MRN)
	assert.Equal(t, "prod", out.Name)

	err := DecodeField(resp, "missing", &out)
	require.Error(t, err)
}

func TestClientRecordsMetrics(t *testing.T) {
	srv, _, _ := newTestServer(t, func(Request) Response {
		return Response{Data: map[string]interface{}{"ok": true}}
	})
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	c, err := NewClient(Options{
		Endpoint:    srv.URL,
		TokenSource: func(ctx context.Context) (string, error) { return "tok", nil },
		Metrics:     metrics,
	})
	require.NoError(t, err)

	req := &Request{Query: "query Ping { ok }", OperationName: "Ping"}
	_, err = c.Query(context.Background(), req)
	require.NoError(t, err)
	_, err = c.Query(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("Ping", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheMissTotal.WithLabelValues("Ping")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheHitsTotal.WithLabelValues("Ping")))
}

func TestErrorsFormatting(t *testing.T) {
	errs := Errors{
		{Message: "first", Extensions: map[string]interface{}{"code": "NOT_FOUND"}},
		{Message: "second"},
	}
	assert.Equal(t, "graphql: first; second", errs.Error())
	assert.Equal(t, "NOT_FOUND", errs[0].Code())
	assert.Equal(t, "", errs[1].Code())
}
