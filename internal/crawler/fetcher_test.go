package crawler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

func newTestClient(rt http.RoundTripper) *http.Client {
	return &http.Client{Timeout: 2 * time.Second, Transport: rt}
}

type scriptedTransport struct {
	responses []scriptedResponse
	requests  []*http.Request
}

type scriptedResponse struct {
	status int
	body   string
	err    error
}

func (s *scriptedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.requests = append(s.requests, req)
	idx := len(s.requests) - 1
	if idx >= len(s.responses) {
		return nil, errors.New("scriptedTransport: no more responses")
	}
	r := s.responses[idx]
	if r.err != nil {
		return nil, r.err
	}
	return &http.Response{
		StatusCode: r.status,
		Body:       io.NopCloser(strings.NewReader(r.body)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

func TestFetchReturnsCacheHitWithoutAnyRequest(t *testing.T) {
	t.Parallel()

	cache := newResponseCache(t.TempDir(), "", nil)
	const url = "https://example.test/cached"
	cache.set(url, 200, "text/html", "<html>cached</html>")

	transport := &scriptedTransport{}
	result := fetch(context.Background(), newTestClient(transport), cache, url, 0, false, false, "", 3)

	if result.outcome != outcomeSuccess || !result.fromCache {
		t.Fatalf("expected cache hit, got %+v", result)
	}
	if len(transport.requests) != 0 {
		t.Fatalf("expected no HTTP requests for a cache hit, got %d", len(transport.requests))
	}
}

func TestFetchRetriesOnTransientStatus(t *testing.T) {
	t.Parallel()

	transport := &scriptedTransport{responses: []scriptedResponse{{status: 503, body: ""}}}
	result := fetch(context.Background(), newTestClient(transport), nil, "https://example.test/flaky", 0, false, false, "", 3)

	if result.outcome != outcomeRetry {
		t.Fatalf("expected retry outcome on 503, got %+v", result)
	}
}

func TestFetchGivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	transport := &scriptedTransport{responses: []scriptedResponse{{status: 503, body: ""}}}
	result := fetch(context.Background(), newTestClient(transport), nil, "https://example.test/flaky", 3, false, false, "", 3)

	if result.outcome != outcomeError {
		t.Fatalf("expected error outcome once attempts reach maxRetries, got %+v", result)
	}
}

func TestFetchSucceedsAndWritesToCache(t *testing.T) {
	t.Parallel()

	transport := &scriptedTransport{responses: []scriptedResponse{{status: 200, body: "hello"}}}
	cache := newResponseCache(t.TempDir(), "", nil)
	const url = "https://example.test/ok"

	result := fetch(context.Background(), newTestClient(transport), cache, url, 0, false, false, "", 3)
	if result.outcome != outcomeSuccess || result.body != "hello" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if _, ok := cache.get(url); !ok {
		t.Fatal("expected successful fetch to populate the cache")
	}
}

func TestFetchFallsBackToNoPortBeforeScheme(t *testing.T) {
	t.Parallel()

	transport := &scriptedTransport{responses: []scriptedResponse{
		{err: errors.New("connection refused")}, // https with port
		{status: 200, body: "no-port-worked"},    // https without port
	}}

	result := fetch(context.Background(), newTestClient(transport), nil,
		"https://example.test:8443/page", 0, true, true, "8443", 3)

	if result.outcome != outcomeSuccess || result.body != "no-port-worked" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(transport.requests) != 2 {
		t.Fatalf("expected exactly two requests, got %d", len(transport.requests))
	}
	if transport.requests[1].URL.String() != "https://example.test/page" {
		t.Fatalf("expected second request without port, got %s", transport.requests[1].URL.String())
	}
}

func TestFetchRecordsCacheUnderFrontierIdentityNotFallbackURL(t *testing.T) {
	t.Parallel()

	const frontierURL = "https://example.test:8443/page"
	const fallbackURL = "https://example.test/page"

	transport := &scriptedTransport{responses: []scriptedResponse{
		{err: errors.New("connection refused")}, // frontierURL, over the wire
		{status: 200, body: "fetched-via-fallback"},
	}}
	cache := newResponseCache(t.TempDir(), t.TempDir(), nil)

	result := fetch(context.Background(), newTestClient(transport), cache,
		frontierURL, 0, true, true, "8443", 3)

	if result.outcome != outcomeSuccess || result.fetchedURL != frontierURL {
		t.Fatalf("unexpected result: %+v", result)
	}
	if transport.requests[1].URL.String() != fallbackURL {
		t.Fatalf("expected the fallback request to go out over %s, got %s", fallbackURL, transport.requests[1].URL.String())
	}

	if _, ok := cache.get(frontierURL); !ok {
		t.Fatal("expected the cache record to be keyed by the frontier URL")
	}
	if rec, _ := cache.get(frontierURL); rec.Body != "fetched-via-fallback" {
		t.Fatalf("unexpected cached body: %+v", rec)
	}
	if cacheKey(frontierURL) == cacheKey(fallbackURL) {
		t.Fatal("test fixture error: frontier and fallback URLs must hash differently")
	}
	if _, ok := cache.get(fallbackURL); ok {
		t.Fatal("expected no cache record under the fallback URL's identity")
	}
}

func TestFetchFallsBackToHTTPAfterNoPortExhausted(t *testing.T) {
	t.Parallel()

	transport := &scriptedTransport{responses: []scriptedResponse{
		{err: errors.New("connection refused")}, // https, no port to strip
		{status: 200, body: "http-worked"},       // http downgrade
	}}

	result := fetch(context.Background(), newTestClient(transport), nil,
		"https://example.test/page", 0, true, false, "", 3)

	if result.outcome != outcomeSuccess || result.body != "http-worked" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if transport.requests[1].URL.String() != "http://example.test/page" {
		t.Fatalf("expected second request downgraded to http, got %s", transport.requests[1].URL.String())
	}
}

func TestFetchEachFallbackTriedAtMostOnce(t *testing.T) {
	t.Parallel()

	transport := &scriptedTransport{responses: []scriptedResponse{
		{err: errors.New("refused")}, // https with port
		{err: errors.New("refused")}, // https no port
		{err: errors.New("refused")}, // http downgrade
	}}

	result := fetch(context.Background(), newTestClient(transport), nil,
		"https://example.test:8443/page", 0, true, true, "8443", 3)

	if result.outcome != outcomeRetry {
		t.Fatalf("expected retry once both fallbacks are exhausted, got %+v", result)
	}
	if len(transport.requests) != 3 {
		t.Fatalf("expected exactly three requests (original + two fallbacks), got %d", len(transport.requests))
	}
}

func TestFetchNonTransientErrorStatusIsNotRetried(t *testing.T) {
	t.Parallel()

	transport := &scriptedTransport{responses: []scriptedResponse{{status: 404, body: ""}}}
	result := fetch(context.Background(), newTestClient(transport), nil, "https://example.test/missing", 0, false, false, "", 3)

	if result.outcome != outcomeError {
		t.Fatalf("expected error outcome for 404, got %+v", result)
	}
	if len(transport.requests) != 1 {
		t.Fatalf("expected no retry for a non-transient status, got %d requests", len(transport.requests))
	}
}
