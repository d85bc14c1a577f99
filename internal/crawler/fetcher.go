package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const maxBodyBytes = 5 * 1024 * 1024

type fetchOutcome int

const (
	outcomeSuccess fetchOutcome = iota
	outcomeRetry
	outcomeError
)

// fetchResult is the classified outcome of one fetch attempt,
// including every authority fallback it took internally. Retries are
// not taken here: outcomeRetry hands the re-enqueue to the engine.
type fetchResult struct {
	outcome     fetchOutcome
	status      int
	contentType string
	body        string
	fetchedURL  string
	fromCache   bool
	errMsg      string
}

var transientStatuses = map[int]struct{}{
	408: {}, 429: {}, 500: {}, 502: {}, 503: {}, 504: {},
}

func isTransientStatus(status int) bool {
	_, ok := transientStatuses[status]
	return ok
}

// fetch implements the single-URL fetch contract: a cache check, an
// HTTP GET with retry and authority fallback, and a cache write on
// success. The fallback-eligibility flags are read from the frontier
// entry, never derived here. frontierURL is the identity the result
// is recorded under; it never changes across a fallback, even though
// the URL actually sent over the wire does.
func fetch(ctx context.Context, client *http.Client, cache *responseCache, frontierURL string, attempts int, canHTTPFallback, canNoPortFallback bool, preferredPort string, maxRetries int) fetchResult {
	if rec, ok := cache.get(frontierURL); ok {
		return fetchResult{
			outcome:     outcomeSuccess,
			status:      rec.Status,
			contentType: rec.ContentType,
			body:        rec.Body,
			fetchedURL:  frontierURL,
			fromCache:   true,
		}
	}
	return attemptFetch(ctx, client, cache, frontierURL, frontierURL, attempts, canHTTPFallback, canNoPortFallback, preferredPort, maxRetries, false, false)
}

// attemptFetch sends a GET against wireURL, the URL actually dialed
// for this attempt (the frontier URL on the first try, a fallback
// form on subsequent ones), but always records the outcome under
// frontierURL — the identity the rest of the engine, the cache, and
// the body store key everything off of.
func attemptFetch(ctx context.Context, client *http.Client, cache *responseCache, frontierURL, wireURL string, attempts int, canHTTPFallback, canNoPortFallback bool, preferredPort string, maxRetries int, triedHTTP, triedNoPort bool) fetchResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wireURL, nil)
	if err != nil {
		return fetchResult{outcome: outcomeError, errMsg: err.Error()}
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		if canNoPortFallback && !triedNoPort {
			if fallback, ok := stripPort(wireURL, preferredPort); ok {
				return attemptFetch(ctx, client, cache, frontierURL, fallback, attempts, canHTTPFallback, canNoPortFallback, preferredPort, maxRetries, triedHTTP, true)
			}
		}
		if canHTTPFallback && !triedHTTP {
			if fallback, ok := downgradeScheme(wireURL); ok {
				return attemptFetch(ctx, client, cache, frontierURL, fallback, attempts, canHTTPFallback, canNoPortFallback, preferredPort, maxRetries, true, triedNoPort)
			}
		}
		if attempts < maxRetries {
			return fetchResult{outcome: outcomeRetry}
		}
		return fetchResult{outcome: outcomeError, errMsg: err.Error()}
	}
	defer resp.Body.Close()

	if isTransientStatus(resp.StatusCode) && attempts < maxRetries {
		return fetchResult{outcome: outcomeRetry}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fetchResult{outcome: outcomeError, errMsg: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fetchResult{outcome: outcomeError, errMsg: err.Error()}
	}
	contentType := resp.Header.Get("Content-Type")
	body := string(bodyBytes)
	cache.set(frontierURL, resp.StatusCode, contentType, body)

	return fetchResult{
		outcome:     outcomeSuccess,
		status:      resp.StatusCode,
		contentType: contentType,
		body:        body,
		fetchedURL:  frontierURL,
	}
}

// stripPort implements the port fallback: only fires when the URL's
// port equals the seed's configured preferred port.
func stripPort(rawURL, preferredPort string) (string, bool) {
	if preferredPort == "" {
		return "", false
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Port() != preferredPort {
		return "", false
	}
	u.Host = u.Hostname()
	return u.String(), true
}

// downgradeScheme implements the scheme fallback: https → http.
func downgradeScheme(rawURL string) (string, bool) {
	if !strings.HasPrefix(strings.ToLower(rawURL), "https://") {
		return "", false
	}
	return "http://" + rawURL[len("https://"):], true
}
