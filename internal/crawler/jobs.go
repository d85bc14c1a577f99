package crawler

import (
	"net/url"
	"strings"
)

// enqueue implements the engine's enqueue algorithm: normalize (a
// candidate that fails is dropped without a referrer edge), record the
// referrer edge under the normalized URL even if it was already seen,
// compute the fallback-eligibility flags from the pre-normalization
// URL, dedup against seen, and push a fresh frontier entry with
// attempts=0.
func (e *engine) enqueue(rawURL string, cameFromAdditionalHost bool, sourceURL string, isSitemap bool) {
	normalized := normalizeURL(rawURL, e.auth, e.preserveQueryOrder)
	if normalized == "" {
		return
	}

	if sourceURL != "" {
		e.recordReferrer(normalized, sourceURL)
	}

	wasHTTP, wasPortless := prenormalizationFlags(rawURL)

	e.mu.Lock()
	if _, seen := e.seen[normalized]; seen {
		e.mu.Unlock()
		return
	}
	e.seen[normalized] = struct{}{}
	e.mu.Unlock()

	e.observer.Enqueue(normalized, sourceURL, cameFromAdditionalHost)

	e.frontier.push(&frontierEntry{
		url:                 normalized,
		attempts:            0,
		canFallbackToHTTP:   wasHTTP,
		canFallbackToNoPort: wasPortless && !cameFromAdditionalHost,
		isSitemap:           isSitemap,
	})
}

// retry re-enqueues a previously popped entry with attempts
// incremented, carrying its fallback flags unchanged. It never
// touches seen or referrers — this is a continuation, not a new
// discovery.
func (e *engine) retry(prev *frontierEntry) {
	e.frontier.push(&frontierEntry{
		url:                 prev.url,
		attempts:            prev.attempts + 1,
		canFallbackToHTTP:   prev.canFallbackToHTTP,
		canFallbackToNoPort: prev.canFallbackToNoPort,
		isSitemap:           prev.isSitemap,
	})
}

func (e *engine) recordReferrer(normalizedTarget, sourceURL string) {
	e.mu.Lock()
	set, ok := e.referrers[normalizedTarget]
	if !ok {
		set = make(map[string]struct{})
		e.referrers[normalizedTarget] = set
	}
	set[sourceURL] = struct{}{}
	e.mu.Unlock()
}

// prenormalizationFlags reads was-http and had-no-port directly off
// the raw candidate, before any scheme upgrade or port injection.
func prenormalizationFlags(rawURL string) (wasHTTP, wasPortless bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false, false
	}
	return u.Scheme == "http", u.Port() == ""
}
