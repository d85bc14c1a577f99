package crawler

import (
	"context"
	"net/url"
)

// worker pulls entries off the frontier until it closes. Every
// re-enqueue a processing step performs happens before finish() is
// called, so outstanding work never hits zero prematurely.
func (e *engine) worker(ctx context.Context) {
	for {
		entry, ok := e.frontier.pop()
		if !ok {
			return
		}
		e.process(ctx, entry)
		e.frontier.finish()
	}
}

func (e *engine) process(ctx context.Context, entry *frontierEntry) {
	e.observer.FetchStart(entry.url)
	e.incFetched()

	result := fetch(ctx, e.client, e.cache, entry.url, entry.attempts,
		entry.canFallbackToHTTP, entry.canFallbackToNoPort, e.auth.port, e.maxRetries)

	e.observer.FetchComplete(entry.url, result.status, result.errMsg)

	switch result.outcome {
	case outcomeRetry:
		e.incRetries()
		e.retry(entry)
	case outcomeError:
		if looksLikeHTML(entry.url) {
			e.recordFailed(entry.url, result.errMsg)
		}
	case outcomeSuccess:
		e.handleSuccess(entry, result)
	}
}

func (e *engine) handleSuccess(entry *frontierEntry, result fetchResult) {
	base, err := url.Parse(entry.url)
	if err != nil {
		return
	}
	opts := extractOpts{
		mainHost:        e.mainHost,
		additionalHosts: e.additionalHosts,
		seedScheme:      e.auth.scheme,
		followAll:       e.followAll,
		contentOnly:     e.contentOnly,
	}
	cr := classifyContent(result.contentType, []byte(result.body), base, entry.isSitemap, opts)

	if cr.isHTML {
		if e.insertDiscovered(entry.url) {
			e.observer.Discover(entry.url)
			e.recordHTMLHash(entry.url)
		}
	}
	if cr.sitemapDetected {
		e.incSitemapURLs()
	}

	for _, ref := range cr.pageRefs {
		e.enqueue(ref.url, ref.cameFromAdditionalHost, entry.url, false)
	}
	for _, ref := range cr.sitemapRefs {
		e.enqueue(ref.url, ref.cameFromAdditionalHost, entry.url, true)
	}
	for _, u := range cr.sitemapPageURLs {
		e.enqueue(u, false, entry.url, false)
	}
	for _, u := range cr.sitemapSubURLs {
		e.enqueue(u, false, entry.url, true)
	}
}
