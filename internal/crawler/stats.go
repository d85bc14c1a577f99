package crawler

import "time"

func (e *engine) incFetched() {
	e.statsMu.Lock()
	e.stats.Fetched++
	e.statsMu.Unlock()
}

func (e *engine) incRetries() {
	e.statsMu.Lock()
	e.stats.Retries++
	e.statsMu.Unlock()
}

func (e *engine) incSitemapURLs() {
	e.statsMu.Lock()
	e.stats.SitemapURLs++
	e.statsMu.Unlock()
}

func (e *engine) insertDiscovered(url string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.discovered[url]; ok {
		return false
	}
	e.discovered[url] = struct{}{}
	return true
}

func (e *engine) recordFailed(url, errMsg string) {
	e.mu.Lock()
	e.failed[url] = errMsg
	e.mu.Unlock()
}

// recordHTMLHash remembers the frontier URL and discovery time behind
// an HTML page's URL hash, so the Extractor Driver can pass both
// through to the child extraction command alongside the loopback URL
// it already serves the body over. Keyed by hash and written once per
// crawl: the set starts empty on every Crawl call, so crawledAt is the
// time of this run's discovery, even when the body came from the cache.
func (e *engine) recordHTMLHash(url string) {
	hash := cacheKey(url)
	e.mu.Lock()
	if _, exists := e.htmlHashes[hash]; !exists {
		e.htmlHashes[hash] = htmlPage{Hash: hash, URL: url, CrawledAt: time.Now()}
	}
	e.mu.Unlock()
}

func (e *engine) snapshotHashes() []htmlPage {
	e.mu.Lock()
	defer e.mu.Unlock()
	pages := make([]htmlPage, 0, len(e.htmlHashes))
	for _, p := range e.htmlHashes {
		pages = append(pages, p)
	}
	return pages
}

// buildResult drains the engine's sets into a stable Result, sorting
// the pieces that output files require to be deterministic.
func (e *engine) buildResult(started, finished time.Time) *Result {
	e.mu.Lock()
	discovered := make([]string, 0, len(e.discovered))
	for u := range e.discovered {
		discovered = append(discovered, u)
	}

	errGroups := make(map[string][]FailedURL)
	for u, errMsg := range e.failed {
		referrers := sortedReferrers(e.referrers[u])
		errGroups[errMsg] = append(errGroups[errMsg], FailedURL{URL: u, Referrers: referrers})
	}
	htmlHashes := len(e.htmlHashes)
	e.mu.Unlock()

	sortStrings(discovered)

	failed := make([]FailedGroup, 0, len(errGroups))
	for errMsg, urls := range errGroups {
		sortFailedURLs(urls)
		failed = append(failed, FailedGroup{Error: errMsg, URLs: urls})
	}
	sortFailedGroups(failed)

	e.statsMu.Lock()
	stats := e.stats
	e.statsMu.Unlock()
	stats.Discovered = len(discovered)
	stats.Failed = len(failed)
	stats.HTMLHashes = htmlHashes
	stats.Duration = finished.Sub(started)

	return &Result{
		Discovered: discovered,
		Failed:     failed,
		Stats:      stats,
		StartedAt:  started,
		FinishedAt: finished,
	}
}

func sortedReferrers(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for r := range set {
		out = append(out, r)
	}
	sortStrings(out)
	return out
}
