package crawler

import (
	"net/url"
	"strings"
)

// classifyResult is what the content classifier hands back to the
// worker for a single fetched body.
type classifyResult struct {
	isHTML          bool
	sitemapDetected bool
	pageRefs        []extractedLink
	sitemapRefs     []extractedLink
	sitemapPageURLs []string
	sitemapSubURLs  []string
}

// classifyContent dispatches on Content-Type, per the table: XML (or
// text/plain on an entry already marked sitemap) parses as a sitemap;
// text/html runs the link extractor; JS/CSS run the regex-only pass
// unless content-only is set; anything else yields nothing.
func classifyContent(contentType string, body []byte, base *url.URL, entryIsSitemap bool, opts extractOpts) classifyResult {
	ct := stripContentTypeParams(contentType)

	switch {
	case ct == "application/xml" || ct == "text/xml" || (ct == "text/plain" && entryIsSitemap):
		pageURLs, subSitemaps := parseSitemap(body)
		return classifyResult{
			sitemapDetected: len(pageURLs) > 0 || len(subSitemaps) > 0,
			sitemapPageURLs: pageURLs,
			sitemapSubURLs:  subSitemaps,
		}
	case ct == "text/html":
		pageLinks, sitemapLinks := extract(body, base.String(), opts)
		return classifyResult{isHTML: true, pageRefs: pageLinks, sitemapRefs: sitemapLinks}
	case (ct == "application/javascript" || ct == "text/css") && !opts.contentOnly:
		return classifyResult{pageRefs: extractRegexOnly(body, base, opts)}
	default:
		return classifyResult{}
	}
}

func stripContentTypeParams(contentType string) string {
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
