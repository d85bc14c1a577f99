package crawler

import (
	"html"
	"net/url"
	"regexp"
	"strings"

	xhtml "golang.org/x/net/html"
)

// extractOpts configures a single extraction pass.
type extractOpts struct {
	mainHost        string
	additionalHosts map[string]struct{}
	seedScheme      string
	followAll       bool
	contentOnly     bool
}

// extractedLink is a reference produced by the extractor, resolved
// against the page's base URL and passed through the host filter
// (and its additional-host rewrite) but NOT yet normalized — that is
// the engine's job, since the fallback-eligibility flags depend on
// the pre-normalization form.
type extractedLink struct {
	url                    string
	cameFromAdditionalHost bool
}

var hrefAttrTags = map[string]struct{}{
	"a": {}, "link": {},
}

var srcAttrTags = map[string]struct{}{
	"script": {}, "img": {}, "iframe": {}, "video": {}, "audio": {}, "source": {}, "embed": {},
}

var dataAttrs = []string{"data-url", "data-href", "data-src", "data-link"}

// extract walks body as HTML and produces page references and
// sitemap references.
func extract(body []byte, baseURL string, opts extractOpts) (pageLinks, sitemapLinks []extractedLink) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, nil
	}

	doc, err := xhtml.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, nil
	}

	emit := func(rawHref string, relTokens []string) {
		if isNofollow(relTokens) && !opts.followAll {
			return
		}
		link, ok := resolveCandidate(rawHref, base, opts)
		if !ok {
			return
		}
		if hasRel(relTokens, "sitemap") {
			sitemapLinks = append(sitemapLinks, link)
			return
		}
		pageLinks = append(pageLinks, link)
		if fixed, ok := fixerUpper(rawHref, base, opts); ok {
			pageLinks = append(pageLinks, fixed)
		}
	}

	var walk func(n *xhtml.Node)
	walk = func(n *xhtml.Node) {
		if n.Type == xhtml.ElementNode {
			tag := strings.ToLower(n.Data)
			attrs := attrMap(n)

			if _, ok := hrefAttrTags[tag]; ok {
				if href, ok := attrs["href"]; ok {
					emit(href, relTokens(attrs["rel"]))
				}
			}
			if _, ok := srcAttrTags[tag]; ok {
				if src, ok := attrs["src"]; ok {
					emit(src, nil)
				}
			}
			for _, da := range dataAttrs {
				if v, ok := attrs[da]; ok {
					emit(v, nil)
				}
			}
			if srcset, ok := attrs["srcset"]; ok {
				for _, entry := range strings.Split(srcset, ",") {
					fields := strings.Fields(strings.TrimSpace(entry))
					if len(fields) > 0 {
						emit(fields[0], nil)
					}
				}
			}
			if tag == "meta" && strings.EqualFold(attrs["http-equiv"], "refresh") {
				if target := metaRefreshURL(attrs["content"]); target != "" {
					emit(target, nil)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if !opts.contentOnly {
		pageLinks = append(pageLinks, extractRegexOnly(body, base, opts)...)
	}

	return pageLinks, sitemapLinks
}

// extractRegexOnly runs just the raw-text heuristic pass, used both
// as the HTML fallback above and as the whole of the JS/CSS
// classification branch.
func extractRegexOnly(body []byte, base *url.URL, opts extractOpts) []extractedLink {
	var links []extractedLink
	for _, raw := range regexCandidates(body) {
		if link, ok := resolveCandidate(raw, base, opts); ok {
			links = append(links, link)
		}
	}
	return links
}

func attrMap(n *xhtml.Node) map[string]string {
	m := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		m[strings.ToLower(a.Key)] = a.Val
	}
	return m
}

func relTokens(rel string) []string {
	if rel == "" {
		return nil
	}
	return strings.Fields(strings.ToLower(rel))
}

func hasRel(tokens []string, want string) bool {
	for _, t := range tokens {
		if t == want {
			return true
		}
	}
	return false
}

func isNofollow(tokens []string) bool {
	return hasRel(tokens, "nofollow")
}

var metaRefreshContentPattern = regexp.MustCompile(`(?i)url\s*=\s*(.+)$`)

func metaRefreshURL(content string) string {
	for _, p := range strings.Split(content, ";") {
		m := metaRefreshContentPattern.FindStringSubmatch(strings.TrimSpace(p))
		if len(m) == 2 {
			return strings.Trim(strings.TrimSpace(m[1]), `'"`)
		}
	}
	return ""
}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneDigits  = regexp.MustCompile(`^\+?[\d\-.\s()]+$`)
)

func isEmailLike(s string) bool {
	return emailPattern.MatchString(s)
}

// isPhoneLike matches digits with common separators, 7-15 digits,
// optionally +-prefixed.
func isPhoneLike(s string) bool {
	if !phoneDigits.MatchString(s) {
		return false
	}
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 7 && digits <= 15
}

// resolveCandidate applies the per-candidate pipeline: rejection
// filters, entity decode, email/phone rejection, resolution against
// base, and the host filter with its additional-host rewrite.
func resolveCandidate(raw string, base *url.URL, opts extractOpts) (extractedLink, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "#" {
		return extractedLink{}, false
	}
	lower := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(raw, "#"):
		return extractedLink{}, false
	case strings.HasPrefix(lower, "javascript:"),
		strings.HasPrefix(lower, "mailto:"),
		strings.HasPrefix(lower, "tel:"),
		strings.HasPrefix(lower, "data:"):
		return extractedLink{}, false
	}

	decoded := html.UnescapeString(raw)
	if decoded == "" {
		return extractedLink{}, false
	}
	if isEmailLike(decoded) || isPhoneLike(decoded) {
		return extractedLink{}, false
	}

	ref, err := url.Parse(decoded)
	if err != nil {
		return extractedLink{}, false
	}
	resolved := base.ResolveReference(ref)

	return applyHostFilter(resolved, opts)
}

// applyHostFilter accepts same-host references as-is and rewrites
// additional-host references onto the main host, seed scheme, and no
// explicit port before normalization.
func applyHostFilter(resolved *url.URL, opts extractOpts) (extractedLink, bool) {
	host := resolved.Hostname()
	if host == opts.mainHost {
		return extractedLink{url: resolved.String(), cameFromAdditionalHost: false}, true
	}
	if _, ok := opts.additionalHosts[host]; ok {
		rewritten := *resolved
		rewritten.Host = opts.mainHost
		rewritten.Scheme = opts.seedScheme
		return extractedLink{url: rewritten.String(), cameFromAdditionalHost: true}, true
	}
	return extractedLink{}, false
}

// fixerUpper detects a relative href whose resolved path swallowed a
// missing-protocol absolute URL and synthesizes the repaired form,
// routed through the same host filter as any other candidate. It
// never fires for references that already parsed as absolute
// http/https.
func fixerUpper(rawHref string, base *url.URL, opts extractOpts) (extractedLink, bool) {
	if looksAbsoluteHTTP(rawHref) {
		return extractedLink{}, false
	}
	ref, err := url.Parse(strings.TrimSpace(rawHref))
	if err != nil || ref.IsAbs() {
		return extractedLink{}, false
	}
	resolved := base.ResolveReference(ref)

	baseDir := base.Path
	if idx := strings.LastIndex(baseDir, "/"); idx >= 0 {
		baseDir = baseDir[:idx]
	} else {
		baseDir = ""
	}
	prefix := baseDir + "/"
	if !strings.HasPrefix(resolved.Path, prefix) {
		return extractedLink{}, false
	}

	rest := strings.TrimPrefix(resolved.Path, prefix)
	firstSegment, remainder := rest, ""
	if idx := strings.Index(rest, "/"); idx >= 0 {
		firstSegment, remainder = rest[:idx], rest[idx:]
	}
	if firstSegment == "" {
		return extractedLink{}, false
	}
	_, isAdditional := opts.additionalHosts[firstSegment]
	if firstSegment != opts.mainHost && !isAdditional {
		return extractedLink{}, false
	}

	synth := &url.URL{
		Scheme:   opts.seedScheme,
		Host:     firstSegment,
		Path:     remainder,
		RawQuery: resolved.RawQuery,
	}
	return applyHostFilter(synth, opts)
}

func looksAbsoluteHTTP(s string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// regexCandidates is the raw-text heuristic pass: quoted absolute
// paths, quoted full URLs, and CSS url(...) references.
var (
	quotedURLPattern    = regexp.MustCompile(`["']((?:https?://|/)[^"'\s]{2,})["']`)
	cssURLPattern       = regexp.MustCompile(`url\(\s*['"]?([^'")]+)['"]?\s*\)`)
	templatePlaceholder = []string{"${", "{{"}
)

func regexCandidates(body []byte) []string {
	text := string(body)
	var out []string
	seen := make(map[string]struct{})
	add := func(c string) {
		c = strings.TrimSpace(c)
		if !isPlausibleRegexCandidate(c) {
			return
		}
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	for _, m := range quotedURLPattern.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	for _, m := range cssURLPattern.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	return out
}

// isPlausibleRegexCandidate drops template placeholders, too-short
// matches, and single all-lowercase words — reproduced exactly from
// the original heuristic, flagged for future pruning.
func isPlausibleRegexCandidate(c string) bool {
	if len(c) < 2 {
		return false
	}
	for _, ph := range templatePlaceholder {
		if strings.Contains(c, ph) {
			return false
		}
	}
	return !isSingleLowercaseWord(c)
}

var singleWordPattern = regexp.MustCompile(`^[a-z]+$`)

func isSingleLowercaseWord(c string) bool {
	return singleWordPattern.MatchString(c)
}
