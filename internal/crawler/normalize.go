package crawler

import (
	"net/url"
	"sort"
	"strings"
)

// authority captures the seed's scheme/port preferences that drive
// normalization: scheme upgrade and port injection are both relative
// to the seed that started the crawl, never to a global default.
type authority struct {
	scheme string // seed scheme, "http" or "https"
	port   string // seed's non-default port, or "" if none
}

// normalizeURL maps raw to its canonical string form, or returns ""
// when raw is unparseable, empty after transformation, or not
// http(s). See spec §3 and §4.A.
func normalizeURL(raw string, auth authority, preserveQueryOrder bool) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "//") {
		raw = auth.scheme + ":" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	if u.Scheme == "http" && auth.scheme == "https" {
		u.Scheme = "https"
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}

	if u.Port() == "" && auth.port != "" {
		u.Host = u.Hostname() + ":" + auth.port
	}

	u.Fragment = ""

	if !preserveQueryOrder && u.RawQuery != "" {
		values, err := url.ParseQuery(u.RawQuery)
		if err == nil {
			sortedKeys := make([]string, 0, len(values))
			for k := range values {
				sortedKeys = append(sortedKeys, k)
			}
			sort.Strings(sortedKeys)
			var b strings.Builder
			for i, k := range sortedKeys {
				for j, v := range values[k] {
					if i > 0 || j > 0 {
						b.WriteByte('&')
					}
					b.WriteString(url.QueryEscape(k))
					b.WriteByte('=')
					b.WriteString(url.QueryEscape(v))
				}
			}
			u.RawQuery = b.String()
		}
	}

	if u.Path != "/" && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	result := u.String()
	if result == "" {
		return ""
	}
	return result
}

// looksLikeHTML decides whether a failed fetch for url is reportable,
// per spec §3/§4.F: root, trailing-slash, a known HTML extension, or
// an extension-less last path segment.
var htmlExtensions = map[string]struct{}{
	".html": {}, ".htm": {}, ".php": {}, ".asp": {}, ".aspx": {}, ".jsp": {}, ".cgi": {}, ".pl": {},
}

func looksLikeHTML(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	p := u.Path
	if p == "" || p == "/" || strings.HasSuffix(p, "/") {
		return true
	}
	idx := strings.LastIndex(p, "/")
	last := p
	if idx >= 0 {
		last = p[idx+1:]
	}
	dot := strings.LastIndex(last, ".")
	if dot < 0 {
		return true
	}
	ext := strings.ToLower(last[dot:])
	_, ok := htmlExtensions[ext]
	return ok
}
