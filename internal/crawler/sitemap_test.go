package crawler

import "testing"

func TestParseSitemapURLSet(t *testing.T) {
	t.Parallel()

	body := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://example.test/a</loc></url>
  <url><loc>https://example.test/b</loc></url>
</urlset>`)

	pageURLs, subSitemaps := parseSitemap(body)
	assertStringSlicesEqual(t, pageURLs, []string{"https://example.test/a", "https://example.test/b"})
	if len(subSitemaps) != 0 {
		t.Fatalf("expected no sub-sitemaps, got %v", subSitemaps)
	}
}

func TestParseSitemapIndex(t *testing.T) {
	t.Parallel()

	body := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>https://example.test/sitemap-1.xml</loc></sitemap>
  <sitemap><loc>https://example.test/sitemap-2.xml</loc></sitemap>
</sitemapindex>`)

	pageURLs, subSitemaps := parseSitemap(body)
	if len(pageURLs) != 0 {
		t.Fatalf("expected no page urls, got %v", pageURLs)
	}
	assertStringSlicesEqual(t, subSitemaps, []string{
		"https://example.test/sitemap-1.xml",
		"https://example.test/sitemap-2.xml",
	})
}

func TestParseSitemapRecoversPartialResultsFromMalformedXML(t *testing.T) {
	t.Parallel()

	body := []byte(`<?xml version="1.0"?>
<urlset>
  <url><loc>https://example.test/a</loc></url>
  <url><loc>https://example.test/b</loc>
  <url><loc`)

	pageURLs, _ := parseSitemap(body)
	assertStringSlicesEqual(t, pageURLs, []string{"https://example.test/a", "https://example.test/b"})
}

func TestParseSitemapIsCaseInsensitiveOnTagNames(t *testing.T) {
	t.Parallel()

	body := []byte(`<URLSET><URL><LOC>https://example.test/a</LOC></URL></URLSET>`)
	pageURLs, _ := parseSitemap(body)
	assertStringSlicesEqual(t, pageURLs, []string{"https://example.test/a"})
}
