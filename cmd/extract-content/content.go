package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"
	"unicode"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// convertToMarkdown runs the HTML-to-markdown conversion and, when
// the converter yields nothing usable, falls back to a handful of
// regex-extracted signals (title, meta description, meta refresh,
// stripped-tag visible text) so a page with no recognizable article
// body still produces something. sourceURL and crawledAt identify
// where the body came from in the crawl; they're written into the
// document's frontmatter and, when the page has no <title>, sourceURL
// stands in for one rather than leaving the fallback headerless.
func convertToMarkdown(sourceURL string, crawledAt time.Time, body []byte) string {
	converter := htmltomarkdown.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(string(body))

	text := strings.TrimSpace(markdown)
	if err != nil || text == "" {
		text = buildEmptyContentFallback(sourceURL, body)
	}

	sum := sha256.Sum256([]byte(text))
	hash := hex.EncodeToString(sum[:])

	var doc strings.Builder
	doc.WriteString("---\n")
	doc.WriteString(fmt.Sprintf("source_url: %s\n", sourceURL))
	if !crawledAt.IsZero() {
		doc.WriteString(fmt.Sprintf("crawled_at: %s\n", crawledAt.Format(time.RFC3339)))
	}
	doc.WriteString(fmt.Sprintf("content_sha256: %s\n", hash))
	doc.WriteString(fmt.Sprintf("word_count: %d\n", len(strings.Fields(text))))
	doc.WriteString("---\n\n")
	doc.WriteString(text)
	doc.WriteString("\n")
	return doc.String()
}

var (
	titlePattern           = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	metaDescriptionPattern = regexp.MustCompile(`(?is)<meta[^>]+(?:name|property)\s*=\s*['"](?:description|og:description)['"][^>]*content\s*=\s*['"]([^'"]+)['"]`)
	metaRefreshPattern     = regexp.MustCompile(`(?is)<meta[^>]+http-equiv\s*=\s*['"]refresh['"][^>]*content\s*=\s*['"]([^'"]+)['"]`)
)

var (
	fallbackStripPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`),
		regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`),
		regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`),
		regexp.MustCompile(`(?is)<template[^>]*>.*?</template>`),
		regexp.MustCompile(`(?is)<iframe[^>]*>.*?</iframe>`),
	}
	fallbackCommentPattern  = regexp.MustCompile(`(?s)<!--.*?-->`)
	fallbackBROpenPattern   = regexp.MustCompile(`(?is)<br[^>]*>`)
	fallbackLiOpenPattern   = regexp.MustCompile(`(?is)<li[^>]*>`)
	fallbackLiClosePattern  = regexp.MustCompile(`(?is)</li>`)
	fallbackHeadingPatterns = []struct {
		re     *regexp.Regexp
		prefix string
	}{
		{regexp.MustCompile(`(?is)<h1[^>]*>`), "\n\n# "},
		{regexp.MustCompile(`(?is)<h2[^>]*>`), "\n\n## "},
		{regexp.MustCompile(`(?is)<h3[^>]*>`), "\n\n### "},
		{regexp.MustCompile(`(?is)<h4[^>]*>`), "\n\n#### "},
		{regexp.MustCompile(`(?is)<h5[^>]*>`), "\n\n##### "},
		{regexp.MustCompile(`(?is)<h6[^>]*>`), "\n\n###### "},
	}
	fallbackHeadingClosePattern = regexp.MustCompile(`(?is)</h[1-6]>`)
	fallbackBlockClosePattern   = regexp.MustCompile(`(?is)</(p|div|section|article|main|header|footer|address|blockquote|table|tr|tbody|thead|tfoot|ul|ol)>`)
	fallbackBlockOpenPattern    = regexp.MustCompile(`(?is)<(p|div|section|article|main|header|footer|address|blockquote|table|tr|tbody|thead|tfoot|ul|ol)[^>]*>`)
	fallbackTagPattern          = regexp.MustCompile(`(?is)<[^>]+>`)
)

// buildEmptyContentFallback assembles the best available signals into
// a minimal document when the page has no converter-recognizable
// body. sourceURL backstops the heading when the page itself has no
// <title>, so the fallback output always identifies which crawled
// page it came from.
func buildEmptyContentFallback(sourceURL string, body []byte) string {
	src := string(body)
	title := extractHTMLTitle(src)
	if title == "" {
		title = sourceURL
	}
	description := extractMetaDescription(src)
	redirect := extractMetaRefreshTarget(src)

	var builder strings.Builder
	if title != "" {
		builder.WriteString("# ")
		builder.WriteString(title)
		builder.WriteString("\n\n")
	}
	if description != "" {
		builder.WriteString(description)
		builder.WriteString("\n\n")
	}
	if redirect != "" {
		builder.WriteString("Meta refresh redirect target: ")
		builder.WriteString(redirect)
		builder.WriteString("\n\n")
	}
	visible := extractVisibleText(src)
	if visible != "" {
		builder.WriteString(visible)
		if !strings.HasSuffix(visible, "\n") {
			builder.WriteString("\n")
		}
		return builder.String()
	}
	builder.WriteString("*No textual content extracted.*\n")
	return builder.String()
}

func extractHTMLTitle(src string) string {
	m := titlePattern.FindStringSubmatch(src)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(m[1]))
}

func extractMetaDescription(src string) string {
	m := metaDescriptionPattern.FindStringSubmatch(src)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(m[1]))
}

func extractMetaRefreshTarget(src string) string {
	m := metaRefreshPattern.FindStringSubmatch(src)
	if len(m) < 2 {
		return ""
	}
	content := strings.TrimSpace(m[1])
	for _, part := range strings.Split(content, ";") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(trimmed), "url=") {
			target := strings.TrimSpace(trimmed[4:])
			return html.UnescapeString(strings.Trim(target, "'\""))
		}
	}
	return ""
}

func extractVisibleText(src string) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	cleaned := src
	for _, pattern := range fallbackStripPatterns {
		cleaned = pattern.ReplaceAllString(cleaned, " ")
	}
	cleaned = fallbackCommentPattern.ReplaceAllString(cleaned, " ")
	cleaned = fallbackBROpenPattern.ReplaceAllString(cleaned, "\n")
	cleaned = fallbackLiOpenPattern.ReplaceAllString(cleaned, "\n- ")
	cleaned = fallbackLiClosePattern.ReplaceAllString(cleaned, "")
	for _, entry := range fallbackHeadingPatterns {
		cleaned = entry.re.ReplaceAllString(cleaned, entry.prefix)
	}
	cleaned = fallbackHeadingClosePattern.ReplaceAllString(cleaned, "\n\n")
	cleaned = fallbackBlockOpenPattern.ReplaceAllString(cleaned, "\n\n")
	cleaned = fallbackBlockClosePattern.ReplaceAllString(cleaned, "\n\n")
	cleaned = fallbackTagPattern.ReplaceAllString(cleaned, "")
	cleaned = html.UnescapeString(cleaned)

	lines := strings.Split(cleaned, "\n")
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if len(result) == 0 || result[len(result)-1] == "" {
				continue
			}
			result = append(result, "")
			continue
		}
		normalized := normalizeSpaces(trimmed)
		if normalized == "" {
			continue
		}
		result = append(result, normalized)
	}
	output := strings.TrimSpace(strings.Join(result, "\n"))
	if output == "" {
		return ""
	}
	return output + "\n"
}

func normalizeSpaces(line string) string {
	if strings.HasPrefix(line, "- ") {
		collapsed := collapseUnicodeSpaces(line[2:])
		if collapsed == "" {
			return ""
		}
		return "- " + collapsed
	}
	if strings.HasPrefix(line, "#") {
		sharpCount := 0
		for _, r := range line {
			if r == '#' {
				sharpCount++
			} else {
				break
			}
		}
		if sharpCount == 0 {
			return collapseUnicodeSpaces(line)
		}
		remainder := strings.TrimSpace(line[sharpCount:])
		if remainder == "" {
			return strings.Repeat("#", sharpCount)
		}
		return strings.Repeat("#", sharpCount) + " " + collapseUnicodeSpaces(remainder)
	}
	return collapseUnicodeSpaces(line)
}

func collapseUnicodeSpaces(input string) string {
	var builder strings.Builder
	lastWasSpace := false
	for _, r := range input {
		if unicode.IsSpace(r) {
			if lastWasSpace {
				continue
			}
			builder.WriteRune(' ')
			lastWasSpace = true
			continue
		}
		builder.WriteRune(r)
		lastWasSpace = false
	}
	return strings.TrimSpace(builder.String())
}
