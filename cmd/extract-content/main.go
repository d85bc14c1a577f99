// Command extract-content is the reference implementation for the
// crawler's --extractor-cmd. The Extractor Driver invokes it once per
// discovered HTML page with three arguments: the loopback URL the
// page's cached body is served under, the page's original crawled
// URL, and the RFC 3339 timestamp it was recorded at. It converts the
// body to markdown, folds the latter two into the document's
// frontmatter, and writes the result to stdout.
package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

func main() {
	if len(os.Args) != 4 {
		fmt.Fprintln(os.Stderr, "usage: extract-content <loopback-url> <source-url> <crawled-at>")
		os.Exit(1)
	}
	loopbackURL, sourceURL, crawledAtRaw := os.Args[1], os.Args[2], os.Args[3]

	crawledAt, err := time.Parse(time.RFC3339, crawledAtRaw)
	if err != nil {
		crawledAt = time.Time{}
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(loopbackURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fetch body: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "unexpected status %d\n", resp.StatusCode)
		os.Exit(1)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read body: %v\n", err)
		os.Exit(1)
	}

	doc := convertToMarkdown(sourceURL, crawledAt, body)
	if _, err := os.Stdout.WriteString(doc); err != nil {
		fmt.Fprintf(os.Stderr, "write stdout: %v\n", err)
		os.Exit(1)
	}
}
