package crawler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

// echoArgsScript writes a POSIX shell script that prints its second
// and third arguments (the source URL and crawled-at timestamp the
// driver is expected to pass alongside the loopback URL) to stdout.
func echoArgsScript(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "echo-args.sh")
	script := "#!/bin/sh\necho \"$2 $3\"\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("failed to write fake extractor script: %v", err)
	}
	return path
}

func TestRunExtractorPassesSourceURLAndTimestampToChild(t *testing.T) {
	bodyDir := t.TempDir()
	extractorDir := t.TempDir()

	const frontierURL = "https://example.test/page"
	hash := cacheKey(frontierURL)
	if err := os.WriteFile(filepath.Join(bodyDir, hash), []byte("<html>body</html>"), 0o644); err != nil {
		t.Fatalf("failed to seed body store: %v", err)
	}

	crawledAt := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	cfg := Config{
		BodyPath:     bodyDir,
		ExtractorDir: extractorDir,
		ExtractorCmd: echoArgsScript(t),
	}
	pages := []htmlPage{{Hash: hash, URL: frontierURL, CrawledAt: crawledAt}}

	if err := runExtractor(context.Background(), cfg, pages, zap.NewNop()); err != nil {
		t.Fatalf("runExtractor failed: %v", err)
	}

	out, err := os.ReadFile(filepath.Join(extractorDir, hash))
	if err != nil {
		t.Fatalf("expected extractor output file for hash %s: %v", hash, err)
	}
	want := frontierURL + " " + crawledAt.Format(time.RFC3339) + "\n"
	if string(out) != want {
		t.Fatalf("expected child process to receive source URL and timestamp, got %q want %q", string(out), want)
	}
}

func TestRunExtractorNoopWhenNoPages(t *testing.T) {
	t.Parallel()

	cfg := Config{
		BodyPath:     t.TempDir(),
		ExtractorDir: filepath.Join(t.TempDir(), "does-not-exist"),
		ExtractorCmd: "/bin/true",
	}
	if err := runExtractor(context.Background(), cfg, nil, zap.NewNop()); err != nil {
		t.Fatalf("expected no error for an empty page set, got %v", err)
	}
	if _, err := os.Stat(cfg.ExtractorDir); err == nil {
		t.Fatal("expected the extractor directory not to be created when there is nothing to extract")
	}
}
