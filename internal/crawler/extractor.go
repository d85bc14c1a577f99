package crawler

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// htmlPage is one HTML page discovered during the crawl, identified by
// the hash its body is stored under (the SHA-256 of its frontier URL,
// as for the cache), plus the frontier URL and
// time it was recorded at — both handed to the extraction child
// process alongside the loopback URL so its output can describe where
// and when the content came from.
type htmlPage struct {
	Hash      string
	URL       string
	CrawledAt time.Time
}

// runExtractor brings up a loopback HTTP server over the body store
// and fans out bounded child-process extractions, one per HTML page
// collected during the crawl. The server is shut down on every exit
// path, including a recovered panic.
func runExtractor(ctx context.Context, cfg Config, pages []htmlPage, logger *zap.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extractor driver panic: %v", r)
		}
	}()

	if len(pages) == 0 {
		return nil
	}
	if err := os.MkdirAll(cfg.ExtractorDir, 0o755); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return err
	}

	srv := &http.Server{Handler: bodyStoreHandler(cfg.BodyPath)}
	go srv.Serve(ln)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	baseURL := "http://" + ln.Addr().String()

	workers := runtime.NumCPU() - 1
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup
	for _, page := range pages {
		sem <- struct{}{}
		wg.Add(1)
		go func(page htmlPage) {
			defer wg.Done()
			defer func() { <-sem }()
			runOneExtraction(ctx, cfg, baseURL, page, logger)
		}(page)
	}
	wg.Wait()

	return nil
}

// bodyStoreHandler serves GET /{hash} straight from the body-store
// directory.
func bodyStoreHandler(bodyDir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hash := strings.TrimPrefix(r.URL.Path, "/")
		if hash == "" || strings.ContainsAny(hash, "/\\") {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(bodyDir, hash))
	})
}

// runOneExtraction invokes the extractor command with three
// arguments: the loopback URL the body is served over, the original
// crawled URL, and the RFC 3339 time the page was recorded — so the
// child process can fold the site's own data back into whatever it
// produces instead of only ever seeing an opaque loopback address.
func runOneExtraction(ctx context.Context, cfg Config, baseURL string, page htmlPage, logger *zap.Logger) {
	targetURL := baseURL + "/" + page.Hash

	cmd := exec.CommandContext(ctx, cfg.ExtractorCmd, targetURL, page.URL, page.CrawledAt.Format(time.RFC3339))
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		logger.Warn("extractor child exited non-zero", zap.String("hash", page.Hash), zap.String("url", page.URL), zap.Error(err))
		return
	}

	outPath := filepath.Join(cfg.ExtractorDir, page.Hash)
	if err := os.WriteFile(outPath, stdout.Bytes(), 0o644); err != nil {
		logger.Warn("extractor output write failed", zap.String("hash", page.Hash), zap.Error(err))
	}
}
