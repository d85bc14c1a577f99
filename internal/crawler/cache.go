package crawler

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// cacheRecord is the on-disk shape of one cache entry.
type cacheRecord struct {
	URL         string `json:"url"`
	Timestamp   string `json:"timestamp"`
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        string `json:"body"`
}

// responseCache is a content-addressed, disk-backed key→value store.
// The key is the hex SHA-256 of the exact URL string as passed in,
// never re-normalized. A nil *responseCache is a valid no-op cache.
type responseCache struct {
	dir     string
	bodyDir string
	logger  *zap.Logger
}

func newResponseCache(dir, bodyDir string, logger *zap.Logger) *responseCache {
	if dir == "" {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &responseCache{dir: dir, bodyDir: bodyDir, logger: logger}
}

func cacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// get returns the cached record for url, or ok=false on a missing
// file, any I/O error, or a JSON parse error — all treated uniformly
// as a cache miss. A hit rehydrates the body store when configured.
func (c *responseCache) get(url string) (cacheRecord, bool) {
	if c == nil {
		return cacheRecord{}, false
	}
	path := filepath.Join(c.dir, cacheKey(url))
	payload, err := os.ReadFile(path)
	if err != nil {
		return cacheRecord{}, false
	}
	var rec cacheRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return cacheRecord{}, false
	}
	if c.bodyDir != "" {
		c.writeBody(url, rec.Body)
	}
	return rec, true
}

// set writes {url, timestamp, status, contentType, body} under the
// URL's hash, and the raw body under the same hash in the body store
// when one is configured. Write failures are logged and ignored.
func (c *responseCache) set(url string, status int, contentType, body string) {
	if c == nil {
		return
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		c.logger.Warn("cache mkdir failed", zap.String("dir", c.dir), zap.Error(err))
		return
	}
	rec := cacheRecord{
		URL:         url,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Status:      status,
		ContentType: contentType,
		Body:        body,
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		c.logger.Warn("cache marshal failed", zap.String("url", url), zap.Error(err))
		return
	}
	path := filepath.Join(c.dir, cacheKey(url))
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		c.logger.Warn("cache write failed", zap.String("url", url), zap.Error(err))
		return
	}
	if c.bodyDir != "" {
		c.writeBody(url, body)
	}
}

func (c *responseCache) writeBody(url, body string) {
	if err := os.MkdirAll(c.bodyDir, 0o755); err != nil {
		c.logger.Warn("body store mkdir failed", zap.String("dir", c.bodyDir), zap.Error(err))
		return
	}
	path := filepath.Join(c.bodyDir, cacheKey(url))
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		c.logger.Warn("body store write failed", zap.String("url", url), zap.Error(err))
	}
}
