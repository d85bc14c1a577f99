package crawler

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

const defaultUserAgent = "samesitecrawl-bot/1.0"

// Config defines the inputs to a single crawl run.
type Config struct {
	Seeds           []string
	AdditionalHosts []string

	FollowAll          bool
	ContentOnly        bool
	PreserveQueryOrder bool

	Concurrency int
	MaxRetries  int

	CachePath    string
	BodyPath     string
	ExtractorCmd string
	ExtractorDir string

	Client *http.Client
	Logger *zap.Logger

	// Progress is invoked with the URL of every fetch as it starts. Nil
	// is a valid no-op, mirroring a terminal progress line.
	Progress func(string)

	Observer Observer
}

// FailedURL is one reportable URL within a FailedGroup.
type FailedURL struct {
	URL       string
	Referrers []string
}

// FailedGroup groups failed URLs sharing the same verbatim error string.
type FailedGroup struct {
	Error string
	URLs  []FailedURL
}

// Result is the outcome of a completed crawl.
type Result struct {
	Discovered []string
	Failed     []FailedGroup
	Stats      Stats
	StartedAt  time.Time
	FinishedAt time.Time
}

// Stats aggregates crawl-level counters.
type Stats struct {
	Fetched     int
	Retries     int
	Discovered  int
	Failed      int
	SitemapURLs int
	HTMLHashes  int
	Duration    time.Duration
}
