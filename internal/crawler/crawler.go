package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultConcurrency = 20
	defaultMaxRetries  = 3
	fetchTimeout       = 30 * time.Second
)

var defaultSchemePort = map[string]string{"http": "80", "https": "443"}

// ExtractorLaunchError distinguishes a failure to bring up the
// Extractor Driver itself (binding the loopback listener, creating
// the output directory) from the per-page child-process failures
// runOneExtraction already logs and skips. Callers that care about
// the documented exit-code contract (spec §4.H: exit 2 is reserved
// for this case) can recognize it with errors.As.
type ExtractorLaunchError struct {
	Err error
}

func (e *ExtractorLaunchError) Error() string {
	return fmt.Sprintf("extractor driver failed to launch: %v", e.Err)
}

func (e *ExtractorLaunchError) Unwrap() error {
	return e.Err
}

// engine holds everything a crawl run shares across workers: the
// five owned sets, the frontier, and the collaborators each fetch
// goes through.
type engine struct {
	client   *http.Client
	cache    *responseCache
	logger   *zap.Logger
	observer Observer

	mainHost        string
	additionalHosts map[string]struct{}
	auth            authority

	preserveQueryOrder bool
	followAll          bool
	contentOnly        bool
	maxRetries         int

	frontier *frontier

	mu         sync.Mutex
	seen       map[string]struct{}
	discovered map[string]struct{}
	failed     map[string]string
	referrers  map[string]map[string]struct{}
	htmlHashes map[string]htmlPage

	statsMu sync.Mutex
	stats   Stats
}

// Crawl runs a same-site crawl to completion and returns its
// accumulated discovered/failed sets and stats. Once the configuration
// is valid, network and parse errors only shrink what gets recorded;
// the only error returned after that point is an *ExtractorLaunchError,
// which comes together with the fully built Result.
func Crawl(ctx context.Context, cfg Config) (*Result, error) {
	if len(cfg.Seeds) == 0 {
		return nil, errors.New("at least one seed URL is required")
	}

	auth, mainHost, err := seedAuthority(cfg.Seeds[0])
	if err != nil {
		return nil, fmt.Errorf("invalid seed URL: %w", err)
	}

	additionalHosts := make(map[string]struct{}, len(cfg.AdditionalHosts))
	for _, h := range cfg.AdditionalHosts {
		additionalHosts[h] = struct{}{}
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &engine{
		client:             client,
		cache:              newResponseCache(cfg.CachePath, cfg.BodyPath, logger),
		logger:             logger,
		observer:           newMultiObserver(cfg.Observer, newZapObserver(logger), newProgressObserver(cfg.Progress)),
		mainHost:           mainHost,
		additionalHosts:    additionalHosts,
		auth:               auth,
		preserveQueryOrder: cfg.PreserveQueryOrder,
		followAll:          cfg.FollowAll,
		contentOnly:        cfg.ContentOnly,
		maxRetries:         maxRetries,
		frontier:           newFrontier(),
		seen:               make(map[string]struct{}),
		discovered:         make(map[string]struct{}),
		failed:             make(map[string]string),
		referrers:          make(map[string]map[string]struct{}),
		htmlHashes:         make(map[string]htmlPage),
	}

	started := time.Now()

	for _, seed := range cfg.Seeds {
		e.enqueue(seed, false, "", false)
	}

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.worker(ctx)
		}()
	}
	wg.Wait()

	finished := time.Now()
	result := e.buildResult(started, finished)

	if cfg.ExtractorCmd != "" && cfg.ExtractorDir != "" && cfg.BodyPath != "" {
		if err := runExtractor(ctx, cfg, e.snapshotHashes(), logger); err != nil {
			logger.Warn("extractor driver failed to launch", zap.Error(err))
			return result, &ExtractorLaunchError{Err: err}
		}
	}

	return result, nil
}

// seedAuthority derives the scheme/port preferences and main host
// from the first seed. Ports equal to the scheme's well-known default
// are treated as absent, per spec: "seed's non-default port".
func seedAuthority(seedRaw string) (authority, string, error) {
	u, err := url.Parse(seedRaw)
	if err != nil {
		return authority{}, "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return authority{}, "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return authority{}, "", errors.New("seed URL must include a host")
	}
	port := u.Port()
	if port == defaultSchemePort[u.Scheme] {
		port = ""
	}
	return authority{scheme: u.Scheme, port: port}, u.Hostname(), nil
}
