// Command samesitecrawl crawls a site from one or more seed URLs and
// writes a discovered-URLs text file and a failed-URLs YAML report.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/mooose/samesitecrawl/internal/crawler"
)

// Exit codes: 0 success, 1 argument or missing-input error, 2 the
// extractor driver failed to launch (the crawl itself still
// completed and its reports are written before exiting).
const (
	exitOK             = 0
	exitArgumentError  = 1
	exitExtractorError = 2
)

type cli struct {
	Seeds []string `arg:"" name:"seed" help:"Seed URL(s) to start the crawl from." required:""`

	AdditionalHost     []string `help:"Additional host treated as equivalent to the main host. Repeatable."`
	FollowAll          bool     `help:"Follow rel=nofollow references as well."`
	ContentOnly        bool     `help:"Skip the raw-text regex link-extraction fallback."`
	PreserveQueryOrder bool     `help:"Preserve query parameter order instead of sorting it alphabetically."`

	Concurrency int `help:"Number of concurrent fetch workers." default:"20"`
	MaxRetries  int `help:"Maximum retry attempts for transient failures." default:"3"`

	CacheDir     string `help:"Directory for the persistent response cache."`
	BodyDir      string `help:"Directory for the raw response body store."`
	ExtractorDir string `help:"Directory extractor output is written to."`
	ExtractorCmd string `help:"External command invoked once per discovered HTML page, given a loopback URL, the page URL and its RFC 3339 crawl time."`

	BadURLsFile    string `help:"Optional file of previously-known-bad URLs, for the companion tool."`
	DiscoveredFile string `help:"Output path for the discovered-URLs text file." default:"discovered.txt"`
	FailedFile     string `help:"Output path for the failed-URLs YAML report." default:"failed.yaml"`

	Verbose bool `help:"Enable debug-level structured logging." short:"v"`
}

func main() {
	var c cli
	kong.Parse(&c,
		kong.Name("samesitecrawl"),
		kong.Description("Discover every HTML document reachable from one or more seed URLs.\n\n"+
			"Exit codes: 0 success, 1 argument or missing-input error, "+
			"2 the extractor driver failed to launch."),
		kong.UsageOnError(),
		kong.Exit(func(code int) { os.Exit(code) }),
	)

	logger, err := buildLogger(c.Verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitArgumentError)
	}
	defer logger.Sync()

	cfg := crawler.Config{
		Seeds:              c.Seeds,
		AdditionalHosts:    c.AdditionalHost,
		FollowAll:          c.FollowAll,
		ContentOnly:        c.ContentOnly,
		PreserveQueryOrder: c.PreserveQueryOrder,
		Concurrency:        c.Concurrency,
		MaxRetries:         c.MaxRetries,
		CachePath:          c.CacheDir,
		BodyPath:           c.BodyDir,
		ExtractorCmd:       c.ExtractorCmd,
		ExtractorDir:       c.ExtractorDir,
		Logger:             logger,
		Progress: func(u string) {
			fmt.Fprintln(os.Stderr, "fetching", u)
		},
	}

	result, err := crawler.Crawl(context.Background(), cfg)

	var launchErr *crawler.ExtractorLaunchError
	extractorFailed := errors.As(err, &launchErr)
	if err != nil && !extractorFailed {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitArgumentError)
	}

	if err := crawler.WriteDiscovered(c.DiscoveredFile, result.Discovered); err != nil {
		logger.Error("write discovered file failed", zap.Error(err))
		os.Exit(exitArgumentError)
	}
	if err := crawler.WriteFailedYAML(c.FailedFile, result.Failed); err != nil {
		logger.Error("write failed report failed", zap.Error(err))
		os.Exit(exitArgumentError)
	}

	logger.Info("crawl complete",
		zap.Int("discovered", len(result.Discovered)),
		zap.Int("failed", len(result.Failed)),
		zap.Int("fetched", result.Stats.Fetched),
		zap.Duration("duration", result.Stats.Duration),
	)

	if extractorFailed {
		fmt.Fprintln(os.Stderr, launchErr)
		os.Exit(exitExtractorError)
	}
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}
