package crawler

import "go.uber.org/zap"

// Observer is the diagnostic side-channel hook set. The core permits
// observation at four points and never depends on an observer's
// presence for correctness; a nil-safe no-op is always available.
type Observer interface {
	Enqueue(url, sourceURL string, cameFromAdditionalHost bool)
	FetchStart(url string)
	FetchComplete(url string, status int, err string)
	Discover(url string)
}

type noopObserver struct{}

func (noopObserver) Enqueue(string, string, bool)       {}
func (noopObserver) FetchStart(string)                  {}
func (noopObserver) FetchComplete(string, int, string)  {}
func (noopObserver) Discover(string)                    {}

// multiObserver fans every hook out to each constituent observer in
// order. A nil entry in observers is skipped.
type multiObserver struct {
	observers []Observer
}

func newMultiObserver(observers ...Observer) Observer {
	var live []Observer
	for _, o := range observers {
		if o != nil {
			live = append(live, o)
		}
	}
	if len(live) == 0 {
		return noopObserver{}
	}
	if len(live) == 1 {
		return live[0]
	}
	return &multiObserver{observers: live}
}

func (m *multiObserver) Enqueue(url, sourceURL string, cameFromAdditionalHost bool) {
	for _, o := range m.observers {
		o.Enqueue(url, sourceURL, cameFromAdditionalHost)
	}
}

func (m *multiObserver) FetchStart(url string) {
	for _, o := range m.observers {
		o.FetchStart(url)
	}
}

func (m *multiObserver) FetchComplete(url string, status int, err string) {
	for _, o := range m.observers {
		o.FetchComplete(url, status, err)
	}
}

func (m *multiObserver) Discover(url string) {
	for _, o := range m.observers {
		o.Discover(url)
	}
}

// zapObserver logs each hook at debug level, grounded in the
// teacher's nil-checked Progress callback but generalized to
// structured fields.
type zapObserver struct {
	log *zap.Logger
}

func newZapObserver(log *zap.Logger) Observer {
	if log == nil {
		return nil
	}
	return &zapObserver{log: log}
}

func (z *zapObserver) Enqueue(url, sourceURL string, cameFromAdditionalHost bool) {
	z.log.Debug("enqueue",
		zap.String("url", url),
		zap.String("source", sourceURL),
		zap.Bool("came_from_additional_host", cameFromAdditionalHost))
}

func (z *zapObserver) FetchStart(url string) {
	z.log.Debug("fetch_start", zap.String("url", url))
}

func (z *zapObserver) FetchComplete(url string, status int, err string) {
	if err != "" {
		z.log.Debug("fetch_complete", zap.String("url", url), zap.String("error", err))
		return
	}
	z.log.Debug("fetch_complete", zap.String("url", url), zap.Int("status", status))
}

func (z *zapObserver) Discover(url string) {
	z.log.Debug("discover", zap.String("url", url))
}

// progressObserver adapts the teacher's plain Progress func(string)
// callback onto the Observer interface, firing on fetch-start only —
// the same point the teacher's emitProgress call sits at.
type progressObserver struct {
	progress func(string)
}

func newProgressObserver(progress func(string)) Observer {
	if progress == nil {
		return nil
	}
	return &progressObserver{progress: progress}
}

func (p *progressObserver) Enqueue(string, string, bool)      {}
func (p *progressObserver) FetchStart(url string)             { p.progress(url) }
func (p *progressObserver) FetchComplete(string, int, string) {}
func (p *progressObserver) Discover(string)                   {}
