package scoring

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"stockout-app/errorx"
	"stockout-app/logger"
)

const (
	maxArtifactBytes    = 256 << 20
	defaultFetchTimeout = 60 * time.Second
)

// Loader fetches, caches and decodes the scoring artifact. The first
// successful load is kept for the lifetime of the process; failures are not
// remembered, so the next Load tries again.
type Loader struct {
	url     string
	cache   Cache
	client  *http.Client
	sum     string
	timeout time.Duration
	log     logger.Logger

	group singleflight.Group

	mu       sync.RWMutex
	artifact Artifact
}

// LoaderOption customizes a Loader.
type LoaderOption func(*Loader)

// WithHTTPClient replaces the client used to fetch the artifact.
func WithHTTPClient(c *http.Client) LoaderOption {
	return func(l *Loader) { l.client = c }
}

// WithFetchTimeout bounds a single fetch.
func WithFetchTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) {
		if d > 0 {
			l.timeout = d
			l.client = &http.Client{Timeout: d}
		}
	}
}

// WithSHA256 pins the artifact to a hex digest. Empty disables the check.
func WithSHA256(sum string) LoaderOption {
	return func(l *Loader) { l.sum = strings.ToLower(strings.TrimSpace(sum)) }
}

func NewLoader(url string, cache Cache, log logger.Logger, opts ...LoaderOption) *Loader {
	l := &Loader{
		url:     url,
		cache:   cache,
		client:  &http.Client{Timeout: defaultFetchTimeout},
		timeout: defaultFetchTimeout,
		log:     log,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the process-wide artifact, loading it on first use. The
// shared load is detached from ctx so one caller going away does not fail
// the others waiting on it; ctx only bounds how long this caller waits.
func (l *Loader) Load(ctx context.Context) (Artifact, error) {
	if a := l.current(); a != nil {
		return a, nil
	}

	ch := l.group.DoChan("artifact", func() (interface{}, error) {
		if a := l.current(); a != nil {
			return a, nil
		}
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
		defer cancel()

		a, err := l.load(loadCtx)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.artifact = a
		l.mu.Unlock()

		info := Describe(a)
		l.log.Infof(ctx, "scoring artifact %s %s loaded with %d features", info.Name, info.Version, len(info.Features))
		return a, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Artifact), nil
	case <-ctx.Done():
		return nil, errorx.New(errorx.StageLoad, errorx.ErrFetch, ctx.Err())
	}
}

// Loaded reports whether an artifact is held in memory.
func (l *Loader) Loaded() bool {
	return l.current() != nil
}

func (l *Loader) current() Artifact {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.artifact
}

func (l *Loader) load(ctx context.Context) (Artifact, error) {
	data, ok, err := l.cache.Get(ctx)
	if err != nil {
		l.log.Warnf(ctx, "read artifact cache %s failed, fetching from %s: %v", l.cache, l.url, err)
		ok = false
	}
	if ok {
		l.log.Debugf(ctx, "artifact cache hit %s", l.cache)
		if err := l.verify(data); err != nil {
			return nil, errorx.New(errorx.StageLoad, errorx.ErrDeserialization, err)
		}
		return Decode(data)
	}

	data, err = l.fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := l.verify(data); err != nil {
		return nil, errorx.New(errorx.StageLoad, errorx.ErrDeserialization, err)
	}
	a, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if err := l.cache.Put(ctx, data); err != nil {
		l.log.Warnf(ctx, "write artifact cache %s failed: %v", l.cache, err)
	}
	return a, nil
}

func (l *Loader) fetch(ctx context.Context) ([]byte, error) {
	if l.url == "" {
		return nil, errorx.Newf(errorx.StageLoad, errorx.ErrFetch, "no cached artifact and model url is empty")
	}
	l.log.Infof(ctx, "fetching scoring artifact from %s", l.url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, errorx.New(errorx.StageLoad, errorx.ErrFetch, err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, errorx.New(errorx.StageLoad, errorx.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errorx.Newf(errorx.StageLoad, errorx.ErrFetch, "GET %s: unexpected status %s", l.url, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactBytes))
	if err != nil {
		return nil, errorx.New(errorx.StageLoad, errorx.ErrFetch, err)
	}
	return data, nil
}

func (l *Loader) verify(data []byte) error {
	if l.sum == "" {
		return nil
	}
	got := sha256.Sum256(data)
	if hex.EncodeToString(got[:]) != l.sum {
		return fmt.Errorf("artifact sha256 %x does not match pinned %s", got, l.sum)
	}
	return nil
}
