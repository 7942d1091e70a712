// Package fetch retrieves raw content from recipe sources. A URL is
// classified by platform once, then dispatched to the platform's fetcher.
// Transient failures (timeouts, 5xx) are retried once with backoff; all
// other failures surface immediately as typed errors.
package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodySize    = 5 * 1024 * 1024
	userAgent      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// platformFetcher retrieves content for one platform.
type platformFetcher interface {
	Fetch(ctx context.Context, url string) (*Attempt, error)
}

// Client is the source fetcher. It owns one fetcher per platform and applies
// the transient-retry policy around each fetch.
type Client struct {
	httpc   *http.Client
	creds   CredentialStore
	log     *zap.Logger
	sleeper Sleeper
	backoff BackoffConfig

	fetchers map[Platform]platformFetcher
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for all platform fetches.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithCredentials sets the credential store used for platform auth.
func WithCredentials(creds CredentialStore) Option {
	return func(c *Client) { c.creds = creds }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithSleeper overrides the retry sleeper. Used by tests to avoid delays.
func WithSleeper(s Sleeper) Option {
	return func(c *Client) { c.sleeper = s }
}

// WithInstagramAPIBase overrides the Instagram API base URL.
func WithInstagramAPIBase(base string) Option {
	return func(c *Client) { c.fetchers[PlatformInstagram].(*instagramFetcher).apiBase = base }
}

// WithYouTubeBases overrides the YouTube oEmbed and timedtext base URLs.
func WithYouTubeBases(oembed, timedtext string) Option {
	return func(c *Client) {
		yf := c.fetchers[PlatformYouTube].(*youtubeFetcher)
		yf.oembedBase = oembed
		yf.timedtextBase = timedtext
	}
}

// WithTikTokOEmbedBase overrides the TikTok oEmbed base URL.
func WithTikTokOEmbedBase(base string) Option {
	return func(c *Client) { c.fetchers[PlatformTikTok].(*tiktokFetcher).oembedBase = base }
}

// NewClient creates a source fetcher.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpc:   &http.Client{Timeout: defaultTimeout},
		creds:   EnvCredentialStore{},
		log:     zap.NewNop(),
		sleeper: DefaultSleeper,
		backoff: DefaultBackoff,
	}
	c.fetchers = map[Platform]platformFetcher{
		PlatformGenericWeb: &genericWebFetcher{client: c},
		PlatformInstagram:  &instagramFetcher{client: c, apiBase: "https://www.instagram.com"},
		PlatformYouTube: &youtubeFetcher{
			client:        c,
			oembedBase:    "https://www.youtube.com",
			timedtextBase: "https://www.youtube.com",
		},
		PlatformTikTok: &tiktokFetcher{client: c, oembedBase: "https://www.tiktok.com"},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch classifies the URL and retrieves its content. Transient errors are
// retried once with backoff; all others return immediately.
func (c *Client) Fetch(ctx context.Context, url string) (*Attempt, error) {
	platform := Classify(url)
	f := c.fetchers[platform]

	const maxAttempts = 2
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		a, err := f.Fetch(ctx, url)
		if err == nil {
			return a, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, err
		}
		if !Transient(err) || attempt == maxAttempts {
			return nil, err
		}
		c.log.Warn("transient fetch failure, retrying",
			zap.String("url", url),
			zap.String("platform", string(platform)),
			zap.Error(err))
		c.sleeper.Sleep(c.backoff.DelayForAttempt(attempt))
	}
	return nil, lastErr
}

// get performs a GET with a realistic client identity and returns the
// response body. Non-2xx statuses and network failures map into the fetch
// error taxonomy.
func (c *Client) get(ctx context.Context, url string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Cause: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, &TimeoutError{URL: url, Cause: err}
		}
		return nil, &FetchError{URL: url, Cause: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound,
		resp.StatusCode == http.StatusGone,
		resp.StatusCode == http.StatusUnavailableForLegalReasons:
		return nil, &NotFoundError{URL: url}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &FetchError{URL: url, Cause: err}
	}
	return body, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
