package lucida

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"lucidaflow/pkg/config"
	"lucidaflow/pkg/errors"
	"lucidaflow/pkg/extract"
	"lucidaflow/pkg/logger"
	"lucidaflow/pkg/ratelimit"
	"lucidaflow/pkg/storage"
)

// maxPageSize bounds how much of an HTML page is read into memory
const maxPageSize = 16 << 20

// Client talks to one lucida origin. Every outbound request, including the
// second request of a download, first waits on the limiter. A Client is safe
// for concurrent use; concurrent callers queue on the shared limiter.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string

	limiter ratelimit.Limiter
	policy  ratelimit.Policy
	clock   ratelimit.Clock

	extractor *extract.Extractor
	fields    extract.TrackFields
	links     extract.LinkLocator
	storage   *storage.Manager

	pageTimeout       time.Duration
	downloadTimeout   time.Duration
	defaultRetryAfter time.Duration

	progress ProgressFunc
	logger   logger.Logger
}

// ProgressFunc receives the bytes written so far and the expected total,
// which is -1 when the server did not send a length
type ProgressFunc func(written, total int64)

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the HTTP client; timeouts are applied per call via context
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLimiter replaces the limiter built from the configuration
func WithLimiter(l ratelimit.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithRegistry takes the limiter for the client's origin from r, so clients
// sharing an origin share one request budget
func WithRegistry(r *ratelimit.Registry) Option {
	return func(c *Client) {
		if sw, err := r.For(c.baseURL); err == nil {
			c.limiter = sw
		}
	}
}

// WithClock replaces the clock used for Retry-After sleeps, fallback filenames
// and, unless a limiter is supplied, the limiter itself
func WithClock(clock ratelimit.Clock) Option {
	return func(c *Client) {
		c.clock = clock
	}
}

// WithLogger sets the client logger
func WithLogger(log logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.logger = log
		}
	}
}

// WithTrackFields replaces the track page locators
func WithTrackFields(fields extract.TrackFields) Option {
	return func(c *Client) {
		c.fields = fields
	}
}

// WithLinkLocator replaces the download link locator
func WithLinkLocator(l extract.LinkLocator) Option {
	return func(c *Client) {
		c.links = l
	}
}

// WithProgress reports download progress to fn
func WithProgress(fn ProgressFunc) Option {
	return func(c *Client) {
		c.progress = fn
	}
}

// NewClient creates a client from the configuration
func NewClient(cfg *config.Config, opts ...Option) *Client {
	baseURL := strings.TrimRight(cfg.Lucida.BaseURL, "/")
	if baseURL == "" {
		baseURL = BaseURL
	}

	userAgent := cfg.Lucida.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultUserAgent
	}

	c := &Client{
		httpClient: &http.Client{},
		headers: map[string]string{
			"User-Agent":      userAgent,
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
		},
		baseURL:           baseURL,
		policy:            ratelimit.PolicyFromConfig(&cfg.RateLimit),
		clock:             ratelimit.RealClock(),
		fields:            extract.DefaultTrackFields(),
		links:             extract.DownloadLink{},
		storage:           storage.NewManager(cfg.Download.Directory, cfg.Download.ChunkSize),
		pageTimeout:       cfg.Lucida.Timeout,
		downloadTimeout:   cfg.Download.Timeout,
		defaultRetryAfter: cfg.RateLimit.DefaultRetryAfter,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = logger.GetLogger()
	}
	if c.limiter == nil {
		c.limiter = ratelimit.NewSlidingWindow(c.policy,
			ratelimit.WithClock(c.clock),
			ratelimit.WithLogger(c.logger),
		)
	}
	if p, ok := c.limiter.(interface{ Policy() ratelimit.Policy }); ok {
		c.policy = p.Policy()
	}
	c.extractor = extract.New(baseURL, extract.WithLogger(c.logger))

	return c
}

// BaseURL returns the origin this client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// DownloadDir returns the directory downloads are saved to by default
func (c *Client) DownloadDir() string {
	return c.storage.GetOutputDir()
}

// ConfineOutputPath resolves outputPath inside the download directory and
// fails with a validation error when it would escape it
func (c *Client) ConfineOutputPath(outputPath string) (string, error) {
	return c.storage.Confine(outputPath)
}

// Services returns the supported service identifiers
func (c *Client) Services() []string {
	return Services()
}

// Stats returns the limiter snapshot and the enforced limits
func (c *Client) Stats() Stats {
	return Stats{
		Stats: c.limiter.Stats(),
		Limits: Limits{
			PerMinute:       c.policy.RequestsPerMinute,
			PerHour:         c.policy.RequestsPerHour,
			MinDelaySeconds: c.policy.MinDelay.Seconds(),
		},
	}
}

// response is an open HTTP response whose per-call deadline ends on Close
type response struct {
	*http.Response
	cancel context.CancelFunc
}

func (r *response) Close() {
	r.Body.Close()
	r.cancel()
}

// fetch waits on the limiter, sends a GET and classifies the status. The
// classification is the only place limiter error state changes.
// Non-success statuses are returned as typed errors with the body closed.
func (c *Client) fetch(ctx context.Context, rawURL string, timeout time.Duration) (*response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeNetwork, err, "waiting for rate limiter")
	}

	var (
		reqCtx context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		reqCtx, cancel = context.WithCancel(ctx)
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		cancel()
		return nil, errors.Wrap(errors.ErrorTypeValidation, err, "failed to create request")
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		c.logger.WithError(err).WithField("url", rawURL).Warn("HTTP request failed")
		return nil, errors.Wrap(errors.ErrorTypeNetwork, err, "request failed")
	}
	logger.LogRequest(c.logger, req.Method, rawURL, resp.StatusCode, time.Since(start))

	class := errors.Classify(resp.StatusCode)
	c.recordOutcome(class)

	switch class {
	case errors.ClassSuccess:
		return &response{Response: resp, cancel: cancel}, nil
	case errors.ClassTransient:
		wait := c.retryAfter(resp.Header.Get("Retry-After"))
		resp.Body.Close()
		cancel()

		logger.LogRateLimit(c.logger, "retry_after", wait)
		if err := c.clock.Sleep(ctx, wait); err != nil {
			return nil, errors.Wrap(errors.ErrorTypeRateLimit, err, "rate limited by server")
		}
		return nil, errors.New(errors.ErrorTypeRateLimit, resp.StatusCode,
			"rate limited by server, waited %s", wait)
	default:
		resp.Body.Close()
		cancel()
		return nil, errors.FromStatus(resp.StatusCode)
	}
}

func (c *Client) recordOutcome(class errors.Classification) {
	if class.IsFailure() {
		c.limiter.RecordError()
		return
	}
	c.limiter.RecordSuccess()
}

// retryAfter reads delay-seconds or an HTTP date, falling back to the configured default
func (c *Client) retryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return c.defaultRetryAfter
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(c.clock.Now()); d > 0 {
			return d
		}
		return 0
	}
	return c.defaultRetryAfter
}

// progressReader reports the running byte count after every read
type progressReader struct {
	r       io.Reader
	total   int64
	written int64
	fn      ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.written += int64(n)
		p.fn(p.written, p.total)
	}
	return n, err
}

// fetchPage fetches an HTML page and reads it fully
func (c *Client) fetchPage(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := c.fetch(ctx, rawURL, c.pageTimeout)
	if err != nil {
		return nil, err
	}
	defer resp.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeNetwork, err, "failed to read response body")
	}
	return body, nil
}
