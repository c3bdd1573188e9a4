// Package collyfetcher downloads directory pages using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/automuseums-gpx/internal/metrics"
	"github.com/JakeFAU/automuseums-gpx/internal/policy/ratelimit"
)

// Config controls collector behavior.
type Config struct {
	UserAgent     string
	RespectRobots bool
	Timeout       time.Duration
}

// Response is a successful page download.
type Response struct {
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// Fetcher issues sequential GET requests through a Colly collector.
type Fetcher struct {
	cfg           Config
	transport     http.RoundTripper
	baseCollector *colly.Collector
	limiter       *ratelimit.Limiter
	metrics       *metrics.Metrics
	logger        *zap.Logger
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher. limiter and m may be nil.
func New(cfg Config, limiter *ratelimit.Limiter, m *metrics.Metrics, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	// Pages are re-requested whenever their cache goes stale.
	c := colly.NewCollector(colly.Async(false), colly.AllowURLRevisit())
	transport := newHTTPTransport()
	c.WithTransport(transport)

	return &Fetcher{
		cfg:           cfg,
		transport:     transport,
		baseCollector: c,
		limiter:       limiter,
		metrics:       m,
		logger:        logger,
	}
}

// Fetch executes a single HTTP GET. Non-2xx responses are errors.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Response, error) {
	if _, err := f.limiter.Wait(ctx); err != nil {
		return Response{}, err
	}

	var (
		result   Response
		fetchErr error
	)
	start := time.Now()
	collector := f.buildCollector(start, &result, &fetchErr)
	if err := f.runCollector(ctx, collector, rawURL, &fetchErr); err != nil {
		return Response{}, err
	}
	f.logger.Info("downloaded",
		zap.String("url", result.URL),
		zap.Int("status", result.StatusCode),
		zap.Int("bytes", len(result.Body)),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

// Get is Fetch reduced to the response body.
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (f *Fetcher) buildCollector(start time.Time, result *Response, fetchErr *error) *colly.Collector {
	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.IgnoreRobotsTxt = !f.cfg.RespectRobots
	timeout := f.cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	collector.SetRequestTimeout(timeout)
	if f.transport != nil {
		collector.WithTransport(f.transport)
	}

	f.configureCollectorHooks(collector, start, result, fetchErr)
	return collector
}

func (f *Fetcher) configureCollectorHooks(
	hooks collectorHooks,
	start time.Time,
	result *Response,
	fetchErr *error,
) {
	hooks.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml")
	})

	hooks.OnResponse(func(r *colly.Response) {
		duration := time.Since(start)
		*result = Response{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
			Duration:   duration,
		}
		f.metrics.ObserveRequest(r.StatusCode, duration)
	})

	hooks.OnError(func(r *colly.Response, err error) {
		code := 0
		if r != nil {
			code = r.StatusCode
		}
		f.metrics.ObserveRequest(code, time.Since(start))
		if code != 0 {
			err = fmt.Errorf("status %d: %w", code, err)
		}
		*fetchErr = err
	})
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch %s canceled: %w", url, ctx.Err())
	case err := <-done:
		if *fetchErr != nil {
			return fmt.Errorf("colly response for %s failed: %w", url, *fetchErr)
		}
		if err != nil {
			return fmt.Errorf("colly visit %s failed: %w", url, err)
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}
}
