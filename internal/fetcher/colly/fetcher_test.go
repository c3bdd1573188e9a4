package collyfetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/automuseums-gpx/internal/metrics"
)

func newTestServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/museums/Czechia":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html>page " + r.URL.Query().Get("page") + "</html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchSuccessAndRevisit(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := newTestServer(t, &hits)
	m := metrics.New()
	f := New(Config{UserAgent: "test-agent", Timeout: time.Second}, nil, m, nil)

	for range 2 {
		resp, err := f.Fetch(context.Background(), srv.URL+"/museums/Czechia?page=1")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "<html>page 1</html>", string(resp.Body))
	}
	assert.EqualValues(t, 2, hits.Load(), "revisiting the same URL must issue a new request")

	count, err := testutil.GatherAndCount(m.Registry(), "automuseums_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestFetchNotFoundIsError(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := newTestServer(t, &hits)
	f := New(Config{Timeout: time.Second}, nil, nil, nil)

	_, err := f.Get(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFetchCanceledContext(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-block
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(func() {
		close(block)
		srv.Close()
	})

	f := New(Config{Timeout: 5 * time.Second}, nil, nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := f.Fetch(ctx, srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFetcherBuildCollector(t *testing.T) {
	t.Parallel()

	f := New(Config{UserAgent: "coverage-agent", RespectRobots: true, Timeout: time.Second}, nil, nil, nil)
	collector := f.buildCollector(time.Unix(0, 0), &Response{}, new(error))
	if collector.UserAgent != "coverage-agent" {
		t.Fatalf("expected user agent override, got %q", collector.UserAgent)
	}
	if collector.IgnoreRobotsTxt {
		t.Fatal("expected robots txt to be respected")
	}
	if !collector.AllowURLRevisit {
		t.Fatal("expected revisits to be allowed")
	}
}

func TestConfigureCollectorHooks(t *testing.T) {
	t.Parallel()

	f := New(Config{}, nil, nil, nil)
	var result Response
	var fetchErr error

	hooks := &stubHooks{}
	f.configureCollectorHooks(hooks, time.Now(), &result, &fetchErr)
	if hooks.onRequest == nil || hooks.onResponse == nil || hooks.onError == nil {
		t.Fatal("expected hooks to be registered")
	}

	collyReq := &colly.Request{Headers: &http.Header{}}
	hooks.onRequest(collyReq)
	assert.Contains(t, collyReq.Headers.Get("Accept"), "text/html")

	hooks.onResponse(&colly.Response{
		StatusCode: http.StatusOK,
		Body:       []byte("body"),
		Request: &colly.Request{
			URL: mustParseURL(t, "https://example.com"),
		},
	})
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, "body", string(result.Body))

	hooks.onError(&colly.Response{StatusCode: http.StatusBadGateway}, errors.New("boom"))
	require.Error(t, fetchErr)
	assert.Equal(t, "status 502: boom", fetchErr.Error())

	hooks.onError(nil, errors.New("dial"))
	assert.Equal(t, "dial", fetchErr.Error())
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse url %q: %v", raw, err)
	}
	return u
}

type stubHooks struct {
	onRequest  colly.RequestCallback
	onResponse colly.ResponseCallback
	onError    colly.ErrorCallback
}

func (s *stubHooks) OnRequest(cb colly.RequestCallback) {
	s.onRequest = cb
}

func (s *stubHooks) OnResponse(cb colly.ResponseCallback) {
	s.onResponse = cb
}

func (s *stubHooks) OnError(cb colly.ErrorCallback) {
	s.onError = cb
}
