package extracthtml

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"faculty/internal/metrics"

	"github.com/go-resty/resty/v2"
	"github.com/rotisserie/eris"
	"golang.org/x/net/html/charset"
)

// DefaultUserAgent is sent when no other User-Agent is configured.
const DefaultUserAgent = "faculty-scrape/1.0"

// Input describes where HTML should come from.
type Input struct {
	// URL, if provided, is fetched via HTTP GET.
	URL string

	// Stdin is used when URL is empty. If nil, stdin reads as empty.
	Stdin io.Reader
}

// Loader fetches pages with a per-request timeout and decodes them to UTF-8.
type Loader struct {
	client    *resty.Client
	timeout   time.Duration
	userAgent string
	metrics   metrics.Backend
}

// LoaderOption customizes a Loader.
type LoaderOption func(*Loader)

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) LoaderOption {
	return func(l *Loader) {
		if ua != "" {
			l.userAgent = ua
		}
	}
}

// WithMetrics reports request counts, durations and sizes to b.
func WithMetrics(b metrics.Backend) LoaderOption {
	return func(l *Loader) {
		if b != nil {
			l.metrics = b
		}
	}
}

// NewLoader creates a Loader over a shallow copy of client, so the caller's
// client is never modified. If client is nil, a fresh *http.Client is used.
func NewLoader(client *http.Client, timeout time.Duration, opts ...LoaderOption) *Loader {
	hc := &http.Client{}
	if client != nil {
		c := *client
		hc = &c
	}
	l := &Loader{
		client:    resty.NewWithClient(hc),
		timeout:   timeout,
		userAgent: DefaultUserAgent,
		metrics:   metrics.Nop{},
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Load returns the HTML for input: stdin when input.URL is empty, otherwise
// the fetched page.
//
// Non-2xx responses become errors carrying the status code and up to 4KB of
// the body.
func (l *Loader) Load(ctx context.Context, input Input) (string, error) {
	if strings.TrimSpace(input.URL) == "" {
		if input.Stdin == nil {
			return "", nil
		}
		b, err := io.ReadAll(input.Stdin)
		if err != nil {
			return "", eris.Wrap(err, "read stdin")
		}
		return string(b), nil
	}
	return l.Fetch(ctx, input.URL)
}

// Fetch GETs rawURL.
func (l *Loader) Fetch(ctx context.Context, rawURL string) (string, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := l.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", l.userAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml").
		Get(rawURL)
	if err != nil {
		l.observe("error", time.Since(start), 0)
		return "", eris.Wrapf(err, "http get %s", rawURL)
	}

	body := resp.Body()
	status := strconv.Itoa(resp.StatusCode())
	l.observe(status, time.Since(start), len(body))

	if !resp.IsSuccess() {
		snippet := body
		if len(snippet) > 4096 {
			snippet = snippet[:4096]
		}
		return "", eris.Errorf("http status %d: %s", resp.StatusCode(), strings.TrimSpace(string(snippet)))
	}

	return decodeBody(body, resp.Header().Get("Content-Type")), nil
}

// decodeBody converts body to UTF-8 using the declared or sniffed charset.
// Undecodable bodies are returned as-is.
func decodeBody(body []byte, contentType string) string {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return string(body)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return string(body)
	}
	return string(b)
}

func (l *Loader) observe(status string, d time.Duration, size int) {
	labels := metrics.Labels{"status": status}
	l.metrics.IncCounter(metrics.HTTPRequestsTotal, 1, labels)
	l.metrics.ObserveHistogram(metrics.HTTPRequestDuration, d.Seconds(), labels)
	if size > 0 {
		l.metrics.ObserveHistogram(metrics.HTTPDownloadBytes, float64(size), labels)
	}
}
