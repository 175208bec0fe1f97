// Package scraper drives the postback protocol of a WebForms search page.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/aluiziolira/scout-bot/models"
	"github.com/aluiziolira/scout-bot/parser"
)

const maxFinalRedirects = 10

// Options configures a Searcher.
type Options struct {
	// TargetURL is the search page, fetched for postback state and posted to.
	TargetURL string
	// Fields are the static form parameters sent after the hidden fields.
	Fields    models.FormFields
	Timeout   time.Duration
	UserAgent string
	Metrics   *Metrics
	Logger    *slog.Logger
}

// Searcher performs search attempts on one cookie session. It is not safe for
// concurrent use.
type Searcher struct {
	target    string
	origin    string
	fields    models.FormFields
	collector *colly.Collector
	metrics   *Metrics
	logger    *slog.Logger

	followRedirects bool
	last            *colly.Response
}

// NewSearcher builds a searcher for opts.TargetURL.
func NewSearcher(opts Options) (*Searcher, error) {
	parsed, err := url.Parse(opts.TargetURL)
	if err != nil {
		return nil, fmt.Errorf("parse target url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("target url must be absolute")
	}

	collectorOpts := []colly.CollectorOption{
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
	}
	if opts.UserAgent != "" {
		collectorOpts = append(collectorOpts, colly.UserAgent(opts.UserAgent))
	}
	collector := colly.NewCollector(collectorOpts...)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	collector.SetRequestTimeout(timeout)
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Searcher{
		target:    opts.TargetURL,
		origin:    parsed.Scheme + "://" + parsed.Host,
		fields:    opts.Fields,
		collector: collector,
		metrics:   opts.Metrics,
		logger:    logger,
	}

	collector.SetRedirectHandler(func(req *http.Request, via []*http.Request) error {
		if !s.followRedirects {
			return http.ErrUseLastResponse
		}
		if len(via) >= maxFinalRedirects {
			return fmt.Errorf("stopped after %d redirects", maxFinalRedirects)
		}
		return nil
	})
	collector.OnResponse(func(r *colly.Response) {
		s.last = r
	})

	return s, nil
}

// WithTransport replaces the HTTP transport, keeping the cookie jar.
func (s *Searcher) WithTransport(transport http.RoundTripper) {
	s.collector.WithTransport(transport)
}

// Search runs one attempt: fetch the form, submit it, and resolve the
// redirect chain. It returns the markup of the result page.
func (s *Searcher) Search(ctx context.Context) (string, error) {
	body, err := s.search(ctx)
	if err != nil {
		s.metrics.IncError(ErrorTypeLabel(err))
		return "", err
	}
	return body, nil
}

func (s *Searcher) search(ctx context.Context) (string, error) {
	page, err := s.do(ctx, "form", http.MethodGet, s.target, "", false)
	if err != nil {
		return "", err
	}
	if !isSuccess(page.StatusCode) {
		return "", TransportError{Step: "form", Status: page.StatusCode}
	}

	hidden, err := parser.ExtractFormState(string(page.Body))
	if err != nil {
		return "", err
	}
	payload := BuildPayload(hidden, s.fields)

	post, err := s.do(ctx, "submit", http.MethodPost, s.target, payload.Encode(), false)
	if err != nil {
		return "", err
	}
	if post.StatusCode != http.StatusOK && post.StatusCode != http.StatusFound {
		return "", TransportError{Step: "submit", Status: post.StatusCode}
	}

	return s.resolveRedirects(ctx, post)
}

// resolveRedirects follows at most two Location hops by hand. The second hop
// lets the client follow any further redirects itself.
func (s *Searcher) resolveRedirects(ctx context.Context, post *colly.Response) (string, error) {
	if post.StatusCode == http.StatusOK {
		return string(post.Body), nil
	}
	location := locationOf(post)
	if location == "" {
		return string(post.Body), nil
	}

	first, err := s.do(ctx, "redirect", http.MethodGet, s.resolve(location), "", false)
	if err != nil {
		return "", err
	}
	if first.StatusCode == http.StatusOK {
		return string(first.Body), nil
	}
	location = locationOf(first)
	if location == "" {
		return string(first.Body), nil
	}

	final, err := s.do(ctx, "final", http.MethodGet, s.resolve(location), "", true)
	if err != nil {
		return "", err
	}
	if !isSuccess(final.StatusCode) {
		return "", TransportError{Step: "final", Status: final.StatusCode}
	}
	return string(final.Body), nil
}

func (s *Searcher) do(ctx context.Context, step, method, target, body string, follow bool) (*colly.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, TransportError{Step: step, Err: err}
	}

	var hdr http.Header
	var reader *strings.Reader
	if method == http.MethodPost {
		hdr = http.Header{}
		hdr.Set("Content-Type", "application/x-www-form-urlencoded")
		reader = strings.NewReader(body)
	}

	s.followRedirects = follow
	s.last = nil
	start := time.Now()

	var err error
	if reader != nil {
		err = s.collector.Request(method, target, reader, colly.NewContext(), hdr)
	} else {
		err = s.collector.Request(method, target, nil, colly.NewContext(), hdr)
	}
	s.metrics.ObserveDuration(step, time.Since(start))

	if err != nil {
		s.metrics.IncRequest(step, "error")
		return nil, TransportError{Step: step, Err: classifyError(err)}
	}
	if s.last == nil {
		s.metrics.IncRequest(step, "error")
		return nil, TransportError{Step: step, Err: errors.New("no response received")}
	}

	resp := s.last
	s.metrics.IncRequest(step, strconv.Itoa(resp.StatusCode))
	s.logger.Debug("search request",
		slog.String("step", step),
		slog.String("method", method),
		slog.String("url", target),
		slog.Int("status", resp.StatusCode),
	)
	return resp, nil
}

// resolve turns a Location value into an absolute URL on the site origin.
func (s *Searcher) resolve(location string) string {
	if parsed, err := url.Parse(location); err == nil && parsed.IsAbs() {
		return location
	}
	return s.origin + location
}

// BuildPayload merges hidden postback state with the static form fields,
// hidden fields first.
func BuildPayload(hidden, static models.FormFields) models.FormFields {
	payload := make(models.FormFields, 0, len(hidden)+len(static))
	payload = append(payload, hidden...)
	payload = append(payload, static...)
	return payload
}

func locationOf(r *colly.Response) string {
	if r.Headers == nil {
		return ""
	}
	return r.Headers.Get("Location")
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
