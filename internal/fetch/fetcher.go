// Package fetch retrieves the small set of remote resources an analysis
// needs: the page itself plus robots.txt, sitemap.xml, and llms.txt.
package fetch

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Resource names used as keys in the fetch result map.
const (
	ResourcePage    = "page"
	ResourceRobots  = "robots"
	ResourceSitemap = "sitemap"
	ResourceLLMS    = "llms"
)

const (
	maxRedirects    = 5
	maxResponseBody = 10 << 20
	userAgent       = "Mozilla/5.0 (compatible; SightlineBot/1.0; +https://sightline.ai/bot)"
)

var (
	errTooManyRedirects = errors.New("too many redirects")
	errBlockedRedirect  = errors.New("redirect to non-http(s) scheme blocked")
)

// Result holds the outcome of fetching one resource. Err is set when the
// resource could not be retrieved at all; a non-200 status is not an error.
// FinalURL is the URL the response was served from, after any redirects.
type Result struct {
	URL        string
	FinalURL   string
	StatusCode int
	Body       string
	Header     http.Header
	ElapsedMs  int64
	Err        error
}

// OK reports whether the resource was fetched with a 200 status.
func (r Result) OK() bool {
	return r.Err == nil && r.StatusCode == http.StatusOK
}

// Client fetches analysis resources concurrently. A shared rate limiter keeps
// the engine polite toward origins even when several analyses overlap.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// NewClient returns a Client with the given per-resource timeout, a transport
// that blocks private/reserved addresses, and redirect validation.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		timeout: timeout,
		limiter: rate.NewLimiter(rate.Limit(20), 40),
		http: &http.Client{
			Transport: &http.Transport{
				DialContext:         safeDialer().DialContext,
				MaxConnsPerHost:     10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
			CheckRedirect: safeRedirectPolicy,
		},
	}
}

func safeRedirectPolicy(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("%w: stopped after %d", errTooManyRedirects, maxRedirects)
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return fmt.Errorf("%w: %s", errBlockedRedirect, req.URL.Scheme)
	}
	return nil
}

// FetchAll retrieves the target page and the origin's robots.txt, sitemap.xml,
// and llms.txt concurrently. Each resource fails independently; a missing
// robots.txt never aborts the page fetch. The returned map always contains
// all four resource keys.
func (c *Client) FetchAll(ctx context.Context, target string) (map[string]Result, error) {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("fetch: invalid target %q", target)
	}
	origin := u.Scheme + "://" + u.Host

	targets := map[string]string{
		ResourcePage:    target,
		ResourceRobots:  origin + "/robots.txt",
		ResourceSitemap: origin + "/sitemap.xml",
		ResourceLLMS:    origin + "/llms.txt",
	}

	results := make(map[string]Result, len(targets))
	var mu sync.Mutex
	var g errgroup.Group

	for name, resourceURL := range targets {
		g.Go(func() error {
			res := c.fetchOne(ctx, resourceURL)
			mu.Lock()
			results[name] = res
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return results, nil
}

func (c *Client) fetchOne(ctx context.Context, resourceURL string) Result {
	res := Result{URL: resourceURL}

	if err := c.limiter.Wait(ctx); err != nil {
		res.Err = err
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resourceURL, nil)
	if err != nil {
		res.Err = err
		return res
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	start := time.Now()
	resp, err := c.http.Do(req)
	res.ElapsedMs = time.Since(start).Milliseconds()
	if err != nil {
		res.Err = err
		return res
	}
	res.FinalURL = resp.Request.URL.String()

	body, err := readBody(resp)
	res.ElapsedMs = time.Since(start).Milliseconds()
	if err != nil {
		res.Err = err
		return res
	}

	res.StatusCode = resp.StatusCode
	res.Header = resp.Header.Clone()
	res.Body = string(body)
	return res
}

// readBody decodes the response body according to its Content-Encoding and
// enforces the response size cap.
func readBody(resp *http.Response) ([]byte, error) {
	reader := io.Reader(resp.Body)
	closers := []io.Closer{resp.Body}

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		reader = gz
		closers = append(closers, gz)
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "deflate":
		fl := flate.NewReader(resp.Body)
		reader = fl
		closers = append(closers, fl)
	}

	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}()

	body, err := io.ReadAll(io.LimitReader(reader, maxResponseBody+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxResponseBody {
		return nil, fmt.Errorf("response body exceeds limit of %d bytes", maxResponseBody)
	}
	return body, nil
}
