package fetch

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func testClient(ts *httptest.Server) *Client {
	return &Client{
		http:    ts.Client(),
		limiter: rate.NewLimiter(rate.Inf, 1),
		timeout: 5 * time.Second,
	}
}

func TestFetchAll_AllResources(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			_, _ = fmt.Fprint(w, "<html><head><title>Home</title></head></html>")
		case "/robots.txt":
			_, _ = fmt.Fprint(w, "User-agent: *\nAllow: /")
		case "/sitemap.xml":
			_, _ = fmt.Fprint(w, "<urlset></urlset>")
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	results, err := testClient(ts).FetchAll(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{ResourcePage, ResourceRobots, ResourceSitemap, ResourceLLMS} {
		if _, ok := results[name]; !ok {
			t.Errorf("missing result for %q", name)
		}
	}

	if !results[ResourcePage].OK() {
		t.Errorf("page fetch failed: %+v", results[ResourcePage])
	}
	if !results[ResourceRobots].OK() {
		t.Errorf("robots fetch failed: %+v", results[ResourceRobots])
	}
	if results[ResourceLLMS].OK() {
		t.Error("llms.txt should be a 404, got OK")
	}
	if results[ResourceLLMS].StatusCode != http.StatusNotFound {
		t.Errorf("llms status = %d, want 404", results[ResourceLLMS].StatusCode)
	}
	if results[ResourcePage].Body == "" {
		t.Error("page body is empty")
	}
	if results[ResourcePage].ElapsedMs < 0 {
		t.Errorf("elapsed = %d, want >= 0", results[ResourcePage].ElapsedMs)
	}
}

// A secondary resource failure must not fail the page fetch.
func TestFetchAll_PartialFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			// Force a connection error mid-response.
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Fatal("server does not support hijacking")
			}
			conn, _, _ := hj.Hijack()
			_ = conn.Close()
			return
		}
		_, _ = fmt.Fprint(w, "ok")
	}))
	defer ts.Close()

	results, err := testClient(ts).FetchAll(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !results[ResourcePage].OK() {
		t.Errorf("page should succeed despite robots failure: %+v", results[ResourcePage])
	}
	if results[ResourceRobots].Err == nil {
		t.Error("robots fetch should carry an error")
	}
}

func TestFetchAll_InvalidTarget(t *testing.T) {
	c := NewClient(time.Second)
	if _, err := c.FetchAll(context.Background(), "not a url"); err == nil {
		t.Fatal("expected error for invalid target")
	}
}

func TestFetchOne_GzipBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		_, _ = gz.Write([]byte("<html>compressed</html>"))
		_ = gz.Close()
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write(buf.Bytes())
	}))
	defer ts.Close()

	res := testClient(ts).fetchOne(context.Background(), ts.URL)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Body != "<html>compressed</html>" {
		t.Errorf("body = %q, want decoded content", res.Body)
	}
}

func TestFetchOne_FinalURLAfterRedirect(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old" {
			http.Redirect(w, r, "/new", http.StatusMovedPermanently)
			return
		}
		_, _ = fmt.Fprint(w, "ok")
	}))
	defer ts.Close()

	res := testClient(ts).fetchOne(context.Background(), ts.URL+"/old")
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.URL != ts.URL+"/old" {
		t.Errorf("request url = %q, want %q", res.URL, ts.URL+"/old")
	}
	if res.FinalURL != ts.URL+"/new" {
		t.Errorf("final url = %q, want %q", res.FinalURL, ts.URL+"/new")
	}
}

func TestFetchOne_CancelledContext(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := testClient(ts).fetchOne(ctx, ts.URL)
	if res.Err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestSafeRedirectPolicy(t *testing.T) {
	tests := []struct {
		name    string
		scheme  string
		via     int
		wantErr bool
	}{
		{name: "https within limit", scheme: "https", via: 3, wantErr: false},
		{name: "too many redirects", scheme: "https", via: 5, wantErr: true},
		{name: "blocked ftp scheme", scheme: "ftp", via: 0, wantErr: true},
		{name: "blocked file scheme", scheme: "file", via: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &http.Request{URL: &url.URL{Scheme: tt.scheme, Host: "example.com"}}
			via := make([]*http.Request, tt.via)

			err := safeRedirectPolicy(req, via)
			if (err != nil) != tt.wantErr {
				t.Errorf("safeRedirectPolicy() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
