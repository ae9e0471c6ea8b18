// Package fetch downloads shared conversation pages over HTTP.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const maxPageBytes = 32 << 20

var ErrBadStatus = errors.New("unexpected http status")

type Config struct {
	Concurrency int
	Timeout     time.Duration
	UserAgent   string
}

type Fetcher struct {
	cfg    Config
	client *http.Client
}

// Result is the outcome for one URL passed to FetchAll.
type Result struct {
	URL  string
	Body []byte
	Err  error
}

func NewFetcher(cfg Config) *Fetcher {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 4
	}

	return &Fetcher{
		cfg: cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
	}
}

// IsURL reports whether s names an http or https page rather than a file.
func IsURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// Page GETs rawURL and returns its body. Non-2xx responses wrap ErrBadStatus.
func (f *Fetcher) Page(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html, application/xhtml+xml;q=0.9, */*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s returned %d", ErrBadStatus, rawURL, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}
	if len(data) > maxPageBytes {
		return nil, fmt.Errorf("%s: page larger than %d bytes", rawURL, maxPageBytes)
	}
	return data, nil
}

// FetchAll downloads urls with at most Config.Concurrency requests in flight.
// Results are returned in the order of urls.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) []Result {
	results := make([]Result, len(urls))
	if len(urls) == 1 {
		body, err := f.Page(ctx, urls[0])
		results[0] = Result{URL: urls[0], Body: body, Err: err}
		return results
	}

	jobs := make(chan int)
	wg := sync.WaitGroup{}
	for i := 0; i < min(f.cfg.Concurrency, len(urls)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				body, err := f.Page(ctx, urls[idx])
				results[idx] = Result{URL: urls[idx], Body: body, Err: err}
			}
		}()
	}
	for i := range urls {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}
