package loader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/fastcache"

	"github.com/c360studio/ontopy/metric"
)

const (
	// AcceptHeader prefers Turtle and falls back to the other parsed syntaxes.
	AcceptHeader = "text/turtle, application/rdf+xml;q=0.9, application/n-triples;q=0.8, application/xml;q=0.5, */*;q=0.1"

	maxDocumentSize = 256 << 20
)

// Response is a fetched document.
type Response struct {
	// URL is the final URL after redirects.
	URL string

	// ContentType is the media type without parameters.
	ContentType string

	Body []byte
}

// Fetcher retrieves remote documents.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Response, error)
}

// HTTPFetcher fetches documents over HTTP and keeps recently fetched
// bodies in memory.
type HTTPFetcher struct {
	client  *http.Client
	cache   *fastcache.Cache
	metrics *metric.Metrics
	maxSize int64
}

// NewHTTPFetcher creates a fetcher. A nil client gets a 60 second timeout;
// cacheBytes <= 0 disables the in-memory cache.
func NewHTTPFetcher(client *http.Client, cacheBytes int, m *metric.Metrics) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	f := &HTTPFetcher{client: client, metrics: m, maxSize: maxDocumentSize}
	if cacheBytes > 0 {
		f.cache = fastcache.New(cacheBytes)
	}
	return f
}

// Fetch retrieves url. Failures are returned as is; the caller decides
// whether to try elsewhere.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Response, error) {
	if resp, ok := f.cached(url); ok {
		return resp, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create HTTP request: %w", err)
	}
	req.Header.Set("Accept", AcceptHeader)

	start := time.Now()
	httpResp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, &HTTPError{URL: url, StatusCode: httpResp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, f.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if int64(len(body)) > f.maxSize {
		return nil, fmt.Errorf("fetch %s: %w: more than %d bytes", url, ErrTooLarge, f.maxSize)
	}
	f.metrics.Fetched(len(body), time.Since(start))

	resp := &Response{URL: httpResp.Request.URL.String(), Body: body}
	if mt, _, err := mime.ParseMediaType(httpResp.Header.Get("Content-Type")); err == nil {
		resp.ContentType = mt
	}
	f.store(url, resp)
	return resp, nil
}

// Cache entries hold "content type\nfinal URL\nbody".
func (f *HTTPFetcher) cached(url string) (*Response, bool) {
	if f.cache == nil {
		return nil, false
	}
	data := f.cache.GetBig(nil, []byte(url))
	if len(data) == 0 {
		return nil, false
	}
	ct, rest, ok := bytes.Cut(data, []byte{'\n'})
	if !ok {
		return nil, false
	}
	final, body, ok := bytes.Cut(rest, []byte{'\n'})
	if !ok {
		return nil, false
	}
	return &Response{URL: string(final), ContentType: string(ct), Body: body}, true
}

func (f *HTTPFetcher) store(url string, resp *Response) {
	if f.cache == nil {
		return
	}
	var buf bytes.Buffer
	buf.Grow(len(resp.ContentType) + len(resp.URL) + len(resp.Body) + 2)
	buf.WriteString(resp.ContentType)
	buf.WriteByte('\n')
	buf.WriteString(resp.URL)
	buf.WriteByte('\n')
	buf.Write(resp.Body)
	f.cache.SetBig([]byte(url), buf.Bytes())
}
