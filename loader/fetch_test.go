package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/ontopy/metric"
)

func TestHTTPFetcher(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/old.ttl":
			http.Redirect(w, r, "/new.ttl", http.StatusMovedPermanently)
		case "/new.ttl":
			w.Header().Set("Content-Type", "text/turtle; charset=utf-8")
			_, _ = w.Write([]byte("<urn:a> <urn:b> <urn:c> .\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	m, err := metric.New()
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("follows redirects and strips parameters", func(t *testing.T) {
		f := NewHTTPFetcher(nil, 0, m)
		resp, err := f.Fetch(ctx, srv.URL+"/old.ttl")
		require.NoError(t, err)
		assert.Equal(t, srv.URL+"/new.ttl", resp.URL)
		assert.Equal(t, "text/turtle", resp.ContentType)
		assert.Equal(t, "<urn:a> <urn:b> <urn:c> .\n", string(resp.Body))
	})

	t.Run("caches bodies", func(t *testing.T) {
		f := NewHTTPFetcher(srv.Client(), 1<<20, nil)
		before := hits.Load()
		for i := 0; i < 3; i++ {
			resp, err := f.Fetch(ctx, srv.URL+"/new.ttl")
			require.NoError(t, err)
			assert.Equal(t, "text/turtle", resp.ContentType)
			assert.Equal(t, srv.URL+"/new.ttl", resp.URL)
		}
		assert.Equal(t, int32(1), hits.Load()-before)
	})

	t.Run("without cache every fetch hits the server", func(t *testing.T) {
		f := NewHTTPFetcher(srv.Client(), 0, nil)
		before := hits.Load()
		for i := 0; i < 2; i++ {
			_, err := f.Fetch(ctx, srv.URL+"/new.ttl")
			require.NoError(t, err)
		}
		assert.Equal(t, int32(2), hits.Load()-before)
	})

	t.Run("not found", func(t *testing.T) {
		f := NewHTTPFetcher(srv.Client(), 1<<20, nil)
		_, err := f.Fetch(ctx, srv.URL+"/missing.ttl")
		var httpErr *HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.True(t, httpErr.NotFound())
		assert.Contains(t, err.Error(), "404")
	})

	t.Run("rejects oversized documents", func(t *testing.T) {
		f := NewHTTPFetcher(srv.Client(), 1<<20, nil)
		f.maxSize = 10
		_, err := f.Fetch(ctx, srv.URL+"/new.ttl")
		assert.ErrorIs(t, err, ErrTooLarge)

		f.maxSize = int64(len("<urn:a> <urn:b> <urn:c> .\n"))
		resp, err := f.Fetch(ctx, srv.URL+"/new.ttl")
		require.NoError(t, err)
		assert.Len(t, resp.Body, int(f.maxSize))
	})

	t.Run("cancelled", func(t *testing.T) {
		f := NewHTTPFetcher(srv.Client(), 0, nil)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := f.Fetch(cctx, srv.URL+"/new.ttl")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestResolutionError(t *testing.T) {
	err := &ResolutionError{
		Identifier: "chemistry",
		Tried:      []string{"a/chemistry.ttl", "b/chemistry.ttl"},
		Err:        errNoDocument,
	}
	assert.Equal(t, `resolve ontology "chemistry" (tried a/chemistry.ttl, b/chemistry.ttl): no document found`, err.Error())
	assert.ErrorIs(t, err, ErrUnresolved)
	assert.ErrorIs(t, err, errNoDocument)
}
