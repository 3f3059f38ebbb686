package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MichaelPico/job-offer-analyzer/internal/config"
)

func TestHTTPFetcher_Fetch(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/jobs":
			w.Write([]byte("<li>job</li>"))
		case "/empty":
			w.WriteHeader(http.StatusOK)
		case "/blocked":
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(WithRateLimit(0), WithUserAgent("job-offer-analyzer-test"))
	ctx := context.Background()

	body, err := f.Fetch(ctx, srv.URL+"/jobs")
	require.NoError(t, err)
	assert.Equal(t, "<li>job</li>", body)
	assert.Equal(t, "job-offer-analyzer-test", gotUA)

	body, err = f.Fetch(ctx, srv.URL+"/empty")
	require.NoError(t, err, "an empty page is not a failure")
	assert.Empty(t, body)

	_, err = f.Fetch(ctx, srv.URL+"/blocked")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
}

func TestHTTPFetcher_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTPFetcher().Fetch(ctx, srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPFetcher_RateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(WithRateLimit(20))
	start := time.Now()
	for range 3 {
		_, err := f.Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
	}
	//first request uses the burst, the next two wait ~50ms each
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestFromConfig(t *testing.T) {
	f := FromConfig(config.Fetch{UserAgent: "ua", RequestsPerSecond: 2})
	assert.Equal(t, "ua", f.userAgent)
	assert.Equal(t, DefaultTimeout, f.httpClient.Timeout)
}
