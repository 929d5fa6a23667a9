package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/dialect-service/internal/http/ratelimit"
)

func fastConfig() ratelimit.Config {
	return ratelimit.Config{RequestsPerSecond: 0, MaxRetries: 2, InitialBackoffMs: 1, MaxBackoffMs: 5}
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("a,b\n1,2\n"))
	}))
	defer srv.Close()

	data, err := NewClient(fastConfig()).GetBytes(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(fastConfig()).GetBytes(context.Background(), srv.URL)
	var fe *ratelimit.FetchRetryError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusNotFound, fe.LastStatus)
	assert.Equal(t, 1, fe.Attempts)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientGetPrefix(t *testing.T) {
	var rangeHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rangeHeader = r.Header.Get("Range")
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer srv.Close()

	data, err := NewClient(fastConfig()).GetPrefix(context.Background(), srv.URL, 4)
	require.NoError(t, err)
	assert.Equal(t, "0123", string(data))
	assert.Equal(t, "bytes=0-3", rangeHeader)
}

func TestClientUserAgentAndTimeout(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		time.Sleep(50 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(ratelimit.Config{MaxRetries: 0}).WithUserAgent("dialect-test/1.0")
	_, err := client.GetBytes(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "dialect-test/1.0", ua)

	_, err = client.WithTimeout(5 * time.Millisecond).GetBytes(context.Background(), srv.URL)
	var fe *ratelimit.FetchRetryError
	require.True(t, errors.As(err, &fe))
	assert.Error(t, fe.LastError)
}
