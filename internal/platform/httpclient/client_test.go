package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/solarb/internal/domain"
)

func TestGetJSONDecodesAndSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/price", r.URL.Path)
		assert.Equal(t, "abc", r.URL.Query().Get("ids"))
		assert.Equal(t, "k", r.Header.Get("x-api-key"))
		w.Write([]byte(`{"price":1.5}`))
	}))
	defer srv.Close()

	c := New(srv.URL, Options{Headers: map[string]string{"x-api-key": "k"}})
	var out struct {
		Price float64 `json:"price"`
	}
	err := c.GetJSON(context.Background(), "/v1/price", url.Values{"ids": {"abc"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, 1.5, out.Price)
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`ok`))
	}))
	defer srv.Close()

	c := New(srv.URL, Options{MaxRetries: 3})
	body, err := c.Get(context.Background(), "/", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetMapsStatusAfterRetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(srv.URL, Options{MaxRetries: 1})
	_, err := c.Get(context.Background(), "/", nil)
	require.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, Options{MaxRetries: 3})
	_, err := c.Get(context.Background(), "/missing", nil)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetHonoursContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := New(srv.URL, Options{MaxRetries: 3})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Get(ctx, "/", nil)
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestCheckStatus(t *testing.T) {
	assert.NoError(t, CheckStatus(204, nil))
	assert.ErrorIs(t, CheckStatus(401, nil), domain.ErrUnauthorized)
	assert.ErrorIs(t, CheckStatus(403, nil), domain.ErrUnauthorized)
	assert.ErrorContains(t, CheckStatus(500, []byte("boom")), "HTTP 500: boom")
}
