package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoJSON_DecodesAndSendsHeaders(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "species-catalog/test", r.Header.Get("User-Agent"))
		assert.Equal(t, "k", r.Header.Get("apikey"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	c, err := NewWithBaseURL(ts.URL, time.Second)
	require.NoError(t, err)
	c.UserAgent = "species-catalog/test"

	var out struct {
		OK bool `json:"ok"`
	}
	err = c.DoJSON(context.Background(), http.MethodGet, "/ping", map[string]string{"apikey": "k"}, nil, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
}

func TestDoJSON_Non2xxIsHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer ts.Close()

	c := New(time.Second)
	err := c.DoJSON(context.Background(), http.MethodGet, ts.URL, nil, nil, nil)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	assert.Equal(t, "nope", httpErr.Body)
}

func TestDoJSON_RawMessageKeepsPayload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"pages":[]}`))
	}))
	defer ts.Close()

	var raw json.RawMessage
	err := New(time.Second).DoJSON(context.Background(), http.MethodGet, ts.URL, nil, nil, &raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"pages":[]}`, string(raw))
}

func TestDoJSON_RelativePathNeedsBaseURL(t *testing.T) {
	err := New(0).DoJSON(context.Background(), http.MethodGet, "/x", nil, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires BaseURL")
}

func TestDoJSON_RateLimitHonoursContext(t *testing.T) {
	c := New(time.Second).WithRateLimit(0.001)
	// consumir el único token
	require.True(t, c.Limiter.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := c.DoJSON(ctx, http.MethodGet, "http://127.0.0.1:1/never", nil, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}

func TestDoJSON_BadBodyIsErrDecode(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer ts.Close()

	var out json.RawMessage
	err := New(time.Second).DoJSON(context.Background(), http.MethodGet, ts.URL, nil, nil, &out)
	assert.ErrorIs(t, err, ErrDecode)
}
