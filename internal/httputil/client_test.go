// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

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
)

func TestClientGetJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "TestAgent/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "diabetes", r.URL.Query().Get("term"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"count": 3}`))
	}))
	defer ts.Close()

	c := NewClient(5*time.Second, "TestAgent/1.0", 1, 0)
	var out struct {
		Count int `json:"count"`
	}
	err := c.GetJSON(context.Background(), ts.URL, url.Values{"term": {"diabetes"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Count)
}

func TestClientGetStatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("down"))
	}))
	defer ts.Close()

	c := NewClient(5*time.Second, "", 1, 0)
	_, err := c.Get(context.Background(), ts.URL, nil)
	require.Error(t, err)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.Equal(t, "down", se.Body)
}

func TestClientGetBadJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html>"))
	}))
	defer ts.Close()

	c := NewClient(5*time.Second, "", 1, 0)
	var out map[string]any
	err := c.GetJSON(context.Background(), ts.URL, nil, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding response")
}

func TestClientEnforcesInterval(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer ts.Close()

	interval := 40 * time.Millisecond
	c := NewClient(5*time.Second, "", 1, interval)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.Get(context.Background(), ts.URL, nil)
		require.NoError(t, err)
	}
	elapsed := time.Since(start)

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.GreaterOrEqual(t, elapsed, 2*interval, "three requests span at least two intervals")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
}
