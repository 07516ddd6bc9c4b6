package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/prod/datagetter", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"predictions":[]}`))
	}))
	defer server.Close()

	c := New(Options{BaseURL: server.URL, Timeout: time.Second})

	resp, err := c.Get(context.Background(), "/api/prod/datagetter")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"predictions":[]}`, string(resp.Body))
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`ok`))
	}))
	defer server.Close()

	c := New(Options{
		BaseURL:    server.URL,
		Timeout:    time.Second,
		MaxRetries: 3,
		Backoff:    time.Millisecond,
	})

	resp, err := c.Get(context.Background(), "/anything")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(3), calls.Load())
}

func TestGetExhaustsRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(Options{
		BaseURL:    server.URL,
		Timeout:    time.Second,
		MaxRetries: 2,
		Backoff:    time.Millisecond,
	})

	_, err := c.Get(context.Background(), "/anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`bad request`))
	}))
	defer server.Close()

	c := New(Options{
		BaseURL:    server.URL,
		Timeout:    time.Second,
		MaxRetries: 3,
		Backoff:    time.Millisecond,
	})

	// 4xx (other than 429) is a real answer: returned to the caller, not
	// retried.
	resp, err := c.Get(context.Background(), "/anything")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, int64(1), calls.Load())
}

func TestGetContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	c := New(Options{BaseURL: server.URL, Timeout: time.Second, Backoff: time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Get(ctx, "/slow")
	require.Error(t, err)
}

func TestGetFuncOverride(t *testing.T) {
	c := &Client{
		GetFunc: func(_ context.Context, path string) (*Response, error) {
			return &Response{StatusCode: 200, Body: []byte(path)}, nil
		},
	}

	resp, err := c.Get(context.Background(), "/mocked")
	require.NoError(t, err)
	assert.Equal(t, "/mocked", string(resp.Body))
}
