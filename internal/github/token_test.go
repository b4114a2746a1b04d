package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	timeout = 2 * time.Second
	tick    = 10 * time.Millisecond
)

func TestTokenSource_CachesToken(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"githubToken":"ghp_test"}`))
	}))
	defer srv.Close()

	ts := NewTokenSource(TokenOptions{URL: srv.URL})
	ctx := context.Background()

	for range 3 {
		tok, err := ts.Token(ctx)
		require.NoError(t, err)
		assert.Equal(t, "ghp_test", tok)
	}
	assert.Equal(t, int32(1), calls.Load())

	ts.Invalidate()
	_, err := ts.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestTokenSource_ConcurrentMissesShareFetch(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		_, _ = w.Write([]byte(`{"githubToken":"shared"}`))
	}))
	defer srv.Close()

	ts := NewTokenSource(TokenOptions{URL: srv.URL})

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := ts.Token(context.Background())
			assert.NoError(t, err)
			results[i] = tok
		}(i)
	}

	// Wait until the one fetch is in flight before releasing it.
	require.Eventually(t, func() bool { return calls.Load() == 1 }, timeout, tick)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, tok := range results {
		assert.Equal(t, "shared", tok)
	}
}

func TestTokenSource_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"server error", http.StatusInternalServerError, "", "fetch token: status 500"},
		{"empty token", http.StatusOK, `{"githubToken":""}`, "fetch token: empty token"},
		{"bad json", http.StatusOK, `not json`, "fetch token: decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewTokenSource(TokenOptions{URL: srv.URL}).Token(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTokenSource_Static(t *testing.T) {
	ts := NewTokenSource(TokenOptions{Static: "fixed", URL: "http://127.0.0.1:0/unused"})
	tok, err := ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fixed", tok)
}

func TestTokenSource_Unconfigured(t *testing.T) {
	_, err := NewTokenSource(TokenOptions{}).Token(context.Background())
	assert.ErrorIs(t, err, ErrNoTokenSource)
}
