package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/JonMunkholm/linkboard/internal/logging"
)

// ErrNoTokenSource is returned when neither a static token nor a token URL
// is configured.
var ErrNoTokenSource = errors.New("fetch token: no token source configured")

const tokenKey = "github_token"

// TokenOptions configures a TokenSource.
type TokenOptions struct {
	// URL answers GET with {"githubToken": "..."}.
	URL string

	// Static, when set, is returned as-is and URL is never called.
	Static string

	TTL        time.Duration
	Timeout    time.Duration
	HTTPClient *http.Client
}

// TokenSource hands out a GitHub token fetched from a token endpoint and
// caches it for TTL. Concurrent misses share one fetch.
type TokenSource struct {
	url    string
	static string
	ttl    time.Duration

	http  *http.Client
	cache *gocache.Cache
	group singleflight.Group
}

// NewTokenSource creates a TokenSource from opts.
func NewTokenSource(opts TokenOptions) *TokenSource {
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Minute
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}

	return &TokenSource{
		url:    opts.URL,
		static: opts.Static,
		ttl:    opts.TTL,
		http:   hc,
		cache:  gocache.New(opts.TTL, 2*opts.TTL),
	}
}

// Token returns a cached token or fetches a fresh one.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	if s.static != "" {
		return s.static, nil
	}
	if s.url == "" {
		return "", ErrNoTokenSource
	}
	if v, ok := s.cache.Get(tokenKey); ok {
		return v.(string), nil
	}

	ch := s.group.DoChan(tokenKey, func() (any, error) {
		// The fetch outlives any single caller's cancellation.
		tok, err := s.fetch(context.WithoutCancel(ctx))
		if err != nil {
			return "", err
		}
		s.cache.Set(tokenKey, tok, s.ttl)
		return tok, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Invalidate drops the cached token so the next Token call fetches again.
func (s *TokenSource) Invalidate() {
	s.cache.Delete(tokenKey)
}

func (s *TokenSource) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return "", fmt.Errorf("fetch token: %w", err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch token: status %d", resp.StatusCode)
	}

	var body struct {
		GithubToken string `json:"githubToken"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return "", fmt.Errorf("fetch token: decode: %w", err)
	}
	if body.GithubToken == "" {
		return "", errors.New("fetch token: empty token in response")
	}

	logging.FromContext(ctx).Debug("github token refreshed", "ttl", s.ttl)
	return body.GithubToken, nil
}
